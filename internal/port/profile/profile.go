package profile

import (
	"context"
	"errors"

	domainprofile "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/profile"
)

var ErrNotFound = errors.New("profile: not found")

// Store resolves delegate profiles. A dangling profile reference is reported
// as ErrNotFound and never blocks dispatch.
type Store interface {
	Get(ctx context.Context, profileID string) (domainprofile.Profile, error)
}
