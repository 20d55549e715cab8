package delegate

import (
	"context"
	"errors"

	domaindelegate "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/delegate"
)

// ErrNotFound distinguishes "no such delegate" from a failing store. Callers
// pattern-match with errors.Is; anything else is a dependency failure.
var ErrNotFound = errors.New("delegate: not found")

// Store reads delegate records owned by the registration subsystem.
type Store interface {
	Get(ctx context.Context, accountID, delegateID string) (domaindelegate.Delegate, error)
	Roster(ctx context.Context, accountID string) ([]domaindelegate.RosterEntry, error)
	// Selectors returns the delegate's advertised selector tags plus any
	// implicit ones (host name, group name) the store derives.
	Selectors(ctx context.Context, d domaindelegate.Delegate) ([]string, error)
}
