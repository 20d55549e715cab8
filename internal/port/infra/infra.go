package infra

import (
	"context"
	"errors"

	domaininfra "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/infra"
)

var ErrNotFound = errors.New("infra: not found")

// EnvironmentStore resolves environments referenced by scopes and by the
// profile matcher's envType workaround.
type EnvironmentStore interface {
	Get(ctx context.Context, appID, envID string) (domaininfra.Environment, error)
}

// InfraMappingStore resolves infrastructure mappings referenced by scopes and
// by the profile matcher's serviceId workaround.
type InfraMappingStore interface {
	Get(ctx context.Context, appID, infraMappingID string) (domaininfra.InfraMapping, error)
}
