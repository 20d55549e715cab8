package assign

import (
	"context"
	"errors"
	"log/slog"

	domaindelegate "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/delegate"
	"github.com/vigneswara-propelo/harness-core-sub004/internal/domain/scope"
	"github.com/vigneswara-propelo/harness-core-sub004/internal/domain/selection"
	domaintask "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/task"
	portinfra "github.com/vigneswara-propelo/harness-core-sub004/internal/port/infra"
)

// canAssignScopes applies the delegate's include and exclude scopes to the
// task: with include scopes present at least one must match, and no exclude
// scope may match. Exclude wins; the first exclude match is reported and
// short-circuits. Nil scope entries are legacy data and are skipped.
func (s *Service) canAssignScopes(ctx context.Context, batch *selection.Batch, d domaindelegate.Delegate, t domaintask.Task) (bool, error) {
	includes := nonNilScopes(d.IncludeScopes)
	if len(includes) > 0 {
		matched := false
		for _, sc := range includes {
			ok, err := s.ScopeMatch(ctx, sc, t.AppID, t.EnvID, t.InfraMappingID, t.TaskGroup, t.AccountID)
			if err != nil {
				return false, err
			}
			if ok {
				matched = true
				break
			}
		}
		if !matched {
			s.logs.LogNoIncludeScopeMatched(batch, t.AccountID, d.ID)
			return false, nil
		}
	}

	for _, sc := range nonNilScopes(d.ExcludeScopes) {
		ok, err := s.ScopeMatch(ctx, sc, t.AppID, t.EnvID, t.InfraMappingID, t.TaskGroup, t.AccountID)
		if err != nil {
			return false, err
		}
		if ok {
			s.logs.LogExcludeScopeMatched(batch, t.AccountID, d.ID, sc.Name)
			return false, nil
		}
	}

	return true, nil
}

func nonNilScopes(scopes []*scope.Scope) []*scope.Scope {
	var out []*scope.Scope
	for _, sc := range scopes {
		if sc != nil {
			out = append(out, sc)
		}
	}
	return out
}

// ScopeMatch evaluates one scope against the task tuple. Every populated
// restriction must hold; a scope with no restrictions matches everything.
// A nil scope reference is a configuration error and is returned, not masked.
// A wildcard appId or envId passes the corresponding check without a lookup.
func (s *Service) ScopeMatch(ctx context.Context, sc *scope.Scope, appID, envID, infraMappingID, taskGroup, accountID string) (bool, error) {
	if sc == nil {
		return false, scope.ErrInvalid
	}

	if sc.RestrictsEnvironmentTypes() {
		ok, err := s.environmentTypeMatch(ctx, sc, appID, envID)
		if err != nil || !ok {
			return false, err
		}
	}
	if sc.RestrictsTaskGroups() && !sc.AllowsTaskGroup(taskGroup) {
		return false, nil
	}
	if sc.RestrictsApplications() && appID != domaintask.ScopeWildcard && !sc.AllowsApplication(appID) {
		return false, nil
	}
	if sc.RestrictsEnvironments() && envID != domaintask.ScopeWildcard && !sc.AllowsEnvironment(envID) {
		return false, nil
	}
	if sc.RestrictsInfra() {
		if appID == "" || infraMappingID == "" {
			return false, nil
		}
		mapping, err := s.infraMappings.Get(ctx, appID, infraMappingID)
		if err != nil {
			// A scope that restricts infra cannot match without a resolvable
			// mapping, whether the record is gone or the store is down.
			if !errors.Is(err, portinfra.ErrNotFound) {
				slog.WarnContext(ctx, "failed to resolve infra mapping", "app_id", appID, "infra_mapping_id", infraMappingID, "error", err)
			}
			return false, nil
		}
		if !sc.AllowsInfraDefinition(mapping.InfraDefinitionID) || !sc.AllowsService(mapping.ServiceID) {
			return false, nil
		}
	} else if sc.RestrictsServiceInfrastructures() && !sc.AllowsServiceInfrastructure(infraMappingID) {
		return false, nil
	}

	return true, nil
}

func (s *Service) environmentTypeMatch(ctx context.Context, sc *scope.Scope, appID, envID string) (bool, error) {
	if appID == domaintask.ScopeWildcard || envID == domaintask.ScopeWildcard {
		return true, nil
	}
	if appID == "" || envID == "" {
		return false, nil
	}
	env, err := s.environments.Get(ctx, appID, envID)
	if err != nil {
		if !errors.Is(err, portinfra.ErrNotFound) {
			slog.WarnContext(ctx, "failed to resolve environment", "app_id", appID, "env_id", envID, "error", err)
		}
		return false, nil
	}
	return sc.AllowsEnvironmentType(env.Type), nil
}
