package assign

import (
	"context"
	"errors"
	"log/slog"

	domaindelegate "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/delegate"
	domainprofile "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/profile"
	"github.com/vigneswara-propelo/harness-core-sub004/internal/domain/selection"
	domaintask "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/task"
	portprofile "github.com/vigneswara-propelo/harness-core-sub004/internal/port/profile"
)

// profileScopesMatch evaluates the delegate's profile scoping rules against
// the task's setup metadata. A dangling profile reference fails open: a bad
// profile id must never block dispatch. A profile with rules evaluated
// against a task with no metadata fails closed.
func (s *Service) profileScopesMatch(ctx context.Context, batch *selection.Batch, d domaindelegate.Delegate, t domaintask.Task) bool {
	if d.ProfileID == "" {
		return true
	}
	prof, err := s.profiles.Get(ctx, d.ProfileID)
	if err != nil {
		if errors.Is(err, portprofile.ErrNotFound) {
			slog.WarnContext(ctx, "delegate references missing profile, skipping profile scoping", "delegate_id", d.ID, "profile_id", d.ProfileID)
		} else {
			slog.WarnContext(ctx, "failed to fetch delegate profile, skipping profile scoping", "delegate_id", d.ID, "profile_id", d.ProfileID, "error", err)
		}
		return true
	}

	if len(prof.ScopingRules) == 0 {
		return true
	}
	if len(t.SetupMetadata) == 0 {
		s.logs.LogProfileScopeRuleNotMatched(batch, t.AccountID, d.ID, prof.ID, nil)
		return false
	}

	var failedRules []string
	for _, rule := range prof.ScopingRules {
		if s.ruleMatches(ctx, rule, t.SetupMetadata) {
			return true
		}
		failedRules = append(failedRules, rule.Description)
	}

	s.logs.LogProfileScopeRuleNotMatched(batch, t.AccountID, d.ID, prof.ID, failedRules)
	return false
}

// ruleMatches requires every (key -> allowed values) constraint of the rule
// to be satisfied by the metadata. Two workarounds cover legacy tasks that
// predate structured fields: an envType constraint may be satisfied through
// the metadata's envId, and a serviceId constraint through its
// infrastructureMappingId.
func (s *Service) ruleMatches(ctx context.Context, rule domainprofile.ScopingRule, metadata map[string]string) bool {
	for key := range rule.Entries {
		if value, ok := metadata[key]; ok && rule.Allows(key, value) {
			continue
		}
		if s.workaroundSatisfies(ctx, rule, key, metadata) {
			continue
		}
		return false
	}
	return true
}

func (s *Service) workaroundSatisfies(ctx context.Context, rule domainprofile.ScopingRule, key string, metadata map[string]string) bool {
	switch key {
	case domaintask.FieldEnvType:
		envID := metadata[domaintask.FieldEnvID]
		if envID == "" {
			return false
		}
		env, err := s.environments.Get(ctx, metadata[domaintask.FieldAppID], envID)
		if err != nil {
			return false
		}
		return rule.Allows(key, env.Type)
	case domaintask.FieldServiceID:
		infraMappingID := metadata[domaintask.FieldInfraMappingID]
		if infraMappingID == "" {
			return false
		}
		mapping, err := s.infraMappings.Get(ctx, metadata[domaintask.FieldAppID], infraMappingID)
		if err != nil {
			return false
		}
		return rule.Allows(key, mapping.ServiceID)
	default:
		return false
	}
}
