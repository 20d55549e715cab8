package assign

import (
	"context"
	"log/slog"

	domaindelegate "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/delegate"
	"github.com/vigneswara-propelo/harness-core-sub004/internal/domain/selection"
	domaintask "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/task"
)

// selectorsMatch checks every selector-capability requirement against the
// delegate's advertised selectors. Comparison is trimmed and case-insensitive.
// Every miss is logged so the decision trail is complete; the result is the
// conjunction across all requirements.
func (s *Service) selectorsMatch(ctx context.Context, batch *selection.Batch, d domaindelegate.Delegate, t domaintask.Task) bool {
	selectorCaps := t.SelectorCapabilities()
	if len(selectorCaps) == 0 {
		return true
	}

	advertised, err := s.delegates.Selectors(ctx, d)
	if err != nil {
		slog.WarnContext(ctx, "failed to fetch delegate selectors", "delegate_id", d.ID, "error", err)
		return false
	}
	if len(advertised) == 0 {
		s.logs.LogMissingAllSelectors(batch, t.AccountID, d.ID)
		return false
	}

	have := domaindelegate.NormalizeSelectors(advertised)
	matched := true
	for _, sc := range selectorCaps {
		for _, required := range sc.Selectors {
			normalized := normalizeSelector(required)
			if normalized == "" {
				continue
			}
			if _, ok := have[normalized]; !ok {
				s.logs.LogMissingSelector(batch, t.AccountID, d.ID, normalized, sc.SelectorOrigin)
				matched = false
			}
		}
	}
	return matched
}
