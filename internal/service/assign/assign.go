package assign

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/vigneswara-propelo/harness-core-sub004/internal/adapter/memory"
	domainconn "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/connection"
	"github.com/vigneswara-propelo/harness-core-sub004/internal/domain/selection"
	domaintask "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/task"
	portconnection "github.com/vigneswara-propelo/harness-core-sub004/internal/port/connection"
	portdelegate "github.com/vigneswara-propelo/harness-core-sub004/internal/port/delegate"
	portinfra "github.com/vigneswara-propelo/harness-core-sub004/internal/port/infra"
	portprofile "github.com/vigneswara-propelo/harness-core-sub004/internal/port/profile"
	portselectionlog "github.com/vigneswara-propelo/harness-core-sub004/internal/port/selectionlog"
	"github.com/vigneswara-propelo/harness-core-sub004/internal/service/fleet"
)

// Staleness windows for cached connectivity verdicts, all measured against a
// result's last-updated timestamp.
const (
	// WhitelistTTL bounds how long a validated result is trusted as a
	// whitelist signal without a refresh.
	WhitelistTTL = 6 * time.Hour
	// BlacklistTTL bounds how long a failed or stale result suppresses
	// re-probing before the next dispatch.
	BlacklistTTL = 5 * time.Minute
	// WhitelistRefreshInterval is the age past which a still-valid result's
	// timestamp is bumped instead of letting it drift toward WhitelistTTL.
	WhitelistRefreshInterval = 10 * time.Minute
)

const (
	connCacheTTL        = 2 * time.Minute
	maxConnCacheEntries = 10000
)

type resultKey struct {
	delegateID string
	criteria   string
}

// cachedResult wraps a connection result as present/absent so that absence is
// cached too and a missing record does not hit the store on every dispatch.
type cachedResult struct {
	result  domainconn.Result
	present bool
}

// Service composes the scope, profile-scoping and selector matchers with the
// connectivity whitelist protocol into the decision API a task dispatcher
// calls on the hot path. Dependency failures never escape a public operation;
// they degrade to the most conservative answer and a logged warning.
type Service struct {
	delegates     portdelegate.Store
	environments  portinfra.EnvironmentStore
	infraMappings portinfra.InfraMappingStore
	profiles      portprofile.Store
	connections   portconnection.Store
	logs          portselectionlog.Sink
	fleet         *fleet.Service
	connCache     *memory.LoadingCache[resultKey, cachedResult]
	rng           Rand
	now           func() time.Time
}

func NewService(
	delegates portdelegate.Store,
	environments portinfra.EnvironmentStore,
	infraMappings portinfra.InfraMappingStore,
	profiles portprofile.Store,
	connections portconnection.Store,
	logs portselectionlog.Sink,
	fleetSvc *fleet.Service,
	rng Rand,
) *Service {
	s := &Service{
		delegates:     delegates,
		environments:  environments,
		infraMappings: infraMappings,
		profiles:      profiles,
		connections:   connections,
		logs:          logs,
		fleet:         fleetSvc,
		rng:           rng,
		now:           time.Now,
	}
	s.connCache = memory.NewLoadingCache(maxConnCacheEntries, connCacheTTL, s.loadConnectionResult)
	return s
}

// NewBatch starts a decision-log batch for one assignment attempt.
func (s *Service) NewBatch(t domaintask.Task) *selection.Batch {
	return s.logs.NewBatch(t)
}

// SaveBatch persists an accumulated decision-log batch; failures are logged,
// never surfaced to the dispatcher.
func (s *Service) SaveBatch(ctx context.Context, batch *selection.Batch) {
	if err := s.logs.Save(ctx, batch); err != nil {
		slog.WarnContext(ctx, "failed to persist selection log batch", "error", err)
	}
}

func (s *Service) loadConnectionResult(ctx context.Context, key resultKey) (cachedResult, error) {
	result, err := s.connections.Find(ctx, key.delegateID, key.criteria)
	if err != nil {
		if errors.Is(err, portconnection.ErrNotFound) {
			return cachedResult{}, nil
		}
		return cachedResult{}, err
	}
	return cachedResult{result: result, present: true}, nil
}

// CanAssign reports whether the delegate is eligible for the task. A task
// pinned to a specific delegate id bypasses every matcher. The returned error
// is non-nil only for configuration errors (an invalid scope); dependency
// failures degrade to false.
func (s *Service) CanAssign(ctx context.Context, batch *selection.Batch, delegateID string, t domaintask.Task) (bool, error) {
	d, err := s.delegates.Get(ctx, t.AccountID, delegateID)
	if err != nil {
		if !errors.Is(err, portdelegate.ErrNotFound) {
			slog.WarnContext(ctx, "failed to fetch delegate", "account_id", t.AccountID, "delegate_id", delegateID, "error", err)
		}
		return false, nil
	}

	if t.MustExecuteOnDelegateID != "" {
		if delegateID == t.MustExecuteOnDelegateID {
			s.logs.LogMustExecuteOnDelegateMatched(batch, t.AccountID, delegateID)
			return true, nil
		}
		s.logs.LogMustExecuteOnDelegateNotMatched(batch, t.AccountID, delegateID)
		return false, nil
	}

	ok, err := s.canAssignScopes(ctx, batch, d, t)
	if err != nil || !ok {
		return false, err
	}
	if !s.profileScopesMatch(ctx, batch, d, t) {
		return false, nil
	}
	if !s.selectorsMatch(ctx, batch, d, t) {
		return false, nil
	}

	s.logs.LogCanAssign(batch, t.AccountID, delegateID)
	return true, nil
}

// ExtractSelectors returns the union of the task's selector-capability tags
// and its free-form tags, normalized, deduplicated and sorted.
func (s *Service) ExtractSelectors(t domaintask.Task) []string {
	set := make(map[string]struct{})
	for _, c := range t.SelectorCapabilities() {
		for _, sel := range c.Selectors {
			if normalized := normalizeSelector(sel); normalized != "" {
				set[normalized] = struct{}{}
			}
		}
	}
	for _, tag := range t.Tags {
		if normalized := normalizeSelector(tag); normalized != "" {
			set[normalized] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for sel := range set {
		out = append(out, sel)
	}
	sort.Strings(out)
	return out
}

func normalizeSelector(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsWhitelisted reports whether every agent-probed criterion of the task has
// a validated connection result for the delegate younger than WhitelistTTL.
// Internal failures degrade to false.
func (s *Service) IsWhitelisted(ctx context.Context, t domaintask.Task, delegateID string) bool {
	now := s.now()
	for _, criteria := range t.Criteria() {
		cached, err := s.connCache.Get(ctx, resultKey{delegateID: delegateID, criteria: criteria})
		if err != nil {
			slog.WarnContext(ctx, "failed to load connection result", "delegate_id", delegateID, "criteria", criteria, "error", err)
			return false
		}
		if !cached.present || !cached.result.Validated || cached.result.OlderThan(WhitelistTTL, now) {
			return false
		}
	}
	return true
}

// ShouldValidate reports whether the delegate must run a fresh connectivity
// probe before the task may be dispatched to it. A task with no probeable
// criteria must always validate.
func (s *Service) ShouldValidate(ctx context.Context, t domaintask.Task, delegateID string) bool {
	criteria := t.Criteria()
	if len(criteria) == 0 {
		return true
	}
	now := s.now()
	for _, c := range criteria {
		cached, err := s.connCache.Get(ctx, resultKey{delegateID: delegateID, criteria: c})
		if err != nil {
			slog.WarnContext(ctx, "failed to load connection result", "delegate_id", delegateID, "criteria", c, "error", err)
			return true
		}
		if !cached.present {
			return true
		}
		if !cached.result.Validated || cached.result.OlderThan(BlacklistTTL, now) {
			return true
		}
		// Valid and fresh, but a delegate that dropped out of the active set
		// is a last resort: verify unless some other whitelisted delegate is
		// still connected.
		if !s.delegateActive(ctx, t.AccountID, delegateID) && len(s.ConnectedWhitelistedDelegates(ctx, t)) == 0 {
			return true
		}
	}
	return false
}

func (s *Service) delegateActive(ctx context.Context, accountID, delegateID string) bool {
	for _, id := range s.fleet.ActiveDelegates(ctx, nil, accountID) {
		if id == delegateID {
			return true
		}
	}
	return false
}

// ConnectedWhitelistedDelegates returns the active delegates that are
// eligible for the task and, when the task carries probeable criteria, hold a
// validated connection result for every one of them. The accumulated decision
// trail is persisted once per call.
func (s *Service) ConnectedWhitelistedDelegates(ctx context.Context, t domaintask.Task) []string {
	batch := s.logs.NewBatch(t)
	defer func() {
		if err := s.logs.Save(ctx, batch); err != nil {
			slog.WarnContext(ctx, "failed to persist selection log batch", "task_id", t.ID, "error", err)
		}
	}()

	var out []string
	criteria := t.Criteria()
	for _, delegateID := range s.fleet.ActiveDelegates(ctx, batch, t.AccountID) {
		ok, err := s.CanAssign(ctx, batch, delegateID, t)
		if err != nil {
			slog.ErrorContext(ctx, "invalid delegate scope configuration", "delegate_id", delegateID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		if len(criteria) > 0 && !s.connectedForAll(ctx, delegateID, criteria) {
			continue
		}
		out = append(out, delegateID)
	}
	return out
}

func (s *Service) connectedForAll(ctx context.Context, delegateID string, criteria []string) bool {
	for _, c := range criteria {
		cached, err := s.connCache.Get(ctx, resultKey{delegateID: delegateID, criteria: c})
		if err != nil {
			slog.WarnContext(ctx, "failed to load connection result", "delegate_id", delegateID, "criteria", c, "error", err)
			return false
		}
		if !cached.present || !cached.result.Validated {
			return false
		}
	}
	return true
}

// PickFirstAttemptDelegate chooses uniformly at random among the connected
// whitelisted delegates for the task; empty string when there are none.
func (s *Service) PickFirstAttemptDelegate(ctx context.Context, t domaintask.Task) string {
	candidates := s.ConnectedWhitelistedDelegates(ctx, t)
	if len(candidates) == 0 {
		return ""
	}
	idx, err := s.rng.Intn(len(candidates))
	if err != nil {
		slog.WarnContext(ctx, "random source failed, falling back to first candidate", "error", err)
		return candidates[0]
	}
	return candidates[idx]
}

// RefreshWhitelist bumps the timestamp of every cached result for the task's
// criteria that is older than WhitelistRefreshInterval, keeping still-valid
// results inside the whitelist window without a full reconnect probe.
func (s *Service) RefreshWhitelist(ctx context.Context, t domaintask.Task, delegateID string) {
	now := s.now()
	for _, criteria := range t.Criteria() {
		key := resultKey{delegateID: delegateID, criteria: criteria}
		cached, err := s.connCache.Get(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, "failed to load connection result", "delegate_id", delegateID, "criteria", criteria, "error", err)
			continue
		}
		if !cached.present || !cached.result.OlderThan(WhitelistRefreshInterval, now) {
			continue
		}
		if err := s.connections.Touch(ctx, delegateID, criteria, now); err != nil {
			slog.WarnContext(ctx, "failed to refresh connection result", "delegate_id", delegateID, "criteria", criteria, "error", err)
			continue
		}
		s.connCache.Invalidate(key)
	}
}

// SaveConnectionResults upserts probe outcomes reported by a delegate.
// Existing records only have their validity flag updated; a duplicate insert
// lost to a racing writer is benign.
func (s *Service) SaveConnectionResults(ctx context.Context, results []domainconn.Result) {
	for _, r := range results {
		if strings.TrimSpace(r.Criteria) == "" {
			continue
		}
		_, err := s.connections.Find(ctx, r.DelegateID, r.Criteria)
		switch {
		case err == nil:
			if err := s.connections.SetValidity(ctx, r.DelegateID, r.Criteria, r.Validated); err != nil {
				slog.WarnContext(ctx, "failed to update connection result", "delegate_id", r.DelegateID, "criteria", r.Criteria, "error", err)
			}
		case errors.Is(err, portconnection.ErrNotFound):
			if err := s.connections.Insert(ctx, r); err != nil {
				if errors.Is(err, portconnection.ErrDuplicate) {
					slog.WarnContext(ctx, "connection result already inserted by a racing writer", "delegate_id", r.DelegateID, "criteria", r.Criteria)
				} else {
					slog.WarnContext(ctx, "failed to insert connection result", "delegate_id", r.DelegateID, "criteria", r.Criteria, "error", err)
				}
			}
		default:
			slog.WarnContext(ctx, "failed to look up connection result", "delegate_id", r.DelegateID, "criteria", r.Criteria, "error", err)
		}
		s.connCache.Invalidate(resultKey{delegateID: r.DelegateID, criteria: r.Criteria})
	}
}

// ClearConnectionResults deletes the account's connection results; a
// non-blank delegateID narrows the delete to that delegate.
func (s *Service) ClearConnectionResults(ctx context.Context, accountID, delegateID string) {
	if err := s.connections.BulkDelete(ctx, accountID, delegateID); err != nil {
		slog.WarnContext(ctx, "failed to clear connection results", "account_id", accountID, "delegate_id", delegateID, "error", err)
	}
}
