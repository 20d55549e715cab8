package fleet

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/vigneswara-propelo/harness-core-sub004/internal/adapter/memory"
	domaindelegate "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/delegate"
	"github.com/vigneswara-propelo/harness-core-sub004/internal/domain/selection"
	portdelegate "github.com/vigneswara-propelo/harness-core-sub004/internal/port/delegate"
	portselectionlog "github.com/vigneswara-propelo/harness-core-sub004/internal/port/selectionlog"
)

// MaxHeartbeatAge is how long a delegate may go without a heartbeat before it
// is classified as disconnected: the agent's heartbeat interval plus slack.
const MaxHeartbeatAge = 5 * time.Minute

// RosterTTL keeps roster staleness well inside the heartbeat tolerance, so a
// stale cache entry can never by itself produce a false "no delegates".
const RosterTTL = MaxHeartbeatAge / 3

const maxRosterEntries = 10000

// Service maintains the per-account roster cache and classifies the fleet
// into activity states.
// [SRP] Fleet visibility only; eligibility belongs to the assign service.
type Service struct {
	store portdelegate.Store
	logs  portselectionlog.Sink
	cache *memory.LoadingCache[string, []domaindelegate.RosterEntry]
	now   func() time.Time
}

func NewService(store portdelegate.Store, logs portselectionlog.Sink) *Service {
	s := &Service{
		store: store,
		logs:  logs,
		now:   time.Now,
	}
	s.cache = memory.NewLoadingCache(maxRosterEntries, RosterTTL, s.store.Roster)
	return s
}

// AccountDelegates returns the cached roster for the account. A load that
// comes back empty is served but immediately invalidated, so an account whose
// first delegate registers moments later is not stuck behind a cached empty
// roster for the full TTL. Store failures degrade to an empty roster.
func (s *Service) AccountDelegates(ctx context.Context, accountID string) []domaindelegate.RosterEntry {
	roster, err := s.cache.Get(ctx, accountID)
	if err != nil {
		slog.WarnContext(ctx, "failed to load account roster", "account_id", accountID, "error", err)
		return nil
	}
	if len(roster) == 0 {
		s.cache.Invalidate(accountID)
	}
	return roster
}

// ActiveDelegates partitions the account's roster at now-MaxHeartbeatAge and
// returns the ids of delegates that are ENABLED with a fresh heartbeat.
// Excluded delegates are recorded on the batch: ungrouped disconnected ones
// individually, wholly-disconnected groups once, and every delegate waiting
// for approval.
func (s *Service) ActiveDelegates(ctx context.Context, batch *selection.Batch, accountID string) []string {
	roster := s.AccountDelegates(ctx, accountID)
	if len(roster) == 0 {
		return nil
	}

	cutoff := s.now().Add(-MaxHeartbeatAge)

	var active []string
	activeGroups := make(map[string]struct{})
	var disconnected []string
	disconnectedGroups := make(map[string]struct{})
	var waiting []string

	for _, entry := range roster {
		switch {
		case entry.Status == domaindelegate.StatusEnabled && entry.HeartbeatAfter(cutoff):
			active = append(active, entry.ID)
			if entry.GroupName != "" {
				activeGroups[entry.GroupName] = struct{}{}
			}
		case entry.Status == domaindelegate.StatusEnabled:
			if entry.GroupName == "" {
				disconnected = append(disconnected, entry.ID)
			} else {
				disconnectedGroups[entry.GroupName] = struct{}{}
			}
		case entry.Status == domaindelegate.StatusWaitingForApproval:
			waiting = append(waiting, entry.ID)
		}
	}

	if len(disconnected) > 0 {
		s.logs.LogDisconnected(batch, accountID, disconnected)
	}
	// A group with at least one active member is not disconnected.
	for group := range activeGroups {
		delete(disconnectedGroups, group)
	}
	for _, group := range sortedKeys(disconnectedGroups) {
		s.logs.LogDisconnectedGroup(batch, accountID, group)
	}
	if len(waiting) > 0 {
		s.logs.LogWaitingForApproval(batch, accountID, waiting)
	}

	return active
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
