package delegate

import (
	"strings"
	"time"

	"github.com/vigneswara-propelo/harness-core-sub004/internal/domain/scope"
)

type Status string

const (
	StatusEnabled            Status = "ENABLED"
	StatusWaitingForApproval Status = "WAITING_FOR_APPROVAL"
	StatusDisabled           Status = "DISABLED"
)

// Delegate is a registered worker agent. Records are owned by the delegate
// registration subsystem; this engine only reads them.
type Delegate struct {
	ID            string        `json:"id"`
	AccountID     string        `json:"account_id"`
	HostName      string        `json:"host_name"`
	Status        Status        `json:"status"`
	LastHeartbeat int64         `json:"last_heartbeat"` // epoch millis
	GroupName     string        `json:"group_name,omitempty"`
	IncludeScopes []*scope.Scope `json:"include_scopes,omitempty"`
	ExcludeScopes []*scope.Scope `json:"exclude_scopes,omitempty"`
	Selectors     []string      `json:"selectors,omitempty"`
	ProfileID     string        `json:"profile_id,omitempty"`
}

// RosterEntry is the lightweight projection cached per account for activity
// classification. Keeping it small keeps the roster cache cheap to refill.
type RosterEntry struct {
	ID            string `json:"id"`
	Status        Status `json:"status"`
	LastHeartbeat int64  `json:"last_heartbeat"`
	GroupName     string `json:"group_name,omitempty"`
}

// HeartbeatAfter reports whether the entry's last heartbeat is newer than cutoff.
func (r RosterEntry) HeartbeatAfter(cutoff time.Time) bool {
	return r.LastHeartbeat > cutoff.UnixMilli()
}

// NormalizeSelectors trims and lowercases a selector list, dropping blanks.
func NormalizeSelectors(selectors []string) map[string]struct{} {
	out := make(map[string]struct{}, len(selectors))
	for _, s := range selectors {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		out[s] = struct{}{}
	}
	return out
}
