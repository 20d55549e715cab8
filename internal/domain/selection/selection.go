package selection

import (
	"time"

	"github.com/google/uuid"
)

// Conclusion classifies one decision-log entry.
type Conclusion string

const (
	ConclusionNoIncludeScopeMatched Conclusion = "NO_INCLUDE_SCOPE_MATCHED"
	ConclusionExcludeScopeMatched   Conclusion = "EXCLUDE_SCOPE_MATCHED"
	ConclusionProfileRuleNotMatched Conclusion = "PROFILE_SCOPE_RULE_NOT_MATCHED"
	ConclusionMissingSelector       Conclusion = "MISSING_SELECTOR"
	ConclusionMissingAllSelectors   Conclusion = "MISSING_ALL_SELECTORS"
	ConclusionDisconnected          Conclusion = "DISCONNECTED"
	ConclusionDisconnectedGroup     Conclusion = "DISCONNECTED_GROUP"
	ConclusionWaitingForApproval    Conclusion = "WAITING_FOR_APPROVAL"
	ConclusionPinMatched            Conclusion = "TASK_PINNED_TO_DELEGATE"
	ConclusionPinNotMatched         Conclusion = "TASK_PINNED_TO_OTHER_DELEGATE"
	ConclusionCanAssign             Conclusion = "ASSIGNED"
)

// Entry is one structured decision recorded during an assignment attempt.
type Entry struct {
	DelegateIDs    []string   `json:"delegate_ids"`
	Conclusion     Conclusion `json:"conclusion"`
	Message        string     `json:"message,omitempty"`
	EventTimestamp int64      `json:"event_timestamp"`
}

// Batch accumulates the decision trail for one task's assignment attempt.
// It is built by a single dispatch goroutine and persisted once, so it needs
// no internal locking.
type Batch struct {
	ID        string  `json:"id"`
	TaskID    string  `json:"task_id"`
	AccountID string  `json:"account_id"`
	Entries   []Entry `json:"entries"`
}

func NewBatch(accountID, taskID string) *Batch {
	return &Batch{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		AccountID: accountID,
	}
}

// Append records one entry with the current timestamp.
func (b *Batch) Append(conclusion Conclusion, message string, delegateIDs ...string) {
	if b == nil {
		return
	}
	b.Entries = append(b.Entries, Entry{
		DelegateIDs:    delegateIDs,
		Conclusion:     conclusion,
		Message:        message,
		EventTimestamp: time.Now().UnixMilli(),
	})
}

// Params is the display projection of a persisted selection-log entry, used
// to build the "why was nothing assigned" diagnostic.
type Params struct {
	DelegateID     string `json:"delegate_id"`
	DelegateName   string `json:"delegate_name,omitempty"`
	HostName       string `json:"host_name,omitempty"`
	ProfileName    string `json:"profile_name,omitempty"`
	Conclusion     string `json:"conclusion"`
	Message        string `json:"message,omitempty"`
	EventTimestamp int64  `json:"event_timestamp"`
}
