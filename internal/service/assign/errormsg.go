package assign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vigneswara-propelo/harness-core-sub004/internal/domain/selection"
	domaintask "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/task"
	portconnection "github.com/vigneswara-propelo/harness-core-sub004/internal/port/connection"
	portdelegate "github.com/vigneswara-propelo/harness-core-sub004/internal/port/delegate"
)

// FailureReason tells the diagnostic builder why the dispatcher gave up.
type FailureReason string

const (
	ReasonExpired         FailureReason = "EXPIRED"
	ReasonDelegateTimeout FailureReason = "DELEGATE_TIMEOUT"
	ReasonNoEligible      FailureReason = "NO_ELIGIBLE_DELEGATES"
	ReasonUnknown         FailureReason = ""
)

const (
	msgNoActiveDelegates = "There were no active delegates to complete the task."
	msgNoneEligible      = "None of the active delegates were eligible to complete the task."

	selectionLogFormat = "Delegate selection log: delegate id: %s, name: %s, host name: %s, profile: %s, conclusion: %s, message: %s, at: %s"
)

// ActiveDelegateAssignmentErrorMessage builds the human-readable explanation
// for "why didn't this task get picked up". Persisted selection-log entries
// are preferred when the task did not simply expire; otherwise the account's
// active fleet is re-examined for a per-delegate capability breakdown.
func (s *Service) ActiveDelegateAssignmentErrorMessage(ctx context.Context, reason FailureReason, t domaintask.Task) string {
	logs, err := s.logs.FetchTaskLogs(ctx, t.AccountID, t.ID)
	if err != nil {
		slog.WarnContext(ctx, "failed to fetch task selection logs", "task_id", t.ID, "error", err)
	}
	if len(logs) > 0 && reason != ReasonExpired {
		return formatSelectionLogs(logs)
	}

	active := s.fleet.ActiveDelegates(ctx, nil, t.AccountID)
	if len(active) == 0 {
		return msgNoActiveDelegates
	}

	var b strings.Builder
	b.WriteString(msgNoneEligible)
	b.WriteString("\n\n")
	for _, delegateID := range active {
		hostName := delegateID
		d, err := s.delegates.Get(ctx, t.AccountID, delegateID)
		if err == nil && d.HostName != "" {
			hostName = d.HostName
		} else if err != nil && !errors.Is(err, portdelegate.ErrNotFound) {
			slog.WarnContext(ctx, "failed to fetch delegate for diagnostic", "delegate_id", delegateID, "error", err)
		}

		if missing := s.missingCriteria(ctx, delegateID, t); len(missing) > 0 {
			fmt.Fprintf(&b, " ===> %s: \"Missing Capabilities: [%s]\"\n", hostName, strings.Join(missing, ", "))
		} else {
			fmt.Fprintf(&b, " ===> %s: Unknown error\n", hostName)
		}
	}
	return b.String()
}

// missingCriteria returns the task criteria whose last probe on the delegate
// failed validation.
func (s *Service) missingCriteria(ctx context.Context, delegateID string, t domaintask.Task) []string {
	var missing []string
	for _, criteria := range t.Criteria() {
		result, err := s.connections.Find(ctx, delegateID, criteria)
		if err != nil {
			if !errors.Is(err, portconnection.ErrNotFound) {
				slog.WarnContext(ctx, "failed to look up connection result for diagnostic", "delegate_id", delegateID, "criteria", criteria, "error", err)
			}
			continue
		}
		if !result.Validated {
			missing = append(missing, criteria)
		}
	}
	return missing
}

func formatSelectionLogs(logs []selection.Params) string {
	lines := make([]string, 0, len(logs))
	for _, l := range logs {
		at := time.UnixMilli(l.EventTimestamp).Format(time.RFC3339)
		lines = append(lines, fmt.Sprintf(selectionLogFormat,
			l.DelegateID, l.DelegateName, l.HostName, l.ProfileName, l.Conclusion, l.Message, at))
	}
	return strings.Join(lines, "\n")
}
