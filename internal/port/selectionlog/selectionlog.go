package selectionlog

import (
	"context"

	"github.com/vigneswara-propelo/harness-core-sub004/internal/domain/selection"
	domaintask "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/task"
)

// Sink records the structured decision trail for a task's assignment attempt.
// The per-decision methods accumulate entries on the batch; nothing touches
// storage until Save.
type Sink interface {
	NewBatch(t domaintask.Task) *selection.Batch

	LogNoIncludeScopeMatched(batch *selection.Batch, accountID, delegateID string)
	LogExcludeScopeMatched(batch *selection.Batch, accountID, delegateID, scopeName string)
	LogProfileScopeRuleNotMatched(batch *selection.Batch, accountID, delegateID, profileID string, ruleDescriptions []string)
	LogMissingSelector(batch *selection.Batch, accountID, delegateID, selector, origin string)
	LogMissingAllSelectors(batch *selection.Batch, accountID, delegateID string)
	LogDisconnected(batch *selection.Batch, accountID string, delegateIDs []string)
	LogDisconnectedGroup(batch *selection.Batch, accountID, groupName string)
	LogWaitingForApproval(batch *selection.Batch, accountID string, delegateIDs []string)
	LogMustExecuteOnDelegateMatched(batch *selection.Batch, accountID, delegateID string)
	LogMustExecuteOnDelegateNotMatched(batch *selection.Batch, accountID, delegateID string)
	LogCanAssign(batch *selection.Batch, accountID, delegateID string)

	Save(ctx context.Context, batch *selection.Batch) error
	FetchTaskLogs(ctx context.Context, accountID, taskID string) ([]selection.Params, error)
}
