package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/vigneswara-propelo/harness-core-sub004/internal/domain/selection"
	domaintask "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/task"
)

// CaptureSink is a SelectionLogSink test-double. It accumulates entries on
// the batch exactly like the real sink and records every saved batch with a
// mutex so it is safe for concurrent use.
type CaptureSink struct {
	mu       sync.Mutex
	Saved    []*selection.Batch
	TaskLogs []selection.Params
	FetchErr error
}

func (c *CaptureSink) NewBatch(t domaintask.Task) *selection.Batch {
	return selection.NewBatch(t.AccountID, t.ID)
}

func (c *CaptureSink) LogNoIncludeScopeMatched(batch *selection.Batch, _ string, delegateID string) {
	batch.Append(selection.ConclusionNoIncludeScopeMatched, "no include scope matched", delegateID)
}

func (c *CaptureSink) LogExcludeScopeMatched(batch *selection.Batch, _ string, delegateID, scopeName string) {
	batch.Append(selection.ConclusionExcludeScopeMatched, scopeName, delegateID)
}

func (c *CaptureSink) LogProfileScopeRuleNotMatched(batch *selection.Batch, _ string, delegateID, profileID string, ruleDescriptions []string) {
	batch.Append(selection.ConclusionProfileRuleNotMatched,
		fmt.Sprintf("%s: %s", profileID, strings.Join(ruleDescriptions, "; ")), delegateID)
}

func (c *CaptureSink) LogMissingSelector(batch *selection.Batch, _ string, delegateID, selector, origin string) {
	batch.Append(selection.ConclusionMissingSelector, fmt.Sprintf("%s (%s)", selector, origin), delegateID)
}

func (c *CaptureSink) LogMissingAllSelectors(batch *selection.Batch, _ string, delegateID string) {
	batch.Append(selection.ConclusionMissingAllSelectors, "no selectors", delegateID)
}

func (c *CaptureSink) LogDisconnected(batch *selection.Batch, _ string, delegateIDs []string) {
	batch.Append(selection.ConclusionDisconnected, "disconnected", delegateIDs...)
}

func (c *CaptureSink) LogDisconnectedGroup(batch *selection.Batch, _ string, groupName string) {
	batch.Append(selection.ConclusionDisconnectedGroup, groupName)
}

func (c *CaptureSink) LogWaitingForApproval(batch *selection.Batch, _ string, delegateIDs []string) {
	batch.Append(selection.ConclusionWaitingForApproval, "waiting for approval", delegateIDs...)
}

func (c *CaptureSink) LogMustExecuteOnDelegateMatched(batch *selection.Batch, _ string, delegateID string) {
	batch.Append(selection.ConclusionPinMatched, "pinned", delegateID)
}

func (c *CaptureSink) LogMustExecuteOnDelegateNotMatched(batch *selection.Batch, _ string, delegateID string) {
	batch.Append(selection.ConclusionPinNotMatched, "pinned to another delegate", delegateID)
}

func (c *CaptureSink) LogCanAssign(batch *selection.Batch, _ string, delegateID string) {
	batch.Append(selection.ConclusionCanAssign, "eligible", delegateID)
}

func (c *CaptureSink) Save(_ context.Context, batch *selection.Batch) error {
	c.mu.Lock()
	c.Saved = append(c.Saved, batch)
	c.mu.Unlock()
	return nil
}

func (c *CaptureSink) FetchTaskLogs(_ context.Context, _, _ string) ([]selection.Params, error) {
	if c.FetchErr != nil {
		return nil, c.FetchErr
	}
	return c.TaskLogs, nil
}

// Conclusions returns every conclusion recorded across saved batches, in
// save order.
func (c *CaptureSink) Conclusions() []selection.Conclusion {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []selection.Conclusion
	for _, batch := range c.Saved {
		for _, entry := range batch.Entries {
			out = append(out, entry.Conclusion)
		}
	}
	return out
}

// EntriesFor returns the saved entries that mention the delegate id.
func (c *CaptureSink) EntriesFor(delegateID string) []selection.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []selection.Entry
	for _, batch := range c.Saved {
		for _, entry := range batch.Entries {
			for _, id := range entry.DelegateIDs {
				if id == delegateID {
					out = append(out, entry)
					break
				}
			}
		}
	}
	return out
}
