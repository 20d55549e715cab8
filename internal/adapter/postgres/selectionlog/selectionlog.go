package selectionlog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vigneswara-propelo/harness-core-sub004/internal/domain/selection"
	domaintask "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/task"
	portselectionlog "github.com/vigneswara-propelo/harness-core-sub004/internal/port/selectionlog"
)

var _ portselectionlog.Sink = (*Repository)(nil)

// Repository accumulates decision entries on a batch in memory and writes the
// whole trail in one round trip on Save.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) NewBatch(t domaintask.Task) *selection.Batch {
	return selection.NewBatch(t.AccountID, t.ID)
}

func (r *Repository) LogNoIncludeScopeMatched(batch *selection.Batch, _ string, delegateID string) {
	batch.Append(selection.ConclusionNoIncludeScopeMatched, "No matching include scope", delegateID)
}

func (r *Repository) LogExcludeScopeMatched(batch *selection.Batch, _ string, delegateID, scopeName string) {
	batch.Append(selection.ConclusionExcludeScopeMatched, fmt.Sprintf("Matched exclude scope %s", scopeName), delegateID)
}

func (r *Repository) LogProfileScopeRuleNotMatched(batch *selection.Batch, _ string, delegateID, profileID string, ruleDescriptions []string) {
	msg := fmt.Sprintf("Profile %s scoping rules not matched", profileID)
	if len(ruleDescriptions) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(ruleDescriptions, "; "))
	}
	batch.Append(selection.ConclusionProfileRuleNotMatched, msg, delegateID)
}

func (r *Repository) LogMissingSelector(batch *selection.Batch, _ string, delegateID, selector, origin string) {
	batch.Append(selection.ConclusionMissingSelector,
		fmt.Sprintf("The selector %s is configured in %s but is not attached to this delegate", selector, origin), delegateID)
}

func (r *Repository) LogMissingAllSelectors(batch *selection.Batch, _ string, delegateID string) {
	batch.Append(selection.ConclusionMissingAllSelectors, "No selectors attached to this delegate", delegateID)
}

func (r *Repository) LogDisconnected(batch *selection.Batch, _ string, delegateIDs []string) {
	batch.Append(selection.ConclusionDisconnected, "Delegate was disconnected", delegateIDs...)
}

func (r *Repository) LogDisconnectedGroup(batch *selection.Batch, _ string, groupName string) {
	batch.Append(selection.ConclusionDisconnectedGroup, fmt.Sprintf("Delegate group %s was disconnected", groupName))
}

func (r *Repository) LogWaitingForApproval(batch *selection.Batch, _ string, delegateIDs []string) {
	batch.Append(selection.ConclusionWaitingForApproval, "Delegate was waiting for approval", delegateIDs...)
}

func (r *Repository) LogMustExecuteOnDelegateMatched(batch *selection.Batch, _ string, delegateID string) {
	batch.Append(selection.ConclusionPinMatched, "Task was pinned to this delegate", delegateID)
}

func (r *Repository) LogMustExecuteOnDelegateNotMatched(batch *selection.Batch, _ string, delegateID string) {
	batch.Append(selection.ConclusionPinNotMatched, "Task was pinned to another delegate", delegateID)
}

func (r *Repository) LogCanAssign(batch *selection.Batch, _ string, delegateID string) {
	batch.Append(selection.ConclusionCanAssign, "Delegate was eligible for assignment", delegateID)
}

func (r *Repository) Save(ctx context.Context, batch *selection.Batch) error {
	if batch == nil || len(batch.Entries) == 0 {
		return nil
	}

	query := `
		INSERT INTO task_selection_logs
			(batch_id, task_id, account_id, delegate_id, conclusion, message, event_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	pgBatch := &pgx.Batch{}
	for _, entry := range batch.Entries {
		ids := entry.DelegateIDs
		if len(ids) == 0 {
			ids = []string{""}
		}
		for _, delegateID := range ids {
			pgBatch.Queue(query, batch.ID, batch.TaskID, batch.AccountID,
				delegateID, entry.Conclusion, entry.Message, entry.EventTimestamp)
		}
	}

	if err := r.pool.SendBatch(ctx, pgBatch).Close(); err != nil {
		return fmt.Errorf("saving selection log batch: %w", err)
	}
	return nil
}

func (r *Repository) FetchTaskLogs(ctx context.Context, accountID, taskID string) ([]selection.Params, error) {
	query := `
		SELECT l.delegate_id, COALESCE(d.host_name, ''), l.conclusion, l.message, l.event_timestamp
		FROM task_selection_logs l
		LEFT JOIN delegates d ON d.id = l.delegate_id AND d.account_id = l.account_id
		WHERE l.account_id = $1 AND l.task_id = $2
		ORDER BY l.event_timestamp`

	rows, err := r.pool.Query(ctx, query, accountID, taskID)
	if err != nil {
		return nil, fmt.Errorf("selecting task selection logs: %w", err)
	}
	defer rows.Close()

	var out []selection.Params
	for rows.Next() {
		var p selection.Params
		if err := rows.Scan(&p.DelegateID, &p.HostName, &p.Conclusion, &p.Message, &p.EventTimestamp); err != nil {
			return nil, fmt.Errorf("scanning selection log: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
