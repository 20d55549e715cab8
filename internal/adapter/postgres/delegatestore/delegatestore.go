package delegatestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domaindelegate "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/delegate"
	"github.com/vigneswara-propelo/harness-core-sub004/internal/domain/scope"
	portdelegate "github.com/vigneswara-propelo/harness-core-sub004/internal/port/delegate"
)

var _ portdelegate.Store = (*Repository)(nil)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Get(ctx context.Context, accountID, delegateID string) (domaindelegate.Delegate, error) {
	query := `
		SELECT id, account_id, host_name, status, last_heartbeat, group_name,
			include_scopes_jsonb, exclude_scopes_jsonb, selectors, profile_id
		FROM delegates WHERE account_id = $1 AND id = $2`

	var d domaindelegate.Delegate
	var includeJSON, excludeJSON []byte
	err := r.pool.QueryRow(ctx, query, accountID, delegateID).Scan(
		&d.ID, &d.AccountID, &d.HostName, &d.Status, &d.LastHeartbeat,
		&d.GroupName, &includeJSON, &excludeJSON, &d.Selectors, &d.ProfileID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domaindelegate.Delegate{}, portdelegate.ErrNotFound
		}
		return domaindelegate.Delegate{}, fmt.Errorf("selecting delegate: %w", err)
	}

	if d.IncludeScopes, err = unmarshalScopes(includeJSON); err != nil {
		return domaindelegate.Delegate{}, fmt.Errorf("decoding include scopes: %w", err)
	}
	if d.ExcludeScopes, err = unmarshalScopes(excludeJSON); err != nil {
		return domaindelegate.Delegate{}, fmt.Errorf("decoding exclude scopes: %w", err)
	}
	return d, nil
}

func (r *Repository) Roster(ctx context.Context, accountID string) ([]domaindelegate.RosterEntry, error) {
	query := `
		SELECT id, status, last_heartbeat, group_name
		FROM delegates WHERE account_id = $1`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("selecting roster: %w", err)
	}
	defer rows.Close()

	var roster []domaindelegate.RosterEntry
	for rows.Next() {
		var entry domaindelegate.RosterEntry
		if err := rows.Scan(&entry.ID, &entry.Status, &entry.LastHeartbeat, &entry.GroupName); err != nil {
			return nil, fmt.Errorf("scanning roster entry: %w", err)
		}
		roster = append(roster, entry)
	}
	return roster, rows.Err()
}

// Selectors returns the delegate's advertised selector tags plus the implicit
// ones every delegate carries: its host name and, when pooled, its group name.
func (r *Repository) Selectors(_ context.Context, d domaindelegate.Delegate) ([]string, error) {
	out := make([]string, 0, len(d.Selectors)+2)
	out = append(out, d.Selectors...)
	if d.HostName != "" {
		out = append(out, strings.ToLower(d.HostName))
	}
	if d.GroupName != "" {
		out = append(out, strings.ToLower(d.GroupName))
	}
	return out, nil
}

func unmarshalScopes(raw []byte) ([]*scope.Scope, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var scopes []*scope.Scope
	if err := json.Unmarshal(raw, &scopes); err != nil {
		return nil, err
	}
	return scopes, nil
}
