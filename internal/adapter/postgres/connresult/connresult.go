package connresult

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainconn "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/connection"
	portconnection "github.com/vigneswara-propelo/harness-core-sub004/internal/port/connection"
)

const uniqueViolation = "23505"

var _ portconnection.Store = (*Repository)(nil)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Find(ctx context.Context, delegateID, criteria string) (domainconn.Result, error) {
	query := `
		SELECT account_id, delegate_id, criteria, validated, last_updated_at
		FROM delegate_connection_results
		WHERE delegate_id = $1 AND criteria = $2`

	var result domainconn.Result
	err := r.pool.QueryRow(ctx, query, delegateID, criteria).Scan(
		&result.AccountID, &result.DelegateID, &result.Criteria,
		&result.Validated, &result.LastUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainconn.Result{}, portconnection.ErrNotFound
		}
		return domainconn.Result{}, fmt.Errorf("selecting connection result: %w", err)
	}
	return result, nil
}

func (r *Repository) Insert(ctx context.Context, result domainconn.Result) error {
	query := `
		INSERT INTO delegate_connection_results
			(account_id, delegate_id, criteria, validated, last_updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query,
		result.AccountID, result.DelegateID, result.Criteria,
		result.Validated, result.LastUpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return portconnection.ErrDuplicate
		}
		return fmt.Errorf("inserting connection result: %w", err)
	}
	return nil
}

func (r *Repository) SetValidity(ctx context.Context, delegateID, criteria string, validated bool) error {
	query := `
		UPDATE delegate_connection_results
		SET validated = $3
		WHERE delegate_id = $1 AND criteria = $2`

	if _, err := r.pool.Exec(ctx, query, delegateID, criteria, validated); err != nil {
		return fmt.Errorf("updating connection result validity: %w", err)
	}
	return nil
}

func (r *Repository) Touch(ctx context.Context, delegateID, criteria string, at time.Time) error {
	query := `
		UPDATE delegate_connection_results
		SET last_updated_at = $3
		WHERE delegate_id = $1 AND criteria = $2`

	if _, err := r.pool.Exec(ctx, query, delegateID, criteria, at.UnixMilli()); err != nil {
		return fmt.Errorf("touching connection result: %w", err)
	}
	return nil
}

func (r *Repository) BulkDelete(ctx context.Context, accountID, delegateID string) error {
	query := `DELETE FROM delegate_connection_results WHERE account_id = $1`
	args := []any{accountID}
	if delegateID != "" {
		query += ` AND delegate_id = $2`
		args = append(args, delegateID)
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting connection results: %w", err)
	}
	return nil
}
