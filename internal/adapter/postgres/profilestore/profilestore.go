package profilestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainprofile "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/profile"
	portprofile "github.com/vigneswara-propelo/harness-core-sub004/internal/port/profile"
)

var _ portprofile.Store = (*Repository)(nil)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Get(ctx context.Context, profileID string) (domainprofile.Profile, error) {
	query := `
		SELECT id, name, scoping_rules_jsonb
		FROM delegate_profiles WHERE id = $1`

	var p domainprofile.Profile
	var rulesJSON []byte
	err := r.pool.QueryRow(ctx, query, profileID).Scan(&p.ID, &p.Name, &rulesJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainprofile.Profile{}, portprofile.ErrNotFound
		}
		return domainprofile.Profile{}, fmt.Errorf("selecting profile: %w", err)
	}

	if len(rulesJSON) > 0 {
		if err := json.Unmarshal(rulesJSON, &p.ScopingRules); err != nil {
			return domainprofile.Profile{}, fmt.Errorf("decoding scoping rules: %w", err)
		}
	}
	return p, nil
}
