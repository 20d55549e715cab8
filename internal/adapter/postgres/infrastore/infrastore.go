package infrastore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domaininfra "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/infra"
	portinfra "github.com/vigneswara-propelo/harness-core-sub004/internal/port/infra"
)

var (
	_ portinfra.EnvironmentStore  = (*EnvironmentRepository)(nil)
	_ portinfra.InfraMappingStore = (*InfraMappingRepository)(nil)
)

type EnvironmentRepository struct {
	pool *pgxpool.Pool
}

func NewEnvironments(pool *pgxpool.Pool) *EnvironmentRepository {
	return &EnvironmentRepository{pool: pool}
}

func (r *EnvironmentRepository) Get(ctx context.Context, appID, envID string) (domaininfra.Environment, error) {
	query := `
		SELECT id, app_id, name, env_type
		FROM environments WHERE app_id = $1 AND id = $2`

	var env domaininfra.Environment
	err := r.pool.QueryRow(ctx, query, appID, envID).Scan(&env.ID, &env.AppID, &env.Name, &env.Type)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domaininfra.Environment{}, portinfra.ErrNotFound
		}
		return domaininfra.Environment{}, fmt.Errorf("selecting environment: %w", err)
	}
	return env, nil
}

type InfraMappingRepository struct {
	pool *pgxpool.Pool
}

func NewInfraMappings(pool *pgxpool.Pool) *InfraMappingRepository {
	return &InfraMappingRepository{pool: pool}
}

func (r *InfraMappingRepository) Get(ctx context.Context, appID, infraMappingID string) (domaininfra.InfraMapping, error) {
	query := `
		SELECT id, app_id, env_id, infra_definition_id, service_id
		FROM infra_mappings WHERE app_id = $1 AND id = $2`

	var m domaininfra.InfraMapping
	err := r.pool.QueryRow(ctx, query, appID, infraMappingID).Scan(
		&m.ID, &m.AppID, &m.EnvID, &m.InfraDefinitionID, &m.ServiceID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domaininfra.InfraMapping{}, portinfra.ErrNotFound
		}
		return domaininfra.InfraMapping{}, fmt.Errorf("selecting infra mapping: %w", err)
	}
	return m, nil
}
