package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-analytics/internal/domain"
)

// ConfigRepository reads the configuration store. Writes belong to another service.
type ConfigRepository interface {
	ListActiveByPrefix(ctx context.Context, prefix string) ([]domain.ConfigEntry, error)
}

type configRepository struct {
	pool *pgxpool.Pool
}

// NewConfigRepository builds the repository.
func NewConfigRepository(pool *pgxpool.Pool) ConfigRepository {
	return &configRepository{pool: pool}
}

func (r *configRepository) ListActiveByPrefix(ctx context.Context, prefix string) ([]domain.ConfigEntry, error) {
	const query = `
        SELECT key, value FROM system_config
        WHERE is_active = TRUE AND starts_with(key, $1)
        ORDER BY key ASC`
	rows, err := r.pool.Query(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("list config %s*: %w", prefix, err)
	}
	defer rows.Close()

	var result []domain.ConfigEntry
	for rows.Next() {
		var entry domain.ConfigEntry
		if err := rows.Scan(&entry.Key, &entry.Value); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
