package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-analytics/internal/domain"
)

// WardRepository reads the geographic hierarchy.
type WardRepository interface {
	ListWards(ctx context.Context) ([]domain.Ward, error)
	ListSubZones(ctx context.Context, wardID string) ([]domain.SubZone, error)
}

type wardRepository struct {
	pool *pgxpool.Pool
}

// NewWardRepository builds the repository.
func NewWardRepository(pool *pgxpool.Pool) WardRepository {
	return &wardRepository{pool: pool}
}

func (r *wardRepository) ListWards(ctx context.Context) ([]domain.Ward, error) {
	const query = `SELECT id, name FROM wards ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list wards: %w", err)
	}
	defer rows.Close()

	var result []domain.Ward
	for rows.Next() {
		var ward domain.Ward
		if err := rows.Scan(&ward.ID, &ward.Name); err != nil {
			return nil, err
		}
		result = append(result, ward)
	}
	return result, rows.Err()
}

// ListSubZones lists the sub-zones of one ward, or of every ward when wardID is empty.
func (r *wardRepository) ListSubZones(ctx context.Context, wardID string) ([]domain.SubZone, error) {
	query := `SELECT id, ward_id, name FROM sub_zones`
	var args []any
	if wardID != "" {
		query += ` WHERE ward_id=$1`
		args = append(args, wardID)
	}
	query += ` ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sub-zones: %w", err)
	}
	defer rows.Close()

	var result []domain.SubZone
	for rows.Next() {
		var zone domain.SubZone
		if err := rows.Scan(&zone.ID, &zone.WardID, &zone.Name); err != nil {
			return nil, err
		}
		result = append(result, zone)
	}
	return result, rows.Err()
}
