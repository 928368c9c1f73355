package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-analytics/internal/domain"
)

// ComplaintFilter is the SQL form of a scope predicate plus attribute filters.
type ComplaintFilter struct {
	WardID        *string
	AssignedToID  *string
	SubmittedByID *string
	Types         []string
	Statuses      []domain.ComplaintStatus
	Priorities    []domain.ComplaintPriority
	// ActivityFrom/ActivityTo select rows submitted or closed within [from, to).
	ActivityFrom *time.Time
	ActivityTo   *time.Time
}

// ComplaintRepository reads the complaint ledger.
type ComplaintRepository interface {
	List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error)
}

type complaintRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintRepository instantiates repository.
func NewComplaintRepository(pool *pgxpool.Pool) ComplaintRepository {
	return &complaintRepository{pool: pool}
}

func (r *complaintRepository) List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	base := `SELECT id, type, status, priority, ward_id, sub_zone_id, assigned_to_id,
                    submitted_by_id, submitted_on, closed_on, deadline
             FROM complaints`
	clauses, args := buildComplaintClauses(filter)

	query := fmt.Sprintf(`%s WHERE %s ORDER BY submitted_on ASC, id ASC`, base, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	defer rows.Close()
	return scanComplaints(rows)
}

// foldedTypeColumn mirrors domain.FoldComplaintType in SQL.
const foldedTypeColumn = `REPLACE(REPLACE(LOWER(TRIM(type)), '-', '_'), ' ', '_')`

func buildComplaintClauses(filter ComplaintFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.WardID != nil {
		args = append(args, *filter.WardID)
		clauses = append(clauses, fmt.Sprintf("ward_id=$%d", len(args)))
	}
	if filter.AssignedToID != nil {
		args = append(args, *filter.AssignedToID)
		clauses = append(clauses, fmt.Sprintf("assigned_to_id=$%d", len(args)))
	}
	if filter.SubmittedByID != nil {
		args = append(args, *filter.SubmittedByID)
		clauses = append(clauses, fmt.Sprintf("submitted_by_id=$%d", len(args)))
	}
	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, typ := range filter.Types {
			args = append(args, domain.FoldComplaintType(typ))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("%s IN (%s)", foldedTypeColumn, strings.Join(placeholders, ",")))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.ActivityFrom != nil && filter.ActivityTo != nil {
		args = append(args, *filter.ActivityFrom, *filter.ActivityTo)
		from, to := len(args)-1, len(args)
		clauses = append(clauses, fmt.Sprintf(
			"((submitted_on >= $%d AND submitted_on < $%d) OR (closed_on >= $%d AND closed_on < $%d))",
			from, to, from, to))
	}
	return clauses, args
}

func scanComplaints(rows pgx.Rows) ([]domain.Complaint, error) {
	var result []domain.Complaint
	for rows.Next() {
		var complaint domain.Complaint
		if err := rows.Scan(
			&complaint.ID,
			&complaint.Type,
			&complaint.Status,
			&complaint.Priority,
			&complaint.WardID,
			&complaint.SubZoneID,
			&complaint.AssignedToID,
			&complaint.SubmittedByID,
			&complaint.SubmittedOn,
			&complaint.ClosedOn,
			&complaint.Deadline,
		); err != nil {
			return nil, fmt.Errorf("scan complaint: %w", err)
		}
		result = append(result, complaint)
	}
	return result, rows.Err()
}
