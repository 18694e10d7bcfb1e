package activities

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/optimwalls/Optimwalls/internal/leads"
	"github.com/optimwalls/Optimwalls/internal/shared"
)

// Repository reads and completes activity records. Records are immutable
// apart from the completion timestamp.
type Repository interface {
	List(ctx context.Context, page, perPage int) ([]leads.Activity, int, error)
	ListByLead(ctx context.Context, leadID int64) ([]leads.Activity, error)
	Get(ctx context.Context, id int64) (*leads.Activity, error)
	Complete(ctx context.Context, id int64) (*leads.Activity, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const activityColumns = `id, lead_id, user_id, type, notes, scheduled_for, completed_at, created_at`

func (r *repository) List(ctx context.Context, page, perPage int) ([]leads.Activity, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM activities`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+activityColumns+` FROM activities ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	result, err := collectActivities(rows)
	return result, total, err
}

func (r *repository) ListByLead(ctx context.Context, leadID int64) ([]leads.Activity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE lead_id = $1 ORDER BY created_at DESC`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectActivities(rows)
}

func (r *repository) Get(ctx context.Context, id int64) (*leads.Activity, error) {
	return scanActivity(r.pool.QueryRow(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE id = $1`, id))
}

// Complete stamps completed_at once. A second completion keeps the original
// timestamp.
func (r *repository) Complete(ctx context.Context, id int64) (*leads.Activity, error) {
	return scanActivity(r.pool.QueryRow(ctx,
		`UPDATE activities SET completed_at = COALESCE(completed_at, NOW()) WHERE id = $1
		 RETURNING `+activityColumns, id))
}

func collectActivities(rows pgx.Rows) ([]leads.Activity, error) {
	var result []leads.Activity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *activity)
	}
	return result, rows.Err()
}

func scanActivity(row pgx.Row) (*leads.Activity, error) {
	var (
		activity     leads.Activity
		notes        pgtype.Text
		scheduledFor pgtype.Timestamptz
		completedAt  pgtype.Timestamptz
		createdAt    pgtype.Timestamptz
	)
	err := row.Scan(&activity.ID, &activity.LeadID, &activity.UserID, &activity.Type,
		&notes, &scheduledFor, &completedAt, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if notes.Valid {
		activity.Notes = &notes.String
	}
	if scheduledFor.Valid {
		t := scheduledFor.Time
		activity.ScheduledFor = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		activity.CompletedAt = &t
	}
	activity.CreatedAt = createdAt.Time
	return &activity, nil
}

var _ Repository = (*repository)(nil)
