package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/optimwalls/Optimwalls/internal/platform/db"
	"github.com/optimwalls/Optimwalls/internal/shared"
)

// Repository provides persistence for leads and their activities. The
// conversion insert into clients lives here too so that converting a lead is
// one transaction.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Lead, error)
	List(ctx context.Context, req ListLeadsRequest) ([]Lead, int, error)
	Create(ctx context.Context, lead Lead) (*Lead, error)
	Update(ctx context.Context, lead Lead) (*Lead, error)
	InsertActivity(ctx context.Context, activity Activity) (*Activity, error)
	CreateClientFromLead(ctx context.Context, lead *Lead) (int64, error)
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const leadColumns = `id, name, email, phone, location, status, source, assigned_to, budget, score, project_type, notes, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Lead, error) {
	row := r.db.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	return scanLead(row)
}

func (r *repository) List(ctx context.Context, req ListLeadsRequest) ([]Lead, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.AssignedTo != nil {
		conditions = append(conditions, fmt.Sprintf("assigned_to = $%d", argPos))
		args = append(args, *req.AssignedTo)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM leads "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := req.PerPage
	if perPage <= 0 {
		perPage = 50
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}
	query := fmt.Sprintf("SELECT "+leadColumns+" FROM leads %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		whereClause, argPos, argPos+1)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *lead)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, lead Lead) (*Lead, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO leads (name, email, phone, location, status, source, assigned_to, budget, score, project_type, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+leadColumns,
		lead.Name, lead.Email, lead.Phone, lead.Location, lead.Status, lead.Source,
		lead.AssignedTo, lead.Budget, lead.Score, lead.ProjectType, lead.Notes)
	return scanLead(row)
}

// Update writes the full merged row; the service owns patch merging and score
// recomputation so score and inputs always persist together.
func (r *repository) Update(ctx context.Context, lead Lead) (*Lead, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE leads
		 SET name = $2, email = $3, phone = $4, location = $5, status = $6, source = $7,
		     assigned_to = $8, budget = $9, score = $10, project_type = $11, notes = $12,
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+leadColumns,
		lead.ID, lead.Name, lead.Email, lead.Phone, lead.Location, lead.Status, lead.Source,
		lead.AssignedTo, lead.Budget, lead.Score, lead.ProjectType, lead.Notes)
	return scanLead(row)
}

func (r *repository) InsertActivity(ctx context.Context, activity Activity) (*Activity, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO activities (lead_id, user_id, type, notes, scheduled_for)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, lead_id, user_id, type, notes, scheduled_for, completed_at, created_at`,
		activity.LeadID, activity.UserID, activity.Type, activity.Notes, activity.ScheduledFor)
	return scanActivity(row)
}

// CreateClientFromLead materializes the converted lead as a client. The
// unique constraint on clients.lead_id guarantees at most one client per
// lead; a second conversion maps to shared.ErrConflict.
func (r *repository) CreateClientFromLead(ctx context.Context, lead *Lead) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO clients (lead_id, name, email, phone, location, assigned_to)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		lead.ID, lead.Name, lead.Email, lead.Phone, lead.Location, lead.AssignedTo).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, shared.ErrConflict
		}
		return 0, err
	}
	return id, nil
}

func scanLead(row pgx.Row) (*Lead, error) {
	var (
		lead        Lead
		email       pgtype.Text
		phone       pgtype.Text
		location    pgtype.Text
		source      pgtype.Text
		assignedTo  pgtype.Int8
		budget      pgtype.Numeric
		projectType pgtype.Text
		notes       pgtype.Text
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
	)
	err := row.Scan(&lead.ID, &lead.Name, &email, &phone, &location, &lead.Status, &source,
		&assignedTo, &budget, &lead.Score, &projectType, &notes, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if email.Valid {
		lead.Email = &email.String
	}
	if phone.Valid {
		lead.Phone = &phone.String
	}
	if location.Valid {
		lead.Location = &location.String
	}
	if source.Valid {
		lead.Source = &source.String
	}
	if assignedTo.Valid {
		lead.AssignedTo = &assignedTo.Int64
	}
	if budget.Valid {
		f, _ := budget.Float64Value()
		lead.Budget = &f.Float64
	}
	if projectType.Valid {
		lead.ProjectType = &projectType.String
	}
	if notes.Valid {
		lead.Notes = &notes.String
	}
	lead.CreatedAt = createdAt.Time
	lead.UpdatedAt = updatedAt.Time
	return &lead, nil
}

func scanActivity(row pgx.Row) (*Activity, error) {
	var (
		activity     Activity
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
