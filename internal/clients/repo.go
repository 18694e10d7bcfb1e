package clients

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/optimwalls/Optimwalls/internal/shared"
)

// Client is a converted lead. The lead_id column is unique, so a lead yields
// at most one client row.
type Client struct {
	ID         int64     `json:"id"`
	LeadID     int64     `json:"leadId"`
	Name       string    `json:"name"`
	Email      *string   `json:"email,omitempty"`
	Phone      *string   `json:"phone,omitempty"`
	Location   *string   `json:"location,omitempty"`
	AssignedTo *int64    `json:"assignedTo,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// UpdateClientRequest is a partial patch of client contact details.
type UpdateClientRequest struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Location   *string `json:"location,omitempty" validate:"omitempty,max=200"`
	AssignedTo *int64  `json:"assignedTo,omitempty" validate:"omitempty,gt=0"`
}

// Repository provides persistence for clients.
type Repository interface {
	List(ctx context.Context, page, perPage int) ([]Client, int, error)
	Get(ctx context.Context, id int64) (*Client, error)
	GetByLead(ctx context.Context, leadID int64) (*Client, error)
	Update(ctx context.Context, id int64, req UpdateClientRequest) (*Client, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const clientColumns = `id, lead_id, name, email, phone, location, assigned_to, created_at, updated_at`

func (r *repository) List(ctx context.Context, page, perPage int) ([]Client, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *client)
	}
	return result, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (*Client, error) {
	return scanClient(r.pool.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
}

func (r *repository) GetByLead(ctx context.Context, leadID int64) (*Client, error) {
	return scanClient(r.pool.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE lead_id = $1`, leadID))
}

func (r *repository) Update(ctx context.Context, id int64, req UpdateClientRequest) (*Client, error) {
	return scanClient(r.pool.QueryRow(ctx,
		`UPDATE clients
		 SET name = COALESCE($2, name),
		     email = COALESCE($3, email),
		     phone = COALESCE($4, phone),
		     location = COALESCE($5, location),
		     assigned_to = COALESCE($6, assigned_to),
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+clientColumns,
		id, req.Name, req.Email, req.Phone, req.Location, req.AssignedTo))
}

func scanClient(row pgx.Row) (*Client, error) {
	var (
		client     Client
		email      pgtype.Text
		phone      pgtype.Text
		location   pgtype.Text
		assignedTo pgtype.Int8
		createdAt  pgtype.Timestamptz
		updatedAt  pgtype.Timestamptz
	)
	err := row.Scan(&client.ID, &client.LeadID, &client.Name, &email, &phone, &location,
		&assignedTo, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if email.Valid {
		client.Email = &email.String
	}
	if phone.Valid {
		client.Phone = &phone.String
	}
	if location.Valid {
		client.Location = &location.String
	}
	if assignedTo.Valid {
		client.AssignedTo = &assignedTo.Int64
	}
	client.CreatedAt = createdAt.Time
	client.UpdatedAt = updatedAt.Time
	return &client, nil
}

var _ Repository = (*repository)(nil)
