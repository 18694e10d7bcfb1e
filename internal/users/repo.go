package users

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/optimwalls/Optimwalls/internal/shared"
)

// User is the staff directory projection. The password hash never leaves the
// auth package.
type User struct {
	ID         int64      `json:"id"`
	Username   string     `json:"username"`
	Email      *string    `json:"email,omitempty"`
	RoleID     int64      `json:"roleId"`
	RoleName   string     `json:"roleName"`
	FullName   *string    `json:"fullName,omitempty"`
	Department *string    `json:"department,omitempty"`
	Position   *string    `json:"position,omitempty"`
	VerifiedAt *time.Time `json:"emailVerifiedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Repository provides read access to the directory plus role reassignment.
type Repository interface {
	List(ctx context.Context, page, perPage int) ([]User, int, error)
	Get(ctx context.Context, id int64) (*User, error)
	UpdateRole(ctx context.Context, id, roleID int64) (*User, error)
	RoleExists(ctx context.Context, roleID int64) (bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const userColumns = `u.id, u.username, u.email, u.role_id, r.name, u.full_name, u.department, u.position, u.email_verified_at, u.created_at`

func (r *repository) List(ctx context.Context, page, perPage int) ([]User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users u JOIN roles r ON r.id = u.role_id
		 ORDER BY u.username LIMIT $1 OFFSET $2`,
		perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *user)
	}
	return result, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users u JOIN roles r ON r.id = u.role_id WHERE u.id = $1`, id))
}

func (r *repository) UpdateRole(ctx context.Context, id, roleID int64) (*User, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET role_id = $2, updated_at = NOW() WHERE id = $1`, id, roleID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, shared.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *repository) RoleExists(ctx context.Context, roleID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM roles WHERE id = $1)`, roleID).Scan(&exists)
	return exists, err
}

func scanUser(row pgx.Row) (*User, error) {
	var (
		user       User
		email      pgtype.Text
		fullName   pgtype.Text
		department pgtype.Text
		position   pgtype.Text
		verifiedAt pgtype.Timestamptz
		createdAt  pgtype.Timestamptz
	)
	err := row.Scan(&user.ID, &user.Username, &email, &user.RoleID, &user.RoleName,
		&fullName, &department, &position, &verifiedAt, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if email.Valid {
		user.Email = &email.String
	}
	if fullName.Valid {
		user.FullName = &fullName.String
	}
	if department.Valid {
		user.Department = &department.String
	}
	if position.Valid {
		user.Position = &position.String
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		user.VerifiedAt = &t
	}
	user.CreatedAt = createdAt.Time
	return &user, nil
}

var _ Repository = (*repository)(nil)
