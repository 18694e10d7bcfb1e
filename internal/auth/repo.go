package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/optimwalls/Optimwalls/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, user User) (*User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	MarkEmailVerified(ctx context.Context, userID int64) error
	RoleIDByName(ctx context.Context, name string) (int64, error)
	CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, token string) error
}

const userColumns = `id, username, email, password, role_id, full_name, department, position, email_verified_at, created_at, updated_at`

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db dbtx
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{db: pool}
}

// FindByUsername fetches a user by exact, case-sensitive username.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetByID fetches the live user row; resolving identities goes through here on
// every request so role changes take effect without re-login.
func (r *PGRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// Create inserts a new user. A duplicate username or email maps to
// shared.ErrConflict.
func (r *PGRepository) Create(ctx context.Context, user User) (*User, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO users (username, email, password, role_id, full_name, department, position)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+userColumns,
		user.Username, user.Email, user.PasswordHash, user.RoleID, user.FullName, user.Department, user.Position)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, shared.ErrConflict
		}
		return nil, err
	}
	return created, nil
}

// UpdatePassword replaces the stored credential.
func (r *PGRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2`, passwordHash, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// MarkEmailVerified stamps the verification time once.
func (r *PGRepository) MarkEmailVerified(ctx context.Context, userID int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET email_verified_at = NOW(), updated_at = NOW() WHERE id = $1 AND email_verified_at IS NULL`, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// RoleIDByName resolves a role id from its unique name.
func (r *PGRepository) RoleIDByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `SELECT id FROM roles WHERE name = $1`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	return id, nil
}

// CreateSession records the login session in Postgres for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time, ip, ua string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO sessions (token, user_id, ip, user_agent, expires_at) VALUES ($1, $2, $3, $4, $5)`,
		token, userID,
		pgtype.Text{String: ip, Valid: ip != ""},
		pgtype.Text{String: ua, Valid: ua != ""},
		expiresAt.UTC())
	return err
}

// DeleteSession removes the session audit row. Missing rows are not an error.
func (r *PGRepository) DeleteSession(ctx context.Context, token string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}

func scanUser(row pgx.Row) (*User, error) {
	var (
		u          User
		email      pgtype.Text
		fullName   pgtype.Text
		department pgtype.Text
		position   pgtype.Text
		verifiedAt pgtype.Timestamptz
		createdAt  pgtype.Timestamptz
		updatedAt  pgtype.Timestamptz
	)
	err := row.Scan(&u.ID, &u.Username, &email, &u.PasswordHash, &u.RoleID,
		&fullName, &department, &position, &verifiedAt, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if email.Valid {
		u.Email = &email.String
	}
	if fullName.Valid {
		u.FullName = &fullName.String
	}
	if department.Valid {
		u.Department = &department.String
	}
	if position.Valid {
		u.Position = &position.String
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		u.EmailVerifiedAt = &t
	}
	u.CreatedAt = createdAt.Time
	u.UpdatedAt = updatedAt.Time
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)
