package mail

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/optimwalls/Optimwalls/internal/shared"
)

// Token lifetimes. Verification links live a day, reset links one hour.
const (
	verificationTTL = 24 * time.Hour
	resetTTL        = time.Hour
)

// TokenRepository issues and consumes single-use tokens. Consuming deletes
// the row, so a token can never be replayed.
type TokenRepository interface {
	CreateVerificationToken(ctx context.Context, userID int64) (string, error)
	ConsumeVerificationToken(ctx context.Context, token string) (int64, error)
	CreateResetToken(ctx context.Context, userID int64) (string, error)
	ConsumeResetToken(ctx context.Context, token string) (int64, error)
}

type tokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository constructs a PostgreSQL token repository.
func NewTokenRepository(pool *pgxpool.Pool) TokenRepository {
	return &tokenRepository{pool: pool}
}

func (r *tokenRepository) CreateVerificationToken(ctx context.Context, userID int64) (string, error) {
	return r.create(ctx, "email_verification_tokens", userID, verificationTTL)
}

func (r *tokenRepository) ConsumeVerificationToken(ctx context.Context, token string) (int64, error) {
	return r.consume(ctx, "email_verification_tokens", token)
}

func (r *tokenRepository) CreateResetToken(ctx context.Context, userID int64) (string, error) {
	return r.create(ctx, "password_reset_tokens", userID, resetTTL)
}

func (r *tokenRepository) ConsumeResetToken(ctx context.Context, token string) (int64, error) {
	return r.consume(ctx, "password_reset_tokens", token)
}

// create replaces any outstanding token for the user so only the newest link
// works.
func (r *tokenRepository) create(ctx context.Context, table string, userID int64, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	if _, err := r.pool.Exec(ctx, `DELETE FROM `+table+` WHERE user_id = $1`, userID); err != nil {
		return "", err
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO `+table+` (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		token, userID, time.Now().UTC().Add(ttl))
	if err != nil {
		return "", err
	}
	return token, nil
}

func (r *tokenRepository) consume(ctx context.Context, table string, token string) (int64, error) {
	var userID int64
	err := r.pool.QueryRow(ctx,
		`DELETE FROM `+table+` WHERE token = $1 AND expires_at > NOW() RETURNING user_id`,
		token).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	return userID, nil
}

var _ TokenRepository = (*tokenRepository)(nil)
