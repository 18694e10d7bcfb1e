package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/optimwalls/Optimwalls/internal/jobs"
)

// TokenCleanupJob purges expired email verification tokens, password reset
// tokens and session audit rows. Redis evicts live sessions on its own; the
// Postgres copies are audit data and are kept for seven days past expiry.
type TokenCleanupJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewTokenCleanupJob initialises the cleanup handler.
func NewTokenCleanupJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *TokenCleanupJob {
	return &TokenCleanupJob{Pool: pool, Logger: logger, Metrics: metrics}
}

// Handle executes the cleanup.
func (j *TokenCleanupJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("token cleanup: handler not configured")
	}
	tracker := j.Metrics.Track(TaskTypeTokenCleanup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	statements := map[string]string{
		"verification_tokens": `DELETE FROM email_verification_tokens WHERE expires_at < NOW()`,
		"reset_tokens":        `DELETE FROM password_reset_tokens WHERE expires_at < NOW()`,
		"sessions":            `DELETE FROM sessions WHERE expires_at < NOW() - INTERVAL '7 days'`,
	}
	for name, stmt := range statements {
		tag, err := j.Pool.Exec(ctx, stmt)
		if err != nil {
			j.Logger.Error("token cleanup", slog.String("table", name), slog.Any("error", err))
			resultErr = err
			return resultErr
		}
		if tag.RowsAffected() > 0 {
			j.Logger.Info("token cleanup", slog.String("table", name), slog.Int64("deleted", tag.RowsAffected()))
		}
	}
	return resultErr
}
