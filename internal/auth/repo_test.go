package auth

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	_ "github.com/optimwalls/Optimwalls/internal/testing/guard"
)

type execRecorder struct {
	sql  string
	args []any
}

func (e *execRecorder) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	e.sql = sql
	e.args = args
	return pgconn.CommandTag{}, nil
}

func (e *execRecorder) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func TestCreateSessionMatchesSchemaColumns(t *testing.T) {
	rec := &execRecorder{}
	repo := &PGRepository{db: rec}
	expires := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	err := repo.CreateSession(context.Background(), "tok-1", 7, expires, "203.0.113.9", "curl/8.0")
	require.NoError(t, err)

	// The sessions table defines token and user_agent, nothing else names
	// these fields. The insert has to spell out that exact column list.
	require.Contains(t, rec.sql, "INSERT INTO sessions (token, user_id, ip, user_agent, expires_at)")
	require.Equal(t, []any{
		"tok-1",
		int64(7),
		pgtype.Text{String: "203.0.113.9", Valid: true},
		pgtype.Text{String: "curl/8.0", Valid: true},
		expires,
	}, rec.args)
}

func TestCreateSessionNullsEmptyClientFields(t *testing.T) {
	rec := &execRecorder{}
	repo := &PGRepository{db: rec}

	err := repo.CreateSession(context.Background(), "tok-2", 3, time.Now(), "", "")
	require.NoError(t, err)
	require.Equal(t, pgtype.Text{}, rec.args[2])
	require.Equal(t, pgtype.Text{}, rec.args[3])
}

func TestDeleteSessionFiltersOnToken(t *testing.T) {
	rec := &execRecorder{}
	repo := &PGRepository{db: rec}

	err := repo.DeleteSession(context.Background(), "tok-1")
	require.NoError(t, err)
	require.Equal(t, `DELETE FROM sessions WHERE token = $1`, rec.sql)
	require.Equal(t, []any{"tok-1"}, rec.args)
}
