package shared_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/optimwalls/Optimwalls/internal/shared"
	_ "github.com/optimwalls/Optimwalls/internal/testing/guard"
)

func newSessionManager(t *testing.T, ttl time.Duration) (*shared.SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return shared.NewSessionManager(client, "test_session", ttl, false), mr
}

func TestIssueAndResolve(t *testing.T) {
	sm, _ := newSessionManager(t, time.Hour)

	sess, err := sm.Issue(context.Background(), 42)
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	require.Equal(t, int64(42), sess.UserID)
	require.WithinDuration(t, sess.IssuedAt.Add(time.Hour), sess.ExpiresAt, time.Second)

	resolved, err := sm.Resolve(context.Background(), sess.Token)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	require.Equal(t, sess.UserID, resolved.UserID)
	require.Equal(t, sess.Token, resolved.Token)
}

func TestResolveUnknownToken(t *testing.T) {
	sm, _ := newSessionManager(t, time.Hour)

	resolved, err := sm.Resolve(context.Background(), "never-issued")
	require.NoError(t, err)
	require.Nil(t, resolved)

	resolved, err = sm.Resolve(context.Background(), "")
	require.NoError(t, err)
	require.Nil(t, resolved)
}

func TestResolveExpiredSession(t *testing.T) {
	sm, mr := newSessionManager(t, time.Minute)

	sess, err := sm.Issue(context.Background(), 42)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	resolved, err := sm.Resolve(context.Background(), sess.Token)
	require.NoError(t, err)
	require.Nil(t, resolved)
}

func TestExpiryIsAbsolute(t *testing.T) {
	sm, mr := newSessionManager(t, time.Minute)

	sess, err := sm.Issue(context.Background(), 42)
	require.NoError(t, err)

	// Repeated resolves must not extend the lifetime.
	for i := 0; i < 3; i++ {
		mr.FastForward(15 * time.Second)
		resolved, err := sm.Resolve(context.Background(), sess.Token)
		require.NoError(t, err)
		require.NotNil(t, resolved)
		require.Equal(t, sess.ExpiresAt.Unix(), resolved.ExpiresAt.Unix())
	}
	mr.FastForward(30 * time.Second)
	resolved, err := sm.Resolve(context.Background(), sess.Token)
	require.NoError(t, err)
	require.Nil(t, resolved)
}

func TestRevokeIdempotent(t *testing.T) {
	sm, _ := newSessionManager(t, time.Hour)

	sess, err := sm.Issue(context.Background(), 42)
	require.NoError(t, err)

	require.NoError(t, sm.Revoke(context.Background(), sess.Token))
	require.NoError(t, sm.Revoke(context.Background(), sess.Token))
	require.NoError(t, sm.Revoke(context.Background(), ""))

	resolved, err := sm.Resolve(context.Background(), sess.Token)
	require.NoError(t, err)
	require.Nil(t, resolved)
}
