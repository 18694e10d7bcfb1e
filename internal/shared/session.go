package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Session is the server-side state behind one browser session. The token is
// opaque; everything of meaning lives in Redis.
type Session struct {
	Token     string    `json:"-"`
	UserID    int64     `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionManager issues, resolves and revokes cookie-keyed sessions backed by
// Redis. Expiry is an absolute TTL fixed at issue time, never extended on
// access, and checked lazily on the next resolve.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, cookieName string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{client: client, cookieName: cookieName, ttl: ttl, secure: secure}
}

// Issue creates a new session for userID and persists it.
func (sm *SessionManager) Issue(ctx context.Context, userID int64) (*Session, error) {
	now := time.Now().UTC()
	sess := &Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(sm.ttl),
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("session: marshal: %w", err)
	}
	if err := sm.client.Set(ctx, sm.redisKey(sess.Token), payload, sm.ttl).Err(); err != nil {
		return nil, fmt.Errorf("session: store: %w", err)
	}
	return sess, nil
}

// Resolve loads the session behind token. It returns (nil, nil) when the
// token is unknown or the session has passed its absolute expiry.
func (sm *SessionManager) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}
	payload, err := sm.client.Get(ctx, sm.redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: load: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("session: unmarshal: %w", err)
	}
	sess.Token = token
	if !sess.ExpiresAt.After(time.Now().UTC()) {
		_ = sm.client.Del(ctx, sm.redisKey(token)).Err()
		return nil, nil
	}
	return &sess, nil
}

// Revoke deletes the server-side session state. Revoking an absent or already
// revoked token is not an error.
func (sm *SessionManager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := sm.client.Del(ctx, sm.redisKey(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("session: revoke: %w", err)
	}
	return nil
}

// TokenFromRequest extracts the session token cookie, if any.
func (sm *SessionManager) TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// SetCookie writes the session cookie for sess.
func (sm *SessionManager) SetCookie(w http.ResponseWriter, sess *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  sess.ExpiresAt,
	})
}

// ClearCookie expires the session cookie on the client.
func (sm *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// TTL exposes the configured absolute session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// CookieName returns the cookie identifier used for sessions.
func (sm *SessionManager) CookieName() string {
	return sm.cookieName
}

func (sm *SessionManager) redisKey(token string) string {
	return "session:" + token
}
