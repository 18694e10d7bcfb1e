package mail_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/optimwalls/Optimwalls/internal/auth"
	"github.com/optimwalls/Optimwalls/internal/mail"
	"github.com/optimwalls/Optimwalls/internal/shared"
	_ "github.com/optimwalls/Optimwalls/internal/testing/guard"
	"github.com/optimwalls/Optimwalls/jobs"
)

type stubTokens struct {
	verification map[string]int64
	reset        map[string]int64
	counter      int
}

func newStubTokens() *stubTokens {
	return &stubTokens{verification: make(map[string]int64), reset: make(map[string]int64)}
}

func (s *stubTokens) CreateVerificationToken(ctx context.Context, userID int64) (string, error) {
	s.counter++
	token := "verify-" + string(rune('a'+s.counter))
	s.verification[token] = userID
	return token, nil
}

func (s *stubTokens) ConsumeVerificationToken(ctx context.Context, token string) (int64, error) {
	userID, ok := s.verification[token]
	if !ok {
		return 0, shared.ErrNotFound
	}
	delete(s.verification, token)
	return userID, nil
}

func (s *stubTokens) CreateResetToken(ctx context.Context, userID int64) (string, error) {
	s.counter++
	token := "reset-" + string(rune('a'+s.counter))
	s.reset[token] = userID
	return token, nil
}

func (s *stubTokens) ConsumeResetToken(ctx context.Context, token string) (int64, error) {
	userID, ok := s.reset[token]
	if !ok {
		return 0, shared.ErrNotFound
	}
	delete(s.reset, token)
	return userID, nil
}

type stubEnqueuer struct {
	sent []jobs.SendEmailPayload
}

func (s *stubEnqueuer) EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) (*asynq.TaskInfo, error) {
	s.sent = append(s.sent, payload)
	return &asynq.TaskInfo{}, nil
}

type stubUsers struct {
	byEmail  map[string]*auth.User
	verified map[int64]bool
	password map[int64]string
}

func newStubUsers() *stubUsers {
	return &stubUsers{
		byEmail:  make(map[string]*auth.User),
		verified: make(map[int64]bool),
		password: make(map[int64]string),
	}
}

func (s *stubUsers) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	return nil, shared.ErrNotFound
}

func (s *stubUsers) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (s *stubUsers) GetByID(ctx context.Context, id int64) (*auth.User, error) {
	return nil, shared.ErrNotFound
}

func (s *stubUsers) Create(ctx context.Context, user auth.User) (*auth.User, error) {
	return nil, shared.ErrConflict
}

func (s *stubUsers) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	s.password[userID] = passwordHash
	return nil
}

func (s *stubUsers) MarkEmailVerified(ctx context.Context, userID int64) error {
	s.verified[userID] = true
	return nil
}

func (s *stubUsers) RoleIDByName(ctx context.Context, name string) (int64, error) {
	return 0, shared.ErrNotFound
}

func (s *stubUsers) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubUsers) DeleteSession(ctx context.Context, token string) error {
	return nil
}

func newMailService(t *testing.T) (*mail.Service, *stubTokens, *stubEnqueuer, *stubUsers) {
	t.Helper()
	tokens := newStubTokens()
	enqueuer := &stubEnqueuer{}
	users := newStubUsers()
	svc := mail.NewService(tokens, users, enqueuer, "http://localhost:8080", slog.New(slog.DiscardHandler))
	return svc, tokens, enqueuer, users
}

func TestSendVerificationEmail(t *testing.T) {
	svc, _, enqueuer, _ := newMailService(t)

	require.NoError(t, svc.SendVerificationEmail(context.Background(), 7, "olivia@example.com"))
	require.Len(t, enqueuer.sent, 1)
	require.Equal(t, "olivia@example.com", enqueuer.sent[0].To)
	require.Contains(t, enqueuer.sent[0].Body, "/api/verify-email?token=")
}

func TestVerifyEmail(t *testing.T) {
	svc, tokens, _, users := newMailService(t)

	token, err := tokens.CreateVerificationToken(context.Background(), 7)
	require.NoError(t, err)

	require.NoError(t, svc.VerifyEmail(context.Background(), token))
	require.True(t, users.verified[7])

	// Tokens are single use.
	err = svc.VerifyEmail(context.Background(), token)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestVerifyEmailUnknownToken(t *testing.T) {
	svc, _, _, _ := newMailService(t)
	err := svc.VerifyEmail(context.Background(), "bogus")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	svc, _, enqueuer, _ := newMailService(t)

	// Indistinguishable from the known-account path: no error, no mail.
	require.NoError(t, svc.RequestPasswordReset(context.Background(), "ghost@example.com"))
	require.Empty(t, enqueuer.sent)
}

func TestRequestPasswordReset(t *testing.T) {
	svc, _, enqueuer, users := newMailService(t)
	email := "olivia@example.com"
	users.byEmail[email] = &auth.User{ID: 7, Username: "olivia", Email: &email}

	require.NoError(t, svc.RequestPasswordReset(context.Background(), email))
	require.Len(t, enqueuer.sent, 1)
	require.Contains(t, enqueuer.sent[0].Body, "reset-password?token=")
}

func TestResetPassword(t *testing.T) {
	svc, tokens, _, users := newMailService(t)

	token, err := tokens.CreateResetToken(context.Background(), 7)
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(context.Background(), token, "N3w$ecret!"))
	require.NotEmpty(t, users.password[7])
	require.NotEqual(t, "N3w$ecret!", users.password[7])

	// Consumed token cannot be replayed.
	err = svc.ResetPassword(context.Background(), token, "An0ther$1")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestResetPasswordPolicy(t *testing.T) {
	svc, tokens, _, _ := newMailService(t)

	token, err := tokens.CreateResetToken(context.Background(), 7)
	require.NoError(t, err)

	// Weak passwords are rejected before the token is consumed.
	err = svc.ResetPassword(context.Background(), token, "weak")
	require.ErrorIs(t, err, shared.ErrValidation)

	require.NoError(t, svc.ResetPassword(context.Background(), token, "N3w$ecret!"))
}
