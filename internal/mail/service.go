package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/optimwalls/Optimwalls/internal/auth"
	"github.com/optimwalls/Optimwalls/internal/shared"
	"github.com/optimwalls/Optimwalls/jobs"
)

// Enqueuer submits outbound mail to the job queue. jobs.Client satisfies it.
type Enqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) (*asynq.TaskInfo, error)
}

// Service drives the email verification and password reset token flows.
// Delivery is asynchronous: the service only writes tokens and enqueues.
type Service struct {
	tokens   TokenRepository
	users    auth.Repository
	enqueuer Enqueuer
	appURL   string
	logger   *slog.Logger
}

// NewService constructs a mail Service.
func NewService(tokens TokenRepository, users auth.Repository, enqueuer Enqueuer, appURL string, logger *slog.Logger) *Service {
	return &Service{tokens: tokens, users: users, enqueuer: enqueuer, appURL: appURL, logger: logger}
}

// SendVerificationEmail issues a verification token and enqueues the message.
// Satisfies the registration flow's mailer contract.
func (s *Service) SendVerificationEmail(ctx context.Context, userID int64, email string) error {
	token, err := s.tokens.CreateVerificationToken(ctx, userID)
	if err != nil {
		return err
	}
	_, err = s.enqueuer.EnqueueSendEmail(ctx, jobs.SendEmailPayload{
		To:      email,
		Subject: "Verify your email address",
		Body: fmt.Sprintf("Welcome! Confirm your email address by opening the link below.\n\n%s/api/verify-email?token=%s\n\nThe link expires in 24 hours.",
			s.appURL, token),
	})
	return err
}

// VerifyEmail consumes a verification token and marks the user verified. An
// unknown or expired token reports a validation error rather than not found
// so the response does not leak whether the token ever existed.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.tokens.ConsumeVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%w: invalid or expired token", shared.ErrValidation)
		}
		return err
	}
	return s.users.MarkEmailVerified(ctx, userID)
}

// RequestPasswordReset issues a reset token for the account behind the email.
// The outcome is identical whether or not the account exists.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}
	token, err := s.tokens.CreateResetToken(ctx, user.ID)
	if err != nil {
		return err
	}
	_, err = s.enqueuer.EnqueueSendEmail(ctx, jobs.SendEmailPayload{
		To:      email,
		Subject: "Reset your password",
		Body: fmt.Sprintf("A password reset was requested for your account. Open the link below to choose a new password.\n\n%s/reset-password?token=%s\n\nThe link expires in one hour. If you did not request this, ignore this message.",
			s.appURL, token),
	})
	return err
}

// ResetPassword consumes a reset token and stores the new password. The
// password policy applies here exactly as at registration.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := auth.ValidateCredentials("", newPassword); err != nil {
		return err
	}
	userID, err := s.tokens.ConsumeResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%w: invalid or expired token", shared.ErrValidation)
		}
		return err
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}
