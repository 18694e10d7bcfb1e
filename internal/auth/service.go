package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/optimwalls/Optimwalls/internal/shared"
)

// RegistrationMode picks who may create accounts.
type RegistrationMode string

const (
	// RegistrationSelf allows anonymous self-service registration into the
	// lowest-privilege role.
	RegistrationSelf RegistrationMode = "self"
	// RegistrationAdmin restricts account creation to SuperAdmin callers.
	RegistrationAdmin RegistrationMode = "admin"
)

// VerificationMailer is the outbound email contract the auth flow consumes.
type VerificationMailer interface {
	SendVerificationEmail(ctx context.Context, userID int64, email string) error
}

// RegisterInput carries the fields accepted at registration. Role is never
// caller-supplied.
type RegisterInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	FullName string `json:"fullName,omitempty" validate:"omitempty,max=200"`
}

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	mode   RegistrationMode
	mailer VerificationMailer
}

// NewService constructs a Service. mailer may be nil when outbound email is
// not configured.
func NewService(repo Repository, mode RegistrationMode, mailer VerificationMailer) *Service {
	if mode == "" {
		mode = RegistrationSelf
	}
	return &Service{repo: repo, mode: mode, mailer: mailer}
}

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,}$`)
	digitPattern    = regexp.MustCompile(`[0-9]`)
	upperPattern    = regexp.MustCompile(`[A-Z]`)
	lowerPattern    = regexp.MustCompile(`[a-z]`)
	specialPattern  = regexp.MustCompile(`[^A-Za-z0-9]`)
)

// ValidateCredentials enforces the username and password policy shared by
// registration and password reset.
func ValidateCredentials(username, password string) error {
	if username != "" && !usernamePattern.MatchString(username) {
		return fmt.Errorf("%w: username must be at least 3 characters of letters, numbers, dots, underscores or hyphens", shared.ErrValidation)
	}
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", shared.ErrValidation)
	}
	if !digitPattern.MatchString(password) {
		return fmt.Errorf("%w: password must contain a number", shared.ErrValidation)
	}
	if !upperPattern.MatchString(password) {
		return fmt.Errorf("%w: password must contain an uppercase letter", shared.ErrValidation)
	}
	if !lowerPattern.MatchString(password) {
		return fmt.Errorf("%w: password must contain a lowercase letter", shared.ErrValidation)
	}
	if !specialPattern.MatchString(password) {
		return fmt.Errorf("%w: password must contain a special character", shared.ErrValidation)
	}
	return nil
}

// Register creates a new account in the default low-privilege role. In admin
// mode the actor must be a SuperAdmin; in self mode anonymous callers are
// accepted.
func (s *Service) Register(ctx context.Context, input RegisterInput, actor *shared.Identity) (*User, error) {
	if s.mode == RegistrationAdmin {
		if actor == nil {
			return nil, shared.ErrUnauthenticated
		}
		if actor.RoleID != shared.SuperAdminRoleID {
			return nil, &shared.PermissionError{Resource: shared.ResourceUsers, Action: shared.ActionCreate}
		}
	}
	if err := ValidateCredentials(input.Username, input.Password); err != nil {
		return nil, err
	}

	roleID, err := s.repo.RoleIDByName(ctx, shared.DefaultRoleName)
	if err != nil {
		return nil, fmt.Errorf("auth: default role lookup: %w", err)
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Username:     input.Username,
		PasswordHash: hash,
		RoleID:       roleID,
	}
	if input.Email != "" {
		user.Email = &input.Email
	}
	if input.FullName != "" {
		user.FullName = &input.FullName
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, shared.ErrConflict) {
			return nil, fmt.Errorf("%w: username already exists", shared.ErrConflict)
		}
		return nil, err
	}

	if s.mailer != nil && created.Email != nil {
		if err := s.mailer.SendVerificationEmail(ctx, created.ID, *created.Email); err != nil {
			// Registration already committed; verification can be re-requested.
			return created, nil
		}
	}
	return created, nil
}

// Authenticate validates username/password credentials. An unknown username
// and a wrong password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		// Malformed stored hash is a server fault, not a login failure.
		return nil, err
	}
	if !ok {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// ResolveIdentity re-fetches the live user row for a session's user id. A
// deleted user resolves to no identity.
func (s *Service) ResolveIdentity(ctx context.Context, userID int64) (*shared.Identity, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user.Identity(), nil
}

// RegisterSession persists the session metadata in Postgres.
func (s *Service) RegisterSession(ctx context.Context, sess *shared.Session, ip, ua string) error {
	return s.repo.CreateSession(ctx, sess.Token, sess.UserID, sess.ExpiresAt, ip, ua)
}

// RemoveSession deletes a session record from Postgres.
func (s *Service) RemoveSession(ctx context.Context, token string) error {
	return s.repo.DeleteSession(ctx, token)
}
