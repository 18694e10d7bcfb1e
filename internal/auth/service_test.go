package auth_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/optimwalls/Optimwalls/internal/auth"
	"github.com/optimwalls/Optimwalls/internal/shared"
	_ "github.com/optimwalls/Optimwalls/internal/testing/guard"
)

type stubRepo struct {
	users  map[string]*auth.User
	nextID int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: make(map[string]*auth.User)}
}

func (s *stubRepo) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	user, ok := s.users[username]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	for _, user := range s.users {
		if user.Email != nil && *user.Email == email {
			return user, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) GetByID(ctx context.Context, id int64) (*auth.User, error) {
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) Create(ctx context.Context, user auth.User) (*auth.User, error) {
	if _, exists := s.users[user.Username]; exists {
		return nil, shared.ErrConflict
	}
	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.Username] = &user
	return &user, nil
}

func (s *stubRepo) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	for _, user := range s.users {
		if user.ID == userID {
			user.PasswordHash = passwordHash
			return nil
		}
	}
	return shared.ErrNotFound
}

func (s *stubRepo) MarkEmailVerified(ctx context.Context, userID int64) error {
	for _, user := range s.users {
		if user.ID == userID {
			now := time.Now()
			user.EmailVerifiedAt = &now
			return nil
		}
	}
	return shared.ErrNotFound
}

func (s *stubRepo) RoleIDByName(ctx context.Context, name string) (int64, error) {
	if name == shared.DefaultRoleName {
		return 5, nil
	}
	return 0, shared.ErrNotFound
}

func (s *stubRepo) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, token string) error {
	return nil
}

const validPassword = "Sup3r$ecret"

func TestRegisterSelfMode(t *testing.T) {
	repo := newStubRepo()
	svc := auth.NewService(repo, auth.RegistrationSelf, nil)

	user, err := svc.Register(context.Background(), auth.RegisterInput{
		Username: "olivia",
		Password: validPassword,
	}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(5), user.RoleID, "self registration lands in the default role")
	require.NotEqual(t, validPassword, user.PasswordHash)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	repo := newStubRepo()
	svc := auth.NewService(repo, auth.RegistrationSelf, nil)

	_, err := svc.Register(context.Background(), auth.RegisterInput{Username: "olivia", Password: validPassword}, nil)
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), auth.RegisterInput{Username: "olivia", Password: validPassword}, nil)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestRegisterAdminModeRequiresSuperAdmin(t *testing.T) {
	repo := newStubRepo()
	svc := auth.NewService(repo, auth.RegistrationAdmin, nil)

	_, err := svc.Register(context.Background(), auth.RegisterInput{Username: "olivia", Password: validPassword}, nil)
	require.ErrorIs(t, err, shared.ErrUnauthenticated)

	manager := &shared.Identity{ID: 2, Username: "manager", RoleID: 3}
	_, err = svc.Register(context.Background(), auth.RegisterInput{Username: "olivia", Password: validPassword}, manager)
	require.ErrorIs(t, err, shared.ErrForbidden)

	admin := &shared.Identity{ID: 1, Username: "admin", RoleID: shared.SuperAdminRoleID}
	_, err = svc.Register(context.Background(), auth.RegisterInput{Username: "olivia", Password: validPassword}, admin)
	require.NoError(t, err)
}

func TestRegisterPasswordPolicy(t *testing.T) {
	repo := newStubRepo()
	svc := auth.NewService(repo, auth.RegistrationSelf, nil)

	for i, password := range []string{
		"short1A$",    // valid, control case
		"nodigits$AA", // missing digit
		"noupper1$aa", // missing uppercase
		"NOLOWER1$AA", // missing lowercase
		"NoSpecial1aa",
		"Sh0r$t",
	} {
		username := fmt.Sprintf("user_%d", i)
		_, err := svc.Register(context.Background(), auth.RegisterInput{Username: username, Password: password}, nil)
		if password == "short1A$" {
			require.NoError(t, err)
			continue
		}
		require.ErrorIs(t, err, shared.ErrValidation, "password %q should be rejected", password)
	}
}

func TestAuthenticate(t *testing.T) {
	repo := newStubRepo()
	svc := auth.NewService(repo, auth.RegistrationSelf, nil)

	_, err := svc.Register(context.Background(), auth.RegisterInput{Username: "olivia", Password: validPassword}, nil)
	require.NoError(t, err)

	user, err := svc.Authenticate(context.Background(), "olivia", validPassword)
	require.NoError(t, err)
	require.Equal(t, "olivia", user.Username)

	_, err = svc.Authenticate(context.Background(), "olivia", "wrong-password")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	// Unknown username is indistinguishable from a wrong password.
	_, err = svc.Authenticate(context.Background(), "nobody", validPassword)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateMalformedHash(t *testing.T) {
	repo := newStubRepo()
	repo.users["legacy"] = &auth.User{ID: 9, Username: "legacy", PasswordHash: "not-a-valid-hash", RoleID: 5}
	svc := auth.NewService(repo, auth.RegistrationSelf, nil)

	_, err := svc.Authenticate(context.Background(), "legacy", validPassword)
	require.Error(t, err)
	require.NotErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestResolveIdentity(t *testing.T) {
	repo := newStubRepo()
	svc := auth.NewService(repo, auth.RegistrationSelf, nil)

	user, err := svc.Register(context.Background(), auth.RegisterInput{Username: "olivia", Password: validPassword}, nil)
	require.NoError(t, err)

	identity, err := svc.ResolveIdentity(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, identity)
	require.Equal(t, user.ID, identity.ID)
	require.Equal(t, user.RoleID, identity.RoleID)

	// A deleted user resolves to no identity, not an error.
	identity, err = svc.ResolveIdentity(context.Background(), 999)
	require.NoError(t, err)
	require.Nil(t, identity)
}
