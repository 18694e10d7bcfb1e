package auth_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/optimwalls/Optimwalls/internal/auth"
	"github.com/optimwalls/Optimwalls/internal/shared"
	_ "github.com/optimwalls/Optimwalls/internal/testing/guard"
)

func newAuthRouter(t *testing.T, repo auth.Repository) (http.Handler, *shared.SessionManager, *auth.Service) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(redisClient, "test_session", time.Hour, false)
	logger := slog.New(slog.DiscardHandler)

	service := auth.NewService(repo, auth.RegistrationSelf, nil)
	handler := auth.NewHandler(logger, service, sessions)
	identity := &auth.IdentityMiddleware{Logger: logger, Sessions: sessions, Service: service}

	r := chi.NewRouter()
	r.Use(identity.Handler)
	handler.MountRoutes(r)
	return r, sessions, service
}

func registeredRepo(t *testing.T) auth.Repository {
	t.Helper()
	repo := newStubRepo()
	svc := auth.NewService(repo, auth.RegistrationSelf, nil)
	_, err := svc.Register(context.Background(), auth.RegisterInput{Username: "olivia", Password: validPassword}, nil)
	require.NoError(t, err)
	return repo
}

func sessionCookie(t *testing.T, res *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range res.Result().Cookies() {
		if cookie.Name == "test_session" {
			return cookie
		}
	}
	return nil
}

func TestLoginSetsSessionCookie(t *testing.T) {
	router, sessions, _ := newAuthRouter(t, registeredRepo(t))

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"username":"olivia","password":"`+validPassword+`"}`))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	cookie := sessionCookie(t, res)
	require.NotNil(t, cookie, "expected session cookie")
	require.True(t, cookie.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, cookie.SameSite)

	sess, err := sessions.Resolve(context.Background(), cookie.Value)
	require.NoError(t, err)
	require.NotNil(t, sess)

	var body struct {
		Message string           `json:"message"`
		User    *shared.Identity `json:"user"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Equal(t, "olivia", body.User.Username)
}

func TestLoginInvalidCredentials(t *testing.T) {
	router, _, _ := newAuthRouter(t, registeredRepo(t))

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"username":"olivia","password":"WrongPass1$"}`))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.Nil(t, sessionCookie(t, res))
}

func TestCurrentUserRequiresSession(t *testing.T) {
	router, _, _ := newAuthRouter(t, registeredRepo(t))

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestCurrentUserWithSession(t *testing.T) {
	router, sessions, service := newAuthRouter(t, registeredRepo(t))

	user, err := service.Authenticate(context.Background(), "olivia", validPassword)
	require.NoError(t, err)
	sess, err := sessions.Issue(context.Background(), user.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	req.AddCookie(&http.Cookie{Name: "test_session", Value: sess.Token})
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	var identity shared.Identity
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &identity))
	require.Equal(t, "olivia", identity.Username)
}

func TestLogoutRevokesSession(t *testing.T) {
	router, sessions, service := newAuthRouter(t, registeredRepo(t))

	user, err := service.Authenticate(context.Background(), "olivia", validPassword)
	require.NoError(t, err)
	sess, err := sessions.Issue(context.Background(), user.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: "test_session", Value: sess.Token})
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	resolved, err := sessions.Resolve(context.Background(), sess.Token)
	require.NoError(t, err)
	require.Nil(t, resolved)

	// Logging out again with a dead token still succeeds.
	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: "test_session", Value: sess.Token})
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
}

func TestRegisterAutoLogin(t *testing.T) {
	router, _, _ := newAuthRouter(t, newStubRepo())

	req := httptest.NewRequest(http.MethodPost, "/register",
		strings.NewReader(`{"username":"newbie","password":"`+validPassword+`"}`))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusCreated, res.Code)
	require.NotNil(t, sessionCookie(t, res), "self registration logs the account in")
}
