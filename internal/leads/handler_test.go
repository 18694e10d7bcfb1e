package leads_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/optimwalls/Optimwalls/internal/leads"
	"github.com/optimwalls/Optimwalls/internal/rbac"
	"github.com/optimwalls/Optimwalls/internal/shared"
	_ "github.com/optimwalls/Optimwalls/internal/testing/guard"
)

func newLeadsRouter(t *testing.T, identity *shared.Identity) (http.Handler, *memoryRepo) {
	t.Helper()
	perms := rbac.Middleware{Service: rbac.NewService(nil), Logger: discardLogger()}
	return newLeadsRouterWithPerms(t, identity, perms)
}

func newLeadsRouterWithPerms(t *testing.T, identity *shared.Identity, perms rbac.Middleware) (http.Handler, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	svc := leads.NewService(repo, discardLogger())
	handler := leads.NewHandler(discardLogger(), svc, perms)

	r := chi.NewRouter()
	if identity != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(shared.ContextWithIdentity(req.Context(), identity)))
			})
		})
	}
	r.Route("/api/leads", handler.MountRoutes)
	return r, repo
}

func superAdmin() *shared.Identity {
	return &shared.Identity{ID: 1, Username: "admin", RoleID: shared.SuperAdminRoleID}
}

// resourceChecker grants every action on one resource and nothing else.
type resourceChecker struct {
	resource string
}

func (c resourceChecker) HasPermission(_ context.Context, _ int64, resource, _ string) (bool, error) {
	return resource == c.resource, nil
}

func TestCreateLeadEndpoint(t *testing.T) {
	router, _ := newLeadsRouter(t, superAdmin())

	req := httptest.NewRequest(http.MethodPost, "/api/leads",
		strings.NewReader(`{"name":"Acme Corp","budget":120000,"projectType":"Commercial","status":"Qualified"}`))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusCreated, res.Code)
	var lead leads.Lead
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &lead))
	require.Equal(t, leads.StatusNew, lead.Status, "caller-supplied status is discarded")
	require.Equal(t, 75, lead.Score)
}

func TestCreateLeadValidation(t *testing.T) {
	router, _ := newLeadsRouter(t, superAdmin())

	req := httptest.NewRequest(http.MethodPost, "/api/leads",
		strings.NewReader(`{"email":"not-an-email"}`))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestLeadsRequireAuthentication(t *testing.T) {
	router, _ := newLeadsRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestGetLeadNotFound(t *testing.T) {
	router, _ := newLeadsRouter(t, superAdmin())

	req := httptest.NewRequest(http.MethodGet, "/api/leads/99", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusNotFound, res.Code)
}

func TestScoreEndpoint(t *testing.T) {
	router, _ := newLeadsRouter(t, superAdmin())

	req := httptest.NewRequest(http.MethodPost, "/api/leads",
		strings.NewReader(`{"name":"Acme Corp","budget":60000}`))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusCreated, res.Code)
	var lead leads.Lead
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &lead))

	req = httptest.NewRequest(http.MethodGet, "/api/leads/1/score", nil)
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	var score struct {
		LeadID int64 `json:"leadId"`
		Score  int   `json:"score"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &score))
	require.Equal(t, lead.ID, score.LeadID)
	require.Equal(t, lead.Score, score.Score)
}

func TestAddActivityRidesOnLeadsUpdate(t *testing.T) {
	// A role holding only the leads resource can log activities on a lead;
	// the nested route does not demand activities:create.
	perms := rbac.Middleware{Service: resourceChecker{resource: shared.ResourceLeads}, Logger: discardLogger()}
	router, _ := newLeadsRouterWithPerms(t, &shared.Identity{ID: 4, Username: "edgar", RoleID: 4}, perms)

	req := httptest.NewRequest(http.MethodPost, "/api/leads",
		strings.NewReader(`{"name":"Acme Corp"}`))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusCreated, res.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/leads/1/activities",
		strings.NewReader(`{"type":"call","notes":"left a voicemail"}`))
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusCreated, res.Code)
}

func TestPatchLeadEndpoint(t *testing.T) {
	router, repo := newLeadsRouter(t, superAdmin())

	req := httptest.NewRequest(http.MethodPost, "/api/leads",
		strings.NewReader(`{"name":"Acme Corp"}`))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusCreated, res.Code)

	req = httptest.NewRequest(http.MethodPatch, "/api/leads/1",
		strings.NewReader(`{"status":"Converted"}`))
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	require.Len(t, repo.clientLeadIDs, 1)

	// Converting again conflicts.
	req = httptest.NewRequest(http.MethodPatch, "/api/leads/1",
		strings.NewReader(`{"status":"New"}`))
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusConflict, res.Code)
}
