package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/optimwalls/Optimwalls/internal/activities"
	"github.com/optimwalls/Optimwalls/internal/auth"
	"github.com/optimwalls/Optimwalls/internal/clients"
	"github.com/optimwalls/Optimwalls/internal/dashboard"
	"github.com/optimwalls/Optimwalls/internal/leads"
	"github.com/optimwalls/Optimwalls/internal/mail"
	"github.com/optimwalls/Optimwalls/internal/observability"
	"github.com/optimwalls/Optimwalls/internal/rbac"
	"github.com/optimwalls/Optimwalls/internal/roles"
	"github.com/optimwalls/Optimwalls/internal/users"
	"github.com/optimwalls/Optimwalls/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Identity           *auth.IdentityMiddleware
	AuthHandler        *auth.Handler
	MailHandler        *mail.Handler
	LeadsHandler       *leads.Handler
	ActivitiesHandler  *activities.Handler
	ClientsHandler     *clients.Handler
	DashboardHandler   *dashboard.Handler
	UsersHandler       *users.Handler
	RolesHandler       *roles.Handler
	PermissionsHandler *rbac.PermissionsHandler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with the full API surface.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:   params.Logger,
		Config:   params.Config,
		Identity: params.Identity,
		Metrics:  params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		params.AuthHandler.MountRoutes(api)
		params.MailHandler.MountRoutes(api)
		api.Route("/leads", params.LeadsHandler.MountRoutes)
		api.Route("/activities", params.ActivitiesHandler.MountRoutes)
		api.Route("/clients", params.ClientsHandler.MountRoutes)
		api.Route("/users", params.UsersHandler.MountRoutes)
		api.Route("/roles", params.RolesHandler.MountRoutes)
		api.Route("/permissions", params.PermissionsHandler.MountRoutes)
		params.DashboardHandler.MountRoutes(api)
		if params.JobHandler != nil {
			api.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
