package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/optimwalls/Optimwalls/internal/activities"
	"github.com/optimwalls/Optimwalls/internal/app"
	"github.com/optimwalls/Optimwalls/internal/auth"
	"github.com/optimwalls/Optimwalls/internal/clients"
	"github.com/optimwalls/Optimwalls/internal/dashboard"
	"github.com/optimwalls/Optimwalls/internal/leads"
	"github.com/optimwalls/Optimwalls/internal/mail"
	"github.com/optimwalls/Optimwalls/internal/observability"
	"github.com/optimwalls/Optimwalls/internal/platform/cache"
	"github.com/optimwalls/Optimwalls/internal/platform/db"
	"github.com/optimwalls/Optimwalls/internal/rbac"
	"github.com/optimwalls/Optimwalls/internal/roles"
	"github.com/optimwalls/Optimwalls/internal/shared"
	"github.com/optimwalls/Optimwalls/internal/users"
	"github.com/optimwalls/Optimwalls/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "crm_session", cfg.SessionTTL, cfg.IsProduction())
	auditLogger := shared.NewAuditLogger(dbpool)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	authRepo := auth.NewRepository(dbpool)
	tokenRepo := mail.NewTokenRepository(dbpool)
	mailService := mail.NewService(tokenRepo, authRepo, jobClient, cfg.AppURL, logger)
	authService := auth.NewService(authRepo, auth.RegistrationMode(cfg.RegistrationMode), mailService)
	authHandler := auth.NewHandler(logger, authService, sessionManager)
	mailHandler := mail.NewHandler(logger, mailService)

	identity := &auth.IdentityMiddleware{Logger: logger, Sessions: sessionManager, Service: authService}

	rbacService := rbac.NewService(dbpool)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}
	permissionsHandler := rbac.NewPermissionsHandler(logger, rbacService, rbacMiddleware, auditLogger)

	leadsRepo := leads.NewRepository(dbpool)
	leadsService := leads.NewService(leadsRepo, logger)
	leadsHandler := leads.NewHandler(logger, leadsService, rbacMiddleware)

	activitiesRepo := activities.NewRepository(dbpool)
	activitiesHandler := activities.NewHandler(logger, activitiesRepo, rbacMiddleware)

	clientsRepo := clients.NewRepository(dbpool)
	clientsHandler := clients.NewHandler(logger, clientsRepo, leadsService, rbacMiddleware)

	dashboardService := dashboard.NewService(dbpool)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, rbacMiddleware)

	usersRepo := users.NewRepository(dbpool)
	usersHandler := users.NewHandler(logger, usersRepo, rbacMiddleware, auditLogger)
	rolesHandler := roles.NewHandler(logger, dbpool, rbacService, rbacMiddleware)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Identity:           identity,
		AuthHandler:        authHandler,
		MailHandler:        mailHandler,
		LeadsHandler:       leadsHandler,
		ActivitiesHandler:  activitiesHandler,
		ClientsHandler:     clientsHandler,
		DashboardHandler:   dashboardHandler,
		UsersHandler:       usersHandler,
		RolesHandler:       rolesHandler,
		PermissionsHandler: permissionsHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
