package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/optimwalls/Optimwalls/internal/app"
	jobmetrics "github.com/optimwalls/Optimwalls/internal/jobs"
	"github.com/optimwalls/Optimwalls/internal/platform/db"
	"github.com/optimwalls/Optimwalls/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := jobmetrics.NewMetrics(nil)

	var mailer jobs.Mailer
	if cfg.SMTPAddr != "" {
		mailer = &jobs.SMTPMailer{
			Addr:     cfg.SMTPAddr,
			From:     cfg.SMTPFrom,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
		}
	} else {
		mailer = &jobs.LogMailer{Logger: logger}
	}
	mailJob := &jobs.MailJob{Mailer: mailer, Logger: logger, Metrics: metrics}
	cleanupJob := jobs.NewTokenCleanupJob(pool, logger, metrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: mailJob.Handle},
			{Type: jobs.TaskTypeTokenCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: jobs.NewTokenCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
