package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/school-erp/school-erp/internal/app"
	"github.com/school-erp/school-erp/internal/audit"
	jobmetrics "github.com/school-erp/school-erp/internal/jobs"
	"github.com/school-erp/school-erp/internal/platform/db"
	"github.com/school-erp/school-erp/internal/rbac"
	"github.com/school-erp/school-erp/internal/users"
	"github.com/school-erp/school-erp/jobs"
)

func main() {
	trigger := flag.String("trigger", "", "enqueue a job by name and exit ("+jobs.TaskPermissionsInitialize+", "+jobs.TaskActivityPrune+")")
	flag.Parse()

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
	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}

	client := jobs.NewClient(redisOpts)
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	if *trigger != "" {
		info, err := client.Trigger(ctx, *trigger)
		if err != nil {
			logger.Error("trigger job", slog.String("job", *trigger), slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("job enqueued", slog.String("job", *trigger), slog.String("id", info.ID))
		return
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := jobmetrics.NewMetrics(prometheus.DefaultRegisterer)
	activity := audit.NewRecorder(pool)
	rbacService := rbac.NewService(rbac.NewRepository(pool), users.NewService(users.NewRepository(pool)), activity, logger)

	seedJob := jobs.NewPermissionsInitializeJob(rbacService, logger, metrics)
	pruneJob := jobs.NewActivityPruneJob(activity, cfg.ActivityRetention, logger, metrics)

	pruneTask, err := jobs.NewActivityPruneTask(0)
	if err != nil {
		logger.Error("build prune task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskPermissionsInitialize, Handler: seedJob.Handle},
			{Type: jobs.TaskActivityPrune, Handler: pruneJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: jobs.CronActivityPrune, Task: pruneTask, Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	seedTask, err := jobs.NewPermissionsInitializeTask("worker start")
	if err != nil {
		logger.Error("build seed task", slog.Any("error", err))
		os.Exit(1)
	}
	if _, err := client.Enqueue(ctx, seedTask); err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
		logger.Warn("enqueue catalog seed", slog.Any("error", err))
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
