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

	"github.com/school-erp/school-erp/internal/app"
	"github.com/school-erp/school-erp/internal/audit"
	audithttp "github.com/school-erp/school-erp/internal/audit/http"
	"github.com/school-erp/school-erp/internal/auth"
	"github.com/school-erp/school-erp/internal/observability"
	"github.com/school-erp/school-erp/internal/platform/cache"
	"github.com/school-erp/school-erp/internal/platform/db"
	"github.com/school-erp/school-erp/internal/rbac"
	"github.com/school-erp/school-erp/internal/staff"
	"github.com/school-erp/school-erp/internal/students"
	"github.com/school-erp/school-erp/internal/users"
	"github.com/school-erp/school-erp/jobs"
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

	metrics := observability.NewMetrics()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	revocations := auth.NewRedisRevocations(redisClient)
	authService := auth.NewService(auth.NewRepository(dbpool), tokens, revocations)
	authenticator := auth.Authenticator{Tokens: tokens, Revocations: revocations, Logger: logger}
	authHandler := auth.NewHandler(logger, authService, authenticator)

	usersService := users.NewService(users.NewRepository(dbpool))
	activity := audit.NewRecorder(dbpool)

	rbacService := rbac.NewService(rbac.NewRepository(dbpool), usersService, activity, logger)
	guard := rbac.Middleware{Checker: rbacService.Checker(), Logger: logger, Metrics: metrics}
	permissionsHandler := rbac.NewHandler(logger, rbacService, guard)

	auditHandler := audithttp.NewHandler(logger, audit.NewService(audit.NewRepository(dbpool)))
	usersHandler := users.NewHandler(logger, usersService, guard)

	studentRepo := students.NewRepository(dbpool)
	studentsHandler := students.NewHandler(logger, students.NewService(studentRepo), students.NewOwnership(studentRepo), guard)
	staffHandler := staff.NewHandler(logger, staff.NewRepository(dbpool), guard)

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
		Authenticator:      authenticator,
		Guard:              guard,
		AuthHandler:        authHandler,
		PermissionsHandler: permissionsHandler,
		AuditHandler:       auditHandler,
		UsersHandler:       usersHandler,
		StudentsHandler:    studentsHandler,
		StaffHandler:       staffHandler,
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
