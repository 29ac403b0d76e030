package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kiraya-market/kiraya-backend/internal/audit"
	"github.com/kiraya-market/kiraya-backend/internal/cron"
	"github.com/kiraya-market/kiraya-backend/internal/notifications"
	"github.com/kiraya-market/kiraya-backend/internal/orders"
	"github.com/kiraya-market/kiraya-backend/internal/payments"
	"github.com/kiraya-market/kiraya-backend/internal/recovery"
	"github.com/kiraya-market/kiraya-backend/pkg/config"
	"github.com/kiraya-market/kiraya-backend/pkg/db"
	"github.com/kiraya-market/kiraya-backend/pkg/logger"
	"github.com/kiraya-market/kiraya-backend/pkg/metrics"
	"github.com/kiraya-market/kiraya-backend/pkg/razorpay"
	"github.com/kiraya-market/kiraya-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	gateway, err := razorpay.NewClient(ctx, cfg.Razorpay, logg)
	if err != nil {
		logg.Error(ctx, "failed to create payment gateway client", err)
		os.Exit(1)
	}

	gdb := dbClient.DB()

	auditService, err := audit.NewService(audit.NewRepository(gdb))
	if err != nil {
		logg.Error(ctx, "failed to create audit service", err)
		os.Exit(1)
	}
	notificationService, err := notifications.NewService(notifications.NewRepository(gdb), nil, logg)
	if err != nil {
		logg.Error(ctx, "failed to create notification service", err)
		os.Exit(1)
	}
	paymentService, err := payments.NewService(payments.NewRepository(gdb), gateway, auditService, logg)
	if err != nil {
		logg.Error(ctx, "failed to create payments service", err)
		os.Exit(1)
	}

	orderRepo := orders.NewRepository(gdb)
	recoveryService, err := recovery.NewService(
		recovery.NewRepository(gdb),
		orderRepo,
		paymentService,
		auditService,
		notificationService,
		cfg.Policy,
		logg,
	)
	if err != nil {
		logg.Error(ctx, "failed to create recovery service", err)
		os.Exit(1)
	}

	approvalJob, err := cron.NewApprovalTimeoutJob(cron.ApprovalTimeoutJobParams{
		Logger:   logg,
		Orders:   orderRepo,
		Policy:   cfg.Policy,
		Recovery: recoveryService,
	})
	if err != nil {
		logg.Error(ctx, "failed to create approval timeout job", err)
		os.Exit(1)
	}
	lateReturnJob, err := cron.NewLateReturnJob(cron.LateReturnJobParams{
		Logger:   logg,
		Orders:   orderRepo,
		Policy:   cfg.Policy,
		Recovery: recoveryService,
	})
	if err != nil {
		logg.Error(ctx, "failed to create late return job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redis.Key("cron", "lock"), 25*time.Hour)
	if err != nil {
		logg.Error(ctx, "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	jobMetrics := metrics.NewJobMetrics(registry)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(approvalJob, lateReturnJob),
		Lock:     lock,
		Metrics:  jobMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cron service", err)
		os.Exit(1)
	}

	if err := service.Run(ctx); err != nil && err != context.Canceled {
		logg.Error(ctx, "cron worker stopped", err)
		os.Exit(1)
	}
}
