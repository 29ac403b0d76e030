package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/kiraya-market/kiraya-backend/api/routes"
	"github.com/kiraya-market/kiraya-backend/internal/audit"
	"github.com/kiraya-market/kiraya-backend/internal/invoices"
	"github.com/kiraya-market/kiraya-backend/internal/notifications"
	"github.com/kiraya-market/kiraya-backend/internal/orders"
	"github.com/kiraya-market/kiraya-backend/internal/payments"
	"github.com/kiraya-market/kiraya-backend/internal/recovery"
	"github.com/kiraya-market/kiraya-backend/pkg/config"
	"github.com/kiraya-market/kiraya-backend/pkg/db"
	"github.com/kiraya-market/kiraya-backend/pkg/logger"
	"github.com/kiraya-market/kiraya-backend/pkg/razorpay"
	"github.com/kiraya-market/kiraya-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gateway, err := razorpay.NewClient(context.Background(), cfg.Razorpay, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway client", err)
		os.Exit(1)
	}

	gdb := dbClient.DB()

	auditService, err := audit.NewService(audit.NewRepository(gdb))
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(notifications.NewRepository(gdb), nil, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(payments.NewRepository(gdb), gateway, auditService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	invoiceService, err := invoices.NewService(invoices.NewRepository(gdb), auditService, cfg.Policy, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create invoices service", err)
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
		logg.Error(context.Background(), "failed to create recovery service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(
		gdb,
		orderRepo,
		paymentService,
		invoiceService,
		recoveryService,
		auditService,
		notificationService,
		cfg.Policy,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := routes.NewRouter(routes.RouterParams{
		Logger:        logg,
		DB:            gdb,
		Redis:         redisClient,
		Registry:      registry,
		Payments:      paymentService,
		Orders:        orderService,
		Invoices:      invoiceService,
		Notifications: notificationService,
		Recovery:      recoveryService,
	})

	addr := ":" + cfg.App.Port
	logg.Info(logg.WithField(context.Background(), "addr", addr), "api listening")
	if err := http.ListenAndServe(addr, router); err != nil {
		logg.Error(context.Background(), "http server stopped", err)
		os.Exit(1)
	}
}
