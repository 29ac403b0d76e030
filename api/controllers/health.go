package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/kiraya-market/kiraya-backend/api/responses"
	"github.com/kiraya-market/kiraya-backend/pkg/logger"
	"gorm.io/gorm"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports liveness of the process and its backing services.
func Health(gdb *gorm.DB, cache pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"service": "ok", "db": "ok", "redis": "ok"}
		healthy := true

		if gdb != nil {
			sqlDB, err := gdb.DB()
			if err != nil || sqlDB.PingContext(ctx) != nil {
				status["db"] = "unreachable"
				healthy = false
			}
		}
		if cache != nil {
			if err := cache.Ping(ctx); err != nil {
				status["redis"] = "unreachable"
				healthy = false
			}
		}

		if !healthy {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, status)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
