package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/kiraya-market/kiraya-backend/pkg/logger"
)

// Identity headers are set by the edge gateway after it authenticates the
// caller. This service trusts them; token validation happens upstream.
const (
	customerIDHeader = "X-Customer-Id"
	vendorIDHeader   = "X-Vendor-Id"
)

type customerIDKey struct{}
type vendorIDKey struct{}

// ActorContext copies the gateway identity headers into the request context.
func ActorContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if customerID := strings.TrimSpace(r.Header.Get(customerIDHeader)); customerID != "" {
				ctx = context.WithValue(ctx, customerIDKey{}, customerID)
				if logg != nil {
					ctx = logg.WithCustomerID(ctx, customerID)
				}
			}
			if vendorID := strings.TrimSpace(r.Header.Get(vendorIDHeader)); vendorID != "" {
				ctx = context.WithValue(ctx, vendorIDKey{}, vendorID)
				if logg != nil {
					ctx = logg.WithVendorID(ctx, vendorID)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CustomerIDFromContext returns the authenticated customer id, if any.
func CustomerIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(customerIDKey{}).(string); ok {
		return v
	}
	return ""
}

// VendorIDFromContext returns the authenticated vendor id, if any.
func VendorIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(vendorIDKey{}).(string); ok {
		return v
	}
	return ""
}
