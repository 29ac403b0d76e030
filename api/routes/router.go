package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kiraya-market/kiraya-backend/api/controllers"
	"github.com/kiraya-market/kiraya-backend/api/middleware"
	"github.com/kiraya-market/kiraya-backend/internal/invoices"
	"github.com/kiraya-market/kiraya-backend/internal/notifications"
	"github.com/kiraya-market/kiraya-backend/internal/orders"
	"github.com/kiraya-market/kiraya-backend/internal/payments"
	"github.com/kiraya-market/kiraya-backend/internal/recovery"
	"github.com/kiraya-market/kiraya-backend/pkg/logger"
	"github.com/kiraya-market/kiraya-backend/pkg/redis"
	"gorm.io/gorm"
)

// RouterParams carry everything the HTTP surface needs.
type RouterParams struct {
	Logger        *logger.Logger
	DB            *gorm.DB
	Redis         *redis.Client
	Registry      *prometheus.Registry
	Payments      payments.Service
	Orders        orders.Service
	Invoices      invoices.Service
	Notifications notifications.Service
	Recovery      recovery.Service
}

// NewRouter wires the HTTP routes.
func NewRouter(params RouterParams) http.Handler {
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.ActorContext(logg),
	)

	r.Get("/health", controllers.Health(params.DB, params.Redis, logg))
	if params.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/payment-order", controllers.CreatePaymentOrder(params.Payments, logg))
			r.Post("/verify", controllers.VerifyCheckout(params.Payments, params.Orders, params.Recovery, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListCustomerOrders(params.Orders, logg))
			r.Route("/{orderID}", func(r chi.Router) {
				r.Get("/", controllers.GetOrder(params.Orders, logg))
				r.Get("/invoices", controllers.ListOrderInvoices(params.Invoices, logg))
				r.Post("/approve", controllers.ApproveOrder(params.Orders, logg))
				r.Post("/reject", controllers.RejectOrder(params.Orders, logg))
				r.Post("/complete", controllers.CompleteOrder(params.Orders, logg))
			})
		})

		r.Route("/vendor/orders", func(r chi.Router) {
			r.Get("/", controllers.ListVendorOrders(params.Orders, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/{invoiceID}", controllers.GetInvoice(params.Invoices, logg))
			r.Post("/{invoiceID}/charges", controllers.AddServiceCharge(params.Invoices, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(params.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(params.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(params.Notifications, logg))
		})

		r.Route("/admin/interventions", func(r chi.Router) {
			r.Get("/", controllers.ListInterventions(params.Recovery, logg))
			r.Post("/{interventionID}/resolve", controllers.ResolveIntervention(params.Recovery, logg))
		})
	})

	return r
}
