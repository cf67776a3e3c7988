package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vendorbooks/payables-backend/api/controllers"
	"github.com/vendorbooks/payables-backend/api/middleware"
	"github.com/vendorbooks/payables-backend/internal/inventory"
	"github.com/vendorbooks/payables-backend/internal/ledger"
	"github.com/vendorbooks/payables-backend/internal/payments"
	"github.com/vendorbooks/payables-backend/internal/stats"
	"github.com/vendorbooks/payables-backend/internal/vendors"
	"github.com/vendorbooks/payables-backend/pkg/config"
	"github.com/vendorbooks/payables-backend/pkg/db"
	"github.com/vendorbooks/payables-backend/pkg/logger"
	pkgredis "github.com/vendorbooks/payables-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP pkgredis.Pinger,
	idemStore pkgredis.IdempotencyStore,
	gatherer prometheus.Gatherer,
	vendorService vendors.Service,
	ledgerService ledger.Service,
	paymentService payments.Service,
	inventoryService inventory.Service,
	statsService stats.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor())
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/vendors", func(r chi.Router) {
			r.Post("/", controllers.VendorCreate(vendorService, logg))
			r.Get("/", controllers.VendorList(vendorService, logg))
			r.Route("/{vendorId}", func(r chi.Router) {
				r.Get("/", controllers.VendorGet(vendorService, logg))
				r.Post("/deactivate", controllers.VendorDeactivate(vendorService, logg))
				r.Get("/ledger", controllers.VendorLedger(ledgerService, logg))
				r.Get("/balance", controllers.VendorBalance(ledgerService, vendorService, logg))
				r.Get("/stats", controllers.VendorStats(statsService, logg))
				r.Get("/payments", controllers.PaymentListByVendor(paymentService, logg))
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", controllers.PaymentCreate(paymentService, logg))
			r.Get("/{paymentId}", controllers.PaymentGet(paymentService, logg))
			r.Post("/{paymentId}/status", controllers.PaymentUpdateStatus(paymentService, logg))
		})

		r.Route("/inventory-transactions", func(r chi.Router) {
			r.Post("/", controllers.TransactionCreate(inventoryService, logg))
			r.Get("/{transactionId}", controllers.TransactionGet(inventoryService, logg))
			r.Post("/{transactionId}/approve", controllers.TransactionApprove(inventoryService, logg))
			r.Post("/{transactionId}/cancel", controllers.TransactionCancel(inventoryService, logg))
		})
	})

	return r
}
