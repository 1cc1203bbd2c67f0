package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brightpath/schoolbooks-backend/api/controllers"
	"github.com/brightpath/schoolbooks-backend/api/middleware"
	"github.com/brightpath/schoolbooks-backend/internal/accounts"
	"github.com/brightpath/schoolbooks-backend/internal/fees"
	"github.com/brightpath/schoolbooks-backend/internal/payroll"
	"github.com/brightpath/schoolbooks-backend/internal/providentfund"
	"github.com/brightpath/schoolbooks-backend/pkg/config"
	"github.com/brightpath/schoolbooks-backend/pkg/db"
	"github.com/brightpath/schoolbooks-backend/pkg/enums"
	"github.com/brightpath/schoolbooks-backend/pkg/logger"
	"github.com/brightpath/schoolbooks-backend/pkg/metrics"
	"github.com/brightpath/schoolbooks-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	accountsService accounts.Service,
	feesService fees.Service,
	payrollService payroll.Service,
	pfService providentfund.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	paymentPolicy := middleware.NewRateLimitPolicy(
		"payments",
		cfg.RateLimit.PaymentWindow,
		cfg.RateLimit.PaymentUserLimit,
		cfg.RateLimit.PaymentIPLimit,
	)

	// Avoid handing the middlewares a typed-nil interface when redis is absent.
	var idempotencyStore redis.IdempotencyStore
	var limiterStore middleware.RateLimiterStore
	var cachePinger redis.Pinger
	if redisClient != nil {
		idempotencyStore = redisClient
		limiterStore = redisClient
		cachePinger = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(dbP, cachePinger, logg))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		// Money movement requires a posting role and sits behind the
		// payment rate limit.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, string(enums.UserRoleAdmin), string(enums.UserRoleAccountant)))
			r.Use(middleware.RateLimit(paymentPolicy, limiterStore, logg))

			r.Route("/fees", func(r chi.Router) {
				r.Post("/collect", controllers.FeesCollect(feesService, logg))
				r.Post("/dues/generate", controllers.FeesGenerateDues(feesService, logg))
				r.Delete("/collections/{id}", controllers.FeesDestroy(feesService, logg))
			})
			r.Post("/payroll/pay", controllers.PayrollPay(payrollService, logg))
			r.Post("/provident-fund/withdraw", controllers.PFWithdraw(pfService, logg))
		})

		r.Get("/fees/receipts/{receiptNumber}", controllers.FeesReceipt(feesService, logg))

		r.Route("/payroll", func(r chi.Router) {
			r.Get("/payments/{id}", controllers.PayrollGet(payrollService, logg))
			r.Get("/staff/{staffID}/payments", controllers.PayrollListForStaff(payrollService, logg))
		})

		r.Route("/provident-fund/staff/{staffID}", func(r chi.Router) {
			r.Get("/balance", controllers.PFBalance(pfService, logg))
			r.Get("/history", controllers.PFHistory(pfService, logg))
		})

		r.Route("/accounts/{id}", func(r chi.Router) {
			r.Get("/balance", controllers.AccountBalance(accountsService, logg))
			r.Get("/transactions", controllers.AccountTransactions(accountsService, logg))
		})
	})

	return r
}
