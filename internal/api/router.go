package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/account-ledger/internal/api/handlers"
	"github.com/baharkarakas/account-ledger/internal/config"
	"github.com/baharkarakas/account-ledger/internal/metrics"
	"github.com/baharkarakas/account-ledger/internal/middleware"
	"github.com/baharkarakas/account-ledger/internal/services"
)

func NewRouter(cfg config.Config, log *slog.Logger, as *services.AccountService, ts *services.TransactionService) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	ah := handlers.NewAccountHandler(as)
	th := handlers.NewTransactionHandler(ts, log)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/owners", ah.CreateOwner)

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", ah.CreateAccount)
			r.Delete("/", ah.CloseAccount)
			r.Get("/", ah.ListAccounts)
			r.Get("/{id}", ah.GetAccount)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/use", th.Use)
			r.Post("/cancel", th.Cancel)
			r.Get("/{transactionId}", th.Get)
		})
	})

	return r
}
