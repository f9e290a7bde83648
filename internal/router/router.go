package router

import (
	"net/http"

	"github.com/angkringan-pos/api/internal/database"
	"github.com/angkringan-pos/api/internal/handler"
	"github.com/angkringan-pos/api/internal/service"
	"github.com/angkringan-pos/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// New creates a Chi router with all application routes wired up.
func New(queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// POS clients run on LAN tablets and assorted dev hosts; the API
	// carries no credentials, so a permissive CORS policy is fine.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Health (public, probed by clients for connection status)
	healthHandler := handler.NewHealthHandler(pool)
	r.Get("/health", healthHandler.Health)

	// WebSocket ledger event feed
	r.Get("/ws/outlets/{oid}/transactions", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, w, r)
	})

	// App config (key -> JSON)
	configHandler := handler.NewConfigHandler(queries)
	r.Route("/config", configHandler.RegisterRoutes)

	// Outlet-scoped routes
	r.Route("/outlets/{oid}", func(r chi.Router) {
		productHandler := handler.NewProductHandler(queries)
		r.Route("/products", productHandler.RegisterRoutes)

		settlement := service.NewSettlementService(pool, queries, func(db database.DBTX) service.SettlementStore {
			return database.New(db)
		})
		txHandler := handler.NewTransactionHandler(settlement, hub)
		r.Route("/transactions", txHandler.RegisterRoutes)
	})

	return r
}
