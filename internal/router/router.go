package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dinepos/api/internal/config"
	"github.com/dinepos/api/internal/enum"
	"github.com/dinepos/api/internal/handler"
	mw "github.com/dinepos/api/internal/middleware"
	"github.com/dinepos/api/internal/service"
	"github.com/dinepos/api/internal/store"
	"github.com/dinepos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Everything except /health and /ws requires authentication; table
// creation is restricted to managers.
func New(cfg *config.Config, st store.Store, orders *service.OrderService, tables *service.TableService, tickets *service.TicketService, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		orderHandler := handler.NewOrderHandler(orders)
		r.Route("/orders", orderHandler.RegisterRoutes)

		tableHandler := handler.NewTableHandler(tables)
		r.Route("/tables", func(r chi.Router) {
			tableHandler.RegisterRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleManager))
				r.Post("/", tableHandler.Create)
			})
		})

		ticketHandler := handler.NewTicketHandler(tickets)
		r.Route("/kots", ticketHandler.RegisterRoutes)

		menuHandler := handler.NewMenuHandler(st)
		r.Route("/menu", menuHandler.RegisterRoutes)
	})

	return r
}
