package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nvaziri/roomhub/internal/redis"
	"github.com/nvaziri/roomhub/internal/registry"
	"github.com/nvaziri/roomhub/pkg/logger"
)

// NewRouter builds the HTTP surface: the websocket endpoint plus the
// read-only introspection routes and Prometheus metrics.
func NewRouter(
	reg *registry.Registry,
	presence *redis.RedisClient,
	wsHandler http.HandlerFunc,
	logg logger.Logger,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	h := NewHandler(reg, presence, logg)

	r.Get("/ws", wsHandler)
	r.Get("/health", h.Health)
	r.Get("/api/rooms", h.ListRooms)
	r.Get("/api/rooms/{room}/members", h.ListMembers)
	r.Get("/api/users", h.ListUsers)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
