package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nvaziri/roomhub/internal/domain"
	"github.com/nvaziri/roomhub/internal/redis"
	"github.com/nvaziri/roomhub/internal/registry"
	"github.com/nvaziri/roomhub/pkg/logger"
)

// Handler serves the read-only introspection surface. It reads registry
// snapshots and the Redis presence mirror; it never mutates either.
type Handler struct {
	reg      *registry.Registry
	presence *redis.RedisClient
	logger   logger.Logger
	started  time.Time
}

func NewHandler(reg *registry.Registry, presence *redis.RedisClient, logg logger.Logger) *Handler {
	return &Handler{
		reg:      reg,
		presence: presence,
		logger:   logg,
		started:  time.Now(),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"uptime":   time.Since(h.started).String(),
		"sessions": h.reg.SessionCount(),
	})
}

func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reg.AllRooms())
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")
	sessions := h.reg.MembersOf(room)

	members := make([]domain.Member, 0, len(sessions))
	for _, s := range sessions {
		members = append(members, domain.Member{
			DisplayName: s.DisplayName,
			IsAdmin:     s.IsAdmin,
		})
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.presence.GetActiveUsers(r.Context())
	if err != nil {
		h.logger.Errorf("presence read failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "presence unavailable"})
		return
	}
	if users == nil {
		users = []string{}
	}
	writeJSON(w, http.StatusOK, users)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
