package http_handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/baechuer/newslink/internal/transport/http/response"
)

// Pinger is satisfied by *sql.DB and the redis client.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db    Pinger
	extra map[string]Pinger
}

// NewHealthHandler takes the database plus optional named dependencies that
// readiness should also check.
func NewHealthHandler(db Pinger, extra map[string]Pinger) *HealthHandler {
	return &HealthHandler{db: db, extra: extra}
}

// Healthz handles GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz handles GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	ready := true

	if h.db != nil {
		checks["database"] = "ok"
		if err := h.db.PingContext(ctx); err != nil {
			checks["database"] = "unavailable"
			ready = false
		}
	}
	for name, p := range h.extra {
		if p == nil {
			continue
		}
		checks[name] = "ok"
		if err := p.PingContext(ctx); err != nil {
			checks[name] = "unavailable"
			ready = false
		}
	}

	if !ready {
		response.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "checks": checks})
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"status": "ready", "checks": checks})
}
