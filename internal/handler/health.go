package handler

import (
	"context"
	"net/http"
	"time"
)

const dbPingTimeout = 2 * time.Second

// Pinger probes the storage backend. Satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports process and storage-backend status separately,
// so clients can tell "process up, database down" from "fully up".
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

// Health handles GET /health. The database ping runs under a bounded
// timeout; a hung backend reports DOWN rather than hanging the probe.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "UP",
		Database:  "UP",
		Timestamp: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), dbPingTimeout)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		resp.Database = "DOWN"
	}

	writeJSON(w, http.StatusOK, resp)
}
