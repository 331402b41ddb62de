package api

import (
	"context"
	"net/http"
	"time"
)

// Pinger runs a liveness query against storage.
type Pinger interface {
	Ping(ctx context.Context) (string, error)
}

// HealthHandler reports whether the service can reach its database.
type HealthHandler struct {
	DB      Pinger
	Started time.Time
}

type healthResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}

// Check handles GET /health.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	now, err := h.DB.Ping(r.Context())
	if err != nil {
		requestLogger(r).WithError(err).Error("health check failed")
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}

	jsonResponse(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: now,
		Uptime:    time.Since(h.Started).Seconds(),
	})
}
