package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/capefasteners/supply-ai-platform/internal/products"
)

// HealthHandler reports process and dependency health.
type HealthHandler struct {
	db        *sql.DB // optional
	catalog   *products.Engine
	startedAt time.Time
}

// NewHealthHandler creates the health check handler. db may be nil when the
// service runs without a database.
func NewHealthHandler(db *sql.DB, catalog *products.Engine) *HealthHandler {
	return &HealthHandler{db: db, catalog: catalog, startedAt: time.Now()}
}

type componentStatus struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type healthResponse struct {
	Status        string                     `json:"status"`
	UptimeSeconds int64                      `json:"uptime_seconds"`
	Components    map[string]componentStatus `json:"components"`
}

// Check processes GET /health.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Components:    make(map[string]componentStatus),
	}

	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.Components["database"] = componentStatus{Status: "down", Detail: err.Error()}
		} else {
			resp.Components["database"] = componentStatus{Status: "ok"}
		}
	} else {
		resp.Components["database"] = componentStatus{Status: "disabled"}
	}

	if h.catalog != nil {
		status := "ok"
		if h.catalog.Count() == 0 {
			status = "empty"
			resp.Status = "degraded"
		}
		resp.Components["catalog"] = componentStatus{
			Status: status,
			Detail: fmt.Sprintf("%d products, %d index terms", h.catalog.Count(), h.catalog.IndexSize()),
		}
	}

	code := http.StatusOK
	if resp.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}
