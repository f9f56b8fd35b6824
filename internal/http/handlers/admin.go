package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/capefasteners/supply-ai-platform/internal/scoring"
	"github.com/capefasteners/supply-ai-platform/internal/session"
	"github.com/capefasteners/supply-ai-platform/pkg/logging"
)

const (
	defaultHotLeadLimit = 20
	maxHotLeadLimit     = 100
	defaultPeriod       = 7 * 24 * time.Hour
)

// LeadReader serves the sales-facing lead views.
type LeadReader interface {
	GetHotLeads(ctx context.Context, limit int) ([]session.Session, error)
	GetAnalytics(ctx context.Context, period time.Duration) (*scoring.Analytics, error)
}

// SessionCloser ends a session with an outcome.
type SessionCloser interface {
	Close(ctx context.Context, sessionID, outcome string) error
}

// AdminHandler exposes the sales back-office endpoints.
type AdminHandler struct {
	leads    LeadReader
	sessions SessionCloser
	logger   *logging.Logger
}

// NewAdminHandler creates the admin HTTP handler.
func NewAdminHandler(leads LeadReader, sessions SessionCloser, logger *logging.Logger) *AdminHandler {
	if leads == nil {
		panic("handlers: lead reader cannot be nil")
	}
	if sessions == nil {
		panic("handlers: session closer cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminHandler{leads: leads, sessions: sessions, logger: logger}
}

// HotLeads processes GET /admin/leads/hot.
func (h *AdminHandler) HotLeads(w http.ResponseWriter, r *http.Request) {
	limit := defaultHotLeadLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n > maxHotLeadLimit {
			n = maxHotLeadLimit
		}
		limit = n
	}

	leads, err := h.leads.GetHotLeads(r.Context(), limit)
	if err != nil {
		h.logger.Error("hot leads lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load hot leads")
		return
	}
	if leads == nil {
		leads = []session.Session{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": leads, "count": len(leads)})
}

// Analytics processes GET /admin/analytics.
func (h *AdminHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	period := defaultPeriod
	if raw := r.URL.Query().Get("period"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "period must be a positive duration such as 24h")
			return
		}
		period = d
	}

	analytics, err := h.leads.GetAnalytics(r.Context(), period)
	if err != nil {
		h.logger.Error("analytics lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load analytics")
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

type closeSessionRequest struct {
	Outcome string `json:"outcome"`
}

// CloseSession processes POST /admin/sessions/{sessionID}/close.
func (h *AdminHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}

	var req closeSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Outcome == "" {
		req.Outcome = "closed"
	}

	if err := h.sessions.Close(r.Context(), sessionID, req.Outcome); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		h.logger.Error("session close failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not close session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_id": sessionID, "outcome": req.Outcome})
}
