package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/capefasteners/supply-ai-platform/internal/assistant"
	"github.com/capefasteners/supply-ai-platform/pkg/logging"
)

const maxMessageLength = 2000

// MessageProcessor runs one conversational turn.
type MessageProcessor interface {
	Process(ctx context.Context, input, visitorID, customerID string) assistant.Reply
}

// AssistantHandler exposes the conversational endpoint.
type AssistantHandler struct {
	processor MessageProcessor
	logger    *logging.Logger
}

// NewAssistantHandler creates the assistant HTTP handler.
func NewAssistantHandler(processor MessageProcessor, logger *logging.Logger) *AssistantHandler {
	if processor == nil {
		panic("handlers: processor cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AssistantHandler{processor: processor, logger: logger}
}

type messageRequest struct {
	Message    string `json:"message"`
	VisitorID  string `json:"visitor_id"`
	CustomerID string `json:"customer_id,omitempty"`
}

// HandleMessage processes POST /assistant/message.
func (h *AssistantHandler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	req.VisitorID = strings.TrimSpace(req.VisitorID)

	switch {
	case req.Message == "":
		writeError(w, http.StatusBadRequest, "message is required")
		return
	case len(req.Message) > maxMessageLength:
		writeError(w, http.StatusBadRequest, "message too long")
		return
	case req.VisitorID == "":
		writeError(w, http.StatusBadRequest, "visitor_id is required")
		return
	}

	reply := h.processor.Process(r.Context(), req.Message, req.VisitorID, req.CustomerID)
	writeJSON(w, http.StatusOK, reply)
}
