package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/capefasteners/supply-ai-platform/internal/scoring"
	"github.com/capefasteners/supply-ai-platform/pkg/logging"
)

// Service formats hot-lead payloads and delivers them to the sales team.
// Delivery failures are logged, never retried synchronously.
type Service struct {
	email      EmailSender
	salesEmail string
	logger     *logging.Logger
}

// NewService creates a notification service. email may be nil; deliveries
// then degrade to log entries.
func NewService(email EmailSender, salesEmail string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, salesEmail: salesEmail, logger: logger}
}

// DeliverHotLead sends one hot-lead alert out of band.
func (s *Service) DeliverHotLead(ctx context.Context, n scoring.HotLeadNotification) error {
	if s.email == nil || s.salesEmail == "" {
		s.logger.Info("hot lead alert (email not configured)",
			"session_id", n.SessionID, "score", n.Score, "trigger", n.TriggerEvent.Type)
		return nil
	}

	msg := EmailMessage{
		To:      s.salesEmail,
		ToName:  "Sales",
		Subject: fmt.Sprintf("Hot lead: visitor %s (score %d)", n.VisitorID, n.Score),
		Body:    formatHotLead(n),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: deliver hot lead: %w", err)
	}
	return nil
}

func formatHotLead(n scoring.HotLeadNotification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A visitor session just went HOT.\n\n")
	fmt.Fprintf(&b, "Session: %s\nVisitor: %s\nScore: %d (%s)\n", n.SessionID, n.VisitorID, n.Score, n.Tier)
	fmt.Fprintf(&b, "Trigger: %s (+%d points)\n", n.TriggerEvent.Type, n.TriggerEvent.Points)
	fmt.Fprintf(&b, "Suggested action: %s\n", n.SuggestedAction)

	if len(n.RecentEvents) > 0 {
		b.WriteString("\nRecent activity:\n")
		for _, e := range n.RecentEvents {
			fmt.Fprintf(&b, "  - %s (+%d) at %s\n", e.Type, e.Points, e.CreatedAt.Format("15:04:05"))
		}
	}
	if len(n.RecentMessages) > 0 {
		b.WriteString("\nRecent messages:\n")
		for _, m := range n.RecentMessages {
			fmt.Fprintf(&b, "  > %s\n", m)
		}
	}
	return b.String()
}
