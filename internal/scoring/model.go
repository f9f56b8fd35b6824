package scoring

import (
	"time"
)

// Tier buckets a cumulative lead score. Tiers are a pure function of score;
// they are never mutated independently.
type Tier string

const (
	TierCold Tier = "COLD"
	TierCool Tier = "COOL"
	TierWarm Tier = "WARM"
	TierHot  Tier = "HOT"
)

// Tier thresholds: the first threshold from the top that the score meets or
// exceeds wins.
const (
	hotThreshold  = 80
	warmThreshold = 40
	coolThreshold = 20
)

// TierFor derives the tier for a cumulative score.
func TierFor(score int) Tier {
	switch {
	case score >= hotThreshold:
		return TierHot
	case score >= warmThreshold:
		return TierWarm
	case score >= coolThreshold:
		return TierCool
	default:
		return TierCold
	}
}

// Event is one append-only scoring ledger entry. The sum of a session's
// event points always equals its running score.
type Event struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Type      string         `json:"type"`
	Points    int            `json:"points"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// TrackResult reports the outcome of one tracked event.
type TrackResult struct {
	Score       int  `json:"score"`
	Tier        Tier `json:"tier"`
	PointsAdded int  `json:"points_added"`
	TierChanged bool `json:"tier_changed"`
}

// pointValues maps event types to points. Unknown event types score zero
// and are logged, not rejected.
var pointValues = map[string]int{
	"message_sent":       1,
	"product_search":     5,
	"product_view":       5,
	"spec_inquiry":       8,
	"order_inquiry":      10,
	"delivery_inquiry":   10,
	"bbbee_inquiry":      10,
	"compliance_check":   15,
	"price_check":        15,
	"contact_request":    25,
	"quote_request":      30,
	"callback_requested": 40,
	"quote_accepted":     50,
}

// suggestedActions maps the trigger event of a HOT transition to the sales
// action recommended in the notification.
var suggestedActions = map[string]string{
	"quote_request":      "Call now to close the quote while it is fresh",
	"quote_accepted":     "Send the sales order confirmation and payment details",
	"contact_request":    "Visitor asked for a person - phone them immediately",
	"callback_requested": "Phone the visitor back at the number they left",
	"compliance_check":   "Share compliance certificates and reference projects",
	"price_check":        "Follow up with formal pricing and volume options",
}

const defaultSuggestedAction = "Contact within 1 hour"

// HotLeadNotification is the payload handed to the notification sink when a
// session first crosses into the HOT tier.
type HotLeadNotification struct {
	SessionID       string    `json:"session_id"`
	VisitorID       string    `json:"visitor_id"`
	Score           int       `json:"score"`
	Tier            Tier      `json:"tier"`
	TriggerEvent    Event     `json:"trigger_event"`
	RecentEvents    []Event   `json:"recent_events"`
	RecentMessages  []string  `json:"recent_messages"`
	SuggestedAction string    `json:"suggested_action"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Analytics is an aggregate view over the scoring ledger for a period.
type Analytics struct {
	Since        time.Time      `json:"since"`
	TotalEvents  int            `json:"total_events"`
	TotalPoints  int            `json:"total_points"`
	EventCounts  map[string]int `json:"event_counts"`
	SessionCount int            `json:"session_count"`
}
