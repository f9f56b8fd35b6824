package assistant

// Intent is the classified purpose of a visitor message.
type Intent string

const (
	IntentGreeting      Intent = "GREETING"
	IntentProductSearch Intent = "PRODUCT_SEARCH"
	IntentPriceQuote    Intent = "PRICE_QUOTE"
	IntentCompliance    Intent = "COMPLIANCE_CHECK"
	IntentOrderStatus   Intent = "ORDER_STATUS"
	IntentDelivery      Intent = "DELIVERY_INQUIRY"
	IntentSpecification Intent = "SPECIFICATION_INQUIRY"
	IntentBBBEE         Intent = "BBBEE_INQUIRY"
	IntentContact       Intent = "CONTACT_REQUEST"
	IntentUnknown       Intent = "UNKNOWN"
)

// MatchType distinguishes primary pattern hits from fallback hits.
type MatchType string

const (
	MatchTypePattern  MatchType = "pattern"
	MatchTypeFallback MatchType = "fallback"
)

// PatternMatch is one scored candidate produced by the matcher.
type PatternMatch struct {
	PatternID    string
	Intent       Intent
	Score        float64
	MatchType    MatchType
	SynonymsUsed []string
}

// Quantity is a count extracted from text, with its unit word.
type Quantity struct {
	Value int
	Unit  string
}

// Measurement is a physical dimension or weight extracted from text.
type Measurement struct {
	Value float64
	Unit  string
}

// Entities is the typed bag of fragments extracted from a message,
// independent of which intent (if any) matched. Every slice is present,
// possibly empty.
type Entities struct {
	Quantities    []Quantity
	ProductCodes  []string
	OrderRefs     []string
	Locations     []string
	Measurements  []Measurement
	StandardCodes []string
}

// IsEmpty reports whether no entity of any type was extracted.
func (e Entities) IsEmpty() bool {
	return len(e.Quantities) == 0 && len(e.ProductCodes) == 0 &&
		len(e.OrderRefs) == 0 && len(e.Locations) == 0 &&
		len(e.Measurements) == 0 && len(e.StandardCodes) == 0
}

// Suggestion is an alternative intent offered when classification is
// uncertain.
type Suggestion struct {
	Intent Intent
	Score  float64
}

// Context carries conversational state into classification so that
// parameters missing from the current turn can fall back to it.
type Context struct {
	LastProduct   string
	LastLocation  string
	RecentIntents []Intent
	Preferences   map[string]string
}

// Result is the outcome of classifying one message.
type Result struct {
	Intent      Intent
	Confidence  float64
	Ambiguous   bool
	Contenders  []Intent
	Entities    Entities
	Params      map[string]string
	Suggestions []Suggestion

	// BestGuess preserves the top candidate's intent when confidence fell
	// below the acceptance threshold and Intent was set to UNKNOWN.
	BestGuess Intent
}
