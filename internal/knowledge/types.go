package knowledge

// IntentPattern is one entry in the intent pattern library. Patterns are
// immutable after load; Expression is compiled once by the matcher.
type IntentPattern struct {
	ID         string   `json:"id"`
	Intent     string   `json:"intent"`
	Expression string   `json:"expression"`
	Keywords   []string `json:"keywords"`
	Priority   int      `json:"priority"`
}

// PatternDocument holds the primary pattern library plus the lower-priority
// fallback set tried when nothing in the primary set matches.
type PatternDocument struct {
	Patterns         []IntentPattern `json:"patterns"`
	FallbackPatterns []IntentPattern `json:"fallback_patterns"`
}

// SynonymEntry maps variant spellings and common typos to a canonical term.
type SynonymEntry struct {
	Canonical string   `json:"canonical"`
	Variants  []string `json:"variants"`
}

// SynonymDocument holds the general synonym table and the location table.
// Locations canonicalize place names to delivery regions (provinces).
type SynonymDocument struct {
	Synonyms  []SynonymEntry `json:"synonyms"`
	Locations []SynonymEntry `json:"locations"`
}

// Template defines the response variants and quick replies for one intent.
type Template struct {
	Intent       string            `json:"intent"`
	Variants     map[string]string `json:"variants"`
	QuickReplies []string          `json:"quick_replies"`
}

// TemplateDocument is the full response template library.
type TemplateDocument struct {
	Templates []Template `json:"templates"`
}

// Standard is a named certification or regulation a product may satisfy.
type Standard struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// IndustryRequirements lists the standards an industry demands.
type IndustryRequirements struct {
	Industry     string   `json:"industry"`
	Mandatory    []string `json:"mandatory"`
	Recommended  []string `json:"recommended"`
	Requirements []string `json:"requirements"`
}

// ComplianceDocument holds the standards registry, per-industry requirement
// tables, and the category-inferred standards map.
type ComplianceDocument struct {
	Standards         []Standard             `json:"standards"`
	Industries        []IndustryRequirements `json:"industries"`
	CategoryStandards map[string][]string    `json:"category_standards"`
}

// Base bundles all four knowledge documents after a successful load.
type Base struct {
	Patterns   PatternDocument
	Synonyms   SynonymDocument
	Templates  TemplateDocument
	Compliance ComplianceDocument
}
