package products

// DiscountTier is one quantity threshold at or above which a fractional
// price discount applies.
type DiscountTier struct {
	MinQuantity int     `json:"min_quantity"`
	Discount    float64 `json:"discount"`
}

// Specification field names used by compatibility checks and search.
const (
	SpecSize     = "size"
	SpecGrade    = "grade"
	SpecMaterial = "material"
	SpecCoating  = "coating"
)

// Product is one catalog entry. Products are reference data: engines read
// them, never mutate them.
type Product struct {
	ID             string            `json:"id"`
	SKU            string            `json:"sku"`
	Name           string            `json:"name"`
	CategorySlug   string            `json:"category_slug"`
	Description    string            `json:"description,omitempty"`
	Price          float64           `json:"price"`
	UnitWeightKg   float64           `json:"unit_weight_kg"`
	Specifications map[string]string `json:"specifications"`
	Standards      []string          `json:"standards"`
	DiscountTiers  []DiscountTier    `json:"discount_tiers,omitempty"`
	Featured       bool              `json:"featured"`
	InStock        bool              `json:"in_stock"`
	Active         bool              `json:"active"`
}

// SearchResult pairs a product with its relevance score.
type SearchResult struct {
	Product Product `json:"product"`
	Score   float64 `json:"score"`
}

// CompatibilityResult reports whether two products can be used together.
// A size mismatch is a hard fail; grade or material mismatches are
// warnings only.
type CompatibilityResult struct {
	Compatible bool     `json:"compatible"`
	Warnings   []string `json:"warnings,omitempty"`
}

// RecommendationKind selects the recommendation strategy.
type RecommendationKind string

const (
	RecommendComplementary RecommendationKind = "complementary"
	RecommendAlternative   RecommendationKind = "alternative"
	RecommendUpgrade       RecommendationKind = "upgrade"
)
