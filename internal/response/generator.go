package response

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/capefasteners/supply-ai-platform/internal/knowledge"
	"github.com/capefasteners/supply-ai-platform/internal/products"
	"github.com/capefasteners/supply-ai-platform/pkg/logging"
)

// Variant names with dedicated selection rules. Any other variant is
// selected by matching its name against a truthy data key.
const (
	variantError      = "error"
	variantNotFound   = "not_found"
	variantSingle     = "single"
	variantMultiple   = "multiple"
	variantDefault    = "default"
	lastResortMessage = "I'm not sure how to answer that yet, but our sales team can help — would you like me to put you in touch?"
)

const maxQuickReplies = 4

// Data flag keys consumed during variant selection.
const (
	KeyError    = "error"
	KeyNotFound = "notFound"
	KeyCount    = "count"
)

var placeholderRE = regexp.MustCompile(`\{([a-zA-Z][a-zA-Z0-9_]*)\}`)

// purchaseReplies are filtered out of quick replies on not-found results.
var purchaseReplies = map[string]bool{
	"get a quote":  true,
	"accept quote": true,
	"buy now":      true,
	"order now":    true,
}

// Reply is a rendered response: user-facing text plus suggested quick
// replies, capped at four.
type Reply struct {
	Text         string   `json:"text"`
	QuickReplies []string `json:"quick_replies"`
}

// Generator renders intent templates with structured handler output.
type Generator struct {
	templates map[string]knowledge.Template
	logger    *logging.Logger
}

// NewGenerator indexes the template library by intent.
func NewGenerator(doc knowledge.TemplateDocument, logger *logging.Logger) *Generator {
	if logger == nil {
		logger = logging.Default()
	}
	g := &Generator{
		templates: make(map[string]knowledge.Template, len(doc.Templates)),
		logger:    logger,
	}
	for _, tmpl := range doc.Templates {
		g.templates[tmpl.Intent] = tmpl
	}
	return g
}

// Generate selects a template variant for the intent and interpolates the
// merged data/context into it. Data keys win over context keys on
// collision. Unresolvable placeholders are left verbatim.
func (g *Generator) Generate(intent string, data map[string]any, context map[string]any) Reply {
	tmpl, ok := g.templates[intent]
	if !ok {
		g.logger.Warn("response: no template for intent", "intent", intent)
		return Reply{Text: lastResortMessage}
	}

	merged := make(map[string]any, len(context)+len(data))
	for k, v := range context {
		merged[k] = v
	}
	for k, v := range data {
		merged[k] = v
	}

	text, variant := g.render(tmpl, merged)
	return Reply{
		Text:         text,
		QuickReplies: g.quickReplies(intent, tmpl, variant),
	}
}

// render picks the variant by fixed precedence: error, not_found,
// count-based, data-key-matched, default, last resort.
func (g *Generator) render(tmpl knowledge.Template, data map[string]any) (text, variant string) {
	pick := func(name string) (string, bool) {
		body, ok := tmpl.Variants[name]
		return body, ok
	}

	if truthy(data[KeyError]) {
		if body, ok := pick(variantError); ok {
			return interpolate(body, data), variantError
		}
	}
	if truthy(data[KeyNotFound]) {
		if body, ok := pick(variantNotFound); ok {
			return interpolate(body, data), variantNotFound
		}
	}
	if count, ok := asInt(data[KeyCount]); ok {
		name := variantMultiple
		if count == 1 {
			name = variantSingle
		}
		if body, ok := pick(name); ok {
			return interpolate(body, data), name
		}
	}
	// Deterministic order for data-key-matched variants.
	names := make([]string, 0, len(tmpl.Variants))
	for name := range tmpl.Variants {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		switch name {
		case variantError, variantNotFound, variantSingle, variantMultiple, variantDefault:
			continue
		}
		if truthy(data[name]) {
			return interpolate(tmpl.Variants[name], data), name
		}
	}
	if body, ok := pick(variantDefault); ok {
		return interpolate(body, data), variantDefault
	}
	return lastResortMessage, ""
}

// quickReplies applies the per-outcome adjustments and the cap.
func (g *Generator) quickReplies(intent string, tmpl knowledge.Template, variant string) []string {
	replies := append([]string(nil), tmpl.QuickReplies...)

	if variant == variantNotFound {
		kept := replies[:0]
		for _, r := range replies {
			if !purchaseReplies[strings.ToLower(r)] {
				kept = append(kept, r)
			}
		}
		replies = kept
	}
	if intent == "PRODUCT_SEARCH" && variant != variantNotFound && variant != variantError {
		if !containsFold(replies, "get a quote") {
			replies = append([]string{"Get a quote"}, replies...)
		}
	}
	if len(replies) > maxQuickReplies {
		replies = replies[:maxQuickReplies]
	}
	if len(replies) == 0 {
		return nil
	}
	return replies
}

// interpolate substitutes {key} placeholders, leaving unresolved ones
// verbatim.
func interpolate(body string, data map[string]any) string {
	return placeholderRE.ReplaceAllStringFunc(body, func(match string) string {
		key := match[1 : len(match)-1]
		value, ok := data[key]
		if !ok || value == nil {
			return match
		}
		return formatValue(key, value)
	})
}

// formatValue applies type- and key-aware formatting: currency for
// price-like keys, percentages for discount-like keys, Oxford joins for
// string lists, multi-line rendering for catalog collections.
func formatValue(key string, value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "yes"
		}
		return "no"
	case int:
		return formatNumber(key, float64(v), true)
	case int64:
		return formatNumber(key, float64(v), true)
	case float64:
		return formatNumber(key, v, v == math.Trunc(v))
	case float32:
		return formatNumber(key, float64(v), float64(v) == math.Trunc(float64(v)))
	case []string:
		return joinOxford(v)
	case []products.SearchResult:
		return renderSearchResults(v)
	case []products.Product:
		return renderProducts(v)
	case []products.DiscountTier:
		return renderTiers(v)
	case map[string]string:
		return renderSpecs(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatNumber(key string, v float64, integral bool) string {
	lower := strings.ToLower(key)
	switch {
	case isCurrencyKey(lower):
		return fmt.Sprintf("R%.2f", v)
	case isPercentKey(lower):
		// Fractions render as percentages; values >= 1 are already percent.
		if v < 1 {
			v *= 100
		}
		if v == math.Trunc(v) {
			return fmt.Sprintf("%.0f%%", v)
		}
		return fmt.Sprintf("%.1f%%", v)
	case integral:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func isCurrencyKey(key string) bool {
	for _, marker := range []string{"price", "subtotal", "total", "cost", "tax", "amount"} {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}

func isPercentKey(key string) bool {
	for _, marker := range []string{"discount", "rate", "percent"} {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}

func joinOxford(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}

func renderSearchResults(results []products.SearchResult) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, renderProductLine(r.Product))
	}
	return strings.Join(lines, "\n")
}

func renderProducts(items []products.Product) string {
	lines := make([]string, 0, len(items))
	for _, p := range items {
		lines = append(lines, renderProductLine(p))
	}
	return strings.Join(lines, "\n")
}

func renderProductLine(p products.Product) string {
	stock := "in stock"
	if !p.InStock {
		stock = "on back-order"
	}
	return fmt.Sprintf("• %s (%s) — R%.2f, %s", p.Name, p.SKU, p.Price, stock)
}

func renderTiers(tiers []products.DiscountTier) string {
	lines := make([]string, 0, len(tiers))
	for _, t := range tiers {
		lines = append(lines, fmt.Sprintf("• %d+ units: %.0f%% off", t.MinQuantity, t.Discount*100))
	}
	return strings.Join(lines, "\n")
}

func renderSpecs(specs map[string]string) string {
	keys := make([]string, 0, len(specs))
	for k := range specs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("• %s: %s", k, specs[k]))
	}
	return strings.Join(lines, "\n")
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case float64:
		return t != 0
	default:
		return true
	}
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	default:
		return 0, false
	}
}

func containsFold(items []string, target string) bool {
	for _, item := range items {
		if strings.EqualFold(item, target) {
			return true
		}
	}
	return false
}
