package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capefasteners/supply-ai-platform/internal/knowledge"
	"github.com/capefasteners/supply-ai-platform/internal/products"
)

func testLibrary() knowledge.TemplateDocument {
	return knowledge.TemplateDocument{
		Templates: []knowledge.Template{
			{
				Intent: "PRODUCT_SEARCH",
				Variants: map[string]string{
					"error":     "Something went wrong searching.",
					"not_found": "Nothing matched \"{query}\".",
					"single":    "Found {productName} at {price}.",
					"multiple":  "Found {count} products:\n{products}",
					"default":   "Here is what I found: {products}",
				},
				QuickReplies: []string{"Check compatibility", "More details", "Accept quote", "Speak to sales"},
			},
			{
				Intent: "PRICE_QUOTE",
				Variants: map[string]string{
					"default": "Quote: {quantity} x {productName}, subtotal {subtotal}, VAT {tax}, discount {discount}, total {total}.",
				},
				QuickReplies: []string{"Accept quote", "Change quantity"},
			},
			{
				Intent: "COMPLIANCE_CHECK",
				Variants: map[string]string{
					"compliant":     "{productName} meets {metStandards}.",
					"non_compliant": "{productName} is missing {missingStandards}.",
					"default":       "Compliance summary for {productName}.",
				},
				QuickReplies: []string{"Other industries"},
			},
			{
				Intent:   "GREETING",
				Variants: map[string]string{"default": "Hello {name}!"},
			},
		},
	}
}

func TestGenerateSingleResult(t *testing.T) {
	g := NewGenerator(testLibrary(), nil)

	reply := g.Generate("PRODUCT_SEARCH", map[string]any{
		"count":       1,
		"productName": "Hex Bolt M12x50",
		"price":       4.5,
	}, nil)

	assert.Equal(t, "Found Hex Bolt M12x50 at R4.50.", reply.Text)
	// Product success prepends a quote suggestion, capped at four.
	require.Len(t, reply.QuickReplies, 4)
	assert.Equal(t, "Get a quote", reply.QuickReplies[0])
}

func TestGenerateMultipleResultsRendersLines(t *testing.T) {
	g := NewGenerator(testLibrary(), nil)

	reply := g.Generate("PRODUCT_SEARCH", map[string]any{
		"count": 2,
		"products": []products.SearchResult{
			{Product: products.Product{Name: "Hex Bolt M12x50", SKU: "HEX-M12-50", Price: 4.5, InStock: true}},
			{Product: products.Product{Name: "Hex Nut M12", SKU: "NUT-M12", Price: 1.2}},
		},
	}, nil)

	assert.Contains(t, reply.Text, "Found 2 products:")
	assert.Contains(t, reply.Text, "• Hex Bolt M12x50 (HEX-M12-50) — R4.50, in stock")
	assert.Contains(t, reply.Text, "• Hex Nut M12 (NUT-M12) — R1.20, on back-order")
}

func TestGenerateNotFoundFiltersPurchaseReplies(t *testing.T) {
	g := NewGenerator(testLibrary(), nil)

	reply := g.Generate("PRODUCT_SEARCH", map[string]any{
		"notFound": true,
		"query":    "left-handed bolts",
	}, nil)

	assert.Equal(t, `Nothing matched "left-handed bolts".`, reply.Text)
	assert.NotContains(t, reply.QuickReplies, "Accept quote")
	assert.NotContains(t, reply.QuickReplies, "Get a quote")
	assert.Contains(t, reply.QuickReplies, "Speak to sales")
}

func TestGenerateErrorVariantWinsOverEverything(t *testing.T) {
	g := NewGenerator(testLibrary(), nil)

	reply := g.Generate("PRODUCT_SEARCH", map[string]any{
		"error":    true,
		"notFound": true,
		"count":    3,
	}, nil)

	assert.Equal(t, "Something went wrong searching.", reply.Text)
}

func TestGenerateDataKeyMatchedVariant(t *testing.T) {
	g := NewGenerator(testLibrary(), nil)

	reply := g.Generate("COMPLIANCE_CHECK", map[string]any{
		"compliant":    true,
		"productName":  "Hex Bolt M12x50",
		"metStandards": []string{"SANS 1700", "ISO 898-1", "ISO 1461"},
	}, nil)
	assert.Equal(t, "Hex Bolt M12x50 meets SANS 1700, ISO 898-1, and ISO 1461.", reply.Text)

	reply = g.Generate("COMPLIANCE_CHECK", map[string]any{
		"non_compliant":    true,
		"productName":      "Hex Bolt M12x50",
		"missingStandards": []string{"ISO 3506-1", "ISO 1461"},
	}, nil)
	assert.Equal(t, "Hex Bolt M12x50 is missing ISO 3506-1 and ISO 1461.", reply.Text)
}

func TestGenerateCurrencyAndPercentFormatting(t *testing.T) {
	g := NewGenerator(testLibrary(), nil)

	reply := g.Generate("PRICE_QUOTE", map[string]any{
		"quantity":    150,
		"productName": "Hex Bolt M12x50",
		"subtotal":    607.5,
		"tax":         91.13,
		"discount":    0.10,
		"total":       698.63,
	}, nil)

	assert.Equal(t,
		"Quote: 150 x Hex Bolt M12x50, subtotal R607.50, VAT R91.13, discount 10%, total R698.63.",
		reply.Text)
}

func TestGenerateUnresolvedPlaceholderLeftVerbatim(t *testing.T) {
	g := NewGenerator(testLibrary(), nil)

	reply := g.Generate("GREETING", nil, nil)
	assert.Equal(t, "Hello {name}!", reply.Text)
}

func TestGenerateContextFallbackAndDataPrecedence(t *testing.T) {
	g := NewGenerator(testLibrary(), nil)

	// Context fills missing keys; data wins on collision.
	reply := g.Generate("GREETING", map[string]any{}, map[string]any{"name": "Thandi"})
	assert.Equal(t, "Hello Thandi!", reply.Text)

	reply = g.Generate("GREETING", map[string]any{"name": "Sipho"}, map[string]any{"name": "Thandi"})
	assert.Equal(t, "Hello Sipho!", reply.Text)
}

func TestGenerateUnknownIntentLastResort(t *testing.T) {
	g := NewGenerator(testLibrary(), nil)

	reply := g.Generate("NO_SUCH_INTENT", nil, nil)
	assert.Equal(t, lastResortMessage, reply.Text)
	assert.Empty(t, reply.QuickReplies)
}
