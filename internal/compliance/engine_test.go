package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capefasteners/supply-ai-platform/internal/knowledge"
	"github.com/capefasteners/supply-ai-platform/internal/products"
)

func testDocument() knowledge.ComplianceDocument {
	return knowledge.ComplianceDocument{
		Standards: []knowledge.Standard{
			{Code: "SANS 1700", Name: "SANS 1700", Description: "Fasteners and threaded components"},
			{Code: "ISO 898-1", Name: "ISO 898-1", Description: "Mechanical properties of carbon steel fasteners"},
			{Code: "ISO 1461", Name: "ISO 1461", Description: "Hot-dip galvanized coatings"},
			{Code: "ISO 3506-1", Name: "ISO 3506-1", Description: "Stainless steel fasteners"},
		},
		Industries: []knowledge.IndustryRequirements{
			{
				Industry:     "mining",
				Mandatory:    []string{"SANS 1700", "ISO 898-1"},
				Recommended:  []string{"ISO 1461"},
				Requirements: []string{"Mill certificates on request"},
			},
			{
				Industry:  "marine",
				Mandatory: []string{"ISO 3506-1", "ISO 1461"},
			},
		},
		CategoryStandards: map[string][]string{
			"bolts": {"SANS 1700"},
		},
	}
}

func boltProduct(standards ...string) *products.Product {
	return &products.Product{
		ID:           "prod-m12",
		SKU:          "HEX-M12-50",
		Name:         "Hex Bolt M12x50",
		CategorySlug: "bolts",
		Standards:    standards,
		Active:       true,
	}
}

func TestCheckCompliantProduct(t *testing.T) {
	e := NewEngine(testDocument(), nil)

	// SANS 1700 is inferred from the bolts category; ISO 898-1 is declared.
	res, err := e.Check(boltProduct("ISO 898-1", "ISO 1461"), "mining")
	require.NoError(t, err)

	assert.True(t, res.Compliant)
	assert.ElementsMatch(t, []string{"SANS 1700", "ISO 898-1", "ISO 1461"}, res.MetStandards)
	assert.Empty(t, res.MissingMandatory)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, []string{"Mill certificates on request"}, res.Requirements)
}

func TestCheckMissingMandatory(t *testing.T) {
	e := NewEngine(testDocument(), nil)

	res, err := e.Check(boltProduct(), "mining")
	require.NoError(t, err)

	assert.False(t, res.Compliant)
	assert.Equal(t, []string{"ISO 898-1"}, res.MissingMandatory)
	assert.Equal(t, []string{"ISO 1461"}, res.MissingRecommended)
	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], "mandatory")
	assert.Contains(t, res.Warnings[1], "recommended")
}

func TestCheckMissingRecommendedOnlyStillCompliant(t *testing.T) {
	e := NewEngine(testDocument(), nil)

	res, err := e.Check(boltProduct("ISO 898-1"), "mining")
	require.NoError(t, err)

	assert.True(t, res.Compliant)
	assert.Equal(t, []string{"ISO 1461"}, res.MissingRecommended)
	require.Len(t, res.Warnings, 1)
}

func TestCheckIndustryCaseInsensitive(t *testing.T) {
	e := NewEngine(testDocument(), nil)

	res, err := e.Check(boltProduct("ISO 898-1"), "  Mining ")
	require.NoError(t, err)
	assert.Equal(t, "mining", res.Industry)
}

func TestCheckUnknownInputs(t *testing.T) {
	e := NewEngine(testDocument(), nil)

	_, err := e.Check(nil, "mining")
	assert.Error(t, err)

	_, err = e.Check(boltProduct(), "aerospace")
	assert.Error(t, err)
}

func TestCheckStandard(t *testing.T) {
	e := NewEngine(testDocument(), nil)

	s, err := e.CheckStandard("iso 898-1")
	require.NoError(t, err)
	assert.Equal(t, "ISO 898-1", s.Code)

	_, err = e.CheckStandard("ISO 9999")
	assert.Error(t, err)
}

func TestSuitableIndustriesRanking(t *testing.T) {
	e := NewEngine(testDocument(), nil)

	// Meets all mining mandatory standards and half of marine's.
	fits, err := e.SuitableIndustries(boltProduct("ISO 898-1", "ISO 1461"))
	require.NoError(t, err)
	require.Len(t, fits, 2)

	assert.Equal(t, "mining", fits[0].Industry)
	assert.True(t, fits[0].Compliant)
	assert.Equal(t, 1.0, fits[0].MandatoryMet)

	assert.Equal(t, "marine", fits[1].Industry)
	assert.False(t, fits[1].Compliant)
	assert.Equal(t, 0.5, fits[1].MandatoryMet)
}

func TestIndustries(t *testing.T) {
	e := NewEngine(testDocument(), nil)
	assert.Equal(t, []string{"marine", "mining"}, e.Industries())
}
