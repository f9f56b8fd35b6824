package products

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() []Product {
	return []Product{
		{
			ID: "prod-m12", SKU: "HEX-M12-50", Name: "Hex Bolt M12x50", CategorySlug: "hex-bolts",
			Price: 4.50, UnitWeightKg: 0.058,
			Specifications: map[string]string{SpecSize: "M12", SpecGrade: "8.8", SpecMaterial: "carbon steel", SpecCoating: "zinc plated"},
			Standards:      []string{"SANS 1700", "ISO 898-1"},
			InStock:        true, Active: true,
		},
		{
			ID: "prod-m12-hd", SKU: "HEX-M12-50-HDG", Name: "Hex Bolt M12x50 Galvanized", CategorySlug: "galvanized-fasteners",
			Price: 6.20, UnitWeightKg: 0.061,
			Specifications: map[string]string{SpecSize: "M12", SpecGrade: "8.8", SpecMaterial: "carbon steel", SpecCoating: "hot dip galvanized"},
			Standards:      []string{"SANS 1700", "ISO 1461"},
			InStock:        true, Active: true,
		},
		{
			ID: "prod-m16", SKU: "HEX-M16-60", Name: "Hex Bolt M16x60", CategorySlug: "hex-bolts",
			Price: 7.80, UnitWeightKg: 0.126,
			Specifications: map[string]string{SpecSize: "M16", SpecGrade: "8.8", SpecMaterial: "carbon steel"},
			Standards:      []string{"SANS 1700", "ISO 898-1"},
			Featured:       true, InStock: true, Active: true,
		},
		{
			ID: "prod-nut-m12", SKU: "NUT-M12", Name: "Hex Nut M12", CategorySlug: "nuts",
			Price: 1.20, UnitWeightKg: 0.015,
			Specifications: map[string]string{SpecSize: "M12", SpecGrade: "8", SpecMaterial: "carbon steel"},
			InStock:        true, Active: true,
		},
		{
			ID: "prod-washer-m12", SKU: "WAS-M12", Name: "Flat Washer M12", CategorySlug: "washers",
			Price: 0.45, UnitWeightKg: 0.006,
			Specifications: map[string]string{SpecSize: "M12", SpecMaterial: "carbon steel"},
			InStock:        false, Active: true,
		},
		{
			ID: "prod-retired", SKU: "HEX-M10-OLD", Name: "Hex Bolt M10 Legacy", CategorySlug: "hex-bolts",
			Price: 3.00, Active: false,
		},
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(context.Background(), NewStaticCatalog(testCatalog()), nil)
	require.NoError(t, err)
	return engine
}

func TestEngineSkipsInactiveProducts(t *testing.T) {
	engine := newTestEngine(t)

	assert.Equal(t, 5, engine.Count())
	_, ok := engine.Get("prod-retired")
	assert.False(t, ok)
	assert.Empty(t, engine.Search("legacy", "", "", 10))
}

func TestFindByCode(t *testing.T) {
	engine := newTestEngine(t)

	bySKU, ok := engine.FindByCode("HEX-M16-60")
	require.True(t, ok)
	assert.Equal(t, "prod-m16", bySKU.ID)

	bySize, ok := engine.FindByCode("m16")
	require.True(t, ok)
	assert.Equal(t, "prod-m16", bySize.ID)

	_, ok = engine.FindByCode("M99")
	assert.False(t, ok)
}

func TestSearchRanksExactNameFirst(t *testing.T) {
	engine := newTestEngine(t)

	results := engine.Search("hex bolt m16x60", "", "", 10)
	require.NotEmpty(t, results)
	assert.Equal(t, "prod-m16", results[0].Product.ID)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Score, results[i-1].Score)
	}
}

func TestSearchCategoryNarrowsCandidates(t *testing.T) {
	engine := newTestEngine(t)

	results := engine.Search("m12", "nuts", "", 10)
	require.Len(t, results, 1)
	assert.Equal(t, "prod-nut-m12", results[0].Product.ID)
}

func TestSearchProductCodeMatchesSKUAndSize(t *testing.T) {
	engine := newTestEngine(t)

	results := engine.Search("", "", "m12", 10)
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.Product.ID)
	}
	assert.Contains(t, ids, "prod-m12")
	assert.Contains(t, ids, "prod-nut-m12")
	assert.NotContains(t, ids, "prod-m16")
}

func TestSearchTruncatesToMaxResults(t *testing.T) {
	engine := newTestEngine(t)

	results := engine.Search("m12", "", "", 2)
	assert.Len(t, results, 2)
}

func TestSearchStockAndFeaturedBreakTies(t *testing.T) {
	engine := newTestEngine(t)

	// "carbon steel" matches the spec text of every steel product; the
	// out-of-stock washer must not outrank an in-stock equivalent.
	results := engine.Search("carbon steel", "", "", 10)
	require.NotEmpty(t, results)
	last := results[len(results)-1].Product
	assert.Equal(t, "prod-washer-m12", last.ID)
}

func TestSearchNoMatchReturnsEmpty(t *testing.T) {
	engine := newTestEngine(t)

	assert.Empty(t, engine.Search("xyzzy", "", "", 10))
}

func TestCheckCompatibility(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("matching size is compatible", func(t *testing.T) {
		result, err := engine.CheckCompatibility("prod-m12", "prod-nut-m12")
		require.NoError(t, err)
		assert.True(t, result.Compatible)
		// grade differs (8.8 vs 8) so a warning is still raised
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "grade differs")
	})

	t.Run("size mismatch is a hard fail", func(t *testing.T) {
		result, err := engine.CheckCompatibility("prod-m16", "prod-nut-m12")
		require.NoError(t, err)
		assert.False(t, result.Compatible)
		assert.Contains(t, result.Warnings[0], "size mismatch")
	})

	t.Run("unknown product errors", func(t *testing.T) {
		_, err := engine.CheckCompatibility("prod-m12", "missing")
		assert.ErrorIs(t, err, ErrProductNotFound)
	})
}

func TestRecommend(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("complementary picks adjacent categories in stock", func(t *testing.T) {
		out, err := engine.Recommend("prod-m12", RecommendComplementary, 5)
		require.NoError(t, err)
		require.Len(t, out, 1)
		// the washer is adjacent but out of stock, so only the nut remains
		assert.Equal(t, "prod-nut-m12", out[0].ID)
	})

	t.Run("alternative stays in category within price band", func(t *testing.T) {
		out, err := engine.Recommend("prod-m16", RecommendAlternative, 5)
		require.NoError(t, err)
		require.Len(t, out, 1)
		// 4.50 is within ±50% of 7.80
		assert.Equal(t, "prod-m12", out[0].ID)
	})

	t.Run("upgrade lists pricier in-category options cheapest first", func(t *testing.T) {
		out, err := engine.Recommend("prod-m12", RecommendUpgrade, 5)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "prod-m16", out[0].ID)
	})

	t.Run("unknown kind errors", func(t *testing.T) {
		_, err := engine.Recommend("prod-m12", RecommendationKind("bogus"), 5)
		assert.Error(t, err)
	})
}
