package products

import (
	"fmt"
	"sort"
)

// categoryAdjacency lists, per category, the categories whose products
// complement it.
var categoryAdjacency = map[string][]string{
	"hex-bolts":            {"nuts", "washers"},
	"structural-bolts":     {"nuts", "washers"},
	"stainless-fasteners":  {"nuts", "washers"},
	"galvanized-fasteners": {"nuts", "washers"},
	"anchors":              {"washers"},
	"nuts":                 {"hex-bolts", "washers"},
	"washers":              {"hex-bolts", "nuts"},
}

// alternativePriceBand bounds alternative recommendations to ±50% of the
// source product's price.
const alternativePriceBand = 0.5

// CheckCompatibility compares the size, grade and material specifications
// of two products. A size mismatch makes the pair incompatible; grade and
// material mismatches are reported as warnings only.
func (e *Engine) CheckCompatibility(idA, idB string) (CompatibilityResult, error) {
	a, ok := e.Get(idA)
	if !ok {
		return CompatibilityResult{}, fmt.Errorf("products: %w: %s", ErrProductNotFound, idA)
	}
	b, ok := e.Get(idB)
	if !ok {
		return CompatibilityResult{}, fmt.Errorf("products: %w: %s", ErrProductNotFound, idB)
	}

	result := CompatibilityResult{Compatible: true}

	if sa, sb := a.Specifications[SpecSize], b.Specifications[SpecSize]; sa != "" && sb != "" && sa != sb {
		result.Compatible = false
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("size mismatch: %s is %s, %s is %s", a.Name, sa, b.Name, sb))
	}
	for _, key := range []string{SpecGrade, SpecMaterial} {
		if va, vb := a.Specifications[key], b.Specifications[key]; va != "" && vb != "" && va != vb {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s differs: %s vs %s", key, va, vb))
		}
	}
	return result, nil
}

// Recommend suggests products related to the given one. Complementary
// picks from adjacent categories, alternative stays in-category within a
// price band, and upgrade lists strictly pricier in-category options from
// cheapest up.
func (e *Engine) Recommend(id string, kind RecommendationKind, limit int) ([]Product, error) {
	source, ok := e.Get(id)
	if !ok {
		return nil, fmt.Errorf("products: %w: %s", ErrProductNotFound, id)
	}
	if limit <= 0 {
		limit = 5
	}

	var out []Product
	switch kind {
	case RecommendComplementary:
		adjacent := categoryAdjacency[source.CategorySlug]
		for _, p := range e.products {
			if p.ID == source.ID || !p.InStock {
				continue
			}
			for _, cat := range adjacent {
				if p.CategorySlug == cat {
					out = append(out, p)
					break
				}
			}
		}
	case RecommendAlternative:
		low := source.Price * (1 - alternativePriceBand)
		high := source.Price * (1 + alternativePriceBand)
		for _, p := range e.products {
			if p.ID == source.ID || p.CategorySlug != source.CategorySlug {
				continue
			}
			if p.Price >= low && p.Price <= high {
				out = append(out, p)
			}
		}
	case RecommendUpgrade:
		for _, p := range e.products {
			if p.ID == source.ID || p.CategorySlug != source.CategorySlug {
				continue
			}
			if p.Price > source.Price {
				out = append(out, p)
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	default:
		return nil, fmt.Errorf("products: unknown recommendation kind %q", kind)
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
