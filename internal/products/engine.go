package products

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/capefasteners/supply-ai-platform/pkg/logging"
)

// Engine answers product searches, compatibility checks and
// recommendations over an in-memory copy of the catalog. The catalog and
// its inverted index are built once at startup; the engine is stateless per
// request and safe for concurrent use.
type Engine struct {
	products []Product
	byID     map[string]int
	index    map[string][]string // term -> product ids
	logger   *logging.Logger
}

// NewEngine loads the active catalog and builds the search index. A load
// failure is fatal to initialization.
func NewEngine(ctx context.Context, repo Repository, logger *logging.Logger) (*Engine, error) {
	if repo == nil {
		panic("products: repository cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	catalog, err := repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("products: load catalog: %w", err)
	}

	e := &Engine{
		products: catalog,
		byID:     make(map[string]int, len(catalog)),
		index:    make(map[string][]string),
		logger:   logger,
	}
	for i, p := range catalog {
		e.byID[p.ID] = i
		e.indexProduct(p)
	}
	logger.Info("product index built", "products", len(catalog), "terms", len(e.index))
	return e, nil
}

// indexProduct adds a product's name tokens, SKU, category slug and key
// specification fields to the inverted index.
func (e *Engine) indexProduct(p Product) {
	add := func(term string) {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			return
		}
		e.index[term] = append(e.index[term], p.ID)
	}

	for _, tok := range strings.Fields(strings.ToLower(p.Name)) {
		add(tok)
	}
	add(p.SKU)
	add(p.CategorySlug)
	for _, key := range []string{SpecSize, SpecGrade, SpecMaterial, SpecCoating} {
		add(p.Specifications[key])
	}
}

// IndexSize reports the number of distinct index terms, for health checks.
func (e *Engine) IndexSize() int {
	return len(e.index)
}

// Count reports the number of loaded products.
func (e *Engine) Count() int {
	return len(e.products)
}

// Get returns a product by id.
func (e *Engine) Get(id string) (*Product, bool) {
	i, ok := e.byID[id]
	if !ok {
		return nil, false
	}
	return &e.products[i], true
}

// FindByCode resolves a product code (SKU or size designation such as M12)
// through the index.
func (e *Engine) FindByCode(code string) (*Product, bool) {
	for _, id := range e.index[strings.ToLower(strings.TrimSpace(code))] {
		if p, ok := e.Get(id); ok {
			return p, true
		}
	}
	return nil, false
}

// Search ranks active products against the query. category narrows the
// candidate set; productCode scores against SKU and size specifications.
// Results with zero score are dropped; the remainder is sorted by score
// descending and truncated to maxResults.
func (e *Engine) Search(query, category, productCode string, maxResults int) []SearchResult {
	if maxResults <= 0 {
		maxResults = 10
	}
	query = strings.ToLower(strings.TrimSpace(query))
	productCode = strings.ToLower(strings.TrimSpace(productCode))
	queryWords := strings.Fields(query)

	var results []SearchResult
	for _, p := range e.products {
		if category != "" && p.CategorySlug != category {
			continue
		}
		score := e.scoreProduct(p, query, queryWords, productCode)
		if score <= 0 {
			continue
		}
		results = append(results, SearchResult{Product: p, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

func (e *Engine) scoreProduct(p Product, query string, queryWords []string, productCode string) float64 {
	name := strings.ToLower(p.Name)
	sku := strings.ToLower(p.SKU)
	size := strings.ToLower(p.Specifications[SpecSize])

	var score float64

	switch {
	case query == "":
		// code-only searches rely on the SKU/spec components below
	case name == query:
		score += 1.0
	case strings.Contains(name, query):
		score += 0.7 + 0.3*float64(len(query))/float64(len(name))
	}

	if productCode != "" {
		if sku == productCode || strings.Contains(sku, productCode) {
			score += 0.9
		} else if size == productCode {
			score += 0.9
		}
	}
	if query != "" && sku == query {
		score += 0.9
	}

	if len(queryWords) > 0 {
		overlap := 0.0
		haystack := name + " " + p.CategorySlug + " " + specText(p)
		for _, w := range queryWords {
			if strings.Contains(haystack, w) {
				overlap += 0.3
			}
		}
		if overlap > 0.6 {
			overlap = 0.6
		}
		score += overlap
	}

	if query != "" {
		score += 0.2 * bigramOverlap(query, name)
	}

	if score > 0 {
		if p.Featured {
			score += 0.05
		}
		if p.InStock {
			score += 0.05
		}
	}
	return score
}

func specText(p Product) string {
	var parts []string
	for _, key := range []string{SpecSize, SpecGrade, SpecMaterial, SpecCoating} {
		if v := p.Specifications[key]; v != "" {
			parts = append(parts, strings.ToLower(v))
		}
	}
	return strings.Join(parts, " ")
}

// bigramOverlap is a cheap character-level fuzzy match in [0,1]: the share
// of the query's character bigrams present in the candidate text.
func bigramOverlap(query, text string) float64 {
	if len(query) < 2 || len(text) < 2 {
		return 0
	}
	seen := make(map[string]struct{})
	for i := 0; i+2 <= len(text); i++ {
		seen[text[i:i+2]] = struct{}{}
	}
	total, hits := 0, 0
	for i := 0; i+2 <= len(query); i++ {
		total++
		if _, ok := seen[query[i:i+2]]; ok {
			hits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
