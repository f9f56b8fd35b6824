package compliance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/capefasteners/supply-ai-platform/internal/knowledge"
	"github.com/capefasteners/supply-ai-platform/internal/products"
	"github.com/capefasteners/supply-ai-platform/pkg/logging"
)

// Result is the outcome of checking a product against an industry's
// requirements. A product is compliant only when every mandatory standard
// is met; missing recommended standards produce warnings, not failures.
type Result struct {
	ProductID          string   `json:"product_id"`
	Industry           string   `json:"industry"`
	Compliant          bool     `json:"compliant"`
	MetStandards       []string `json:"met_standards"`
	MissingMandatory   []string `json:"missing_mandatory"`
	MissingRecommended []string `json:"missing_recommended"`
	Warnings           []string `json:"warnings"`
	Requirements       []string `json:"requirements"`
}

// IndustryFit ranks one industry for a product.
type IndustryFit struct {
	Industry     string  `json:"industry"`
	Compliant    bool    `json:"compliant"`
	MandatoryMet float64 `json:"mandatory_met"`
}

// Engine answers compliance questions from the standards registry.
type Engine struct {
	standards  map[string]knowledge.Standard
	industries map[string]knowledge.IndustryRequirements
	categories map[string][]string
	logger     *logging.Logger
}

// NewEngine builds an engine over the loaded compliance document. Standard
// codes are matched case-insensitively.
func NewEngine(doc knowledge.ComplianceDocument, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	e := &Engine{
		standards:  make(map[string]knowledge.Standard, len(doc.Standards)),
		industries: make(map[string]knowledge.IndustryRequirements, len(doc.Industries)),
		categories: make(map[string][]string, len(doc.CategoryStandards)),
		logger:     logger,
	}
	for _, s := range doc.Standards {
		e.standards[normalizeCode(s.Code)] = s
	}
	for _, ind := range doc.Industries {
		e.industries[strings.ToLower(ind.Industry)] = ind
	}
	for category, codes := range doc.CategoryStandards {
		e.categories[strings.ToLower(category)] = codes
	}
	return e
}

// Industries lists the known industry names, sorted.
func (e *Engine) Industries() []string {
	names := make([]string, 0, len(e.industries))
	for name := range e.industries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckStandard looks up a standard by code.
func (e *Engine) CheckStandard(code string) (knowledge.Standard, error) {
	s, ok := e.standards[normalizeCode(code)]
	if !ok {
		return knowledge.Standard{}, fmt.Errorf("compliance: unknown standard %q", code)
	}
	return s, nil
}

// Check partitions an industry's standards into met and missing for the
// product. The product's effective standards are its declared standards
// plus any inferred from its category.
func (e *Engine) Check(p *products.Product, industry string) (*Result, error) {
	if p == nil {
		return nil, fmt.Errorf("compliance: product required")
	}
	req, ok := e.industries[strings.ToLower(strings.TrimSpace(industry))]
	if !ok {
		return nil, fmt.Errorf("compliance: unknown industry %q", industry)
	}

	held := e.effectiveStandards(p)
	res := &Result{
		ProductID:    p.ID,
		Industry:     req.Industry,
		Requirements: req.Requirements,
	}
	for _, code := range req.Mandatory {
		if held[normalizeCode(code)] {
			res.MetStandards = append(res.MetStandards, code)
		} else {
			res.MissingMandatory = append(res.MissingMandatory, code)
		}
	}
	for _, code := range req.Recommended {
		if held[normalizeCode(code)] {
			res.MetStandards = append(res.MetStandards, code)
		} else {
			res.MissingRecommended = append(res.MissingRecommended, code)
		}
	}

	res.Compliant = len(res.MissingMandatory) == 0
	if n := len(res.MissingMandatory); n > 0 {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("Missing %d mandatory standard(s) for %s: %s",
				n, req.Industry, strings.Join(res.MissingMandatory, ", ")))
	}
	if n := len(res.MissingRecommended); n > 0 {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("Missing %d recommended standard(s): %s",
				n, strings.Join(res.MissingRecommended, ", ")))
	}
	return res, nil
}

// SuitableIndustries ranks every known industry for the product: fully
// compliant industries first, then by the share of mandatory standards met.
func (e *Engine) SuitableIndustries(p *products.Product) ([]IndustryFit, error) {
	if p == nil {
		return nil, fmt.Errorf("compliance: product required")
	}
	held := e.effectiveStandards(p)

	fits := make([]IndustryFit, 0, len(e.industries))
	for _, req := range e.industries {
		met := 0
		for _, code := range req.Mandatory {
			if held[normalizeCode(code)] {
				met++
			}
		}
		share := 1.0
		if len(req.Mandatory) > 0 {
			share = float64(met) / float64(len(req.Mandatory))
		}
		fits = append(fits, IndustryFit{
			Industry:     req.Industry,
			Compliant:    met == len(req.Mandatory),
			MandatoryMet: share,
		})
	}
	sort.SliceStable(fits, func(i, j int) bool {
		if fits[i].Compliant != fits[j].Compliant {
			return fits[i].Compliant
		}
		if fits[i].MandatoryMet != fits[j].MandatoryMet {
			return fits[i].MandatoryMet > fits[j].MandatoryMet
		}
		return fits[i].Industry < fits[j].Industry
	})
	return fits, nil
}

// effectiveStandards is the set of standards the product holds, declared
// plus category-inferred.
func (e *Engine) effectiveStandards(p *products.Product) map[string]bool {
	held := make(map[string]bool, len(p.Standards))
	for _, code := range p.Standards {
		held[normalizeCode(code)] = true
	}
	for _, code := range e.categories[strings.ToLower(p.CategorySlug)] {
		held[normalizeCode(code)] = true
	}
	return held
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.Join(strings.Fields(code), " "))
}
