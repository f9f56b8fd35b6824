package assistant

import (
	"regexp"
	"strconv"
	"strings"
)

// ---------- package-level compiled extractors ----------

var (
	quantityRE    = regexp.MustCompile(`(?:^| )(\d{1,7})(?: *(units?|pcs?|pieces?|box(?:es)?|packs?|lengths?))?\b`)
	productCodeRE = regexp.MustCompile(`\bm(\d{1,3})(?:x\d{1,4})?\b`)
	skuRE         = regexp.MustCompile(`\b[a-z]{2,3}-m?\d{1,4}(?:-\d{1,4})?\b`)
	orderRefRE    = regexp.MustCompile(`\b(ord|qte|inv)-?(\d{3,8})\b`)
	orderWordRE   = regexp.MustCompile(`\border (?:number |no\.? |# ?)?(\d{3,8})\b`)
	measurementRE = regexp.MustCompile(`\b(\d+(?:\.\d+)?) ?(mm|cm|kg|g|tonnes?|tons?|metres?|meters?)\b`)
	standardRE    = regexp.MustCompile(`\b(sans|iso|astm|en|din|iatf|dnv)[ -]?(\d{2,5})(?:[-.](\d{1,2}))?\b`)
)

// ExtractEntities runs every typed extractor over the canonicalized text.
// Extraction is independent of intent matching and always returns a bag with
// every type present, possibly empty.
func (m *Matcher) ExtractEntities(text string) Entities {
	normalized := m.Normalize(text)
	canonical, _ := m.Canonicalize(normalized)

	entities := Entities{
		Quantities:    []Quantity{},
		ProductCodes:  []string{},
		OrderRefs:     []string{},
		Locations:     []string{},
		Measurements:  []Measurement{},
		StandardCodes: []string{},
	}

	// Spans already claimed by more specific extractors; bare numbers inside
	// them must not be re-read as quantities.
	var claimed [][2]int
	claim := func(spans [][]int) {
		for _, s := range spans {
			claimed = append(claimed, [2]int{s[0], s[1]})
		}
	}

	claim(standardRE.FindAllStringIndex(canonical, -1))
	claim(measurementRE.FindAllStringIndex(canonical, -1))
	claim(orderRefRE.FindAllStringIndex(canonical, -1))
	claim(orderWordRE.FindAllStringIndex(canonical, -1))
	claim(skuRE.FindAllStringIndex(canonical, -1))
	claim(productCodeRE.FindAllStringIndex(canonical, -1))

	for _, match := range standardRE.FindAllStringSubmatch(canonical, -1) {
		code := strings.ToUpper(match[1]) + " " + match[2]
		if match[3] != "" {
			code += "-" + match[3]
		}
		entities.StandardCodes = appendUnique(entities.StandardCodes, code)
	}

	for _, match := range measurementRE.FindAllStringSubmatch(canonical, -1) {
		value, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		entities.Measurements = append(entities.Measurements, Measurement{Value: value, Unit: match[2]})
	}

	for _, match := range orderRefRE.FindAllStringSubmatch(canonical, -1) {
		entities.OrderRefs = appendUnique(entities.OrderRefs, strings.ToUpper(match[1])+"-"+match[2])
	}
	for _, match := range orderWordRE.FindAllStringSubmatch(canonical, -1) {
		entities.OrderRefs = appendUnique(entities.OrderRefs, "ORD-"+match[1])
	}

	for _, code := range skuRE.FindAllString(canonical, -1) {
		entities.ProductCodes = appendUnique(entities.ProductCodes, strings.ToUpper(code))
	}
	for _, code := range productCodeRE.FindAllString(canonical, -1) {
		entities.ProductCodes = appendUnique(entities.ProductCodes, strings.ToUpper(code))
	}

	for _, idx := range quantityRE.FindAllStringSubmatchIndex(canonical, -1) {
		numStart, numEnd := idx[2], idx[3]
		if overlaps(claimed, numStart, numEnd) {
			continue
		}
		value, err := strconv.Atoi(canonical[numStart:numEnd])
		if err != nil || value <= 0 {
			continue
		}
		unit := "units"
		if idx[4] >= 0 {
			unit = singularizeUnit(canonical[idx[4]:idx[5]])
		}
		entities.Quantities = append(entities.Quantities, Quantity{Value: value, Unit: unit})
	}

	entities.Locations = m.extractLocations(canonical)
	return entities
}

// extractLocations canonicalizes place names through the location table.
// Both canonical region names and their city/abbreviation variants count.
func (m *Matcher) extractLocations(canonical string) []string {
	out := []string{}
	for _, entry := range m.locations {
		region := strings.ToLower(entry.Canonical)
		if containsWord(canonical, region) {
			out = appendUnique(out, region)
			continue
		}
		for _, variant := range entry.Variants {
			if containsWord(canonical, strings.ToLower(variant)) {
				out = appendUnique(out, region)
				break
			}
		}
	}
	return out
}

func overlaps(claimed [][2]int, start, end int) bool {
	for _, span := range claimed {
		if start < span[1] && end > span[0] {
			return true
		}
	}
	return false
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}

func singularizeUnit(unit string) string {
	switch unit {
	case "unit", "units":
		return "units"
	case "pc", "pcs":
		return "pieces"
	case "piece", "pieces":
		return "pieces"
	case "box", "boxes":
		return "boxes"
	case "pack", "packs":
		return "packs"
	case "length", "lengths":
		return "lengths"
	default:
		return unit
	}
}
