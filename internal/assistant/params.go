package assistant

import (
	"strconv"
	"strings"
)

// Parameter keys shared with the domain engines and response generator.
const (
	ParamQuantity       = "quantity"
	ParamUnit           = "unit"
	ParamProductCode    = "product_code"
	ParamLocation       = "location"
	ParamOrderNumber    = "order_number"
	ParamStandard       = "standard"
	ParamCategory       = "category"
	ParamSpecCategory   = "spec_category"
	ParamIndustry       = "industry"
	ParamProjectType    = "project_type"
	ParamContactChannel = "contact_channel"
	ParamBBBEESubtype   = "bbbee_subtype"
)

// relevantParams declares, per intent, which generic entity-derived
// parameters apply. Entity types outside the declared set are still returned
// in the entity bag, just not lifted into parameters.
var relevantParams = map[Intent][]string{
	IntentPriceQuote:    {ParamQuantity, ParamUnit, ParamProductCode, ParamLocation, ParamCategory, ParamProjectType},
	IntentProductSearch: {ParamProductCode, ParamCategory, ParamStandard, ParamQuantity, ParamUnit},
	IntentCompliance:    {ParamProductCode, ParamStandard, ParamIndustry},
	IntentOrderStatus:   {ParamOrderNumber},
	IntentDelivery:      {ParamLocation, ParamQuantity, ParamUnit},
	IntentSpecification: {ParamProductCode, ParamSpecCategory},
	IntentBBBEE:         {ParamBBBEESubtype},
	IntentContact:       {ParamContactChannel},
}

type keywordRule struct {
	keyword string
	value   string
}

// ---------- keyword inference dictionaries ----------
// Ordered by specificity; the first hit wins.

var categoryRules = []keywordRule{
	{"structural", "structural-bolts"},
	{"stainless", "stainless-fasteners"},
	{"galvanized", "galvanized-fasteners"},
	{"anchor", "anchors"},
	{"nut", "nuts"},
	{"washer", "washers"},
	{"hex", "hex-bolts"},
	{"bolt", "hex-bolts"},
}

var specCategoryRules = []keywordRule{
	{"thread pitch", "dimensions"},
	{"dimension", "dimensions"},
	{"diameter", "dimensions"},
	{"length", "dimensions"},
	{"size", "dimensions"},
	{"stainless", "material"},
	{"material", "material"},
	{"steel", "material"},
	{"tensile", "performance"},
	{"torque", "performance"},
	{"load", "performance"},
	{"grade", "performance"},
	{"sans", "compliance"},
	{"iso", "compliance"},
	{"certified", "compliance"},
}

var industryRules = []keywordRule{
	{"mining", "mining"},
	{"mine", "mining"},
	{"underground", "mining"},
	{"construction", "construction"},
	{"building", "construction"},
	{"structural", "construction"},
	{"marine", "marine"},
	{"offshore", "marine"},
	{"ship", "marine"},
	{"harbour", "marine"},
	{"automotive", "automotive"},
	{"vehicle", "automotive"},
	{"car", "automotive"},
	{"manufacturing", "manufacturing"},
	{"factory", "manufacturing"},
	{"plant", "manufacturing"},
}

var projectTypeRules = []keywordRule{
	{"new build", "new-build"},
	{"greenfield", "new-build"},
	{"maintenance", "maintenance"},
	{"repair", "repair"},
	{"replace", "repair"},
	{"upgrade", "upgrade"},
	{"tender", "tender"},
}

var contactChannelRules = []keywordRule{
	{"whatsapp", "whatsapp"},
	{"call", "phone"},
	{"phone", "phone"},
	{"ring", "phone"},
	{"email", "email"},
	{"mail", "email"},
	{"visit", "branch"},
	{"branch", "branch"},
}

var bbbeeSubtypeRules = []keywordRule{
	{"certificate", "certificate"},
	{"scorecard", "scorecard"},
	{"procurement", "procurement"},
	{"supplier", "procurement"},
	{"level", "level"},
}

// buildParams constructs intent-specific parameters from entities, keyword
// dictionaries and finally conversational context for anything still unset.
func (c *Classifier) buildParams(intent Intent, text string, entities Entities, ctx Context) map[string]string {
	params := make(map[string]string)
	relevant := make(map[string]bool)
	for _, key := range relevantParams[intent] {
		relevant[key] = true
	}

	canonical, _ := c.matcher.Canonicalize(c.matcher.Normalize(text))

	if relevant[ParamQuantity] && len(entities.Quantities) > 0 {
		params[ParamQuantity] = strconv.Itoa(entities.Quantities[0].Value)
		params[ParamUnit] = entities.Quantities[0].Unit
	}
	if relevant[ParamProductCode] && len(entities.ProductCodes) > 0 {
		params[ParamProductCode] = entities.ProductCodes[0]
	}
	if relevant[ParamLocation] && len(entities.Locations) > 0 {
		params[ParamLocation] = entities.Locations[0]
	}
	if relevant[ParamOrderNumber] && len(entities.OrderRefs) > 0 {
		params[ParamOrderNumber] = entities.OrderRefs[0]
	}
	if relevant[ParamStandard] && len(entities.StandardCodes) > 0 {
		params[ParamStandard] = entities.StandardCodes[0]
	}

	if relevant[ParamCategory] {
		inferKeyword(params, ParamCategory, canonical, categoryRules)
	}
	if relevant[ParamSpecCategory] {
		inferKeyword(params, ParamSpecCategory, canonical, specCategoryRules)
	}
	if relevant[ParamIndustry] {
		inferKeyword(params, ParamIndustry, canonical, industryRules)
	}
	if relevant[ParamProjectType] {
		inferKeyword(params, ParamProjectType, canonical, projectTypeRules)
	}
	if relevant[ParamContactChannel] {
		inferKeyword(params, ParamContactChannel, canonical, contactChannelRules)
	}
	if relevant[ParamBBBEESubtype] {
		inferKeyword(params, ParamBBBEESubtype, canonical, bbbeeSubtypeRules)
	}

	// Context fallback: the last referenced product/location stands in when
	// the current turn left them unsaid.
	if relevant[ParamProductCode] && params[ParamProductCode] == "" && ctx.LastProduct != "" {
		params[ParamProductCode] = ctx.LastProduct
	}
	if relevant[ParamLocation] && params[ParamLocation] == "" && ctx.LastLocation != "" {
		params[ParamLocation] = ctx.LastLocation
	}

	for key, value := range params {
		if value == "" {
			delete(params, key)
		}
	}
	return params
}

func inferKeyword(params map[string]string, key, canonical string, rules []keywordRule) {
	if params[key] != "" {
		return
	}
	for _, rule := range rules {
		if strings.Contains(rule.keyword, " ") {
			if strings.Contains(canonical, rule.keyword) {
				params[key] = rule.value
				return
			}
			continue
		}
		if containsWord(canonical, rule.keyword) {
			params[key] = rule.value
			return
		}
	}
}
