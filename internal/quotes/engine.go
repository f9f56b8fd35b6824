package quotes

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/capefasteners/supply-ai-platform/internal/products"
	"github.com/capefasteners/supply-ai-platform/pkg/logging"
)

// VATRate is the fixed South African VAT rate applied to every quote.
const VATRate = 0.15

// loyaltyDiscount is the flat account-holder discount, stacked
// multiplicatively after the bulk discount.
const loyaltyDiscount = 0.05

// leadTimeBuffer pads the delivery table's base days by 20%, rounded up.
const leadTimeBuffer = 1.2

// defaultTiers applies when a product declares no discount tiers of its
// own. Ordered by MinQuantity descending so the first met tier wins.
var defaultTiers = []products.DiscountTier{
	{MinQuantity: 1000, Discount: 0.20},
	{MinQuantity: 500, Discount: 0.15},
	{MinQuantity: 100, Discount: 0.10},
}

// deliveryRate is one row of the delivery cost table.
type deliveryRate struct {
	region   string
	baseCost float64
	perKg    float64
	baseDays int
}

// deliveryRates is matched by substring against the normalized location.
// Unmatched locations fall back to the conservative default rate.
var deliveryRates = []deliveryRate{
	{"gauteng", 150, 2.5, 2},
	{"kwazulu-natal", 250, 3.0, 3},
	{"western-cape", 200, 2.8, 3},
	{"eastern-cape", 300, 3.5, 4},
	{"free-state", 220, 3.0, 3},
	{"mpumalanga", 250, 3.2, 3},
	{"limpopo", 300, 3.5, 4},
	{"north-west", 250, 3.2, 3},
	{"northern-cape", 350, 4.0, 5},
}

var defaultDeliveryRate = deliveryRate{"other", 400, 4.5, 7}

// Delivery is the delivery line of a quote.
type Delivery struct {
	Location string  `json:"location"`
	Cost     float64 `json:"cost"`
	Days     int     `json:"days"`
}

// Quote prices one product line. All money fields are in rands, rounded to
// two decimals at the point of output only.
type Quote struct {
	ProductID       string   `json:"product_id"`
	ProductName     string   `json:"product_name"`
	SKU             string   `json:"sku"`
	Quantity        int      `json:"quantity"`
	UnitPrice       float64  `json:"unit_price"`
	Subtotal        float64  `json:"subtotal"`
	Tax             float64  `json:"tax"`
	Delivery        Delivery `json:"delivery"`
	Total           float64  `json:"total"`
	BulkDiscount    float64  `json:"bulk_discount"`
	LoyaltyDiscount float64  `json:"loyalty_discount"`
	Currency        string   `json:"currency"`
}

// Line is one entry of a multi-item quote request.
type Line struct {
	Product  *products.Product
	Quantity int
}

// LineQuote is the priced form of one multi-quote line.
type LineQuote struct {
	ProductID    string  `json:"product_id"`
	ProductName  string  `json:"product_name"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	Subtotal     float64 `json:"subtotal"`
	BulkDiscount float64 `json:"bulk_discount"`
}

// MultiQuote aggregates several lines: tax applies once on the aggregate
// and delivery is computed once against total estimated weight. One quote,
// one delivery destination.
type MultiQuote struct {
	Lines           []LineQuote `json:"lines"`
	Subtotal        float64     `json:"subtotal"`
	Tax             float64     `json:"tax"`
	Delivery        Delivery    `json:"delivery"`
	Total           float64     `json:"total"`
	LoyaltyDiscount float64     `json:"loyalty_discount"`
	Currency        string      `json:"currency"`
}

// Engine computes quotes. It carries no per-request state.
type Engine struct {
	logger *logging.Logger
}

// NewEngine creates a quote engine.
func NewEngine(logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{logger: logger}
}

// QuoteSingle prices quantity units of the product, delivered to location.
// An empty location omits the delivery line.
func (e *Engine) QuoteSingle(p *products.Product, quantity int, location string, loyal bool) (*Quote, error) {
	if p == nil {
		return nil, fmt.Errorf("quotes: product required")
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("quotes: quantity must be positive, got %d", quantity)
	}

	bulk := bulkDiscountFor(p, quantity)
	unit := p.Price * (1 - bulk)
	loyalty := 0.0
	if loyal {
		loyalty = loyaltyDiscount
		unit *= 1 - loyalty
	}

	subtotal := unit * float64(quantity)
	tax := subtotal * VATRate

	delivery := Delivery{}
	var deliveryCost float64
	if location != "" {
		rate, days := deliveryFor(location, p.UnitWeightKg*float64(quantity))
		deliveryCost = rate
		delivery = Delivery{Location: location, Cost: round2(rate), Days: days}
	}

	return &Quote{
		ProductID:       p.ID,
		ProductName:     p.Name,
		SKU:             p.SKU,
		Quantity:        quantity,
		UnitPrice:       round2(unit),
		Subtotal:        round2(subtotal),
		Tax:             round2(tax),
		Delivery:        delivery,
		Total:           round2(subtotal + tax + deliveryCost),
		BulkDiscount:    bulk,
		LoyaltyDiscount: loyalty,
		Currency:        "ZAR",
	}, nil
}

// QuoteMulti prices several lines as one quote: per-line bulk discounts,
// tax once on the aggregate, delivery once against total weight.
func (e *Engine) QuoteMulti(lines []Line, location string, loyal bool) (*MultiQuote, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("quotes: at least one line required")
	}

	loyalty := 0.0
	if loyal {
		loyalty = loyaltyDiscount
	}

	out := &MultiQuote{LoyaltyDiscount: loyalty, Currency: "ZAR"}
	var subtotal, totalWeight float64
	for _, line := range lines {
		if line.Product == nil {
			return nil, fmt.Errorf("quotes: line product required")
		}
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("quotes: line quantity must be positive, got %d", line.Quantity)
		}
		bulk := bulkDiscountFor(line.Product, line.Quantity)
		unit := line.Product.Price * (1 - bulk) * (1 - loyalty)
		lineSubtotal := unit * float64(line.Quantity)
		subtotal += lineSubtotal
		totalWeight += line.Product.UnitWeightKg * float64(line.Quantity)

		out.Lines = append(out.Lines, LineQuote{
			ProductID:    line.Product.ID,
			ProductName:  line.Product.Name,
			Quantity:     line.Quantity,
			UnitPrice:    round2(unit),
			Subtotal:     round2(lineSubtotal),
			BulkDiscount: bulk,
		})
	}

	tax := subtotal * VATRate
	var deliveryCost float64
	if location != "" {
		rate, days := deliveryFor(location, totalWeight)
		deliveryCost = rate
		out.Delivery = Delivery{Location: location, Cost: round2(rate), Days: days}
	}

	out.Subtotal = round2(subtotal)
	out.Tax = round2(tax)
	out.Total = round2(subtotal + tax + deliveryCost)
	return out, nil
}

// EstimateDelivery exposes the delivery table lookup on its own, for
// delivery-only inquiries.
func (e *Engine) EstimateDelivery(location string, weightKg float64) Delivery {
	cost, days := deliveryFor(location, weightKg)
	return Delivery{Location: location, Cost: round2(cost), Days: days}
}

// bulkDiscountFor returns the highest discount tier the quantity meets.
// Product tiers override the default table.
func bulkDiscountFor(p *products.Product, quantity int) float64 {
	tiers := p.DiscountTiers
	if len(tiers) == 0 {
		tiers = defaultTiers
	} else {
		tiers = append([]products.DiscountTier(nil), tiers...)
		sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].MinQuantity > tiers[j].MinQuantity })
	}
	for _, tier := range tiers {
		if quantity >= tier.MinQuantity {
			return tier.Discount
		}
	}
	return 0
}

// deliveryFor matches the normalized location against the rate table by
// substring, falling back to the conservative default.
func deliveryFor(location string, weightKg float64) (cost float64, days int) {
	normalized := strings.ToLower(strings.TrimSpace(location))
	rate := defaultDeliveryRate
	for _, r := range deliveryRates {
		if strings.Contains(normalized, r.region) {
			rate = r
			break
		}
	}
	cost = rate.baseCost + weightKg*rate.perKg
	days = int(math.Ceil(float64(rate.baseDays) * leadTimeBuffer))
	return cost, days
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
