package assistant

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/capefasteners/supply-ai-platform/internal/compliance"
	"github.com/capefasteners/supply-ai-platform/internal/observability/metrics"
	"github.com/capefasteners/supply-ai-platform/internal/products"
	"github.com/capefasteners/supply-ai-platform/internal/quotes"
	"github.com/capefasteners/supply-ai-platform/internal/response"
	"github.com/capefasteners/supply-ai-platform/internal/scoring"
	"github.com/capefasteners/supply-ai-platform/internal/session"
	"github.com/capefasteners/supply-ai-platform/pkg/logging"
)

const (
	searchResultLimit = 5

	// Placeholder delivery weight for delivery-only inquiries with no
	// product in play.
	defaultInquiryWeightKg = 10
)

// B-BBEE facts rendered into the certificate template.
const (
	beeLevel               = "2"
	procurementRecognition = "125%"
)

// intentEvents maps a classified intent to the scoring event it fires.
// Anything unmapped falls through to the generic message event.
var intentEvents = map[Intent]string{
	IntentProductSearch: "product_search",
	IntentPriceQuote:    "quote_request",
	IntentCompliance:    "compliance_check",
	IntentOrderStatus:   "order_inquiry",
	IntentDelivery:      "delivery_inquiry",
	IntentSpecification: "spec_inquiry",
	IntentBBBEE:         "bbbee_inquiry",
	IntentContact:       "contact_request",
}

const defaultEvent = "message_sent"

// SessionSummary is the caller-facing view of the resolved session.
type SessionSummary struct {
	ID          string `json:"id"`
	LeadScore   int    `json:"lead_score"`
	LeadTier    string `json:"lead_tier"`
	IsTemporary bool   `json:"is_temporary,omitempty"`
}

// Reply is the full outcome of one conversation turn.
type Reply struct {
	ResponseText   string              `json:"response_text"`
	QuickReplies   []string            `json:"quick_replies,omitempty"`
	Intent         string              `json:"intent"`
	Confidence     float64             `json:"confidence"`
	Entities       map[string][]string `json:"entities,omitempty"`
	SessionSummary SessionSummary      `json:"session"`
	LatencyMs      int64               `json:"latency_ms"`
}

// Orchestrator is the single entry point for a conversation turn: resolve
// session, classify, dispatch to a domain engine, generate the response,
// persist the turn, fire a scoring event, update metrics.
type Orchestrator struct {
	classifier *Classifier
	sessions   *session.Store
	scores     *scoring.Engine
	catalog    *products.Engine
	quoter     *quotes.Engine
	standards  *compliance.Engine
	responder  *response.Generator
	metrics    *metrics.AssistantMetrics
	logger     *logging.Logger
	clock      func() time.Time
}

// NewOrchestrator wires the turn pipeline. All engine dependencies are
// required; metrics may be nil.
func NewOrchestrator(
	classifier *Classifier,
	sessions *session.Store,
	scores *scoring.Engine,
	catalog *products.Engine,
	quoter *quotes.Engine,
	standards *compliance.Engine,
	responder *response.Generator,
	m *metrics.AssistantMetrics,
	logger *logging.Logger,
) *Orchestrator {
	if classifier == nil || sessions == nil || scores == nil || catalog == nil ||
		quoter == nil || standards == nil || responder == nil {
		panic("assistant: orchestrator requires all engine dependencies")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Orchestrator{
		classifier: classifier,
		sessions:   sessions,
		scores:     scores,
		catalog:    catalog,
		quoter:     quoter,
		standards:  standards,
		responder:  responder,
		metrics:    m,
		logger:     logger,
		clock:      time.Now,
	}
}

// Process handles one visitor turn. It never returns an error to the
// caller: any fault inside the pipeline is converted into the generic
// error response and counted.
func (o *Orchestrator) Process(ctx context.Context, input, visitorID, customerID string) (reply Reply) {
	start := o.clock()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("assistant: turn panicked", "visitor_id", visitorID, "panic", fmt.Sprintf("%v", r))
			o.metrics.ObserveError()
			errReply := o.responder.Generate("ERROR", nil, nil)
			reply = Reply{
				ResponseText: errReply.Text,
				QuickReplies: errReply.QuickReplies,
				Intent:       string(IntentUnknown),
				LatencyMs:    o.clock().Sub(start).Milliseconds(),
			}
		}
	}()

	sess, err := o.sessions.GetOrCreate(ctx, visitorID, customerID)
	if err != nil {
		// GetOrCreate degrades to an ephemeral session itself; an error here
		// means even that failed, which leaves nothing to converse against.
		panic(fmt.Sprintf("session resolution failed: %v", err))
	}

	convCtx := contextFrom(sess)
	result := o.classifier.Classify(input, convCtx)

	data := o.dispatch(ctx, result, sess)
	rendered := o.responder.Generate(string(result.Intent), data, contextData(sess))

	latency := o.clock().Sub(start)
	o.persistTurn(ctx, sess, input, result, rendered.Text, latency)
	o.trackEvent(ctx, sess, result.Intent)

	o.metrics.ObserveTurn(string(result.Intent), latency.Seconds())

	return Reply{
		ResponseText: rendered.Text,
		QuickReplies: rendered.QuickReplies,
		Intent:       string(result.Intent),
		Confidence:   result.Confidence,
		Entities:     entityMap(result.Entities),
		SessionSummary: SessionSummary{
			ID:          sess.ID,
			LeadScore:   sess.LeadScore,
			LeadTier:    sess.LeadTier,
			IsTemporary: sess.IsTemporary,
		},
		LatencyMs: latency.Milliseconds(),
	}
}

// dispatch routes the classified turn to its domain handler. Handlers
// return template data, never errors: failures become data flags the
// response generator knows how to render.
func (o *Orchestrator) dispatch(ctx context.Context, result Result, sess *session.Session) map[string]any {
	switch result.Intent {
	case IntentGreeting:
		return map[string]any{}
	case IntentProductSearch:
		return o.handleProductSearch(result)
	case IntentPriceQuote:
		return o.handlePriceQuote(result, sess)
	case IntentCompliance:
		return o.handleCompliance(result)
	case IntentOrderStatus:
		return o.handleOrderStatus(result)
	case IntentDelivery:
		return o.handleDelivery(result)
	case IntentSpecification:
		return o.handleSpecification(result)
	case IntentBBBEE:
		return map[string]any{
			"beeLevel":               beeLevel,
			"procurementRecognition": procurementRecognition,
			"subtype":                result.Params[ParamBBBEESubtype],
		}
	case IntentContact:
		return map[string]any{"channel": result.Params[ParamContactChannel]}
	default:
		return o.handleUnknown(result)
	}
}

func (o *Orchestrator) handleProductSearch(result Result) map[string]any {
	query := strings.Join(queryTerms(result), " ")
	hits := o.catalog.Search(query, result.Params[ParamCategory], result.Params[ParamProductCode], searchResultLimit)
	if len(hits) == 0 {
		return map[string]any{"notFound": true, "query": query}
	}
	data := map[string]any{
		"count":    len(hits),
		"products": hits,
	}
	if len(hits) == 1 {
		p := hits[0].Product
		stockNote := "It's in stock and ready to ship."
		if !p.InStock {
			stockNote = "It's currently on back-order."
		}
		data["productName"] = p.Name
		data["sku"] = p.SKU
		data["price"] = p.Price
		data["stockNote"] = stockNote
	}
	return data
}

func (o *Orchestrator) handlePriceQuote(result Result, sess *session.Session) map[string]any {
	p := o.resolveProduct(result)
	if p == nil {
		return map[string]any{"notFound": true}
	}

	quantity := 1
	if raw, ok := result.Params[ParamQuantity]; ok {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			quantity = parsed
		}
	}
	location := result.Params[ParamLocation]
	loyal := sess.CustomerID != ""

	quote, err := o.quoter.QuoteSingle(p, quantity, location, loyal)
	if err != nil {
		o.logger.Error("assistant: quote failed", "product_id", p.ID, "error", err)
		return map[string]any{"error": true}
	}

	displayLocation := quote.Delivery.Location
	if displayLocation == "" {
		displayLocation = "your region (to be confirmed)"
	}
	return map[string]any{
		"quantity":     quote.Quantity,
		"productName":  quote.ProductName,
		"unitPrice":    quote.UnitPrice,
		"subtotal":     quote.Subtotal,
		"discount":     quote.BulkDiscount,
		"tax":          quote.Tax,
		"location":     displayLocation,
		"deliveryCost": quote.Delivery.Cost,
		"deliveryDays": quote.Delivery.Days,
		"total":        quote.Total,
	}
}

func (o *Orchestrator) handleCompliance(result Result) map[string]any {
	p := o.resolveProduct(result)
	industry := result.Params[ParamIndustry]
	if p == nil || industry == "" {
		return map[string]any{"notFound": true}
	}

	res, err := o.standards.Check(p, industry)
	if err != nil {
		o.logger.Warn("assistant: compliance check failed", "product_id", p.ID, "industry", industry, "error", err)
		return map[string]any{"notFound": true}
	}

	data := map[string]any{
		"productName":  p.Name,
		"industry":     res.Industry,
		"metStandards": res.MetStandards,
	}
	if res.Compliant {
		data["compliant"] = true
	} else {
		data["non_compliant"] = true
		data["missingStandards"] = res.MissingMandatory
		data["warnings"] = strings.Join(res.Warnings, " ")
	}
	return data
}

// handleOrderStatus has no order backend behind it yet; it acknowledges
// known-looking references and hands the rest to sales.
// TODO: wire to the fulfilment system's order lookup once its API lands.
func (o *Orchestrator) handleOrderStatus(result Result) map[string]any {
	ref := result.Params[ParamOrderNumber]
	if ref == "" {
		return map[string]any{"notFound": true}
	}
	return map[string]any{
		"orderNumber": strings.ToUpper(ref),
		"status":      "being processed",
		"statusNote":  "Our dispatch team will email tracking details as soon as it ships.",
	}
}

func (o *Orchestrator) handleDelivery(result Result) map[string]any {
	location := result.Params[ParamLocation]
	if location == "" {
		location = "most of South Africa"
	}
	estimate := o.quoter.EstimateDelivery(location, defaultInquiryWeightKg)
	return map[string]any{
		"location":     location,
		"deliveryCost": estimate.Cost,
		"deliveryDays": estimate.Days,
	}
}

func (o *Orchestrator) handleSpecification(result Result) map[string]any {
	p := o.resolveProduct(result)
	if p == nil {
		return map[string]any{"notFound": true}
	}
	return map[string]any{
		"productName":    p.Name,
		"specifications": p.Specifications,
		"standards":      p.Standards,
	}
}

func (o *Orchestrator) handleUnknown(result Result) map[string]any {
	if len(result.Suggestions) == 0 {
		return map[string]any{}
	}
	labels := make([]string, 0, len(result.Suggestions))
	for _, s := range result.Suggestions {
		labels = append(labels, suggestionLabel(s.Intent))
	}
	return map[string]any{"suggestions": labels}
}

// resolveProduct finds the product a turn refers to: by extracted code
// first, then by searching the turn's salient terms.
func (o *Orchestrator) resolveProduct(result Result) *products.Product {
	if code, ok := result.Params[ParamProductCode]; ok {
		if p, found := o.catalog.FindByCode(code); found {
			return p
		}
	}
	terms := queryTerms(result)
	if len(terms) == 0 {
		return nil
	}
	hits := o.catalog.Search(strings.Join(terms, " "), result.Params[ParamCategory], "", 1)
	if len(hits) == 0 {
		return nil
	}
	return &hits[0].Product
}

// persistTurn appends both sides of the exchange and refreshes the derived
// context fields. Write failures are absorbed by the store.
func (o *Orchestrator) persistTurn(ctx context.Context, sess *session.Session, input string, result Result, responseText string, latency time.Duration) {
	now := o.clock()
	o.sessions.AddMessage(ctx, sess, &session.Message{
		SessionID:  sess.ID,
		Role:       session.RoleVisitor,
		Content:    input,
		Intent:     string(result.Intent),
		Confidence: result.Confidence,
		Entities:   entityMap(result.Entities),
		CreatedAt:  now,
	})
	o.sessions.AddMessage(ctx, sess, &session.Message{
		SessionID: sess.ID,
		Role:      session.RoleAssistant,
		Content:   responseText,
		LatencyMs: latency.Milliseconds(),
		CreatedAt: now,
	})

	patch := make(map[string]string)
	if code, ok := result.Params[ParamProductCode]; ok {
		patch[session.ContextLastProduct] = code
	}
	if loc, ok := result.Params[ParamLocation]; ok {
		patch[session.ContextLastLocation] = loc
	}
	patch[session.ContextRecentIntents] = appendRecentIntent(sess.Context[session.ContextRecentIntents], result.Intent)
	o.sessions.UpdateContext(ctx, sess, patch)
}

func (o *Orchestrator) trackEvent(ctx context.Context, sess *session.Session, intent Intent) {
	eventType, ok := intentEvents[intent]
	if !ok {
		eventType = defaultEvent
	}
	if _, err := o.scores.TrackEvent(ctx, sess, eventType, map[string]any{"intent": string(intent)}); err != nil {
		o.logger.Error("assistant: scoring event failed", "session_id", sess.ID, "event_type", eventType, "error", err)
		return
	}
	o.metrics.ObserveScoringEvent(eventType)
}

// contextFrom lifts the session's derived context fields into the
// classifier's view.
func contextFrom(sess *session.Session) Context {
	ctx := Context{
		LastProduct:  sess.Context[session.ContextLastProduct],
		LastLocation: sess.Context[session.ContextLastLocation],
	}
	if recent := sess.Context[session.ContextRecentIntents]; recent != "" {
		for _, name := range strings.Split(recent, ",") {
			ctx.RecentIntents = append(ctx.RecentIntents, Intent(name))
		}
	}
	return ctx
}

// contextData exposes context values to template interpolation.
func contextData(sess *session.Session) map[string]any {
	data := make(map[string]any, len(sess.Context))
	for k, v := range sess.Context {
		data[k] = v
	}
	return data
}

// queryTerms gathers the salient search terms of a turn: product codes,
// standard codes, and the category keyword.
func queryTerms(result Result) []string {
	var terms []string
	terms = append(terms, result.Entities.ProductCodes...)
	terms = append(terms, result.Entities.StandardCodes...)
	if cat := result.Params[ParamCategory]; cat != "" {
		terms = append(terms, strings.ReplaceAll(cat, "-", " "))
	}
	return terms
}

func entityMap(e Entities) map[string][]string {
	out := make(map[string][]string)
	if len(e.ProductCodes) > 0 {
		out["product_codes"] = e.ProductCodes
	}
	if len(e.Locations) > 0 {
		out["locations"] = e.Locations
	}
	if len(e.OrderRefs) > 0 {
		out["order_refs"] = e.OrderRefs
	}
	if len(e.StandardCodes) > 0 {
		out["standard_codes"] = e.StandardCodes
	}
	if len(e.Quantities) > 0 {
		vals := make([]string, 0, len(e.Quantities))
		for _, q := range e.Quantities {
			vals = append(vals, strconv.Itoa(q.Value)+" "+q.Unit)
		}
		out["quantities"] = vals
	}
	if len(e.Measurements) > 0 {
		vals := make([]string, 0, len(e.Measurements))
		for _, m := range e.Measurements {
			vals = append(vals, strconv.FormatFloat(m.Value, 'f', -1, 64)+m.Unit)
		}
		out["measurements"] = vals
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func appendRecentIntent(existing string, intent Intent) string {
	const limit = 5
	var names []string
	if existing != "" {
		names = strings.Split(existing, ",")
	}
	names = append(names, string(intent))
	if len(names) > limit {
		names = names[len(names)-limit:]
	}
	return strings.Join(names, ",")
}

func suggestionLabel(intent Intent) string {
	switch intent {
	case IntentProductSearch:
		return "search for a product"
	case IntentPriceQuote:
		return "get a price quote"
	case IntentCompliance:
		return "check compliance standards"
	case IntentOrderStatus:
		return "track an order"
	case IntentDelivery:
		return "ask about delivery"
	case IntentSpecification:
		return "look up specifications"
	case IntentBBBEE:
		return "B-BBEE information"
	case IntentContact:
		return "speak to our sales team"
	default:
		return strings.ToLower(strings.ReplaceAll(string(intent), "_", " "))
	}
}
