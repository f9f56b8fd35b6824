package assistant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capefasteners/supply-ai-platform/internal/compliance"
	"github.com/capefasteners/supply-ai-platform/internal/knowledge"
	"github.com/capefasteners/supply-ai-platform/internal/products"
	"github.com/capefasteners/supply-ai-platform/internal/quotes"
	"github.com/capefasteners/supply-ai-platform/internal/response"
	"github.com/capefasteners/supply-ai-platform/internal/scoring"
	"github.com/capefasteners/supply-ai-platform/internal/session"
)

func testCatalog() []products.Product {
	return []products.Product{
		{
			ID: "prod-m12", SKU: "HEX-M12-50", Name: "Hex Bolt M12x50",
			CategorySlug: "hex-bolts", Price: 4.50, UnitWeightKg: 0.058,
			Specifications: map[string]string{
				products.SpecSize: "M12", products.SpecGrade: "8.8", products.SpecMaterial: "carbon steel",
			},
			Standards: []string{"SANS 1700", "ISO 898-1"},
			InStock:   true, Active: true,
		},
		{
			ID: "prod-m16", SKU: "HEX-M16-60", Name: "Hex Bolt M16x60",
			CategorySlug: "hex-bolts", Price: 7.80, UnitWeightKg: 0.126,
			Specifications: map[string]string{
				products.SpecSize: "M16", products.SpecGrade: "8.8", products.SpecMaterial: "carbon steel",
			},
			Standards: []string{"SANS 1700", "ISO 898-1"},
			InStock:   true, Active: true,
		},
	}
}

type orchestratorFixture struct {
	orch    *Orchestrator
	store   *session.Store
	events  *scoring.MemoryEventRepository
	repo    *session.MemoryRepository
	catalog *products.Engine
}

func newFixture(t *testing.T) *orchestratorFixture {
	t.Helper()
	ctx := context.Background()

	base, err := knowledge.Load("", nil)
	require.NoError(t, err)

	matcher, err := NewMatcher(base, nil)
	require.NoError(t, err)
	classifier := NewClassifier(matcher, nil)

	repo := session.NewMemoryRepository()
	store := session.NewStore(repo, session.NewMemoryCache(7*24*time.Hour, 100), 7*24*time.Hour, 10, nil)

	events := scoring.NewMemoryEventRepository()
	scores := scoring.NewEngine(store, events, nil, 30*time.Minute, nil)

	catalog, err := products.NewEngine(ctx, products.NewStaticCatalog(testCatalog()), nil)
	require.NoError(t, err)

	quoter := quotes.NewEngine(nil)
	standards := compliance.NewEngine(base.Compliance, nil)
	responder := response.NewGenerator(base.Templates, nil)

	orch := NewOrchestrator(classifier, store, scores, catalog, quoter, standards, responder, nil, nil)
	return &orchestratorFixture{orch: orch, store: store, events: events, repo: repo, catalog: catalog}
}

func TestProcessQuoteEndToEnd(t *testing.T) {
	f := newFixture(t)

	reply := f.orch.Process(context.Background(), "need 150 M12 bolts delivered to Durban", "visitor-1", "")

	assert.Equal(t, "PRICE_QUOTE", reply.Intent)
	assert.GreaterOrEqual(t, reply.Confidence, 0.6)
	assert.Contains(t, reply.Entities["product_codes"], "M12")
	assert.Contains(t, reply.Entities["locations"], "kwazulu-natal")
	assert.Contains(t, reply.Entities["quantities"], "150 units")

	// 150 units hit the 10% bulk tier; delivery priced at the
	// KwaZulu-Natal rate.
	assert.Contains(t, reply.ResponseText, "150 x Hex Bolt M12x50")
	assert.Contains(t, reply.ResponseText, "Discount: 10%")
	assert.Contains(t, reply.ResponseText, "kwazulu-natal")

	// A quote request scores 30 points.
	assert.Equal(t, 30, reply.SessionSummary.LeadScore)
	assert.Equal(t, "COOL", reply.SessionSummary.LeadTier)
	assert.False(t, reply.SessionSummary.IsTemporary)
}

func TestProcessUnknownInputSuggests(t *testing.T) {
	f := newFixture(t)

	reply := f.orch.Process(context.Background(), "asdkjhasd", "visitor-1", "")

	assert.Equal(t, "UNKNOWN", reply.Intent)
	assert.Equal(t, 0.0, reply.Confidence)
	assert.NotEmpty(t, reply.QuickReplies)
	assert.NotEmpty(t, reply.ResponseText)
}

func TestProcessGreeting(t *testing.T) {
	f := newFixture(t)

	reply := f.orch.Process(context.Background(), "hello there", "visitor-1", "")

	assert.Equal(t, "GREETING", reply.Intent)
	assert.Contains(t, reply.ResponseText, "Cape Fasteners")
	assert.NotEmpty(t, reply.QuickReplies)
}

func TestProcessProductSearch(t *testing.T) {
	f := newFixture(t)

	reply := f.orch.Process(context.Background(), "do you stock m16 bolts", "visitor-1", "")

	assert.Equal(t, "PRODUCT_SEARCH", reply.Intent)
	assert.Contains(t, reply.ResponseText, "Hex Bolt M16x60")
	assert.Equal(t, "Get a quote", reply.QuickReplies[0])
}

func TestProcessContextCarriesProductAcrossTurns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.orch.Process(ctx, "do you stock m16 bolts", "visitor-1", "")
	require.Equal(t, "PRODUCT_SEARCH", first.Intent)

	// No product named in the follow-up: the last referenced product
	// stands in.
	second := f.orch.Process(ctx, "how much for 200 delivered to johannesburg", "visitor-1", "")
	assert.Equal(t, "PRICE_QUOTE", second.Intent)
	assert.Contains(t, second.ResponseText, "Hex Bolt M16x60")
	assert.Contains(t, second.ResponseText, "gauteng")
	assert.Equal(t, first.SessionSummary.ID, second.SessionSummary.ID)
}

func TestProcessAppendsBothTurnMessages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reply := f.orch.Process(ctx, "hello", "visitor-1", "")

	messages, err := f.repo.RecentMessages(ctx, reply.SessionSummary.ID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, session.RoleAssistant, messages[0].Role)
	assert.Equal(t, session.RoleVisitor, messages[1].Role)
	assert.Equal(t, "hello", messages[1].Content)
	assert.Equal(t, "GREETING", messages[1].Intent)
}

func TestProcessFiresScoringEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reply := f.orch.Process(ctx, "is the m12 bolt certified for mining use", "visitor-1", "")
	require.Equal(t, "COMPLIANCE_CHECK", reply.Intent)

	recent, err := f.events.RecentBySession(ctx, reply.SessionSummary.ID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "compliance_check", recent[0].Type)
	assert.Equal(t, 15, recent[0].Points)
}

func TestProcessComplianceCheck(t *testing.T) {
	f := newFixture(t)

	reply := f.orch.Process(context.Background(), "is the m12 bolt certified for mining use", "visitor-1", "")

	assert.Equal(t, "COMPLIANCE_CHECK", reply.Intent)
	assert.Contains(t, reply.ResponseText, "Hex Bolt M12x50")
	assert.Contains(t, reply.ResponseText, "mining")
}

func TestProcessDeliveryInquiry(t *testing.T) {
	f := newFixture(t)

	reply := f.orch.Process(context.Background(), "do you deliver to cape town", "visitor-1", "")

	assert.Equal(t, "DELIVERY_INQUIRY", reply.Intent)
	assert.Contains(t, reply.ResponseText, "western-cape")
}

func TestProcessRecoversFromPipelineFault(t *testing.T) {
	f := newFixture(t)

	// Panic once mid-pipeline; the boundary must convert it into the
	// generic error response, never propagate it.
	calls := 0
	f.orch.clock = func() time.Time {
		calls++
		if calls == 2 {
			panic("pipeline fault")
		}
		return time.Now()
	}

	var reply Reply
	assert.NotPanics(t, func() {
		reply = f.orch.Process(context.Background(), "hello", "visitor-1", "")
	})
	assert.Equal(t, "UNKNOWN", reply.Intent)
	assert.Contains(t, reply.ResponseText, "something went wrong")
}
