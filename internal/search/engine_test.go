package search_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xelth-com/pharmsearch/internal/ai/aitest"
	"github.com/xelth-com/pharmsearch/internal/analysis"
	"github.com/xelth-com/pharmsearch/internal/config"
	"github.com/xelth-com/pharmsearch/internal/database"
	"github.com/xelth-com/pharmsearch/internal/models"
	"github.com/xelth-com/pharmsearch/internal/repository"
	"github.com/xelth-com/pharmsearch/internal/search"
)

const (
	analysisKey = "analyze search queries"
	safetyKey   = "short, general safety"
)

func newCatalog(t *testing.T) (*repository.ProductRepository, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Wrap(db).Migrate())

	products := []models.Product{
		{ID: 1, Name: "Augmentin 500mg", Ingredient: "amoxicillin/clavulanate", Manufacturer: "GSK", Category: "Antibiotics", Price: decimal.NewFromInt(95), Units: 1},
		{ID: 2, Name: "Augmentin 1g", Ingredient: "amoxicillin/clavulanate", Manufacturer: "GSK", Category: "Antibiotics", Price: decimal.NewFromInt(140), Units: 1, VisitCount: 10},
		{ID: 3, Name: "Claritin", Ingredient: "loratadine", Manufacturer: "Bayer", Category: "Allergy", Price: decimal.NewFromInt(48), Units: 1},
		{ID: 4, Name: "Cefotab 500mg", Ingredient: "cefuroxime", Manufacturer: "Pharco", Category: "Antibiotics", Price: decimal.NewFromInt(70), Units: 1},
		{ID: 5, Name: "Panadol Extra", Ingredient: "paracetamol", Manufacturer: "GSK", Category: "Pain relief", Price: decimal.NewFromInt(30), Units: 1, Barcode: "6221"},
		{ID: 6, Name: "Tussivan", Ingredient: "dextromethorphan", Manufacturer: "Eva", Category: "Cough", Price: decimal.NewFromInt(25), Units: 1, Description: "Relieves dry cough"},
		{ID: 7, Name: "Bronchicum", Ingredient: "thyme extract", Manufacturer: "Sanofi", Category: "Cough", Price: decimal.NewFromInt(40), Units: 1},
		{ID: 8, Name: "Brufen 400", Ingredient: "ibuprofen", Manufacturer: "Abbott", Category: "Pain relief", Price: decimal.NewFromInt(35), Units: 1},
	}
	require.NoError(t, db.Create(&products).Error)
	require.NoError(t, db.Create(&models.ProductDetail{ProductID: 7, Indications: "Productive cough and bronchitis", Dosage: "10 ml three times daily"}).Error)

	return repository.NewProductRepository(db), db
}

func offlineConfig() config.SearchConfig {
	cfg := config.DefaultSearchConfig()
	cfg.AIEnabled = false
	return cfg
}

func names(page *search.SearchResultPage) []string {
	out := make([]string, 0, len(page.Products))
	for _, p := range page.Products {
		out = append(out, p.Name)
	}
	return out
}

func TestPrefixScenario(t *testing.T) {
	repo, _ := newCatalog(t)
	engine := search.NewEngine(repo, repo, nil, offlineConfig())

	page, err := engine.Resolve(context.Background(), search.Request{Query: "au", Strategy: search.StrategyPrefix})
	require.NoError(t, err)
	assert.Contains(t, names(page), "Augmentin 500mg")
	assert.NotContains(t, names(page), "Claritin")
	assert.Equal(t, search.TierDeterministic, page.Tier)
	assert.Equal(t, search.StrategyPrefix, page.Strategy)
	assert.Equal(t, search.OutcomeOK, page.Outcome)
}

func TestAnyPositionScenario(t *testing.T) {
	repo, _ := newCatalog(t)
	engine := search.NewEngine(repo, repo, nil, offlineConfig())

	page, err := engine.Resolve(context.Background(), search.Request{Query: "tab", Strategy: search.StrategyAny})
	require.NoError(t, err)
	assert.Contains(t, names(page), "Cefotab 500mg")
	assert.NotContains(t, names(page), "Panadol Extra")
}

func TestNumericCombinedScenario(t *testing.T) {
	repo, _ := newCatalog(t)
	engine := search.NewEngine(repo, repo, nil, offlineConfig())

	page, err := engine.Resolve(context.Background(), search.Request{Query: "50", Strategy: search.StrategyCombined})
	require.NoError(t, err)
	assert.Contains(t, names(page), "Claritin", "price 48 lies within 50±5")
	assert.NotContains(t, names(page), "Brufen 400")
}

func TestBarcodeLookup(t *testing.T) {
	repo, _ := newCatalog(t)
	engine := search.NewEngine(repo, repo, nil, offlineConfig())

	page, err := engine.Resolve(context.Background(), search.Request{Query: "6221", Strategy: search.StrategyPrefix})
	require.NoError(t, err)
	assert.Equal(t, []string{"Panadol Extra"}, names(page))
}

func TestDeterministicFallsThroughStrategies(t *testing.T) {
	repo, _ := newCatalog(t)
	engine := search.NewEngine(repo, repo, nil, offlineConfig())

	page, err := engine.Resolve(context.Background(), search.Request{Query: "mentin", Strategy: search.StrategyPrefix})
	require.NoError(t, err)
	assert.Equal(t, search.StrategyAny, page.Strategy)
	assert.ElementsMatch(t, []string{"Augmentin 500mg", "Augmentin 1g"}, names(page))

	none, err := engine.Resolve(context.Background(), search.Request{Query: "zzzz", Strategy: search.StrategyAny})
	require.NoError(t, err)
	assert.Equal(t, search.StrategyAny, none.Strategy)
	assert.Zero(t, none.Total)
	assert.Empty(t, none.Products)
}

func TestCountPageConsistency(t *testing.T) {
	repo, _ := newCatalog(t)
	engine := search.NewEngine(repo, repo, nil, offlineConfig())
	ctx := context.Background()

	queries := []search.Request{
		{Query: "a", Strategy: search.StrategyAny},
		{Query: "gsk", Strategy: search.StrategyCombined},
		{Query: "b", Strategy: search.StrategyPrefix},
		{Filters: search.Filters{Category: "antibiotics"}},
	}
	for _, req := range queries {
		t.Run(req.Query+string(req.Strategy), func(t *testing.T) {
			req.PageSize = 2
			first, err := engine.Resolve(ctx, req)
			require.NoError(t, err)
			require.Positive(t, first.Total)

			seen := map[int64]bool{}
			for page := 1; page <= first.PageCount; page++ {
				req.Page = page
				res, err := engine.Resolve(ctx, req)
				require.NoError(t, err)
				assert.Equal(t, first.Total, res.Total)
				for _, p := range res.Products {
					assert.False(t, seen[p.ID], "product %d on two pages", p.ID)
					seen[p.ID] = true
				}
			}
			assert.Equal(t, int(first.Total), len(seen))
		})
	}
}

func TestPaginationClamps(t *testing.T) {
	repo, _ := newCatalog(t)
	engine := search.NewEngine(repo, repo, nil, offlineConfig())
	ctx := context.Background()

	page, err := engine.Resolve(ctx, search.Request{Query: "a", Strategy: search.StrategyAny, Page: -3, PageSize: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 12, page.PageSize)

	page, err = engine.Resolve(ctx, search.Request{Query: "a", Strategy: search.StrategyAny, PageSize: 1000})
	require.NoError(t, err)
	assert.Equal(t, 100, page.PageSize)

	beyond, err := engine.Resolve(ctx, search.Request{Query: "a", Strategy: search.StrategyAny, Page: 50})
	require.NoError(t, err)
	assert.Empty(t, beyond.Products)
	assert.Positive(t, beyond.Total)
}

func TestNoCriteria(t *testing.T) {
	repo, _ := newCatalog(t)
	completer := &aitest.Completer{}
	cfg := config.DefaultSearchConfig()
	engine := search.NewEngine(repo, repo, completer, cfg)

	page, err := engine.Resolve(context.Background(), search.Request{Query: "   ", Filters: search.Filters{Sort: search.SortName}})
	require.NoError(t, err)
	assert.Equal(t, search.OutcomeNoCriteria, page.Outcome)
	assert.Empty(t, page.Products)
	assert.Zero(t, completer.Calls())
}

func TestFilterOnlyBrowsingSkipsAI(t *testing.T) {
	repo, _ := newCatalog(t)
	completer := &aitest.Completer{}
	engine := search.NewEngine(repo, repo, completer, config.DefaultSearchConfig())

	page, err := engine.Resolve(context.Background(), search.Request{Filters: search.Filters{Manufacturer: "gsk"}})
	require.NoError(t, err)
	assert.Equal(t, search.TierDeterministic, page.Tier)
	assert.Equal(t, int64(3), page.Total)
	assert.Zero(t, completer.Calls())
}

func TestFailingCompleterUsesDeterministicTier(t *testing.T) {
	repo, _ := newCatalog(t)
	engine := search.NewEngine(repo, repo, aitest.Failing(), config.DefaultSearchConfig())

	page, err := engine.Resolve(context.Background(), search.Request{Query: "augmentin", Strategy: search.StrategyPrefix})
	require.NoError(t, err)
	assert.Equal(t, search.TierDeterministic, page.Tier)
	require.NotNil(t, page.Analysis)
	assert.Equal(t, analysis.Default("augmentin"), *page.Analysis)
	assert.Len(t, page.Products, 2)
	assert.Empty(t, page.Narrative)
}

func TestAITier(t *testing.T) {
	repo, _ := newCatalog(t)
	completer := &aitest.Completer{JSON: map[string]string{
		analysisKey: `{
			"keywords": ["augmentin"],
			"entities": [{"type": "drug_name", "value": "Augmentin 500mg", "confidence": 0.9}],
			"intent": "specific_drug",
			"alternative_queries": ["cefotab"],
			"comment": "Antibiotics need a prescription."
		}`,
	}}
	engine := search.NewEngine(repo, repo, completer, config.DefaultSearchConfig())

	page, err := engine.Resolve(context.Background(), search.Request{Query: "augmentin", Strategy: search.StrategyPrefix})
	require.NoError(t, err)
	assert.Equal(t, search.TierAI, page.Tier)
	require.NotNil(t, page.Analysis)
	assert.False(t, page.Analysis.Fallback)
	assert.Equal(t, "Antibiotics need a prescription.", page.Advisory)
	assert.Empty(t, page.Narrative)

	// the suggested phrasing widens the match; the exact name ranks first
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, "Augmentin 500mg", page.Products[0].Name)
	assert.Contains(t, names(page), "Cefotab 500mg")
}

func TestAITierEntityFilters(t *testing.T) {
	repo, _ := newCatalog(t)
	completer := &aitest.Completer{JSON: map[string]string{
		analysisKey: `{
			"keywords": ["pain"],
			"entities": [
				{"type": "company", "value": "gsk", "confidence": 0.8},
				{"type": "category", "value": "antibiotics", "confidence": 0.1}
			],
			"intent": "general_search"
		}`,
	}}
	engine := search.NewEngine(repo, repo, completer, config.DefaultSearchConfig())

	page, err := engine.Resolve(context.Background(), search.Request{Query: "pain", Strategy: search.StrategyCombined})
	require.NoError(t, err)
	assert.Equal(t, search.TierAI, page.Tier)
	assert.Equal(t, []string{"Panadol Extra"}, names(page))
}

func TestConversationalHealthQuery(t *testing.T) {
	repo, _ := newCatalog(t)
	completer := &aitest.Completer{
		JSON: map[string]string{
			analysisKey: `{
				"keywords": ["cough"],
				"entities": [{"type": "symptom", "value": "cough", "confidence": 0.9}],
				"intent": "symptom_search",
				"comment": ""
			}`,
			safetyKey: `{"points": ["Drink fluids.", "Avoid smoke.", "See a doctor after a week.", "Extra point."]}`,
		},
		Text: "Tussivan and Bronchicum are listed for cough.",
	}
	engine := search.NewEngine(repo, repo, completer, config.DefaultSearchConfig())

	history := make([]search.Turn, 0, 8)
	for i := 1; i <= 8; i++ {
		history = append(history, search.Turn{Role: "user", Content: fmt.Sprintf("earlier message %c", 'a'+i-1)})
	}
	page, err := engine.ResolveConversational(context.Background(), search.Request{
		Query:   "what is good for a cough",
		History: history,
	})
	require.NoError(t, err)
	assert.Equal(t, search.TierAI, page.Tier)
	assert.ElementsMatch(t, []string{"Tussivan", "Bronchicum"}, names(page))
	assert.Equal(t, "Tussivan and Bronchicum are listed for cough.", page.Narrative)

	var doc string
	for _, p := range completer.Prompts {
		if strings.Contains(p, "## Query analysis") {
			doc = p
		}
	}
	require.NotEmpty(t, doc, "narrative prompt carries the context document")
	assert.Contains(t, doc, "## Health advisory")
	assert.Contains(t, doc, "See a doctor after a week.")
	assert.NotContains(t, doc, "Extra point.")
	assert.Contains(t, doc, "Productive cough and bronchitis")
	assert.Contains(t, doc, "earlier message h")
	assert.NotContains(t, doc, "earlier message b")
	assert.Less(t, strings.Index(doc, "## Health advisory"), strings.Index(doc, "## Matching products"))
}

func TestConversationalFallbackNarrative(t *testing.T) {
	repo, _ := newCatalog(t)
	engine := search.NewEngine(repo, repo, aitest.Failing(), config.DefaultSearchConfig())

	page, err := engine.ResolveConversational(context.Background(), search.Request{Query: "panadol"})
	require.NoError(t, err)
	assert.Equal(t, search.TierDeterministic, page.Tier)
	assert.Equal(t, search.FallbackNarrative, page.Narrative)
}

func TestNarrativeFailureAfterAnalysis(t *testing.T) {
	repo, _ := newCatalog(t)
	completer := &aitest.Completer{JSON: map[string]string{
		analysisKey: `{"keywords": ["panadol"], "entities": [], "intent": "general_search"}`,
	}}
	engine := search.NewEngine(repo, repo, completer, config.DefaultSearchConfig())

	page, err := engine.Resolve(context.Background(), search.Request{Query: "is panadol safe to take with my other tablets"})
	require.NoError(t, err)
	assert.Equal(t, search.TierAI, page.Tier)
	assert.Equal(t, search.FallbackNarrative, page.Narrative)
}

type brokenStore struct {
	*repository.ProductRepository
}

func (brokenStore) CountProducts(context.Context, search.Query) (int64, error) {
	return 0, errors.New("database is locked")
}

func TestMinimalTierOnStorageFailure(t *testing.T) {
	repo, _ := newCatalog(t)
	engine := search.NewEngine(brokenStore{repo}, repo, nil, offlineConfig())

	page, err := engine.Resolve(context.Background(), search.Request{Query: "augmentin"})
	require.NoError(t, err)
	assert.Equal(t, search.TierMinimal, page.Tier)
	assert.Empty(t, page.Products)
	assert.Zero(t, page.Total)
}

func TestCancelledContext(t *testing.T) {
	repo, _ := newCatalog(t)
	engine := search.NewEngine(repo, repo, &aitest.Completer{}, config.DefaultSearchConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	page, err := engine.Resolve(ctx, search.Request{Query: "augmentin"})
	assert.Nil(t, page)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSearchHitsRecorded(t *testing.T) {
	repo, db := newCatalog(t)
	engine := search.NewEngine(repo, repo, nil, offlineConfig())

	_, err := engine.Resolve(context.Background(), search.Request{Query: "claritin", Strategy: search.StrategyPrefix})
	require.NoError(t, err)

	var p models.Product
	require.NoError(t, db.First(&p, 3).Error)
	assert.Equal(t, int64(1), p.SearchCount)
}

func TestIsChatQuery(t *testing.T) {
	engine := search.NewEngine(nil, nil, nil, config.DefaultSearchConfig())
	assert.False(t, engine.IsChatQuery("augmentin 1g"))
	assert.True(t, engine.IsChatQuery("Tell me about augmentin"))
	assert.True(t, engine.IsChatQuery("augmentin tablets for kids under six"))
	assert.False(t, engine.IsChatQuery("augmentin tablets for kids today"))
}
