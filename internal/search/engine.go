// Package search resolves catalog queries into ranked, paginated product
// pages. Resolution runs through three tiers: an AI-augmented tier driven by
// the query analysis, a deterministic tier that tries every matching
// strategy, and a minimal name search that always answers.
package search

import (
	"context"
	"strings"

	"github.com/xelth-com/pharmsearch/internal/ai"
	"github.com/xelth-com/pharmsearch/internal/analysis"
	"github.com/xelth-com/pharmsearch/internal/config"
	"github.com/xelth-com/pharmsearch/internal/logger"
	"github.com/xelth-com/pharmsearch/internal/models"
)

// Tier names the resolution stage that produced a page
type Tier string

const (
	TierAI            Tier = "ai"
	TierDeterministic Tier = "deterministic"
	TierMinimal       Tier = "minimal"
)

// Outcome tells a caller whether the request carried any criteria
type Outcome string

const (
	OutcomeOK         Outcome = "ok"
	OutcomeNoCriteria Outcome = "no_criteria"
)

// Turn is one prior message of a conversation
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single resolution call
type Request struct {
	Query    string
	Strategy Strategy
	Filters  Filters
	Page     int
	PageSize int
	History  []Turn
}

// SearchResultPage is the answer to a Request
type SearchResultPage struct {
	Products  []models.Product `json:"products"`
	Total     int64            `json:"total"`
	Page      int              `json:"page"`
	PageSize  int              `json:"page_size"`
	PageCount int              `json:"page_count"`

	Query    string   `json:"query"`
	Strategy Strategy `json:"strategy"`
	Filters  Filters  `json:"filters"`

	Tier      Tier                    `json:"tier,omitempty"`
	Analysis  *analysis.QueryAnalysis `json:"analysis,omitempty"`
	Narrative string                  `json:"narrative,omitempty"`
	Advisory  string                  `json:"advisory,omitempty"`
	Outcome   Outcome                 `json:"outcome"`
}

// Engine is the search orchestrator. It holds no per-request state and is
// safe for concurrent use.
type Engine struct {
	store    Store
	counters Counters
	adapter  *analysis.Adapter
	builders Registry
	composer Composer
	conv     *ContextBuilder
	cfg      config.SearchConfig
}

// NewEngine wires an engine. counters and completer may be nil; without a
// completer the AI tier is always skipped.
func NewEngine(store Store, counters Counters, completer ai.Completer, cfg config.SearchConfig) *Engine {
	return &Engine{
		store:    store,
		counters: counters,
		adapter:  analysis.NewAdapter(completer, cfg),
		builders: NewRegistry(cfg),
		composer: NewComposer(cfg),
		conv:     NewContextBuilder(store, completer, cfg),
		cfg:      cfg,
	}
}

// Resolve answers a query with a ranked page. The only error is the
// cancellation of ctx; every other fault degrades to a lower tier.
func (e *Engine) Resolve(ctx context.Context, req Request) (*SearchResultPage, error) {
	return e.resolve(ctx, req, false)
}

// ResolveConversational is Resolve plus a narrative answer grounded in the
// results and the prior turns of the conversation
func (e *Engine) ResolveConversational(ctx context.Context, req Request) (*SearchResultPage, error) {
	return e.resolve(ctx, req, true)
}

// IsChatQuery reports whether a query reads as a conversational message:
// it contains a trigger phrase or has more words than the threshold
func (e *Engine) IsChatQuery(query string) bool {
	if analysis.ContainsPhrase(query, e.cfg.ChatTriggerPhrases) {
		return true
	}
	return len(strings.Fields(query)) > e.cfg.ChatWordThreshold
}

func (e *Engine) resolve(ctx context.Context, req Request, conversational bool) (*SearchResultPage, error) {
	req = e.normalize(req)

	if strings.TrimSpace(req.Query) == "" && req.Filters.Empty() {
		page := e.emptyPage(req, "")
		page.Outcome = OutcomeNoCriteria
		return page, nil
	}

	st := &resolution{req: req, conversational: conversational}
	tiers := []struct {
		tier Tier
		run  tierFunc
	}{
		{TierAI, e.aiTier},
		{TierDeterministic, e.deterministicTier},
		{TierMinimal, e.minimalTier},
	}

	for _, t := range tiers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := t.run(ctx, st)
		if res.page == nil {
			logger.Debug(ctx, "search tier degraded", "tier", t.tier, "query", req.Query, "reason", res.reason)
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.page.Tier = t.tier
		e.recordHits(ctx, res.page)
		return res.page, nil
	}

	// minimalTier never degrades; this only guards against a future tier list change
	return e.emptyPage(req, TierMinimal), nil
}

func (e *Engine) normalize(req Request) Request {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = e.cfg.DefaultPageSize
	}
	if req.PageSize > e.cfg.MaxPageSize {
		req.PageSize = e.cfg.MaxPageSize
	}
	if _, ok := e.builders[req.Strategy]; !ok {
		s, ok := ParseStrategy(string(req.Strategy))
		if !ok {
			s, ok = ParseStrategy(e.cfg.DefaultStrategy)
		}
		if !ok {
			s = StrategyPrefix
		}
		req.Strategy = s
	}
	return req
}

func (e *Engine) emptyPage(req Request, tier Tier) *SearchResultPage {
	return &SearchResultPage{
		Products: []models.Product{},
		Page:     req.Page,
		PageSize: req.PageSize,
		Query:    req.Query,
		Strategy: req.Strategy,
		Filters:  req.Filters,
		Tier:     tier,
		Outcome:  OutcomeOK,
	}
}

// fetch counts and loads one page of q. Count and page share the predicate.
func (e *Engine) fetch(ctx context.Context, req Request, q Query) (*SearchResultPage, error) {
	page := e.emptyPage(req, "")

	total, err := e.store.CountProducts(ctx, q)
	if err != nil {
		return nil, err
	}
	page.Total = total
	page.PageCount = int((total + int64(req.PageSize) - 1) / int64(req.PageSize))

	offset := (req.Page - 1) * req.PageSize
	if int64(offset) >= total {
		return page, nil
	}
	products, err := e.store.FindProducts(ctx, q, offset, req.PageSize)
	if err != nil {
		return nil, err
	}
	if products != nil {
		page.Products = products
	}
	return page, nil
}

func (e *Engine) recordHits(ctx context.Context, page *SearchResultPage) {
	if e.counters == nil || len(page.Products) == 0 {
		return
	}
	ids := make([]int64, 0, len(page.Products))
	for _, p := range page.Products {
		ids = append(ids, p.ID)
	}
	if err := e.counters.IncrementSearchHits(ctx, ids); err != nil {
		logger.Warn(ctx, "⚠️ failed to record search hits", "error", err)
	}
}
