package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/xelth-com/pharmsearch/internal/analysis"
	"github.com/xelth-com/pharmsearch/internal/logger"
)

// resolution carries what one request learned while moving through the tiers
type resolution struct {
	req            Request
	conversational bool
	analysis       *analysis.QueryAnalysis
}

// tierResult is either a page or the reason the tier stepped aside
type tierResult struct {
	page   *SearchResultPage
	reason string
}

type tierFunc func(ctx context.Context, st *resolution) tierResult

func success(page *SearchResultPage) tierResult { return tierResult{page: page} }

func degrade(format string, args ...interface{}) tierResult {
	return tierResult{reason: fmt.Sprintf(format, args...)}
}

// aiTier resolves with the query analysis: entity filters, alternative
// phrasings, intent ordering, and for treatment-seeking queries a search on
// the condition itself.
func (e *Engine) aiTier(ctx context.Context, st *resolution) tierResult {
	query := strings.TrimSpace(st.req.Query)
	switch {
	case !e.cfg.AIEnabled:
		return degrade("ai search disabled")
	case !e.adapter.Available():
		return degrade("completion service not configured")
	case query == "":
		return degrade("filter-only browsing")
	}

	qa := e.adapter.Analyze(ctx, st.req.Query)
	st.analysis = &qa
	if qa.Fallback {
		return degrade("query analysis unavailable")
	}

	health := e.adapter.IsHealthConditionQuery(qa)
	var q Query
	condition := ""
	if health {
		condition = analysis.ConditionName(qa)
		q = Query{
			Where: And(append(UserPredicates(st.req.Filters), ConditionPredicate(condition))...),
			Order: Ordering(st.req.Filters.Sort, &qa),
		}
	} else {
		pred, err := e.widenedPredicate(st.req.Strategy, st.req.Query, qa.AlternativeQueries)
		if err != nil {
			return degrade("build predicate: %v", err)
		}
		q = e.composer.Compose(st.req.Filters, &qa, pred)
	}

	page, err := e.fetch(ctx, st.req, q)
	if err != nil {
		return degrade("fetch: %v", err)
	}
	page.Analysis = &qa

	if st.conversational || e.IsChatQuery(query) {
		doc := e.conv.Build(ctx, ConversationInput{
			Analysis:  qa,
			Page:      page,
			History:   st.req.History,
			Health:    health,
			Condition: condition,
		})
		page.Narrative = e.conv.Narrate(ctx, doc, st.req.Query)
	} else {
		page.Advisory = qa.Comment
	}
	return success(page)
}

// widenedPredicate ORs the strategy predicate of the query with those of up
// to MaxAlternativeQueries suggested phrasings
func (e *Engine) widenedPredicate(s Strategy, query string, alternatives []string) (Predicate, error) {
	base, err := e.builders.Build(s, query)
	if err != nil {
		return nil, err
	}
	if len(alternatives) > e.cfg.MaxAlternativeQueries {
		alternatives = alternatives[:e.cfg.MaxAlternativeQueries]
	}
	if len(alternatives) == 0 {
		return base, nil
	}

	preds := []Predicate{base}
	for _, alt := range alternatives {
		p, err := e.builders.Build(s, alt)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return Or(preds...), nil
}

// ConditionPredicate matches products whose description, or whose stored
// indications or dosage, mention the condition
func ConditionPredicate(condition string) Predicate {
	pattern := ContainsPattern(condition)
	return Or(
		Cond{Field: FieldDescription, Op: OpContains, Value: condition},
		Raw{
			Expr: `id IN (SELECT product_id FROM product_details WHERE LOWER(indications) LIKE ? ESCAPE '\' OR LOWER(dosage) LIKE ? ESCAPE '\')`,
			Args: []interface{}{pattern, pattern},
		},
	)
}

// deterministicTier tries the caller's strategy and then every other one in
// fixed order. The first strategy with results wins; when none has any, the
// caller's strategy answers with its empty page.
func (e *Engine) deterministicTier(ctx context.Context, st *resolution) tierResult {
	order := []Strategy{st.req.Strategy}
	for _, s := range Strategies {
		if s != st.req.Strategy {
			order = append(order, s)
		}
	}

	var first *SearchResultPage
	for _, s := range order {
		if err := ctx.Err(); err != nil {
			return degrade("cancelled: %v", err)
		}
		pred, err := e.builders.Build(s, st.req.Query)
		if err != nil {
			return degrade("build predicate: %v", err)
		}
		page, err := e.fetch(ctx, st.req, e.composer.Compose(st.req.Filters, st.analysis, pred))
		if err != nil {
			return degrade("strategy %s: %v", s, err)
		}
		page.Strategy = s
		if first == nil {
			first = page
		}
		if page.Total > 0 {
			return success(e.finishDegraded(st, page))
		}
		// every strategy matches everything on an empty query
		if strings.TrimSpace(st.req.Query) == "" {
			break
		}
	}
	return success(e.finishDegraded(st, first))
}

// minimalTier searches the name anywhere with the caller's filters and the
// default ordering. It always answers; a storage failure yields an empty page.
func (e *Engine) minimalTier(ctx context.Context, st *resolution) tierResult {
	var name Predicate
	if q := strings.TrimSpace(st.req.Query); q != "" {
		name = Cond{Field: FieldName, Op: OpContains, Value: q}
	}
	q := Query{
		Where: And(append(UserPredicates(st.req.Filters), name)...),
		Order: Ordering(st.req.Filters.Sort, nil),
	}

	page, err := e.fetch(ctx, st.req, q)
	if err != nil {
		logger.Error(ctx, "❌ minimal search failed", "query", st.req.Query, "error", err)
		page = e.emptyPage(st.req, TierMinimal)
	}
	page.Strategy = StrategyAny
	return success(e.finishDegraded(st, page))
}

// finishDegraded attaches what the lower tiers can still say: the analysis if
// one was made and, in a conversation, the fixed fallback narrative
func (e *Engine) finishDegraded(st *resolution, page *SearchResultPage) *SearchResultPage {
	page.Analysis = st.analysis
	if st.conversational {
		page.Narrative = FallbackNarrative
	}
	return page
}
