package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xelth-com/pharmsearch/internal/ai"
	"github.com/xelth-com/pharmsearch/internal/config"
	"github.com/xelth-com/pharmsearch/internal/logger"
)

var errMissingField = errors.New("missing required field")

// Adapter is the query understanding layer over the completion service
type Adapter struct {
	completer ai.Completer
	cfg       config.SearchConfig
}

// NewAdapter creates an adapter. A nil completer makes every analysis the default.
func NewAdapter(completer ai.Completer, cfg config.SearchConfig) *Adapter {
	return &Adapter{completer: completer, cfg: cfg}
}

// Available reports whether analyses can come from the completion service
func (a *Adapter) Available() bool {
	return a != nil && a.completer != nil
}

// rawAnalysis mirrors ai.QueryAnalysisSchema. Required fields are pointers so
// an absent field can be told apart from an empty one.
type rawAnalysis struct {
	Keywords           *[]string        `json:"keywords"`
	Entities           *[]Entity        `json:"entities"`
	Intent             *string          `json:"intent"`
	AlternativeQueries []string         `json:"alternative_queries"`
	Filters            *Filters         `json:"filters"`
	HealthCondition    *HealthCondition `json:"health_condition"`
	Comment            string           `json:"comment"`
}

// Analyze classifies query. It never fails: network faults, timeouts,
// non-JSON output and missing required fields all yield Default(query).
func (a *Adapter) Analyze(ctx context.Context, query string) QueryAnalysis {
	if !a.Available() {
		return Default(query)
	}

	raw, err := a.completer.GenerateJSON(ctx, fmt.Sprintf(ai.QueryAnalysisPrompt, query), ai.QueryAnalysisSchema())
	if err != nil {
		logger.Warn(ctx, "⚠️ query analysis degraded", "query", query, "error", err)
		return Default(query)
	}

	analysis, err := parse(query, raw)
	if err != nil {
		logger.Warn(ctx, "⚠️ query analysis response rejected", "query", query, "error", err)
		return Default(query)
	}
	return analysis
}

func parse(query, raw string) (QueryAnalysis, error) {
	var r rawAnalysis
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return QueryAnalysis{}, fmt.Errorf("decode analysis: %w", err)
	}
	if r.Keywords == nil {
		return QueryAnalysis{}, fmt.Errorf("%w: keywords", errMissingField)
	}
	if r.Entities == nil {
		return QueryAnalysis{}, fmt.Errorf("%w: entities", errMissingField)
	}
	if r.Intent == nil {
		return QueryAnalysis{}, fmt.Errorf("%w: intent", errMissingField)
	}

	out := QueryAnalysis{
		Query:           query,
		Intent:          Intent(strings.TrimSpace(*r.Intent)),
		Filters:         r.Filters,
		HealthCondition: r.HealthCondition,
		Comment:         strings.TrimSpace(r.Comment),
		Keywords:        []string{},
		Entities:        []Entity{},
	}
	if !out.Intent.valid() {
		out.Intent = IntentGeneralSearch
	}

	for _, k := range *r.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			out.Keywords = append(out.Keywords, k)
		}
	}
	if len(out.Keywords) == 0 {
		out.Keywords = []string{strings.TrimSpace(query)}
	}

	for _, e := range *r.Entities {
		e.Value = strings.TrimSpace(e.Value)
		if !e.Type.valid() || e.Value == "" {
			continue
		}
		e.Confidence = clamp01(e.Confidence)
		out.Entities = append(out.Entities, e)
	}

	for _, q := range r.AlternativeQueries {
		if q = strings.TrimSpace(q); q != "" && !strings.EqualFold(q, strings.TrimSpace(query)) {
			out.AlternativeQueries = append(out.AlternativeQueries, q)
		}
	}
	return out, nil
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
