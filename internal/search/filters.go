package search

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xelth-com/pharmsearch/internal/analysis"
	"github.com/xelth-com/pharmsearch/internal/config"
)

// SortKey is an explicit ordering requested by the caller
type SortKey string

const (
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortName      SortKey = "name"
	SortNewest    SortKey = "newest"
	SortPopular   SortKey = "popular"
)

// Filters are the structured constraints a caller puts next to the query
type Filters struct {
	Category     string           `json:"category,omitempty"`
	Manufacturer string           `json:"manufacturer,omitempty"`
	Ingredient   string           `json:"ingredient,omitempty"`
	MinPrice     *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice     *decimal.Decimal `json:"max_price,omitempty"`
	Sort         SortKey          `json:"sort,omitempty"`
}

// Empty reports whether no filter constrains the result. A sort key alone
// is not a criterion.
func (f Filters) Empty() bool {
	return strings.TrimSpace(f.Category) == "" &&
		strings.TrimSpace(f.Manufacturer) == "" &&
		strings.TrimSpace(f.Ingredient) == "" &&
		f.MinPrice == nil && f.MaxPrice == nil
}

// OrderTerm is one ORDER BY expression with its arguments
type OrderTerm struct {
	Expr string
	Args []interface{}
	Desc bool
}

// Query is everything storage needs to count and fetch a result set.
// Count and page fetch always use the same Query.
type Query struct {
	Where Predicate
	Order []OrderTerm
}

// Composer merges filters, analysis output and a strategy predicate
type Composer struct {
	minConfidence float64
}

// NewComposer creates a composer using the entity confidence floor of cfg
func NewComposer(cfg config.SearchConfig) Composer {
	return Composer{minConfidence: cfg.EntityConfidenceMin}
}

// Compose ANDs, in order, the user filters, the filters derived from qa and
// the strategy predicate. qa may be nil.
func (c Composer) Compose(f Filters, qa *analysis.QueryAnalysis, strategy Predicate) Query {
	preds := UserPredicates(f)
	preds = append(preds, c.analysisPredicates(qa)...)
	preds = append(preds, strategy)
	return Query{Where: And(preds...), Order: Ordering(f.Sort, qa)}
}

// UserPredicates renders the caller's filters in their fixed order
func UserPredicates(f Filters) []Predicate {
	var preds []Predicate
	if v := strings.TrimSpace(f.Category); v != "" {
		preds = append(preds, Cond{Field: FieldCategory, Op: OpContains, Value: v})
	}
	if v := strings.TrimSpace(f.Manufacturer); v != "" {
		preds = append(preds, Cond{Field: FieldManufacturer, Op: OpEqualsFold, Value: v})
	}
	if v := strings.TrimSpace(f.Ingredient); v != "" {
		preds = append(preds, Cond{Field: FieldIngredient, Op: OpContains, Value: v})
	}
	if f.MinPrice != nil {
		preds = append(preds, Cond{Field: FieldPrice, Op: OpGTE, Value: *f.MinPrice})
	}
	if f.MaxPrice != nil {
		preds = append(preds, Cond{Field: FieldPrice, Op: OpLTE, Value: *f.MaxPrice})
	}
	return preds
}

// analysisPredicates turns confident entities and extracted filter values
// into the same kind of constraints the caller can set. Entities below the
// confidence floor are dropped silently.
func (c Composer) analysisPredicates(qa *analysis.QueryAnalysis) []Predicate {
	if qa == nil {
		return nil
	}

	var preds []Predicate
	for _, e := range qa.Entities {
		if e.Confidence < c.minConfidence {
			continue
		}
		switch e.Type {
		case analysis.EntityCompany:
			preds = append(preds, Cond{Field: FieldManufacturer, Op: OpEqualsFold, Value: e.Value})
		case analysis.EntityActiveIngredient:
			preds = append(preds, Cond{Field: FieldIngredient, Op: OpContains, Value: e.Value})
		case analysis.EntityCategory:
			preds = append(preds, Cond{Field: FieldCategory, Op: OpContains, Value: e.Value})
		}
	}

	if af := qa.Filters; af != nil {
		derived := Filters{
			Category:     af.Category,
			Manufacturer: af.Manufacturer,
			Ingredient:   af.Ingredient,
		}
		if af.MinPrice != nil {
			v := decimal.NewFromFloat(*af.MinPrice)
			derived.MinPrice = &v
		}
		if af.MaxPrice != nil {
			v := decimal.NewFromFloat(*af.MaxPrice)
			derived.MaxPrice = &v
		}
		preds = append(preds, UserPredicates(derived)...)
	}
	return preds
}

// Ordering picks the ORDER BY for a result set. An explicit sort key wins;
// otherwise the intent of qa decides. Every ordering ends on a unique column
// so pages never overlap.
func Ordering(sort SortKey, qa *analysis.QueryAnalysis) []OrderTerm {
	switch sort {
	case SortPriceAsc:
		return []OrderTerm{{Expr: "price"}, {Expr: "id", Desc: true}}
	case SortPriceDesc:
		return []OrderTerm{{Expr: "price", Desc: true}, {Expr: "id", Desc: true}}
	case SortName:
		return []OrderTerm{{Expr: "name"}, {Expr: "id"}}
	case SortNewest:
		return []OrderTerm{{Expr: "id", Desc: true}}
	case SortPopular:
		return []OrderTerm{{Expr: "visit_count", Desc: true}, {Expr: "id", Desc: true}}
	}

	intent := analysis.IntentGeneralSearch
	if qa != nil {
		intent = qa.Intent
	}
	switch intent {
	case analysis.IntentSpecificDrug:
		name := strings.TrimSpace(qa.Query)
		if e, ok := qa.BestEntity(analysis.EntityDrugName); ok {
			name = e.Value
		}
		return []OrderTerm{
			{Expr: "CASE WHEN LOWER(name) = ? THEN 0 ELSE 1 END", Args: []interface{}{strings.ToLower(name)}},
			{Expr: "id", Desc: true},
		}
	case analysis.IntentAlternative:
		return []OrderTerm{{Expr: "price"}, {Expr: "id", Desc: true}}
	case analysis.IntentSymptomSearch, analysis.IntentHealthConditionTreatment:
		return []OrderTerm{{Expr: "visit_count", Desc: true}, {Expr: "id", Desc: true}}
	}
	return []OrderTerm{{Expr: "visit_count", Desc: true}, {Expr: "id", Desc: true}}
}

// ParseSortKey accepts a known sort key, or returns "" for anything else
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortPriceAsc, SortPriceDesc, SortName, SortNewest, SortPopular:
		return k
	}
	return ""
}
