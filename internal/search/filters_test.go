package search

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/pharmsearch/internal/analysis"
	"github.com/xelth-com/pharmsearch/internal/config"
)

func TestComposeOrder(t *testing.T) {
	min := decimal.NewFromInt(10)
	max := decimal.NewFromInt(50)
	f := Filters{Category: "Antibiotics", Manufacturer: "GSK", Ingredient: "amox", MinPrice: &min, MaxPrice: &max}

	qa := &analysis.QueryAnalysis{
		Query:  "augmentin",
		Intent: analysis.IntentGeneralSearch,
		Entities: []analysis.Entity{
			{Type: analysis.EntityCompany, Value: "Pfizer", Confidence: 0.3},
			{Type: analysis.EntityActiveIngredient, Value: "clavulanate", Confidence: 0.29},
			{Type: analysis.EntityCategory, Value: "Tablets", Confidence: 0.9},
			{Type: analysis.EntityDrugName, Value: "Augmentin", Confidence: 1},
		},
	}
	strategy := Cond{Field: FieldName, Op: OpPrefix, Value: []string{"augmentin"}}

	q := NewComposer(config.DefaultSearchConfig()).Compose(f, qa, strategy)
	g, ok := q.Where.(Group)
	require.True(t, ok)
	assert.False(t, g.Or)

	want := []Predicate{
		Cond{Field: FieldCategory, Op: OpContains, Value: "Antibiotics"},
		Cond{Field: FieldManufacturer, Op: OpEqualsFold, Value: "GSK"},
		Cond{Field: FieldIngredient, Op: OpContains, Value: "amox"},
		Cond{Field: FieldPrice, Op: OpGTE, Value: min},
		Cond{Field: FieldPrice, Op: OpLTE, Value: max},
		Cond{Field: FieldManufacturer, Op: OpEqualsFold, Value: "Pfizer"},
		Cond{Field: FieldCategory, Op: OpContains, Value: "Tablets"},
		strategy,
	}
	assert.Equal(t, want, g.Items)
}

func TestComposeAnalysisFilters(t *testing.T) {
	maxPrice := 30.0
	qa := &analysis.QueryAnalysis{
		Intent:  analysis.IntentGeneralSearch,
		Filters: &analysis.Filters{Ingredient: "ibuprofen", MaxPrice: &maxPrice},
	}
	q := NewComposer(config.DefaultSearchConfig()).Compose(Filters{}, qa, nil)
	cs := conds(q.Where)
	require.Len(t, cs, 2)
	assert.Equal(t, Cond{Field: FieldIngredient, Op: OpContains, Value: "ibuprofen"}, cs[0])
	assert.Equal(t, FieldPrice, cs[1].Field)
	assert.True(t, cs[1].Value.(decimal.Decimal).Equal(decimal.NewFromInt(30)))
}

func TestComposeNothing(t *testing.T) {
	q := NewComposer(config.DefaultSearchConfig()).Compose(Filters{}, nil, nil)
	assert.Nil(t, q.Where)
	assert.NotEmpty(t, q.Order)
}

func TestOrdering(t *testing.T) {
	exprs := func(terms []OrderTerm) []string {
		out := make([]string, 0, len(terms))
		for _, term := range terms {
			dir := " asc"
			if term.Desc {
				dir = " desc"
			}
			out = append(out, term.Expr+dir)
		}
		return out
	}

	specific := &analysis.QueryAnalysis{
		Query:    "augmentin",
		Intent:   analysis.IntentSpecificDrug,
		Entities: []analysis.Entity{{Type: analysis.EntityDrugName, Value: "Augmentin 1g", Confidence: 0.9}},
	}

	cases := []struct {
		name string
		sort SortKey
		qa   *analysis.QueryAnalysis
		want []string
	}{
		{"explicit sort wins", SortPriceDesc, specific, []string{"price desc", "id desc"}},
		{"name", SortName, nil, []string{"name asc", "id asc"}},
		{"newest", SortNewest, nil, []string{"id desc"}},
		{"popular", SortPopular, nil, []string{"visit_count desc", "id desc"}},
		{"specific drug", "", specific, []string{"CASE WHEN LOWER(name) = ? THEN 0 ELSE 1 END asc", "id desc"}},
		{"alternative", "", &analysis.QueryAnalysis{Intent: analysis.IntentAlternative}, []string{"price asc", "id desc"}},
		{"symptom", "", &analysis.QueryAnalysis{Intent: analysis.IntentSymptomSearch}, []string{"visit_count desc", "id desc"}},
		{"treatment", "", &analysis.QueryAnalysis{Intent: analysis.IntentHealthConditionTreatment}, []string{"visit_count desc", "id desc"}},
		{"default", "", nil, []string{"visit_count desc", "id desc"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, exprs(Ordering(tc.sort, tc.qa)))
		})
	}

	terms := Ordering("", specific)
	assert.Equal(t, []interface{}{"augmentin 1g"}, terms[0].Args)
}

func TestFiltersEmpty(t *testing.T) {
	assert.True(t, Filters{}.Empty())
	assert.True(t, Filters{Sort: SortName, Category: "  "}.Empty())
	min := decimal.Zero
	assert.False(t, Filters{MinPrice: &min}.Empty())
	assert.False(t, Filters{Manufacturer: "GSK"}.Empty())
}

func TestParseSortKey(t *testing.T) {
	assert.Equal(t, SortPriceAsc, ParseSortKey("PRICE_ASC"))
	assert.Equal(t, SortKey(""), ParseSortKey("cheapest"))
}
