package search

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xelth-com/pharmsearch/internal/config"
	"github.com/xelth-com/pharmsearch/internal/phonetic"
)

// Strategy names a way of matching the raw query against products
type Strategy string

const (
	StrategyPrefix   Strategy = "prefix"
	StrategyAny      Strategy = "any"
	StrategyPhonetic Strategy = "phonetic"
	StrategyCombined Strategy = "combined"
)

// Strategies lists every strategy in the order the deterministic tier falls
// back through them
var Strategies = []Strategy{StrategyPrefix, StrategyAny, StrategyPhonetic, StrategyCombined}

// ParseStrategy accepts a strategy name, case-insensitively
func ParseStrategy(s string) (Strategy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prefix":
		return StrategyPrefix, true
	case "any", "any-position", "any_position":
		return StrategyAny, true
	case "phonetic":
		return StrategyPhonetic, true
	case "combined":
		return StrategyCombined, true
	}
	return "", false
}

// Builder turns a raw query into a predicate tree. Builders never touch
// storage. An empty query yields a nil predicate.
type Builder interface {
	Build(query string) Predicate
}

// Registry maps every strategy to its builder
type Registry map[Strategy]Builder

// NewRegistry builds the strategy registry for cfg
func NewRegistry(cfg config.SearchConfig) Registry {
	return Registry{
		StrategyPrefix:   prefixBuilder{},
		StrategyAny:      anyBuilder{},
		StrategyPhonetic: phoneticBuilder{maxVariants: cfg.MaxPhoneticVariants},
		StrategyCombined: combinedBuilder{window: decimal.NewFromInt(int64(cfg.NumericPriceWindow))},
	}
}

// Build dispatches query to the builder of s
func (r Registry) Build(s Strategy, query string) (Predicate, error) {
	b, ok := r[s]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", s)
	}
	return b.Build(query), nil
}

var numericQuery = regexp.MustCompile(`^\d+(\.\d+)?$`)

// IsNumeric reports whether the trimmed query is a plain number
func IsNumeric(query string) bool {
	return numericQuery.MatchString(strings.TrimSpace(query))
}

func barcodeMatch(query string) Predicate {
	return Cond{Field: FieldBarcode, Op: OpEquals, Value: strings.TrimSpace(query)}
}

type prefixBuilder struct{}

// Build matches the tokens in order at the start of the name. A query typed
// with a leading space searches the name anywhere instead.
func (prefixBuilder) Build(query string) Predicate {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil
	}

	var name Predicate
	if strings.HasPrefix(query, " ") {
		name = Cond{Field: FieldName, Op: OpContains, Value: trimmed}
	} else {
		name = Cond{Field: FieldName, Op: OpPrefix, Value: strings.Fields(trimmed)}
	}
	if IsNumeric(trimmed) {
		return Or(name, barcodeMatch(trimmed))
	}
	return name
}

type anyBuilder struct{}

// Build requires every token somewhere in the name
func (anyBuilder) Build(query string) Predicate {
	tokens := strings.Fields(query)
	if len(tokens) == 0 {
		return nil
	}
	conds := make([]Predicate, 0, len(tokens))
	for _, tok := range tokens {
		conds = append(conds, Cond{Field: FieldName, Op: OpContains, Value: tok})
	}
	all := And(conds...)
	if IsNumeric(query) {
		return Or(all, barcodeMatch(query))
	}
	return all
}

type phoneticBuilder struct {
	maxVariants int
}

// Build matches spelling variants of the query. Arabic queries match the
// original and its transliteration; Latin queries match every variant in
// the name or the ingredient.
func (b phoneticBuilder) Build(query string) Predicate {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil
	}

	if phonetic.ContainsArabic(trimmed) {
		translit := phonetic.Transliterate(trimmed)
		return Or(
			Cond{Field: FieldName, Op: OpContains, Value: trimmed},
			Cond{Field: FieldLocalName, Op: OpContains, Value: trimmed},
			Cond{Field: FieldDescription, Op: OpContains, Value: trimmed},
			Cond{Field: FieldName, Op: OpContains, Value: translit},
			Cond{Field: FieldDescription, Op: OpContains, Value: translit},
		)
	}

	variants := phonetic.Variants(trimmed)
	if b.maxVariants > 0 && len(variants) > b.maxVariants {
		variants = variants[:b.maxVariants]
	}
	conds := make([]Predicate, 0, 2*len(variants))
	for _, v := range variants {
		conds = append(conds,
			Cond{Field: FieldName, Op: OpContains, Value: v},
			Cond{Field: FieldIngredient, Op: OpContains, Value: v},
		)
	}
	return Or(conds...)
}

type combinedBuilder struct {
	window decimal.Decimal
}

// Build matches the raw query in any descriptive field. A numeric query also
// matches the barcode and prices within the configured window.
func (b combinedBuilder) Build(query string) Predicate {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil
	}

	preds := []Predicate{
		Cond{Field: FieldName, Op: OpContains, Value: trimmed},
		Cond{Field: FieldIngredient, Op: OpContains, Value: trimmed},
		Cond{Field: FieldLocalName, Op: OpContains, Value: trimmed},
		Cond{Field: FieldManufacturer, Op: OpContains, Value: trimmed},
		Cond{Field: FieldCategory, Op: OpContains, Value: trimmed},
	}
	if IsNumeric(trimmed) {
		preds = append(preds, barcodeMatch(trimmed))
		if price, err := decimal.NewFromString(trimmed); err == nil {
			preds = append(preds, Cond{
				Field: FieldPrice,
				Op:    OpBetween,
				Value: price.Sub(b.window),
				Upper: price.Add(b.window),
			})
		}
	}
	return Or(preds...)
}
