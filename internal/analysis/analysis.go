// Package analysis turns a raw catalog query into a QueryAnalysis using the
// completion service. Every failure degrades to the default analysis; callers
// never see an error from this package.
package analysis

import "strings"

// EntityType classifies an extracted entity
type EntityType string

const (
	EntityDrugName         EntityType = "drug_name"
	EntityActiveIngredient EntityType = "active_ingredient"
	EntityCompany          EntityType = "company"
	EntityCategory         EntityType = "category"
	EntityHealthCondition  EntityType = "health_condition"
	EntitySymptom          EntityType = "symptom"
	EntityBarcode          EntityType = "barcode"
)

func (t EntityType) valid() bool {
	switch t {
	case EntityDrugName, EntityActiveIngredient, EntityCompany, EntityCategory,
		EntityHealthCondition, EntitySymptom, EntityBarcode:
		return true
	}
	return false
}

// Intent is the classified purpose of a query
type Intent string

const (
	IntentGeneralSearch            Intent = "general_search"
	IntentSpecificDrug             Intent = "specific_drug"
	IntentAlternative              Intent = "alternative"
	IntentSymptomSearch            Intent = "symptom_search"
	IntentHealthConditionTreatment Intent = "health_condition_treatment"
)

func (i Intent) valid() bool {
	switch i {
	case IntentGeneralSearch, IntentSpecificDrug, IntentAlternative,
		IntentSymptomSearch, IntentHealthConditionTreatment:
		return true
	}
	return false
}

// Entity is a typed span of the query with the model's confidence in [0,1]
type Entity struct {
	Type       EntityType `json:"type"`
	Value      string     `json:"value"`
	Confidence float64    `json:"confidence"`
}

// Filters are structured constraints stated in the query itself
type Filters struct {
	Category     string   `json:"category,omitempty"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Ingredient   string   `json:"ingredient,omitempty"`
	MinPrice     *float64 `json:"min_price,omitempty"`
	MaxPrice     *float64 `json:"max_price,omitempty"`
}

// HealthCondition describes a treatment-seeking query
type HealthCondition struct {
	IsHealthConditionSearch bool     `json:"is_health_condition_search"`
	Condition               string   `json:"condition,omitempty"`
	Symptoms                []string `json:"symptoms,omitempty"`
}

// QueryAnalysis is built per request and discarded with the response
type QueryAnalysis struct {
	Query              string           `json:"query"`
	Keywords           []string         `json:"keywords"`
	Entities           []Entity         `json:"entities"`
	Intent             Intent           `json:"intent"`
	Filters            *Filters         `json:"filters,omitempty"`
	AlternativeQueries []string         `json:"alternative_queries,omitempty"`
	HealthCondition    *HealthCondition `json:"health_condition,omitempty"`
	Comment            string           `json:"comment,omitempty"`

	// Fallback marks the default analysis returned when the service degraded
	Fallback bool `json:"fallback"`
}

// Default is the analysis used whenever the completion service cannot help:
// the query itself is the only keyword and the intent is a general search.
func Default(query string) QueryAnalysis {
	return QueryAnalysis{
		Query:    query,
		Keywords: []string{strings.TrimSpace(query)},
		Entities: []Entity{},
		Intent:   IntentGeneralSearch,
		Fallback: true,
	}
}

// BestEntity returns the highest-confidence entity of type t
func (a QueryAnalysis) BestEntity(t EntityType) (Entity, bool) {
	var best Entity
	found := false
	for _, e := range a.Entities {
		if e.Type != t || strings.TrimSpace(e.Value) == "" {
			continue
		}
		if !found || e.Confidence > best.Confidence {
			best = e
			found = true
		}
	}
	return best, found
}
