package ai

import "github.com/google/generative-ai-go/genai"

// Entity types and intents the analysis schema allows
var (
	EntityTypes = []string{
		"drug_name", "active_ingredient", "company", "category",
		"health_condition", "symptom", "barcode",
	}
	Intents = []string{
		"general_search", "specific_drug", "alternative",
		"symptom_search", "health_condition_treatment",
	}
)

func stringArray(description string) *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeArray,
		Items:       &genai.Schema{Type: genai.TypeString},
		Description: description,
	}
}

// QueryAnalysisSchema is the strict output contract of QueryAnalysisPrompt
func QueryAnalysisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"keywords": stringArray("Search terms taken from the query"),
			"entities": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"type":       {Type: genai.TypeString, Enum: EntityTypes},
						"value":      {Type: genai.TypeString},
						"confidence": {Type: genai.TypeNumber, Description: "Between 0 and 1"},
					},
					Required: []string{"type", "value", "confidence"},
				},
			},
			"intent": {
				Type: genai.TypeString,
				Enum: Intents,
			},
			"alternative_queries": stringArray("Up to three alternative phrasings"),
			"filters": {
				Type:     genai.TypeObject,
				Nullable: true,
				Properties: map[string]*genai.Schema{
					"category":     {Type: genai.TypeString, Nullable: true},
					"manufacturer": {Type: genai.TypeString, Nullable: true},
					"ingredient":   {Type: genai.TypeString, Nullable: true},
					"min_price":    {Type: genai.TypeNumber, Nullable: true},
					"max_price":    {Type: genai.TypeNumber, Nullable: true},
				},
			},
			"health_condition": {
				Type:     genai.TypeObject,
				Nullable: true,
				Properties: map[string]*genai.Schema{
					"is_health_condition_search": {Type: genai.TypeBoolean},
					"condition":                  {Type: genai.TypeString, Nullable: true},
					"symptoms":                   stringArray("Symptoms mentioned"),
				},
			},
			"comment": {Type: genai.TypeString},
		},
		Required: []string{"keywords", "entities", "intent"},
	}
}

// SafetyPointsSchema is the output contract of SafetyPointsPrompt
func SafetyPointsSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"points": stringArray("Three short safety reminders"),
		},
		Required: []string{"points"},
	}
}

// ProductDetailSchema is the output contract of ProductDetailPrompt
func ProductDetailSchema() *genai.Schema {
	field := &genai.Schema{Type: genai.TypeString}
	keys := []string{
		"indications", "dosage", "side_effects", "contraindications",
		"interactions", "storage_notes", "usage_instructions",
	}
	props := make(map[string]*genai.Schema, len(keys))
	for _, k := range keys {
		props[k] = field
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   keys,
	}
}
