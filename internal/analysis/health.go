package analysis

import "strings"

// IsHealthConditionQuery reports whether the query looks for a treatment
// rather than a product. Any one signal is enough: the explicit flag, the
// treatment intent, a confident condition or symptom entity, or a trigger
// phrase in the raw query.
func (a *Adapter) IsHealthConditionQuery(qa QueryAnalysis) bool {
	if qa.HealthCondition != nil && qa.HealthCondition.IsHealthConditionSearch {
		return true
	}
	if qa.Intent == IntentHealthConditionTreatment {
		return true
	}
	for _, e := range qa.Entities {
		if (e.Type == EntityHealthCondition || e.Type == EntitySymptom) && e.Confidence > a.cfg.HealthConfidenceMin {
			return true
		}
	}
	return ContainsPhrase(qa.Query, a.cfg.HealthTriggerPhrases)
}

// ConditionName picks the condition to search for: a condition entity beats a
// symptom entity, which beats the condition sub-object, which beats the raw query.
func ConditionName(qa QueryAnalysis) string {
	if e, ok := qa.BestEntity(EntityHealthCondition); ok {
		return e.Value
	}
	if e, ok := qa.BestEntity(EntitySymptom); ok {
		return e.Value
	}
	if hc := qa.HealthCondition; hc != nil {
		if c := strings.TrimSpace(hc.Condition); c != "" {
			return c
		}
		for _, s := range hc.Symptoms {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return strings.TrimSpace(qa.Query)
}

// ContainsPhrase reports whether text contains one of phrases, ignoring case
func ContainsPhrase(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" && strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
