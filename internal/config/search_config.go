package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SearchConfig holds the tuning knobs of the query resolution engine.
// It is passed explicitly to the engine, the analysis adapter and the
// alternative resolver at construction time.
type SearchConfig struct {
	AIEnabled       bool   `yaml:"ai_enabled"`
	DefaultStrategy string `yaml:"default_strategy"`
	DefaultPageSize int    `yaml:"default_page_size"`
	MaxPageSize     int    `yaml:"max_page_size"`

	// Entities below this confidence never become filters
	EntityConfidenceMin float64 `yaml:"entity_confidence_min"`
	// Condition/symptom entities above this confidence mark a health query
	HealthConfidenceMin float64 `yaml:"health_confidence_min"`

	ChatTriggerPhrases   []string `yaml:"chat_trigger_phrases"`
	HealthTriggerPhrases []string `yaml:"health_trigger_phrases"`
	ChatWordThreshold    int      `yaml:"chat_word_threshold"`

	MaxAlternativeQueries int `yaml:"max_alternative_queries"`
	MaxPhoneticVariants   int `yaml:"max_phonetic_variants"`
	NumericPriceWindow    int `yaml:"numeric_price_window"`

	MaxPriorTurns    int `yaml:"max_prior_turns"`
	DigestLimit      int `yaml:"digest_limit"`
	DigestFieldChars int `yaml:"digest_field_chars"`

	TherapeuticLimit     int     `yaml:"therapeutic_limit"`
	PriceBucketThreshold float64 `yaml:"price_bucket_threshold"`
}

// DefaultSearchConfig returns the built-in tuning
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		AIEnabled:           true,
		DefaultStrategy:     "prefix",
		DefaultPageSize:     12,
		MaxPageSize:         100,
		EntityConfidenceMin: 0.3,
		HealthConfidenceMin: 0.6,
		ChatTriggerPhrases: []string{
			"what is", "what are", "how do", "how to", "can i", "should i",
			"tell me", "explain", "recommend", "ما هو", "ما هي", "هل يمكن", "كيف",
		},
		HealthTriggerPhrases: []string{
			"treatment for", "i suffer from", "suffering from", "medicine for", "cure for",
			"remedy for", "علاج", "اعاني من", "أعاني من", "دواء ل",
		},
		ChatWordThreshold:     5,
		MaxAlternativeQueries: 3,
		MaxPhoneticVariants:   32,
		NumericPriceWindow:    5,
		MaxPriorTurns:         6,
		DigestLimit:           5,
		DigestFieldChars:      100,
		TherapeuticLimit:      5,
		PriceBucketThreshold:  1,
	}
}

// LoadSearchConfig reads a YAML tuning file on top of the defaults.
// Keys missing from the file keep their default value.
func LoadSearchConfig(path string) (SearchConfig, error) {
	cfg := DefaultSearchConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects tuning values the engine cannot work with
func (c SearchConfig) Validate() error {
	if c.DefaultPageSize < 1 || c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("invalid page sizes: default=%d max=%d", c.DefaultPageSize, c.MaxPageSize)
	}
	if c.EntityConfidenceMin < 0 || c.EntityConfidenceMin > 1 {
		return fmt.Errorf("entity_confidence_min out of range: %v", c.EntityConfidenceMin)
	}
	if c.HealthConfidenceMin < 0 || c.HealthConfidenceMin > 1 {
		return fmt.Errorf("health_confidence_min out of range: %v", c.HealthConfidenceMin)
	}
	if c.PriceBucketThreshold < 0 {
		return fmt.Errorf("price_bucket_threshold must not be negative")
	}
	return nil
}
