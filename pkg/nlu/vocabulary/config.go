package vocabulary

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/segovia241/ia-erp-universal/pkg/nlu"
)

// Config is the raw, authored vocabulary configuration. It drives every scoring
// decision in the engine and is loaded exactly once at startup.
type Config struct {
	Settings   Settings        `json:"settings"`
	Vocabulary VocabularySet   `json:"vocabulary"`
	Patterns   PatternSet      `json:"patterns"`
	Scoring    ScoringSet      `json:"scoring"`
	Normalizer NormalizerRules `json:"normalizer"`
}

type Settings struct {
	DefaultModule string `json:"default_module"`
	DefaultAction string `json:"default_action"`

	// Payload fields that receive the upper-cased free-text search convention.
	SearchFilterFields []string `json:"search_filter_fields"`

	SessionTTLMinutes    int `json:"session_ttl_minutes"`
	SweepIntervalMinutes int `json:"sweep_interval_minutes"`
}

type VocabularySet struct {
	Modules map[string]ModuleVocabulary `json:"modules"`
	Actions map[string]ActionVocabulary `json:"actions"`

	// Tokens that mark a message as off-topic (meta chatter about the
	// assistant, entertainment, direct API invocation requests).
	IrrelevantWords []string `json:"irrelevant_words"`
}

type ModuleVocabulary struct {
	Keywords     []string `json:"keywords"`
	Synonyms     []string `json:"synonyms"`
	RelatedWords []string `json:"related_words"`
}

type ActionVocabulary struct {
	Keywords    []string `json:"keywords"`
	Synonyms    []string `json:"synonyms"`
	Expressions []string `json:"expressions"`
}

type PatternSet struct {
	Modules    map[string][]string `json:"modules"`
	Actions    map[string][]string `json:"actions"`
	Parameters map[string][]string `json:"parameters"`
}

type ScoringSet struct {
	Module   MatchWeights   `json:"module"`
	Action   MatchWeights   `json:"action"`
	Endpoint SignalWeights  `json:"endpoint"`
	Gate     ConfidenceGate `json:"gate"`
}

// MatchWeights is one lexical scoring table. Module and action classification
// share the same shape but carry independent values and thresholds.
type MatchWeights struct {
	ExactMatch   float64 `json:"exact_match"`
	WholeWord    float64 `json:"whole_word"`
	Partial      float64 `json:"partial"`
	RelatedWord  float64 `json:"related_word"`
	PatternBonus float64 `json:"pattern_bonus"`
	Threshold    float64 `json:"threshold"`
}

// SignalWeights weighs the five endpoint-matching signals. TopicalRelevance is
// deliberately dominant: whether the message is about ERP business data at all
// discriminates better than structural text overlap.
type SignalWeights struct {
	IntentSimilarity      float64 `json:"intent_similarity"`
	DescriptionSimilarity float64 `json:"description_similarity"`
	KeywordOverlap        float64 `json:"keyword_overlap"`
	RouteTokens           float64 `json:"route_tokens"`
	TopicalRelevance      float64 `json:"topical_relevance"`
	Threshold             float64 `json:"threshold"`
}

type ConfidenceGate struct {
	// Minimum combined module+action score before the pipeline proceeds to
	// endpoint matching.
	MinIntentScore float64 `json:"min_intent_score"`
}

type NormalizerRules struct {
	Spelling  map[string]string `json:"spelling"`
	Fillers   []string          `json:"fillers"`
	Stopwords []string          `json:"stopwords"`
}

// LoadFile reads and validates a vocabulary config from a JSON file.
func LoadFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse vocabulary config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects partial configuration. A missing required section is fatal
// at startup: the engine never runs with a half-loaded vocabulary.
func (c *Config) Validate() error {
	if c.Settings.DefaultModule == "" {
		return &nlu.ConfigValidationError{Section: "settings", Reason: "default_module is required"}
	}
	if c.Settings.DefaultAction == "" {
		return &nlu.ConfigValidationError{Section: "settings", Reason: "default_action is required"}
	}
	if len(c.Vocabulary.Modules) == 0 {
		return &nlu.ConfigValidationError{Section: "vocabulary", Reason: "at least one module is required"}
	}
	if len(c.Vocabulary.Actions) == 0 {
		return &nlu.ConfigValidationError{Section: "vocabulary", Reason: "at least one action is required"}
	}
	if _, ok := c.Vocabulary.Modules[c.Settings.DefaultModule]; !ok {
		return &nlu.ConfigValidationError{Section: "settings", Reason: fmt.Sprintf("default_module %q has no vocabulary", c.Settings.DefaultModule)}
	}
	if _, ok := c.Vocabulary.Actions[c.Settings.DefaultAction]; !ok {
		return &nlu.ConfigValidationError{Section: "settings", Reason: fmt.Sprintf("default_action %q has no vocabulary", c.Settings.DefaultAction)}
	}
	if len(c.Patterns.Parameters) == 0 {
		return &nlu.ConfigValidationError{Section: "patterns", Reason: "parameter extraction templates are required"}
	}
	if c.Scoring.Module.Threshold <= 0 || c.Scoring.Action.Threshold <= 0 {
		return &nlu.ConfigValidationError{Section: "scoring", Reason: "module and action thresholds must be positive"}
	}
	if c.Scoring.Endpoint.Threshold <= 0 {
		return &nlu.ConfigValidationError{Section: "scoring", Reason: "endpoint threshold must be positive"}
	}
	sum := c.Scoring.Endpoint.IntentSimilarity + c.Scoring.Endpoint.DescriptionSimilarity +
		c.Scoring.Endpoint.KeywordOverlap + c.Scoring.Endpoint.RouteTokens + c.Scoring.Endpoint.TopicalRelevance
	if sum <= 0 {
		return &nlu.ConfigValidationError{Section: "scoring", Reason: "endpoint signal weights must not all be zero"}
	}
	return nil
}
