// FILE: pkg/nlu/intent/classifier.go
// PURPOSE: Rule-based (module, action) classification over the vocabulary index

package intent

import (
	"regexp"
	"strings"

	"github.com/segovia241/ia-erp-universal/pkg/nlu"
	"github.com/segovia241/ia-erp-universal/pkg/nlu/vocabulary"
)

// Classifier scores every candidate module and action against normalized text.
// It is stateless apart from the immutable index and safe for concurrent use.
type Classifier struct {
	index *vocabulary.Index
}

func NewClassifier(index *vocabulary.Index) *Classifier {
	return &Classifier{index: index}
}

// ClassifyAction picks the best CRUD action for the normalized text. Below the
// action threshold the configured default wins with a nominal score; a default
// is provisional, not a dead end.
func (c *Classifier) ClassifyAction(normalized string) (nlu.Action, float64) {
	cfg := c.index.Config()
	weights := cfg.Scoring.Action

	bestAction := ""
	bestScore := -1.0
	for _, name := range c.index.ActionOrder {
		vocab, _ := c.index.ActionVocabulary(name)
		score := c.scoreCandidate(normalized,
			append(append([]string{}, vocab.Keywords...), vocab.Synonyms...),
			vocab.Expressions,
			c.index.ActionPatterns[name],
			weights,
		)
		if score > bestScore {
			bestScore = score
			bestAction = name
		}
	}

	if bestScore < weights.Threshold {
		return nlu.Action(cfg.Settings.DefaultAction), weights.Threshold / 2
	}
	return nlu.Action(bestAction), bestScore
}

// ClassifyModule picks the best module among the allowed set. An empty allowed
// set yields the configured default, never an error. Modules scoring below
// their threshold are forced to zero so a low-relevance module cannot win.
func (c *Classifier) ClassifyModule(normalized string, allowed []string) (string, float64) {
	cfg := c.index.Config()
	weights := cfg.Scoring.Module

	candidates := c.candidateModules(allowed)
	if len(candidates) == 0 {
		return cfg.Settings.DefaultModule, weights.Threshold / 2
	}

	bestModule := ""
	bestScore := -1.0
	for _, name := range candidates {
		vocab, ok := c.index.ModuleVocabulary(name)
		if !ok {
			continue
		}
		score := c.scoreCandidate(normalized,
			append(append([]string{}, vocab.Keywords...), vocab.Synonyms...),
			vocab.RelatedWords,
			c.index.ModulePatterns[name],
			weights,
		)
		if score < weights.Threshold {
			score = 0
		}
		if score > bestScore {
			bestScore = score
			bestModule = name
		}
	}

	if bestModule == "" || bestScore <= 0 {
		return cfg.Settings.DefaultModule, weights.Threshold / 2
	}
	return bestModule, bestScore
}

// Classify combines both axes into one intent. The combined score is the sum
// of the module and action scores; the module component is already zeroed
// below its threshold by ClassifyModule.
func (c *Classifier) Classify(normalized string, allowedModules []string) nlu.IntentResult {
	action, actionScore := c.ClassifyAction(normalized)
	module, moduleScore := c.ClassifyModule(normalized, allowedModules)
	return nlu.IntentResult{
		Module: module,
		Action: action,
		Score:  moduleScore + actionScore,
	}
}

// candidateModules intersects the caller's allowed set with the known modules,
// preserving index order. An empty allowed set has no candidates; the caller
// falls back to the configured default module.
func (c *Classifier) candidateModules(allowed []string) []string {
	if len(allowed) == 0 {
		return nil
	}
	allowedSet := make(map[string]bool, len(allowed))
	for _, m := range allowed {
		allowedSet[strings.ToUpper(strings.TrimSpace(m))] = true
	}
	var candidates []string
	for _, name := range c.index.ModuleOrder {
		if allowedSet[strings.ToUpper(name)] {
			candidates = append(candidates, name)
		}
	}
	return candidates
}

// scoreCandidate awards, per keyword, the single best of exact / whole-word /
// partial, plus a related-word bonus per secondary hit and a pattern bonus per
// matching detection regex. More matching occurrences never lower the total:
// repeated whole-word hits stack and are floored at the exact-match weight, so
// a keyword said twice never scores below the keyword said alone.
func (c *Classifier) scoreCandidate(text string, keywords, related []string, patterns []*regexp.Regexp, w vocabulary.MatchWeights) float64 {
	score := 0.0
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		occurrences := countWholeWord(text, kw)
		switch {
		case text == kw:
			score += w.ExactMatch
		case occurrences > 1:
			repeated := float64(occurrences) * w.WholeWord
			if repeated < w.ExactMatch {
				repeated = w.ExactMatch
			}
			score += repeated
		case occurrences == 1:
			score += w.WholeWord
		case strings.Contains(text, kw):
			score += w.Partial
		}
	}
	for _, rel := range related {
		rel = strings.ToLower(strings.TrimSpace(rel))
		if rel != "" && containsWholeWord(text, rel) {
			score += w.RelatedWord
		}
	}
	for _, re := range patterns {
		if re.MatchString(text) {
			score += w.PatternBonus
		}
	}
	return score
}

// containsWholeWord reports whether needle appears delimited by word breaks.
func containsWholeWord(text, needle string) bool {
	return countWholeWord(text, needle) > 0
}

// countWholeWord counts non-overlapping occurrences of needle delimited by
// word breaks. Token comparison handles multi-word needles ("dar de alta")
// that \b cannot.
func countWholeWord(text, needle string) int {
	tokens := strings.Fields(text)
	parts := strings.Fields(needle)
	if len(parts) == 0 || len(tokens) < len(parts) {
		return 0
	}
	count := 0
	for i := 0; i+len(parts) <= len(tokens); i++ {
		hit := true
		for j, part := range parts {
			if tokens[i+j] != part {
				hit = false
				break
			}
		}
		if hit {
			count++
			i += len(parts) - 1
		}
	}
	return count
}
