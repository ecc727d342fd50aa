// FILE: pkg/nlu/matcher/matcher.go
// PURPOSE: Pick the single best endpoint for a classified (module, action)

package matcher

import (
	"strings"

	"github.com/segovia241/ia-erp-universal/internal/entity"
	"github.com/segovia241/ia-erp-universal/pkg/nlu"
	"github.com/segovia241/ia-erp-universal/pkg/nlu/vocabulary"
)

// Route tokens carrying no business meaning. They never contribute to the
// route-token signal.
var technicalTokens = map[string]bool{
	"api": true, "v1": true, "v2": true, "v3": true, "json": true,
	"http": true, "https": true, "rest": true, "www": true, "app": true,
}

// Matcher scores candidate endpoints with five normalized signals and returns
// the best one, or a typed error when no candidate clears the threshold.
type Matcher struct {
	index *vocabulary.Index
}

func NewMatcher(index *vocabulary.Index) *Matcher {
	return &Matcher{index: index}
}

// SelectEndpoint is deterministic: identical inputs always yield the same
// endpoint and score. Ties resolve to the first candidate in list order.
func (m *Matcher) SelectEndpoint(normalized, module string, action nlu.Action, candidates []entity.Endpoint) (*entity.Endpoint, float64, error) {
	if len(candidates) == 0 {
		return nil, 0, &nlu.NoEndpointCandidateError{Module: module, Action: action}
	}

	textWords := contentWords(normalized, m.index)

	bestIdx := -1
	bestScore := -1.0
	for i := range candidates {
		score := m.score(normalized, textWords, module, action, &candidates[i])
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	threshold := m.index.Config().Scoring.Endpoint.Threshold
	if bestScore < threshold {
		return nil, bestScore, &nlu.LowConfidenceMatchError{Score: bestScore}
	}
	return &candidates[bestIdx], bestScore, nil
}

func (m *Matcher) score(normalized string, textWords map[string]bool, module string, action nlu.Action, ep *entity.Endpoint) float64 {
	w := m.index.Config().Scoring.Endpoint

	intentSim := jaccard(textWords, contentWords(strings.ToLower(ep.Name), m.index))
	descSim := jaccard(textWords, contentWords(strings.ToLower(ep.Description), m.index))
	kwOverlap := keywordOverlap(normalized, textWords, ep.Description, m.index)
	routeScore := m.routeTokenScore(textWords, module, string(action), ep.Route)
	topical := m.topicalRelevance(textWords, module, string(action))

	total := w.IntentSimilarity*intentSim +
		w.DescriptionSimilarity*descSim +
		w.KeywordOverlap*kwOverlap +
		w.RouteTokens*routeScore +
		w.TopicalRelevance*topical

	weightSum := w.IntentSimilarity + w.DescriptionSimilarity + w.KeywordOverlap + w.RouteTokens + w.TopicalRelevance
	if weightSum > 0 {
		total /= weightSum
	}
	return clamp01(total)
}

// routeTokenScore rewards route tokens that appear both in the text and in the
// module/action vocabulary (full credit) over tokens merely present in the
// text (minor credit).
func (m *Matcher) routeTokenScore(textWords map[string]bool, module, action, route string) float64 {
	tokens := splitRoute(route)
	if len(tokens) == 0 {
		return 0
	}
	topic := m.index.TopicWords(module, action)

	score := 0.0
	counted := 0
	for _, tok := range tokens {
		if technicalTokens[tok] {
			continue
		}
		counted++
		if textWords[tok] {
			if topic[tok] {
				score += 1.0
			} else {
				score += 0.3
			}
		}
	}
	if counted == 0 {
		return 0
	}
	return score / float64(counted)
}

// topicalRelevance is the fraction of content words belonging to the combined
// module+action vocabulary. Known irrelevant tokens (assistant meta-chatter,
// entertainment, direct API invocation requests) force the signal near zero so
// meta-conversation cannot pass for a business action.
func (m *Matcher) topicalRelevance(textWords map[string]bool, module, action string) float64 {
	if len(textWords) == 0 {
		return 0
	}
	for w := range textWords {
		if m.index.IsIrrelevant(w) {
			return 0.05
		}
	}
	topic := m.index.TopicWords(module, action)
	hits := 0
	for w := range textWords {
		if topic[w] {
			hits++
		}
	}
	return float64(hits) / float64(len(textWords))
}

// keywordOverlap rewards exact word matches in the description more than
// substring matches.
func keywordOverlap(normalized string, textWords map[string]bool, description string, index *vocabulary.Index) float64 {
	descWords := contentWords(strings.ToLower(description), index)
	if len(descWords) == 0 {
		return 0
	}
	score := 0.0
	for w := range descWords {
		switch {
		case textWords[w]:
			score += 1.0
		case strings.Contains(normalized, w):
			score += 0.5
		}
	}
	return clamp01(score / float64(len(descWords)))
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if b[w] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func contentWords(text string, index *vocabulary.Index) map[string]bool {
	words := make(map[string]bool)
	for _, tok := range strings.Fields(text) {
		tok = strings.Trim(tok, ".,;:!?\"'()")
		if tok == "" || index.IsStopword(tok) || index.IsFiller(tok) {
			continue
		}
		words[tok] = true
	}
	return words
}

func splitRoute(route string) []string {
	return strings.FieldsFunc(strings.ToLower(route), func(r rune) bool {
		return r == '/' || r == '-' || r == '_' || r == '.' || r == '{' || r == '}' || r == ':'
	})
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
