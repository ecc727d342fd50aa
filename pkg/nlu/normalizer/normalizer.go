// FILE: pkg/nlu/normalizer/normalizer.go
// PURPOSE: Canonicalize raw user text before classification and matching

package normalizer

import (
	"strings"

	"github.com/segovia241/ia-erp-universal/pkg/nlu/vocabulary"
)

// Normalizer canonicalizes raw input text: lower-casing, whole-word spelling
// fixes, filler removal and stop-word collapsing. It is a pure function over
// its rules and idempotent: Normalize(Normalize(x)) == Normalize(x).
type Normalizer struct {
	rules vocabulary.NormalizerRules

	spelling  map[string]string
	fillers   map[string]bool
	stopwords map[string]bool
}

func New(rules vocabulary.NormalizerRules) *Normalizer {
	n := &Normalizer{
		rules:     rules,
		spelling:  make(map[string]string, len(rules.Spelling)),
		fillers:   make(map[string]bool, len(rules.Fillers)),
		stopwords: make(map[string]bool, len(rules.Stopwords)),
	}
	// Keys and values are lowered once; corrections are expected to map to
	// canonical forms, so re-applying the table is a fixed point.
	for wrong, right := range rules.Spelling {
		n.spelling[strings.ToLower(wrong)] = strings.ToLower(right)
	}
	for _, f := range rules.Fillers {
		n.fillers[strings.ToLower(f)] = true
	}
	for _, s := range rules.Stopwords {
		n.stopwords[strings.ToLower(s)] = true
	}
	return n
}

// Normalize applies, in order: lower-case, whole-word spelling correction,
// filler removal, stop-word run collapsing, whitespace collapse and trim.
func (n *Normalizer) Normalize(text string) string {
	tokens := strings.Fields(strings.ToLower(text))

	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if fixed, ok := n.spelling[tok]; ok {
			tok = fixed
		}
		if n.fillers[tok] {
			continue
		}
		if n.stopwords[tok] {
			// Runs of stopwords between real tokens collapse to nothing.
			continue
		}
		out = append(out, tok)
	}

	return strings.Join(out, " ")
}
