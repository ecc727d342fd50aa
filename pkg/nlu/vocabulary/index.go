package vocabulary

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Index is the immutable, process-wide compiled form of a Config: regexps are
// pre-compiled, vocabularies are indexed as sets, and module/action iteration
// order is fixed so every classification run is deterministic.
type Index struct {
	cfg *Config

	// Deterministic candidate order. JSON object keys carry no order, so the
	// configured order is realized as the sorted key order; ties in scoring
	// resolve to the first candidate in this slice.
	ModuleOrder []string
	ActionOrder []string

	ModulePatterns map[string][]*regexp.Regexp
	ActionPatterns map[string][]*regexp.Regexp

	// Ordered extraction templates per parameter kind.
	ParameterPatterns map[string][]*regexp.Regexp

	moduleWords  map[string]map[string]bool // module -> content vocabulary set
	actionWords  map[string]map[string]bool
	irrelevant   map[string]bool
	stopwords    map[string]bool
	fillers      map[string]bool
	searchFields map[string]bool
}

// NewIndex compiles a validated Config. Pattern compilation failures are
// configuration faults and therefore fatal.
func NewIndex(cfg *Config) (*Index, error) {
	idx := &Index{
		cfg:               cfg,
		ModulePatterns:    make(map[string][]*regexp.Regexp),
		ActionPatterns:    make(map[string][]*regexp.Regexp),
		ParameterPatterns: make(map[string][]*regexp.Regexp),
		moduleWords:       make(map[string]map[string]bool),
		actionWords:       make(map[string]map[string]bool),
		irrelevant:        wordSet(cfg.Vocabulary.IrrelevantWords),
		stopwords:         wordSet(cfg.Normalizer.Stopwords),
		fillers:           wordSet(cfg.Normalizer.Fillers),
		searchFields:      wordSet(cfg.Settings.SearchFilterFields),
	}

	for name := range cfg.Vocabulary.Modules {
		idx.ModuleOrder = append(idx.ModuleOrder, name)
	}
	sort.Strings(idx.ModuleOrder)
	for name := range cfg.Vocabulary.Actions {
		idx.ActionOrder = append(idx.ActionOrder, name)
	}
	sort.Strings(idx.ActionOrder)

	for name, patterns := range cfg.Patterns.Modules {
		compiled, err := compileAll("modules", name, patterns)
		if err != nil {
			return nil, err
		}
		idx.ModulePatterns[name] = compiled
	}
	for name, patterns := range cfg.Patterns.Actions {
		compiled, err := compileAll("actions", name, patterns)
		if err != nil {
			return nil, err
		}
		idx.ActionPatterns[name] = compiled
	}
	for kind, patterns := range cfg.Patterns.Parameters {
		compiled, err := compileAll("parameters", kind, patterns)
		if err != nil {
			return nil, err
		}
		idx.ParameterPatterns[kind] = compiled
	}

	for name, vocab := range cfg.Vocabulary.Modules {
		set := wordSet(vocab.Keywords)
		addWords(set, vocab.Synonyms)
		addWords(set, vocab.RelatedWords)
		idx.moduleWords[name] = set
	}
	for name, vocab := range cfg.Vocabulary.Actions {
		set := wordSet(vocab.Keywords)
		addWords(set, vocab.Synonyms)
		addWords(set, vocab.Expressions)
		idx.actionWords[name] = set
	}

	return idx, nil
}

func (i *Index) Config() *Config { return i.cfg }

func (i *Index) ModuleVocabulary(name string) (ModuleVocabulary, bool) {
	v, ok := i.cfg.Vocabulary.Modules[name]
	return v, ok
}

func (i *Index) ActionVocabulary(name string) (ActionVocabulary, bool) {
	v, ok := i.cfg.Vocabulary.Actions[name]
	return v, ok
}

// TopicWords returns the combined module+action vocabulary used by the topical
// relevance signal.
func (i *Index) TopicWords(module, action string) map[string]bool {
	combined := make(map[string]bool)
	for w := range i.moduleWords[module] {
		combined[w] = true
	}
	for w := range i.actionWords[action] {
		combined[w] = true
	}
	return combined
}

func (i *Index) IsIrrelevant(word string) bool { return i.irrelevant[word] }
func (i *Index) IsStopword(word string) bool   { return i.stopwords[word] }
func (i *Index) IsFiller(word string) bool     { return i.fillers[word] }

// IsSearchFilterField reports whether a payload field follows the upper-cased
// free-text search convention of the catalog's search endpoints.
func (i *Index) IsSearchFilterField(name string) bool {
	return i.searchFields[strings.ToLower(name)]
}

func compileAll(section, name string, patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q for %s/%s: %w", p, section, name, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func wordSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.ToLower(strings.TrimSpace(w))] = true
	}
	delete(set, "")
	return set
}

func addWords(set map[string]bool, words []string) {
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = true
		}
	}
}
