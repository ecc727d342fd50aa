package vocabulary

import (
	"errors"
	"testing"

	"github.com/segovia241/ia-erp-universal/pkg/nlu"
)

func validConfig() *Config {
	return &Config{
		Settings: Settings{
			DefaultModule:      "VENTAS",
			DefaultAction:      "READ",
			SearchFilterFields: []string{"descripcion"},
		},
		Vocabulary: VocabularySet{
			Modules: map[string]ModuleVocabulary{
				"VENTAS":  {Keywords: []string{"cliente"}},
				"CLINICO": {Keywords: []string{"paciente"}},
			},
			Actions: map[string]ActionVocabulary{
				"READ":   {Keywords: []string{"listar"}},
				"CREATE": {Keywords: []string{"crear"}},
			},
		},
		Patterns: PatternSet{
			Parameters: map[string][]string{
				"nombre": {`(?i)nombre\s+(\w+)`},
			},
		},
		Scoring: ScoringSet{
			Module:   MatchWeights{ExactMatch: 10, WholeWord: 5, Partial: 2, Threshold: 4},
			Action:   MatchWeights{ExactMatch: 10, WholeWord: 5, Partial: 2, Threshold: 4},
			Endpoint: SignalWeights{TopicalRelevance: 0.5, RouteTokens: 0.5, Threshold: 0.3},
			Gate:     ConfidenceGate{MinIntentScore: 6},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		wantSection string
	}{
		{
			name:   "valid config passes",
			mutate: func(c *Config) {},
		},
		{
			name:        "missing default module",
			mutate:      func(c *Config) { c.Settings.DefaultModule = "" },
			wantSection: "settings",
		},
		{
			name:        "missing default action",
			mutate:      func(c *Config) { c.Settings.DefaultAction = "" },
			wantSection: "settings",
		},
		{
			name:        "no module vocabulary",
			mutate:      func(c *Config) { c.Vocabulary.Modules = nil },
			wantSection: "vocabulary",
		},
		{
			name:        "no action vocabulary",
			mutate:      func(c *Config) { c.Vocabulary.Actions = nil },
			wantSection: "vocabulary",
		},
		{
			name:        "default module without vocabulary",
			mutate:      func(c *Config) { c.Settings.DefaultModule = "RRHH" },
			wantSection: "settings",
		},
		{
			name:        "default action without vocabulary",
			mutate:      func(c *Config) { c.Settings.DefaultAction = "PATCH" },
			wantSection: "settings",
		},
		{
			name:        "no parameter patterns",
			mutate:      func(c *Config) { c.Patterns.Parameters = nil },
			wantSection: "patterns",
		},
		{
			name:        "zero module threshold",
			mutate:      func(c *Config) { c.Scoring.Module.Threshold = 0 },
			wantSection: "scoring",
		},
		{
			name:        "zero endpoint threshold",
			mutate:      func(c *Config) { c.Scoring.Endpoint.Threshold = 0 },
			wantSection: "scoring",
		},
		{
			name: "all endpoint weights zero",
			mutate: func(c *Config) {
				c.Scoring.Endpoint = SignalWeights{Threshold: 0.3}
			},
			wantSection: "scoring",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantSection == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}

			var vErr *nlu.ConfigValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Validate() = %v, want *nlu.ConfigValidationError", err)
			}
			if vErr.Section != tt.wantSection {
				t.Errorf("Section = %q, want %q", vErr.Section, tt.wantSection)
			}
		})
	}
}

func TestNewIndexDeterministicOrder(t *testing.T) {
	idx, err := NewIndex(validConfig())
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}

	wantModules := []string{"CLINICO", "VENTAS"}
	if len(idx.ModuleOrder) != len(wantModules) {
		t.Fatalf("ModuleOrder = %v, want %v", idx.ModuleOrder, wantModules)
	}
	for i, m := range wantModules {
		if idx.ModuleOrder[i] != m {
			t.Errorf("ModuleOrder[%d] = %q, want %q", i, idx.ModuleOrder[i], m)
		}
	}

	wantActions := []string{"CREATE", "READ"}
	for i, a := range wantActions {
		if idx.ActionOrder[i] != a {
			t.Errorf("ActionOrder[%d] = %q, want %q", i, idx.ActionOrder[i], a)
		}
	}
}

func TestNewIndexRejectsBadPattern(t *testing.T) {
	cfg := validConfig()
	cfg.Patterns.Parameters["nombre"] = []string{`nombre\s+([a-z`}

	if _, err := NewIndex(cfg); err == nil {
		t.Error("NewIndex() with invalid regex should error")
	}
}

func TestIndexWordSets(t *testing.T) {
	cfg := validConfig()
	cfg.Vocabulary.IrrelevantWords = []string{"chiste"}
	cfg.Normalizer.Stopwords = []string{"el"}
	cfg.Normalizer.Fillers = []string{"hola"}

	idx, err := NewIndex(cfg)
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}

	if !idx.IsIrrelevant("chiste") {
		t.Error("IsIrrelevant(chiste) = false, want true")
	}
	if idx.IsIrrelevant("cliente") {
		t.Error("IsIrrelevant(cliente) = true, want false")
	}
	if !idx.IsStopword("el") {
		t.Error("IsStopword(el) = false, want true")
	}
	if !idx.IsFiller("hola") {
		t.Error("IsFiller(hola) = false, want true")
	}
	if !idx.IsSearchFilterField("descripcion") {
		t.Error("IsSearchFilterField(descripcion) = false, want true")
	}
	if !idx.IsSearchFilterField("DESCRIPCION") {
		t.Error("IsSearchFilterField is expected to ignore case")
	}
	if idx.IsSearchFilterField("nombre") {
		t.Error("IsSearchFilterField(nombre) = true, want false")
	}
}

func TestTopicWordsCombinesModuleAndAction(t *testing.T) {
	idx, err := NewIndex(validConfig())
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}

	topic := idx.TopicWords("CLINICO", "READ")
	if !topic["paciente"] {
		t.Error("TopicWords missing module keyword paciente")
	}
	if !topic["listar"] {
		t.Error("TopicWords missing action keyword listar")
	}
	if topic["cliente"] {
		t.Error("TopicWords leaked another module's keyword")
	}
}
