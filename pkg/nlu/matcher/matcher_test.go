package matcher

import (
	"errors"
	"testing"

	"github.com/segovia241/ia-erp-universal/internal/entity"
	"github.com/segovia241/ia-erp-universal/pkg/nlu"
	"github.com/segovia241/ia-erp-universal/pkg/nlu/vocabulary"
)

func testIndex(t *testing.T) *vocabulary.Index {
	t.Helper()
	cfg := &vocabulary.Config{
		Settings: vocabulary.Settings{DefaultModule: "VENTAS", DefaultAction: "READ"},
		Vocabulary: vocabulary.VocabularySet{
			Modules: map[string]vocabulary.ModuleVocabulary{
				"CLINICO": {Keywords: []string{"paciente", "pacientes"}},
				"VENTAS":  {Keywords: []string{"cliente", "clientes", "venta"}},
			},
			Actions: map[string]vocabulary.ActionVocabulary{
				"READ":   {Keywords: []string{"listar", "buscar", "consultar"}},
				"CREATE": {Keywords: []string{"crear", "registrar"}},
			},
			IrrelevantWords: []string{"chiste", "bot"},
		},
		Patterns: vocabulary.PatternSet{
			Parameters: map[string][]string{"nombre": {`(?i)nombre\s+(\w+)`}},
		},
		Scoring: vocabulary.ScoringSet{
			Module: vocabulary.MatchWeights{ExactMatch: 10, WholeWord: 5, Partial: 2, Threshold: 4},
			Action: vocabulary.MatchWeights{ExactMatch: 10, WholeWord: 5, Partial: 2, Threshold: 4},
			Endpoint: vocabulary.SignalWeights{
				IntentSimilarity: 0.1, DescriptionSimilarity: 0.1, KeywordOverlap: 0.15,
				RouteTokens: 0.15, TopicalRelevance: 0.5, Threshold: 0.3,
			},
			Gate: vocabulary.ConfidenceGate{MinIntentScore: 6},
		},
		Normalizer: vocabulary.NormalizerRules{
			Stopwords: []string{"el", "la", "un", "de", "por"},
		},
	}
	idx, err := vocabulary.NewIndex(cfg)
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}
	return idx
}

func patientEndpoints() []entity.Endpoint {
	return []entity.Endpoint{
		{
			ID:          "clinico-pacientes-listar",
			Module:      "CLINICO",
			Action:      "READ",
			Route:       "/api/clinico/pacientes",
			HTTPMethod:  "GET",
			Name:        "Listar pacientes",
			Description: "Obtiene el listado de pacientes",
		},
		{
			ID:          "clinico-pacientes-buscar",
			Module:      "CLINICO",
			Action:      "READ",
			Route:       "/api/clinico/pacientes/buscar",
			HTTPMethod:  "GET",
			Name:        "Buscar paciente",
			Description: "Busca pacientes por nombre",
		},
	}
}

func TestSelectEndpointEmptyCandidates(t *testing.T) {
	m := NewMatcher(testIndex(t))

	_, _, err := m.SelectEndpoint("listar pacientes", "CLINICO", nlu.ActionRead, nil)

	var noCand *nlu.NoEndpointCandidateError
	if !errors.As(err, &noCand) {
		t.Fatalf("err = %v, want *nlu.NoEndpointCandidateError", err)
	}
	if noCand.Module != "CLINICO" {
		t.Errorf("Module = %q, want CLINICO", noCand.Module)
	}
}

func TestSelectEndpointPicksBestCandidate(t *testing.T) {
	m := NewMatcher(testIndex(t))

	tests := []struct {
		name   string
		text   string
		wantID string
	}{
		{
			name:   "list phrasing picks the list endpoint",
			text:   "listar pacientes",
			wantID: "clinico-pacientes-listar",
		},
		{
			name:   "search phrasing picks the search endpoint",
			text:   "buscar paciente juan perez",
			wantID: "clinico-pacientes-buscar",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep, score, err := m.SelectEndpoint(tt.text, "CLINICO", nlu.ActionRead, patientEndpoints())
			if err != nil {
				t.Fatalf("SelectEndpoint() error = %v", err)
			}
			if ep.ID != tt.wantID {
				t.Errorf("endpoint = %q, want %q", ep.ID, tt.wantID)
			}
			if score < 0.3 || score > 1 {
				t.Errorf("score = %v, want within [0.3, 1]", score)
			}
		})
	}
}

func TestSelectEndpointIrrelevantTextFailsThreshold(t *testing.T) {
	m := NewMatcher(testIndex(t))

	_, score, err := m.SelectEndpoint("cuentame chiste", "CLINICO", nlu.ActionRead, patientEndpoints())

	var low *nlu.LowConfidenceMatchError
	if !errors.As(err, &low) {
		t.Fatalf("err = %v, want *nlu.LowConfidenceMatchError", err)
	}
	if score >= 0.3 {
		t.Errorf("score = %v, want below threshold", score)
	}
}

func TestSelectEndpointOffTopicTextFailsThreshold(t *testing.T) {
	m := NewMatcher(testIndex(t))

	// On-vocabulary module/action, but the text shares nothing with it.
	_, _, err := m.SelectEndpoint("revisar sistema operativo", "CLINICO", nlu.ActionRead, patientEndpoints())

	var low *nlu.LowConfidenceMatchError
	if !errors.As(err, &low) {
		t.Fatalf("err = %v, want *nlu.LowConfidenceMatchError", err)
	}
}

func TestSelectEndpointDeterministic(t *testing.T) {
	m := NewMatcher(testIndex(t))

	firstEp, firstScore, err := m.SelectEndpoint("buscar paciente juan perez", "CLINICO", nlu.ActionRead, patientEndpoints())
	if err != nil {
		t.Fatalf("SelectEndpoint() error = %v", err)
	}
	for i := 0; i < 50; i++ {
		ep, score, err := m.SelectEndpoint("buscar paciente juan perez", "CLINICO", nlu.ActionRead, patientEndpoints())
		if err != nil {
			t.Fatalf("run %d: error = %v", i, err)
		}
		if ep.ID != firstEp.ID || score != firstScore {
			t.Fatalf("run %d: got (%s, %v), want (%s, %v)", i, ep.ID, score, firstEp.ID, firstScore)
		}
	}
}

func TestSelectEndpointTieResolvesToFirst(t *testing.T) {
	m := NewMatcher(testIndex(t))

	a := patientEndpoints()[0]
	b := a
	b.ID = "duplicate"

	ep, _, err := m.SelectEndpoint("listar pacientes", "CLINICO", nlu.ActionRead, []entity.Endpoint{a, b})
	if err != nil {
		t.Fatalf("SelectEndpoint() error = %v", err)
	}
	if ep.ID != a.ID {
		t.Errorf("tie resolved to %q, want first candidate %q", ep.ID, a.ID)
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"both empty", nil, nil, 0},
		{"identical", []string{"a", "b"}, []string{"a", "b"}, 1},
		{"disjoint", []string{"a"}, []string{"b"}, 0},
		{"half overlap", []string{"a", "b"}, []string{"b", "c"}, 1.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := jaccard(set(tt.a), set(tt.b))
			if got != tt.want {
				t.Errorf("jaccard = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitRoute(t *testing.T) {
	got := splitRoute("/api/finanzas/facturas/{numero}")
	want := []string{"api", "finanzas", "facturas", "numero"}
	if len(got) != len(want) {
		t.Fatalf("splitRoute = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func set(words []string) map[string]bool {
	s := make(map[string]bool, len(words))
	for _, w := range words {
		s[w] = true
	}
	return s
}
