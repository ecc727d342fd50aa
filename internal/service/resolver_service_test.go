package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"

	"github.com/segovia241/ia-erp-universal/internal/dto"
	"github.com/segovia241/ia-erp-universal/internal/entity"
	"github.com/segovia241/ia-erp-universal/internal/repository/memory"
	"github.com/segovia241/ia-erp-universal/pkg/events"
	"github.com/segovia241/ia-erp-universal/pkg/nlu"
	"github.com/segovia241/ia-erp-universal/pkg/nlu/orchestrator"
	"github.com/segovia241/ia-erp-universal/pkg/nlu/vocabulary"
)

type noopLogger struct{}

func (noopLogger) Debug(string, string, map[string]interface{}) {}
func (noopLogger) Info(string, string, map[string]interface{})  {}
func (noopLogger) Warn(string, string, map[string]interface{})  {}
func (noopLogger) Error(string, string, map[string]interface{}) {}
func (noopLogger) Sync() error                                  { return nil }

type stubCatalog struct {
	endpoints []entity.Endpoint
}

func (s *stubCatalog) Lookup(_ context.Context, module string, action nlu.Action) ([]entity.Endpoint, error) {
	var out []entity.Endpoint
	for _, ep := range s.endpoints {
		if ep.Module == module && ep.Action == string(action) {
			out = append(out, ep)
		}
	}
	return out, nil
}

func (s *stubCatalog) Modules(context.Context) ([]string, error) {
	return []string{"CLINICO", "VENTAS"}, nil
}

func serviceConfig() *vocabulary.Config {
	return &vocabulary.Config{
		Settings: vocabulary.Settings{
			DefaultModule:      "VENTAS",
			DefaultAction:      "READ",
			SearchFilterFields: []string{"filtro"},
			SessionTTLMinutes:  15,
		},
		Vocabulary: vocabulary.VocabularySet{
			Modules: map[string]vocabulary.ModuleVocabulary{
				"CLINICO": {Keywords: []string{"paciente", "pacientes"}},
				"VENTAS":  {Keywords: []string{"cliente", "clientes"}, RelatedWords: []string{"monto"}},
			},
			Actions: map[string]vocabulary.ActionVocabulary{
				"CREATE": {Keywords: []string{"crear", "registrar"}},
				"READ":   {Keywords: []string{"listar", "buscar", "consultar"}},
			},
		},
		Patterns: vocabulary.PatternSet{
			Parameters: map[string][]string{
				"nombre": {`(?i)nombre(?:\s+es)?[:\s]+([A-Za-z0-9]+)`},
				"monto":  {`(?i)monto(?:\s+de)?[:\s]+(\d+)`},
			},
		},
		Scoring: vocabulary.ScoringSet{
			Module: vocabulary.MatchWeights{ExactMatch: 10, WholeWord: 5, Partial: 2, RelatedWord: 1.5, Threshold: 4},
			Action: vocabulary.MatchWeights{ExactMatch: 10, WholeWord: 5, Partial: 2, RelatedWord: 1.5, Threshold: 4},
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
}

func serviceEndpoints() []entity.Endpoint {
	return []entity.Endpoint{
		{
			ID:          "clinico-pacientes-listar",
			Module:      "CLINICO",
			Action:      "READ",
			Route:       "/api/clinico/pacientes",
			HTTPMethod:  "GET",
			Name:        "Listar pacientes",
			Description: "Obtiene el listado de pacientes",
			Parameters: []entity.Parameter{
				{Name: "filtro", Type: entity.TypeString, Required: false, Description: "un filtro opcional"},
			},
		},
		{
			ID:          "ventas-clientes-crear",
			Module:      "VENTAS",
			Action:      "CREATE",
			Route:       "/api/ventas/clientes",
			HTTPMethod:  "POST",
			Name:        "Crear cliente",
			Description: "Crea un nuevo cliente de ventas",
			Parameters: []entity.Parameter{
				{Name: "nombre", Type: entity.TypeString, Required: true, Description: "el nombre del cliente"},
				{Name: "monto", Type: entity.TypeInt, Required: true, Description: "el monto inicial"},
			},
		},
	}
}

func newTestService(t *testing.T, pubSub *gochannel.GoChannel) IResolverService {
	t.Helper()
	idx, err := vocabulary.NewIndex(serviceConfig())
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}
	store := memory.NewSessionRepository(15*time.Minute, time.Minute)
	t.Cleanup(store.Close)

	catalog := &stubCatalog{endpoints: serviceEndpoints()}
	engine := orchestrator.New(idx, catalog, store)
	return NewResolverService(engine, catalog, nil, 5*time.Second, pubSub, "resolver.audit", noopLogger{})
}

func resolveRequest(message string) *dto.ResolveRequest {
	return &dto.ResolveRequest{
		Message: message,
		Context: dto.RequestContext{
			ErpID: "erp-1",
			Permissions: dto.Permissions{
				Modules: []string{"CLINICO", "VENTAS"},
			},
		},
	}
}

func TestServiceResolve(t *testing.T) {
	svc := newTestService(t, nil)

	outcome, err := svc.Resolve(context.Background(), resolveRequest("listar pacientes"))

	assert.NoError(t, err)
	assert.NotNil(t, outcome.Resolved)
	assert.Nil(t, outcome.Pending)
	assert.Equal(t, "CLINICO", outcome.Resolved.Module)
	assert.Equal(t, "READ", outcome.Resolved.Action)
	assert.Equal(t, "/api/clinico/pacientes", outcome.Resolved.EndpointRoute)
	assert.Equal(t, "engine", outcome.Resolved.Source)
}

func TestServiceResolveSessionFlow(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	first, err := svc.Resolve(ctx, resolveRequest("crear cliente"))
	assert.NoError(t, err)
	assert.NotNil(t, first.Pending)
	assert.NotEmpty(t, first.Pending.SessionID)
	assert.Len(t, first.Pending.NeedsParameters, 2)
	assert.Equal(t, "nombre", first.Pending.NeedsParameters[0].Param)

	followUp := resolveRequest("nombre ACME monto 500")
	followUp.SessionID = first.Pending.SessionID
	second, err := svc.Resolve(ctx, followUp)
	assert.NoError(t, err)
	assert.NotNil(t, second.Resolved)
	assert.Equal(t, "ACME", second.Resolved.Payload["nombre"])
	assert.Equal(t, 500, second.Resolved.Payload["monto"])
}

func TestServiceValidatesRequest(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *dto.ResolveRequest
	}{
		{
			name: "empty message",
			req: &dto.ResolveRequest{
				Context: dto.RequestContext{ErpID: "erp-1"},
			},
		},
		{
			name: "missing erp id",
			req: &dto.ResolveRequest{
				Message: "listar pacientes",
			},
		},
		{
			name: "malformed session id",
			req: &dto.ResolveRequest{
				Message:   "listar pacientes",
				SessionID: "not-a-uuid",
				Context:   dto.RequestContext{ErpID: "erp-1"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Resolve(ctx, tt.req)
			assert.Error(t, err)
		})
	}
}

func TestServiceActionNotPermitted(t *testing.T) {
	svc := newTestService(t, nil)

	req := resolveRequest("listar pacientes")
	req.Context.Permissions.Modules = []string{"CLINICO", "VENTAS"}
	req.Context.Permissions.Actions = []string{"CREATE"}

	_, err := svc.Resolve(context.Background(), req)

	var notPermitted *nlu.ActionNotPermittedError
	assert.ErrorAs(t, err, &notPermitted)
}

func TestServiceDeniesForbiddenActionBeforePromptingForParameters(t *testing.T) {
	svc := newTestService(t, nil)

	// "crear cliente" is short of its required parameters; a caller without
	// CREATE must be refused up front, not after supplying nombre and monto.
	req := resolveRequest("crear cliente")
	req.Context.Permissions.Actions = []string{"READ"}

	outcome, err := svc.Resolve(context.Background(), req)

	assert.Nil(t, outcome)
	var notPermitted *nlu.ActionNotPermittedError
	assert.ErrorAs(t, err, &notPermitted)
	assert.Equal(t, nlu.Action("CREATE"), notPermitted.Action)
	assert.Equal(t, []string{"READ"}, notPermitted.Allowed)
}

func TestServiceRejectsOffTopic(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Resolve(context.Background(), resolveRequest("cuentame un chiste"))

	var insufficient *nlu.InsufficientConfidenceError
	assert.ErrorAs(t, err, &insufficient)
	assert.Equal(t, []string{"CLINICO", "VENTAS"}, insufficient.AvailableModules)
}

func TestServicePublishesAuditEvent(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	svc := newTestService(t, pubSub)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, "resolver.audit")
	assert.NoError(t, err)

	_, err = svc.Resolve(context.Background(), resolveRequest("listar pacientes"))
	assert.NoError(t, err)

	select {
	case msg := <-messages:
		var envelope struct {
			Type string `json:"type"`
		}
		assert.NoError(t, json.Unmarshal(msg.Payload, &envelope))
		assert.Equal(t, events.TypeActionResolved, envelope.Type)
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("no audit event received")
	}
}

func TestServiceModules(t *testing.T) {
	svc := newTestService(t, nil)

	modules, err := svc.Modules(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, []string{"CLINICO", "VENTAS"}, modules)
}
