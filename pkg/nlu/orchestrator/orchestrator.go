// FILE: pkg/nlu/orchestrator/orchestrator.go
// PURPOSE: Multi-turn state machine over the classification/matching pipeline

package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/segovia241/ia-erp-universal/internal/entity"
	"github.com/segovia241/ia-erp-universal/pkg/nlu"
	"github.com/segovia241/ia-erp-universal/pkg/nlu/intent"
	"github.com/segovia241/ia-erp-universal/pkg/nlu/matcher"
	"github.com/segovia241/ia-erp-universal/pkg/nlu/normalizer"
	"github.com/segovia241/ia-erp-universal/pkg/nlu/params"
	"github.com/segovia241/ia-erp-universal/pkg/nlu/vocabulary"
)

// SessionStore is the only shared mutable resource of the engine. Update must
// serialize read-modify-write per session id so two near-simultaneous
// follow-ups cannot both read stale state and drop a merged value.
type SessionStore interface {
	Get(ctx context.Context, id string) (*nlu.Session, bool, error)
	Put(ctx context.Context, session *nlu.Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	// Update runs fn under the per-key lock. fn may mutate the session in
	// place and returns keep=false to delete it. found is false when the id is
	// unknown or already expired.
	Update(ctx context.Context, id string, fn func(session *nlu.Session) (keep bool, err error)) (found bool, err error)
}

// EndpointCatalog is the external, read-only endpoint lookup table. An empty
// result is a normal outcome, not an error.
type EndpointCatalog interface {
	Lookup(ctx context.Context, module string, action nlu.Action) ([]entity.Endpoint, error)
}

// Result is a sum of the two response kinds: exactly one of Resolved or
// Pending is set.
type Result struct {
	Resolved *nlu.ResolvedAction
	Pending  *PendingResult
}

// PendingResult asks the user for the still-missing required parameters. It
// carries the classified intent so callers can apply permission policy before
// prompting the user any further.
type PendingResult struct {
	SessionID string
	Module    string
	Action    nlu.Action
	Missing   []nlu.MissingParameter
	Prompt    string
}

const (
	DefaultSessionTTL    = 15 * time.Minute
	DefaultSweepInterval = 5 * time.Minute
)

// Orchestrator drives: normalize -> classify -> match -> extract, then either
// emits a final action or parks the partial result in a session until the user
// supplies what is missing.
type Orchestrator struct {
	index      *vocabulary.Index
	normalizer *normalizer.Normalizer
	classifier *intent.Classifier
	matcher    *matcher.Matcher
	extractor  *params.Extractor
	catalog    EndpointCatalog
	store      SessionStore
	ttl        time.Duration
}

func New(index *vocabulary.Index, catalog EndpointCatalog, store SessionStore) *Orchestrator {
	cfg := index.Config()
	ttl := DefaultSessionTTL
	if cfg.Settings.SessionTTLMinutes > 0 {
		ttl = time.Duration(cfg.Settings.SessionTTLMinutes) * time.Minute
	}
	return &Orchestrator{
		index:      index,
		normalizer: normalizer.New(cfg.Normalizer),
		classifier: intent.NewClassifier(index),
		matcher:    matcher.NewMatcher(index),
		extractor:  params.NewExtractor(index),
		catalog:    catalog,
		store:      store,
		ttl:        ttl,
	}
}

// Resolve handles one incoming message. A session id pointing at a live
// session routes to the follow-up path; an unknown or expired id falls through
// to a fresh resolution, by design.
func (o *Orchestrator) Resolve(ctx context.Context, message, sessionID string, allowedModules []string, erpID string) (*Result, error) {
	if sessionID != "" {
		result, found, err := o.followUp(ctx, sessionID, message)
		if err != nil {
			return nil, err
		}
		if found {
			return result, nil
		}
	}
	return o.fresh(ctx, message, allowedModules, erpID)
}

func (o *Orchestrator) fresh(ctx context.Context, message string, allowedModules []string, erpID string) (*Result, error) {
	normalized := o.normalizer.Normalize(message)

	result := o.classifier.Classify(normalized, allowedModules)
	gate := o.index.Config().Scoring.Gate.MinIntentScore
	if result.Score < gate {
		return nil, &nlu.InsufficientConfidenceError{
			Score:            result.Score,
			AvailableModules: o.availableModules(allowedModules),
		}
	}

	candidates, err := o.catalog.Lookup(ctx, result.Module, result.Action)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup %s/%s: %w", result.Module, result.Action, err)
	}

	endpoint, confidence, err := o.matcher.SelectEndpoint(normalized, result.Module, result.Action, candidates)
	if err != nil {
		if low, ok := err.(*nlu.LowConfidenceMatchError); ok {
			low.AvailableModules = o.availableModules(allowedModules)
		}
		return nil, err
	}

	payload := o.extractor.BuildPayload(endpoint, message)
	missing := params.MissingRequired(endpoint, payload)

	resolved := nlu.ResolvedAction{
		Module:     result.Module,
		Action:     result.Action,
		Route:      endpoint.Route,
		HTTPMethod: endpoint.HTTPMethod,
		Payload:    payload,
		Confidence: confidence,
	}

	if len(missing) == 0 {
		return &Result{Resolved: &resolved}, nil
	}

	session := &nlu.Session{
		ID:        uuid.NewString(),
		Pending:   resolved,
		Missing:   missing,
		Endpoint:  *endpoint,
		ErpID:     erpID,
		CreatedAt: time.Now(),
	}
	if err := o.store.Put(ctx, session, o.ttl); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &Result{Pending: &PendingResult{
		SessionID: session.ID,
		Module:    resolved.Module,
		Action:    resolved.Action,
		Missing:   missing,
		Prompt:    o.prompt(&resolved, missing),
	}}, nil
}

// Discard drops a pending session, for callers that reject the classified
// action instead of collecting its parameters.
func (o *Orchestrator) Discard(ctx context.Context, sessionID string) error {
	return o.store.Delete(ctx, sessionID)
}

// followUp merges newly extracted values into the pending payload under the
// session's per-key lock and recomputes the missing set. The session TTL stays
// anchored at the original creation time.
func (o *Orchestrator) followUp(ctx context.Context, sessionID, message string) (*Result, bool, error) {
	var result *Result

	found, err := o.store.Update(ctx, sessionID, func(session *nlu.Session) (bool, error) {
		if time.Since(session.CreatedAt) > o.ttl {
			// Expired but not yet swept: drop it and let the caller start fresh.
			return false, errSessionExpired
		}

		o.extractor.ExtractInto(session.Pending.Payload, &session.Endpoint, session.Missing, message)
		session.Missing = params.MissingRequired(&session.Endpoint, session.Pending.Payload)

		if len(session.Missing) == 0 {
			resolved := session.Pending
			result = &Result{Resolved: &resolved}
			return false, nil
		}

		result = &Result{Pending: &PendingResult{
			SessionID: session.ID,
			Module:    session.Pending.Module,
			Action:    session.Pending.Action,
			Missing:   session.Missing,
			Prompt:    o.prompt(&session.Pending, session.Missing),
		}}
		return true, nil
	})
	if err == errSessionExpired {
		_ = o.store.Delete(ctx, sessionID)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return result, true, nil
}

var errSessionExpired = fmt.Errorf("session expired")

func (o *Orchestrator) availableModules(allowed []string) []string {
	if len(allowed) > 0 {
		return allowed
	}
	return o.index.ModuleOrder
}

var actionVerbs = map[nlu.Action]string{
	nlu.ActionCreate: "crear",
	nlu.ActionRead:   "consultar",
	nlu.ActionUpdate: "actualizar",
	nlu.ActionDelete: "eliminar",
}

// prompt is purely presentational; the resolution contract is the missing set.
func (o *Orchestrator) prompt(pending *nlu.ResolvedAction, missing []nlu.MissingParameter) string {
	verb := actionVerbs[pending.Action]
	if verb == "" {
		verb = strings.ToLower(string(pending.Action))
	}
	module := strings.ToLower(pending.Module)

	if len(missing) == 1 {
		return fmt.Sprintf("Para %s %s, necesito %s.", verb, module, missing[0].Description)
	}
	descs := make([]string, len(missing))
	for i, m := range missing {
		descs[i] = m.Description
	}
	return fmt.Sprintf("Para %s %s, necesito: %s.", verb, module, strings.Join(descs, ", "))
}
