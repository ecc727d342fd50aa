// FILE: internal/service/resolver_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/go-playground/validator/v10"

	"github.com/segovia241/ia-erp-universal/internal/dto"
	"github.com/segovia241/ia-erp-universal/internal/pkg/logger"
	"github.com/segovia241/ia-erp-universal/internal/repository/contract"
	"github.com/segovia241/ia-erp-universal/pkg/events"
	"github.com/segovia241/ia-erp-universal/pkg/interpreter"
	"github.com/segovia241/ia-erp-universal/pkg/nlu"
	"github.com/segovia241/ia-erp-universal/pkg/nlu/orchestrator"
)

// Outcome is the sum of the two success shapes: exactly one field is set.
type Outcome struct {
	Resolved *dto.ResolvedResponse
	Pending  *dto.NeedsParametersResponse
}

type IResolverService interface {
	Resolve(ctx context.Context, req *dto.ResolveRequest) (*Outcome, error)
	Modules(ctx context.Context) ([]string, error)
}

type resolverService struct {
	engine          *orchestrator.Orchestrator
	catalog         contract.ICatalogRepository
	fallback        *interpreter.Interpreter
	fallbackTimeout time.Duration
	pubSub          *gochannel.GoChannel
	auditTopic      string
	validate        *validator.Validate
	logger          logger.ILogger
}

func NewResolverService(
	engine *orchestrator.Orchestrator,
	catalog contract.ICatalogRepository,
	fallback *interpreter.Interpreter,
	fallbackTimeout time.Duration,
	pubSub *gochannel.GoChannel,
	auditTopic string,
	sysLogger logger.ILogger,
) IResolverService {
	return &resolverService{
		engine:          engine,
		catalog:         catalog,
		fallback:        fallback,
		fallbackTimeout: fallbackTimeout,
		pubSub:          pubSub,
		auditTopic:      auditTopic,
		validate:        validator.New(),
		logger:          sysLogger,
	}
}

func (s *resolverService) Resolve(ctx context.Context, req *dto.ResolveRequest) (*Outcome, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	allowed := req.Context.Permissions.Modules
	result, err := s.engine.Resolve(ctx, req.Message, req.SessionID, allowed, req.Context.ErpID)
	if err != nil {
		return s.handleEngineError(ctx, req, err)
	}

	if result.Pending != nil {
		// Deny a forbidden action here, not after the caller has been walked
		// through supplying every parameter for it.
		perms := req.Context.Permissions
		if len(perms.Actions) > 0 && !containsFold(perms.Actions, string(result.Pending.Action)) {
			_ = s.engine.Discard(ctx, result.Pending.SessionID)
			s.publish(events.NewActionRejected(req.Context.ErpID, "action_not_permitted", 0))
			return nil, &nlu.ActionNotPermittedError{Action: result.Pending.Action, Allowed: perms.Actions}
		}
		s.publish(events.NewSessionOpened(req.Context.ErpID, result.Pending.SessionID, len(result.Pending.Missing)))
		return &Outcome{Pending: &dto.NeedsParametersResponse{
			NeedsParameters: dto.ToMissingParameterDTOs(result.Pending.Missing),
			Message:         result.Pending.Prompt,
			SessionID:       result.Pending.SessionID,
		}}, nil
	}

	return s.finish(ctx, req, result.Resolved, "engine")
}

func (s *resolverService) Modules(ctx context.Context) ([]string, error) {
	return s.catalog.Modules(ctx)
}

// finish applies the permission policy check and emits the audit event. The
// check is policy, not scoring: a classified module outside the caller's set
// is surfaced, never substituted.
func (s *resolverService) finish(ctx context.Context, req *dto.ResolveRequest, resolved *nlu.ResolvedAction, source string) (*Outcome, error) {
	perms := req.Context.Permissions
	if len(perms.Modules) > 0 && !containsFold(perms.Modules, resolved.Module) {
		s.publish(events.NewActionRejected(req.Context.ErpID, "module_not_permitted", resolved.Confidence))
		return nil, &nlu.ModuleNotPermittedError{Module: resolved.Module, Allowed: perms.Modules}
	}
	if len(perms.Actions) > 0 && !containsFold(perms.Actions, string(resolved.Action)) {
		s.publish(events.NewActionRejected(req.Context.ErpID, "action_not_permitted", resolved.Confidence))
		return nil, &nlu.ActionNotPermittedError{Action: resolved.Action, Allowed: perms.Actions}
	}

	s.publish(events.NewActionResolved(req.Context.ErpID, resolved.Module, string(resolved.Action), resolved.Route, resolved.Confidence, source))
	s.logger.Info("RESOLVER", "action resolved", map[string]interface{}{
		"module":     resolved.Module,
		"action":     resolved.Action,
		"route":      resolved.Route,
		"confidence": resolved.Confidence,
		"source":     source,
	})

	return &Outcome{Resolved: &dto.ResolvedResponse{
		Module:        resolved.Module,
		Action:        string(resolved.Action),
		EndpointRoute: resolved.Route,
		HTTPMethod:    resolved.HTTPMethod,
		Payload:       resolved.Payload,
		Confidence:    resolved.Confidence,
		Source:        source,
	}}, nil
}

// handleEngineError tries the LLM fallback for the two recoverable
// low-confidence outcomes, then re-surfaces the original error if the
// fallback is disabled or also fails.
func (s *resolverService) handleEngineError(ctx context.Context, req *dto.ResolveRequest, engineErr error) (*Outcome, error) {
	var insufficient *nlu.InsufficientConfidenceError
	var lowMatch *nlu.LowConfidenceMatchError

	retriable := errors.As(engineErr, &insufficient) || errors.As(engineErr, &lowMatch)
	if !retriable || s.fallback == nil {
		s.auditRejection(req.Context.ErpID, engineErr)
		return nil, engineErr
	}

	s.publish(events.BaseEvent{
		Type:       events.TypeFallbackInvoked,
		Data:       map[string]interface{}{"erp_id": req.Context.ErpID},
		OccurredAt: time.Now(),
	})

	fctx, cancel := context.WithTimeout(ctx, s.fallbackTimeout)
	defer cancel()

	resolved, err := s.fallback.Interpret(fctx, req.Message, req.Context.Permissions.Modules, req.Context.ErpID)
	if err != nil {
		s.logger.Warn("RESOLVER", "fallback interpreter failed", map[string]interface{}{"error": err.Error()})
		s.auditRejection(req.Context.ErpID, engineErr)
		return nil, engineErr
	}

	return s.finish(ctx, req, resolved, "fallback")
}

func (s *resolverService) auditRejection(erpID string, err error) {
	score := 0.0
	var insufficient *nlu.InsufficientConfidenceError
	var lowMatch *nlu.LowConfidenceMatchError
	switch {
	case errors.As(err, &insufficient):
		score = insufficient.Score
	case errors.As(err, &lowMatch):
		score = lowMatch.Score
	}
	s.publish(events.NewActionRejected(erpID, err.Error(), score))
}

func (s *resolverService) publish(event events.Event) {
	if s.pubSub == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"type":        event.EventType(),
		"payload":     event.Payload(),
		"occurred_at": event.Timestamp(),
	})
	if err != nil {
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.pubSub.Publish(s.auditTopic, msg); err != nil {
		s.logger.Warn("RESOLVER", "audit publish failed", map[string]interface{}{"error": err.Error()})
	}
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}
