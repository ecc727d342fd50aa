// FILE: internal/controller/resolver_controller.go
package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/segovia241/ia-erp-universal/internal/dto"
	"github.com/segovia241/ia-erp-universal/internal/pkg/serverutils"
	"github.com/segovia241/ia-erp-universal/internal/service"
	"github.com/segovia241/ia-erp-universal/pkg/nlu"
)

type IResolverController interface {
	RegisterRoutes(r fiber.Router, middleware ...fiber.Handler)
	Resolve(ctx *fiber.Ctx) error
	GetModules(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type resolverController struct {
	service service.IResolverService
}

func NewResolverController(service service.IResolverService) IResolverController {
	return &resolverController{service: service}
}

func (c *resolverController) RegisterRoutes(r fiber.Router, middleware ...fiber.Handler) {
	h := r.Group("/resolver")
	h.Get("/health", c.Health)
	h.Get("/modules", withHandlers(middleware, c.GetModules)...)
	h.Post("/resolve", withHandlers(middleware, c.Resolve)...)
}

func withHandlers(middleware []fiber.Handler, final fiber.Handler) []fiber.Handler {
	chain := make([]fiber.Handler, 0, len(middleware)+1)
	chain = append(chain, middleware...)
	return append(chain, final)
}

func (c *resolverController) Resolve(ctx *fiber.Ctx) error {
	var req dto.ResolveRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "invalid request body"))
	}

	outcome, err := c.service.Resolve(ctx.Context(), &req)
	if err != nil {
		return c.mapError(ctx, err)
	}

	if outcome.Pending != nil {
		return ctx.Status(fiber.StatusAccepted).JSON(outcome.Pending)
	}
	return ctx.JSON(outcome.Resolved)
}

func (c *resolverController) GetModules(ctx *fiber.Ctx) error {
	modules, err := c.service.Modules(ctx.Context())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(fiber.Map{"modules": modules})
}

func (c *resolverController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"status": "ok"})
}

// mapError turns the engine's typed errors into conversational HTTP envelopes.
// Every recoverable error carries enough data for the caller to re-prompt.
func (c *resolverController) mapError(ctx *fiber.Ctx, err error) error {
	var insufficient *nlu.InsufficientConfidenceError
	var lowMatch *nlu.LowConfidenceMatchError
	var noCandidate *nlu.NoEndpointCandidateError
	var moduleDenied *nlu.ModuleNotPermittedError
	var actionDenied *nlu.ActionNotPermittedError

	switch {
	case errors.As(err, &insufficient):
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(serverutils.ErrorResponseWithDetails(
			422, "No pude entender la instruccion con suficiente confianza.",
			fiber.Map{"score": insufficient.Score, "available_modules": insufficient.AvailableModules},
		))
	case errors.As(err, &lowMatch):
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(serverutils.ErrorResponseWithDetails(
			422, "No encontre una operacion que coincida con la instruccion.",
			fiber.Map{"score": lowMatch.Score, "available_modules": lowMatch.AvailableModules},
		))
	case errors.As(err, &noCandidate):
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponseWithDetails(
			404, "No hay operaciones configuradas para ese modulo y accion.",
			fiber.Map{"module": noCandidate.Module, "action": noCandidate.Action},
		))
	case errors.As(err, &moduleDenied):
		return ctx.Status(fiber.StatusForbidden).JSON(serverutils.ErrorResponseWithDetails(
			403, "No tienes permisos para ese modulo.",
			fiber.Map{"module": moduleDenied.Module, "allowed_modules": moduleDenied.Allowed},
		))
	case errors.As(err, &actionDenied):
		return ctx.Status(fiber.StatusForbidden).JSON(serverutils.ErrorResponseWithDetails(
			403, "No tienes permisos para esa accion.",
			fiber.Map{"action": actionDenied.Action, "allowed_actions": actionDenied.Allowed},
		))
	default:
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}
}
