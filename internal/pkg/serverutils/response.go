package serverutils

import (
	"github.com/gofiber/fiber/v2"
)

type ErrorBody struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func ErrorResponse(code int, message string) ErrorBody {
	return ErrorBody{Code: code, Message: message}
}

func ErrorResponseWithDetails(code int, message string, details map[string]interface{}) ErrorBody {
	return ErrorBody{Code: code, Message: message, Details: details}
}

// ErrorHandlerMiddleware recovers panics into a 500 envelope so a bad request
// cannot take the worker down.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			if r := recover(); r != nil {
				_ = ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(500, "internal server error"))
			}
		}()
		return ctx.Next()
	}
}
