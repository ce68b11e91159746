package response

import "github.com/gofiber/fiber/v2"

// Error codes for failures that do not come from the pipeline
const (
	CodeValidationError = "ValidationFailure"
	CodeRateLimited     = "RateLimited"
	CodeServiceError    = "ServiceError"
)

// ErrorResponse is the failure envelope of every endpoint
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
	Kind    string      `json:"kind,omitempty"`
}

func Error(c *fiber.Ctx, status int, kind, message string, details interface{}) error {
	return c.Status(status).JSON(ErrorResponse{
		Success: false,
		Error:   message,
		Details: details,
		Kind:    kind,
	})
}

func ValidationError(c *fiber.Ctx, message string, details interface{}) error {
	return Error(c, fiber.StatusBadRequest, CodeValidationError, message, details)
}

// Failure reports a pipeline stage failure
func Failure(c *fiber.Ctx, kind, message, details string) error {
	return Error(c, fiber.StatusInternalServerError, kind, message, details)
}

func RateLimited(c *fiber.Ctx) error {
	return Error(c, fiber.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded", nil)
}

func ServiceError(c *fiber.Ctx, message, details string) error {
	return Error(c, fiber.StatusInternalServerError, CodeServiceError, message, details)
}

func OK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(data)
}
