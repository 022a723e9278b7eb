package response

import (
	"errors"

	"microloan/internal/core/domain"

	"github.com/gofiber/fiber/v2"
)

// Response is the envelope of every API reply
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func reply(c *fiber.Ctx, status int, r Response) error {
	return c.Status(status).JSON(r)
}

// Success sends a 200 with data
func Success(c *fiber.Ctx, message string, data interface{}) error {
	return reply(c, fiber.StatusOK, Response{Success: true, Message: message, Data: data})
}

// Created sends a 201 with the created resource
func Created(c *fiber.Ctx, message string, data interface{}) error {
	return reply(c, fiber.StatusCreated, Response{Success: true, Message: message, Data: data})
}

// Paginated sends a 200 with a list and its pagination metadata
func Paginated(c *fiber.Ctx, message string, data, meta interface{}) error {
	return reply(c, fiber.StatusOK, Response{Success: true, Message: message, Data: data, Meta: meta})
}

// Error sends a failure envelope with statusCode
func Error(c *fiber.Ctx, statusCode int, message string) error {
	return reply(c, statusCode, Response{Error: message})
}

// BadRequest sends a 400
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

// NotFound sends a 404
func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message)
}

// TooManyRequests sends a 429
func TooManyRequests(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusTooManyRequests, message)
}

// InternalServerError sends a 500
func InternalServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

var errorStatus = []struct {
	err     error
	status  int
	message string
}{
	{domain.ErrTokenExpired, fiber.StatusUnauthorized, "Access token expired"},
	{domain.ErrTokenInvalid, fiber.StatusUnauthorized, "Unauthorized access"},
	{domain.ErrUnauthenticated, fiber.StatusUnauthorized, "Unauthorized access"},
	{domain.ErrForbidden, fiber.StatusForbidden, "Forbidden access"},
	{domain.ErrNotFound, fiber.StatusNotFound, "Resource not found"},
	{domain.ErrDuplicate, fiber.StatusConflict, "Resource already exists"},
	{domain.ErrUpstream, fiber.StatusInternalServerError, "Upstream service failure, please retry"},
}

// FromError maps a domain error to its HTTP status. Only invalid-request
// errors expose their text; upstream and unknown failures carry no detail.
func FromError(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrInvalidRequest) {
		return BadRequest(c, err.Error())
	}
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			return Error(c, m.status, m.message)
		}
	}
	return InternalServerError(c, "Internal server error")
}
