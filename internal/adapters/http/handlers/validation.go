package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// parseBody decodes the JSON body into req and validates its tags. The
// returned message is safe to show to the client.
func parseBody(c *fiber.Ctx, req interface{}) (string, bool) {
	if err := c.BodyParser(req); err != nil {
		return "Invalid request body", false
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
			}
			return strings.Join(msgs, "; "), false
		}
		return "Invalid request body", false
	}
	return "", true
}

// getClientIP returns the client address recorded in application history.
// Forwarding headers are resolved by fiber per middleware.AppConfig.
func getClientIP(c *fiber.Ctx) string {
	return c.IP()
}
