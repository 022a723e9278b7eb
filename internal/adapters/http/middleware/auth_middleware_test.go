package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"microloan/internal/core/domain"
	"microloan/internal/core/guard"

	"github.com/gofiber/fiber/v2"
)

type tokenTable map[string]string

func (t tokenTable) Verify(_ context.Context, token string) (string, error) {
	email, ok := t[token]
	if !ok {
		return "", domain.ErrTokenInvalid
	}
	return email, nil
}

func TestGuardCredentialSources(t *testing.T) {
	verifier := tokenTable{"fresh": "a@example.com"}

	tests := []struct {
		name   string
		bearer string
		cookie string
		want   int
	}{
		{name: "bearer only", bearer: "fresh", want: http.StatusOK},
		{name: "cookie only", cookie: "fresh", want: http.StatusOK},
		{name: "bearer wins over stale cookie", bearer: "fresh", cookie: "stale", want: http.StatusOK},
		{name: "stale cookie alone", cookie: "stale", want: http.StatusUnauthorized},
		{name: "empty bearer falls back to cookie", bearer: " ", cookie: "fresh", want: http.StatusOK},
		{name: "nothing", want: http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", Guard(guard.RequireAuthenticated(verifier)), func(c *fiber.Ctx) error {
				return c.SendString(Principal(c).Email)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tc.bearer)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "access_token", Value: tc.cookie})
			}
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("request error = %v", err)
			}
			if resp.StatusCode != tc.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}
