package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"microloan/internal/adapters/http/middleware"
	"microloan/internal/config"

	"github.com/gofiber/fiber/v2"
)

func TestGetClientIPIgnoresUntrustedForwarding(t *testing.T) {
	tests := []struct {
		name      string
		trusted   []string
		forwarded string
		want      string
		wantNot   string
	}{
		{name: "no trusted proxies", forwarded: "203.0.113.7", wantNot: "203.0.113.7"},
		{name: "peer not trusted", trusted: []string{"10.9.9.9"}, forwarded: "203.0.113.7", wantNot: "203.0.113.7"},
		{name: "trusted peer, first hop", trusted: []string{"0.0.0.0"}, forwarded: "203.0.113.7, 10.0.0.1", want: "203.0.113.7"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New(middleware.AppConfig(&config.Config{TrustedProxies: tc.trusted}))
			app.Get("/", func(c *fiber.Ctx) error { return c.SendString(getClientIP(c)) })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Forwarded-For", tc.forwarded)
			req.Header.Set("X-Real-IP", "198.51.100.1")
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("request error = %v", err)
			}
			defer resp.Body.Close()
			b, _ := io.ReadAll(resp.Body)
			got := string(b)

			if got == "198.51.100.1" {
				t.Fatalf("getClientIP = %q, taken from X-Real-IP", got)
			}
			if tc.want != "" && got != tc.want {
				t.Fatalf("getClientIP = %q, want %q", got, tc.want)
			}
			if tc.wantNot != "" && got == tc.wantNot {
				t.Fatalf("getClientIP = %q, forwarded header trusted from untrusted peer", got)
			}
		})
	}
}
