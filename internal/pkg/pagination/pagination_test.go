package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestGetParams(t *testing.T) {
	tests := []struct {
		query      string
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{query: "", wantPage: 1, wantLimit: DefaultLimit, wantOffset: 0},
		{query: "?page=3&limit=10", wantPage: 3, wantLimit: 10, wantOffset: 20},
		{query: "?page=-1&limit=0", wantPage: 1, wantLimit: DefaultLimit, wantOffset: 0},
		{query: "?limit=1000", wantPage: 1, wantLimit: MaxLimit, wantOffset: 0},
		{query: "?page=abc", wantPage: 1, wantLimit: DefaultLimit, wantOffset: 0},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			var got *Params
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				got = GetParams(c)
				return nil
			})
			if _, err := app.Test(httptest.NewRequest("GET", "/"+tc.query, nil)); err != nil {
				t.Fatalf("request error = %v", err)
			}
			if got.Page != tc.wantPage || got.Limit != tc.wantLimit || got.Offset != tc.wantOffset {
				t.Fatalf("GetParams = %+v, want page %d limit %d offset %d", got, tc.wantPage, tc.wantLimit, tc.wantOffset)
			}
		})
	}
}

func TestGetMeta(t *testing.T) {
	m := GetMeta(&Params{Page: 2, Limit: 10}, 25)
	if m.TotalPages != 3 || !m.HasNext || !m.HasPrev {
		t.Fatalf("GetMeta = %+v, want 3 pages with next and prev", m)
	}
}
