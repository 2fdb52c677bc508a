package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func paginationFor(t *testing.T, query string) PaginationParams {
	t.Helper()

	app := fiber.New()
	var params PaginationParams
	app.Get("/", func(c *fiber.Ctx) error {
		params = ParsePagination(c)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/?"+query, nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	return params
}

func TestParsePaginationDefaults(t *testing.T) {
	params := paginationFor(t, "")
	if params.Page != 1 || params.Limit != 10 || params.Offset != 0 {
		t.Fatalf("unexpected defaults: %+v", params)
	}
}

func TestParsePaginationClamps(t *testing.T) {
	cases := []struct {
		query  string
		page   int
		limit  int
		offset int
	}{
		{"page=3&limit=25", 3, 25, 50},
		{"page=0&limit=0", 1, 10, 0},
		{"page=-5&limit=-1", 1, 10, 0},
		{"page=2&limit=500", 2, 100, 100},
		{"page=abc&limit=xyz", 1, 10, 0},
	}

	for _, tc := range cases {
		params := paginationFor(t, tc.query)
		if params.Page != tc.page || params.Limit != tc.limit || params.Offset != tc.offset {
			t.Fatalf("query %q: expected page=%d limit=%d offset=%d, got %+v",
				tc.query, tc.page, tc.limit, tc.offset, params)
		}
	}
}
