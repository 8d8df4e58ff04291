package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func preflight(t *testing.T, app *fiber.App, origin, method string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodOptions, "/sessions", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", method)
	resp, err := app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func TestCORS_Preflight(t *testing.T) {
	app := fiber.New()
	app.Use(CORS())
	app.Delete("/sessions", func(c fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) })

	resp := preflight(t, app, "http://editor.local", http.MethodDelete)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	methods := resp.Header.Get("Access-Control-Allow-Methods")
	for _, m := range []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"} {
		assert.Contains(t, methods, m)
	}
	assert.NotContains(t, methods, "PATCH")
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Content-Type")
}

func TestCORS_Origins(t *testing.T) {
	app := fiber.New()
	app.Use(CORS("http://editor.local"))
	app.Get("/sessions", func(c fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	resp := preflight(t, app, "http://editor.local", http.MethodGet)
	assert.Equal(t, "http://editor.local", resp.Header.Get("Access-Control-Allow-Origin"))

	resp = preflight(t, app, "http://elsewhere.local", http.MethodGet)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
