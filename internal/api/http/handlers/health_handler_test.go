package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportdesk/ticket-dashboard/internal/persistence"
)

func TestReady_InMemoryBootReportsReady(t *testing.T) {
	app := fiber.New()
	// No pool and no redis, as when POSTGRES_DSN is empty and the relay
	// is disabled. Both backends must be skipped, not failed.
	h := NewHealthHandler("ticket-dashboard", "test", &persistence.Postgres{}, nil)
	app.Get("/health/ready", h.Ready)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestReady_NilDependenciesSkipped(t *testing.T) {
	app := fiber.New()
	h := NewHealthHandler("ticket-dashboard", "test", nil, nil)
	app.Get("/health/ready", h.Ready)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
