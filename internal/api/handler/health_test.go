package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_Health(t *testing.T) {
	app := fiber.New()
	h := NewHealthHandler("1.2.3", nil, testLogger())
	app.Get("/health", h.Health)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, "1.2.3", result.Version)
}

func TestHealthHandler_Ready(t *testing.T) {
	ok := func(context.Context) error { return nil }
	failing := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		checks     map[string]Check
		wantStatus int
		wantState  string
	}{
		{
			name:       "no checks",
			wantStatus: 200,
			wantState:  "ready",
		},
		{
			name:       "all passing",
			checks:     map[string]Check{"models": ok, "database": ok},
			wantStatus: 200,
			wantState:  "ready",
		},
		{
			name:       "one failing",
			checks:     map[string]Check{"models": ok, "database": failing},
			wantStatus: 503,
			wantState:  "not_ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			h := NewHealthHandler("", tt.checks, testLogger())
			app.Get("/ready", h.Ready)

			resp, err := app.Test(httptest.NewRequest("GET", "/ready", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var result HealthResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
			assert.Equal(t, tt.wantState, result.Status)
			for name := range tt.checks {
				assert.Contains(t, result.Checks, name)
			}
		})
	}
}
