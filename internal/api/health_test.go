// Copyright (c) 2026 Bloomify. All rights reserved.

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/api"
)

func healthy(context.Context) error { return nil }

func failing(context.Context) error { return errors.New("connection refused") }

type readyBody struct {
	Data struct {
		Status string `json:"status"`
		Checks []struct {
			Name  string `json:"name"`
			OK    bool   `json:"ok"`
			Error string `json:"error"`
		} `json:"checks"`
	} `json:"data"`
}

/*
TestReadiness fails only on critical dependencies.
*/
func TestReadiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     []api.HealthCheck
		wantStatus int
		wantState  string
	}{
		{
			name: "all_healthy",
			checks: []api.HealthCheck{
				{Name: "postgres", Check: healthy},
				{Name: "redis", Check: healthy},
			},
			wantStatus: http.StatusOK,
			wantState:  "ready",
		},
		{
			name: "critical_down",
			checks: []api.HealthCheck{
				{Name: "postgres", Check: healthy},
				{Name: "mongo", Check: failing},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "degraded",
		},
		{
			name: "optional_down",
			checks: []api.HealthCheck{
				{Name: "postgres", Check: healthy},
				{Name: "inference", Check: failing, Optional: true},
			},
			wantStatus: http.StatusOK,
			wantState:  "ready",
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, readiness := api.NewHealthHandlers(tt.checks, logger)
			recorder := httptest.NewRecorder()

			readiness(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantStatus, recorder.Code)
			var body readyBody
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			assert.Equal(t, tt.wantState, body.Data.Status)
			require.Len(t, body.Data.Checks, len(tt.checks))
			for i, check := range body.Data.Checks {
				assert.Equal(t, tt.checks[i].Name, check.Name)
			}
		})
	}
}

/*
TestLiveness always answers ok.
*/
func TestLiveness(t *testing.T) {
	liveness, _ := api.NewHealthHandlers([]api.HealthCheck{{Name: "postgres", Check: failing}}, slog.Default())
	recorder := httptest.NewRecorder()

	liveness(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"data":{"status":"ok"}}`, recorder.Body.String())
}
