// Copyright (c) 2026 Bloomify. All rights reserved.

package respond_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/apperr"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/respond"
)

/*
TestError_Envelope verifies status mapping and that internal causes stay hidden.
*/
func TestError_Envelope(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"conflict", apperr.Conflict("Username is already taken"), http.StatusConflict, "CONFLICT"},
		{"external", apperr.ExternalService("Inference service", errors.New("dial tcp")), http.StatusBadGateway, "EXTERNAL_SERVICE_ERROR"},
		{"plain_error", errors.New("pq: secret table name"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respond.Error(recorder, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.status, recorder.Code)

			var envelope respond.ErrorEnvelope
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
			assert.Equal(t, tt.code, envelope.Code)
			assert.NotContains(t, envelope.Error, "secret")
			assert.NotContains(t, envelope.Error, "dial tcp")
		})
	}
}

/*
TestAttachment sets download headers.
*/
func TestAttachment(t *testing.T) {
	recorder := httptest.NewRecorder()
	respond.Attachment(recorder, "paper.md", "text/markdown; charset=utf-8", []byte("# Paper"))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", recorder.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=paper.md", recorder.Header().Get("Content-Disposition"))
	assert.Equal(t, "# Paper", recorder.Body.String())
}
