// Copyright (c) 2026 Bloomify. All rights reserved.

package inference_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/inference"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/apperr"
)

func newClient(t *testing.T, handler http.HandlerFunc) *inference.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return inference.NewClient(server.URL+"/", 2*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

/*
TestClient_Infer posts the payload unchanged and returns the body unchanged.
*/
func TestClient_Infer(t *testing.T) {
	client := newClient(t, func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, http.MethodPost, request.Method)
		assert.Equal(t, "/classify/", request.URL.Path)
		assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

		body, _ := io.ReadAll(request.Body)
		assert.JSONEq(t, `{"question":"What is a stack?"}`, string(body))

		_, _ = writer.Write([]byte("Remember"))
	})

	out, err := client.Infer(context.Background(), inference.RouteClassify, []byte(`{"question":"What is a stack?"}`))
	require.NoError(t, err)
	assert.Equal(t, "Remember", string(out))
}

/*
TestClient_Infer_Failures maps upstream failures to EXTERNAL_SERVICE_ERROR.
*/
func TestClient_Infer_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"server_error", http.StatusInternalServerError},
		{"unprocessable", http.StatusUnprocessableEntity},
		{"redirect_status", http.StatusNotModified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			client := newClient(t, func(writer http.ResponseWriter, _ *http.Request) {
				calls++
				writer.WriteHeader(tt.status)
			})

			_, err := client.Infer(context.Background(), inference.RouteSuggest, []byte(`{}`))
			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, "EXTERNAL_SERVICE_ERROR", ae.Code)
			assert.Equal(t, 1, calls, "no retry")
		})
	}

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		server.Close()
		client := inference.NewClient(server.URL, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

		_, err := client.Infer(context.Background(), inference.RouteGenerate, []byte(`{}`))
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, http.StatusBadGateway, ae.HTTPStatus)
	})
}

/*
TestClient_Ping checks the hello route.
*/
func TestClient_Ping(t *testing.T) {
	client := newClient(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/hello" {
			writer.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = writer.Write([]byte(`"hello world"`))
	})

	assert.NoError(t, client.Ping(context.Background()))
}
