// Copyright (c) 2026 Bloomify. All rights reserved.

/*
Package inference calls the Bloom's taxonomy model service.

The service exposes one POST route per mode and answers with plain text (a
level name, a rewritten question or a Markdown paper). Calls are made once:
a transport failure or non-2xx status is reported as an upstream error and
never retried.
*/
package inference

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/apperr"
)

// Model routes.
const (
	RouteClassify = "/classify/"
	RouteSuggest  = "/suggest/"
	RouteGenerate = "/generate/"

	routeHello = "/hello"
)

// maxResponseBytes bounds a generated paper.
const maxResponseBytes = 4 << 20

// serviceName is how failures are reported to clients.
const serviceName = "Inference service"

// Client posts structured requests to the model service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a client for the service at baseURL. timeout bounds a whole call.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

/*
Infer posts payload to route and returns the raw response body.

Returns:
  - []byte: the model output, unchanged
  - error: EXTERNAL_SERVICE_ERROR on transport failure or non-2xx status
*/
func (client *Client) Infer(ctx context.Context, route string, payload []byte) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, client.baseURL+route, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("inference_request_failed: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	started := time.Now()
	response, err := client.http.Do(request)
	if err != nil {
		return nil, apperr.ExternalService(serviceName, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, apperr.ExternalService(serviceName, err)
	}

	client.logger.InfoContext(ctx, "inference_call",
		slog.String("route", route),
		slog.Int("status", response.StatusCode),
		slog.Duration("duration", time.Since(started)),
	)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, apperr.ExternalService(serviceName,
			fmt.Errorf("inference status %d: %s", response.StatusCode, truncate(body, 256)))
	}

	return body, nil
}

// Ping checks that the service answers its hello route.
func (client *Client) Ping(ctx context.Context) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, client.baseURL+routeHello, nil)
	if err != nil {
		return err
	}

	response, err := client.http.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	_, _ = io.Copy(io.Discard, response.Body)

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("inference: hello returned %d", response.StatusCode)
	}
	return nil
}

func truncate(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
