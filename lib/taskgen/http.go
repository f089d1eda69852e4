// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package taskgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// HTTP implements [Generator] against a JSON generation service:
// one POST per preview, bearer token auth, bounded by the client
// timeout.
type HTTP struct {
	endpoint   string
	token      string
	model      string
	httpClient *http.Client
}

// HTTPConfig configures the HTTP generator. Endpoint is required;
// TokenFile is read once at construction and its trimmed contents
// sent as a bearer token on every request.
type HTTPConfig struct {
	Endpoint  string
	TokenFile string
	Model     string
	Timeout   time.Duration

	// HTTPClient overrides the transport. When nil a client with
	// Timeout is used.
	HTTPClient *http.Client
}

// NewHTTP creates the HTTP generator.
func NewHTTP(cfg HTTPConfig) (*HTTP, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("taskgen: endpoint is required")
	}

	var token string
	if cfg.TokenFile != "" {
		data, err := os.ReadFile(cfg.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("taskgen: reading token file: %w", err)
		}
		token = strings.TrimSpace(string(data))
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &HTTP{
		endpoint:   cfg.Endpoint,
		token:      token,
		model:      cfg.Model,
		httpClient: httpClient,
	}, nil
}

// wireRequest is Request plus the model selector, which is service
// configuration rather than per-call input.
type wireRequest struct {
	Request
	Model string `json:"model,omitempty"`
}

// Preview sends the generation request and decodes the proposal.
func (g *HTTP) Preview(ctx context.Context, request Request) (*Preview, error) {
	body, err := json.Marshal(wireRequest{Request: request, Model: g.model})
	if err != nil {
		return nil, fmt.Errorf("taskgen: marshaling request: %w", err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("taskgen: creating request: %w", err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		httpRequest.Header.Set("Authorization", "Bearer "+g.token)
	}

	httpResponse, err := g.httpClient.Do(httpRequest)
	if err != nil {
		return nil, fmt.Errorf("taskgen: sending request: %w", err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode != http.StatusOK {
		return nil, readGeneratorError(httpResponse)
	}

	var preview Preview
	if err := json.NewDecoder(httpResponse.Body).Decode(&preview); err != nil {
		return nil, fmt.Errorf("taskgen: decoding response: %w", err)
	}
	return &preview, nil
}

// readGeneratorError parses an error response body in the common
// {"error":{"type":"...","message":"..."}} format, falling back to
// the raw body when the shape does not match.
func readGeneratorError(httpResponse *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(httpResponse.Body, 4096))

	var wireError struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &wireError) == nil && wireError.Error.Message != "" {
		return &GeneratorError{
			StatusCode: httpResponse.StatusCode,
			Type:       wireError.Error.Type,
			Message:    wireError.Error.Message,
		}
	}

	return &GeneratorError{
		StatusCode: httpResponse.StatusCode,
		Message:    string(body),
	}
}
