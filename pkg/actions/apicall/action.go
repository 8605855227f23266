// Package apicall provides the api_call automation action, an outbound
// HTTP request with configurable method, headers, query params and body.
package apicall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeoutSeconds = 30

// ErrURLRequired is returned when the configuration has no URL.
var ErrURLRequired = errors.New("api_call requires a url")

// Action performs an HTTP request against an external API.
type Action struct {
	Method  string
	URL     string
	Headers map[string]string
	Params  map[string]string
	Body    string
	Timeout time.Duration
}

// NewAction builds an Action from raw configuration.
func NewAction(config map[string]any) (*Action, error) {
	rawURL, _ := config["url"].(string)
	if rawURL == "" {
		return nil, ErrURLRequired
	}

	method, _ := config["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	body, _ := config["body"].(string)

	timeout := defaultTimeoutSeconds * time.Second
	if seconds, ok := config["timeout"].(float64); ok && seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}

	return &Action{
		Method:  strings.ToUpper(method),
		URL:     rawURL,
		Headers: stringMap(config["headers"]),
		Params:  stringMap(config["params"]),
		Body:    body,
		Timeout: timeout,
	}, nil
}

func stringMap(raw any) map[string]string {
	out := make(map[string]string)

	if m, ok := raw.(map[string]any); ok {
		for k, v := range m {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
	}

	return out
}

// Validate checks the action configuration.
func (a *Action) Validate(_ context.Context) error {
	if a.URL == "" {
		return ErrURLRequired
	}

	if _, err := url.Parse(a.URL); err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	return nil
}

// Execute performs the request and returns the status, headers and
// decoded body.
func (a *Action) Execute(ctx context.Context, _ map[string]any, logger *slog.Logger) (any, error) {
	logger = logger.With("action", "api_call", "method", a.Method, "url", a.URL)
	logger.InfoContext(ctx, "executing api_call action")

	target, err := a.buildURL()
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if a.Body != "" {
		bodyReader = strings.NewReader(a.Body)
	}

	req, err := http.NewRequestWithContext(ctx, a.Method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range a.Headers {
		req.Header.Set(key, value)
	}

	client := &http.Client{Timeout: a.Timeout}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api_call request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		body = string(raw)
	}

	logger.InfoContext(ctx, "api_call completed", "status_code", resp.StatusCode)

	return map[string]any{
		"status_code": resp.StatusCode,
		"body":        body,
		"headers":     flattenHeaders(resp.Header),
	}, nil
}

func (a *Action) buildURL() (string, error) {
	parsed, err := url.Parse(a.URL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}

	if len(a.Params) > 0 {
		query := parsed.Query()
		for k, v := range a.Params {
			query.Set(k, v)
		}

		parsed.RawQuery = query.Encode()
	}

	return parsed.String(), nil
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for key := range h {
		out[key] = h.Get(key)
	}

	return out
}
