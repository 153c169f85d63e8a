package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nullstream/graphd/pkg/state"
	"github.com/nullstream/graphd/pkg/template"
)

// httpRequestConfig is the Config["http_request"] shape.
type httpRequestConfig struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
	Timeout int               `json:"timeout"`
}

// HTTPRequest renders and performs a single HTTP request described by
// Config["http_request"], recording the response under
// Data["http_response"] on success or appending an error on failure.
func HTTPRequest(s state.WorkflowState) (state.WorkflowState, error) {
	cfg, err := parseHTTPRequestConfig(s.Config["http_request"])
	if err != nil {
		return s, fmt.Errorf("http_request: %w", err)
	}

	renderedURL, err := template.RenderWithState(cfg.URL, s)
	if err != nil {
		return s, fmt.Errorf("http_request: failed to render url: %w", err)
	}

	urlStr, ok := renderedURL.(string)
	if !ok {
		return s, fmt.Errorf("http_request: url template must render to a string")
	}

	var body string

	if cfg.Body != "" {
		rendered, err := template.RenderWithState(cfg.Body, s)
		if err != nil {
			return s, fmt.Errorf("http_request: failed to render body: %w", err)
		}

		body = fmt.Sprintf("%v", rendered)
	}

	result, err := performRequest(urlStr, cfg.Method, body, cfg.Headers, cfg.Timeout)
	if err != nil {
		return s, fmt.Errorf("http_request: %w", err)
	}

	return s.WithData("http_response", result), nil
}

func parseHTTPRequestConfig(raw any) (httpRequestConfig, error) {
	cfg := httpRequestConfig{Method: "GET", Timeout: 30, Headers: map[string]string{}}

	fields, ok := raw.(map[string]any)
	if !ok {
		return cfg, fmt.Errorf("missing required config key %q", "http_request")
	}

	url, ok := fields["url"].(string)
	if !ok || url == "" {
		return cfg, fmt.Errorf("missing required field %q", "url")
	}

	cfg.URL = url

	if method, ok := fields["method"].(string); ok {
		cfg.Method = strings.ToUpper(method)
	}

	if body, ok := fields["body"].(string); ok {
		cfg.Body = body
	}

	if timeout, ok := fields["timeout"].(float64); ok {
		cfg.Timeout = int(timeout)
	}

	if headers, ok := fields["headers"].(map[string]any); ok {
		for k, v := range headers {
			if strVal, ok := v.(string); ok {
				cfg.Headers[k] = strVal
			}
		}
	}

	return cfg, nil
}

func performRequest(url, method, body string, headers map[string]string, timeoutSeconds int) (map[string]any, error) {
	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSeconds)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	if body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	result := map[string]any{
		"status_code": resp.StatusCode,
		"body":        string(respBody),
	}

	var jsonBody any
	if err := json.Unmarshal(respBody, &jsonBody); err == nil {
		result["json"] = jsonBody
	}

	if resp.StatusCode >= 400 {
		return result, fmt.Errorf("received HTTP %d", resp.StatusCode)
	}

	return result, nil
}
