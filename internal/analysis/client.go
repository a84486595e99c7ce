// Package analysis turns operator scenarios into conflicts, precedence
// decisions, and recommendations, optionally enriched by a
// generative-language narrative collaborator.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultNarrativeBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultNarrativeModel   = "gemini-2.0-flash"
	narrativeTimeout        = 12 * time.Second
)

// APIError is a non-2xx answer from the narrative collaborator.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("narrative API error %d: %s", e.StatusCode, e.Message)
}

// NarrativeClient talks to the generative-language API that writes the
// controller-facing summary. Callers treat it as optional: analysis
// succeeds with a nil narrative when the collaborator is down.
type NarrativeClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
}

// NewNarrativeClient creates a narrative client. The base URL is only
// overridden in tests.
func NewNarrativeClient(apiKey, baseURL string) (*NarrativeClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key cannot be empty")
	}

	if baseURL == "" {
		baseURL = defaultNarrativeBaseURL
	}

	return &NarrativeClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   defaultNarrativeModel,
		httpClient: &http.Client{
			Timeout: narrativeTimeout,
		},
		maxRetries: 3,
		retryDelay: 1 * time.Second,
	}, nil
}

// Summarize sends the prompt and returns the model's text.
func (c *NarrativeClient) Summarize(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	body := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": prompt},
				},
			},
		},
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
		}

		resp, err := c.executeRequest(ctx, body)
		if err == nil {
			return c.processResponse(resp)
		}

		lastErr = err
		if !c.isRetryableError(err) {
			break
		}
	}

	return "", lastErr
}

func (c *NarrativeClient) executeRequest(ctx context.Context, body map[string]interface{}) (*http.Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		msg, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(msg)}
	}

	return resp, nil
}

func (c *NarrativeClient) processResponse(resp *http.Response) (string, error) {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var apiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(apiResp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	var content string
	for _, part := range apiResp.Candidates[0].Content.Parts {
		content += part.Text
	}
	if content == "" {
		return "", fmt.Errorf("no text in response")
	}
	return content, nil
}

func (c *NarrativeClient) isRetryableError(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.StatusCode == http.StatusTooManyRequests ||
			apiErr.StatusCode >= 500
	}
	return false
}
