// Package assistants is a minimal HTTP client for the OpenAI Assistants v2
// API, covering only the operations the scan orchestrator needs: creating a
// thread+run, polling run status, submitting tool outputs, and listing
// messages.
package assistants

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	betaHeader     = "assistants=v2"
)

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client is a custom HTTP client for the Assistants API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Assistants API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateThreadAndRun creates a thread holding a single user message and
// starts a run against the given assistant.
func (c *Client) CreateThreadAndRun(ctx context.Context, assistantID, prompt string) (*Run, error) {
	req := createThreadAndRunRequest{
		AssistantID: assistantID,
		Thread: threadRequest{
			Messages: []threadMessage{{Role: "user", Content: prompt}},
		},
	}

	var run Run
	if err := c.do(ctx, http.MethodPost, "/threads/runs", req, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRun fetches the latest state of an existing run.
func (c *Client) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var run Run
	path := fmt.Sprintf("/threads/%s/runs/%s", threadID, runID)
	if err := c.do(ctx, http.MethodGet, path, nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// SubmitToolOutputs reports tool-call results back to the run so it can
// proceed past requires_action.
func (c *Client) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*Run, error) {
	var run Run
	path := fmt.Sprintf("/threads/%s/runs/%s/submit_tool_outputs", threadID, runID)
	if err := c.do(ctx, http.MethodPost, path, submitToolOutputsRequest{ToolOutputs: outputs}, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListMessages retrieves the thread's messages, most-recent-first.
func (c *Client) ListMessages(ctx context.Context, threadID string) (*MessageList, error) {
	var list MessageList
	path := fmt.Sprintf("/threads/%s/messages", threadID)
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if apiErr := ParseErrorResponse(resp.StatusCode, respBody); apiErr != nil {
			return apiErr
		}
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Beta", betaHeader)
	req.Header.Set("User-Agent", "horizon-scanner/1.0")
}
