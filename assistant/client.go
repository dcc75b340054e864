package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client talks to the OpenAI Assistants v2 API: assistants, threads,
// messages, runs and tool-output submission.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// --------------------------------------------------------------------------
// Public methods
// --------------------------------------------------------------------------

// CreateAssistant registers an assistant with the given instructions, model
// and function tools, and returns its id.
func (c *Client) CreateAssistant(ctx context.Context, name, instructions, model string, tools []ToolDefinition) (*Assistant, error) {
	body := map[string]interface{}{
		"name":         name,
		"instructions": instructions,
		"model":        model,
		"tools":        tools,
	}
	var out Assistant
	if err := c.do(ctx, http.MethodPost, "/assistants", body, &out); err != nil {
		return nil, fmt.Errorf("failed to create assistant: %w", err)
	}
	return &out, nil
}

// CreateThread starts an empty conversation thread.
func (c *Client) CreateThread(ctx context.Context) (*Thread, error) {
	var out Thread
	if err := c.do(ctx, http.MethodPost, "/threads", map[string]interface{}{}, &out); err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}
	return &out, nil
}

// AddUserMessage appends a user message to a thread.
func (c *Client) AddUserMessage(ctx context.Context, threadID, content string) error {
	body := map[string]interface{}{
		"role":    "user",
		"content": content,
	}
	if err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/messages", body, nil); err != nil {
		return fmt.Errorf("failed to add message to thread %s: %w", threadID, err)
	}
	return nil
}

// CreateRun starts a new run of the assistant over the thread.
func (c *Client) CreateRun(ctx context.Context, threadID, assistantID string) (*Run, error) {
	body := map[string]interface{}{
		"assistant_id": assistantID,
	}
	var out Run
	if err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/runs", body, &out); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return &out, nil
}

// RetrieveRun fetches the current state of a run.
func (c *Client) RetrieveRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var out Run
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/runs/"+runID, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to retrieve run %s: %w", runID, err)
	}
	return &out, nil
}

// SubmitToolOutputs answers every pending tool call of a run in one batch.
// The API rejects partial submissions, so callers must pass one output per
// pending call.
func (c *Client) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*Run, error) {
	body := map[string]interface{}{
		"tool_outputs": outputs,
	}
	var out Run
	if err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/runs/"+runID+"/submit_tool_outputs", body, &out); err != nil {
		return nil, fmt.Errorf("failed to submit tool outputs for run %s: %w", runID, err)
	}
	return &out, nil
}

// LatestAssistantMessage returns the text of the most recent assistant
// message in a thread.
func (c *Client) LatestAssistantMessage(ctx context.Context, threadID string) (string, error) {
	var out messageList
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/messages?order=desc&limit=10", nil, &out); err != nil {
		return "", fmt.Errorf("failed to list messages for thread %s: %w", threadID, err)
	}
	for _, m := range out.Data {
		if m.Role != "assistant" {
			continue
		}
		for _, part := range m.Content {
			if part.Type == "text" {
				return part.Text.Value, nil
			}
		}
	}
	return "", fmt.Errorf("thread %s has no assistant message", threadID)
}

// --------------------------------------------------------------------------
// Internal plumbing
// --------------------------------------------------------------------------

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("OpenAI-Beta", "assistants=v2")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to OpenAI failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("OpenAI API returned %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("OpenAI API returned %d: %s", resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
