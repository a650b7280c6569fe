package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Message is one entry of the role-tagged conversation sent to the provider
type Message struct {
	Role       string     `json:"role"` // "system", "user", "assistant", "tool"
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a capability invocation returned by the model
type ToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// Response is the raw content of one model turn
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// Generator produces one model turn. Implemented by Client; tests supply fakes.
type Generator interface {
	Generate(ctx context.Context, policy ConversationPolicy, messages []Message) (*Response, error)
}

// Client calls an OpenAI-compatible chat completions endpoint
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a chat completions client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Generate submits one turn: the policy persona as system message, then the
// supplied role-tagged messages. Non-streaming; tools are attached from the
// policy when declared.
func (c *Client) Generate(ctx context.Context, policy ConversationPolicy, messages []Message) (*Response, error) {
	all := make([]Message, 0, len(messages)+1)
	if policy.Persona != "" {
		all = append(all, Message{Role: "system", Content: policy.Persona})
	}
	all = append(all, messages...)

	requestBody := map[string]interface{}{
		"model":       policy.Model,
		"messages":    all,
		"temperature": policy.Temperature,
		"stream":      false,
	}
	if policy.MaxTokens > 0 {
		requestBody["max_tokens"] = policy.MaxTokens
	}
	if len(policy.Tools) > 0 {
		requestBody["tools"] = policy.Tools
	}

	bodyBytes, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("LLM request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("LLM request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content   string     `json:"content"`
				ToolCalls []ToolCall `json:"tool_calls"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("LLM response contained no choices")
	}

	return &Response{
		Content:   result.Choices[0].Message.Content,
		ToolCalls: result.Choices[0].Message.ToolCalls,
	}, nil
}
