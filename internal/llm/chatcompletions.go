package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default chat-completions endpoints. OpenRouter exposes the same wire
// format as OpenAI, so both providers share one client.
const (
	OpenAIBaseURL     = "https://api.openai.com/v1/chat/completions"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1/chat/completions"
)

// maxErrorBodyLen bounds how much of a provider error body is kept.
const maxErrorBodyLen = 2048

// ChatCompletionsClient calls an OpenAI-compatible chat completions API.
type ChatCompletionsClient struct {
	name       string
	baseURL    string
	httpClient *http.Client
}

// NewChatCompletionsClient creates a client for the given endpoint. name
// appears in error messages.
func NewChatCompletionsClient(name, baseURL string, timeout time.Duration) *ChatCompletionsClient {
	return &ChatCompletionsClient{
		name:       name,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// chatRequest is the OpenAI-compatible request envelope.
type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// chatResponse is the OpenAI-compatible response envelope.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate sends the conversation to the API and returns the completion text.
func (c *ChatCompletionsClient) Generate(ctx context.Context, apiKey, model string, messages []Message) (string, error) {
	if apiKey == "" {
		return "", fmt.Errorf("%s: %w", c.name, ErrMissingCredential)
	}

	jsonData, err := json.Marshal(chatRequest{Model: model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("marshaling %s request: %w", c.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating %s request: %w", c.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling %s: %w", c.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading %s response: %w", c.name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := bytes.TrimSpace(body)
		if len(detail) > maxErrorBodyLen {
			detail = detail[:maxErrorBodyLen]
		}
		return "", fmt.Errorf("%s returned status %d: %s", c.name, resp.StatusCode, detail)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parsing %s response: %w", c.name, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s response has no choices", c.name)
	}
	return parsed.Choices[0].Message.Content, nil
}
