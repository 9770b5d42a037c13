package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiClient calls the Gemini API through the official SDK. A client is
// created per call because the SDK binds its API key at construction time
// and requests may carry per-caller keys.
type GeminiClient struct{}

// NewGeminiClient creates a Gemini adapter.
func NewGeminiClient() *GeminiClient {
	return &GeminiClient{}
}

// Generate sends the conversation to Gemini and returns the completion text.
// A leading system message becomes the system instruction; assistant turns
// map to the SDK's model role.
func (g *GeminiClient) Generate(ctx context.Context, apiKey, model string, messages []Message) (string, error) {
	if apiKey == "" {
		return "", fmt.Errorf("gemini: %w", ErrMissingCredential)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("creating genai client: %w", err)
	}

	var config genai.GenerateContentConfig
	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			config.SystemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	resp, err := client.Models.GenerateContent(ctx, model, contents, &config)
	if err != nil {
		return "", fmt.Errorf("calling gemini: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini response has no text")
	}
	return text, nil
}
