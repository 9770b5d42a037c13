package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Generator is the provider-facing interface shared by all adapters.
type Generator interface {
	Generate(ctx context.Context, apiKey, model string, messages []Message) (string, error)
}

// Keys holds the server's own provider credentials. They back the free
// gateway path and act as fallbacks for requests without a caller key.
type Keys struct {
	Google     string
	OpenAI     string
	OpenRouter string
}

// Dispatcher routes each request to a provider adapter with the right
// credential.
//
// Dispatcher is safe for concurrent use by multiple goroutines.
type Dispatcher struct {
	freeModels map[string]struct{}
	keys       Keys
	openAI     Generator
	openRouter Generator
	gemini     Generator
	logger     *slog.Logger
}

// NewDispatcher creates a dispatcher with the default provider adapters.
func NewDispatcher(freeModels map[string]struct{}, keys Keys, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		freeModels: freeModels,
		keys:       keys,
		openAI:     NewChatCompletionsClient("openai", OpenAIBaseURL, timeout),
		openRouter: NewChatCompletionsClient("openrouter", OpenRouterBaseURL, timeout),
		gemini:     NewGeminiClient(),
		logger:     logger,
	}
}

// Generate routes the conversation to the provider selected for model.
// callerKey is the key supplied with the request; the server's own key is
// used for free models and as a fallback when the caller sent none.
func (d *Dispatcher) Generate(ctx context.Context, model, callerKey string, messages []Message) (string, error) {
	decision := Route(model, d.freeModels)

	var client Generator
	var apiKey string
	switch decision.Provider {
	case ProviderOpenAI:
		client = d.openAI
		apiKey = firstNonEmpty(callerKey, d.keys.OpenAI)
	case ProviderGemini:
		client = d.gemini
		apiKey = firstNonEmpty(callerKey, d.keys.Google)
	case ProviderOpenRouter:
		client = d.openRouter
		if decision.Free {
			// Free models are always billed to the server.
			apiKey = d.keys.OpenRouter
		} else {
			apiKey = firstNonEmpty(callerKey, d.keys.OpenRouter)
		}
	default:
		return "", fmt.Errorf("unknown provider %q for model %q", decision.Provider, model)
	}

	d.logger.Debug("dispatching model call",
		"model", model,
		"provider", decision.Provider,
		"free", decision.Free)

	return client.Generate(ctx, apiKey, model, messages)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
