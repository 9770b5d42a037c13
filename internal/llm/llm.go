// Package llm routes chat requests to language model providers. A pure
// routing decision picks the provider and credential source; thin HTTP and
// SDK adapters do the actual calls.
package llm

import "errors"

// ErrMissingCredential is returned when the selected provider requires an
// API key and neither the request nor the server configuration supplies one.
var ErrMissingCredential = errors.New("missing provider credential")

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation sent to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider identifies a model backend.
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderGemini     Provider = "gemini"
	ProviderOpenRouter Provider = "openrouter"
)
