package llm

import "strings"

// Decision is the outcome of routing a model name.
type Decision struct {
	Provider Provider

	// Free marks models served through the gateway on the server's own
	// credential; the caller never needs a key for these.
	Free bool
}

// Route maps a model name to a provider. freeModels is the configured set of
// gateway models billed to the server.
//
// Rules, in order:
//  1. Models in freeModels or with a ":free" suffix go to the gateway on the
//     server credential.
//  2. Models starting with "gpt" go to OpenAI.
//  3. Models starting with "gemini" go to Gemini.
//  4. Everything else goes to the gateway as a paid model.
func Route(model string, freeModels map[string]struct{}) Decision {
	if _, ok := freeModels[model]; ok {
		return Decision{Provider: ProviderOpenRouter, Free: true}
	}
	if strings.HasSuffix(model, ":free") {
		return Decision{Provider: ProviderOpenRouter, Free: true}
	}
	if strings.HasPrefix(model, "gpt") {
		return Decision{Provider: ProviderOpenAI}
	}
	if strings.HasPrefix(model, "gemini") {
		return Decision{Provider: ProviderGemini}
	}
	return Decision{Provider: ProviderOpenRouter}
}
