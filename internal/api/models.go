package api

import "net/http"

// ModelsHandler reports which models the server will route.
type ModelsHandler struct {
	defaultModel string
	freeModels   []string
}

// NewModelsHandler creates a models handler.
func NewModelsHandler(defaultModel string, freeModels []string) *ModelsHandler {
	return &ModelsHandler{defaultModel: defaultModel, freeModels: freeModels}
}

// RegisterRoutes registers model routes on the given mux.
func (h *ModelsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/models", h.list)
}

// list returns the default model and the free-tier set. Any other model name
// is still accepted on /chat and routed by prefix.
func (h *ModelsHandler) list(w http.ResponseWriter, _ *http.Request) {
	free := h.freeModels
	if free == nil {
		free = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"default":     h.defaultModel,
		"free_models": free,
	})
}
