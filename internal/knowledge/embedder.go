// Package knowledge stores document chunks with vector embeddings in
// PostgreSQL + pgvector and retrieves the nearest chunks for a query.
package knowledge

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// VectorDimension is the embedding dimensionality used by the pgvector
// schema. gemini-embedding-001 outputs 3072 dimensions by default but
// supports truncation via OutputDimensionality.
const VectorDimension int32 = 768

// Embedder converts text into vector embeddings.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// GeminiEmbedder embeds text with the Gemini embedding API.
//
// A client is created per call: the genai client binds its API key at
// construction time, and embedding requests are low-frequency (uploads and
// one query per chat turn).
type GeminiEmbedder struct {
	apiKey string
	model  string
}

// NewGeminiEmbedder creates an embedder for the given model.
func NewGeminiEmbedder(apiKey, model string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	return &GeminiEmbedder{apiKey: apiKey, model: model}, nil
}

// Embed implements Embedder.
func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  e.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	dim := VectorDimension
	resp, err := client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding %d texts: %w", len(texts), err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding response has %d vectors, want %d", len(resp.Embeddings), len(texts))
	}

	vecs := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d", i)
		}
		vecs[i] = emb.Values
	}
	return vecs, nil
}
