// Package embedder provides remote embedding providers.
package embedder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/resumatch/internal/domain/embedding"
	"github.com/okian/resumatch/internal/domain/types"
	"google.golang.org/genai"
)

const (
	defaultModel    = "gemini-embedding-001"
	defaultTaskType = "SEMANTIC_SIMILARITY"
)

// contentEmbedder is the subset of genai.Models used here.
type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Gemini embeds text with the Google GenAI embeddings API. Output is truncated
// to the configured dimension by the API and re-normalized here, since
// truncated Gemini embeddings are not unit length.
type Gemini struct {
	models   contentEmbedder
	model    string
	taskType string
	dim      int
}

// Option configures a Gemini embedder.
type Option func(*Gemini)

// WithModel overrides the embedding model name.
func WithModel(model string) Option {
	return func(g *Gemini) {
		if model = strings.TrimSpace(model); model != "" {
			g.model = model
		}
	}
}

// WithDimension sets the requested output dimensionality.
func WithDimension(dim int) Option {
	return func(g *Gemini) {
		if dim > 0 {
			g.dim = dim
		}
	}
}

// WithTaskType sets the embedding task type hint.
func WithTaskType(taskType string) Option {
	return func(g *Gemini) {
		if taskType != "" {
			g.taskType = taskType
		}
	}
}

// NewGemini creates a Gemini embedder backed by the Gemini API.
func NewGemini(ctx context.Context, apiKey string, opts ...Option) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGemini(client.Models, opts...), nil
}

func newGemini(models contentEmbedder, opts ...Option) *Gemini {
	g := &Gemini{
		models:   models,
		model:    defaultModel,
		taskType: defaultTaskType,
		dim:      embedding.DefaultDimension,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Dimension returns the vector length.
func (g *Gemini) Dimension() int { return g.dim }

// Model returns the embedding model name.
func (g *Gemini) Model() string { return g.model }

// Embed returns the normalized embedding of text. The API rejects empty
// content, so blank text fails with types.ErrEmbedding.
func (g *Gemini) Embed(ctx context.Context, text string) (embedding.Vector, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text must not be empty", types.ErrEmbedding)
	}

	dim := int32(g.dim) //nolint:gosec // dimension is validated by config
	resp, err := g.models.EmbedContent(ctx, g.model, genai.Text(text), &genai.EmbedContentConfig{
		TaskType:             g.taskType,
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: embed content: %w", types.ErrEmbedding, err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, fmt.Errorf("%w: gemini api returned no embeddings", types.ErrEmbedding)
	}

	values := resp.Embeddings[0].Values
	if len(values) != g.dim {
		return nil, fmt.Errorf("%w: gemini returned %d values, want %d", types.ErrEmbedding, len(values), g.dim)
	}
	return embedding.Normalize(embedding.Vector(values))
}
