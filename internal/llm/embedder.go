// Package llm provides the Gemini embedding client the pipeline uses to fill
// in missing article embeddings. The decision core itself treats embeddings
// as already available; this client is the upstream collaborator that
// produces them, with bounded concurrency and rate limiting against the API.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"newscycle/internal/config"
	"newscycle/internal/core"
)

const (
	// DefaultEmbeddingModel is the default model for generating embeddings.
	DefaultEmbeddingModel = "gemini-embedding-001"
	// DefaultEmbeddingDimensions is the output dimension for embeddings (Matryoshka).
	DefaultEmbeddingDimensions = int32(768)
	// maxEmbeddingInput is a conservative character limit for the embedding
	// model's token budget.
	maxEmbeddingInput = 8000
)

// Embedder generates article embeddings through the Gemini API.
type Embedder struct {
	gClient        *genai.Client
	model          string
	dimensions     int32
	maxConcurrency int
	limiter        *rate.Limiter
}

// NewEmbedder creates an embedding client from configuration. The API key is
// read from NEWSCYCLE_EMBEDDING_API_KEY or GEMINI_API_KEY, falling back to
// the config file.
func NewEmbedder(ctx context.Context, cfg config.Embedding) (*Embedder, error) {
	apiKey := os.Getenv("NEWSCYCLE_EMBEDDING_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required: set GEMINI_API_KEY or embedding.api_key in config")
	}

	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}
	dimensions := cfg.Dimensions
	if dimensions == 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
	}

	return &Embedder{
		gClient:        gClient,
		model:          model,
		dimensions:     dimensions,
		maxConcurrency: maxConcurrency,
		limiter:        rate.NewLimiter(limit, 1),
	}, nil
}

// Embed generates an embedding vector for the given text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: TruncateForEmbedding(text)}},
		Role:  "user",
	}}

	dims := e.dimensions
	resp, err := e.gClient.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, fmt.Errorf("no embedding values returned from API")
	}

	values := resp.Embeddings[0].Values
	embedding := make([]float64, len(values))
	for i, val := range values {
		embedding[i] = float64(val)
	}
	return embedding, nil
}

// EmbedArticles fills in embeddings for every article that lacks one, with
// bounded concurrency. Pairwise order in the returned slice matches the
// input; a single failure fails the whole batch so the run never proceeds on
// a partially embedded pool.
func (e *Embedder) EmbedArticles(ctx context.Context, articles []core.Article) ([]core.Article, error) {
	out := make([]core.Article, len(articles))
	copy(out, articles)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.maxConcurrency)

	for i := range out {
		if len(out[i].Embedding) > 0 {
			continue
		}
		i := i
		group.Go(func() error {
			embedding, err := e.Embed(groupCtx, out[i].Text())
			if err != nil {
				return fmt.Errorf("failed to embed article %s: %w", out[i].ID, err)
			}
			out[i].Embedding = embedding
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// TruncateForEmbedding shortens text to the embedding model's input budget,
// cutting at a word boundary when one is close.
func TruncateForEmbedding(text string) string {
	if len(text) <= maxEmbeddingInput {
		return text
	}
	cut := text[:maxEmbeddingInput]
	if idx := strings.LastIndex(cut, " "); idx > maxEmbeddingInput-200 {
		cut = cut[:idx]
	}
	return cut
}
