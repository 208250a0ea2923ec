package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"pantry-planner/internal/storage"
)

// CachedEmbeddingGenerator wraps an EmbeddingGenerator and keeps results in a key-value store
// keyed by a digest of the model name and text, so re-embedding the dataset is cheap.
type CachedEmbeddingGenerator struct {
	realGen EmbeddingGenerator
	store   storage.Store
	model   string
}

// NewCachedEmbeddingGenerator creates a new CachedEmbeddingGenerator.
func NewCachedEmbeddingGenerator(realGen EmbeddingGenerator, store storage.Store, model string) *CachedEmbeddingGenerator {
	return &CachedEmbeddingGenerator{realGen: realGen, store: store, model: model}
}

// GenerateEmbedding checks the cache first. If the embedding is not found,
// it calls the real generator, stores the result in the cache, and returns it.
// A cache that cannot be read or written never blocks generation.
func (c *CachedEmbeddingGenerator) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	key := storage.EmbeddingCacheKey(c.digest(text))

	var cached []float32
	err := storage.GetJSON(ctx, c.store, key, &cached)
	if err == nil && len(cached) > 0 {
		return cached, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		// treat a corrupt entry as a miss
		_ = c.store.Delete(ctx, key)
	}

	embedding, err := c.realGen.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding using real generator: %w", err)
	}

	_ = storage.PutJSON(ctx, c.store, key, embedding)
	return embedding, nil
}

func (c *CachedEmbeddingGenerator) digest(text string) string {
	sum := sha256.Sum256([]byte(c.model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}
