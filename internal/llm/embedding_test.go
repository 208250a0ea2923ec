package llm

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEmbGen struct {
	vec   []float32
	err   error
	calls int
	last  string
}

func (m *mockEmbGen) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	m.calls++
	m.last = text
	return m.vec, m.err
}

func TestHashEmbedding(t *testing.T) {
	a := HashEmbedding("ayam bawang putih", EmbeddingDimensions)
	b := HashEmbedding("ayam bawang putih", EmbeddingDimensions)
	c := HashEmbedding("ayam tomat", EmbeddingDimensions)
	d := HashEmbedding("cokelat keju susu", EmbeddingDimensions)

	require.Len(t, a, EmbeddingDimensions)
	assert.Equal(t, a, b)

	var norm float64
	for _, v := range a {
		norm += float64(v * v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)

	assert.Greater(t, cosineSimilarity(a, c), cosineSimilarity(a, d))
}

func TestHashEmbeddingEmpty(t *testing.T) {
	v := HashEmbedding("", 0)
	assert.Len(t, v, EmbeddingDimensions)
	for _, x := range v {
		assert.Zero(t, x)
	}
}

func TestPrepareEmbeddingText(t *testing.T) {
	assert.Equal(t, "ayam, bawang putih", PrepareEmbeddingText("  AYAM,\n\tBawang   Putih!! ", 0))

	long := strings.Repeat("é", 10)
	out := PrepareEmbeddingText(long, 5)
	assert.Equal(t, "éé", out)
}

func TestFallbackEmbeddingGenerator(t *testing.T) {
	ctx := context.Background()

	t.Run("primary ok", func(t *testing.T) {
		primary := &mockEmbGen{vec: []float32{1, 2, 3}}
		g := NewFallbackEmbeddingGenerator(primary, EmbeddingDimensions, nil, nil)
		v, err := g.GenerateEmbedding(ctx, "Ayam Goreng")
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 2, 3}, v)
		assert.Equal(t, "ayam goreng", primary.last)
	})

	t.Run("primary fails", func(t *testing.T) {
		var fallbacks int
		primary := &mockEmbGen{err: errors.New("503")}
		g := NewFallbackEmbeddingGenerator(primary, EmbeddingDimensions, nil, func(error) { fallbacks++ })
		v, err := g.GenerateEmbedding(ctx, "ayam goreng")
		require.NoError(t, err)
		assert.Equal(t, HashEmbedding("ayam goreng", EmbeddingDimensions), v)
		assert.Equal(t, 1, fallbacks)
	})

	t.Run("empty vector", func(t *testing.T) {
		g := NewFallbackEmbeddingGenerator(&mockEmbGen{}, 8, nil, nil)
		v, err := g.GenerateEmbedding(ctx, "tempe")
		require.NoError(t, err)
		assert.Len(t, v, 8)
	})

	t.Run("no primary", func(t *testing.T) {
		g := NewFallbackEmbeddingGenerator(nil, 16, nil, nil)
		v, err := g.GenerateEmbedding(ctx, "tahu")
		require.NoError(t, err)
		assert.Len(t, v, 16)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		g := NewFallbackEmbeddingGenerator(&mockEmbGen{err: context.Canceled}, 16, nil, nil)
		_, err := g.GenerateEmbedding(cctx, "tahu")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
