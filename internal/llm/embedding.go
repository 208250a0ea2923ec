package llm

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
)

// MaxEmbeddingTextLength bounds the text sent to an embedding endpoint, in bytes.
const MaxEmbeddingTextLength = 1000

// PrepareEmbeddingText lower-cases s, drops control and punctuation noise, collapses whitespace
// and truncates to max bytes without splitting a rune.
func PrepareEmbeddingText(s string, max int) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == ',' || r == '-' || r == '.':
			b.WriteRune(r)
			space = false
		case !space && b.Len() > 0:
			b.WriteByte(' ')
			space = true
		}
	}
	out := strings.TrimSpace(b.String())
	if max > 0 && len(out) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = strings.TrimSpace(out[:cut])
	}
	return out
}

// HashEmbedding derives a deterministic pseudo-embedding from the tokens of text. Equal inputs
// always give equal vectors and texts sharing tokens point in similar directions, which keeps
// cosine similarity meaningful when no embedding service is reachable.
func HashEmbedding(text string, dims int) []float32 {
	if dims <= 0 {
		dims = EmbeddingDimensions
	}
	vec := make([]float32, dims)

	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()
		idx := int(sum % uint64(dims))
		sign := float32(1)
		if (sum>>32)&1 == 1 {
			sign = -1
		}
		vec[idx] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}

// FallbackEmbeddingGenerator asks a primary generator first and substitutes HashEmbedding when the
// call fails, so similarity search degrades instead of failing.
type FallbackEmbeddingGenerator struct {
	primary    EmbeddingGenerator
	dims       int
	log        *zap.SugaredLogger
	onFallback func(err error)
}

// NewFallbackEmbeddingGenerator wraps primary. A nil primary always yields hash embeddings.
func NewFallbackEmbeddingGenerator(primary EmbeddingGenerator, dims int, log *zap.SugaredLogger, onFallback func(error)) *FallbackEmbeddingGenerator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &FallbackEmbeddingGenerator{primary: primary, dims: dims, log: log, onFallback: onFallback}
}

func (g *FallbackEmbeddingGenerator) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	prepared := PrepareEmbeddingText(text, MaxEmbeddingTextLength)
	if g.primary == nil {
		return HashEmbedding(prepared, g.dims), nil
	}

	emb, err := g.primary.GenerateEmbedding(ctx, prepared)
	if err == nil && len(emb) > 0 {
		return emb, nil
	}
	if err == nil {
		err = errEmptyEmbedding
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	g.log.Warnf("embedding endpoint failed, using hash fallback: %v", err)
	if g.onFallback != nil {
		g.onFallback(err)
	}
	return HashEmbedding(prepared, g.dims), nil
}
