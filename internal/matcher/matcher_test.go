package matcher

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		recipe    []string
		available []string
		want      float64
	}{
		{"empty recipe", nil, []string{"ayam"}, 0},
		{"empty pantry", []string{"ayam"}, nil, 0},
		{"exact", []string{"ayam", "telur"}, []string{"Ayam", "telur"}, 1},
		{"substring", []string{"ayam kampung"}, []string{"ayam"}, 1},
		{"synonym", []string{"chicken", "garlic"}, []string{"ayam", "bawang putih"}, 1},
		{"synonym inside phrase", []string{"fresh chicken breast"}, []string{"ayam"}, 1},
		{"partial word overlap", []string{"bawang merah"}, []string{"bawang bombay"}, 0.5},
		{"short tokens ignored", []string{"es ok"}, []string{"ok es"}, 0},
		{"half covered", []string{"ayam", "santan", "kunyit", "lengkuas"}, []string{"ayam", "coconut milk"}, 0.5},
		{"nothing", []string{"keju"}, []string{"ayam"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.recipe, tt.available)
			assert.InDelta(t, tt.want, got.Score, 1e-9)
		})
	}
}

func TestScoreReasonsAndMissing(t *testing.T) {
	res := Score([]string{"Ayam", "chicken stock", "keju"}, []string{"ayam"})
	assert.Equal(t, []string{"ayam", "chicken stock"}, res.Matched)
	assert.Equal(t, []string{"keju"}, res.Missing)
	assert.Equal(t, "2 of 3 ingredients available", res.Reasons[0])
	assert.Contains(t, res.Reasons, "you have ayam")
	assert.LessOrEqual(t, len(res.Reasons), maxReasons+1)
}

func TestScoreBounds(t *testing.T) {
	words := []string{"ayam", "chicken", "bawang", "merah", "putih", "telur", "egg", "nasi", "rice", "tempe", "x", "keju"}
	r := rand.New(rand.NewSource(1))
	pick := func() []string {
		n := r.Intn(6)
		out := make([]string, n)
		for i := range out {
			out[i] = words[r.Intn(len(words))]
			if r.Intn(3) == 0 {
				out[i] += " " + words[r.Intn(len(words))]
			}
		}
		return out
	}
	for i := 0; i < 500; i++ {
		rec, have := pick(), pick()
		res := Score(rec, have)
		assert.GreaterOrEqual(t, res.Score, 0.0)
		assert.LessOrEqual(t, res.Score, 1.0)
		if res.Score == 1 {
			for _, w := range normalize(rec) {
				kind, _ := bestMatch(w, normalize(have))
				assert.GreaterOrEqual(t, int(kind), int(synonymMatch), "full score needs exact or synonym match for %q", w)
			}
		}
	}
}

func TestSynonymous(t *testing.T) {
	assert.True(t, synonymous("ayam", "chicken"))
	assert.True(t, synonymous("daging sapi giling", "beef"))
	assert.False(t, synonymous("ayam", "beef"))
	assert.False(t, synonymous("pineapple", "apple juice"))
}
