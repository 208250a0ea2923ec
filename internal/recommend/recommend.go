// Package recommend turns the user's available ingredients into ranked recipe recommendations
// from three sources: the community dataset, the generative model and semantic vector search.
package recommend

import (
	"context"
	"errors"

	"pantry-planner/internal/dataset"
	"pantry-planner/internal/recipe"
)

// ErrMalformedResponse is returned when the model answered but not with a usable recipe batch.
var ErrMalformedResponse = errors.New("model response does not contain a recipe batch")

const defaultLimit = 12

// Recommendation is a recipe with the scores that ranked it.
type Recommendation struct {
	Recipe          recipe.Recipe `json:"recipe"`
	MatchScore      float64       `json:"match_score"`
	SimilarityScore float64       `json:"similarity_score,omitempty"`
	Confidence      float64       `json:"confidence"`
	MatchReasons    []string      `json:"match_reasons"`
	Loves           int           `json:"loves,omitempty"`
	SourceURL       string        `json:"source_url,omitempty"`
}

// Filters narrows a recommendation request. Zero values fall back to each adapter's defaults.
type Filters struct {
	UserID   string
	Limit    int
	MinScore float64
	MinLoves int
	// Query switches the RAG adapter to free-text search.
	Query string
}

func (f Filters) limit() int {
	if f.Limit <= 0 {
		return defaultLimit
	}
	return f.Limit
}

// Recommender is implemented by every adapter.
type Recommender interface {
	Recommend(ctx context.Context, available []string, f Filters) ([]Recommendation, error)
}

// DatasetStore is the read side of the community dataset the adapters need.
type DatasetStore interface {
	ListPopular(ctx context.Context, minLoves, limit int) ([]dataset.Recipe, error)
	SearchText(ctx context.Context, terms []string, limit int) ([]dataset.Recipe, error)
	GetByIDs(ctx context.Context, ids []int64) ([]dataset.Recipe, error)
}

// Recipes strips the scores off a batch.
func Recipes(recs []Recommendation) []recipe.Recipe {
	out := make([]recipe.Recipe, len(recs))
	for i, r := range recs {
		out[i] = r.Recipe
	}
	return out
}
