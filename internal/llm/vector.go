package llm

import "context"

// VectorMatch is one nearest-neighbour row: a dataset recipe id and its cosine similarity.
type VectorMatch struct {
	RecipeID   int64
	Similarity float64
}

// VectorSearcher is the vector similarity collaborator. Both procedures take an embedding,
// a similarity threshold and a limit, and return matches ordered by similarity descending.
type VectorSearcher interface {
	// MatchByIngredients searches with an ingredient-derived embedding and skips dataset rows
	// with fewer than minLoves loves.
	MatchByIngredients(ctx context.Context, embedding []float32, threshold float64, limit, minLoves int) ([]VectorMatch, error)
	// MatchByQuery searches with a free-text query embedding.
	MatchByQuery(ctx context.Context, embedding []float32, threshold float64, limit int) ([]VectorMatch, error)
}
