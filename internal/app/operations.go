package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"pantry-planner/internal/ingredient"
	"pantry-planner/internal/llm"
	"pantry-planner/internal/metrics"
	"pantry-planner/internal/recipe"
	"pantry-planner/internal/recommend"
	"pantry-planner/internal/shopping"

	"golang.org/x/time/rate"
)

// Recommendation sources accepted by Recommend.
const (
	SourceDataset     = "dataset"
	SourceSuggestions = "suggestions"
	SourceRAG         = "rag"
)

// Recommend runs one recommendation source against the user's pantry.
func (a *App) Recommend(ctx context.Context, userID, source string, f recommend.Filters) ([]recommend.Recommendation, error) {
	var (
		r       recommend.Recommender
		enabled bool
	)
	switch source {
	case SourceDataset:
		r, enabled = a.DatasetRecs, a.Flags.Dataset
		if f.MinLoves == 0 {
			f.MinLoves = a.Config.DatasetMinLoves
		}
	case SourceSuggestions:
		r, enabled = a.Suggestions, a.Flags.Suggestions
	case SourceRAG:
		r, enabled = a.RAG, a.Flags.RAG
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	if !enabled {
		return nil, fmt.Errorf("%s: %w", source, ErrFeatureDisabled)
	}

	items, err := a.Ingredients.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	f.UserID = userID
	return r.Recommend(ctx, ingredient.Names(items), f)
}

// LastSuggestions returns the user's most recent AI suggestion batch, empty when the last request
// failed or none was made.
func (a *App) LastSuggestions(ctx context.Context, userID string) ([]recommend.Recommendation, error) {
	if !a.Flags.Suggestions {
		return nil, fmt.Errorf("%s: %w", SourceSuggestions, ErrFeatureDisabled)
	}
	recs, err := a.Suggestions.Last(ctx, userID)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []recommend.Recommendation{}
	}
	return recs, nil
}

// ShoppingList aggregates the week's plan (draft or saved) against the pantry.
func (a *App) ShoppingList(ctx context.Context, userID, weekStart string) (shopping.List, error) {
	plan, err := a.Planner.Get(ctx, userID, weekStart)
	if err != nil {
		return shopping.List{}, err
	}
	items, err := a.Ingredients.List(ctx, userID)
	if err != nil {
		return shopping.List{}, err
	}
	return shopping.Aggregate(plan.Recipes(), plan.PeopleCount, items), nil
}

// SaveRecipe copies an external recipe into the user's store and remembers its source key.
// Saving the same source again returns the existing copy.
func (a *App) SaveRecipe(ctx context.Context, userID string, rec recipe.Recipe) (*recipe.Recipe, error) {
	key := rec.Key()
	stored, err := a.Recipes.CopyToStore(ctx, userID, rec)
	if err != nil {
		return nil, err
	}
	if !rec.IsOwned() {
		if err := a.Saved.Add(ctx, userID, key); err != nil {
			metrics.ExternalFailures.WithLabelValues("storage").Inc()
			a.Log.Warnf("failed to remember saved recipe %s: %v", key, err)
		}
	}
	return stored, nil
}

// UnsaveRecipe forgets a saved source key. The stored copy is kept.
func (a *App) UnsaveRecipe(ctx context.Context, userID, key string) error {
	return a.Saved.Remove(ctx, userID, key)
}

// IngestDataset loads community recipes from CSV.
func (a *App) IngestDataset(ctx context.Context, src io.Reader) (int, error) {
	n, err := a.Dataset.ImportCSV(ctx, src)
	if err != nil {
		return n, fmt.Errorf("dataset import stopped after %d rows: %w", n, err)
	}
	a.Log.Infof("imported %d dataset recipes", n)
	return n, nil
}

// EmbedDataset embeds dataset rows that have no stored vector, batch by batch, pausing delay
// between embedding calls. It stops at the first storage error and returns the count so far.
func (a *App) EmbedDataset(ctx context.Context, batchSize int, delay time.Duration) (int, error) {
	if batchSize <= 0 {
		batchSize = 50
	}
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	limiter := rate.NewLimiter(limit, 1)
	onFallback := func(error) { metrics.Fallbacks.WithLabelValues("hash_embedding").Inc() }
	embedder := llm.NewFallbackEmbeddingGenerator(a.embedder, llm.EmbeddingDimensions, a.Log, onFallback)

	done := 0
	for {
		ids, err := a.Vectors.ListUnembedded(ctx, batchSize)
		if err != nil {
			return done, err
		}
		if len(ids) == 0 {
			break
		}
		rows, err := a.Dataset.GetByIDs(ctx, ids)
		if err != nil {
			return done, err
		}
		for _, row := range rows {
			if err := limiter.Wait(ctx); err != nil {
				return done, err
			}
			emb, err := embedder.GenerateEmbedding(ctx, row.EmbeddingText())
			if err != nil {
				return done, err
			}
			if err := a.Vectors.Save(ctx, row.ID, emb, a.embeddingModel); err != nil {
				return done, err
			}
			done++
		}
		a.Log.Infof("embedded %d dataset recipes", done)
	}
	return done, nil
}

// CleanupMetrics removes execution metrics older than days.
func (a *App) CleanupMetrics(days int) (int64, error) {
	n, err := a.Metrics.Cleanup(days)
	if err != nil {
		return 0, err
	}
	a.Log.Infof("removed %d execution metrics older than %d days", n, days)
	return n, nil
}
