package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"pantry-planner/internal/config"
	"pantry-planner/internal/database"
	"pantry-planner/internal/ingredient"
	"pantry-planner/internal/llm"
	"pantry-planner/internal/planner"
	"pantry-planner/internal/recipe"
	"pantry-planner/internal/recommend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const datasetCSV = `Title,Ingredients,Steps,Loves,URL
Ayam Goreng,500 gram ayam--3 siung bawang putih--1 sdt garam,Marinasi ayam--Goreng hingga matang,120,https://example.com/ayam-goreng
Tumis Kangkung,1 ikat kangkung--2 siung bawang putih,Tumis bawang--Masukkan kangkung,40,
,tanpa judul,dilewati,1,
`

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := &config.Config{
		DatabasePath:  database.MemoryPath,
		LLMProvider:   "gemini",
		VectorBackend: "sqlite",
		KVBackend:     "memory",
		JWTSecret:     "test-secret",
	}
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func addPantry(t *testing.T, a *App, userID string, names ...string) {
	t.Helper()
	for _, n := range names {
		_, err := a.Ingredients.Create(context.Background(), userID, ingredient.Ingredient{
			Name: n, Quantity: 1, Unit: ingredient.UnitKg, Category: ingredient.CategoryVegetables,
		})
		require.NoError(t, err)
	}
}

func TestNewWithoutCredentials(t *testing.T) {
	a := newTestApp(t)
	assert.False(t, a.HasTextModel())
	assert.Equal(t, hashEmbeddingModel, a.embeddingModel)
	assert.True(t, a.Flags.WeeklyPlanner)
}

func TestIngestAndEmbedDataset(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	n, err := a.IngestDataset(ctx, strings.NewReader(datasetCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	embedded, err := a.EmbedDataset(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, embedded)

	left, err := a.Vectors.ListUnembedded(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, left)

	again, err := a.EmbedDataset(ctx, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestRecommendDataset(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	_, err := a.IngestDataset(ctx, strings.NewReader(datasetCSV))
	require.NoError(t, err)
	addPantry(t, a, "u1", "ayam", "bawang putih")

	recs, err := a.Recommend(ctx, "u1", SourceDataset, recommend.Filters{})
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	assert.Equal(t, "Ayam Goreng", recs[0].Recipe.Name)
	assert.Equal(t, recipe.ProvenanceDataset, recs[0].Recipe.Provenance)
}

func TestRecommendGates(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	a.Flags.Dataset = false
	_, err := a.Recommend(ctx, "u1", SourceDataset, recommend.Filters{})
	assert.ErrorIs(t, err, ErrFeatureDisabled)

	_, err = a.Recommend(ctx, "u1", "horoscope", recommend.Filters{})
	assert.ErrorIs(t, err, ErrUnknownSource)

	_, err = a.Recommend(ctx, "u1", SourceSuggestions, recommend.Filters{})
	assert.ErrorIs(t, err, llm.ErrNoTextModel)
}

func TestSaveRecipeIsIdempotent(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	ext := recipe.Recipe{
		Provenance:  recipe.ProvenanceDataset,
		SourceRef:   "7",
		Name:        "Ayam Goreng",
		Servings:    4,
		Difficulty:  recipe.DifficultyEasy,
		Ingredients: []recipe.Ingredient{{Name: "ayam", Quantity: 500, Unit: "gram"}},
	}

	first, err := a.SaveRecipe(ctx, "u1", ext)
	require.NoError(t, err)
	second, err := a.SaveRecipe(ctx, "u1", ext)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	n, err := a.Recipes.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	saved, err := a.Saved.Contains(ctx, "u1", "dataset:7")
	require.NoError(t, err)
	assert.True(t, saved)

	require.NoError(t, a.UnsaveRecipe(ctx, "u1", "dataset:7"))
	saved, err = a.Saved.Contains(ctx, "u1", "dataset:7")
	require.NoError(t, err)
	assert.False(t, saved)
}

func TestShoppingListFromDraft(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	plan, _, err := a.Planner.Generate(ctx, planner.Request{
		UserID:      "u1",
		WeekStart:   time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		PeopleCount: 2,
		SlotsPerDay: 1,
	})
	require.NoError(t, err)

	list, err := a.ShoppingList(ctx, "u1", plan.WeekStart)
	require.NoError(t, err)
	assert.NotEmpty(t, list.ToBuy)
	assert.Empty(t, list.AlreadyHave)

	_, err = a.ShoppingList(ctx, "u1", "2020-01-06")
	assert.ErrorIs(t, err, planner.ErrNotFound)
}

func TestCleanupMetrics(t *testing.T) {
	a := newTestApp(t)
	n, err := a.CleanupMetrics(30)
	require.NoError(t, err)
	assert.Zero(t, n)
}
