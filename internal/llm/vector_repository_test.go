package llm

import (
	"context"
	"testing"

	"pantry-planner/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(database.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func insertDatasetRow(t *testing.T, db *database.DB, title string, loves int) int64 {
	t.Helper()
	res, err := db.SQL.Exec(`INSERT INTO dataset_recipes (title, ingredients, steps, loves) VALUES (?, '', '', ?)`, title, loves)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func TestVectorRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewVectorRepository(db.SQL, nil)

	pasta := insertDatasetRow(t, db, "Pasta", 50)
	salad := insertDatasetRow(t, db, "Salad", 5)
	soup := insertDatasetRow(t, db, "Soup", 100)

	require.NoError(t, repo.Save(ctx, pasta, []float32{1, 0}, "m"))
	require.NoError(t, repo.Save(ctx, salad, []float32{0.9, 0.1}, "m"))
	require.NoError(t, repo.Save(ctx, soup, []float32{0, 1}, "m"))

	t.Run("ordered by similarity above threshold", func(t *testing.T) {
		got, err := repo.MatchByQuery(ctx, []float32{1, 0}, 0.5, 10)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, pasta, got[0].RecipeID)
		assert.InDelta(t, 1.0, got[0].Similarity, 1e-9)
		assert.Equal(t, salad, got[1].RecipeID)
	})

	t.Run("popularity floor", func(t *testing.T) {
		got, err := repo.MatchByIngredients(ctx, []float32{1, 0}, 0.5, 10, 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, pasta, got[0].RecipeID)
	})

	t.Run("limit", func(t *testing.T) {
		got, err := repo.MatchByQuery(ctx, []float32{1, 1}, 0, 1)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("upsert", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, soup, []float32{1, 0}, "m2"))
		got, err := repo.MatchByQuery(ctx, []float32{1, 0}, 0.999, 10)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("unembedded", func(t *testing.T) {
		extra := insertDatasetRow(t, db, "Rendang", 1)
		ids, err := repo.ListUnembedded(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, []int64{extra}, ids)
	})
}

func TestByteConversion(t *testing.T) {
	in := []float32{0.25, -1.5, 3}
	b, err := float32SliceToByteSlice(in)
	require.NoError(t, err)
	out, err := byteSliceToFloat32Slice(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = byteSliceToFloat32Slice([]byte{1, 2, 3})
	assert.Error(t, err)
	_, err = float32SliceToByteSlice(nil)
	assert.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, cosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 2}))
}
