package dataset

import (
	"context"
	"strings"
	"testing"

	"pantry-planner/internal/database"
	"pantry-planner/internal/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*Repository, *database.DB) {
	t.Helper()
	db, err := database.NewDB(database.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.SQL), db
}

const sampleCSV = `Title,Ingredients,Steps,Loves,URL
Ayam Goreng Kuning,1 ekor ayam--3 siung bawang putih--1 ruas kunyit,Rebus ayam--Goreng,120,https://cookpad.com/id/1
Sayur Asem,1 ikat kacang panjang--2 buah jagung--asam jawa,Rebus semua--Sajikan,40,
,no title--skipped,,,
Tahu Telur,2 buah tahu--3 butir telur,Kocok telur--Goreng,75,https://cookpad.com/id/3
`

func TestImportAndQuery(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	n, err := repo.ImportCSV(ctx, strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	t.Run("ListPopular", func(t *testing.T) {
		rows, err := repo.ListPopular(ctx, 50, 10)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Ayam Goreng Kuning", rows[0].Title)
		assert.Equal(t, "Tahu Telur", rows[1].Title)
	})

	t.Run("SearchText", func(t *testing.T) {
		rows, err := repo.SearchText(ctx, []string{"TELUR", "jagung"}, 10)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Tahu Telur", rows[0].Title)
		assert.Equal(t, "Sayur Asem", rows[1].Title)

		rows, err = repo.SearchText(ctx, []string{"", "  "}, 10)
		require.NoError(t, err)
		assert.Empty(t, rows)

		rows, err = repo.SearchText(ctx, []string{"100%"}, 10)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("GetByIDs keeps order", func(t *testing.T) {
		all, err := repo.ListPopular(ctx, 0, 10)
		require.NoError(t, err)
		ids := []int64{all[2].ID, 999, all[0].ID}
		rows, err := repo.GetByIDs(ctx, ids)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, all[2].ID, rows[0].ID)
		assert.Equal(t, all[0].ID, rows[1].ID)
	})

	t.Run("Get", func(t *testing.T) {
		_, err := repo.Get(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestImportCSVMissingColumn(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.ImportCSV(context.Background(), strings.NewReader("Title,Steps\nA,B\n"))
	assert.Error(t, err)
}

func TestSharedRowsOnly(t *testing.T) {
	ctx := context.Background()
	repo, db := newTestRepo(t)

	_, err := db.SQL.Exec(`INSERT INTO dataset_recipes (user_id, title, ingredients, steps, loves) VALUES ('u1', 'Private', 'ayam', '', 500)`)
	require.NoError(t, err)

	rows, err := repo.ListPopular(ctx, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestToRecipe(t *testing.T) {
	d := Recipe{
		ID:              7,
		Title:           " Ayam Goreng ",
		IngredientsText: "1/2 kg ayam--3 siung bawang putih--garam",
		StepsText:       "Bumbui ayam--Goreng hingga matang",
		Loves:           10,
		URL:             "https://cookpad.com/id/7",
	}

	r := d.ToRecipe()
	assert.Equal(t, recipe.ProvenanceDataset, r.Provenance)
	assert.Equal(t, "7", r.SourceRef)
	assert.Equal(t, "dataset:7", r.Key())
	assert.Equal(t, "Ayam Goreng", r.Name)
	assert.Equal(t, defaultServings, r.Servings)
	assert.Equal(t, recipe.DifficultyEasy, r.Difficulty)
	assert.Equal(t, []string{"Bumbui ayam", "Goreng hingga matang"}, r.Instructions)
	require.Len(t, r.Ingredients, 3)
	assert.Equal(t, recipe.Ingredient{Name: "ayam", Quantity: 0.5, Unit: "kg"}, r.Ingredients[0])
	assert.Equal(t, []string{"ayam", "bawang putih", "garam"}, d.IngredientNames())
}
