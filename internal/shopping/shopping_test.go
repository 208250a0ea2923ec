package shopping

import (
	"math/rand"
	"testing"

	"pantry-planner/internal/ingredient"
	"pantry-planner/internal/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ayamRecipe() recipe.Recipe {
	return recipe.Recipe{
		Name:     "Ayam Goreng",
		Servings: 4,
		Ingredients: []recipe.Ingredient{
			{Name: "Ayam", Quantity: 300, Unit: "gram"},
			{Name: "bawang putih", Quantity: 4, Unit: "clove"},
		},
	}
}

func pantry() []ingredient.Ingredient {
	return []ingredient.Ingredient{
		{Name: "ayam", Quantity: 500, Unit: ingredient.UnitGram},
		{Name: "Bawang Putih", Quantity: 2, Unit: ingredient.UnitClove},
		{Name: "bawang putih ", Quantity: 3, Unit: ingredient.UnitClove},
	}
}

func find(items []Item, name string) (Item, bool) {
	for _, it := range items {
		if it.Name == name {
			return it, true
		}
	}
	return Item{}, false
}

func TestAggregateAgainstPantry(t *testing.T) {
	t.Run("four people are covered", func(t *testing.T) {
		list := Aggregate([]recipe.Recipe{ayamRecipe()}, 4, pantry())
		assert.Empty(t, list.ToBuy)

		ayam, ok := find(list.AlreadyHave, "ayam")
		require.True(t, ok)
		assert.False(t, ayam.Needed)
		assert.Zero(t, ayam.Quantity)
		assert.InDelta(t, 300, ayam.Required, 1e-9)
		assert.InDelta(t, 500, ayam.Owned, 1e-9)

		garlic, ok := find(list.AlreadyHave, "bawang putih")
		require.True(t, ok)
		assert.InDelta(t, 5, garlic.Owned, 1e-9, "pantry rows with the same name add up")
	})

	t.Run("eight people need 100 gram more", func(t *testing.T) {
		list := Aggregate([]recipe.Recipe{ayamRecipe()}, 8, pantry())
		ayam, ok := find(list.ToBuy, "ayam")
		require.True(t, ok)
		assert.True(t, ayam.Needed)
		assert.InDelta(t, 600, ayam.Required, 1e-9)
		assert.InDelta(t, 100, ayam.Quantity, 1e-9)
		assert.Equal(t, "gram", ayam.Unit)

		garlic, ok := find(list.ToBuy, "bawang putih")
		require.True(t, ok)
		assert.InDelta(t, 3, garlic.Quantity, 1e-9)
	})
}

func TestAggregateMergesByName(t *testing.T) {
	second := recipe.Recipe{
		Servings: 2,
		Ingredients: []recipe.Ingredient{
			{Name: "Garam", Quantity: 1, Unit: "tsp"},
			{Name: "AYAM", Quantity: 100, Unit: "gram"},
		},
	}
	list := Aggregate([]recipe.Recipe{ayamRecipe(), second}, 4, nil)

	require.Len(t, list.ToBuy, 3)
	assert.Equal(t, []string{"ayam", "bawang putih", "garam"}, []string{list.ToBuy[0].Name, list.ToBuy[1].Name, list.ToBuy[2].Name})
	assert.InDelta(t, 300+200, list.ToBuy[0].Quantity, 1e-9)
	assert.NotNil(t, list.AlreadyHave)
}

func TestAggregateEdgeCases(t *testing.T) {
	list := Aggregate(nil, 4, pantry())
	assert.Empty(t, list.ToBuy)
	assert.Empty(t, list.AlreadyHave)

	noServings := recipe.Recipe{Ingredients: []recipe.Ingredient{{Name: "telur", Quantity: 2, Unit: "piece"}, {Name: " ", Quantity: 9}}}
	list = Aggregate([]recipe.Recipe{noServings}, 3, nil)
	require.Len(t, list.ToBuy, 1)
	assert.InDelta(t, 6, list.ToBuy[0].Quantity, 1e-9, "missing servings count as one")

	list = Aggregate([]recipe.Recipe{noServings}, 0, nil)
	assert.InDelta(t, 2, list.ToBuy[0].Quantity, 1e-9)
}

// Units are summed as-is: one kilogram in the pantry does not cover 300 gram.
func TestAggregateDoesNotConvertUnits(t *testing.T) {
	list := Aggregate([]recipe.Recipe{ayamRecipe()}, 4, []ingredient.Ingredient{{Name: "ayam", Quantity: 1, Unit: ingredient.UnitKg}})
	ayam, ok := find(list.ToBuy, "ayam")
	require.True(t, ok)
	assert.InDelta(t, 299, ayam.Quantity, 1e-9)
	assert.Equal(t, "gram", ayam.Unit)
}

func TestAggregateProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	names := []string{"ayam", "tahu", "tempe", "telur", "nasi", "garam", "bayam"}

	for i := 0; i < 200; i++ {
		var recipes []recipe.Recipe
		for r := 0; r < 1+rng.Intn(4); r++ {
			rec := recipe.Recipe{Servings: rng.Intn(6)}
			for j := 0; j < 1+rng.Intn(5); j++ {
				rec.Ingredients = append(rec.Ingredients, recipe.Ingredient{Name: names[rng.Intn(len(names))], Quantity: float64(rng.Intn(500)), Unit: "gram"})
			}
			recipes = append(recipes, rec)
		}
		var pan []ingredient.Ingredient
		for j := 0; j < rng.Intn(5); j++ {
			pan = append(pan, ingredient.Ingredient{Name: names[rng.Intn(len(names))], Quantity: float64(rng.Intn(800))})
		}
		people := 1 + rng.Intn(8)

		list := Aggregate(recipes, people, pan)

		seen := map[string]bool{}
		for _, it := range append(append([]Item{}, list.ToBuy...), list.AlreadyHave...) {
			assert.False(t, seen[it.Name], "%s listed twice", it.Name)
			seen[it.Name] = true
		}
		for _, rec := range recipes {
			for _, ing := range rec.Ingredients {
				assert.True(t, seen[ing.Name], "%s missing", ing.Name)
			}
		}
		for _, it := range list.ToBuy {
			assert.True(t, it.Needed)
			assert.Greater(t, it.Required, it.Owned)
			assert.InDelta(t, it.Required-it.Owned, it.Quantity, 1e-9)
		}
		for _, it := range list.AlreadyHave {
			assert.False(t, it.Needed)
			assert.Zero(t, it.Quantity)
		}

		double := Aggregate(recipes, people*2, nil)
		single := Aggregate(recipes, people, nil)
		for k, it := range single.ToBuy {
			assert.InDelta(t, 2*it.Required, double.ToBuy[k].Required, 1e-6, "scaling is linear")
		}
	}
}
