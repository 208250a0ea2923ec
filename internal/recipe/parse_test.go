package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIngredientLine(t *testing.T) {
	tests := []struct {
		line string
		want Ingredient
	}{
		{"1/2 kg ayam", Ingredient{Name: "ayam", Quantity: 0.5, Unit: "kg"}},
		{"3 siung Bawang Putih", Ingredient{Name: "bawang putih", Quantity: 3, Unit: "clove"}},
		{"500gr daging sapi", Ingredient{Name: "daging sapi", Quantity: 500, Unit: "gram"}},
		{"1,5 liter air", Ingredient{Name: "air", Quantity: 1.5, Unit: "liter"}},
		{"1 1/2 sdm gula", Ingredient{Name: "gula", Quantity: 1.5, Unit: "tbsp"}},
		{"2-3 buah cabai", Ingredient{Name: "cabai", Quantity: 2, Unit: "piece"}},
		{"2 tomat", Ingredient{Name: "tomat", Quantity: 2, Unit: "piece"}},
		{"garam secukupnya", Ingredient{Name: "garam secukupnya", Quantity: 1, Unit: "piece"}},
		{"- 1 ikat bayam", Ingredient{Name: "bayam", Quantity: 1, Unit: "bunch"}},
		{"   ", Ingredient{}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseIngredientLine(tt.line))
		})
	}
}

func TestSplitBlob(t *testing.T) {
	got := SplitBlob("1 ekor ayam--2 siung bawang putih\r\n-- garam --\n\n3 sdm kecap")
	assert.Equal(t, []string{"1 ekor ayam", "2 siung bawang putih", "garam", "3 sdm kecap"}, got)
	assert.Empty(t, SplitBlob(""))
}

func TestRecipeKeyAndNames(t *testing.T) {
	owned := Recipe{ID: "abc", Provenance: ProvenanceOwned, Name: "Soto"}
	assert.Equal(t, "owned:abc", owned.Key())

	ds := Recipe{Provenance: ProvenanceDataset, SourceRef: "42", Name: "Soto"}
	assert.Equal(t, "dataset:42", ds.Key())

	ai := Recipe{Provenance: ProvenanceAIGenerated, Name: " Nasi Goreng "}
	assert.Equal(t, "ai_generated:nasi goreng", ai.Key())
	assert.False(t, ai.IsOwned())

	withIngredients := Recipe{Provenance: ProvenanceAIGenerated, Name: "Nasi Goreng",
		Ingredients: []Ingredient{{Name: "nasi"}, {Name: "telur"}}}
	reordered := withIngredients
	reordered.Ingredients = []Ingredient{{Name: "Telur"}, {Name: "nasi"}}
	assert.Regexp(t, `^ai_generated:nasi goreng:[0-9a-f]{8}$`, withIngredients.Key())
	assert.Equal(t, withIngredients.Key(), reordered.Key())

	changed := withIngredients
	changed.Ingredients = []Ingredient{{Name: "nasi"}, {Name: "udang"}}
	assert.NotEqual(t, withIngredients.Key(), changed.Key())

	r := Recipe{Ingredients: []Ingredient{{Name: " Ayam "}, {Name: ""}, {Name: "TELUR"}}}
	assert.Equal(t, []string{"ayam", "telur"}, r.IngredientNames())
}

func TestNormalize(t *testing.T) {
	r := Recipe{Name: "  Rendang ", Tags: []string{"Pedas", "pedas", " ", "Daging"}}
	r.Normalize()
	assert.Equal(t, "Rendang", r.Name)
	assert.Equal(t, 1, r.Servings)
	assert.Equal(t, DifficultyEasy, r.Difficulty)
	assert.Equal(t, []string{"pedas", "daging"}, r.Tags)
	assert.NotNil(t, r.Instructions)
}
