// Package dataset reads the shared community recipe dataset. Rows are free text and are parsed
// into recipes on demand.
package dataset

import (
	"strconv"
	"strings"

	"pantry-planner/internal/recipe"
)

// Recipe is one row of the community dataset.
type Recipe struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	IngredientsText string `json:"ingredients"`
	StepsText       string `json:"steps"`
	Loves           int    `json:"loves"`
	URL             string `json:"url,omitempty"`
}

// IngredientNames returns the parsed, lower-cased ingredient names.
func (d Recipe) IngredientNames() []string {
	var names []string
	for _, line := range recipe.SplitBlob(d.IngredientsText) {
		if ing := recipe.ParseIngredientLine(line); ing.Name != "" {
			names = append(names, ing.Name)
		}
	}
	return names
}

// EmbeddingText is the text embedded for vector search: the title followed by the ingredient
// names, shaped like the "Ingredients: ..." queries built from a pantry.
func (d Recipe) EmbeddingText() string {
	return strings.TrimSpace(d.Title) + ". Ingredients: " + strings.Join(d.IngredientNames(), ", ")
}

// ToRecipe parses the row into the recipe shape with dataset provenance.
func (d Recipe) ToRecipe() recipe.Recipe {
	var ings []recipe.Ingredient
	for _, line := range recipe.SplitBlob(d.IngredientsText) {
		if ing := recipe.ParseIngredientLine(line); ing.Name != "" {
			ings = append(ings, ing)
		}
	}
	steps := recipe.SplitBlob(d.StepsText)

	r := recipe.Recipe{
		Provenance:   recipe.ProvenanceDataset,
		SourceRef:    strconv.FormatInt(d.ID, 10),
		Name:         strings.TrimSpace(d.Title),
		Description:  d.URL,
		Servings:     defaultServings,
		Difficulty:   difficultyFor(len(ings), len(steps)),
		PrepTime:     5 * len(ings),
		CookTime:     10 * len(steps),
		Instructions: steps,
		Ingredients:  ings,
		Tags:         []string{"dataset"},
	}
	r.Normalize()
	return r
}

// the dataset carries no serving size
const defaultServings = 4

func difficultyFor(ingredients, steps int) recipe.Difficulty {
	switch n := ingredients + steps; {
	case n <= 10:
		return recipe.DifficultyEasy
	case n <= 20:
		return recipe.DifficultyMedium
	default:
		return recipe.DifficultyHard
	}
}
