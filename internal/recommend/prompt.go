package recommend

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"pantry-planner/internal/llm"
	"pantry-planner/internal/recipe"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

func renderPrompt(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

// modelRecipe is the recipe shape the prompts ask the model for.
type modelRecipe struct {
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	PrepTime     int                 `json:"prep_time"`
	CookTime     int                 `json:"cook_time"`
	Servings     int                 `json:"servings"`
	Difficulty   string              `json:"difficulty"`
	Ingredients  []recipe.Ingredient `json:"ingredients"`
	Instructions []string            `json:"instructions"`
	Tags         []string            `json:"tags"`
}

type modelBatch struct {
	Recipes []modelRecipe `json:"recipes"`
}

// parseBatch extracts a non-empty recipe batch from model text. A batch with a nameless entry
// is rejected whole.
func parseBatch(text string) ([]modelRecipe, error) {
	var batch modelBatch
	if err := llm.ParseModelJSON(text, &batch); err != nil {
		return nil, err
	}
	if len(batch.Recipes) == 0 {
		return nil, ErrMalformedResponse
	}
	for i, r := range batch.Recipes {
		if strings.TrimSpace(r.Name) == "" {
			return nil, fmt.Errorf("%w: recipe %d has no name", ErrMalformedResponse, i)
		}
	}
	return batch.Recipes, nil
}

func (m modelRecipe) toRecipe(p recipe.Provenance) recipe.Recipe {
	r := recipe.Recipe{
		Provenance:   p,
		Name:         m.Name,
		Description:  m.Description,
		PrepTime:     max(m.PrepTime, 0),
		CookTime:     max(m.CookTime, 0),
		Servings:     m.Servings,
		Difficulty:   parseDifficulty(m.Difficulty),
		Instructions: m.Instructions,
		Tags:         m.Tags,
	}
	for _, ing := range m.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			continue
		}
		ing.Name = strings.ToLower(strings.TrimSpace(ing.Name))
		ing.Quantity = max(ing.Quantity, 0)
		r.Ingredients = append(r.Ingredients, ing)
	}
	r.Normalize()
	return r
}

func parseDifficulty(s string) recipe.Difficulty {
	switch d := recipe.Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case recipe.DifficultyEasy, recipe.DifficultyMedium, recipe.DifficultyHard:
		return d
	default:
		return recipe.DifficultyEasy
	}
}
