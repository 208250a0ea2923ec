// Package shopping derives a shopping list from planned recipes and the pantry. Lists are
// computed on demand and never stored.
package shopping

import (
	"strings"

	"pantry-planner/internal/ingredient"
	"pantry-planner/internal/recipe"

	"github.com/samber/lo"
)

// Item is one aggregated ingredient line.
type Item struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Needed   bool    `json:"needed"`
	Required float64 `json:"required"`
	Owned    float64 `json:"owned"`
}

// List splits the items into what must be bought and what the pantry already covers.
type List struct {
	ToBuy       []Item `json:"to_buy"`
	AlreadyHave []Item `json:"already_have"`
}

// Aggregate scales every recipe to peopleCount, merges ingredients by lower-cased name and
// subtracts what the pantry holds. Units are not converted: quantities of the same name are
// summed as if they shared the first unit seen. Items keep their order of first appearance.
func Aggregate(recipes []recipe.Recipe, peopleCount int, pantry []ingredient.Ingredient) List {
	if peopleCount <= 0 {
		peopleCount = 1
	}

	var order []string
	required := map[string]*Item{}
	for _, r := range recipes {
		servings := r.Servings
		if servings <= 0 {
			servings = 1
		}
		factor := float64(peopleCount) / float64(servings)

		for _, ing := range r.Ingredients {
			name := strings.ToLower(strings.TrimSpace(ing.Name))
			if name == "" {
				continue
			}
			it, ok := required[name]
			if !ok {
				it = &Item{Name: name, Unit: ing.Unit}
				required[name] = it
				order = append(order, name)
			}
			it.Required += ing.Quantity * factor
		}
	}

	owned := lo.MapValues(lo.GroupBy(pantry, ingredient.Ingredient.NormalizedName), func(items []ingredient.Ingredient, _ string) float64 {
		return lo.SumBy(items, func(i ingredient.Ingredient) float64 { return i.Quantity })
	})

	list := List{ToBuy: []Item{}, AlreadyHave: []Item{}}
	for _, name := range order {
		it := *required[name]
		it.Owned = owned[name]
		if it.Owned >= it.Required {
			it.Needed = false
			it.Quantity = 0
			list.AlreadyHave = append(list.AlreadyHave, it)
			continue
		}
		it.Needed = true
		it.Quantity = it.Required - it.Owned
		list.ToBuy = append(list.ToBuy, it)
	}
	return list
}
