package planner

import "pantry-planner/internal/recipe"

func ing(name string, qty float64, unit string) recipe.Ingredient {
	return recipe.Ingredient{Name: name, Quantity: qty, Unit: unit}
}

// fallbackRecipes fill whatever the other phases leave open. They use staple ingredients only.
var fallbackRecipes = []recipe.Recipe{
	{
		Name: "Nasi Goreng Sederhana", Description: "Fried rice with egg and sweet soy sauce.",
		PrepTime: 10, CookTime: 10, Servings: 2, Difficulty: recipe.DifficultyEasy,
		Ingredients: []recipe.Ingredient{ing("nasi", 2, "cup"), ing("telur", 2, "piece"), ing("bawang putih", 2, "clove"), ing("kecap manis", 2, "tbsp")},
		Instructions: []string{"Tumis bawang putih hingga harum.", "Masukkan telur, orak-arik.", "Masukkan nasi dan kecap manis, aduk rata."},
	},
	{
		Name: "Telur Dadar", Description: "Indonesian style omelette.",
		PrepTime: 5, CookTime: 5, Servings: 2, Difficulty: recipe.DifficultyEasy,
		Ingredients: []recipe.Ingredient{ing("telur", 3, "piece"), ing("bawang merah", 2, "clove"), ing("garam", 0.5, "tsp")},
		Instructions: []string{"Kocok telur dengan bawang merah dan garam.", "Goreng di wajan panas hingga matang."},
	},
	{
		Name: "Tumis Kangkung", Description: "Stir-fried water spinach with garlic.",
		PrepTime: 10, CookTime: 5, Servings: 2, Difficulty: recipe.DifficultyEasy,
		Ingredients: []recipe.Ingredient{ing("kangkung", 1, "bunch"), ing("bawang putih", 3, "clove"), ing("saus tiram", 1, "tbsp")},
		Instructions: []string{"Tumis bawang putih.", "Masukkan kangkung dan saus tiram, masak sebentar."},
	},
	{
		Name: "Tempe Goreng", Description: "Crispy fried tempeh.",
		PrepTime: 5, CookTime: 10, Servings: 2, Difficulty: recipe.DifficultyEasy,
		Ingredients: []recipe.Ingredient{ing("tempe", 1, "pack"), ing("bawang putih", 2, "clove"), ing("garam", 1, "tsp")},
		Instructions: []string{"Iris tempe, rendam dalam bumbu.", "Goreng hingga kecokelatan."},
	},
	{
		Name: "Sayur Bening Bayam", Description: "Clear spinach soup.",
		PrepTime: 5, CookTime: 10, Servings: 4, Difficulty: recipe.DifficultyEasy,
		Ingredients: []recipe.Ingredient{ing("bayam", 1, "bunch"), ing("jagung", 1, "piece"), ing("bawang merah", 3, "clove"), ing("air", 1, "liter")},
		Instructions: []string{"Didihkan air dengan bawang merah.", "Masukkan jagung, lalu bayam.", "Bumbui dengan garam."},
	},
	{
		Name: "Tahu Goreng", Description: "Fried tofu with chili soy dip.",
		PrepTime: 5, CookTime: 10, Servings: 2, Difficulty: recipe.DifficultyEasy,
		Ingredients: []recipe.Ingredient{ing("tahu", 4, "piece"), ing("kecap manis", 2, "tbsp"), ing("cabai rawit", 3, "piece")},
		Instructions: []string{"Goreng tahu hingga kuning.", "Sajikan dengan kecap dan cabai."},
	},
	{
		Name: "Bubur Ayam", Description: "Rice porridge with chicken.",
		PrepTime: 10, CookTime: 40, Servings: 4, Difficulty: recipe.DifficultyMedium,
		Ingredients: []recipe.Ingredient{ing("beras", 200, "gram"), ing("ayam", 250, "gram"), ing("air", 1.5, "liter"), ing("daun bawang", 1, "bunch")},
		Instructions: []string{"Rebus beras dengan air hingga menjadi bubur.", "Rebus dan suwir ayam.", "Sajikan bubur dengan ayam dan daun bawang."},
	},
}

// fallbackAt returns a copy of the i-th fallback recipe, cycling.
func fallbackAt(i int) recipe.Recipe {
	r := fallbackRecipes[i%len(fallbackRecipes)]
	r.Provenance = recipe.ProvenanceFallback
	r.Ingredients = append([]recipe.Ingredient(nil), r.Ingredients...)
	r.Instructions = append([]string(nil), r.Instructions...)
	r.Tags = []string{"fallback"}
	return r
}
