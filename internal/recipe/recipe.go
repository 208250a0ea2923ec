package recipe

import (
	"fmt"
	"hash/fnv"
	"slices"
	"strings"
	"time"
)

// Provenance tells where a recipe came from. Only Owned recipes have a stable identity in the
// user's store; the rest must be copied in before a weekly plan can reference them.
type Provenance string

const (
	ProvenanceOwned       Provenance = "owned"
	ProvenanceDataset     Provenance = "dataset"
	ProvenanceAIGenerated Provenance = "ai_generated"
	ProvenanceRAGAI       Provenance = "rag_ai"
	ProvenanceFallback    Provenance = "fallback"
)

// Difficulty is a coarse effort rating.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Ingredient is one line item of a recipe.
type Ingredient struct {
	Name     string  `json:"name" validate:"required,max=100"`
	Quantity float64 `json:"quantity" validate:"gte=0"`
	Unit     string  `json:"unit" validate:"max=20"`
}

// Recipe is a user-owned or externally sourced recipe.
type Recipe struct {
	ID           string       `json:"id,omitempty"`
	UserID       string       `json:"user_id,omitempty"`
	Provenance   Provenance   `json:"provenance"`
	SourceRef    string       `json:"source_ref,omitempty"`
	Name         string       `json:"name" validate:"required,min=2,max=200"`
	Description  string       `json:"description" validate:"max=2000"`
	PrepTime     int          `json:"prep_time" validate:"gte=0"`
	CookTime     int          `json:"cook_time" validate:"gte=0"`
	Servings     int          `json:"servings" validate:"gte=1,lte=100"`
	Difficulty   Difficulty   `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Instructions []string     `json:"instructions"`
	Tags         []string     `json:"tags"`
	Ingredients  []Ingredient `json:"ingredients" validate:"dive"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// IsOwned reports whether r lives in a user's store.
func (r Recipe) IsOwned() bool {
	return r.Provenance == ProvenanceOwned && r.ID != ""
}

// Key identifies r across provenances: the store ID for owned recipes, the source reference for
// dataset rows, otherwise the lower-cased name plus a digest of the ingredient names.
func (r Recipe) Key() string {
	switch {
	case r.IsOwned():
		return "owned:" + r.ID
	case r.SourceRef != "":
		return string(r.Provenance) + ":" + r.SourceRef
	default:
		key := string(r.Provenance) + ":" + strings.ToLower(strings.TrimSpace(r.Name))
		if names := r.IngredientNames(); len(names) > 0 {
			slices.Sort(names)
			h := fnv.New32a()
			_, _ = h.Write([]byte(strings.Join(names, "\n")))
			key += fmt.Sprintf(":%08x", h.Sum32())
		}
		return key
	}
}

// Detached returns a copy of r with no store identity. Recipes claiming to be owned become
// AI-generated so they are copied into the caller's store on save.
func (r Recipe) Detached() Recipe {
	r.ID, r.UserID = "", ""
	r.CreatedAt, r.UpdatedAt = time.Time{}, time.Time{}
	if r.Provenance == "" || r.Provenance == ProvenanceOwned {
		r.Provenance = ProvenanceAIGenerated
	}
	return r
}

// IngredientNames returns the lower-cased ingredient names in recipe order.
func (r Recipe) IngredientNames() []string {
	names := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		if n := strings.ToLower(strings.TrimSpace(ing.Name)); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// TotalTime is prep plus cook minutes.
func (r Recipe) TotalTime() int {
	return r.PrepTime + r.CookTime
}

// Normalize fills defaults a stored recipe must carry.
func (r *Recipe) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	if r.Servings <= 0 {
		r.Servings = 1
	}
	if r.Difficulty == "" {
		r.Difficulty = DifficultyEasy
	}
	if r.Instructions == nil {
		r.Instructions = []string{}
	}
	r.Tags = uniqueTags(r.Tags)
}

func uniqueTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
