package ingredient

import (
	"strings"
	"time"
)

// Unit is the measure a quantity is expressed in.
type Unit string

const (
	UnitKg    Unit = "kg"
	UnitGram  Unit = "gram"
	UnitLiter Unit = "liter"
	UnitMl    Unit = "ml"
	UnitPiece Unit = "piece"
	UnitClove Unit = "clove"
	UnitTbsp  Unit = "tbsp"
	UnitTsp   Unit = "tsp"
	UnitCup   Unit = "cup"
	UnitBunch Unit = "bunch"
	UnitSlice Unit = "slice"
	UnitPack  Unit = "pack"
)

// Units lists every accepted unit.
var Units = []Unit{UnitKg, UnitGram, UnitLiter, UnitMl, UnitPiece, UnitClove, UnitTbsp, UnitTsp, UnitCup, UnitBunch, UnitSlice, UnitPack}

// Category groups ingredients for display.
type Category string

const (
	CategoryVegetables Category = "vegetables"
	CategoryMeat       Category = "meat"
	CategoryDairy      Category = "dairy"
	CategorySeafood    Category = "seafood"
	CategoryFruits     Category = "fruits"
	CategoryGrains     Category = "grains"
	CategorySpices     Category = "spices"
)

// Categories lists every accepted category.
var Categories = []Category{CategoryVegetables, CategoryMeat, CategoryDairy, CategorySeafood, CategoryFruits, CategoryGrains, CategorySpices}

// Ingredient is one pantry item owned by a user.
type Ingredient struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Name       string     `json:"name" validate:"required,min=1,max=100"`
	Quantity   float64    `json:"quantity" validate:"gte=0"`
	Unit       Unit       `json:"unit" validate:"required,ingredient_unit"`
	Category   Category   `json:"category" validate:"required,ingredient_category"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NormalizedName is the lower-cased, trimmed name used for matching.
func (i Ingredient) NormalizedName() string {
	return strings.ToLower(strings.TrimSpace(i.Name))
}

// ExpiresWithin reports whether the item expires in [now, now+d].
func (i Ingredient) ExpiresWithin(now time.Time, d time.Duration) bool {
	if i.ExpiryDate == nil {
		return false
	}
	return !i.ExpiryDate.Before(startOfDay(now)) && !i.ExpiryDate.After(now.Add(d))
}

// Names returns the normalized names of items, in order.
func Names(items []Ingredient) []string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		if n := it.NormalizedName(); n != "" {
			names = append(names, n)
		}
	}
	return names
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
