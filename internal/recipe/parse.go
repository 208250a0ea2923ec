package recipe

import (
	"regexp"
	"strconv"
	"strings"
)

var unitAliases = map[string]string{
	"kg": "kg", "kilo": "kg", "kilogram": "kg",
	"g": "gram", "gr": "gram", "gram": "gram", "grams": "gram",
	"l": "liter", "liter": "liter", "litre": "liter", "ltr": "liter",
	"ml": "ml", "mililiter": "ml", "milliliter": "ml",
	"buah": "piece", "butir": "piece", "biji": "piece", "ekor": "piece", "potong": "piece", "pcs": "piece", "piece": "piece", "pieces": "piece",
	"siung": "clove", "clove": "clove", "cloves": "clove",
	"sdm": "tbsp", "tbsp": "tbsp", "tablespoon": "tbsp",
	"sdt": "tsp", "tsp": "tsp", "teaspoon": "tsp",
	"gelas": "cup", "cup": "cup", "cups": "cup",
	"ikat": "bunch", "bunch": "bunch", "batang": "bunch",
	"lembar": "slice", "iris": "slice", "slice": "slice", "slices": "slice",
	"bungkus": "pack", "sachet": "pack", "pack": "pack",
}

var leadingQuantity = regexp.MustCompile(`^(\d+\s+\d+/\d+|\d+/\d+|\d+(?:[.,]\d+)?)(?:\s*-\s*\d+(?:[.,]\d+)?)?\s*`)

// ParseIngredientLine splits a free-text line such as "1/2 kg ayam" or "3 siung bawang putih"
// into quantity, unit and name. Lines without a leading number count as one piece.
func ParseIngredientLine(line string) Ingredient {
	s := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-•*"))
	if s == "" {
		return Ingredient{}
	}

	ing := Ingredient{Quantity: 1, Unit: "piece"}
	if m := leadingQuantity.FindStringSubmatch(s); m != nil {
		ing.Quantity = parseQuantity(m[1])
		s = s[len(m[0]):]

		// "500gr" style glued units
		fields := strings.Fields(s)
		if len(fields) > 0 {
			if u, ok := unitAliases[strings.ToLower(strings.TrimSuffix(fields[0], "."))]; ok {
				ing.Unit = u
				s = strings.TrimSpace(strings.TrimPrefix(s, fields[0]))
			}
		}
	}

	ing.Name = strings.ToLower(strings.TrimSpace(s))
	return ing
}

// SplitBlob splits a dataset text blob on "--" separators and line breaks.
func SplitBlob(blob string) []string {
	blob = strings.ReplaceAll(blob, "\r\n", "\n")
	var out []string
	for _, line := range strings.Split(blob, "\n") {
		for _, part := range strings.Split(line, "--") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func parseQuantity(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if whole, frac, ok := strings.Cut(s, " "); ok {
		return parseQuantity(whole) + parseQuantity(strings.TrimSpace(frac))
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 1
		}
		return n / d
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 1
	}
	return f
}
