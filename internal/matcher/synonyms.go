package matcher

import "strings"

// synonymGroups links Indonesian and English names of the same ingredient.
var synonymGroups = [][]string{
	{"ayam", "chicken"},
	{"daging sapi", "sapi", "beef"},
	{"daging babi", "babi", "pork"},
	{"kambing", "lamb", "mutton"},
	{"ikan", "fish"},
	{"udang", "shrimp", "prawn"},
	{"cumi", "squid"},
	{"kepiting", "crab"},
	{"telur", "telor", "egg"},
	{"tahu", "tofu"},
	{"tempe", "tempeh"},
	{"nasi", "beras", "rice"},
	{"mie", "mi", "noodle"},
	{"tepung", "flour"},
	{"roti", "bread"},
	{"kentang", "potato"},
	{"wortel", "carrot"},
	{"tomat", "tomato"},
	{"bayam", "spinach"},
	{"kangkung", "water spinach"},
	{"kol", "kubis", "cabbage"},
	{"jagung", "corn"},
	{"jamur", "mushroom"},
	{"timun", "mentimun", "cucumber"},
	{"terong", "eggplant", "aubergine"},
	{"buncis", "green bean"},
	{"bawang merah", "shallot"},
	{"bawang putih", "garlic"},
	{"bawang bombay", "onion"},
	{"daun bawang", "scallion", "spring onion"},
	{"cabai", "cabe", "chili", "chilli"},
	{"jahe", "ginger"},
	{"kunyit", "turmeric"},
	{"lengkuas", "galangal"},
	{"serai", "sereh", "lemongrass"},
	{"santan", "coconut milk"},
	{"kelapa", "coconut"},
	{"kecap", "soy sauce"},
	{"gula", "sugar"},
	{"garam", "salt"},
	{"merica", "lada", "pepper"},
	{"minyak", "oil"},
	{"mentega", "butter"},
	{"susu", "milk"},
	{"keju", "cheese"},
	{"jeruk nipis", "lime"},
	{"lemon", "jeruk lemon"},
	{"pisang", "banana"},
	{"apel", "apple"},
	{"air", "water"},
}

var synonymIndex = buildSynonymIndex()

func buildSynonymIndex() map[string]int {
	idx := make(map[string]int)
	for i, g := range synonymGroups {
		for _, term := range g {
			idx[term] = i
		}
	}
	return idx
}

// groupsOf returns the synonym groups whose terms occur in s as whole words or phrases.
func groupsOf(s string) map[int]struct{} {
	out := make(map[int]struct{})
	padded := " " + s + " "
	for term, g := range synonymIndex {
		if strings.Contains(padded, " "+term+" ") {
			out[g] = struct{}{}
		}
	}
	return out
}

func synonymous(a, b string) bool {
	ga := groupsOf(a)
	if len(ga) == 0 {
		return false
	}
	for g := range groupsOf(b) {
		if _, ok := ga[g]; ok {
			return true
		}
	}
	return false
}
