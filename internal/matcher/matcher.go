// Package matcher scores how well a recipe's ingredients are covered by what a user has.
package matcher

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

const (
	fullWeight    = 1.0
	partialWeight = 0.5
	maxReasons    = 4
)

// Result is the outcome of Score.
type Result struct {
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
	Matched []string `json:"matched"`
	Missing []string `json:"missing"`
}

type matchKind int

const (
	noMatch matchKind = iota
	partialMatch
	synonymMatch
	exactMatch
)

// Score compares recipe ingredient names against available ingredient names. Exact, substring and
// synonym matches count fully and shared words longer than two letters count half; the score is
// the weighted count divided by the number of recipe ingredients, capped at 1. Either list being
// empty gives 0.
func Score(recipeIngredients, available []string) Result {
	want := normalize(recipeIngredients)
	have := normalize(available)
	res := Result{Reasons: []string{}, Matched: []string{}, Missing: []string{}}
	if len(want) == 0 || len(have) == 0 {
		res.Missing = append(res.Missing, want...)
		return res
	}

	var total float64
	var exact, synonym, partial int
	for _, w := range want {
		kind, with := bestMatch(w, have)
		switch kind {
		case exactMatch:
			total += fullWeight
			exact++
			res.Matched = append(res.Matched, w)
			res.addReason(fmt.Sprintf("you have %s", with))
		case synonymMatch:
			total += fullWeight
			synonym++
			res.Matched = append(res.Matched, w)
			res.addReason(fmt.Sprintf("%s can stand in for %s", with, w))
		case partialMatch:
			total += partialWeight
			partial++
			res.Matched = append(res.Matched, w)
			res.addReason(fmt.Sprintf("%s is similar to %s", with, w))
		default:
			res.Missing = append(res.Missing, w)
		}
	}

	res.Score = math.Min(1, total/float64(len(want)))
	if exact+synonym+partial > 0 {
		res.Reasons = append([]string{fmt.Sprintf("%d of %d ingredients available", exact+synonym+partial, len(want))}, res.Reasons...)
	}
	return res
}

func (r *Result) addReason(s string) {
	if len(r.Reasons) < maxReasons {
		r.Reasons = append(r.Reasons, s)
	}
}

// bestMatch returns the strongest kind of match of w against have and the item it matched.
func bestMatch(w string, have []string) (matchKind, string) {
	for _, h := range have {
		if h == w || strings.Contains(w, h) || strings.Contains(h, w) {
			return exactMatch, h
		}
	}
	for _, h := range have {
		if synonymous(w, h) {
			return synonymMatch, h
		}
	}
	wt := tokens(w)
	for _, h := range have {
		for t := range tokens(h) {
			if _, ok := wt[t]; ok {
				return partialMatch, h
			}
		}
	}
	return noMatch, ""
}

// tokens returns the words of s longer than two characters.
func tokens(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }) {
		if len([]rune(f)) > 2 {
			out[f] = struct{}{}
		}
	}
	return out
}

func normalize(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
