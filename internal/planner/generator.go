package planner

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"pantry-planner/internal/features"
	"pantry-planner/internal/ingredient"
	"pantry-planner/internal/matcher"
	"pantry-planner/internal/metrics"
	"pantry-planner/internal/recipe"
	"pantry-planner/internal/recommend"

	"go.uber.org/zap"
)

// ErrPlannerDisabled is returned when the weeklyPlanner flag is off.
var ErrPlannerDisabled = errors.New("weekly planner is disabled")

const (
	ownedMinScore = 0.2
	// with this many owned recipes every one of them is eligible
	ownedPoolAcceptAll = 10
)

// OwnedRecipes lists the user's stored recipes.
type OwnedRecipes interface {
	List(ctx context.Context, userID string) ([]recipe.Recipe, error)
}

// Pantry lists the user's ingredients.
type Pantry interface {
	List(ctx context.Context, userID string) ([]ingredient.Ingredient, error)
}

// Filler generates count fresh recipes avoiding the given ingredient names.
type Filler interface {
	Generate(ctx context.Context, count int, avoid []string) ([]recipe.Recipe, error)
}

// Options configures a Generator.
type Options struct {
	AllowEmptySlots bool
	Flags           features.Flags
}

// Request describes the plan to build.
type Request struct {
	UserID      string
	WeekStart   time.Time
	PeopleCount int
	SlotsPerDay int
}

// Report counts how each phase contributed.
type Report struct {
	Owned    int      `json:"owned"`
	Dataset  int      `json:"dataset"`
	AI       int      `json:"ai"`
	Fallback int      `json:"fallback"`
	Empty    int      `json:"empty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Generator fills a week row-major (day by day, slot by slot) from four sources in order:
// owned recipes, dataset recommendations, an AI batch and a static fallback list.
type Generator struct {
	owned   OwnedRecipes
	pantry  Pantry
	dataset recommend.Recommender
	filler  Filler
	opts    Options
	log     *zap.SugaredLogger
}

// NewGenerator creates a Generator. dataset and filler may be nil.
func NewGenerator(owned OwnedRecipes, pantry Pantry, dataset recommend.Recommender, filler Filler, opts Options, log *zap.SugaredLogger) *Generator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Generator{owned: owned, pantry: pantry, dataset: dataset, filler: filler, opts: opts, log: log}
}

// Generate builds a new draft plan. Storage failures on the owned recipes or the pantry are
// fatal; every later phase only logs and moves on.
func (g *Generator) Generate(ctx context.Context, req Request) (*WeeklyPlan, Report, error) {
	var report Report
	if !g.opts.Flags.WeeklyPlanner {
		return nil, report, ErrPlannerDisabled
	}

	plan := NewWeeklyPlan(req.UserID, req.WeekStart, req.PeopleCount, req.SlotsPerDay)

	items, err := g.pantry.List(ctx, req.UserID)
	if err != nil {
		return nil, report, fmt.Errorf("failed to load pantry: %w", err)
	}
	available := ingredient.Names(items)

	owned, err := g.owned.List(ctx, req.UserID)
	if err != nil {
		return nil, report, fmt.Errorf("failed to load recipes: %w", err)
	}

	report.Owned = g.fillOwned(plan, owned, available)
	report.Dataset = g.fillDataset(ctx, plan, available, req.UserID, &report)
	report.AI = g.fillAI(ctx, plan, &report)
	if !g.opts.AllowEmptySlots {
		report.Fallback = g.fillFallback(plan)
	}
	report.Empty = len(plan.emptySlots())

	for phase, n := range map[string]int{"owned": report.Owned, "dataset": report.Dataset, "ai": report.AI, "fallback": report.Fallback} {
		metrics.PlanSlotsFilled.WithLabelValues(phase).Add(float64(n))
	}
	g.log.Infof("plan %s for %s: owned=%d dataset=%d ai=%d fallback=%d empty=%d",
		plan.WeekStart, req.UserID, report.Owned, report.Dataset, report.AI, report.Fallback, report.Empty)
	return plan, report, nil
}

type scoredRecipe struct {
	recipe recipe.Recipe
	score  float64
}

func (g *Generator) fillOwned(plan *WeeklyPlan, owned []recipe.Recipe, available []string) int {
	scored := make([]scoredRecipe, 0, len(owned))
	for _, r := range owned {
		scored = append(scored, scoredRecipe{r, matcher.Score(r.IngredientNames(), available).Score})
	}
	slices.SortStableFunc(scored, func(a, b scoredRecipe) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return b.recipe.CreatedAt.Compare(a.recipe.CreatedAt)
	})

	acceptAll := len(owned) >= ownedPoolAcceptAll
	empty := plan.emptySlots()
	filled := 0
	for _, s := range scored {
		if filled == len(empty) {
			break
		}
		if !acceptAll && s.score < ownedMinScore {
			continue
		}
		plan.set(empty[filled], s.recipe)
		filled++
	}
	return filled
}

func (g *Generator) fillDataset(ctx context.Context, plan *WeeklyPlan, available []string, userID string, report *Report) int {
	empty := plan.emptySlots()
	if len(empty) == 0 || g.dataset == nil || !g.opts.Flags.Dataset {
		return 0
	}

	recs, err := g.dataset.Recommend(ctx, available, recommend.Filters{UserID: userID, Limit: len(empty) + DaysPerWeek})
	if err != nil {
		g.log.Warnf("planner: dataset phase skipped: %v", err)
		report.Warnings = append(report.Warnings, "dataset recommendations unavailable")
		return 0
	}

	used := map[string]struct{}{}
	for _, r := range plan.Recipes() {
		used[r.Key()] = struct{}{}
	}

	filled := 0
	for _, rec := range recs {
		if filled == len(empty) {
			break
		}
		if _, ok := used[rec.Recipe.Key()]; ok {
			continue
		}
		used[rec.Recipe.Key()] = struct{}{}
		plan.set(empty[filled], rec.Recipe)
		filled++
	}
	return filled
}

func (g *Generator) fillAI(ctx context.Context, plan *WeeklyPlan, report *Report) int {
	empty := plan.emptySlots()
	if len(empty) == 0 || g.filler == nil || !g.opts.Flags.Suggestions {
		return 0
	}

	recipes, err := g.filler.Generate(ctx, len(empty), plan.usedIngredients())
	if err != nil {
		g.log.Warnf("planner: AI phase failed: %v", err)
		report.Warnings = append(report.Warnings, "AI suggestions unavailable")
		return 0
	}

	n := min(len(recipes), len(empty))
	for i := 0; i < n; i++ {
		plan.set(empty[i], recipes[i])
	}
	if n < len(empty) {
		g.log.Infof("planner: AI returned %d of %d recipes", n, len(empty))
	}
	return n
}

func (g *Generator) fillFallback(plan *WeeklyPlan) int {
	empty := plan.emptySlots()
	for i, ref := range empty {
		plan.set(ref, fallbackAt(i))
	}
	if len(empty) > 0 {
		metrics.Fallbacks.WithLabelValues("static_recipe").Add(float64(len(empty)))
	}
	return len(empty)
}
