package planner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pantry-planner/internal/database"
	"pantry-planner/internal/recipe"

	"github.com/google/uuid"
)

// ErrUnsavedRecipe is returned when a plan still references recipes outside the user's store.
var ErrUnsavedRecipe = errors.New("plan references a recipe that is not in the recipe store")

// RecipeLoader resolves stored recipe IDs.
type RecipeLoader interface {
	GetByIDs(ctx context.Context, userID string, ids []string) ([]recipe.Recipe, error)
}

// PlanRepository is a database-backed repository for weekly plans.
type PlanRepository struct {
	db      *sql.DB
	recipes RecipeLoader
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB, recipes RecipeLoader) *PlanRepository {
	return &PlanRepository{db: d, recipes: recipes}
}

// Save replaces the user's plan for plan.WeekStart: the old plan and its slots are deleted and
// the new one inserted in a single transaction. Every recipe must be owned by plan.UserID.
func (r *PlanRepository) Save(ctx context.Context, plan *WeeklyPlan) error {
	if err := r.checkOwnership(ctx, plan); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM daily_recipes WHERE plan_id IN (
			SELECT id FROM weekly_plans WHERE user_id = ? AND week_start = ?)`,
		plan.UserID, plan.WeekStart); err != nil {
		return fmt.Errorf("failed to delete old plan slots: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM weekly_plans WHERE user_id = ? AND week_start = ?`,
		plan.UserID, plan.WeekStart); err != nil {
		return fmt.Errorf("failed to delete old plan: %w", err)
	}

	id := uuid.NewString()
	createdAt := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO weekly_plans (id, user_id, week_start, people_count, slots_per_day, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, plan.UserID, plan.WeekStart, plan.PeopleCount, plan.SlotsPerDay, database.FormatTime(createdAt)); err != nil {
		return fmt.Errorf("failed to insert plan: %w", err)
	}

	for d, day := range plan.Days {
		for s, meal := range day.Meals {
			if meal == nil {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO daily_recipes (plan_id, day_index, slot_index, recipe_id) VALUES (?, ?, ?, ?)`,
				id, d, s, meal.ID); err != nil {
				return fmt.Errorf("failed to insert plan slot: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit plan: %w", err)
	}
	plan.ID = id
	plan.CreatedAt = createdAt
	plan.Status = StatusFinal
	return nil
}

// Get loads the saved plan for the week with its recipes resolved.
func (r *PlanRepository) Get(ctx context.Context, userID, weekStart string) (*WeeklyPlan, error) {
	var (
		id, createdAt       string
		people, slotsPerDay int
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, people_count, slots_per_day, created_at FROM weekly_plans
		WHERE user_id = ? AND week_start = ?`, userID, weekStart).Scan(&id, &people, &slotsPerDay, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	monday, err := ParseWeek(weekStart)
	if err != nil {
		return nil, err
	}
	plan := NewWeeklyPlan(userID, monday, people, slotsPerDay)
	plan.ID = id
	plan.Status = StatusFinal
	if plan.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT day_index, slot_index, recipe_id FROM daily_recipes WHERE plan_id = ? ORDER BY day_index, slot_index`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan slots: %w", err)
	}
	defer rows.Close()

	var refs []slotRef
	var ids []string
	for rows.Next() {
		var ref slotRef
		var recipeID string
		if err := rows.Scan(&ref.day, &ref.slot, &recipeID); err != nil {
			return nil, fmt.Errorf("failed to scan plan slot: %w", err)
		}
		refs = append(refs, ref)
		ids = append(ids, recipeID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	recipes, err := r.recipes.GetByIDs(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan recipes: %w", err)
	}
	byID := make(map[string]recipe.Recipe, len(recipes))
	for _, rec := range recipes {
		byID[rec.ID] = rec
	}
	for i, ref := range refs {
		if rec, ok := byID[ids[i]]; ok && ref.slot < plan.SlotsPerDay {
			plan.set(ref, rec)
		}
	}
	return plan, nil
}

// Delete removes the saved plan for the week.
func (r *PlanRepository) Delete(ctx context.Context, userID, weekStart string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM weekly_plans WHERE user_id = ? AND week_start = ?`, userID, weekStart)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListWeeks returns the week starts of the user's saved plans, most recent first.
func (r *PlanRepository) ListWeeks(ctx context.Context, userID string, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT week_start FROM weekly_plans WHERE user_id = ? ORDER BY week_start DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans for user %s: %w", userID, err)
	}
	defer rows.Close()

	var weeks []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		weeks = append(weeks, w)
	}
	return weeks, rows.Err()
}

// checkOwnership resolves every slot recipe in the user's store.
func (r *PlanRepository) checkOwnership(ctx context.Context, plan *WeeklyPlan) error {
	var ids []string
	seen := map[string]bool{}
	for _, rec := range plan.Recipes() {
		if !rec.IsOwned() {
			return fmt.Errorf("%w: %s", ErrUnsavedRecipe, rec.Name)
		}
		if !seen[rec.ID] {
			seen[rec.ID] = true
			ids = append(ids, rec.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	found, err := r.recipes.GetByIDs(ctx, plan.UserID, ids)
	if err != nil {
		return fmt.Errorf("failed to resolve plan recipes: %w", err)
	}
	if len(found) != len(ids) {
		return fmt.Errorf("%w: %d of %d recipes not found", ErrUnsavedRecipe, len(ids)-len(found), len(ids))
	}
	return nil
}
