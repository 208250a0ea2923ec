package planner

import (
	"context"
	"errors"
	"fmt"

	"pantry-planner/internal/recipe"
	"pantry-planner/internal/storage"

	"go.uber.org/zap"
)

// RecipeCopier gives external recipes a stable identity in the user's store.
type RecipeCopier interface {
	CopyToStore(ctx context.Context, userID string, rec recipe.Recipe) (*recipe.Recipe, error)
}

// Service manages the plan lifecycle: a generated plan is a draft kept in the key-value store
// until Save persists it.
type Service struct {
	gen     *Generator
	plans   *PlanRepository
	recipes RecipeCopier
	drafts  storage.Store
	log     *zap.SugaredLogger
}

func NewService(gen *Generator, plans *PlanRepository, recipes RecipeCopier, drafts storage.Store, log *zap.SugaredLogger) *Service {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Service{gen: gen, plans: plans, recipes: recipes, drafts: drafts, log: log}
}

// Generate builds a fresh draft, replacing any earlier draft for the same week.
func (s *Service) Generate(ctx context.Context, req Request) (*WeeklyPlan, Report, error) {
	plan, report, err := s.gen.Generate(ctx, req)
	if err != nil {
		return nil, report, err
	}
	if err := s.putDraft(ctx, plan); err != nil {
		return nil, report, err
	}
	return plan, report, nil
}

// Get returns the draft for the week, or the saved plan when there is no draft.
func (s *Service) Get(ctx context.Context, userID, weekStart string) (*WeeklyPlan, error) {
	var plan WeeklyPlan
	err := storage.GetJSON(ctx, s.drafts, storage.PlanDraftKey(userID, weekStart), &plan)
	if err == nil {
		return &plan, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		s.log.Warnf("failed to read draft %s/%s: %v", userID, weekStart, err)
	}
	return s.plans.Get(ctx, userID, weekStart)
}

// Swap replaces one slot. Editing a saved plan turns it back into a draft.
func (s *Service) Swap(ctx context.Context, userID, weekStart string, day, slot int, r recipe.Recipe) (*WeeklyPlan, error) {
	return s.edit(ctx, userID, weekStart, func(p *WeeklyPlan) error {
		return p.SetSlot(day, slot, &r)
	})
}

// Remove empties one slot.
func (s *Service) Remove(ctx context.Context, userID, weekStart string, day, slot int) (*WeeklyPlan, error) {
	return s.edit(ctx, userID, weekStart, func(p *WeeklyPlan) error {
		return p.SetSlot(day, slot, nil)
	})
}

// Save copies every external recipe into the user's store, persists the plan over any saved
// plan for the week and drops the draft.
func (s *Service) Save(ctx context.Context, userID, weekStart string) (*WeeklyPlan, error) {
	plan, err := s.Get(ctx, userID, weekStart)
	if err != nil {
		return nil, err
	}

	copied := map[string]*recipe.Recipe{}
	for d := range plan.Days {
		for i, meal := range plan.Days[d].Meals {
			if meal == nil || meal.IsOwned() {
				continue
			}
			key := meal.Key()
			stored, ok := copied[key]
			if !ok {
				stored, err = s.recipes.CopyToStore(ctx, userID, *meal)
				if err != nil {
					return nil, fmt.Errorf("failed to store %q: %w", meal.Name, err)
				}
				copied[key] = stored
			}
			plan.Days[d].Meals[i] = stored
		}
	}

	if err := s.plans.Save(ctx, plan); err != nil {
		return nil, err
	}
	if err := s.drafts.Delete(ctx, storage.PlanDraftKey(userID, weekStart)); err != nil {
		s.log.Warnf("failed to drop draft %s/%s: %v", userID, weekStart, err)
	}
	return plan, nil
}

// Discard drops the draft. Saved plans are untouched.
func (s *Service) Discard(ctx context.Context, userID, weekStart string) error {
	return s.drafts.Delete(ctx, storage.PlanDraftKey(userID, weekStart))
}

// Delete removes the saved plan for the week and any draft of it. It returns ErrNotFound when
// neither existed.
func (s *Service) Delete(ctx context.Context, userID, weekStart string) error {
	key := storage.PlanDraftKey(userID, weekStart)
	_, draftErr := s.drafts.Get(ctx, key)
	if err := s.drafts.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to drop draft: %w", err)
	}
	err := s.plans.Delete(ctx, userID, weekStart)
	if errors.Is(err, ErrNotFound) && draftErr == nil {
		return nil
	}
	return err
}

func (s *Service) edit(ctx context.Context, userID, weekStart string, fn func(*WeeklyPlan) error) (*WeeklyPlan, error) {
	plan, err := s.Get(ctx, userID, weekStart)
	if err != nil {
		return nil, err
	}
	if err := fn(plan); err != nil {
		return nil, err
	}
	plan.Status = StatusDraft
	if err := s.putDraft(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *Service) putDraft(ctx context.Context, plan *WeeklyPlan) error {
	if err := storage.PutJSON(ctx, s.drafts, storage.PlanDraftKey(plan.UserID, plan.WeekStart), plan); err != nil {
		return fmt.Errorf("failed to store draft: %w", err)
	}
	return nil
}
