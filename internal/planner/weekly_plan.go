package planner

import (
	"errors"
	"fmt"
	"time"

	"pantry-planner/internal/database"
	"pantry-planner/internal/recipe"
)

const (
	DaysPerWeek    = 7
	MaxSlotsPerDay = 3
)

// PlanStatus represents the lifecycle state of a weekly plan.
type PlanStatus string

const (
	StatusDraft PlanStatus = "DRAFT"
	StatusFinal PlanStatus = "FINAL"
)

var (
	ErrNotFound    = errors.New("weekly plan not found")
	ErrInvalidSlot = errors.New("invalid day or slot")
)

// DailySlots holds up to three meals for one calendar day. Empty slots are nil.
type DailySlots struct {
	Date  string                         `json:"date"`
	Meals [MaxSlotsPerDay]*recipe.Recipe `json:"meals"`
}

// WeeklyPlan is seven days of meals starting on a Monday.
type WeeklyPlan struct {
	ID          string                  `json:"id,omitempty"`
	UserID      string                  `json:"user_id"`
	WeekStart   string                  `json:"week_start"`
	PeopleCount int                     `json:"people_count"`
	SlotsPerDay int                     `json:"slots_per_day"`
	Status      PlanStatus              `json:"status"`
	Days        [DaysPerWeek]DailySlots `json:"days"`
	CreatedAt   time.Time               `json:"created_at"`
}

// NewWeeklyPlan creates an empty plan with dated days.
func NewWeeklyPlan(userID string, weekStart time.Time, people, slotsPerDay int) *WeeklyPlan {
	monday := WeekStart(weekStart)
	p := &WeeklyPlan{
		UserID:      userID,
		WeekStart:   monday.Format(database.DateLayout),
		PeopleCount: max(people, 1),
		SlotsPerDay: clampSlots(slotsPerDay),
		Status:      StatusDraft,
	}
	for i := range p.Days {
		p.Days[i].Date = monday.AddDate(0, 0, i).Format(database.DateLayout)
	}
	return p
}

func clampSlots(n int) int {
	if n <= 0 || n > MaxSlotsPerDay {
		return MaxSlotsPerDay
	}
	return n
}

// WeekStart returns midnight of the Monday on or before t, in t's location.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// NextMonday returns the Monday strictly after t's week start.
func NextMonday(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, 7)
}

// ParseWeek parses an ISO date and normalises it to its Monday.
func ParseWeek(s string) (time.Time, error) {
	t, err := time.Parse(database.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid week start %q: %w", s, err)
	}
	return WeekStart(t), nil
}

type slotRef struct{ day, slot int }

// emptySlots lists the open slots in row-major order.
func (p *WeeklyPlan) emptySlots() []slotRef {
	var out []slotRef
	for d := range p.Days {
		for s := 0; s < p.SlotsPerDay; s++ {
			if p.Days[d].Meals[s] == nil {
				out = append(out, slotRef{d, s})
			}
		}
	}
	return out
}

func (p *WeeklyPlan) set(ref slotRef, r recipe.Recipe) {
	p.Days[ref.day].Meals[ref.slot] = &r
}

// SetSlot places r in the given slot; a nil r empties it.
func (p *WeeklyPlan) SetSlot(day, slot int, r *recipe.Recipe) error {
	if day < 0 || day >= DaysPerWeek || slot < 0 || slot >= p.SlotsPerDay {
		return fmt.Errorf("%w: day %d slot %d", ErrInvalidSlot, day, slot)
	}
	p.Days[day].Meals[slot] = r
	return nil
}

// Recipes returns every planned recipe in row-major order, duplicates included.
func (p *WeeklyPlan) Recipes() []recipe.Recipe {
	var out []recipe.Recipe
	for _, day := range p.Days {
		for _, m := range day.Meals {
			if m != nil {
				out = append(out, *m)
			}
		}
	}
	return out
}

// FilledSlots counts non-empty slots.
func (p *WeeklyPlan) FilledSlots() int {
	return len(p.Recipes())
}

// usedIngredients returns the distinct ingredient names already in the plan.
func (p *WeeklyPlan) usedIngredients() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range p.Recipes() {
		for _, n := range r.IngredientNames() {
			if _, ok := seen[n]; !ok {
				seen[n] = struct{}{}
				out = append(out, n)
			}
		}
	}
	return out
}
