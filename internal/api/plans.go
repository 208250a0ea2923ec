package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"pantry-planner/internal/database"
	"pantry-planner/internal/planner"
	"pantry-planner/internal/recipe"
	"pantry-planner/internal/recommend"

	"github.com/go-chi/chi/v5"
)

type generatePlanRequest struct {
	WeekStart   string `json:"week_start,omitempty" validate:"omitempty,datetime=2006-01-02"`
	PeopleCount int    `json:"people_count" validate:"required,min=1,max=20"`
	SlotsPerDay int    `json:"slots_per_day,omitempty" validate:"omitempty,min=1,max=3"`
}

type generatePlanResponse struct {
	Plan   *planner.WeeklyPlan `json:"plan"`
	Report planner.Report      `json:"report"`
}

type swapRequest struct {
	RecipeID string         `json:"recipe_id,omitempty"`
	Recipe   *recipe.Recipe `json:"recipe,omitempty"`
}

func (s *Server) recommend(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	minLoves, err := queryInt(r, "min_loves", 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	minScore, err := queryFloat(r, "min_score")
	if err != nil {
		s.writeError(w, err)
		return
	}

	recs, err := s.app.Recommend(r.Context(), userID(r), chi.URLParam(r, "source"), recommend.Filters{
		Limit:    limit,
		MinScore: minScore,
		MinLoves: minLoves,
		Query:    r.URL.Query().Get("q"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if recs == nil {
		recs = []recommend.Recommendation{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) lastSuggestions(w http.ResponseWriter, r *http.Request) {
	recs, err := s.app.LastSuggestions(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) generatePlan(w http.ResponseWriter, r *http.Request) {
	var req generatePlanRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	start := planner.NextMonday(time.Now())
	if req.WeekStart != "" {
		var err error
		if start, err = planner.ParseWeek(req.WeekStart); err != nil {
			s.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
	}

	plan, report, err := s.app.Planner.Generate(r.Context(), planner.Request{
		UserID:      userID(r),
		WeekStart:   start,
		PeopleCount: req.PeopleCount,
		SlotsPerDay: req.SlotsPerDay,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, generatePlanResponse{Plan: plan, Report: report})
}

func (s *Server) listPlans(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 12)
	if err != nil {
		s.writeError(w, err)
		return
	}
	weeks, err := s.app.Plans.ListWeeks(r.Context(), userID(r), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if weeks == nil {
		weeks = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"weeks": weeks})
}

func (s *Server) getPlan(w http.ResponseWriter, r *http.Request) {
	week, ok := s.week(w, r)
	if !ok {
		return
	}
	plan, err := s.app.Planner.Get(r.Context(), userID(r), week)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) savePlan(w http.ResponseWriter, r *http.Request) {
	week, ok := s.week(w, r)
	if !ok {
		return
	}
	plan, err := s.app.Planner.Save(r.Context(), userID(r), week)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) discardPlan(w http.ResponseWriter, r *http.Request) {
	week, ok := s.week(w, r)
	if !ok {
		return
	}
	if err := s.app.Planner.Discard(r.Context(), userID(r), week); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deletePlan(w http.ResponseWriter, r *http.Request) {
	week, ok := s.week(w, r)
	if !ok {
		return
	}
	if err := s.app.Planner.Delete(r.Context(), userID(r), week); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) shoppingList(w http.ResponseWriter, r *http.Request) {
	week, ok := s.week(w, r)
	if !ok {
		return
	}
	list, err := s.app.ShoppingList(r.Context(), userID(r), week)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// swapSlot puts an owned recipe (by recipe_id) or an inline recipe into one slot.
func (s *Server) swapSlot(w http.ResponseWriter, r *http.Request) {
	week, ok := s.week(w, r)
	if !ok {
		return
	}
	day, slot, ok := s.slot(w, r)
	if !ok {
		return
	}
	var req swapRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	var rec recipe.Recipe
	switch {
	case req.RecipeID != "":
		owned, err := s.app.Recipes.Get(r.Context(), userID(r), req.RecipeID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		rec = *owned
	case req.Recipe != nil:
		if err := s.validate.Struct(req.Recipe); err != nil {
			s.writeError(w, err)
			return
		}
		rec = req.Recipe.Detached()
	default:
		s.writeError(w, fmt.Errorf("%w: recipe_id or recipe is required", errBadRequest))
		return
	}

	plan, err := s.app.Planner.Swap(r.Context(), userID(r), week, day, slot, rec)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) removeSlot(w http.ResponseWriter, r *http.Request) {
	week, ok := s.week(w, r)
	if !ok {
		return
	}
	day, slot, ok := s.slot(w, r)
	if !ok {
		return
	}
	plan, err := s.app.Planner.Remove(r.Context(), userID(r), week, day, slot)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// week normalises the {week} parameter to its Monday.
func (s *Server) week(w http.ResponseWriter, r *http.Request) (string, bool) {
	t, err := planner.ParseWeek(chi.URLParam(r, "week"))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return "", false
	}
	return t.Format(database.DateLayout), true
}

func (s *Server) slot(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	day, err1 := strconv.Atoi(chi.URLParam(r, "day"))
	slot, err2 := strconv.Atoi(chi.URLParam(r, "slot"))
	if err1 != nil || err2 != nil {
		s.writeError(w, fmt.Errorf("%w: day and slot must be integers", errBadRequest))
		return 0, 0, false
	}
	return day, slot, true
}
