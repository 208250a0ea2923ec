package api

import (
	"fmt"
	"net/http"
	"time"

	"pantry-planner/internal/database"
	"pantry-planner/internal/ingredient"

	"github.com/go-chi/chi/v5"
)

type ingredientRequest struct {
	Name       string  `json:"name" validate:"required,min=1,max=100"`
	Quantity   float64 `json:"quantity" validate:"gte=0"`
	Unit       string  `json:"unit" validate:"required,ingredient_unit"`
	Category   string  `json:"category" validate:"required,ingredient_category"`
	ExpiryDate string  `json:"expiry_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func (req ingredientRequest) toIngredient() (ingredient.Ingredient, error) {
	it := ingredient.Ingredient{
		Name:     req.Name,
		Quantity: req.Quantity,
		Unit:     ingredient.Unit(req.Unit),
		Category: ingredient.Category(req.Category),
	}
	if req.ExpiryDate != "" {
		d, err := time.Parse(database.DateLayout, req.ExpiryDate)
		if err != nil {
			return it, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		it.ExpiryDate = &d
	}
	return it, nil
}

func (s *Server) listIngredients(w http.ResponseWriter, r *http.Request) {
	items, err := s.app.Ingredients.List(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) createIngredient(w http.ResponseWriter, r *http.Request) {
	var req ingredientRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	it, err := req.toIngredient()
	if err != nil {
		s.writeError(w, err)
		return
	}
	created, err := s.app.Ingredients.Create(r.Context(), userID(r), it)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateIngredient(w http.ResponseWriter, r *http.Request) {
	var req ingredientRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	it, err := req.toIngredient()
	if err != nil {
		s.writeError(w, err)
		return
	}
	it.ID = chi.URLParam(r, "id")
	updated, err := s.app.Ingredients.Update(r.Context(), userID(r), it)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteIngredient(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Ingredients.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// expiringIngredients lists items expiring within ?days (default 3).
func (s *Server) expiringIngredients(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 3)
	if err != nil || days < 0 {
		s.writeError(w, fmt.Errorf("%w: days must be a non-negative integer", errBadRequest))
		return
	}
	items, err := s.app.Ingredients.ExpiringSoon(r.Context(), userID(r), time.Duration(days)*24*time.Hour)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
