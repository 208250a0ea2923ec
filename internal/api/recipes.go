package api

import (
	"fmt"
	"net/http"

	"pantry-planner/internal/recipe"

	"github.com/go-chi/chi/v5"
)

func (s *Server) listRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := s.app.Recipes.List(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if recipes == nil {
		recipes = []recipe.Recipe{}
	}
	writeJSON(w, http.StatusOK, recipes)
}

func (s *Server) getRecipe(w http.ResponseWriter, r *http.Request) {
	rec, err := s.app.Recipes.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) createRecipe(w http.ResponseWriter, r *http.Request) {
	var rec recipe.Recipe
	if err := s.decode(r, &rec); err != nil {
		s.writeError(w, err)
		return
	}
	created, err := s.app.Recipes.Create(r.Context(), userID(r), rec)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateRecipe(w http.ResponseWriter, r *http.Request) {
	var rec recipe.Recipe
	if err := s.decode(r, &rec); err != nil {
		s.writeError(w, err)
		return
	}
	rec.ID = chi.URLParam(r, "id")
	updated, err := s.app.Recipes.Update(r.Context(), userID(r), rec)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteRecipe(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Recipes.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type clipRequest struct {
	URL string `json:"url" validate:"required,url"`
}

func (s *Server) clipRecipe(w http.ResponseWriter, r *http.Request) {
	var req clipRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	rec, err := s.app.Clipper.ClipURL(r.Context(), userID(r), req.URL)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) listSaved(w http.ResponseWriter, r *http.Request) {
	keys, err := s.app.Saved.List(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"keys": keys})
}

// saveRecipe stores a dataset or AI recipe in the user's collection.
func (s *Server) saveRecipe(w http.ResponseWriter, r *http.Request) {
	var rec recipe.Recipe
	if err := s.decode(r, &rec); err != nil {
		s.writeError(w, err)
		return
	}
	if rec.Provenance == "" || rec.Provenance == recipe.ProvenanceOwned {
		s.writeError(w, fmt.Errorf("%w: only external recipes can be saved", errBadRequest))
		return
	}
	stored, err := s.app.SaveRecipe(r.Context(), userID(r), rec)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) unsaveRecipe(w http.ResponseWriter, r *http.Request) {
	if err := s.app.UnsaveRecipe(r.Context(), userID(r), chi.URLParam(r, "key")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
