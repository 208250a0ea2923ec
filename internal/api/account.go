package api

import (
	"fmt"
	"net/http"

	"pantry-planner/internal/features"
	"pantry-planner/internal/users"

	"github.com/go-chi/chi/v5"
)

type flagRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type profileRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=30,alphanum"`
	DisplayName string `json:"display_name" validate:"max=80"`
}

type feedbackRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Message string `json:"message" validate:"max=2000"`
}

// getFlags reports the flags stored now. Services keep the values loaded at startup.
func (s *Server) getFlags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, features.Load(r.Context(), s.app.DB.SQL, s.log))
}

func (s *Server) setFlag(w http.ResponseWriter, r *http.Request) {
	var req flagRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := features.Set(r.Context(), s.app.DB.SQL, chi.URLParam(r, "name"), *req.Enabled); err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, features.Load(r.Context(), s.app.DB.SQL, s.log))
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.app.Users.Get(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) putProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.app.Users.Upsert(r.Context(), users.Profile{
		UserID:      userID(r),
		Username:    req.Username,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) usernameAvailable(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("username")
	if name == "" {
		s.writeError(w, fmt.Errorf("%w: username is required", errBadRequest))
		return
	}
	ok, err := s.app.Users.UsernameAvailable(r.Context(), userID(r), name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": ok})
}

func (s *Server) addFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	f, err := s.app.Users.AddFeedback(r.Context(), users.Feedback{
		UserID:  userID(r),
		Rating:  req.Rating,
		Message: req.Message,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// usage reports model token usage per day for the last ?days (default 7).
func (s *Server) usage(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 7)
	if err != nil {
		s.writeError(w, err)
		return
	}
	usage, err := s.app.Metrics.GetDailyUsage(days)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}
