package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"pantry-planner/internal/app"
	"pantry-planner/internal/auth"
	"pantry-planner/internal/ingredient"
	"pantry-planner/internal/llm"
	"pantry-planner/internal/planner"
	"pantry-planner/internal/recipe"
	"pantry-planner/internal/recommend"
	"pantry-planner/internal/users"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into v and validates it.
func (s *Server) decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return s.validate.Struct(v)
}

var errBadRequest = errors.New("invalid request body")

// writeError maps domain errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		resp := errorResponse{Error: "validation failed"}
		for _, fe := range verrs {
			resp.Fields = append(resp.Fields, fmt.Sprintf("%s:%s", fe.Field(), fe.Tag()))
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return
	case errors.Is(err, errBadRequest), errors.Is(err, planner.ErrInvalidSlot), errors.Is(err, app.ErrUnknownSource),
		errors.Is(err, planner.ErrUnsavedRecipe):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	case errors.Is(err, ingredient.ErrNotFound), errors.Is(err, recipe.ErrNotFound),
		errors.Is(err, planner.ErrNotFound), errors.Is(err, users.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	case errors.Is(err, users.ErrUsernameTaken):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	case errors.Is(err, app.ErrFeatureDisabled), errors.Is(err, planner.ErrPlannerDisabled):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
		return
	case errors.Is(err, llm.ErrNoTextModel):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	case errors.Is(err, llm.ErrNoJSON), errors.Is(err, recommend.ErrMalformedResponse):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	s.log.Errorf("request failed: %v", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func userID(r *http.Request) string {
	return auth.UserID(r.Context())
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, key)
	}
	return n, nil
}

func queryFloat(r *http.Request, key string) (float64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", errBadRequest, key)
	}
	return f, nil
}
