// Package api exposes the application over a JSON HTTP API.
package api

import (
	"context"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"pantry-planner/internal/app"
	"pantry-planner/internal/ingredient"
	"pantry-planner/internal/metrics"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server serves the JSON API.
type Server struct {
	app      *app.App
	log      *zap.SugaredLogger
	validate *validator.Validate
	router   *chi.Mux
	server   *http.Server
}

// NewServer builds the router around a.
func NewServer(a *app.App, log *zap.SugaredLogger) (*Server, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	v := validator.New()
	if err := ingredient.RegisterValidations(v); err != nil {
		return nil, err
	}

	s := &Server{app: a, log: log, validate: v}
	s.router = s.routes()
	s.server = &http.Server{
		Addr:         a.Config.HTTPAddr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.app.Auth.Middleware)

		r.Route("/ingredients", func(r chi.Router) {
			r.Get("/", s.listIngredients)
			r.Post("/", s.createIngredient)
			r.Get("/expiring", s.expiringIngredients)
			r.Put("/{id}", s.updateIngredient)
			r.Delete("/{id}", s.deleteIngredient)
		})

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", s.listRecipes)
			r.Post("/", s.createRecipe)
			r.Post("/clip", s.clipRecipe)
			r.Get("/saved", s.listSaved)
			r.Post("/saved", s.saveRecipe)
			r.Delete("/saved/{key}", s.unsaveRecipe)
			r.Get("/{id}", s.getRecipe)
			r.Put("/{id}", s.updateRecipe)
			r.Delete("/{id}", s.deleteRecipe)
		})

		r.Get("/recommendations/suggestions/last", s.lastSuggestions)
		r.Get("/recommendations/{source}", s.recommend)

		r.Route("/plans", func(r chi.Router) {
			r.Get("/", s.listPlans)
			r.Post("/", s.generatePlan)
			r.Route("/{week}", func(r chi.Router) {
				r.Get("/", s.getPlan)
				r.Delete("/", s.deletePlan)
				r.Post("/save", s.savePlan)
				r.Delete("/draft", s.discardPlan)
				r.Get("/shopping", s.shoppingList)
				r.Put("/days/{day}/slots/{slot}", s.swapSlot)
				r.Delete("/days/{day}/slots/{slot}", s.removeSlot)
			})
		})

		r.Get("/flags", s.getFlags)
		r.Put("/flags/{name}", s.setFlag)

		r.Get("/profile", s.getProfile)
		r.Put("/profile", s.putProfile)
		r.Get("/profile/available", s.usernameAvailable)
		r.Post("/feedback", s.addFeedback)
		r.Get("/usage", s.usage)
	})
	return r
}

// ServeHTTP lets the server be mounted or tested directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start listens until the server is shut down.
func (s *Server) Start() error {
	s.log.Infof("listening on %s", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		s.log.Debugw("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"text_model": s.app.HasTextModel(),
		"system":     metrics.GetSysHealth(filepath.Dir(s.app.Config.DatabasePath)),
	})
}
