package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExternalFailures counts failed calls to an external collaborator
	// (storage, embedding, text, vector).
	ExternalFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pantry",
		Name:      "external_call_failures_total",
		Help:      "Failed calls to external collaborators.",
	}, []string{"collaborator"})

	// Fallbacks counts degraded paths taken (hash_embedding, text_search, unprocessed_batch, static_recipe).
	Fallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pantry",
		Name:      "fallbacks_total",
		Help:      "Degraded code paths taken instead of failing.",
	}, []string{"path"})

	// PlanSlotsFilled counts weekly plan slots filled, by generator phase.
	PlanSlotsFilled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pantry",
		Name:      "plan_slots_filled_total",
		Help:      "Weekly plan slots filled per generator phase.",
	}, []string{"phase"})

	// ModelCalls counts generative model calls per feature.
	ModelCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pantry",
		Name:      "model_calls_total",
		Help:      "Generative model calls per feature.",
	}, []string{"agent"})

	// HTTPRequests counts API requests by route pattern and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pantry",
		Name:      "http_requests_total",
		Help:      "API requests by route and status.",
	}, []string{"route", "status"})
)
