package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pantry-planner/internal/llm"
	"pantry-planner/internal/matcher"
	"pantry-planner/internal/metrics"
	"pantry-planner/internal/recipe"
	"pantry-planner/internal/shared"
	"pantry-planner/internal/storage"

	"go.uber.org/zap"
)

const (
	defaultSuggestionCount = 5
	maxSuggestionCount     = 21
)

// SuggestionAdapter asks the generative model for recipes built around the pantry.
type SuggestionAdapter struct {
	textGen  llm.TextGenerator
	store    storage.Store
	recorder shared.MetaRecorder
	log      *zap.SugaredLogger
}

func NewSuggestionAdapter(textGen llm.TextGenerator, store storage.Store, recorder shared.MetaRecorder, log *zap.SugaredLogger) *SuggestionAdapter {
	if recorder == nil {
		recorder = shared.NopRecorder{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &SuggestionAdapter{textGen: textGen, store: store, recorder: recorder, log: log}
}

type suggestionPrompt struct {
	Count     int
	Available []string
	Avoid     []string
}

// Recommend requests Filters.Limit recipes (5 by default) and caches the batch as the user's
// last suggestions. A malformed answer yields an error and no recipes, and clears the cache.
func (a *SuggestionAdapter) Recommend(ctx context.Context, available []string, f Filters) ([]Recommendation, error) {
	count := f.Limit
	if count <= 0 {
		count = defaultSuggestionCount
	}

	recipes, err := a.request(ctx, "suggestions", suggestionPrompt{Count: min(count, maxSuggestionCount), Available: available})
	if err != nil {
		a.remember(ctx, f.UserID, nil)
		return nil, err
	}

	out := make([]Recommendation, 0, len(recipes))
	for _, r := range recipes {
		res := matcher.Score(r.IngredientNames(), available)
		out = append(out, Recommendation{
			Recipe:       r,
			MatchScore:   res.Score,
			Confidence:   res.Score,
			MatchReasons: res.Reasons,
		})
	}

	a.remember(ctx, f.UserID, out)
	return out, nil
}

// remember stores recs as the user's last batch; an empty batch drops it.
func (a *SuggestionAdapter) remember(ctx context.Context, userID string, recs []Recommendation) {
	if userID == "" || a.store == nil {
		return
	}
	key := storage.LastSuggestionsKey(userID)
	var err error
	if len(recs) == 0 {
		err = a.store.Delete(ctx, key)
	} else {
		err = storage.PutJSON(ctx, a.store, key, recs)
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		metrics.ExternalFailures.WithLabelValues("storage").Inc()
		a.log.Warnf("failed to cache suggestions for %s: %v", userID, err)
	}
}

// Last returns the most recent cached batch for the user, or nil.
func (a *SuggestionAdapter) Last(ctx context.Context, userID string) ([]Recommendation, error) {
	if a.store == nil {
		return nil, nil
	}
	var out []Recommendation
	err := storage.GetJSON(ctx, a.store, storage.LastSuggestionsKey(userID), &out)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return out, err
}

// Generate asks for exactly count recipes that avoid the given ingredient names. The model may
// return fewer; callers fill positionally.
func (a *SuggestionAdapter) Generate(ctx context.Context, count int, avoid []string) ([]recipe.Recipe, error) {
	if count <= 0 {
		return nil, nil
	}
	recipes, err := a.request(ctx, "planner-filler", suggestionPrompt{Count: min(count, maxSuggestionCount), Avoid: avoid})
	if err != nil {
		return nil, err
	}
	if len(recipes) > count {
		recipes = recipes[:count]
	}
	return recipes, nil
}

func (a *SuggestionAdapter) request(ctx context.Context, agent string, data suggestionPrompt) ([]recipe.Recipe, error) {
	if a.textGen == nil {
		return nil, fmt.Errorf("suggestions: %w", llm.ErrNoTextModel)
	}
	prompt, err := renderPrompt("suggestions.tmpl", data)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := a.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		metrics.ExternalFailures.WithLabelValues("text").Inc()
		return nil, fmt.Errorf("suggestions: model call failed: %w", err)
	}
	if err := a.recorder.RecordMeta(shared.AgentMeta{AgentName: agent, Usage: resp.Usage, Latency: time.Since(start)}); err != nil {
		a.log.Warnf("failed to record %s metrics: %v", agent, err)
	}

	batch, err := parseBatch(resp.Content)
	if err != nil {
		a.log.Warnf("%s: discarding model response: %v", agent, err)
		return nil, fmt.Errorf("suggestions: %w", err)
	}

	out := make([]recipe.Recipe, len(batch))
	for i, m := range batch {
		out[i] = m.toRecipe(recipe.ProvenanceAIGenerated)
	}
	return out, nil
}
