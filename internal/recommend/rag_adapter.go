package recommend

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"pantry-planner/internal/dataset"
	"pantry-planner/internal/llm"
	"pantry-planner/internal/matcher"
	"pantry-planner/internal/metrics"
	"pantry-planner/internal/recipe"
	"pantry-planner/internal/shared"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultSimilarityThreshold is the minimum cosine similarity for a vector match.
	DefaultSimilarityThreshold = 0.3
	enhanceBatchSize           = 3
	complexityScale            = 30.0
)

// RAGConfig tunes the semantic adapter.
type RAGConfig struct {
	Threshold float64
	// Enhance runs matched recipes through the text model before returning them.
	Enhance bool
	// BatchDelay is the pause between enhancement batches.
	BatchDelay time.Duration
}

// RAGAdapter recommends dataset recipes by embedding similarity, optionally polished by the
// text model. It degrades to hash embeddings and to plain text search rather than failing.
type RAGAdapter struct {
	embedder *llm.FallbackEmbeddingGenerator
	searcher llm.VectorSearcher
	data     DatasetStore
	textGen  llm.TextGenerator
	recorder shared.MetaRecorder
	limiter  *rate.Limiter
	cfg      RAGConfig
	log      *zap.SugaredLogger
}

func NewRAGAdapter(
	embedder llm.EmbeddingGenerator,
	searcher llm.VectorSearcher,
	data DatasetStore,
	textGen llm.TextGenerator,
	recorder shared.MetaRecorder,
	cfg RAGConfig,
	log *zap.SugaredLogger,
) *RAGAdapter {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if recorder == nil {
		recorder = shared.NopRecorder{}
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultSimilarityThreshold
	}
	limit := rate.Inf
	if cfg.BatchDelay > 0 {
		limit = rate.Every(cfg.BatchDelay)
	}
	onFallback := func(error) { metrics.Fallbacks.WithLabelValues("hash_embedding").Inc() }

	return &RAGAdapter{
		embedder: llm.NewFallbackEmbeddingGenerator(embedder, llm.EmbeddingDimensions, log, onFallback),
		searcher: searcher,
		data:     data,
		textGen:  textGen,
		recorder: recorder,
		limiter:  rate.NewLimiter(limit, 1),
		cfg:      cfg,
		log:      log,
	}
}

// Recommend searches by the available ingredients, or by Filters.Query when it is set.
func (a *RAGAdapter) Recommend(ctx context.Context, available []string, f Filters) ([]Recommendation, error) {
	query := strings.TrimSpace(f.Query)
	if query == "" && len(available) == 0 {
		return nil, nil
	}
	limit := f.limit()

	text := query
	if text == "" {
		text = "Ingredients: " + strings.Join(available, ", ")
	}
	emb, err := a.embedder.GenerateEmbedding(ctx, llm.PrepareEmbeddingText(text, llm.MaxEmbeddingTextLength))
	if err != nil {
		return nil, err
	}

	rows, similarity, err := a.vectorSearch(ctx, emb, query, limit, f.MinLoves)
	if err != nil || len(rows) == 0 {
		if err != nil {
			metrics.ExternalFailures.WithLabelValues("vector").Inc()
			a.log.Warnf("rag: vector search failed, using text search: %v", err)
		}
		metrics.Fallbacks.WithLabelValues("text_search").Inc()
		rows, similarity, err = a.textSearch(ctx, available, query, limit, f.MinLoves)
		if err != nil {
			return nil, err
		}
	}

	recs := a.build(rows, similarity, available)
	slices.SortStableFunc(recs, func(x, y Recommendation) int {
		return cmp.Compare(y.Confidence, x.Confidence)
	})
	if len(recs) > limit {
		recs = recs[:limit]
	}

	if a.cfg.Enhance && a.textGen != nil {
		a.enhance(ctx, recs)
	}
	return recs, nil
}

func (a *RAGAdapter) vectorSearch(ctx context.Context, emb []float32, query string, limit, minLoves int) ([]dataset.Recipe, map[int64]float64, error) {
	if a.searcher == nil {
		return nil, nil, nil
	}
	var matches []llm.VectorMatch
	var err error
	if query != "" {
		matches, err = a.searcher.MatchByQuery(ctx, emb, a.cfg.Threshold, limit)
	} else {
		matches, err = a.searcher.MatchByIngredients(ctx, emb, a.cfg.Threshold, limit, minLoves)
	}
	if err != nil || len(matches) == 0 {
		return nil, nil, err
	}

	similarity := make(map[int64]float64, len(matches))
	ids := make([]int64, len(matches))
	for i, m := range matches {
		similarity[m.RecipeID] = m.Similarity
		ids[i] = m.RecipeID
	}
	rows, err := a.data.GetByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve matched recipes: %w", err)
	}
	return rows, similarity, nil
}

// textSearch scores keyword hits with the matcher; the score stands in for similarity.
func (a *RAGAdapter) textSearch(ctx context.Context, available []string, query string, limit, minLoves int) ([]dataset.Recipe, map[int64]float64, error) {
	terms := available
	if query != "" {
		terms = strings.Fields(query)
	}
	rows, err := a.data.SearchText(ctx, terms, limit*3)
	if err != nil {
		return nil, nil, fmt.Errorf("rag: text search failed: %w", err)
	}
	rows = lo.Filter(rows, func(r dataset.Recipe, _ int) bool { return r.Loves >= minLoves })

	similarity := make(map[int64]float64, len(rows))
	for _, r := range rows {
		similarity[r.ID] = matcher.Score(r.IngredientNames(), terms).Score
	}
	return rows, similarity, nil
}

func (a *RAGAdapter) build(rows []dataset.Recipe, similarity map[int64]float64, available []string) []Recommendation {
	maxLoves := lo.MaxBy(rows, func(x, y dataset.Recipe) bool { return x.Loves > y.Loves }).Loves

	out := make([]Recommendation, 0, len(rows))
	for _, row := range rows {
		r := row.ToRecipe()
		r.Provenance = recipe.ProvenanceRAGAI
		r.Tags = append(r.Tags, "rag")

		res := matcher.Score(r.IngredientNames(), available)
		sim := similarity[row.ID]
		out = append(out, Recommendation{
			Recipe:          r,
			MatchScore:      res.Score,
			SimilarityScore: sim,
			Confidence:      Confidence(sim, row.Loves, maxLoves, len(r.Ingredients)+len(r.Instructions)),
			MatchReasons:    res.Reasons,
			Loves:           row.Loves,
			SourceURL:       row.URL,
		})
	}
	return out
}

// Confidence blends similarity (60%), relative popularity (25%) and simplicity (15%).
func Confidence(similarity float64, loves, maxLoves, parts int) float64 {
	popularity := 0.0
	if maxLoves > 0 {
		popularity = float64(loves) / float64(maxLoves)
	}
	complexity := min(1, float64(parts)/complexityScale)
	return 0.6*similarity + 0.25*popularity + 0.15*(1-complexity)
}

type enhancePrompt struct {
	Recipes []recipe.Recipe
}

// enhance rewrites recommendations in place, batch by batch. A failed batch is left as parsed.
func (a *RAGAdapter) enhance(ctx context.Context, recs []Recommendation) {
	for start := 0; start < len(recs); start += enhanceBatchSize {
		if err := a.limiter.Wait(ctx); err != nil {
			return
		}
		batch := recs[start:min(start+enhanceBatchSize, len(recs))]
		if err := a.enhanceBatch(ctx, batch); err != nil {
			metrics.Fallbacks.WithLabelValues("unprocessed_batch").Inc()
			a.log.Warnf("rag: keeping batch %d unprocessed: %v", start/enhanceBatchSize, err)
		}
	}
}

func (a *RAGAdapter) enhanceBatch(ctx context.Context, batch []Recommendation) error {
	prompt, err := renderPrompt("rag_enhance.tmpl", enhancePrompt{Recipes: Recipes(batch)})
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := a.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		metrics.ExternalFailures.WithLabelValues("text").Inc()
		return err
	}
	if err := a.recorder.RecordMeta(shared.AgentMeta{AgentName: "rag-enhance", Usage: resp.Usage, Latency: time.Since(start)}); err != nil {
		a.log.Warnf("failed to record rag-enhance metrics: %v", err)
	}

	parsed, err := parseBatch(resp.Content)
	if err != nil {
		return err
	}
	if len(parsed) != len(batch) {
		return fmt.Errorf("%w: got %d recipes for %d", ErrMalformedResponse, len(parsed), len(batch))
	}

	for i, m := range parsed {
		orig := batch[i].Recipe
		improved := m.toRecipe(recipe.ProvenanceRAGAI)
		improved.Name = strings.TrimSpace(m.Name)
		improved.SourceRef = orig.SourceRef
		improved.Tags = lo.Uniq(append(orig.Tags, improved.Tags...))
		if len(improved.Ingredients) == 0 {
			improved.Ingredients = orig.Ingredients
		}
		if len(improved.Instructions) == 0 {
			improved.Instructions = orig.Instructions
		}
		if m.Servings <= 0 {
			improved.Servings = orig.Servings
		}
		batch[i].Recipe = improved
	}
	return nil
}
