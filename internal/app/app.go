// Package app wires configuration, storage, model clients and services into one container
// shared by the HTTP API, the Telegram bot and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pantry-planner/internal/auth"
	"pantry-planner/internal/clipper"
	"pantry-planner/internal/config"
	"pantry-planner/internal/database"
	"pantry-planner/internal/dataset"
	"pantry-planner/internal/features"
	"pantry-planner/internal/ingredient"
	"pantry-planner/internal/llm"
	"pantry-planner/internal/metrics"
	"pantry-planner/internal/planner"
	"pantry-planner/internal/recipe"
	"pantry-planner/internal/recommend"
	"pantry-planner/internal/storage"
	"pantry-planner/internal/users"

	"go.uber.org/zap"
)

var (
	// ErrFeatureDisabled is returned for a recommendation source switched off by its flag.
	ErrFeatureDisabled = errors.New("feature is disabled")
	ErrUnknownSource   = errors.New("unknown recommendation source")
)

// hashEmbeddingModel names stored vectors produced without an embedding endpoint.
const hashEmbeddingModel = "hash-384"

// App holds the application's dependencies.
type App struct {
	Config *config.Config
	Log    *zap.SugaredLogger
	DB     *database.DB
	KV     storage.Store
	Flags  features.Flags

	Ingredients *ingredient.Repository
	Recipes     *recipe.Repository
	Dataset     *dataset.Repository
	Vectors     *llm.VectorRepository
	Plans       *planner.PlanRepository
	Users       *users.Repository
	Metrics     *metrics.Store
	Saved       *storage.SavedSet

	DatasetRecs *recommend.DatasetAdapter
	Suggestions *recommend.SuggestionAdapter
	RAG         *recommend.RAGAdapter
	Planner     *planner.Service
	Clipper     *clipper.Clipper
	Auth        *auth.Verifier

	textGen        llm.TextGenerator
	embedder       llm.EmbeddingGenerator
	embeddingModel string
	closers        []func() error
}

// New opens storage and builds every service. Missing model credentials are not fatal: the
// features that need them degrade or report an error when called.
func New(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*App, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	a := &App{Config: cfg, Log: log}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, db.Close)

	kv, err := storage.Open(ctx, cfg.KVBackend, cfg.KVPath, cfg.RedisURL)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open key-value store: %w", err)
	}
	a.KV = kv
	if c, ok := kv.(llm.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}

	a.Flags = features.Load(ctx, db.SQL, log.Named("features"))
	a.Ingredients = ingredient.NewRepository(db.SQL)
	a.Recipes = recipe.NewRepository(db.SQL)
	a.Dataset = dataset.NewRepository(db.SQL)
	a.Vectors = llm.NewVectorRepository(db.SQL, log.Named("vectors"))
	a.Plans = planner.NewPlanRepository(db.SQL, a.Recipes)
	a.Users = users.NewRepository(db.SQL)
	a.Metrics = metrics.NewStore(db.SQL)
	a.Saved = storage.NewSavedSet(kv)
	a.Auth = auth.NewVerifier(cfg.JWTSecret)

	if err := a.initModels(ctx); err != nil {
		a.Close()
		return nil, err
	}

	searcher, err := a.vectorSearcher(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.DatasetRecs = recommend.NewDatasetAdapter(a.Dataset, cfg.DatasetMinScore, log.Named("dataset"))
	a.Suggestions = recommend.NewSuggestionAdapter(a.textGen, kv, a.Metrics, log.Named("suggestions"))
	a.RAG = recommend.NewRAGAdapter(a.embedder, searcher, a.Dataset, a.textGen, a.Metrics, recommend.RAGConfig{
		Threshold:  cfg.RAGSimilarityThreshold,
		Enhance:    cfg.RAGEnhance,
		BatchDelay: cfg.RAGBatchDelay,
	}, log.Named("rag"))

	var filler planner.Filler
	if a.textGen != nil {
		filler = a.Suggestions
	}
	gen := planner.NewGenerator(a.Recipes, a.Ingredients, a.DatasetRecs, filler, planner.Options{
		AllowEmptySlots: cfg.PlannerAllowEmptySlots,
		Flags:           a.Flags,
	}, log.Named("planner"))
	a.Planner = planner.NewService(gen, a.Plans, a.Recipes, kv, log.Named("planner"))

	httpClient := llm.NewHTTPClient(cfg.HTTPRetryMax, 20*time.Second, log.Named("http"))
	a.Clipper = clipper.NewClipper(httpClient, a.textGen, a.Recipes, a.Metrics, log.Named("clipper"))

	return a, nil
}

func (a *App) initModels(ctx context.Context) error {
	cfg := a.Config
	httpClient := llm.NewHTTPClient(cfg.HTTPRetryMax, 60*time.Second, a.Log.Named("http"))

	var gemini *llm.GeminiClient
	if cfg.GeminiAPIKey != "" {
		g, err := llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			return err
		}
		gemini = g
		a.closers = append(a.closers, g.Close)
	}

	switch {
	case cfg.LLMProvider == "groq" && cfg.GroqAPIKey != "":
		a.textGen = llm.NewGroqClient(cfg.GroqAPIKey, cfg.GroqModel, 0.4, httpClient)
	case cfg.LLMProvider == "gemini" && gemini != nil:
		a.textGen = gemini
	default:
		a.Log.Warnf("no %s credentials, AI suggestions and clipping are unavailable", cfg.LLMProvider)
	}

	var realEmbedder llm.EmbeddingGenerator
	switch {
	case cfg.EmbeddingFunctionURL != "":
		realEmbedder = llm.NewEmbeddingFunctionClient(cfg.EmbeddingFunctionURL, cfg.EmbeddingFunctionKey, llm.EmbeddingDimensions, httpClient)
		a.embeddingModel = "embedding-function"
	case gemini != nil:
		realEmbedder = gemini
		a.embeddingModel = cfg.GeminiEmbeddingModel
	default:
		a.Log.Warn("no embedding endpoint configured, using hash embeddings")
		a.embeddingModel = hashEmbeddingModel
		return nil
	}
	a.embedder = llm.NewCachedEmbeddingGenerator(realEmbedder, a.KV, a.embeddingModel)
	return nil
}

func (a *App) vectorSearcher(ctx context.Context) (llm.VectorSearcher, error) {
	if a.Config.VectorBackend != "postgres" {
		return a.Vectors, nil
	}
	searcher, pool, err := llm.NewPostgresVectorSearcher(ctx, a.Config.PostgresURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { pool.Close(); return nil })
	return searcher, nil
}

// HasTextModel reports whether a generative model is configured.
func (a *App) HasTextModel() bool {
	return a.textGen != nil
}

// Close releases every resource in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
