package recommend

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"pantry-planner/internal/matcher"

	"go.uber.org/zap"
)

// DefaultDatasetMinScore is the match score a dataset recipe must exceed to be recommended.
const DefaultDatasetMinScore = 0.2

// rows read per request before scoring
const datasetScanLimit = 500

// DatasetAdapter ranks popular community recipes by how well the pantry covers them.
type DatasetAdapter struct {
	store    DatasetStore
	minScore float64
	log      *zap.SugaredLogger
}

// NewDatasetAdapter creates an adapter. minScore <= 0 selects DefaultDatasetMinScore.
func NewDatasetAdapter(store DatasetStore, minScore float64, log *zap.SugaredLogger) *DatasetAdapter {
	if minScore <= 0 {
		minScore = DefaultDatasetMinScore
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &DatasetAdapter{store: store, minScore: minScore, log: log}
}

func (a *DatasetAdapter) Recommend(ctx context.Context, available []string, f Filters) ([]Recommendation, error) {
	rows, err := a.store.ListPopular(ctx, f.MinLoves, datasetScanLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list dataset recipes: %w", err)
	}

	threshold := a.minScore
	if f.MinScore > 0 {
		threshold = f.MinScore
	}

	var out []Recommendation
	for _, row := range rows {
		res := matcher.Score(row.IngredientNames(), available)
		if res.Score <= threshold {
			continue
		}
		out = append(out, Recommendation{
			Recipe:       row.ToRecipe(),
			MatchScore:   res.Score,
			Confidence:   res.Score,
			MatchReasons: res.Reasons,
			Loves:        row.Loves,
			SourceURL:    row.URL,
		})
	}

	slices.SortStableFunc(out, func(x, y Recommendation) int {
		if c := cmp.Compare(y.MatchScore, x.MatchScore); c != 0 {
			return c
		}
		return cmp.Compare(y.Loves, x.Loves)
	})

	if limit := f.limit(); len(out) > limit {
		out = out[:limit]
	}
	a.log.Debugf("dataset: %d of %d rows above %.2f", len(out), len(rows), threshold)
	return out, nil
}
