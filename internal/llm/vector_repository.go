package llm

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
)

// VectorRepository stores dataset recipe embeddings in SQLite and answers similarity queries by
// scanning every stored vector. It implements VectorSearcher for deployments without a remote
// vector RPC.
type VectorRepository struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

func NewVectorRepository(d *sql.DB, log *zap.SugaredLogger) *VectorRepository {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &VectorRepository{db: d, log: log}
}

// Save inserts or replaces the embedding of a dataset recipe.
func (r *VectorRepository) Save(ctx context.Context, recipeID int64, embedding []float32, model string) error {
	embeddingBytes, err := float32SliceToByteSlice(embedding)
	if err != nil {
		return fmt.Errorf("failed to convert float32 slice to byte slice: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO recipe_embeddings (recipe_id, embedding, model, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(recipe_id) DO UPDATE SET embedding = excluded.embedding, model = excluded.model, updated_at = excluded.updated_at`,
		recipeID, embeddingBytes, model, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save embedding for recipe %d: %w", recipeID, err)
	}
	return nil
}

// ListUnembedded returns up to limit dataset recipe ids that have no stored embedding.
func (r *VectorRepository) ListUnembedded(ctx context.Context, limit int) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT d.id FROM dataset_recipes d
		LEFT JOIN recipe_embeddings e ON e.recipe_id = d.id
		WHERE e.recipe_id IS NULL
		ORDER BY d.id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unembedded recipes: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *VectorRepository) MatchByIngredients(ctx context.Context, embedding []float32, threshold float64, limit, minLoves int) ([]VectorMatch, error) {
	return r.match(ctx, embedding, threshold, limit, minLoves)
}

func (r *VectorRepository) MatchByQuery(ctx context.Context, embedding []float32, threshold float64, limit int) ([]VectorMatch, error) {
	return r.match(ctx, embedding, threshold, limit, 0)
}

func (r *VectorRepository) match(ctx context.Context, query []float32, threshold float64, limit, minLoves int) ([]VectorMatch, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.recipe_id, e.embedding
		FROM recipe_embeddings e
		JOIN dataset_recipes d ON d.id = e.recipe_id
		WHERE d.loves >= ?`, minLoves)
	if err != nil {
		return nil, fmt.Errorf("failed to list embeddings: %w", err)
	}
	defer rows.Close()

	var matches []VectorMatch
	for rows.Next() {
		var (
			id   int64
			blob []byte
		)
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		embed, err := byteSliceToFloat32Slice(blob)
		if err != nil {
			r.log.Warnf("skipping embedding for recipe %d: %v", id, err)
			continue
		}
		score := cosineSimilarity(query, embed)
		if score < threshold {
			continue
		}
		matches = append(matches, VectorMatch{RecipeID: id, Similarity: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].RecipeID < matches[j].RecipeID
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// float32SliceToByteSlice converts a slice of float32 to a byte slice.
func float32SliceToByteSlice(floats []float32) ([]byte, error) {
	if len(floats) == 0 {
		return nil, fmt.Errorf("empty embedding")
	}
	buf := make([]byte, 4*len(floats))
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(f))
	}
	return buf, nil
}

// byteSliceToFloat32Slice converts a byte slice to a slice of float32.
func byteSliceToFloat32Slice(bytes []byte) ([]float32, error) {
	if len(bytes) == 0 {
		return nil, nil
	}
	if len(bytes)%4 != 0 {
		return nil, fmt.Errorf("byte slice length is not a multiple of 4")
	}
	floats := make([]float32, len(bytes)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(bytes[i*4 : (i+1)*4]))
	}
	return floats, nil
}

// cosineSimilarity calculates the cosine similarity between two vectors.
// Vectors of different length are unrelated.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
