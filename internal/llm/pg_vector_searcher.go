package llm

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgQuerier is the subset of *pgxpool.Pool used by the searcher.
type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresVectorSearcher calls the pgvector similarity functions of a remote Postgres:
//
//	match_recipes_by_ingredients(query_embedding vector, match_threshold float, match_count int, min_loves int)
//	match_recipes_by_query(query_embedding vector, match_threshold float, match_count int)
//
// Both return (id bigint, similarity float) ordered by similarity.
type PostgresVectorSearcher struct {
	db pgQuerier
}

// NewPostgresVectorSearcher opens a connection pool to postgresURL.
func NewPostgresVectorSearcher(ctx context.Context, postgresURL string) (*PostgresVectorSearcher, *pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(postgresURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid POSTGRES_URL: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &PostgresVectorSearcher{db: pool}, pool, nil
}

func (s *PostgresVectorSearcher) MatchByIngredients(ctx context.Context, embedding []float32, threshold float64, limit, minLoves int) ([]VectorMatch, error) {
	return s.query(ctx,
		`SELECT id, similarity FROM match_recipes_by_ingredients($1::vector, $2, $3, $4)`,
		vectorLiteral(embedding), threshold, limit, minLoves)
}

func (s *PostgresVectorSearcher) MatchByQuery(ctx context.Context, embedding []float32, threshold float64, limit int) ([]VectorMatch, error) {
	return s.query(ctx,
		`SELECT id, similarity FROM match_recipes_by_query($1::vector, $2, $3)`,
		vectorLiteral(embedding), threshold, limit)
}

func (s *PostgresVectorSearcher) query(ctx context.Context, q string, args ...any) ([]VectorMatch, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("vector rpc failed: %w", err)
	}
	matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (VectorMatch, error) {
		var m VectorMatch
		err := row.Scan(&m.RecipeID, &m.Similarity)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read vector rpc rows: %w", err)
	}
	return matches, nil
}

// vectorLiteral renders an embedding in pgvector's text input format.
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.Grow(len(v) * 8)
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
