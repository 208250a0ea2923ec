package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a dataset row does not exist.
var ErrNotFound = errors.New("dataset recipe not found")

// Repository reads and loads the shared dataset_recipes table. Rows with a null owner are shared.
type Repository struct {
	db *sql.DB
}

func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

const datasetColumns = `id, title, ingredients, steps, loves, url`

// ListPopular returns up to limit shared rows with at least minLoves loves, most loved first.
func (r *Repository) ListPopular(ctx context.Context, minLoves, limit int) ([]Recipe, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+datasetColumns+` FROM dataset_recipes
		WHERE user_id IS NULL AND loves >= ?
		ORDER BY loves DESC, id
		LIMIT ?`, minLoves, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list dataset recipes: %w", err)
	}
	return scanAll(rows)
}

// SearchText returns rows whose title or ingredients contain any of terms, most loved first.
func (r *Repository) SearchText(ctx context.Context, terms []string, limit int) ([]Recipe, error) {
	var (
		clauses []string
		args    []any
	)
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		pattern := "%" + escapeLike(t) + "%"
		clauses = append(clauses, `lower(title) LIKE ? ESCAPE '\' OR lower(ingredients) LIKE ? ESCAPE '\'`)
		args = append(args, pattern, pattern)
	}
	if len(clauses) == 0 {
		return nil, nil
	}
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+datasetColumns+` FROM dataset_recipes
		WHERE user_id IS NULL AND (`+strings.Join(clauses, " OR ")+`)
		ORDER BY loves DESC, id
		LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search dataset recipes: %w", err)
	}
	return scanAll(rows)
}

// Get returns one row.
func (r *Repository) Get(ctx context.Context, id int64) (*Recipe, error) {
	var d Recipe
	err := r.db.QueryRowContext(ctx, `SELECT `+datasetColumns+` FROM dataset_recipes WHERE id = ?`, id).
		Scan(&d.ID, &d.Title, &d.IngredientsText, &d.StepsText, &d.Loves, &d.URL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset recipe: %w", err)
	}
	return &d, nil
}

// GetByIDs returns the rows among ids in the order of ids. Unknown ids are skipped.
func (r *Repository) GetByIDs(ctx context.Context, ids []int64) ([]Recipe, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+datasetColumns+` FROM dataset_recipes WHERE id IN (`+strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset recipes: %w", err)
	}
	found, err := scanAll(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]Recipe, len(found))
	for _, d := range found {
		byID[d.ID] = d
	}
	out := make([]Recipe, 0, len(found))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

// Insert adds a shared row and returns its id.
func (r *Repository) Insert(ctx context.Context, d Recipe) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO dataset_recipes (title, ingredients, steps, loves, url) VALUES (?, ?, ?, ?, ?)`,
		d.Title, d.IngredientsText, d.StepsText, d.Loves, d.URL)
	if err != nil {
		return 0, fmt.Errorf("failed to insert dataset recipe: %w", err)
	}
	return res.LastInsertId()
}

// Count returns the number of shared rows.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dataset_recipes WHERE user_id IS NULL`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count dataset recipes: %w", err)
	}
	return n, nil
}

func scanAll(rows *sql.Rows) ([]Recipe, error) {
	defer rows.Close()
	var out []Recipe
	for rows.Next() {
		var d Recipe
		if err := rows.Scan(&d.ID, &d.Title, &d.IngredientsText, &d.StepsText, &d.Loves, &d.URL); err != nil {
			return nil, fmt.Errorf("failed to scan dataset recipe: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
