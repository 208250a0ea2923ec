package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pantry-planner/internal/database"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a recipe does not exist for the user.
var ErrNotFound = errors.New("recipe not found")

// Repository is the Recipe Store: user-owned recipes and their ingredient line items.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d, now: time.Now}
}

const recipeColumns = `id, user_id, provenance, source_ref, name, description, prep_time, cook_time, servings, difficulty, instructions, tags, created_at, updated_at`

// List returns the user's recipes, newest first.
func (r *Repository) List(ctx context.Context, userID string) ([]Recipe, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	recipes, err := scanRecipes(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachIngredients(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// Get retrieves a recipe of the user by its ID.
func (r *Repository) Get(ctx context.Context, userID, id string) (*Recipe, error) {
	recipes, err := r.GetByIDs(ctx, userID, []string{id})
	if err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return nil, ErrNotFound
	}
	return &recipes[0], nil
}

// GetByIDs returns the user's recipes among ids. Unknown ids are skipped.
func (r *Repository) GetByIDs(ctx context.Context, userID string, ids []string) ([]Recipe, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE user_id = ? AND id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipes by ids: %w", err)
	}
	recipes, err := scanRecipes(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachIngredients(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// Create stores rec as an owned recipe of the user.
func (r *Repository) Create(ctx context.Context, userID string, rec Recipe) (*Recipe, error) {
	now := r.now().UTC()
	rec.ID = uuid.NewString()
	rec.UserID = userID
	rec.Provenance = ProvenanceOwned
	rec.CreatedAt = now
	rec.UpdatedAt = now
	rec.Normalize()

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		instructions, tags, err := encodeLists(rec)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO recipes (`+recipeColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.UserID, string(rec.Provenance), rec.SourceRef, rec.Name, rec.Description,
			rec.PrepTime, rec.CookTime, rec.Servings, string(rec.Difficulty), instructions, tags,
			database.FormatTime(rec.CreatedAt), database.FormatTime(rec.UpdatedAt)); err != nil {
			return fmt.Errorf("failed to insert recipe: %w", err)
		}
		return insertIngredients(ctx, tx, rec.ID, rec.Ingredients)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Update replaces the editable fields and the full ingredient list of an existing recipe.
func (r *Repository) Update(ctx context.Context, userID string, rec Recipe) (*Recipe, error) {
	rec.UserID = userID
	rec.UpdatedAt = r.now().UTC()
	rec.Normalize()

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		instructions, tags, err := encodeLists(rec)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE recipes SET name = ?, description = ?, prep_time = ?, cook_time = ?, servings = ?,
				difficulty = ?, instructions = ?, tags = ?, updated_at = ?
			WHERE user_id = ? AND id = ?`,
			rec.Name, rec.Description, rec.PrepTime, rec.CookTime, rec.Servings, string(rec.Difficulty),
			instructions, tags, database.FormatTime(rec.UpdatedAt), userID, rec.ID)
		if err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, rec.ID); err != nil {
			return fmt.Errorf("failed to clear recipe ingredients: %w", err)
		}
		return insertIngredients(ctx, tx, rec.ID, rec.Ingredients)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, userID, rec.ID)
}

// Delete removes a recipe of the user together with its ingredients and plan slots.
func (r *Repository) Delete(ctx context.Context, userID, id string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM recipes WHERE user_id = ? AND id = ?`, userID, id)
		if err != nil {
			return fmt.Errorf("failed to delete recipe: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete recipe ingredients: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM daily_recipes WHERE recipe_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete plan slots: %w", err)
		}
		return nil
	})
}

// CopyToStore gives an externally sourced recipe a stable identity in the user's store.
// Copying the same source twice returns the earlier copy. Owned recipes are returned unchanged.
func (r *Repository) CopyToStore(ctx context.Context, userID string, rec Recipe) (*Recipe, error) {
	if rec.IsOwned() {
		return &rec, nil
	}

	ref := rec.Key()
	var existing string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM recipes WHERE user_id = ? AND source_ref = ? LIMIT 1`, userID, ref).Scan(&existing)
	switch {
	case err == nil:
		return r.Get(ctx, userID, existing)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to look up copied recipe: %w", err)
	}

	rec.Provenance = ProvenanceOwned
	rec.SourceRef = ref
	return r.Create(ctx, userID, rec)
}

// Count returns how many recipes the user owns.
func (r *Repository) Count(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return n, nil
}

func (r *Repository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *Repository) attachIngredients(ctx context.Context, recipes []Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	index := make(map[string]int, len(recipes))
	args := make([]any, 0, len(recipes))
	for i := range recipes {
		index[recipes[i].ID] = i
		recipes[i].Ingredients = []Ingredient{}
		args = append(args, recipes[i].ID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT recipe_id, name, quantity, unit FROM recipe_ingredients
		WHERE recipe_id IN (`+placeholders(len(args))+`)
		ORDER BY recipe_id, position`, args...)
	if err != nil {
		return fmt.Errorf("failed to load recipe ingredients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			recipeID string
			ing      Ingredient
		)
		if err := rows.Scan(&recipeID, &ing.Name, &ing.Quantity, &ing.Unit); err != nil {
			return fmt.Errorf("failed to scan recipe ingredient: %w", err)
		}
		i := index[recipeID]
		recipes[i].Ingredients = append(recipes[i].Ingredients, ing)
	}
	return rows.Err()
}

func insertIngredients(ctx context.Context, tx *sql.Tx, recipeID string, ings []Ingredient) error {
	for pos, ing := range ings {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_ingredients (recipe_id, position, name, quantity, unit) VALUES (?, ?, ?, ?, ?)`,
			recipeID, pos, strings.TrimSpace(ing.Name), ing.Quantity, ing.Unit); err != nil {
			return fmt.Errorf("failed to insert recipe ingredient: %w", err)
		}
	}
	return nil
}

func scanRecipes(rows *sql.Rows) ([]Recipe, error) {
	defer rows.Close()
	var recipes []Recipe
	for rows.Next() {
		var (
			rec                    Recipe
			provenance, difficulty string
			instructions, tags     string
			createdAt, updatedAt   string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &provenance, &rec.SourceRef, &rec.Name, &rec.Description,
			&rec.PrepTime, &rec.CookTime, &rec.Servings, &difficulty, &instructions, &tags,
			&createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		rec.Provenance = Provenance(provenance)
		rec.Difficulty = Difficulty(difficulty)
		if err := json.Unmarshal([]byte(instructions), &rec.Instructions); err != nil {
			return nil, fmt.Errorf("failed to decode instructions of recipe %s: %w", rec.ID, err)
		}
		if err := json.Unmarshal([]byte(tags), &rec.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags of recipe %s: %w", rec.ID, err)
		}
		var err error
		if rec.CreatedAt, err = database.ParseTime(createdAt); err != nil {
			return nil, err
		}
		if rec.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
			return nil, err
		}
		recipes = append(recipes, rec)
	}
	return recipes, rows.Err()
}

func encodeLists(rec Recipe) (string, string, error) {
	instructions, err := json.Marshal(rec.Instructions)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal instructions: %w", err)
	}
	tags, err := json.Marshal(rec.Tags)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal tags: %w", err)
	}
	return string(instructions), string(tags), nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
