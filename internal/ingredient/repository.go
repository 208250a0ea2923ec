package ingredient

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"pantry-planner/internal/database"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an ingredient does not exist for the user.
var ErrNotFound = errors.New("ingredient not found")

// Repository is the Ingredient Store: user-scoped CRUD over the ingredients table.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d, now: time.Now}
}

const ingredientColumns = `id, user_id, name, quantity, unit, category, expiry_date, created_at, updated_at`

// List returns every ingredient of the user ordered by name.
func (r *Repository) List(ctx context.Context, userID string) ([]Ingredient, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE user_id = ? ORDER BY name COLLATE NOCASE, created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	defer rows.Close()

	var items []Ingredient
	for rows.Next() {
		it, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Get returns one ingredient of the user.
func (r *Repository) Get(ctx context.Context, userID, id string) (*Ingredient, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE user_id = ? AND id = ?`, userID, id)
	it, err := scanIngredient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// Create inserts it for the user, assigning ID and timestamps.
func (r *Repository) Create(ctx context.Context, userID string, it Ingredient) (*Ingredient, error) {
	now := r.now().UTC()
	it.ID = uuid.NewString()
	it.UserID = userID
	it.CreatedAt = now
	it.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ingredients (`+ingredientColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.UserID, it.Name, it.Quantity, string(it.Unit), string(it.Category),
		formatDate(it.ExpiryDate), database.FormatTime(it.CreatedAt), database.FormatTime(it.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create ingredient: %w", err)
	}
	return &it, nil
}

// Update overwrites the editable fields of an existing ingredient.
func (r *Repository) Update(ctx context.Context, userID string, it Ingredient) (*Ingredient, error) {
	it.UserID = userID
	it.UpdatedAt = r.now().UTC()

	res, err := r.db.ExecContext(ctx, `
		UPDATE ingredients SET name = ?, quantity = ?, unit = ?, category = ?, expiry_date = ?, updated_at = ?
		WHERE user_id = ? AND id = ?`,
		it.Name, it.Quantity, string(it.Unit), string(it.Category), formatDate(it.ExpiryDate),
		database.FormatTime(it.UpdatedAt), userID, it.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update ingredient: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, userID, it.ID)
}

// Delete removes an ingredient of the user.
func (r *Repository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ingredients WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete ingredient: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpiringSoon returns items expiring within d of now, soonest first.
func (r *Repository) ExpiringSoon(ctx context.Context, userID string, d time.Duration) ([]Ingredient, error) {
	items, err := r.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := r.now()
	var out []Ingredient
	for _, it := range items {
		if it.ExpiresWithin(now, d) {
			out = append(out, it)
		}
	}
	sortByExpiry(out)
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIngredient(s scanner) (Ingredient, error) {
	var (
		it                   Ingredient
		unit, category       string
		expiry               sql.NullString
		createdAt, updatedAt string
	)
	if err := s.Scan(&it.ID, &it.UserID, &it.Name, &it.Quantity, &unit, &category, &expiry, &createdAt, &updatedAt); err != nil {
		return Ingredient{}, err
	}
	it.Unit = Unit(unit)
	it.Category = Category(category)

	var err error
	if it.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return Ingredient{}, err
	}
	if it.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return Ingredient{}, err
	}
	if expiry.Valid && expiry.String != "" {
		t, err := time.Parse(database.DateLayout, expiry.String)
		if err != nil {
			return Ingredient{}, fmt.Errorf("invalid expiry date %q: %w", expiry.String, err)
		}
		it.ExpiryDate = &t
	}
	return it, nil
}

func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(database.DateLayout)
}

func sortByExpiry(items []Ingredient) {
	slices.SortStableFunc(items, func(a, b Ingredient) int {
		return a.ExpiryDate.Compare(*b.ExpiryDate)
	})
}
