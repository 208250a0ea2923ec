// Package users stores user profiles and feedback submissions.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pantry-planner/internal/database"
)

var (
	ErrUsernameTaken = errors.New("username is already taken")
	ErrNotFound      = errors.New("profile not found")
)

// Profile is the public identity of a user.
type Profile struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username" validate:"required,min=3,max=30,alphanum"`
	DisplayName string    `json:"display_name" validate:"max=80"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Feedback is a rating with an optional message.
type Feedback struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating" validate:"required,min=1,max=5"`
	Message   string    `json:"message" validate:"max=2000"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository persists profiles and feedback.
type Repository struct {
	db *sql.DB
}

func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Upsert creates or updates the user's profile. Usernames are unique case-insensitively.
func (r *Repository) Upsert(ctx context.Context, p Profile) (*Profile, error) {
	now := time.Now().UTC()
	p.Username = strings.ToLower(strings.TrimSpace(p.Username))
	p.DisplayName = strings.TrimSpace(p.DisplayName)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_profiles (user_id, username, display_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			display_name = excluded.display_name,
			updated_at = excluded.updated_at`,
		p.UserID, p.Username, p.DisplayName, database.FormatTime(now), database.FormatTime(now))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return r.Get(ctx, p.UserID)
}

// Get returns the user's profile.
func (r *Repository) Get(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	var created, updated string
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, username, display_name, created_at, updated_at FROM user_profiles WHERE user_id = ?`, userID).
		Scan(&p.UserID, &p.Username, &p.DisplayName, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if p.CreatedAt, err = database.ParseTime(created); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = database.ParseTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}

// UsernameAvailable reports whether nobody else holds username.
func (r *Repository) UsernameAvailable(ctx context.Context, userID, username string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_profiles WHERE username = ? AND user_id <> ?`,
		strings.ToLower(strings.TrimSpace(username)), userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return n == 0, nil
}

// AddFeedback records a feedback submission.
func (r *Repository) AddFeedback(ctx context.Context, f Feedback) (*Feedback, error) {
	f.CreatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO user_feedback (user_id, rating, message, created_at) VALUES (?, ?, ?, ?)`,
		f.UserID, f.Rating, strings.TrimSpace(f.Message), database.FormatTime(f.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to save feedback: %w", err)
	}
	if f.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFeedback returns the most recent submissions across all users.
func (r *Repository) ListFeedback(ctx context.Context, limit int) ([]Feedback, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, rating, message, created_at FROM user_feedback ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var out []Feedback
	for rows.Next() {
		var f Feedback
		var created string
		if err := rows.Scan(&f.ID, &f.UserID, &f.Rating, &f.Message, &created); err != nil {
			return nil, err
		}
		if f.CreatedAt, err = database.ParseTime(created); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
