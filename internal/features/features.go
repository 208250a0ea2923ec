// Package features reads the feature_flags table. Flags are loaded once at startup and passed to
// the components they gate.
package features

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pantry-planner/internal/database"

	"go.uber.org/zap"
)

const (
	Dataset       = "dataset"
	Suggestions   = "suggestions"
	RAG           = "rag"
	WeeklyPlanner = "weeklyPlanner"
)

// Flags holds the switches for optional recommendation sources and the planner.
type Flags struct {
	Dataset       bool `json:"dataset"`
	Suggestions   bool `json:"suggestions"`
	RAG           bool `json:"rag"`
	WeeklyPlanner bool `json:"weeklyPlanner"`
}

// Defaults enables everything.
func Defaults() Flags {
	return Flags{Dataset: true, Suggestions: true, RAG: true, WeeklyPlanner: true}
}

// Load reads the flags table. Unknown names are ignored; a missing row keeps its default, and a
// read error returns Defaults.
func Load(ctx context.Context, db *sql.DB, log *zap.SugaredLogger) Flags {
	flags := Defaults()
	rows, err := db.QueryContext(ctx, `SELECT name, enabled FROM feature_flags`)
	if err != nil {
		if log != nil {
			log.Warnf("failed to load feature flags, using defaults: %v", err)
		}
		return flags
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var enabled bool
		if err := rows.Scan(&name, &enabled); err != nil {
			if log != nil {
				log.Warnf("failed to scan feature flag, using defaults: %v", err)
			}
			return Defaults()
		}
		if p := flags.field(name); p != nil {
			*p = enabled
		}
	}
	if err := rows.Err(); err != nil {
		return Defaults()
	}
	return flags
}

// Set persists a flag. It takes effect on the next Load.
func Set(ctx context.Context, db *sql.DB, name string, enabled bool) error {
	d := Defaults()
	if d.field(name) == nil {
		return fmt.Errorf("unknown feature flag %q", name)
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO feature_flags (name, enabled, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET enabled = excluded.enabled, updated_at = excluded.updated_at`,
		name, enabled, database.FormatTime(time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("failed to set feature flag %s: %w", name, err)
	}
	return nil
}

func (f *Flags) field(name string) *bool {
	switch name {
	case Dataset:
		return &f.Dataset
	case Suggestions:
		return &f.Suggestions
	case RAG:
		return &f.RAG
	case WeeklyPlanner:
		return &f.WeeklyPlanner
	}
	return nil
}
