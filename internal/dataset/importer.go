package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ImportCSV loads rows with a header naming Title, Ingredients, Steps, Loves and URL columns
// (case-insensitive, any order; Loves and URL optional). Rows without a title are skipped.
// It returns the number of inserted rows.
func (r *Repository) ImportCSV(ctx context.Context, src io.Reader) (int, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{"title", "ingredients", "steps"} {
		if _, ok := col[required]; !ok {
			return 0, fmt.Errorf("csv header is missing the %q column", required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	inserted := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return inserted, fmt.Errorf("failed to read csv row %d: %w", inserted+2, err)
		}
		if err := ctx.Err(); err != nil {
			return inserted, err
		}

		d := Recipe{
			Title:           field(rec, "title"),
			IngredientsText: field(rec, "ingredients"),
			StepsText:       field(rec, "steps"),
			URL:             field(rec, "url"),
		}
		if d.Title == "" {
			continue
		}
		if loves := field(rec, "loves"); loves != "" {
			if n, err := strconv.Atoi(loves); err == nil {
				d.Loves = n
			}
		}
		if _, err := r.Insert(ctx, d); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}
