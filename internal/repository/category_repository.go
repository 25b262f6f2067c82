package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// CategoryRepository defines the interface for category facet access
type CategoryRepository interface {
	Facets(ctx context.Context) (category1 []string, category2 []string, err error)
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// Facets retrieves the distinct category values across all price-book
// entries. The lists feed the filter pick lists, so they are derived
// from the whole catalog, not from whatever grid is currently loaded.
func (r *categoryRepository) Facets(ctx context.Context) ([]string, []string, error) {
	category1, err := r.distinct(ctx, `
		SELECT DISTINCT category1 FROM pricebook_entries
		WHERE category1 IS NOT NULL
		ORDER BY category1 ASC
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list category1 facets: %w", err)
	}

	category2, err := r.distinct(ctx, `
		SELECT DISTINCT category2 FROM pricebook_entries
		WHERE category2 IS NOT NULL
		ORDER BY category2 ASC
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list category2 facets: %w", err)
	}

	return category1, category2, nil
}

func (r *categoryRepository) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan facet value: %w", err)
		}
		values = append(values, v)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating facet values: %w", err)
	}

	return values, nil
}
