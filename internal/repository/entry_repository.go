package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// EntryRecord is the raw shape of a price-book entry as stored. Some
// entries carry a denormalized product name, others only reference the
// product row; normalization into one catalog shape happens at the
// catalog boundary, not here.
type EntryRecord struct {
	ID          uuid.UUID
	PricebookID uuid.UUID
	ProductID   uuid.UUID
	// ProductName is the denormalized name on the entry itself, when set.
	ProductName sql.NullString
	// JoinedProductName comes from the joined product row.
	JoinedProductName sql.NullString
	ProductCode       sql.NullString
	IsActive          bool
	CostPrice         float64
	UnitPrice         float64
	Category1         sql.NullString
	Category2         sql.NullString
}

// EntryRepository defines the interface for price-book entry access
type EntryRepository interface {
	ListByPricebook(ctx context.Context, pricebookID uuid.UUID) ([]*EntryRecord, error)
}

type entryRepository struct {
	db *sql.DB
}

// NewEntryRepository creates a new instance of EntryRepository
func NewEntryRepository(db *sql.DB) EntryRepository {
	return &entryRepository{db: db}
}

// ListByPricebook retrieves all entries for a price book along with the
// joined product name, using parameterized queries
func (r *entryRepository) ListByPricebook(ctx context.Context, pricebookID uuid.UUID) ([]*EntryRecord, error) {
	query := `
		SELECT e.id, e.pricebook_id, e.product_id, e.product_name, p.name,
		       e.product_code, e.is_active, e.cost_price, e.unit_price,
		       e.category1, e.category2
		FROM pricebook_entries e
		LEFT JOIN products p ON p.id = e.product_id
		WHERE e.pricebook_id = $1
		ORDER BY e.id
	`

	rows, err := r.db.QueryContext(ctx, query, pricebookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pricebook entries: %w", err)
	}
	defer rows.Close()

	entries := []*EntryRecord{}
	for rows.Next() {
		entry := &EntryRecord{}
		err := rows.Scan(
			&entry.ID,
			&entry.PricebookID,
			&entry.ProductID,
			&entry.ProductName,
			&entry.JoinedProductName,
			&entry.ProductCode,
			&entry.IsActive,
			&entry.CostPrice,
			&entry.UnitPrice,
			&entry.Category1,
			&entry.Category2,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pricebook entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pricebook entries: %w", err)
	}

	return entries, nil
}
