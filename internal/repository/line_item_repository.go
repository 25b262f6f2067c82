package repository

import (
	"context"
	"database/sql"
	"fmt"

	"line-item-staging/internal/domain"
)

// LineItemRepository defines the interface for line-item persistence
type LineItemRepository interface {
	CreateBatch(ctx context.Context, items []*domain.LineItem) error
}

type lineItemRepository struct {
	db *sql.DB
}

// NewLineItemRepository creates a new instance of LineItemRepository
func NewLineItemRepository(db *sql.DB) LineItemRepository {
	return &lineItemRepository{db: db}
}

// CreateBatch inserts all line items in a single transaction. Either
// every item lands or none does, so a failed save leaves nothing behind
// and the caller can retry with the same staged data.
func (r *lineItemRepository) CreateBatch(ctx context.Context, items []*domain.LineItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO line_items (id, parent_kind, parent_id, product_id, name, quantity, cost_price, unit_price, discount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for _, item := range items {
		var discount sql.NullFloat64
		if item.Discount != nil {
			discount = sql.NullFloat64{Float64: *item.Discount, Valid: true}
		}

		_, err := tx.ExecContext(
			ctx,
			query,
			item.ID,
			string(item.ParentKind),
			item.ParentID,
			item.ProductID,
			item.Name,
			item.Quantity,
			item.CostPrice,
			item.UnitPrice,
			discount,
			item.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create line item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit line items: %w", err)
	}

	return nil
}
