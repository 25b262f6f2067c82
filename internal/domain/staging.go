package domain

import (
	"time"

	"github.com/google/uuid"
)

// StagedRow is a catalog row after hand-off to the edit grid, carrying
// user-editable order attributes. Quantity and Discount stay nil until
// the user edits them; save-time defaulting happens in the staging
// package, not here.
type StagedRow struct {
	CatalogRow
	Quantity *float64 `json:"quantity,omitempty"`
	Discount *float64 `json:"discount,omitempty"`
}

// PartialEdit is one batch entry from an inline cell edit: the target
// row plus a map of changed field names to raw values. Raw values may
// be strings, numbers, or nil depending on what the grid sends.
type PartialEdit struct {
	RowID  uuid.UUID      `json:"row_id"`
	Fields map[string]any `json:"fields"`
}

// LineItem is the outbound creation payload, one per staged row at save
// time. Discount is nil when the staged value was absent or zero.
type LineItem struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	ParentKind ParentKind `json:"parent_kind" db:"parent_kind"`
	ParentID   uuid.UUID  `json:"parent_id" db:"parent_id"`
	ProductID  uuid.UUID  `json:"product_id" db:"product_id"`
	Name       string     `json:"name" db:"name"`
	Quantity   float64    `json:"quantity" db:"quantity"`
	CostPrice  float64    `json:"cost_price" db:"cost_price"`
	UnitPrice  float64    `json:"unit_price" db:"unit_price"`
	Discount   *float64   `json:"discount" db:"discount"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}
