package domain

import (
	"github.com/google/uuid"
)

// ParentKind identifies the record type a staging session is attached to.
type ParentKind string

const (
	ParentOpportunity    ParentKind = "opportunity"
	ParentQuote          ParentKind = "quote"
	ParentPricebookEntry ParentKind = "pricebook_entry"
)

// Valid reports whether k is one of the supported parent kinds.
func (k ParentKind) Valid() bool {
	switch k {
	case ParentOpportunity, ParentQuote, ParentPricebookEntry:
		return true
	}
	return false
}

// CatalogRow is one sellable price-book entry available for selection.
// Rows are immutable once loaded; a refresh replaces the whole set.
type CatalogRow struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	Name        string    `json:"name"`
	ProductCode string    `json:"product_code"`
	IsActive    bool      `json:"is_active"`
	CostPrice   float64   `json:"cost_price"`
	UnitPrice   float64   `json:"unit_price"`
	Category1   string    `json:"category1,omitempty"`
	Category2   string    `json:"category2,omitempty"`
}

// CategoryFacets holds the distinct filter values for the two category
// pick lists. Derived from the catalog source, not from loaded rows.
type CategoryFacets struct {
	Category1 []string `json:"category1"`
	Category2 []string `json:"category2"`
}
