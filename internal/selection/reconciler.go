// Package selection implements the pure selection-set logic for the
// product picker: keeping a user's row picks stable and deduplicated
// across category-filter changes and grid refreshes.
package selection

import (
	"line-item-staging/internal/domain"

	"github.com/google/uuid"
)

// Reconcile recomputes the stable selection after the visible row set
// changes. Every previously selected row is retained, whether or not it
// is currently visible; rows that do appear in visible are re-attached
// from the fresh data so a selected row never shows stale field values
// after a refresh. The result is deduplicated by ID and preserves the
// order of prev, which makes the function idempotent.
func Reconcile(prev, visible []domain.CatalogRow) []domain.CatalogRow {
	if len(prev) == 0 {
		return nil
	}

	fresh := make(map[uuid.UUID]domain.CatalogRow, len(visible))
	for _, row := range visible {
		if _, ok := fresh[row.ID]; !ok {
			fresh[row.ID] = row
		}
	}

	seen := make(map[uuid.UUID]struct{}, len(prev))
	out := make([]domain.CatalogRow, 0, len(prev))
	for _, row := range prev {
		if _, dup := seen[row.ID]; dup {
			continue
		}
		seen[row.ID] = struct{}{}
		if updated, ok := fresh[row.ID]; ok {
			out = append(out, updated)
		} else {
			out = append(out, row)
		}
	}
	return out
}

// Add unions a newly checked batch of rows into the selection,
// deduplicating by ID. Rows already selected keep their existing copy.
func Add(prev, chosen []domain.CatalogRow) []domain.CatalogRow {
	seen := make(map[uuid.UUID]struct{}, len(prev)+len(chosen))
	out := make([]domain.CatalogRow, 0, len(prev)+len(chosen))
	for _, row := range prev {
		if _, dup := seen[row.ID]; dup {
			continue
		}
		seen[row.ID] = struct{}{}
		out = append(out, row)
	}
	for _, row := range chosen {
		if _, dup := seen[row.ID]; dup {
			continue
		}
		seen[row.ID] = struct{}{}
		out = append(out, row)
	}
	return out
}

// Remove drops the rows with the given IDs from the selection. Unknown
// IDs are ignored.
func Remove(prev []domain.CatalogRow, ids []uuid.UUID) []domain.CatalogRow {
	if len(ids) == 0 {
		return prev
	}
	drop := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	out := make([]domain.CatalogRow, 0, len(prev))
	for _, row := range prev {
		if _, gone := drop[row.ID]; gone {
			continue
		}
		out = append(out, row)
	}
	return out
}

// FilterRows returns the rows passing both category filters. An empty
// filter value matches every row.
func FilterRows(rows []domain.CatalogRow, category1, category2 string) []domain.CatalogRow {
	out := make([]domain.CatalogRow, 0, len(rows))
	for _, row := range rows {
		if category1 != "" && row.Category1 != category1 {
			continue
		}
		if category2 != "" && row.Category2 != category2 {
			continue
		}
		out = append(out, row)
	}
	return out
}
