// Package staging implements the edit-grid half of the flow: merging
// inline draft edits into the staged row set and mapping staged rows to
// line-item creation payloads at save time.
package staging

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"line-item-staging/internal/domain"

	"github.com/google/uuid"
)

// Stage copies a reconciled selection into a fresh staged collection.
// Quantity and Discount start unset; they only get values through edits.
func Stage(rows []domain.CatalogRow) []domain.StagedRow {
	staged := make([]domain.StagedRow, len(rows))
	for i, row := range rows {
		staged[i] = domain.StagedRow{CatalogRow: row}
	}
	return staged
}

// MergeDrafts applies a batch of partial cell edits onto the staged
// collection and returns a new slice; the input is not mutated. Edits
// whose row ID matches nothing staged are dropped silently. Numeric
// fields coerce nil, blank, or unparseable input to 0; string fields
// are assigned verbatim.
func MergeDrafts(staged []domain.StagedRow, edits []domain.PartialEdit) []domain.StagedRow {
	out := make([]domain.StagedRow, len(staged))
	copy(out, staged)

	for _, edit := range edits {
		idx := -1
		for i := range out {
			if out[i].ID == edit.RowID {
				idx = i
				break
			}
		}
		if idx < 0 {
			continue
		}

		row := out[idx]
		for field, raw := range edit.Fields {
			switch field {
			case "quantity":
				v := coerceNumber(raw)
				row.Quantity = &v
			case "discount":
				v := coerceNumber(raw)
				row.Discount = &v
			case "cost_price":
				row.CostPrice = coerceNumber(raw)
			case "unit_price":
				row.UnitPrice = coerceNumber(raw)
			case "name":
				if s, ok := raw.(string); ok {
					row.Name = s
				}
			case "product_code":
				if s, ok := raw.(string); ok {
					row.ProductCode = s
				}
			}
		}
		out[idx] = row
	}
	return out
}

// DeleteRow removes the staged row with the given ID. The second return
// value reports whether anything was removed; a missing ID is a no-op,
// not an error.
func DeleteRow(staged []domain.StagedRow, id uuid.UUID) ([]domain.StagedRow, bool) {
	out := make([]domain.StagedRow, 0, len(staged))
	removed := false
	for _, row := range staged {
		if row.ID == id {
			removed = true
			continue
		}
		out = append(out, row)
	}
	return out, removed
}

// BuildRequests maps every staged row to a line-item creation payload.
// A never-edited quantity defaults to 1; an edited quantity is sent as
// is, including 0. Discount saves as NULL when unset or zero — the zero
// case mirrors the falsy check the edit grids have always applied, even
// though inline edits coerce blank discounts to 0 rather than clearing
// them.
func BuildRequests(kind domain.ParentKind, namePrefix string, parentID uuid.UUID, staged []domain.StagedRow) []*domain.LineItem {
	now := time.Now()
	items := make([]*domain.LineItem, len(staged))
	for i, row := range staged {
		quantity := 1.0
		if row.Quantity != nil {
			quantity = *row.Quantity
		}
		var discount *float64
		if row.Discount != nil && *row.Discount != 0 {
			d := *row.Discount
			discount = &d
		}
		items[i] = &domain.LineItem{
			ID:         uuid.New(),
			ParentKind: kind,
			ParentID:   parentID,
			ProductID:  row.ProductID,
			Name:       namePrefix + row.Name,
			Quantity:   quantity,
			CostPrice:  row.CostPrice,
			UnitPrice:  row.UnitPrice,
			Discount:   discount,
			CreatedAt:  now,
		}
	}
	return items
}

// coerceNumber turns a raw cell value into a float64, falling back to 0
// for anything that is not a parseable finite number. NaN and the
// infinities count as non-numeric input even though ParseFloat accepts
// their spellings.
func coerceNumber(raw any) float64 {
	switch v := raw.(type) {
	case nil:
		return 0
	case float64:
		return finiteOrZero(v)
	case float32:
		return finiteOrZero(float64(v))
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return finiteOrZero(f)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return finiteOrZero(f)
	default:
		return 0
	}
}

func finiteOrZero(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
