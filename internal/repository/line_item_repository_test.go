package repository

import (
	"context"
	"testing"
	"time"

	"line-item-staging/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func countLineItems(t *testing.T, parentID uuid.UUID) int {
	t.Helper()
	var n int
	err := testDB.QueryRow(`SELECT COUNT(*) FROM line_items WHERE parent_id = $1`, parentID).Scan(&n)
	require.NoError(t, err)
	return n
}

func lineItem(parentID, productID uuid.UUID, quantity float64, discount *float64) *domain.LineItem {
	return &domain.LineItem{
		ID:         uuid.New(),
		ParentKind: domain.ParentOpportunity,
		ParentID:   parentID,
		ProductID:  productID,
		Name:       "Opportunity Product Test",
		Quantity:   quantity,
		CostPrice:  50,
		UnitPrice:  100,
		Discount:   discount,
		CreatedAt:  time.Now(),
	}
}

func TestLineItemRepository_CreateBatch(t *testing.T) {
	repo := NewLineItemRepository(testDB)
	ctx := context.Background()

	parentID := uuid.New()
	productID := insertProduct(t, "Batch Product")

	discount := 12.5
	items := []*domain.LineItem{
		lineItem(parentID, productID, 3, &discount),
		lineItem(parentID, productID, 1, nil),
	}

	require.NoError(t, repo.CreateBatch(ctx, items))
	require.Equal(t, 2, countLineItems(t, parentID))

	// NULL discount and a set discount round-trip distinctly.
	var stored []struct {
		quantity float64
		discount *float64
	}
	rows, err := testDB.Query(`SELECT quantity, discount FROM line_items WHERE parent_id = $1 ORDER BY quantity`, parentID)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var s struct {
			quantity float64
			discount *float64
		}
		require.NoError(t, rows.Scan(&s.quantity, &s.discount))
		stored = append(stored, s)
	}
	require.NoError(t, rows.Err())
	require.Len(t, stored, 2)
	require.Nil(t, stored[0].discount)
	require.NotNil(t, stored[1].discount)
	require.Equal(t, 12.5, *stored[1].discount)
}

func TestLineItemRepository_CreateBatchIsAtomic(t *testing.T) {
	repo := NewLineItemRepository(testDB)
	ctx := context.Background()

	parentID := uuid.New()
	productID := insertProduct(t, "Atomic Product")

	items := []*domain.LineItem{
		lineItem(parentID, productID, 1, nil),
		// Unknown product violates the foreign key and must roll back
		// the whole batch.
		lineItem(parentID, uuid.New(), 2, nil),
	}

	require.Error(t, repo.CreateBatch(ctx, items))
	require.Equal(t, 0, countLineItems(t, parentID))
}

func TestLineItemRepository_EmptyBatchIsNoop(t *testing.T) {
	repo := NewLineItemRepository(testDB)
	require.NoError(t, repo.CreateBatch(context.Background(), nil))
}

// Feature: line-item-staging, Property: batch creation preserves attributes
func TestProperty_CreateBatchPreservesAttributes(t *testing.T) {
	repo := NewLineItemRepository(testDB)
	ctx := context.Background()
	productID := insertProduct(t, "Property Product")

	properties := gopter.NewProperties(nil)

	properties.Property("created line items round-trip quantity and prices", prop.ForAll(
		func(quantity float64, unitPrice float64) bool {
			parentID := uuid.New()
			item := lineItem(parentID, productID, quantity, nil)
			item.UnitPrice = unitPrice

			if err := repo.CreateBatch(ctx, []*domain.LineItem{item}); err != nil {
				t.Logf("FAIL: create: %v", err)
				return false
			}

			var gotQuantity, gotUnitPrice float64
			err := testDB.QueryRow(
				`SELECT quantity, unit_price FROM line_items WHERE id = $1`,
				item.ID,
			).Scan(&gotQuantity, &gotUnitPrice)
			if err != nil {
				t.Logf("FAIL: fetch: %v", err)
				return false
			}

			// Columns are DECIMAL(10, 2), so compare at that precision.
			return gotQuantity > quantity-0.01 && gotQuantity < quantity+0.01 &&
				gotUnitPrice > unitPrice-0.01 && gotUnitPrice < unitPrice+0.01
		},
		gen.Float64Range(0, 9999),
		gen.Float64Range(0, 9999),
	))

	properties.TestingRun(t)
}
