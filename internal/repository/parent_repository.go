package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrOpportunityNotFound = errors.New("opportunity not found")
	ErrQuoteNotFound       = errors.New("quote not found")
	ErrPricebookNotFound   = errors.New("pricebook not found")
)

// ParentRepository resolves the dependency hops between parent records:
// an opportunity owns a price book directly, a quote reaches it through
// its opportunity.
type ParentRepository interface {
	OpportunityPricebook(ctx context.Context, opportunityID uuid.UUID) (uuid.UUID, error)
	QuoteDependencies(ctx context.Context, quoteID uuid.UUID) (opportunityID, pricebookID uuid.UUID, err error)
	PricebookExists(ctx context.Context, pricebookID uuid.UUID) error
}

type parentRepository struct {
	db *sql.DB
}

// NewParentRepository creates a new instance of ParentRepository
func NewParentRepository(db *sql.DB) ParentRepository {
	return &parentRepository{db: db}
}

// OpportunityPricebook retrieves the price book an opportunity sells from
func (r *parentRepository) OpportunityPricebook(ctx context.Context, opportunityID uuid.UUID) (uuid.UUID, error) {
	query := `SELECT pricebook_id FROM opportunities WHERE id = $1`

	var pricebookID uuid.UUID
	err := r.db.QueryRowContext(ctx, query, opportunityID).Scan(&pricebookID)
	if err != nil {
		if err == sql.ErrNoRows {
			return uuid.Nil, ErrOpportunityNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to find opportunity pricebook: %w", err)
	}

	return pricebookID, nil
}

// QuoteDependencies resolves quote -> opportunity -> pricebook in one query
func (r *parentRepository) QuoteDependencies(ctx context.Context, quoteID uuid.UUID) (uuid.UUID, uuid.UUID, error) {
	query := `
		SELECT o.id, o.pricebook_id
		FROM quotes q
		JOIN opportunities o ON o.id = q.opportunity_id
		WHERE q.id = $1
	`

	var opportunityID, pricebookID uuid.UUID
	err := r.db.QueryRowContext(ctx, query, quoteID).Scan(&opportunityID, &pricebookID)
	if err != nil {
		if err == sql.ErrNoRows {
			return uuid.Nil, uuid.Nil, ErrQuoteNotFound
		}
		return uuid.Nil, uuid.Nil, fmt.Errorf("failed to resolve quote dependencies: %w", err)
	}

	return opportunityID, pricebookID, nil
}

// PricebookExists verifies a price book record exists
func (r *parentRepository) PricebookExists(ctx context.Context, pricebookID uuid.UUID) error {
	query := `SELECT 1 FROM pricebooks WHERE id = $1`

	var one int
	err := r.db.QueryRowContext(ctx, query, pricebookID).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrPricebookNotFound
		}
		return fmt.Errorf("failed to check pricebook: %w", err)
	}

	return nil
}
