// Package catalog is the boundary between the staging flow and the
// price-book data. It normalizes the heterogeneous entry shapes into
// one catalog row schema; nothing past this boundary deals with raw
// entry records.
package catalog

import (
	"context"
	"fmt"

	"line-item-staging/internal/domain"
	"line-item-staging/internal/repository"

	"github.com/google/uuid"
)

// Dependencies are the records one hop removed from the editing
// context: a quote reaches its price book through an opportunity.
type Dependencies struct {
	OpportunityID uuid.UUID
	PricebookID   uuid.UUID
}

// Source is the catalog capability a selection screen depends on. One
// implementation exists per parent kind; screens are composed with a
// Source instead of specializing by inheritance.
type Source interface {
	FetchDependencies(ctx context.Context, parentID uuid.UUID) (Dependencies, error)
	FetchCatalog(ctx context.Context, parentID uuid.UUID) ([]domain.CatalogRow, error)
	FetchFacets(ctx context.Context) (domain.CategoryFacets, error)
}

// ParentConfig carries the per-kind differences: the display prefix
// stamped on created line-item names and how dependencies resolve.
type ParentConfig struct {
	Kind       domain.ParentKind
	NamePrefix string
}

// ConfigFor returns the parent configuration for a kind.
func ConfigFor(kind domain.ParentKind) (ParentConfig, error) {
	switch kind {
	case domain.ParentOpportunity:
		return ParentConfig{Kind: kind, NamePrefix: "Opportunity Product "}, nil
	case domain.ParentQuote:
		return ParentConfig{Kind: kind, NamePrefix: "Quote Line "}, nil
	case domain.ParentPricebookEntry:
		return ParentConfig{Kind: kind, NamePrefix: "Pricebook Product "}, nil
	default:
		return ParentConfig{}, fmt.Errorf("unsupported parent kind %q", kind)
	}
}

// resolver maps a parent record to its dependency set.
type resolver func(ctx context.Context, parentID uuid.UUID) (Dependencies, error)

type repoSource struct {
	entries    repository.EntryRepository
	categories repository.CategoryRepository
	resolve    resolver
}

// NewOpportunitySource builds a Source for sessions parented on an
// opportunity, which owns its price book directly.
func NewOpportunitySource(parents repository.ParentRepository, entries repository.EntryRepository, categories repository.CategoryRepository) Source {
	return &repoSource{
		entries:    entries,
		categories: categories,
		resolve: func(ctx context.Context, parentID uuid.UUID) (Dependencies, error) {
			pricebookID, err := parents.OpportunityPricebook(ctx, parentID)
			if err != nil {
				return Dependencies{}, err
			}
			return Dependencies{OpportunityID: parentID, PricebookID: pricebookID}, nil
		},
	}
}

// NewQuoteSource builds a Source for quote-parented sessions; the price
// book is two hops away, through the quote's opportunity.
func NewQuoteSource(parents repository.ParentRepository, entries repository.EntryRepository, categories repository.CategoryRepository) Source {
	return &repoSource{
		entries:    entries,
		categories: categories,
		resolve: func(ctx context.Context, parentID uuid.UUID) (Dependencies, error) {
			opportunityID, pricebookID, err := parents.QuoteDependencies(ctx, parentID)
			if err != nil {
				return Dependencies{}, err
			}
			return Dependencies{OpportunityID: opportunityID, PricebookID: pricebookID}, nil
		},
	}
}

// NewPricebookSource builds a Source for sessions parented directly on
// a price book.
func NewPricebookSource(parents repository.ParentRepository, entries repository.EntryRepository, categories repository.CategoryRepository) Source {
	return &repoSource{
		entries:    entries,
		categories: categories,
		resolve: func(ctx context.Context, parentID uuid.UUID) (Dependencies, error) {
			if err := parents.PricebookExists(ctx, parentID); err != nil {
				return Dependencies{}, err
			}
			return Dependencies{PricebookID: parentID}, nil
		},
	}
}

func (s *repoSource) FetchDependencies(ctx context.Context, parentID uuid.UUID) (Dependencies, error) {
	deps, err := s.resolve(ctx, parentID)
	if err != nil {
		return Dependencies{}, &RetrievalError{Op: "fetch dependencies", Err: err}
	}
	if deps.PricebookID == uuid.Nil {
		return Dependencies{}, &RetrievalError{Op: "fetch dependencies", Err: fmt.Errorf("no pricebook for parent %s", parentID)}
	}
	return deps, nil
}

func (s *repoSource) FetchCatalog(ctx context.Context, parentID uuid.UUID) ([]domain.CatalogRow, error) {
	deps, err := s.FetchDependencies(ctx, parentID)
	if err != nil {
		return nil, err
	}

	entries, err := s.entries.ListByPricebook(ctx, deps.PricebookID)
	if err != nil {
		return nil, &RetrievalError{Op: "fetch catalog", Err: err}
	}
	if entries == nil {
		// A nil result where a list is expected is reported, never
		// silently treated as an empty catalog.
		return nil, &RetrievalError{Op: "fetch catalog", Err: fmt.Errorf("entry listing returned no result set")}
	}

	return normalizeEntries(entries), nil
}

func (s *repoSource) FetchFacets(ctx context.Context) (domain.CategoryFacets, error) {
	category1, category2, err := s.categories.Facets(ctx)
	if err != nil {
		return domain.CategoryFacets{}, &RetrievalError{Op: "fetch facets", Err: err}
	}
	if category1 == nil || category2 == nil {
		return domain.CategoryFacets{}, &RetrievalError{Op: "fetch facets", Err: fmt.Errorf("facet listing missing a category list")}
	}
	return domain.CategoryFacets{Category1: category1, Category2: category2}, nil
}

// normalizeEntries folds the two entry shapes into one row schema: the
// denormalized name on the entry wins, the joined product name is the
// fallback, and a row with neither gets an empty name.
func normalizeEntries(entries []*repository.EntryRecord) []domain.CatalogRow {
	rows := make([]domain.CatalogRow, len(entries))
	for i, entry := range entries {
		name := ""
		if entry.ProductName.Valid && entry.ProductName.String != "" {
			name = entry.ProductName.String
		} else if entry.JoinedProductName.Valid {
			name = entry.JoinedProductName.String
		}

		rows[i] = domain.CatalogRow{
			ID:          entry.ID,
			ProductID:   entry.ProductID,
			Name:        name,
			ProductCode: entry.ProductCode.String,
			IsActive:    entry.IsActive,
			CostPrice:   entry.CostPrice,
			UnitPrice:   entry.UnitPrice,
			Category1:   entry.Category1.String,
			Category2:   entry.Category2.String,
		}
	}
	return rows
}
