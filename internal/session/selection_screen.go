// Package session holds the stateful controllers behind the two-screen
// staging flow: a selection screen over the product catalog and an edit
// screen over the staged rows, owned together by a Container.
package session

import (
	"context"
	"errors"
	"sync"

	"line-item-staging/internal/catalog"
	"line-item-staging/internal/domain"
	"line-item-staging/internal/selection"
	"line-item-staging/internal/staging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScreenState tracks where the selection screen is in its lifecycle.
type ScreenState string

const (
	StateLoading   ScreenState = "loading"
	StateReady     ScreenState = "ready"
	StateHandedOff ScreenState = "handed_off"
)

// ErrNoSelection is returned by Next when nothing is selected.
var ErrNoSelection = errors.New("no rows selected")

// GridListener receives the full catalog row set whenever a load or
// refresh replaces it. This is the explicit subscription that replaces
// implicit reactivity: the screen never reaches into its host.
type GridListener interface {
	OnGridUpdated(rows []domain.CatalogRow)
}

// SelectionScreen owns the catalog rows, the category filters, and the
// reconciled selection for one session.
type SelectionScreen struct {
	source   catalog.Source
	notifier Notifier
	log      *zap.Logger
	parentID uuid.UUID

	mu        sync.Mutex
	state     ScreenState
	gen       uint64
	deps      catalog.Dependencies
	gridData  []domain.CatalogRow
	facets    domain.CategoryFacets
	filter1   string
	filter2   string
	selected  []domain.CatalogRow
	listeners []GridListener
}

// NewSelectionScreen creates a selection screen for a parent record.
// Call Load before using it.
func NewSelectionScreen(source catalog.Source, notifier Notifier, log *zap.Logger, parentID uuid.UUID) *SelectionScreen {
	return &SelectionScreen{
		source:   source,
		notifier: notifier,
		log:      log,
		parentID: parentID,
		state:    StateLoading,
	}
}

// Subscribe registers a listener for grid replacements.
func (s *SelectionScreen) Subscribe(l GridListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Load fetches dependencies, catalog rows, and facets in that order.
// Dependencies must resolve before the catalog fetch is issued. A
// retrieval failure leaves the screen Ready with empty data and a
// visible notice rather than stuck. A load superseded by a newer one
// discards its results: each load bumps a generation counter and only
// the owner of the current generation may install data.
func (s *SelectionScreen) Load(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateLoading
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	deps, err := s.source.FetchDependencies(ctx, s.parentID)
	if err != nil {
		return s.failLoad(gen, "Failed to resolve the record's price book.", err)
	}

	rows, err := s.source.FetchCatalog(ctx, s.parentID)
	if err != nil {
		return s.failLoad(gen, "Failed to load the product list.", err)
	}

	facets, facetsErr := s.source.FetchFacets(ctx)
	if facetsErr != nil {
		// The grid is still usable without filter options, so this is a
		// warning notice rather than a failed load.
		s.log.Warn("category facet load failed", zap.Error(facetsErr))
		s.notifier.Warning("Warning", "Failed to load category filters.")
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.log.Debug("discarding stale catalog load", zap.Uint64("gen", gen))
		return nil
	}
	s.deps = deps
	s.gridData = rows
	if facetsErr == nil {
		s.facets = facets
	}
	s.selected = selection.Reconcile(s.selected, s.visibleLocked())
	s.state = StateReady
	listeners := append([]GridListener{}, s.listeners...)
	snapshot := append([]domain.CatalogRow{}, rows...)
	s.mu.Unlock()

	for _, l := range listeners {
		l.OnGridUpdated(snapshot)
	}
	return nil
}

func (s *SelectionScreen) failLoad(gen uint64, message string, err error) error {
	s.log.Error("catalog load failed", zap.String("parent_id", s.parentID.String()), zap.Error(err))
	s.notifier.Error("Error", message)

	s.mu.Lock()
	if gen == s.gen {
		s.state = StateReady
	}
	s.mu.Unlock()
	return err
}

// Refresh re-fetches the source data, keeping the current selection
// reconciled against the fresh rows.
func (s *SelectionScreen) Refresh(ctx context.Context) error {
	return s.Load(ctx)
}

// SetFilters applies the category filters and re-reconciles the
// selection against the newly visible subset.
func (s *SelectionScreen) SetFilters(category1, category2 string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter1 = category1
	s.filter2 = category2
	s.selected = selection.Reconcile(s.selected, s.visibleLocked())
}

// ClearFilters resets both filters and re-reconciles against the full set.
func (s *SelectionScreen) ClearFilters() {
	s.SetFilters("", "")
}

// Select adds the rows with the given IDs to the selection. IDs that do
// not match a loaded catalog row are ignored.
func (s *SelectionScreen) Select(ids []uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[uuid.UUID]domain.CatalogRow, len(s.gridData))
	for _, row := range s.gridData {
		byID[row.ID] = row
	}
	chosen := make([]domain.CatalogRow, 0, len(ids))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			chosen = append(chosen, row)
		}
	}

	s.selected = selection.Add(s.selected, chosen)
	s.selected = selection.Reconcile(s.selected, s.visibleLocked())
}

// Deselect removes the rows with the given IDs from the selection.
func (s *SelectionScreen) Deselect(ids []uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = selection.Remove(s.selected, ids)
}

// Visible returns the rows passing the current filters.
func (s *SelectionScreen) Visible() []domain.CatalogRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibleLocked()
}

func (s *SelectionScreen) visibleLocked() []domain.CatalogRow {
	return selection.FilterRows(s.gridData, s.filter1, s.filter2)
}

// Selected returns a copy of the current selection.
func (s *SelectionScreen) Selected() []domain.CatalogRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CatalogRow{}, s.selected...)
}

// Facets returns the category filter options.
func (s *SelectionScreen) Facets() domain.CategoryFacets {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.facets
}

// Filters returns the active filter values.
func (s *SelectionScreen) Filters() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter1, s.filter2
}

// State returns the screen's lifecycle state.
func (s *SelectionScreen) State() ScreenState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// GridSize returns the number of loaded catalog rows.
func (s *SelectionScreen) GridSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.gridData)
}

// Next hands the selection off to the edit stage. An empty selection
// reports a warning and stays in place.
func (s *SelectionScreen) Next() ([]domain.StagedRow, error) {
	s.mu.Lock()
	if len(s.selected) == 0 {
		s.mu.Unlock()
		s.notifier.Warning("Warning", "Select at least one product.")
		return nil, ErrNoSelection
	}
	staged := staging.Stage(s.selected)
	s.state = StateHandedOff
	s.mu.Unlock()
	return staged, nil
}

// Reopen returns the screen to Ready after a completed save so another
// round of selection can start.
func (s *SelectionScreen) Reopen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateHandedOff {
		s.state = StateReady
	}
}
