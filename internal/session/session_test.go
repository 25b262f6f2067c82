package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"line-item-staging/internal/catalog"
	"line-item-staging/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockSource serves canned catalog data; an optional gate blocks the
// first catalog fetch until released, to simulate a slow response.
type mockSource struct {
	mu         sync.Mutex
	deps       catalog.Dependencies
	rows       []domain.CatalogRow
	facets     domain.CategoryFacets
	depsErr    error
	catalogErr error
	facetsErr  error

	catalogCalls int
	gate         chan struct{} // first catalog fetch waits here when set
	entered      chan struct{} // closed once the gated fetch has started
	gatedRows    []domain.CatalogRow
}

func (m *mockSource) FetchDependencies(ctx context.Context, parentID uuid.UUID) (catalog.Dependencies, error) {
	if m.depsErr != nil {
		return catalog.Dependencies{}, m.depsErr
	}
	return m.deps, nil
}

func (m *mockSource) FetchCatalog(ctx context.Context, parentID uuid.UUID) ([]domain.CatalogRow, error) {
	m.mu.Lock()
	m.catalogCalls++
	call := m.catalogCalls
	m.mu.Unlock()

	if m.catalogErr != nil {
		return nil, m.catalogErr
	}
	if call == 1 && m.gate != nil {
		close(m.entered)
		<-m.gate
		return m.gatedRows, nil
	}
	return m.rows, nil
}

func (m *mockSource) FetchFacets(ctx context.Context) (domain.CategoryFacets, error) {
	if m.facetsErr != nil {
		return domain.CategoryFacets{}, m.facetsErr
	}
	return m.facets, nil
}

type mockCreator struct {
	mu      sync.Mutex
	err     error
	batches [][]*domain.LineItem
}

func (m *mockCreator) CreateBatch(ctx context.Context, items []*domain.LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.batches = append(m.batches, items)
	return nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	warnings []string
	errors   []string
	success  []string
}

func (n *recordingNotifier) Success(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.success = append(n.success, message)
}

func (n *recordingNotifier) Warning(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.warnings = append(n.warnings, message)
}

func (n *recordingNotifier) Error(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

type mockPublisher struct {
	mu      sync.Mutex
	parents []uuid.UUID
}

func (p *mockPublisher) ListUpdated(ctx context.Context, parentID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.parents = append(p.parents, parentID)
}

func catalogRows(categories ...string) []domain.CatalogRow {
	rows := make([]domain.CatalogRow, len(categories))
	for i, cat := range categories {
		rows[i] = domain.CatalogRow{
			ID:        uuid.New(),
			ProductID: uuid.New(),
			Name:      "Product",
			UnitPrice: 100,
			Category1: cat,
		}
	}
	return rows
}

func newTestContainer(t *testing.T, source catalog.Source, creator LineItemCreator, publisher UpdatePublisher, notifier Notifier) *Container {
	t.Helper()
	cfg, err := catalog.ConfigFor(domain.ParentOpportunity)
	require.NoError(t, err)
	return NewContainer(cfg, uuid.New(), source, creator, publisher, notifier, zap.NewNop())
}

func TestLoad_PopulatesGridAndFacets(t *testing.T) {
	rows := catalogRows("A", "B")
	source := &mockSource{
		deps:   catalog.Dependencies{PricebookID: uuid.New()},
		rows:   rows,
		facets: domain.CategoryFacets{Category1: []string{"A", "B"}, Category2: []string{}},
	}
	notifier := &recordingNotifier{}
	c := newTestContainer(t, source, &mockCreator{}, nil, notifier)

	require.NoError(t, c.Load(context.Background()))

	assert.Equal(t, StateReady, c.Selection.State())
	assert.Len(t, c.Selection.Visible(), 2)
	assert.Equal(t, []string{"A", "B"}, c.Selection.Facets().Category1)
	assert.Empty(t, notifier.errors)
}

func TestLoad_RetrievalFailureLeavesScreenUsable(t *testing.T) {
	source := &mockSource{catalogErr: &catalog.RetrievalError{Op: "fetch catalog", Err: errors.New("boom")}}
	source.deps = catalog.Dependencies{PricebookID: uuid.New()}
	notifier := &recordingNotifier{}
	c := newTestContainer(t, source, &mockCreator{}, nil, notifier)

	err := c.Load(context.Background())
	require.Error(t, err)

	assert.Equal(t, StateReady, c.Selection.State(), "screen stays usable with empty data")
	assert.Empty(t, c.Selection.Visible())
	assert.NotEmpty(t, notifier.errors, "retrieval failure must surface a notice")
}

func TestLoad_FacetFailureKeepsGrid(t *testing.T) {
	source := &mockSource{
		deps:      catalog.Dependencies{PricebookID: uuid.New()},
		rows:      catalogRows("A"),
		facetsErr: &catalog.RetrievalError{Op: "fetch facets", Err: errors.New("boom")},
	}
	notifier := &recordingNotifier{}
	c := newTestContainer(t, source, &mockCreator{}, nil, notifier)

	require.NoError(t, c.Load(context.Background()))
	assert.Len(t, c.Selection.Visible(), 1)
	assert.Equal(t, StateReady, c.Selection.State())
	assert.NotEmpty(t, notifier.warnings, "facet failure must surface a warning notice")
	assert.Empty(t, notifier.errors, "facet failure must not read as a failed load")
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	freshRows := catalogRows("B")
	source := &mockSource{
		deps:      catalog.Dependencies{PricebookID: uuid.New()},
		rows:      freshRows,
		gate:      make(chan struct{}),
		entered:   make(chan struct{}),
		gatedRows: catalogRows("A"),
	}
	c := newTestContainer(t, source, &mockCreator{}, nil, &recordingNotifier{})

	done := make(chan error, 1)
	go func() { done <- c.Load(context.Background()) }()
	<-source.entered // slow first load is in flight

	// A superseding reload completes while the first is still blocked.
	require.NoError(t, c.Load(context.Background()))

	close(source.gate)
	require.NoError(t, <-done)

	visible := c.Selection.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, freshRows[0].ID, visible[0].ID, "slow stale response must not overwrite the newer load")
}

func TestNext_EmptySelectionWarnsAndStays(t *testing.T) {
	source := &mockSource{deps: catalog.Dependencies{PricebookID: uuid.New()}, rows: catalogRows("A")}
	notifier := &recordingNotifier{}
	c := newTestContainer(t, source, &mockCreator{}, nil, notifier)
	require.NoError(t, c.Load(context.Background()))

	err := c.Next()
	assert.ErrorIs(t, err, ErrNoSelection)
	assert.Equal(t, StateReady, c.Selection.State(), "no transition on validation failure")
	assert.NotEmpty(t, notifier.warnings)
}

func TestEndToEnd_SelectFilterNextEditSave(t *testing.T) {
	rows := catalogRows("A", "B")
	source := &mockSource{
		deps:   catalog.Dependencies{PricebookID: uuid.New()},
		rows:   rows,
		facets: domain.CategoryFacets{Category1: []string{"A", "B"}, Category2: []string{}},
	}
	creator := &mockCreator{}
	publisher := &mockPublisher{}
	notifier := &recordingNotifier{}
	c := newTestContainer(t, source, creator, publisher, notifier)
	require.NoError(t, c.Load(context.Background()))

	// Select row 1 from the unfiltered grid.
	c.Selection.Select([]uuid.UUID{rows[0].ID})

	// Filter to category B: row 1 disappears from view but stays selected.
	c.Selection.SetFilters("B", "")
	require.Len(t, c.Selection.Visible(), 1)
	selected := c.Selection.Selected()
	require.Len(t, selected, 1)
	assert.Equal(t, rows[0].ID, selected[0].ID)

	// Clear the filter and hand off; exactly row 1 moves forward.
	c.Selection.ClearFilters()
	require.NoError(t, c.Next())
	staged := c.Edit.Staged()
	require.Len(t, staged, 1)
	assert.Equal(t, rows[0].ID, staged[0].ID)
	assert.Equal(t, StateHandedOff, c.Selection.State())

	// Inline edits: quantity becomes numeric, garbage coerces to 0.
	c.Edit.ApplyEdits([]domain.PartialEdit{{
		RowID:  staged[0].ID,
		Fields: map[string]any{"quantity": "3", "discount": "abc"},
	}})
	staged = c.Edit.Staged()
	require.NotNil(t, staged[0].Quantity)
	assert.Equal(t, 3.0, *staged[0].Quantity)
	require.NotNil(t, staged[0].Discount)
	assert.Equal(t, 0.0, *staged[0].Discount)

	// Save creates one line item and clears the stage.
	require.NoError(t, c.Save(context.Background()))
	require.Len(t, creator.batches, 1)
	require.Len(t, creator.batches[0], 1)
	item := creator.batches[0][0]
	assert.Equal(t, 3.0, item.Quantity)
	assert.Nil(t, item.Discount, "zero discount saves as NULL")
	assert.Equal(t, "Opportunity Product Product", item.Name)

	assert.Empty(t, c.Edit.Staged())
	assert.Equal(t, []uuid.UUID{c.ParentID}, publisher.parents, "update hint fires after save")
	assert.Equal(t, StateReady, c.Selection.State(), "selection reopens after save")
	assert.NotEmpty(t, notifier.success)
}

func TestSave_NeverEditedQuantityDefaultsToOne(t *testing.T) {
	rows := catalogRows("A")
	source := &mockSource{deps: catalog.Dependencies{PricebookID: uuid.New()}, rows: rows}
	creator := &mockCreator{}
	c := newTestContainer(t, source, creator, nil, &recordingNotifier{})
	require.NoError(t, c.Load(context.Background()))

	c.Selection.Select([]uuid.UUID{rows[0].ID})
	require.NoError(t, c.Next())
	require.NoError(t, c.Save(context.Background()))

	require.Len(t, creator.batches, 1)
	assert.Equal(t, 1.0, creator.batches[0][0].Quantity)
}

func TestSave_EmptyStageWarnsWithoutCreateCall(t *testing.T) {
	creator := &mockCreator{}
	notifier := &recordingNotifier{}
	c := newTestContainer(t, &mockSource{}, creator, nil, notifier)

	err := c.Save(context.Background())
	assert.ErrorIs(t, err, ErrNothingStaged)
	assert.Empty(t, creator.batches, "create boundary must not be reached")
	assert.NotEmpty(t, notifier.warnings)
}

func TestSave_FailureKeepsStagedRowsForRetry(t *testing.T) {
	rows := catalogRows("A", "B")
	source := &mockSource{deps: catalog.Dependencies{PricebookID: uuid.New()}, rows: rows}
	creator := &mockCreator{err: errors.New("db down")}
	notifier := &recordingNotifier{}
	c := newTestContainer(t, source, creator, nil, notifier)
	require.NoError(t, c.Load(context.Background()))

	c.Selection.Select([]uuid.UUID{rows[0].ID, rows[1].ID})
	require.NoError(t, c.Next())
	before := c.Edit.Staged()

	err := c.Save(context.Background())
	var creationErr *catalog.CreationError
	require.ErrorAs(t, err, &creationErr)
	assert.Equal(t, before, c.Edit.Staged(), "staged rows untouched after failed create")
	assert.NotEmpty(t, notifier.errors)

	// A second save with unchanged data succeeds once the boundary recovers.
	creator.mu.Lock()
	creator.err = nil
	creator.mu.Unlock()
	require.NoError(t, c.Save(context.Background()))
	require.Len(t, creator.batches, 1)
	assert.Len(t, creator.batches[0], 2)
}

func TestDeleteRow_RemovesAndNotifies(t *testing.T) {
	rows := catalogRows("A", "B")
	source := &mockSource{deps: catalog.Dependencies{PricebookID: uuid.New()}, rows: rows}
	notifier := &recordingNotifier{}
	c := newTestContainer(t, source, &mockCreator{}, nil, notifier)
	require.NoError(t, c.Load(context.Background()))

	c.Selection.Select([]uuid.UUID{rows[0].ID, rows[1].ID})
	require.NoError(t, c.Next())

	assert.True(t, c.Edit.DeleteRow(rows[0].ID))
	assert.Len(t, c.Edit.Staged(), 1)
	assert.NotEmpty(t, notifier.success)

	assert.False(t, c.Edit.DeleteRow(uuid.New()), "absent row is a quiet no-op")
	assert.Len(t, c.Edit.Staged(), 1)
}

func TestRefresh_ReattachesFreshRowDataToSelection(t *testing.T) {
	original := catalogRows("A")
	source := &mockSource{deps: catalog.Dependencies{PricebookID: uuid.New()}, rows: original}
	c := newTestContainer(t, source, &mockCreator{}, nil, &recordingNotifier{})
	require.NoError(t, c.Load(context.Background()))

	c.Selection.Select([]uuid.UUID{original[0].ID})

	// The source now serves the same row with a new price.
	updated := original[0]
	updated.UnitPrice = 250
	source.mu.Lock()
	source.rows = []domain.CatalogRow{updated}
	source.mu.Unlock()

	require.NoError(t, c.Selection.Refresh(context.Background()))

	selected := c.Selection.Selected()
	require.Len(t, selected, 1)
	assert.Equal(t, 250.0, selected[0].UnitPrice, "selection must carry refreshed field values")
}

func TestStore(t *testing.T) {
	store := NewStore()
	c := newTestContainer(t, &mockSource{}, &mockCreator{}, nil, &recordingNotifier{})

	store.Put(c)
	got, err := store.Get(c.ID)
	require.NoError(t, err)
	assert.Same(t, c, got)
	assert.Equal(t, 1, store.Len())

	_, err = store.Get(uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)

	store.Delete(c.ID)
	assert.Equal(t, 0, store.Len())
}
