package session

import (
	"context"

	"line-item-staging/internal/catalog"
	"line-item-staging/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Container owns one staging session end to end: the parent record
// identity, the selection screen, and the edit screen. Screen hand-offs
// go through typed handles held here, never through lookup of a
// rendered sibling.
type Container struct {
	ID         uuid.UUID
	ParentKind domain.ParentKind
	ParentID   uuid.UUID

	Selection *SelectionScreen
	Edit      *EditScreen

	log *zap.Logger
}

// Snapshot is the externally visible view of a session.
type Snapshot struct {
	ID            uuid.UUID         `json:"id"`
	ParentKind    domain.ParentKind `json:"parent_kind"`
	ParentID      uuid.UUID         `json:"parent_id"`
	State         ScreenState       `json:"state"`
	ProductCount  int               `json:"product_count"`
	SelectedCount int               `json:"selected_count"`
	StagedCount   int               `json:"staged_count"`
}

// NewContainer assembles a session: both screens wired with explicit
// handles, the container subscribed as a grid listener.
func NewContainer(cfg catalog.ParentConfig, parentID uuid.UUID, source catalog.Source, creator LineItemCreator, publisher UpdatePublisher, notifier Notifier, log *zap.Logger) *Container {
	c := &Container{
		ID:         uuid.New(),
		ParentKind: cfg.Kind,
		ParentID:   parentID,
		log:        log,
	}
	c.Selection = NewSelectionScreen(source, notifier, log, parentID)
	c.Edit = NewEditScreen(creator, notifier, publisher, log, cfg, parentID)
	c.Edit.SetSibling(c.Selection)
	c.Selection.Subscribe(c)
	return c
}

// OnGridUpdated implements GridListener.
func (c *Container) OnGridUpdated(rows []domain.CatalogRow) {
	c.log.Debug("grid updated",
		zap.String("session_id", c.ID.String()),
		zap.Int("rows", len(rows)),
	)
}

// Load populates the selection screen from the catalog source.
func (c *Container) Load(ctx context.Context) error {
	return c.Selection.Load(ctx)
}

// Next moves the selection into the edit stage.
func (c *Container) Next() error {
	staged, err := c.Selection.Next()
	if err != nil {
		return err
	}
	c.Edit.SetStaged(staged)
	return nil
}

// Save persists the staged rows and, on success, reopens the selection
// screen for another round.
func (c *Container) Save(ctx context.Context) error {
	if err := c.Edit.Save(ctx); err != nil {
		return err
	}
	c.Selection.Reopen()
	return nil
}

// Snapshot reports the session's current state.
func (c *Container) Snapshot() Snapshot {
	return Snapshot{
		ID:            c.ID,
		ParentKind:    c.ParentKind,
		ParentID:      c.ParentID,
		State:         c.Selection.State(),
		ProductCount:  c.Selection.GridSize(),
		SelectedCount: len(c.Selection.Selected()),
		StagedCount:   len(c.Edit.Staged()),
	}
}
