package session

import (
	"context"
	"errors"

	"sync"

	"line-item-staging/internal/catalog"
	"line-item-staging/internal/domain"
	"line-item-staging/internal/staging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNothingStaged is returned by Save when the staged set is empty.
var ErrNothingStaged = errors.New("no staged rows to save")

// LineItemCreator is the bulk-create boundary. The line-item repository
// satisfies it in production.
type LineItemCreator interface {
	CreateBatch(ctx context.Context, items []*domain.LineItem) error
}

// UpdatePublisher is the fire-and-forget hint that a parent's line-item
// list changed. Implementations log their own failures; a missed hint
// never fails a save.
type UpdatePublisher interface {
	ListUpdated(ctx context.Context, parentID uuid.UUID)
}

// Refresher is the explicit handle to the sibling selection screen,
// refreshed best-effort after a successful save.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// EditScreen owns the staged rows from hand-off until a save completes
// or the session is discarded.
type EditScreen struct {
	creator   LineItemCreator
	notifier  Notifier
	publisher UpdatePublisher
	log       *zap.Logger
	cfg       catalog.ParentConfig
	parentID  uuid.UUID

	mu      sync.Mutex
	staged  []domain.StagedRow
	pending []domain.PartialEdit
	sibling Refresher
}

// NewEditScreen creates the edit-stage controller for a session.
func NewEditScreen(creator LineItemCreator, notifier Notifier, publisher UpdatePublisher, log *zap.Logger, cfg catalog.ParentConfig, parentID uuid.UUID) *EditScreen {
	return &EditScreen{
		creator:   creator,
		notifier:  notifier,
		publisher: publisher,
		log:       log,
		cfg:       cfg,
		parentID:  parentID,
	}
}

// SetSibling wires the selection screen this edit screen refreshes
// after a successful save.
func (e *EditScreen) SetSibling(r Refresher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sibling = r
}

// SetStaged replaces the staged collection; called at hand-off.
func (e *EditScreen) SetStaged(rows []domain.StagedRow) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.staged = rows
	e.pending = nil
}

// Staged returns a copy of the staged rows.
func (e *EditScreen) Staged() []domain.StagedRow {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.StagedRow{}, e.staged...)
}

// ApplyEdits merges a batch of inline cell edits into the staged rows
// and clears the pending-edit buffer.
func (e *EditScreen) ApplyEdits(edits []domain.PartialEdit) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = edits
	e.staged = staging.MergeDrafts(e.staged, e.pending)
	e.pending = nil
}

// DeleteRow removes one staged row. Deleting an absent row is a quiet
// no-op; a real removal reports a success notice.
func (e *EditScreen) DeleteRow(id uuid.UUID) bool {
	e.mu.Lock()
	remaining, removed := staging.DeleteRow(e.staged, id)
	e.staged = remaining
	e.mu.Unlock()

	if removed {
		e.notifier.Success("Success", "Product removed.")
	}
	return removed
}

// Save maps the staged rows to line-item requests and invokes the bulk
// create. On success the staged set is cleared, an update hint fires,
// and the sibling selection screen refreshes best-effort. On failure
// the staged rows are left exactly as they were so the user can retry.
func (e *EditScreen) Save(ctx context.Context) error {
	e.mu.Lock()
	if len(e.staged) == 0 {
		e.mu.Unlock()
		e.notifier.Warning("Warning", "Select at least one product.")
		return ErrNothingStaged
	}
	items := staging.BuildRequests(e.cfg.Kind, e.cfg.NamePrefix, e.parentID, e.staged)
	e.mu.Unlock()

	if err := e.creator.CreateBatch(ctx, items); err != nil {
		e.log.Error("line item creation failed",
			zap.String("parent_id", e.parentID.String()),
			zap.Int("count", len(items)),
			zap.Error(err),
		)
		e.notifier.Error("Error", "Failed to create line items.")
		return &catalog.CreationError{Err: err}
	}

	e.mu.Lock()
	e.staged = nil
	e.pending = nil
	sibling := e.sibling
	e.mu.Unlock()

	e.notifier.Success("Success", "Line items created.")
	e.log.Info("line items created",
		zap.String("parent_kind", string(e.cfg.Kind)),
		zap.String("parent_id", e.parentID.String()),
		zap.Int("count", len(items)),
	)

	if e.publisher != nil {
		e.publisher.ListUpdated(ctx, e.parentID)
	}

	if sibling != nil {
		if err := sibling.Refresh(ctx); err != nil {
			// Post-save refresh is best-effort; the save already landed.
			e.log.Warn("post-save refresh failed", zap.Error(err))
		}
	}
	return nil
}
