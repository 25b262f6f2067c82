package transport

import (
	"errors"
	"net/http"

	"line-item-staging/internal/catalog"
	"line-item-staging/internal/domain"
	"line-item-staging/internal/middleware"
	"line-item-staging/internal/selection"
	"line-item-staging/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateSessionRequest starts a staging session for a parent record.
type CreateSessionRequest struct {
	ParentKind string `json:"parent_kind" validate:"required,oneof=opportunity quote pricebook_entry"`
	ParentID   string `json:"parent_id" validate:"required,uuid"`
}

// FiltersRequest sets the category filters on the selection screen.
type FiltersRequest struct {
	Category1 string `json:"category1"`
	Category2 string `json:"category2"`
}

// SelectionRequest toggles rows in or out of the selection.
type SelectionRequest struct {
	Select   []uuid.UUID `json:"select"`
	Deselect []uuid.UUID `json:"deselect"`
}

// EditsRequest carries a batch of inline cell edits.
type EditsRequest struct {
	Edits []domain.PartialEdit `json:"edits" validate:"required,min=1"`
}

// ProductsResponse is the filtered grid plus the selection state.
type ProductsResponse struct {
	Rows        []domain.CatalogRow   `json:"rows"`
	SelectedIDs []uuid.UUID           `json:"selected_ids"`
	Facets      domain.CategoryFacets `json:"facets"`
}

// SelectionResponse reports the current selection.
type SelectionResponse struct {
	Rows []domain.CatalogRow `json:"rows"`
}

// StagedResponse reports the staged rows on the edit screen.
type StagedResponse struct {
	Rows []domain.StagedRow `json:"rows"`
}

// SourceSet maps each parent kind to its catalog source.
type SourceSet map[domain.ParentKind]catalog.Source

// SessionHandler handles HTTP requests for staging sessions
type SessionHandler struct {
	store     *session.Store
	sources   SourceSet
	creator   session.LineItemCreator
	publisher session.UpdatePublisher
	notifier  session.Notifier
	logger    *zap.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(store *session.Store, sources SourceSet, creator session.LineItemCreator, publisher session.UpdatePublisher, notifier session.Notifier, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		store:     store,
		sources:   sources,
		creator:   creator,
		publisher: publisher,
		notifier:  notifier,
		logger:    logger,
	}
}

// RegisterRoutes registers all session routes
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.DiscardSession)
			r.Get("/products", h.ListProducts)
			r.Post("/filters", h.SetFilters)
			r.Post("/filters/clear", h.ClearFilters)
			r.Get("/selection", h.GetSelection)
			r.Post("/selection", h.UpdateSelection)
			r.Post("/next", h.Next)
			r.Get("/staged", h.GetStaged)
			r.Post("/edits", h.ApplyEdits)
			r.Delete("/rows/{rowID}", h.DeleteRow)
			r.Post("/save", h.Save)
			r.Post("/refresh", h.Refresh)
		})
	})
}

// CreateSession starts a session and loads its catalog
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Session creation validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	kind := domain.ParentKind(req.ParentKind)
	parentID, err := uuid.Parse(req.ParentID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid parent id")
		return
	}

	source, ok := h.sources[kind]
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "unsupported parent kind")
		return
	}
	cfg, err := catalog.ConfigFor(kind)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "unsupported parent kind")
		return
	}

	c := session.NewContainer(cfg, parentID, source, h.creator, h.publisher, h.notifier, h.logger)
	h.store.Put(c)

	// A load failure still yields a usable, empty session; the snapshot
	// carries the state and the failure has already been notified.
	if err := c.Load(r.Context()); err != nil {
		h.logger.Warn("Initial catalog load failed",
			zap.String("session_id", c.ID.String()),
			zap.Error(err),
		)
	}

	h.logger.Info("Session created",
		zap.String("session_id", c.ID.String()),
		zap.String("parent_kind", string(kind)),
		zap.String("parent_id", parentID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, c.Snapshot())
}

// GetSession returns the session snapshot
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, c.Snapshot())
}

// DiscardSession drops the session and all staged state
func (h *SessionHandler) DiscardSession(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	h.store.Delete(c.ID)
	w.WriteHeader(http.StatusNoContent)
}

// ListProducts returns the visible rows. Optional query parameters give
// a transient filtered view without changing the session's filters.
func (h *SessionHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}

	rows := c.Selection.Visible()
	if q := r.URL.Query(); q.Has("category1") || q.Has("category2") {
		rows = selection.FilterRows(rows, q.Get("category1"), q.Get("category2"))
	}

	selectedIDs := []uuid.UUID{}
	for _, row := range c.Selection.Selected() {
		selectedIDs = append(selectedIDs, row.ID)
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductsResponse{
		Rows:        rows,
		SelectedIDs: selectedIDs,
		Facets:      c.Selection.Facets(),
	})
}

// SetFilters applies category filters
func (h *SessionHandler) SetFilters(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}

	var req FiltersRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c.Selection.SetFilters(req.Category1, req.Category2)
	middleware.RespondWithJSON(w, http.StatusOK, c.Snapshot())
}

// ClearFilters resets both category filters
func (h *SessionHandler) ClearFilters(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	c.Selection.ClearFilters()
	middleware.RespondWithJSON(w, http.StatusOK, c.Snapshot())
}

// GetSelection returns the current selection
func (h *SessionHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, SelectionResponse{Rows: c.Selection.Selected()})
}

// UpdateSelection adds and removes rows from the selection
func (h *SessionHandler) UpdateSelection(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SelectionRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Select) > 0 {
		c.Selection.Select(req.Select)
	}
	if len(req.Deselect) > 0 {
		c.Selection.Deselect(req.Deselect)
	}
	middleware.RespondWithJSON(w, http.StatusOK, SelectionResponse{Rows: c.Selection.Selected()})
}

// Next hands the selection off to the edit screen
func (h *SessionHandler) Next(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := c.Next(); err != nil {
		if errors.Is(err, session.ErrNoSelection) {
			middleware.RespondWithError(w, http.StatusUnprocessableEntity, "select at least one product")
			return
		}
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to stage selection")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, StagedResponse{Rows: c.Edit.Staged()})
}

// GetStaged returns the staged rows
func (h *SessionHandler) GetStaged(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, StagedResponse{Rows: c.Edit.Staged()})
}

// ApplyEdits merges inline cell edits into the staged rows
func (h *SessionHandler) ApplyEdits(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}

	var req EditsRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c.Edit.ApplyEdits(req.Edits)
	middleware.RespondWithJSON(w, http.StatusOK, StagedResponse{Rows: c.Edit.Staged()})
}

// DeleteRow removes one staged row
func (h *SessionHandler) DeleteRow(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}

	rowID, err := uuid.Parse(chi.URLParam(r, "rowID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid row id")
		return
	}

	removed := c.Edit.DeleteRow(rowID)
	middleware.RespondWithJSON(w, http.StatusOK, map[string]any{
		"removed": removed,
		"staged":  c.Edit.Staged(),
	})
}

// Save bulk-creates line items from the staged rows
func (h *SessionHandler) Save(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := c.Save(r.Context()); err != nil {
		if errors.Is(err, session.ErrNothingStaged) {
			middleware.RespondWithError(w, http.StatusUnprocessableEntity, "select at least one product")
			return
		}
		var creationErr *catalog.CreationError
		if errors.As(err, &creationErr) {
			middleware.RespondWithError(w, http.StatusBadGateway, "failed to create line items")
			return
		}
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to save line items")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, c.Snapshot())
}

// Refresh re-fetches the catalog data
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := c.Selection.Refresh(r.Context()); err != nil {
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to refresh catalog data")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, c.Snapshot())
}

// session resolves the session from the URL, responding 404 when gone.
func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*session.Container, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid session id")
		return nil, false
	}

	c, err := h.store.Get(id)
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return c, true
}
