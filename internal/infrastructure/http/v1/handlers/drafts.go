package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"orderdesk/internal/domain/editor"
	"orderdesk/internal/domain/orders"
	"orderdesk/internal/domain/visibility"
	"orderdesk/internal/infrastructure/http/v1/dto"
)

// DraftHandler exposes interactive order editing sessions.
type DraftHandler struct {
	*BaseHandler
	store  *editor.Store
	orders *orders.Service
}

// NewDraftHandler creates a new draft handler.
func NewDraftHandler(base *BaseHandler, store *editor.Store, service *orders.Service) *DraftHandler {
	return &DraftHandler{
		BaseHandler: base,
		store:       store,
		orders:      service,
	}
}

func (h *DraftHandler) respond(c *gin.Context, s *editor.Session, status int) {
	o := s.Order()
	c.JSON(status, dto.DraftResponse{
		ID:      s.ID.String(),
		Pending: s.Pending(),
		Order:   h.policy.Project(o, o.Items, h.Viewer(c)),
	})
}

func (h *DraftHandler) owner(c *gin.Context) string {
	if v := h.Viewer(c); v != nil {
		return v.UserID
	}
	return ""
}

func (h *DraftHandler) session(c *gin.Context) (*editor.Session, bool) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return nil, false
	}
	s, err := h.store.Get(h.owner(c), sessionID)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return s, true
}

// Open handles POST /order-drafts.
func (h *DraftHandler) Open(c *gin.Context) {
	var req dto.CreateDraftRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	var base *orders.Order
	fromID, err := dto.ParseOptionalID("fromOrderId", req.FromOrderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if fromID != nil {
		if base, err = h.orders.GetByID(c.Request.Context(), *fromID); err != nil {
			h.Error(c, err)
			return
		}
	}

	h.respond(c, h.store.Open(h.owner(c), base), http.StatusCreated)
}

// Get handles GET /order-drafts/:id.
func (h *DraftHandler) Get(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	h.respond(c, s, http.StatusOK)
}

// AddItem handles POST /order-drafts/:id/items.
func (h *DraftHandler) AddItem(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if _, err := s.AddItem(); err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, s, http.StatusCreated)
}

// RemoveItem handles DELETE /order-drafts/:id/items/:index.
func (h *DraftHandler) RemoveItem(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	index, ok := h.ParseIndex(c, "index")
	if !ok {
		return
	}
	if err := s.RemoveItem(index); err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, s, http.StatusOK)
}

// Input handles POST /order-drafts/:id/items/:index/input.
func (h *DraftHandler) Input(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	index, ok := h.ParseIndex(c, "index")
	if !ok {
		return
	}
	var req dto.DraftInputRequest
	if !h.BindJSON(c, &req) {
		return
	}
	field, trigger, err := req.ToEvent()
	if err != nil {
		h.Error(c, err)
		return
	}
	// Input to a column the viewer cannot see is dropped.
	if !dto.CanEditDraftField(h.Decide(c), field) {
		h.respond(c, s, http.StatusOK)
		return
	}

	if err := s.Input(c.Request.Context(), index, field, req.Value, trigger); err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, s, http.StatusOK)
}

// SetHeader handles PUT /order-drafts/:id/header.
func (h *DraftHandler) SetHeader(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.OrderHeaderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	current := s.Order().InternalNotes
	if !h.Decide(c).Can(visibility.FieldInternalNotes) {
		req.InternalNotes = nil
	}
	header, err := req.ToHeader(current)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := s.SetHeader(header); err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, s, http.StatusOK)
}

// Save handles POST /order-drafts/:id/save. Pending input is committed first.
func (h *DraftHandler) Save(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if _, err := s.Save(c.Request.Context(), h.orders); err != nil {
		h.Error(c, err)
		return
	}
	h.respond(c, s, http.StatusOK)
}

// Close handles DELETE /order-drafts/:id. Pending input is discarded.
func (h *DraftHandler) Close(c *gin.Context) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.store.Close(h.owner(c), sessionID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
