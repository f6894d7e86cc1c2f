package handlers

import (
	"github.com/gin-gonic/gin"

	"orderdesk/internal/core/apperror"
	"orderdesk/internal/core/id"
	"orderdesk/internal/domain/catalog"
	"orderdesk/internal/domain/editor"
	"orderdesk/internal/domain/orders"
	"orderdesk/internal/domain/visibility"
	"orderdesk/internal/infrastructure/http/v1/dto"
)

// OrderHandler handles HTTP requests for orders.
// Every order leaves the handler as a projected view.
type OrderHandler struct {
	*BaseHandler
	service *orders.Service
	lookup  catalog.Lookup
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(base *BaseHandler, service *orders.Service, lookup catalog.Lookup) *OrderHandler {
	return &OrderHandler{
		BaseHandler: base,
		service:     service,
		lookup:      lookup,
	}
}

// Create handles POST /orders.
func (h *OrderHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.OrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	decision := h.Decide(c)

	order := orders.NewOrder(id.Nil())
	if err := req.ApplyHeader(order, decision); err != nil {
		h.Error(c, err)
		return
	}

	inputs, err := req.ItemInputs(decision)
	if err != nil {
		h.Error(c, err)
		return
	}
	if order.Items, err = editor.BuildItems(ctx, h.lookup, nil, inputs); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(ctx, order); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, h.policy.ProjectWith(decision, order, order.Items))
}

// Get handles GET /orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	order, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, h.policy.Project(order, order.Items, h.Viewer(c)))
}

// Update handles PUT /orders/:id. The payload replaces header and items;
// lines matching stored ones keep their catalog snapshot.
func (h *OrderHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.OrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	decision := h.Decide(c)

	order, err := h.service.GetByID(ctx, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := req.ApplyHeader(order, decision); err != nil {
		h.Error(c, err)
		return
	}
	inputs, err := req.ItemInputs(decision)
	if err != nil {
		h.Error(c, err)
		return
	}
	if order.Items, err = editor.BuildItems(ctx, h.lookup, order.Items, inputs); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Update(ctx, order); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, h.policy.ProjectWith(decision, order, order.Items))
}

// Delete handles DELETE /orders/:id (soft delete).
func (h *OrderHandler) Delete(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List handles GET /orders. Headers only, without items.
func (h *OrderHandler) List(c *gin.Context) {
	var q dto.OrderListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	decision := h.Decide(c)
	views := make([]*visibility.OrderView, len(result.Items))
	for i, o := range result.Items {
		views[i] = h.policy.ProjectWith(decision, o, nil)
	}

	h.OK(c, dto.ListResponse{
		Items:      views,
		TotalCount: result.TotalCount,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// AttachmentRef handles GET /orders/:id/attachment-ref.
func (h *OrderHandler) AttachmentRef(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	exists, err := h.service.Exists(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if !exists {
		h.Error(c, apperror.NewNotFound("order", orderID))
		return
	}

	h.OK(c, dto.AttachmentRefResponse{
		EntityType: orders.AttachmentEntityType,
		EntityID:   orderID.String(),
	})
}
