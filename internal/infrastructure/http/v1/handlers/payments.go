package handlers

import (
	"github.com/gin-gonic/gin"

	"orderdesk/internal/core/apperror"
	"orderdesk/internal/domain/payments"
	"orderdesk/internal/domain/visibility"
	"orderdesk/internal/infrastructure/http/v1/dto"
)

// PaymentHandler handles the payment ledger of orders.
type PaymentHandler struct {
	*BaseHandler
	service *payments.Service
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(base *BaseHandler, service *payments.Service) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler: base,
		service:     service,
	}
}

// sideField is the visibility field guarding a ledger side.
func sideField(side payments.Side) visibility.Field {
	if side == payments.Payable {
		return visibility.FieldPayable
	}
	return visibility.FieldReceivable
}

func (h *PaymentHandler) authorizeSide(c *gin.Context, side payments.Side) bool {
	if !h.Decide(c).Can(sideField(side)) {
		h.Error(c, apperror.NewForbidden("side not visible").WithDetail("side", side))
		return false
	}
	return true
}

// Record handles POST /orders/:id/payments.
func (h *PaymentHandler) Record(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.PaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput(orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if !h.authorizeSide(c, in.Side) {
		return
	}

	p, err := h.service.RecordPayment(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, p)
}

// List handles GET /orders/:id/payments?side=.
func (h *PaymentHandler) List(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var q dto.SideQuery
	if !h.BindQuery(c, &q) {
		return
	}
	side := q.ParsedSide()
	if !h.authorizeSide(c, side) {
		return
	}

	list, err := h.service.ListPayments(c.Request.Context(), orderID, side)
	if err != nil {
		h.Error(c, err)
		return
	}
	if list == nil {
		list = []payments.Payment{}
	}

	h.OK(c, dto.PaymentListResponse{
		OrderID: orderID.String(),
		Side:    side,
		Items:   list,
	})
}

// Balance handles GET /orders/:id/balance?side=.
func (h *PaymentHandler) Balance(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var q dto.SideQuery
	if !h.BindQuery(c, &q) {
		return
	}
	side := q.ParsedSide()
	if !h.authorizeSide(c, side) {
		return
	}

	balance, err := h.service.GetBalance(c.Request.Context(), orderID, side)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, balance)
}
