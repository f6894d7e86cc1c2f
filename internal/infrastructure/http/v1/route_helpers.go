package v1

import (
	"github.com/gin-gonic/gin"

	"orderdesk/internal/infrastructure/http/v1/handlers"
)

// registerOrderRoutes registers order CRUD and the payment ledger.
// Creating requests pass through idem.
func registerOrderRoutes(group *gin.RouterGroup, h *handlers.OrderHandler, p *handlers.PaymentHandler, idem gin.HandlerFunc) {
	group.GET("", h.List)
	group.POST("", idem, h.Create)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
	group.GET("/:id/attachment-ref", h.AttachmentRef)

	group.POST("/:id/payments", idem, p.Record)
	group.GET("/:id/payments", p.List)
	group.GET("/:id/balance", p.Balance)
}

// registerDraftRoutes registers interactive editing sessions.
func registerDraftRoutes(group *gin.RouterGroup, h *handlers.DraftHandler) {
	group.POST("", h.Open)
	group.GET("/:id", h.Get)
	group.DELETE("/:id", h.Close)
	group.PUT("/:id/header", h.SetHeader)
	group.POST("/:id/items", h.AddItem)
	group.DELETE("/:id/items/:index", h.RemoveItem)
	group.POST("/:id/items/:index/input", h.Input)
	group.POST("/:id/save", h.Save)
}

// registerReportRoutes registers read-only reports.
func registerReportRoutes(group *gin.RouterGroup, h *handlers.ReportsHandler) {
	group.GET("/outstanding", h.Outstanding)
	group.GET("/profit", h.Profit)
}
