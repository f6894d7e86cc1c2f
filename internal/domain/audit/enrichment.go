// Package audit provides audit field enrichment and the audit log contract.
package audit

import (
	"context"

	appctx "orderdesk/internal/core/context"
	"orderdesk/internal/core/entity"
	"orderdesk/internal/core/id"
)

// Action represents the type of audited operation.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionPayment Action = "payment"
)

// Recorder appends entries to the audit log.
type Recorder interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action Action, changes map[string]any) error
}

// EnrichCreatedBy sets CreatedBy and UpdatedBy from the context viewer.
// If no viewer is in context, this is a no-op.
func EnrichCreatedBy(ctx context.Context, doc *entity.BaseDocument) {
	userID := appctx.GetUserID(ctx)
	if userID == "" || doc == nil {
		return
	}
	doc.CreatedBy = userID
	doc.UpdatedBy = userID
}

// EnrichUpdatedBy sets only UpdatedBy from the context viewer.
func EnrichUpdatedBy(ctx context.Context, doc *entity.BaseDocument) {
	userID := appctx.GetUserID(ctx)
	if userID == "" || doc == nil {
		return
	}
	doc.UpdatedBy = userID
}
