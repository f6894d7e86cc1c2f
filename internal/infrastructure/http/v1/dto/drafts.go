package dto

import (
	"orderdesk/internal/domain/editor"
	"orderdesk/internal/domain/visibility"
)

// CreateDraftRequest opens an editing session, over a stored order when
// FromOrderID is set.
type CreateDraftRequest struct {
	FromOrderID *string `json:"fromOrderId" binding:"omitempty,uuid"`
}

// DraftInputRequest is one UI event for an item field.
type DraftInputRequest struct {
	Field   string `json:"field" binding:"required,oneof=productId quantity unitCost unitPrice"`
	Value   string `json:"value"`
	Trigger string `json:"trigger" binding:"required,oneof=input focus blur enter"`
}

// ToEvent parses the field and trigger.
func (r *DraftInputRequest) ToEvent() (editor.Field, editor.Trigger, error) {
	field, err := editor.ParseField(r.Field)
	if err != nil {
		return "", "", err
	}
	return field, editor.Trigger(r.Trigger), nil
}

// DraftResponse is an editing session as the viewer may see it.
type DraftResponse struct {
	ID      string                `json:"id"`
	Pending bool                  `json:"pending"`
	Order   *visibility.OrderView `json:"order"`
}

var draftFieldColumns = map[editor.Field]visibility.Field{
	editor.FieldUnitCost:  visibility.FieldUnitCost,
	editor.FieldUnitPrice: visibility.FieldUnitPrice,
}

// CanEditDraftField reports whether d allows input to an item field.
// Fields without a guarded column are always editable.
func CanEditDraftField(d visibility.Decision, field editor.Field) bool {
	col, guarded := draftFieldColumns[field]
	return !guarded || d.Can(col)
}
