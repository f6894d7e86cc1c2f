// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"strings"
	"time"

	"orderdesk/internal/core/apperror"
	"orderdesk/internal/core/id"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- Common Filters ---

// ListQuery contains common list parameters.
type ListQuery struct {
	Search         string `form:"search"`
	Limit          int    `form:"limit" binding:"omitempty,min=1,max=1000"`
	Offset         int    `form:"offset" binding:"omitempty,min=0"`
	OrderBy        string `form:"orderBy"`
	IncludeDeleted bool   `form:"includeDeleted"`
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// --- Parsing helpers ---

// ParseID parses a required id, naming field in the validation error.
func ParseID(field, raw string) (id.ID, error) {
	v, err := id.Parse(strings.TrimSpace(raw))
	if err != nil {
		return id.Nil(), apperror.NewValidation("invalid id format").
			WithDetail("field", field).
			WithDetail("value", raw)
	}
	return v, nil
}

// ParseOptionalID parses an id that may be absent.
func ParseOptionalID(field string, raw *string) (*id.ID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	v, err := ParseID(field, *raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ParseDate parses a calendar date or an RFC 3339 timestamp, in UTC.
func ParseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, apperror.NewValidation("invalid date").
		WithDetail("field", field).
		WithDetail("value", raw)
}

// ParseOptionalDate parses a date that may be absent.
func ParseOptionalDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := ParseDate(field, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
