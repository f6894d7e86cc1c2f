// Package entity provides the persisted base types embedded by domain aggregates.
package entity

import (
	"context"
	"time"

	"orderdesk/internal/core/id"
)

// Validatable is implemented by aggregates that check their own invariants
// before any storage call. Validate returns an AppError on failure.
type Validatable interface {
	Validate(ctx context.Context) error
}

// BaseEntity holds identity, soft delete and version columns.
// Writes are last-write-wins; Version only records how often a row changed.
type BaseEntity struct {
	ID           id.ID `db:"id" json:"id"`
	DeletionMark bool  `db:"deletion_mark" json:"deletionMark"`
	Version      int   `db:"version" json:"version"`
}

// MarkDeleted flags the entity as soft-deleted.
func (b *BaseEntity) MarkDeleted() {
	b.DeletionMark = true
}

// BaseDocument adds who/when columns to BaseEntity.
type BaseDocument struct {
	BaseEntity

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewBaseDocument returns a first-version document with a fresh UUIDv7.
func NewBaseDocument() BaseDocument {
	now := time.Now().UTC()
	return BaseDocument{
		BaseEntity: BaseEntity{ID: id.New(), Version: 1},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Touch bumps Version and UpdatedAt before an update is written.
func (b *BaseDocument) Touch() {
	b.UpdatedAt = time.Now().UTC()
	b.Version++
}
