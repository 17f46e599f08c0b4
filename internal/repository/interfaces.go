package repository

import (
	"context"

	"github.com/rpattn/btlportal/internal/domain"

	"github.com/google/uuid"
)

// ReferenceRepository defines read-only lookups against the reference
// dimensions. Absence of a match is reported as domain.ErrNotFound; any other
// error is an infrastructure fault.
type ReferenceRepository interface {
	ResolveElement(ctx context.Context, name string) (domain.ReferenceElement, error)
	ResolveAttribute(ctx context.Context, name string, elementID int64) (domain.ReferenceAttribute, error)
	ResolveUOM(ctx context.Context, elementID int64) (domain.ReferenceUOM, error)
}

// ExecutionRepository appends validated execution events.
type ExecutionRepository interface {
	// InsertAll writes every record inside one transaction and returns the
	// committed count. A mid-batch failure rolls the whole batch back.
	InsertAll(ctx context.Context, records []domain.ExecutionEvent) (int, error)
}

// UploadLogRepository records row level issues for later inspection.
type UploadLogRepository interface {
	Record(ctx context.Context, entry domain.UploadLogEntry) error
	List(ctx context.Context, batchID uuid.UUID, limit int, offset int) ([]domain.UploadLogEntry, error)
	ListRecent(ctx context.Context, limit int, offset int) ([]domain.UploadLogEntry, error)
}
