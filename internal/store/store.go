package store

import (
	"context"

	"microforge/pulse/internal/domain"
)

// NotificationStore is the persistence boundary for notification records.
// All operations are single-record and assumed atomic at this boundary;
// concurrent MarkRead calls on the same id are idempotent (last write wins,
// no conflict is signalled).
type NotificationStore interface {
	Create(ctx context.Context, record domain.NotificationRecord) error
	Get(ctx context.Context, id string) (domain.NotificationRecord, error)
	Recent(ctx context.Context, limit int) ([]domain.NotificationRecord, error)
	MarkRead(ctx context.Context, id string) (domain.NotificationRecord, error)
	Close() error
}
