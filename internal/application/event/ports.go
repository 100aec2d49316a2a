package event

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/contracts"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
)

type Clock interface {
	Now() time.Time
}

type EventRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Event, error)

	List(ctx context.Context, f ListFilter) ([]*domain.Event, int, error)
	ListUpcoming(ctx context.Context, now time.Time, limit int) ([]*domain.Event, error)
	ListOngoing(ctx context.Context, now time.Time, limit int) ([]*domain.Event, error)
	ListByOrganizer(ctx context.Context, organizerID string, status domain.EventStatus, page, pageSize int) ([]*domain.Event, int, error)
	CountByOrganizerAndStatus(ctx context.Context, organizerID string, status domain.EventStatus) (int, error)

	// WithTx runs fn in one atomic unit. Any error rolls everything back.
	WithTx(ctx context.Context, fn func(r TxEventRepo) error) error
}

type TxEventRepo interface {
	Insert(ctx context.Context, e *domain.Event) error
	// GetByIDForUpdate locks the event row until the tx ends.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Event, error)
	Update(ctx context.Context, e *domain.Event) error
	Delete(ctx context.Context, id string) error
	InsertOutbox(ctx context.Context, msg contracts.OutboxMessage) error
}

type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
