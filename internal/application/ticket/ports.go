package ticket

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/contracts"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
)

type Clock interface {
	Now() time.Time
}

type TicketRepo interface {
	GetInventory(ctx context.Context, eventID string) (*domain.SeatInventory, error)
	GetTicket(ctx context.Context, id string) (*domain.Ticket, error)
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]*domain.Ticket, int, error)
	ListByEvent(ctx context.Context, eventID string, page, pageSize int) ([]*domain.Ticket, int, error)

	WithTx(ctx context.Context, fn func(r TxTicketRepo) error) error
}

// TxTicketRepo is used inside one transaction.
// Lock order: inventory row first, then ticket row.
type TxTicketRepo interface {
	GetInventoryForUpdate(ctx context.Context, eventID string) (*domain.SeatInventory, error)
	// InsertInventory reports false when a row for the event already exists.
	InsertInventory(ctx context.Context, inv *domain.SeatInventory) (bool, error)
	UpdateInventory(ctx context.Context, inv *domain.SeatInventory) error

	InsertTicket(ctx context.Context, t *domain.Ticket) error
	GetTicketForUpdate(ctx context.Context, id string) (*domain.Ticket, error)
	UpdateTicket(ctx context.Context, t *domain.Ticket) error

	InsertOutbox(ctx context.Context, msg contracts.OutboxMessage) error
}
