package ticket

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/contracts"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/metrics"
	zlog "github.com/rs/zerolog/log"
)

type BookCmd struct {
	EventID    string
	UserID     string
	Type       domain.TicketType
	PriceCents int64
	Currency   string
}

// BookTicket reserves one seat and issues a ticket in a single transaction:
// either both happen or neither does.
func (s *Service) BookTicket(ctx context.Context, cmd BookCmd) (*domain.Ticket, error) {
	currency := cmd.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}

	var out *domain.Ticket
	err := s.repo.WithTx(ctx, func(r TxTicketRepo) error {
		now := s.clock.Now()

		// 1) Lock inventory FIRST
		inv, err := r.GetInventoryForUpdate(ctx, cmd.EventID)
		if err != nil {
			return err
		}

		// 2) Build the ticket before touching the counter so bad input costs nothing
		t, err := domain.NewTicket(cmd.EventID, cmd.UserID, cmd.Type, cmd.PriceCents, currency, now)
		if err != nil {
			return err
		}

		// 3) Decrement under the lock
		if err := inv.Reserve(1, now); err != nil {
			return err
		}
		if err := r.UpdateInventory(ctx, inv); err != nil {
			return err
		}
		if err := r.InsertTicket(ctx, t); err != nil {
			return err
		}

		// 4) Outbox
		msg, err := contracts.NewOutboxMessage(ctx, contracts.RKTicketBooked, ticketPayload(t, inv), now)
		if err != nil {
			return err
		}
		if err := r.InsertOutbox(ctx, msg); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		metrics.RecordBooking(bookingOutcome(err))
		return nil, err
	}

	metrics.RecordBooking("booked")
	zlog.Info().
		Str("ticket_id", out.ID).
		Str("event_id", out.EventID).
		Str("user_id", out.UserID).
		Msg("ticket booked")
	return out, nil
}

func bookingOutcome(err error) string {
	switch domain.CodeOf(err) {
	case domain.CodeInsufficientInventory:
		return "sold_out"
	case domain.CodeInvalidOperation:
		return "closed"
	case domain.CodeNotFound:
		return "unknown_event"
	case domain.CodeInvalidData:
		return "invalid"
	case "":
		return "error"
	default:
		return "rejected"
	}
}

func ticketPayload(t *domain.Ticket, inv *domain.SeatInventory) contracts.TicketPayload {
	return contracts.TicketPayload{
		TicketID:       t.ID,
		EventID:        t.EventID,
		UserID:         t.UserID,
		Type:           string(t.Type),
		PriceCents:     t.PriceCents,
		Currency:       t.Currency,
		Status:         string(t.Status),
		RemainingSeats: inv.RemainingSeats,
	}
}
