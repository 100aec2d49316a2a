package ticket

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/contracts"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/metrics"
)

// CancelTicket marks the ticket canceled and gives its seat back, atomically.
func (s *Service) CancelTicket(ctx context.Context, ticketID, actorID, actorRole string) (*domain.Ticket, error) {
	// event_id never changes, so an unlocked read is enough to find the inventory row.
	current, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !canAccess(actorID, actorRole, current.UserID) {
		// same answer as GetTicket: other users' tickets do not exist
		return nil, domain.ErrNotFound("ticket not found")
	}

	var out *domain.Ticket
	err = s.repo.WithTx(ctx, func(r TxTicketRepo) error {
		now := s.clock.Now()

		inv, err := r.GetInventoryForUpdate(ctx, current.EventID)
		if err != nil {
			return err
		}
		t, err := r.GetTicketForUpdate(ctx, ticketID)
		if err != nil {
			return err
		}

		if err := t.Cancel(now); err != nil {
			return err
		}
		if err := inv.Release(1, now); err != nil {
			return err
		}
		if err := r.UpdateTicket(ctx, t); err != nil {
			return err
		}
		if err := r.UpdateInventory(ctx, inv); err != nil {
			return err
		}

		msg, err := contracts.NewOutboxMessage(ctx, contracts.RKTicketCanceled, ticketPayload(t, inv), now)
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
		return nil, err
	}

	metrics.RecordTicketCanceled()
	return out, nil
}
