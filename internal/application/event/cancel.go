package event

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/contracts"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
)

func (s *Service) Cancel(ctx context.Context, eventID, actorID, actorRole, reason string) (*domain.Event, error) {
	var out *domain.Event

	err := s.repo.WithTx(ctx, func(r TxEventRepo) error {
		ev, err := r.GetByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if !canManage(actorID, actorRole, ev.OrganizerID) {
			return domain.ErrForbidden("not allowed")
		}

		now := s.clock.Now()
		if err := ev.Cancel(reason, now); err != nil {
			return err
		}
		if err := r.Update(ctx, ev); err != nil {
			return err
		}

		// Outbox (durable, at-least-once). Ticketing closes sales on this message.
		msg, err := contracts.NewOutboxMessage(ctx, contracts.RKEventCanceled, contracts.EventCanceledPayload{
			EventID:     ev.ID,
			OrganizerID: ev.OrganizerID,
			Status:      string(ev.Status),
			Capacity:    ev.Capacity,
			Reason:      ev.CancelReason,
			ActorRole:   actorRole,
		}, now)
		if err != nil {
			return err
		}
		if err := r.InsertOutbox(ctx, msg); err != nil {
			return err
		}
		out = ev
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, out.ID)
	return out, nil
}
