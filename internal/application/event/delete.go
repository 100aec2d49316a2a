package event

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/contracts"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
)

// Delete removes a draft event.
func (s *Service) Delete(ctx context.Context, eventID, actorID, actorRole string) error {
	err := s.repo.WithTx(ctx, func(r TxEventRepo) error {
		ev, err := r.GetByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if !canManage(actorID, actorRole, ev.OrganizerID) {
			return domain.ErrForbidden("not allowed")
		}
		if err := ev.CanDelete(); err != nil {
			return err
		}
		if err := r.Delete(ctx, ev.ID); err != nil {
			return err
		}

		msg, err := contracts.NewOutboxMessage(ctx, contracts.RKEventDeleted, eventPayload(ev, actorRole), s.clock.Now())
		if err != nil {
			return err
		}
		return r.InsertOutbox(ctx, msg)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, eventID)
	return nil
}
