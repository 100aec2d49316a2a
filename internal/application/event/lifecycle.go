package event

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/contracts"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
)

func (s *Service) Publish(ctx context.Context, eventID, actorID, actorRole string) (*domain.Event, error) {
	return s.transition(ctx, eventID, actorID, actorRole, contracts.RKEventPublished, (*domain.Event).Publish)
}

func (s *Service) Start(ctx context.Context, eventID, actorID, actorRole string) (*domain.Event, error) {
	return s.transition(ctx, eventID, actorID, actorRole, contracts.RKEventStarted, (*domain.Event).Start)
}

func (s *Service) Complete(ctx context.Context, eventID, actorID, actorRole string) (*domain.Event, error) {
	return s.transition(ctx, eventID, actorID, actorRole, contracts.RKEventCompleted, (*domain.Event).Complete)
}

// transition locks the event, applies step, and records the outbox row in the same tx.
func (s *Service) transition(
	ctx context.Context,
	eventID, actorID, actorRole, routingKey string,
	step func(e *domain.Event, now time.Time) error,
) (*domain.Event, error) {
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
		if err := step(ev, now); err != nil {
			return err
		}
		if err := r.Update(ctx, ev); err != nil {
			return err
		}

		msg, err := contracts.NewOutboxMessage(ctx, routingKey, eventPayload(ev, actorRole), now)
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
