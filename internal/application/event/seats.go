package event

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
)

// DecreaseAvailableSeats is a locked read-modify-write on the event row, so
// concurrent callers cannot both pass the check against a stale count.
func (s *Service) DecreaseAvailableSeats(ctx context.Context, eventID string, qty int) (*domain.Event, error) {
	return s.adjustSeats(ctx, eventID, func(e *domain.Event) error {
		return e.DecreaseSeats(qty, s.clock.Now())
	})
}

// IncreaseAvailableSeats restores seats, capped at capacity.
func (s *Service) IncreaseAvailableSeats(ctx context.Context, eventID string, qty int) (*domain.Event, error) {
	return s.adjustSeats(ctx, eventID, func(e *domain.Event) error {
		return e.IncreaseSeats(qty, s.clock.Now())
	})
}

func (s *Service) adjustSeats(ctx context.Context, eventID string, apply func(e *domain.Event) error) (*domain.Event, error) {
	var out *domain.Event

	err := s.repo.WithTx(ctx, func(r TxEventRepo) error {
		ev, err := r.GetByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if err := apply(ev); err != nil {
			return err
		}
		if err := r.Update(ctx, ev); err != nil {
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
