package event

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/contracts"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
)

type UpdateCmd struct {
	ActorID   string
	ActorRole string
	EventID   string

	Title       *string
	Description *string
	Location    *string
	Category    *domain.Category
	ImageURL    *string
	StartTime   *time.Time
	EndTime     *time.Time
	Capacity    *int
}

func (s *Service) Update(ctx context.Context, cmd UpdateCmd) (*domain.Event, error) {
	var out *domain.Event

	err := s.repo.WithTx(ctx, func(r TxEventRepo) error {
		ev, err := r.GetByIDForUpdate(ctx, cmd.EventID)
		if err != nil {
			return err
		}
		if !canManage(cmd.ActorID, cmd.ActorRole, ev.OrganizerID) {
			return domain.ErrForbidden("not allowed")
		}

		now := s.clock.Now()
		if err := ev.ApplyUpdate(domain.EventPatch{
			Title:       cmd.Title,
			Description: cmd.Description,
			Location:    cmd.Location,
			Category:    cmd.Category,
			ImageURL:    cmd.ImageURL,
			StartTime:   cmd.StartTime,
			EndTime:     cmd.EndTime,
			Capacity:    cmd.Capacity,
		}, now); err != nil {
			return err
		}

		if err := r.Update(ctx, ev); err != nil {
			return err
		}
		msg, err := contracts.NewOutboxMessage(ctx, contracts.RKEventUpdated, eventPayload(ev, cmd.ActorRole), now)
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
