package event

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/contracts"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
)

type CreateCmd struct {
	ActorID   string
	ActorRole string

	Title       string
	Description string
	Location    string
	Category    domain.Category
	ImageURL    string
	StartTime   time.Time
	EndTime     time.Time
	Capacity    int
}

func (s *Service) Create(ctx context.Context, cmd CreateCmd) (*domain.Event, error) {
	if !canCreate(cmd.ActorRole) {
		return nil, domain.ErrForbidden("only organizer/admin can create events")
	}
	now := s.clock.Now()
	e, err := domain.NewDraft(cmd.ActorID, domain.EventFields{
		Title:       cmd.Title,
		Description: cmd.Description,
		Location:    cmd.Location,
		Category:    cmd.Category,
		ImageURL:    cmd.ImageURL,
		StartTime:   cmd.StartTime,
		EndTime:     cmd.EndTime,
		Capacity:    cmd.Capacity,
	}, now)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(r TxEventRepo) error {
		if err := r.Insert(ctx, e); err != nil {
			return err
		}
		msg, err := contracts.NewOutboxMessage(ctx, contracts.RKEventCreated, eventPayload(e, cmd.ActorRole), now)
		if err != nil {
			return err
		}
		return r.InsertOutbox(ctx, msg)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func eventPayload(e *domain.Event, actorRole string) contracts.EventPayload {
	return contracts.EventPayload{
		EventID:        e.ID,
		OrganizerID:    e.OrganizerID,
		Title:          e.Title,
		Location:       e.Location,
		Category:       string(e.Category),
		StartTime:      e.StartTime,
		EndTime:        e.EndTime,
		Capacity:       e.Capacity,
		AvailableSeats: e.AvailableSeats,
		Status:         string(e.Status),
		ActorRole:      actorRole,
	}
}
