package ticket

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
	zlog "github.com/rs/zerolog/log"
)

// OpenInventory creates the seat inventory for an event. It is idempotent:
// a redelivered event.published returns the existing row unchanged.
func (s *Service) OpenInventory(ctx context.Context, eventID string, totalSeats int) (*domain.SeatInventory, error) {
	var out *domain.SeatInventory

	err := s.repo.WithTx(ctx, func(r TxTicketRepo) error {
		existing, err := r.GetInventoryForUpdate(ctx, eventID)
		if err == nil {
			out = existing
			return nil
		}
		if !domain.IsCode(err, domain.CodeNotFound) {
			return err
		}

		inv, err := domain.NewSeatInventory(eventID, totalSeats, s.clock.Now())
		if err != nil {
			return err
		}
		inserted, err := r.InsertInventory(ctx, inv)
		if err != nil {
			return err
		}
		if !inserted {
			// lost a race with a concurrent open
			existing, err := r.GetInventoryForUpdate(ctx, eventID)
			if err != nil {
				return err
			}
			out = existing
			return nil
		}
		out = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	zlog.Info().Str("event_id", out.EventID).Int("total_seats", out.TotalSeats).Msg("seat inventory open")
	return out, nil
}

// CloseInventory stops new bookings. Cancellations still restore seats.
func (s *Service) CloseInventory(ctx context.Context, eventID string) (*domain.SeatInventory, error) {
	var out *domain.SeatInventory

	err := s.repo.WithTx(ctx, func(r TxTicketRepo) error {
		inv, err := r.GetInventoryForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if !inv.Open {
			out = inv
			return nil
		}
		inv.Close(s.clock.Now())
		if err := r.UpdateInventory(ctx, inv); err != nil {
			return err
		}
		out = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// StopSales closes the inventory when the event is canceled, started or
// completed. With no row yet it leaves a closed one behind, so a late or
// redelivered event.published cannot open sales afterwards.
func (s *Service) StopSales(ctx context.Context, eventID string, totalSeats int) (*domain.SeatInventory, error) {
	var out *domain.SeatInventory

	err := s.repo.WithTx(ctx, func(r TxTicketRepo) error {
		now := s.clock.Now()

		inv, err := r.GetInventoryForUpdate(ctx, eventID)
		switch {
		case err == nil:
			if inv.Open {
				inv.Close(now)
				if err := r.UpdateInventory(ctx, inv); err != nil {
					return err
				}
			}
			out = inv
			return nil
		case !domain.IsCode(err, domain.CodeNotFound):
			return err
		}

		closed, err := domain.NewClosedSeatInventory(eventID, totalSeats, now)
		if err != nil {
			return err
		}
		inserted, err := r.InsertInventory(ctx, closed)
		if err != nil {
			return err
		}
		if !inserted {
			// a concurrent open won; close that row instead
			inv, err := r.GetInventoryForUpdate(ctx, eventID)
			if err != nil {
				return err
			}
			inv.Close(now)
			if err := r.UpdateInventory(ctx, inv); err != nil {
				return err
			}
			out = inv
			return nil
		}
		out = closed
		return nil
	})
	if err != nil {
		return nil, err
	}

	zlog.Info().Str("event_id", out.EventID).Int("remaining_seats", out.RemainingSeats).Msg("ticket sales stopped")
	return out, nil
}

func (s *Service) GetInventory(ctx context.Context, eventID string) (*domain.SeatInventory, error) {
	return s.repo.GetInventory(ctx, eventID)
}
