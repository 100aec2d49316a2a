package domain

import (
	"strings"
	"time"
)

// SeatInventory is the ticketing-side counter for one event. It is kept
// apart from Event.AvailableSeats and only linked through domain events.
type SeatInventory struct {
	EventID        string
	TotalSeats     int
	RemainingSeats int
	Open           bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewSeatInventory(eventID string, total int, now time.Time) (*SeatInventory, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, ErrInvalidData("event_id is required")
	}
	if err := ValidateCapacity(total); err != nil {
		return nil, err
	}
	return &SeatInventory{
		EventID:        eventID,
		TotalSeats:     total,
		RemainingSeats: total,
		Open:           true,
		CreatedAt:      now.UTC(),
		UpdatedAt:      now.UTC(),
	}, nil
}

// NewClosedSeatInventory is the row left behind when sales end before the
// inventory was opened. OpenInventory never reopens it.
func NewClosedSeatInventory(eventID string, total int, now time.Time) (*SeatInventory, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, ErrInvalidData("event_id is required")
	}
	if total < 0 {
		total = 0
	}
	return &SeatInventory{
		EventID:        eventID,
		TotalSeats:     total,
		RemainingSeats: total,
		Open:           false,
		CreatedAt:      now.UTC(),
		UpdatedAt:      now.UTC(),
	}, nil
}

func (s *SeatInventory) Reserve(qty int, now time.Time) error {
	if !s.Open {
		return ErrInvalidOperation("ticket sales are closed for this event")
	}
	left, err := reserveSeats(s.RemainingSeats, qty)
	if err != nil {
		return err
	}
	s.RemainingSeats = left
	s.UpdatedAt = now.UTC()
	return nil
}

// Release restores seats, capped at TotalSeats. It works on closed inventories too.
func (s *SeatInventory) Release(qty int, now time.Time) error {
	left, err := releaseSeats(s.RemainingSeats, s.TotalSeats, qty)
	if err != nil {
		return err
	}
	s.RemainingSeats = left
	s.UpdatedAt = now.UTC()
	return nil
}

func (s *SeatInventory) Close(now time.Time) {
	s.Open = false
	s.UpdatedAt = now.UTC()
}
