package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type TicketStatus string

const (
	TicketReserved TicketStatus = "reserved"
	TicketCanceled TicketStatus = "canceled"
)

func (s TicketStatus) Valid() bool { return s == TicketReserved || s == TicketCanceled }

type TicketType string

const (
	TicketStandard TicketType = "standard"
	TicketVIP      TicketType = "vip"
	TicketStudent  TicketType = "student"
)

func (t TicketType) Valid() bool {
	return t == TicketStandard || t == TicketVIP || t == TicketStudent
}

// Ticket is one reserved unit of seat inventory. Prices are integer minor units.
type Ticket struct {
	ID             string
	EventID        string
	UserID         string
	Type           TicketType
	PriceCents     int64
	Currency       string
	RedemptionCode string
	Status         TicketStatus
	CanceledAt     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewTicket(eventID, userID string, typ TicketType, priceCents int64, currency string, now time.Time) (*Ticket, error) {
	eventID = strings.TrimSpace(eventID)
	userID = strings.TrimSpace(userID)
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if eventID == "" {
		return nil, ErrInvalidData("event_id is required")
	}
	if userID == "" {
		return nil, ErrInvalidData("user_id is required")
	}
	if typ == "" {
		typ = TicketStandard
	}
	if !typ.Valid() {
		return nil, ErrInvalidDataMeta("invalid ticket type", map[string]string{"type": "must be one of: standard, vip, student"})
	}
	if priceCents < 0 {
		return nil, ErrInvalidDataMeta("invalid price", map[string]string{"price_cents": "must be >= 0"})
	}
	if len(currency) != 3 {
		return nil, ErrInvalidDataMeta("invalid currency", map[string]string{"currency": "must be a 3-letter code"})
	}

	return &Ticket{
		ID:             uuid.NewString(),
		EventID:        eventID,
		UserID:         userID,
		Type:           typ,
		PriceCents:     priceCents,
		Currency:       currency,
		RedemptionCode: uuid.NewString(),
		Status:         TicketReserved,
		CreatedAt:      now.UTC(),
		UpdatedAt:      now.UTC(),
	}, nil
}

func (t *Ticket) Cancel(now time.Time) error {
	if t.Status != TicketReserved {
		return ErrInvalidOperation("only a reserved ticket can be canceled")
	}
	ts := now.UTC()
	t.Status = TicketCanceled
	t.CanceledAt = &ts
	t.UpdatedAt = ts
	return nil
}
