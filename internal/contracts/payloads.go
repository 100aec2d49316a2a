package contracts

import "time"

// EventPayload is shared by event.created/updated/published/started/completed/deleted.
type EventPayload struct {
	EventID        string    `json:"event_id"`
	OrganizerID    string    `json:"organizer_id"`
	Title          string    `json:"title"`
	Location       string    `json:"location"`
	Category       string    `json:"category"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Capacity       int       `json:"capacity"`
	AvailableSeats int       `json:"available_seats"`
	Status         string    `json:"status"`
	ActorRole      string    `json:"actor_role,omitempty"`
}

// EventCanceledPayload is the business payload for routing key: event.canceled
type EventCanceledPayload struct {
	EventID     string `json:"event_id"`
	OrganizerID string `json:"organizer_id"`
	Status      string `json:"status"`
	Capacity    int    `json:"capacity"`
	Reason      string `json:"reason,omitempty"`
	ActorRole   string `json:"actor_role,omitempty"`
}

// TicketPayload is shared by ticket.booked and ticket.canceled.
type TicketPayload struct {
	TicketID       string `json:"ticket_id"`
	EventID        string `json:"event_id"`
	UserID         string `json:"user_id"`
	Type           string `json:"type"`
	PriceCents     int64  `json:"price_cents"`
	Currency       string `json:"currency"`
	Status         string `json:"status"`
	RemainingSeats int    `json:"remaining_seats"`
}
