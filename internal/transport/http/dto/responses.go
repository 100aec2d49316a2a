package dto

import "time"

type PageResp[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

type EventResp struct {
	ID             string    `json:"id"`
	OrganizerID    string    `json:"organizer_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Location       string    `json:"location"`
	Category       string    `json:"category"`
	ImageURL       string    `json:"image_url,omitempty"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Capacity       int       `json:"capacity"`
	AvailableSeats int       `json:"available_seats"`
	Status         string    `json:"status"`

	PublishedAt  *time.Time `json:"published_at,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CanceledAt   *time.Time `json:"canceled_at,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// derived for clients
	Modifiable  bool `json:"modifiable"`
	Cancellable bool `json:"cancellable"`
	Bookable    bool `json:"bookable"`
}

type StatusCountsResp struct {
	OrganizerID string         `json:"organizer_id"`
	Counts      map[string]int `json:"counts"`
}

type InventoryResp struct {
	EventID        string    `json:"event_id"`
	TotalSeats     int       `json:"total_seats"`
	RemainingSeats int       `json:"remaining_seats"`
	Open           bool      `json:"open"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type TicketResp struct {
	ID             string     `json:"id"`
	EventID        string     `json:"event_id"`
	UserID         string     `json:"user_id"`
	Type           string     `json:"type"`
	PriceCents     int64      `json:"price_cents"`
	Currency       string     `json:"currency"`
	RedemptionCode string     `json:"redemption_code"`
	Status         string     `json:"status"`
	CanceledAt     *time.Time `json:"canceled_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// UserResp never carries the password hash.
type UserResp struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
