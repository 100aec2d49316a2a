package dto

import "time"

type CreateEventReq struct {
	Title       string    `json:"title" validate:"required,min=3,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	Location    string    `json:"location" validate:"required,max=255"`
	Category    string    `json:"category" validate:"required"`
	ImageURL    string    `json:"image_url" validate:"omitempty,max=500"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	Capacity    int       `json:"capacity" validate:"required,min=1,max=100000"`
}

// UpdateEventReq is a partial update; absent fields stay unchanged.
type UpdateEventReq struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	Location    *string    `json:"location,omitempty" validate:"omitempty,max=255"`
	Category    *string    `json:"category,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty" validate:"omitempty,max=500"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Capacity    *int       `json:"capacity,omitempty" validate:"omitempty,min=1,max=100000"`
}

type CancelEventReq struct {
	Reason string `json:"reason" validate:"max=500"`
}

type SeatsReq struct {
	Qty int `json:"qty" validate:"gt=0"`
}

type OpenInventoryReq struct {
	EventID    string `json:"event_id" validate:"required,uuid"`
	TotalSeats int    `json:"total_seats" validate:"required,min=1,max=100000"`
}

type BookTicketReq struct {
	Type       string `json:"type" validate:"omitempty,oneof=standard vip student"`
	PriceCents int64  `json:"price_cents" validate:"min=0"`
	Currency   string `json:"currency" validate:"omitempty,len=3"`
}

type CreateUserReq struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

type UpdateUserReq struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Password  *string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
	Role      *string `json:"role,omitempty" validate:"omitempty,oneof=participant organizer admin"`
}
