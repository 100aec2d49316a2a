package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MinLeadTime = time.Hour

	MinTitleLen       = 3
	MaxTitleLen       = 200
	MaxDescriptionLen = 2000
	MaxLocationLen    = 255
	MaxImageURLLen    = 500
	MaxReasonLen      = 500
	MaxCapacity       = 100000
)

type Event struct {
	ID          string
	OrganizerID string
	Title       string
	Description string
	Location    string
	Category    Category
	ImageURL    string
	StartTime   time.Time
	EndTime     time.Time

	Capacity       int
	AvailableSeats int

	Status       EventStatus
	PublishedAt  *time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CanceledAt   *time.Time
	CancelReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EventFields are the organizer-editable attributes supplied at creation.
type EventFields struct {
	Title       string
	Description string
	Location    string
	Category    Category
	ImageURL    string
	StartTime   time.Time
	EndTime     time.Time
	Capacity    int
}

// EventPatch carries a partial update; nil means "leave as is".
type EventPatch struct {
	Title       *string
	Description *string
	Location    *string
	Category    *Category
	ImageURL    *string
	StartTime   *time.Time
	EndTime     *time.Time
	Capacity    *int
}

func NewDraft(organizerID string, f EventFields, now time.Time) (*Event, error) {
	organizerID = strings.TrimSpace(organizerID)
	if organizerID == "" {
		return nil, ErrInvalidData("organizer_id is required")
	}

	e := &Event{
		ID:          uuid.NewString(),
		OrganizerID: organizerID,
		Status:      StatusDraft,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
	if err := e.setTitle(f.Title); err != nil {
		return nil, err
	}
	if err := e.setDescription(f.Description); err != nil {
		return nil, err
	}
	if err := e.setLocation(f.Location); err != nil {
		return nil, err
	}
	if err := e.setCategory(f.Category); err != nil {
		return nil, err
	}
	if err := e.setImageURL(f.ImageURL); err != nil {
		return nil, err
	}
	if err := ValidateCapacity(f.Capacity); err != nil {
		return nil, err
	}
	if err := ValidateSchedule(f.StartTime, f.EndTime, now); err != nil {
		return nil, err
	}

	e.StartTime = f.StartTime.UTC()
	e.EndTime = f.EndTime.UTC()
	e.Capacity = f.Capacity
	e.AvailableSeats = f.Capacity
	return e, nil
}

// ValidateSchedule requires start < end and start at least MinLeadTime after now.
func ValidateSchedule(start, end, now time.Time) error {
	if start.IsZero() || end.IsZero() {
		return ErrInvalidDataMeta("invalid schedule", map[string]string{
			"start_time": "start_time and end_time are required",
		})
	}
	if !start.Before(end) {
		return ErrInvalidDataMeta("invalid schedule", map[string]string{
			"end_time": "end_time must be after start_time",
		})
	}
	if start.Before(now.Add(MinLeadTime)) {
		return ErrInvalidDataMeta("invalid schedule", map[string]string{
			"start_time": "start_time must be at least 1h in the future",
		})
	}
	return nil
}

func ValidateCapacity(c int) error {
	if c < 1 || c > MaxCapacity {
		return ErrInvalidDataMeta("invalid capacity", map[string]string{
			"capacity": "must be between 1 and 100000",
		})
	}
	return nil
}

func (e *Event) IsModifiable() bool  { return IsModifiable(e.Status) }
func (e *Event) IsCancellable() bool { return IsCancellable(e.Status) }
func (e *Event) IsBookable(now time.Time) bool {
	return IsBookable(e.Status, e.AvailableSeats, e.StartTime, now)
}

func (e *Event) Publish(now time.Time) error {
	next, err := Transition(e.Status, ActionPublish)
	if err != nil {
		return err
	}
	t := now.UTC()
	e.Status = next
	e.PublishedAt = &t
	e.UpdatedAt = t
	return nil
}

func (e *Event) Start(now time.Time) error {
	next, err := Transition(e.Status, ActionStart)
	if err != nil {
		return err
	}
	t := now.UTC()
	e.Status = next
	e.StartedAt = &t
	e.UpdatedAt = t
	return nil
}

func (e *Event) Complete(now time.Time) error {
	next, err := Transition(e.Status, ActionComplete)
	if err != nil {
		return err
	}
	t := now.UTC()
	e.Status = next
	e.CompletedAt = &t
	e.UpdatedAt = t
	return nil
}

func (e *Event) Cancel(reason string, now time.Time) error {
	next, err := Transition(e.Status, ActionCancel)
	if err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > MaxReasonLen {
		return ErrInvalidDataMeta("invalid reason", map[string]string{"reason": "must be <= 500 chars"})
	}
	t := now.UTC()
	e.Status = next
	e.CanceledAt = &t
	e.CancelReason = reason
	e.UpdatedAt = t
	return nil
}

func (e *Event) CanDelete() error {
	return CheckTransition(e.Status, ActionDelete)
}

// ApplyUpdate edits a modifiable event. On error e is left untouched.
//
// A capacity change shifts AvailableSeats by the same delta, floored at 0.
// Tickets booked since the last change are not re-counted.
func (e *Event) ApplyUpdate(p EventPatch, now time.Time) error {
	if err := CheckTransition(e.Status, ActionUpdate); err != nil {
		return err
	}

	next := *e
	if p.Title != nil {
		if err := next.setTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if err := next.setDescription(*p.Description); err != nil {
			return err
		}
	}
	if p.Location != nil {
		if err := next.setLocation(*p.Location); err != nil {
			return err
		}
	}
	if p.Category != nil {
		if err := next.setCategory(*p.Category); err != nil {
			return err
		}
	}
	if p.ImageURL != nil {
		if err := next.setImageURL(*p.ImageURL); err != nil {
			return err
		}
	}
	if p.StartTime != nil {
		next.StartTime = p.StartTime.UTC()
	}
	if p.EndTime != nil {
		next.EndTime = p.EndTime.UTC()
	}
	if p.StartTime != nil || p.EndTime != nil {
		if err := ValidateSchedule(next.StartTime, next.EndTime, now); err != nil {
			return err
		}
	}
	if p.Capacity != nil {
		if err := ValidateCapacity(*p.Capacity); err != nil {
			return err
		}
		delta := *p.Capacity - next.Capacity
		next.Capacity = *p.Capacity
		next.AvailableSeats = max(0, next.AvailableSeats+delta)
	}

	next.UpdatedAt = now.UTC()
	*e = next
	return nil
}

func (e *Event) DecreaseSeats(qty int, now time.Time) error {
	left, err := reserveSeats(e.AvailableSeats, qty)
	if err != nil {
		return err
	}
	e.AvailableSeats = left
	e.UpdatedAt = now.UTC()
	return nil
}

func (e *Event) IncreaseSeats(qty int, now time.Time) error {
	left, err := releaseSeats(e.AvailableSeats, e.Capacity, qty)
	if err != nil {
		return err
	}
	e.AvailableSeats = left
	e.UpdatedAt = now.UTC()
	return nil
}

func (e *Event) setTitle(v string) error {
	v = strings.TrimSpace(v)
	n := utf8.RuneCountInString(v)
	if n < MinTitleLen || n > MaxTitleLen {
		return ErrInvalidDataMeta("invalid title", map[string]string{"title": "must be 3..200 chars"})
	}
	e.Title = v
	return nil
}

func (e *Event) setDescription(v string) error {
	v = strings.TrimSpace(v)
	if utf8.RuneCountInString(v) > MaxDescriptionLen {
		return ErrInvalidDataMeta("invalid description", map[string]string{"description": "must be <= 2000 chars"})
	}
	e.Description = v
	return nil
}

func (e *Event) setLocation(v string) error {
	v = strings.TrimSpace(v)
	if v == "" || utf8.RuneCountInString(v) > MaxLocationLen {
		return ErrInvalidDataMeta("invalid location", map[string]string{"location": "required, <= 255 chars"})
	}
	e.Location = v
	return nil
}

func (e *Event) setCategory(c Category) error {
	if !c.Valid() {
		return ErrInvalidDataMeta("invalid category", map[string]string{"category": "unknown category"})
	}
	e.Category = c
	return nil
}

func (e *Event) setImageURL(v string) error {
	v = strings.TrimSpace(v)
	if utf8.RuneCountInString(v) > MaxImageURLLen {
		return ErrInvalidDataMeta("invalid image_url", map[string]string{"image_url": "must be <= 500 chars"})
	}
	e.ImageURL = v
	return nil
}
