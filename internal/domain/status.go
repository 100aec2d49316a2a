package domain

import "time"

type EventStatus string

const (
	StatusDraft     EventStatus = "draft"
	StatusPublished EventStatus = "published"
	StatusOngoing   EventStatus = "ongoing"
	StatusCompleted EventStatus = "completed"
	StatusCanceled  EventStatus = "canceled"
)

var AllStatuses = []EventStatus{StatusDraft, StatusPublished, StatusOngoing, StatusCompleted, StatusCanceled}

func (s EventStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusOngoing, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

func (s EventStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// Action is a lifecycle operation requested on an event.
type Action string

const (
	ActionPublish  Action = "publish"
	ActionStart    Action = "start"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
	ActionDelete   Action = "delete"
	ActionUpdate   Action = "update"
)

var AllActions = []Action{ActionPublish, ActionStart, ActionComplete, ActionCancel, ActionDelete, ActionUpdate}

// transitions maps action -> allowed source status -> resulting status.
// delete and update keep the status (delete removes the row afterwards).
var transitions = map[Action]map[EventStatus]EventStatus{
	ActionPublish: {
		StatusDraft: StatusPublished,
	},
	ActionStart: {
		StatusPublished: StatusOngoing,
	},
	ActionComplete: {
		StatusOngoing:   StatusCompleted,
		StatusPublished: StatusCompleted,
	},
	ActionCancel: {
		StatusDraft:     StatusCanceled,
		StatusPublished: StatusCanceled,
		StatusOngoing:   StatusCanceled,
	},
	ActionDelete: {
		StatusDraft: StatusDraft,
	},
	ActionUpdate: {
		StatusDraft:     StatusDraft,
		StatusPublished: StatusPublished,
	},
}

var transitionErrors = map[Action]string{
	ActionPublish:  "only a draft event can be published",
	ActionStart:    "only a published event can be started",
	ActionComplete: "only an ongoing or published event can be completed",
	ActionCancel:   "a completed or canceled event cannot be canceled",
	ActionDelete:   "only a draft event can be deleted",
	ActionUpdate:   "only a draft or published event can be modified",
}

// Transition returns the status reached by applying a to from.
// Every pair missing from the table fails with invalid_operation.
func Transition(from EventStatus, a Action) (EventStatus, error) {
	allowed, ok := transitions[a]
	if !ok {
		return from, ErrInvalidOperation("unknown action: " + string(a))
	}
	to, ok := allowed[from]
	if !ok {
		return from, &AppError{
			Code:    CodeInvalidOperation,
			Message: transitionErrors[a],
			Meta:    map[string]string{"status": string(from), "action": string(a)},
		}
	}
	return to, nil
}

func CheckTransition(from EventStatus, a Action) error {
	_, err := Transition(from, a)
	return err
}

func IsModifiable(s EventStatus) bool {
	return s == StatusDraft || s == StatusPublished
}

func IsCancellable(s EventStatus) bool {
	return !s.Terminal()
}

func IsBookable(s EventStatus, remaining int, start, now time.Time) bool {
	return s == StatusPublished && remaining > 0 && now.Before(start)
}
