package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransition_TableIsTotal(t *testing.T) {
	allowed := map[Action]map[EventStatus]EventStatus{
		ActionPublish:  {StatusDraft: StatusPublished},
		ActionStart:    {StatusPublished: StatusOngoing},
		ActionComplete: {StatusOngoing: StatusCompleted, StatusPublished: StatusCompleted},
		ActionCancel:   {StatusDraft: StatusCanceled, StatusPublished: StatusCanceled, StatusOngoing: StatusCanceled},
		ActionDelete:   {StatusDraft: StatusDraft},
		ActionUpdate:   {StatusDraft: StatusDraft, StatusPublished: StatusPublished},
	}

	for _, a := range AllActions {
		for _, s := range AllStatuses {
			t.Run(string(a)+"_from_"+string(s), func(t *testing.T) {
				got, err := Transition(s, a)
				want, ok := allowed[a][s]
				if ok {
					assert.NoError(t, err)
					assert.Equal(t, want, got)
					return
				}
				assert.True(t, IsCode(err, CodeInvalidOperation))
				assert.Equal(t, s, got, "status must stay unchanged")
			})
		}
	}
}

func TestTransition_UnknownAction(t *testing.T) {
	_, err := Transition(StatusDraft, Action("teleport"))
	assert.True(t, IsCode(err, CodeInvalidOperation))
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		status      EventStatus
		modifiable  bool
		cancellable bool
	}{
		{StatusDraft, true, true},
		{StatusPublished, true, true},
		{StatusOngoing, false, true},
		{StatusCompleted, false, false},
		{StatusCanceled, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.modifiable, IsModifiable(tt.status))
			assert.Equal(t, tt.cancellable, IsCancellable(tt.status))
		})
	}
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("  Concert ")
	assert.NoError(t, err)
	assert.Equal(t, CategoryConcert, c)

	_, err = ParseCategory("rave")
	assert.True(t, IsCode(err, CodeInvalidData))
}
