package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/application/ticket"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/contracts"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
)

var now = time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

func newEvent(t *testing.T, organizerID, title string) *domain.Event {
	t.Helper()
	e, err := domain.NewDraft(organizerID, domain.EventFields{
		Title:       title,
		Description: "desc",
		Location:    "Berlin",
		Category:    domain.CategoryConcert,
		StartTime:   now.Add(48 * time.Hour),
		EndTime:     now.Add(50 * time.Hour),
		Capacity:    10,
	}, now)
	require.NoError(t, err)
	return e
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	s := NewStore()
	repo := s.Events()
	ctx := context.Background()
	e := newEvent(t, "org-1", "Rolled back")

	boom := errors.New("boom")
	err := repo.WithTx(ctx, func(tr event.TxEventRepo) error {
		require.NoError(t, tr.Insert(ctx, e))
		require.NoError(t, tr.InsertOutbox(ctx, contracts.OutboxMessage{MessageID: "m1", RoutingKey: contracts.RKEventCreated}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = repo.GetByID(ctx, e.ID)
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))
	assert.Empty(t, s.Outbox())
}

func TestWithTx_CommitsWritesAndOutbox(t *testing.T) {
	s := NewStore()
	repo := s.Events()
	ctx := context.Background()
	e := newEvent(t, "org-1", "Committed")

	err := repo.WithTx(ctx, func(tr event.TxEventRepo) error {
		if err := tr.Insert(ctx, e); err != nil {
			return err
		}
		got, err := tr.GetByIDForUpdate(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, e.Title, got.Title)
		return tr.InsertOutbox(ctx, contracts.OutboxMessage{MessageID: "m1", RoutingKey: contracts.RKEventCreated})
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Committed", got.Title)
	require.Len(t, s.Outbox(), 1)

	// returned values are copies
	got.Title = "mutated"
	again, _ := repo.GetByID(ctx, e.ID)
	assert.Equal(t, "Committed", again.Title)
}

func TestWithTx_DeleteThenGet(t *testing.T) {
	s := NewStore()
	repo := s.Events()
	ctx := context.Background()
	e := newEvent(t, "org-1", "Gone soon")
	require.NoError(t, repo.WithTx(ctx, func(tr event.TxEventRepo) error { return tr.Insert(ctx, e) }))

	err := repo.WithTx(ctx, func(tr event.TxEventRepo) error {
		require.NoError(t, tr.Delete(ctx, e.ID))
		_, err := tr.GetByIDForUpdate(ctx, e.ID)
		assert.True(t, domain.IsCode(err, domain.CodeNotFound))
		return nil
	})
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, e.ID)
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))
}

func TestEventRepo_ListFilters(t *testing.T) {
	s := NewStore()
	repo := s.Events()
	ctx := context.Background()

	draft := newEvent(t, "org-1", "Draft show")
	pub := newEvent(t, "org-1", "Jazz night")
	require.NoError(t, pub.Publish(now))
	other := newEvent(t, "org-2", "Rock night")
	require.NoError(t, other.Publish(now))
	for _, e := range []*domain.Event{draft, pub, other} {
		e := e
		require.NoError(t, repo.WithTx(ctx, func(tr event.TxEventRepo) error { return tr.Insert(ctx, e) }))
	}

	t.Run("drafts_hidden_without_status", func(t *testing.T) {
		items, total, err := repo.List(ctx, event.ListFilter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, items, 2)
	})

	t.Run("query_is_case_insensitive", func(t *testing.T) {
		items, total, err := repo.List(ctx, event.ListFilter{Query: "JAZZ", Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, pub.ID, items[0].ID)
	})

	t.Run("organizer_and_counts", func(t *testing.T) {
		items, total, err := repo.ListByOrganizer(ctx, "org-1", "", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, items, 2)

		n, err := repo.CountByOrganizerAndStatus(ctx, "org-1", domain.StatusDraft)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("upcoming", func(t *testing.T) {
		items, err := repo.ListUpcoming(ctx, now, 10)
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("page_past_end_is_empty", func(t *testing.T) {
		items, total, err := repo.List(ctx, event.ListFilter{Page: 5, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Empty(t, items)
	})
}

func TestTicketRepo_InsertInventoryIsIdempotent(t *testing.T) {
	s := NewStore()
	repo := s.Tickets()
	ctx := context.Background()

	inv, err := domain.NewSeatInventory("ev-1", 5, now)
	require.NoError(t, err)

	var created []bool
	for i := 0; i < 2; i++ {
		require.NoError(t, repo.WithTx(ctx, func(tr ticket.TxTicketRepo) error {
			ok, err := tr.InsertInventory(ctx, inv)
			created = append(created, ok)
			return err
		}))
	}
	assert.Equal(t, []bool{true, false}, created)

	got, err := repo.GetInventory(ctx, "ev-1")
	require.NoError(t, err)
	assert.Equal(t, 5, got.RemainingSeats)
}

func TestUserRepo_DuplicateEmailConflicts(t *testing.T) {
	repo := NewStore().Users()
	ctx := context.Background()

	a, err := domain.NewUser("Ada", "Lovelace", "ada@example.com", "hash", domain.RoleParticipant, now)
	require.NoError(t, err)
	b, err := domain.NewUser("Ada", "Clone", "ADA@example.com", "hash", domain.RoleParticipant, now)
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, a))
	err = repo.Create(ctx, b)
	assert.True(t, domain.IsCode(err, domain.CodeConflict))

	err = repo.Delete(ctx, "missing")
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))
}

func TestDrainOutbox_KeepsUnsentOnError(t *testing.T) {
	s := NewStore()
	repo := s.Tickets()
	ctx := context.Background()

	require.NoError(t, repo.WithTx(ctx, func(tr ticket.TxTicketRepo) error {
		for _, id := range []string{"m1", "m2", "m3"} {
			if err := tr.InsertOutbox(ctx, contracts.OutboxMessage{MessageID: id}); err != nil {
				return err
			}
		}
		return nil
	}))

	sent, err := s.DrainOutbox(func(m contracts.OutboxMessage) error {
		if m.MessageID == "m2" {
			return errors.New("broker down")
		}
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, 1, sent)

	left := s.Outbox()
	require.Len(t, left, 2)
	assert.Equal(t, "m2", left[0].MessageID)
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) PublishEvent(_ context.Context, routingKey, _ string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

func TestStartOutboxRelay_PublishesCommittedMessages(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Tickets().WithTx(ctx, func(tr ticket.TxTicketRepo) error {
		return tr.InsertOutbox(ctx, contracts.OutboxMessage{MessageID: "m1", RoutingKey: "ticket.booked"})
	}))

	pub := &recordingPublisher{}
	s.StartOutboxRelay(ctx, pub, 10*time.Millisecond)

	require.Eventually(t, func() bool { return len(pub.published()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"ticket.booked"}, pub.published())
	assert.Empty(t, s.Outbox())
}

func TestOutboxLimit_DropsOldest(t *testing.T) {
	s := NewStore(WithOutboxLimit(3))
	repo := s.Tickets()
	ctx := context.Background()

	for _, id := range []string{"m1", "m2", "m3", "m4", "m5"} {
		id := id
		require.NoError(t, repo.WithTx(ctx, func(tr ticket.TxTicketRepo) error {
			return tr.InsertOutbox(ctx, contracts.OutboxMessage{MessageID: id})
		}))
	}

	left := s.Outbox()
	require.Len(t, left, 3)
	assert.Equal(t, "m3", left[0].MessageID)
	assert.Equal(t, "m5", left[2].MessageID)

	// draining frees room again
	sent, err := s.DrainOutbox(func(contracts.OutboxMessage) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 3, sent)
	require.NoError(t, repo.WithTx(ctx, func(tr ticket.TxTicketRepo) error {
		return tr.InsertOutbox(ctx, contracts.OutboxMessage{MessageID: "m6"})
	}))
	assert.Len(t, s.Outbox(), 1)
}

func TestUserRepo_UpdateKeepsOwnEmail(t *testing.T) {
	repo := NewStore().Users()
	ctx := context.Background()

	u, err := domain.NewUser("Grace", "Hopper", "grace@example.com", "hash", domain.RoleParticipant, now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, u))

	u.FirstName = "Amazing Grace"
	require.NoError(t, repo.Update(ctx, u))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Amazing Grace", got.FirstName)

	require.NoError(t, repo.Delete(ctx, u.ID))
	_, err = repo.GetByID(ctx, u.ID)
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))
}
