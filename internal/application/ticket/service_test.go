package ticket_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/application/ticket"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/clock"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/contracts"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/infrastructure/memory"
)

var now = time.Date(2030, 3, 1, 10, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*ticket.Service, *memory.Store) {
	t.Helper()
	st := memory.NewStore()
	return ticket.New(st.Tickets(), clock.NewFixed(now), "eur"), st
}

func book(svc *ticket.Service, eventID, userID string) (*domain.Ticket, error) {
	return svc.BookTicket(context.Background(), ticket.BookCmd{
		EventID:    eventID,
		UserID:     userID,
		PriceCents: 2500,
	})
}

func TestOpenInventory_Idempotent(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	inv, err := svc.OpenInventory(ctx, "ev-1", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, inv.RemainingSeats)
	assert.True(t, inv.Open)

	_, err = book(svc, "ev-1", "u1")
	require.NoError(t, err)

	again, err := svc.OpenInventory(ctx, "ev-1", 50)
	require.NoError(t, err)
	assert.Equal(t, 10, again.TotalSeats)
	assert.Equal(t, 9, again.RemainingSeats)

	_, err = svc.OpenInventory(ctx, "ev-2", 0)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidData))
}

func TestBookTicket(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	_, err := svc.OpenInventory(ctx, "ev-1", 2)
	require.NoError(t, err)

	t.Run("books_with_default_currency", func(t *testing.T) {
		tk, err := book(svc, "ev-1", "u1")
		require.NoError(t, err)
		assert.Equal(t, domain.TicketReserved, tk.Status)
		assert.Equal(t, domain.TicketStandard, tk.Type)
		assert.Equal(t, "EUR", tk.Currency)
		assert.NotEmpty(t, tk.RedemptionCode)

		msgs := st.Outbox()
		require.Len(t, msgs, 1)
		assert.Equal(t, contracts.RKTicketBooked, msgs[0].RoutingKey)
	})

	t.Run("unknown_event", func(t *testing.T) {
		_, err := book(svc, "nope", "u1")
		assert.True(t, domain.IsCode(err, domain.CodeNotFound))
	})

	t.Run("invalid_input_keeps_seat", func(t *testing.T) {
		_, err := svc.BookTicket(ctx, ticket.BookCmd{EventID: "ev-1", UserID: "u1", Currency: "EURO"})
		assert.True(t, domain.IsCode(err, domain.CodeInvalidData))

		inv, err := svc.GetInventory(ctx, "ev-1")
		require.NoError(t, err)
		assert.Equal(t, 1, inv.RemainingSeats)
	})

	t.Run("sold_out", func(t *testing.T) {
		_, err := book(svc, "ev-1", "u2")
		require.NoError(t, err)

		_, err = book(svc, "ev-1", "u3")
		assert.True(t, domain.IsCode(err, domain.CodeInsufficientInventory))
		assert.Len(t, st.Outbox(), 2)
	})
}

func TestBookTicket_ClosedInventory(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.OpenInventory(ctx, "ev-1", 5)
	require.NoError(t, err)
	booked, err := book(svc, "ev-1", "u1")
	require.NoError(t, err)

	inv, err := svc.CloseInventory(ctx, "ev-1")
	require.NoError(t, err)
	assert.False(t, inv.Open)

	_, err = book(svc, "ev-1", "u2")
	assert.True(t, domain.IsCode(err, domain.CodeInvalidOperation))

	// cancellations still give seats back after close
	_, err = svc.CancelTicket(ctx, booked.ID, "u1", string(domain.RoleParticipant))
	require.NoError(t, err)
	inv, err = svc.GetInventory(ctx, "ev-1")
	require.NoError(t, err)
	assert.Equal(t, 5, inv.RemainingSeats)
}

func TestSoldOutThenCancelFreesOneSeat(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.OpenInventory(ctx, "ev-1", 100)
	require.NoError(t, err)

	var first *domain.Ticket
	for i := 0; i < 100; i++ {
		tk, err := book(svc, "ev-1", fmt.Sprintf("u%d", i))
		require.NoError(t, err)
		if first == nil {
			first = tk
		}
	}

	_, err = book(svc, "ev-1", "late")
	require.True(t, domain.IsCode(err, domain.CodeInsufficientInventory))

	_, err = svc.CancelTicket(ctx, first.ID, first.UserID, string(domain.RoleParticipant))
	require.NoError(t, err)

	inv, err := svc.GetInventory(ctx, "ev-1")
	require.NoError(t, err)
	assert.Equal(t, 1, inv.RemainingSeats)

	_, err = book(svc, "ev-1", "late")
	assert.NoError(t, err)
}

func TestBookTicket_ConcurrentNeverOversells(t *testing.T) {
	const (
		seats   = 20
		buyers  = 64
		eventID = "ev-hot"
	)
	svc, _ := newService(t)
	_, err := svc.OpenInventory(context.Background(), eventID, seats)
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		soldOut  int
		otherErr []error
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := book(svc, eventID, fmt.Sprintf("buyer-%d", i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case domain.IsCode(err, domain.CodeInsufficientInventory):
				soldOut++
			default:
				otherErr = append(otherErr, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Empty(t, otherErr)
	assert.Equal(t, seats, ok)
	assert.Equal(t, buyers-seats, soldOut)

	inv, err := svc.GetInventory(context.Background(), eventID)
	require.NoError(t, err)
	assert.Equal(t, 0, inv.RemainingSeats)

	page, err := svc.ListByEvent(context.Background(), eventID, string(domain.RoleAdmin), 1, 100)
	require.NoError(t, err)
	assert.Equal(t, seats, page.Total)
}

func TestCancelTicket(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	_, err := svc.OpenInventory(ctx, "ev-1", 3)
	require.NoError(t, err)
	tk, err := book(svc, "ev-1", "owner")
	require.NoError(t, err)

	t.Run("other_user_sees_not_found", func(t *testing.T) {
		_, err := svc.CancelTicket(ctx, tk.ID, "stranger", string(domain.RoleParticipant))
		assert.True(t, domain.IsCode(err, domain.CodeNotFound))

		got, err := svc.GetTicket(ctx, tk.ID, "owner", string(domain.RoleParticipant))
		require.NoError(t, err)
		assert.Equal(t, domain.TicketReserved, got.Status)
	})

	t.Run("owner_cancels", func(t *testing.T) {
		got, err := svc.CancelTicket(ctx, tk.ID, "owner", string(domain.RoleParticipant))
		require.NoError(t, err)
		assert.Equal(t, domain.TicketCanceled, got.Status)
		require.NotNil(t, got.CanceledAt)

		msgs := st.Outbox()
		assert.Equal(t, contracts.RKTicketCanceled, msgs[len(msgs)-1].RoutingKey)
	})

	t.Run("second_cancel_rejected_without_double_release", func(t *testing.T) {
		_, err := svc.CancelTicket(ctx, tk.ID, "admin", string(domain.RoleAdmin))
		assert.True(t, domain.IsCode(err, domain.CodeInvalidOperation))

		inv, err := svc.GetInventory(ctx, "ev-1")
		require.NoError(t, err)
		assert.Equal(t, 3, inv.RemainingSeats)
	})

	t.Run("missing_ticket", func(t *testing.T) {
		_, err := svc.CancelTicket(ctx, "nope", "owner", string(domain.RoleParticipant))
		assert.True(t, domain.IsCode(err, domain.CodeNotFound))
	})
}

func TestGetAndList(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.OpenInventory(ctx, "ev-1", 10)
	require.NoError(t, err)
	tk, err := book(svc, "ev-1", "owner")
	require.NoError(t, err)
	_, err = book(svc, "ev-1", "owner")
	require.NoError(t, err)

	got, err := svc.GetTicket(ctx, tk.ID, "owner", string(domain.RoleParticipant))
	require.NoError(t, err)
	assert.Equal(t, tk.ID, got.ID)

	_, err = svc.GetTicket(ctx, tk.ID, "stranger", string(domain.RoleParticipant))
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))

	page, err := svc.ListMine(ctx, "owner", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Items, 1)

	_, err = svc.ListMine(ctx, "", 1, 10)
	assert.True(t, domain.IsCode(err, domain.CodeForbidden))

	_, err = svc.ListByEvent(ctx, "ev-1", string(domain.RoleOrganizer), 1, 10)
	assert.True(t, domain.IsCode(err, domain.CodeForbidden))
}

func TestStopSales(t *testing.T) {
	ctx := context.Background()

	t.Run("closes_open_inventory", func(t *testing.T) {
		svc, _ := newService(t)
		_, err := svc.OpenInventory(ctx, "ev-1", 5)
		require.NoError(t, err)
		tk, err := book(svc, "ev-1", "u1")
		require.NoError(t, err)

		inv, err := svc.StopSales(ctx, "ev-1", 5)
		require.NoError(t, err)
		assert.False(t, inv.Open)
		assert.Equal(t, 4, inv.RemainingSeats)

		_, err = book(svc, "ev-1", "u2")
		assert.True(t, domain.IsCode(err, domain.CodeInvalidOperation))

		// cancellations still hand seats back
		_, err = svc.CancelTicket(ctx, tk.ID, "u1", string(domain.RoleParticipant))
		require.NoError(t, err)
		inv, err = svc.GetInventory(ctx, "ev-1")
		require.NoError(t, err)
		assert.Equal(t, 5, inv.RemainingSeats)
	})

	t.Run("canceled_before_published_stays_closed", func(t *testing.T) {
		svc, _ := newService(t)

		inv, err := svc.StopSales(ctx, "ev-2", 20)
		require.NoError(t, err)
		assert.False(t, inv.Open)

		// the late event.published must not reopen sales
		inv, err = svc.OpenInventory(ctx, "ev-2", 20)
		require.NoError(t, err)
		assert.False(t, inv.Open)

		_, err = book(svc, "ev-2", "u1")
		assert.True(t, domain.IsCode(err, domain.CodeInvalidOperation))
	})

	t.Run("is_idempotent", func(t *testing.T) {
		svc, _ := newService(t)
		_, err := svc.OpenInventory(ctx, "ev-3", 2)
		require.NoError(t, err)

		for i := 0; i < 2; i++ {
			inv, err := svc.StopSales(ctx, "ev-3", 2)
			require.NoError(t, err)
			assert.False(t, inv.Open)
			assert.Equal(t, 2, inv.RemainingSeats)
		}
	})
}
