package rabbitmq

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/application/ticket"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/clock"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/contracts"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/infrastructure/memory"
)

type MockInventory struct {
	mock.Mock
}

func (m *MockInventory) OpenInventory(ctx context.Context, eventID string, totalSeats int) (*domain.SeatInventory, error) {
	args := m.Called(ctx, eventID, totalSeats)
	inv, _ := args.Get(0).(*domain.SeatInventory)
	return inv, args.Error(1)
}

func (m *MockInventory) StopSales(ctx context.Context, eventID string, totalSeats int) (*domain.SeatInventory, error) {
	args := m.Called(ctx, eventID, totalSeats)
	inv, _ := args.Get(0).(*domain.SeatInventory)
	return inv, args.Error(1)
}

type fakeAck struct {
	acked   int
	nacked  int
	requeue bool
}

func (a *fakeAck) Ack(tag uint64, multiple bool) error { a.acked++; return nil }
func (a *fakeAck) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked++
	a.requeue = requeue
	return nil
}
func (a *fakeAck) Reject(tag uint64, requeue bool) error { a.nacked++; return nil }

type fakeRetry struct {
	err       error
	published []amqp.Publishing
	keys      []string
}

func (r *fakeRetry) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if r.err != nil {
		return r.err
	}
	r.keys = append(r.keys, key)
	r.published = append(r.published, msg)
	return nil
}

func newTestConsumer(svc InventoryService, retry retryPublisher) *Consumer {
	return &Consumer{
		retry:    retry,
		queue:    queueName,
		exchange: DefaultExchange,
		svc:      svc,
		log:      zerolog.New(io.Discard),
	}
}

func envelope(t *testing.T, payload any) []byte {
	t.Helper()
	msg, err := contracts.NewOutboxMessage(context.Background(), "", payload, time.Now())
	require.NoError(t, err)
	return msg.Body
}

func delivery(ack *fakeAck, rk string, body []byte, headers amqp.Table) amqp.Delivery {
	return amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  1,
		RoutingKey:   rk,
		MessageId:    "m-1",
		Body:         body,
		Headers:      headers,
	}
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("published_opens_inventory", func(t *testing.T) {
		svc := new(MockInventory)
		svc.On("OpenInventory", ctx, "ev-1", 120).Return(&domain.SeatInventory{EventID: "ev-1"}, nil).Once()

		body := envelope(t, contracts.EventPayload{EventID: "ev-1", Capacity: 120, Status: "published"})
		require.NoError(t, dispatch(ctx, svc, contracts.RKEventPublished, body))
		svc.AssertExpectations(t)
	})

	t.Run("canceled_stops_sales", func(t *testing.T) {
		svc := new(MockInventory)
		svc.On("StopSales", ctx, "ev-1", 80).Return(&domain.SeatInventory{EventID: "ev-1"}, nil).Once()

		body := envelope(t, contracts.EventCanceledPayload{EventID: "ev-1", Capacity: 80, Reason: "rain"})
		require.NoError(t, dispatch(ctx, svc, contracts.RKEventCanceled, body))
		svc.AssertExpectations(t)
	})

	t.Run("started_stops_sales", func(t *testing.T) {
		svc := new(MockInventory)
		svc.On("StopSales", ctx, "ev-1", 120).Return(&domain.SeatInventory{EventID: "ev-1"}, nil).Once()

		body := envelope(t, contracts.EventPayload{EventID: "ev-1", Capacity: 120, Status: "ongoing"})
		require.NoError(t, dispatch(ctx, svc, contracts.RKEventStarted, body))
		svc.AssertExpectations(t)
	})

	t.Run("completed_stops_sales", func(t *testing.T) {
		svc := new(MockInventory)
		svc.On("StopSales", ctx, "ev-1", 120).Return(&domain.SeatInventory{EventID: "ev-1"}, nil).Once()

		body := envelope(t, contracts.EventPayload{EventID: "ev-1", Capacity: 120, Status: "completed"})
		require.NoError(t, dispatch(ctx, svc, contracts.RKEventCompleted, body))
		svc.AssertExpectations(t)
	})

	t.Run("completed_without_event_id_is_poison", func(t *testing.T) {
		body := envelope(t, contracts.EventPayload{Capacity: 5})
		err := dispatch(ctx, new(MockInventory), contracts.RKEventCompleted, body)
		assert.ErrorIs(t, err, errPoison)
	})

	t.Run("bad_json_is_poison", func(t *testing.T) {
		err := dispatch(ctx, new(MockInventory), contracts.RKEventPublished, []byte("{"))
		assert.ErrorIs(t, err, errPoison)
	})

	t.Run("missing_capacity_is_poison", func(t *testing.T) {
		body := envelope(t, contracts.EventPayload{EventID: "ev-1"})
		err := dispatch(ctx, new(MockInventory), contracts.RKEventPublished, body)
		assert.ErrorIs(t, err, errPoison)
	})

	t.Run("unknown_key_is_ignored", func(t *testing.T) {
		svc := new(MockInventory)
		assert.NoError(t, dispatch(ctx, svc, "event.updated", []byte("{}")))
		svc.AssertNotCalled(t, "OpenInventory", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestHandleMessage(t *testing.T) {
	published := func(t *testing.T) []byte {
		return envelope(t, contracts.EventPayload{EventID: "ev-1", Capacity: 10})
	}

	t.Run("success_acks", func(t *testing.T) {
		svc := new(MockInventory)
		svc.On("OpenInventory", mock.Anything, "ev-1", 10).Return(&domain.SeatInventory{}, nil)
		ack := &fakeAck{}

		newTestConsumer(svc, &fakeRetry{}).handleMessage(context.Background(), delivery(ack, contracts.RKEventPublished, published(t), nil))
		assert.Equal(t, 1, ack.acked)
		assert.Zero(t, ack.nacked)
	})

	t.Run("not_found_is_dropped", func(t *testing.T) {
		svc := new(MockInventory)
		svc.On("StopSales", mock.Anything, "ev-9", 0).Return(nil, domain.ErrNotFound("inventory not found"))
		ack := &fakeAck{}
		body := envelope(t, contracts.EventCanceledPayload{EventID: "ev-9"})

		newTestConsumer(svc, &fakeRetry{}).handleMessage(context.Background(), delivery(ack, contracts.RKEventCanceled, body, nil))
		assert.Equal(t, 1, ack.acked)
	})

	t.Run("poison_goes_to_dlq", func(t *testing.T) {
		ack := &fakeAck{}
		newTestConsumer(new(MockInventory), &fakeRetry{}).handleMessage(context.Background(), delivery(ack, contracts.RKEventPublished, []byte("nope"), nil))
		assert.Equal(t, 1, ack.nacked)
		assert.False(t, ack.requeue)
	})

	t.Run("transient_error_schedules_retry", func(t *testing.T) {
		svc := new(MockInventory)
		svc.On("OpenInventory", mock.Anything, "ev-1", 10).Return(nil, errors.New("db down"))
		ack := &fakeAck{}
		retry := &fakeRetry{}

		newTestConsumer(svc, retry).handleMessage(context.Background(), delivery(ack, contracts.RKEventPublished, published(t), nil))

		assert.Equal(t, 1, ack.acked)
		require.Len(t, retry.published, 1)
		assert.Equal(t, retryQueueName, retry.keys[0])
		assert.Equal(t, int32(1), retry.published[0].Headers["x-retry-count"])
		assert.Equal(t, contracts.RKEventPublished, retry.published[0].Headers["x-original-routing-key"])
	})

	t.Run("retried_delivery_keeps_original_key", func(t *testing.T) {
		svc := new(MockInventory)
		svc.On("OpenInventory", mock.Anything, "ev-1", 10).Return(&domain.SeatInventory{}, nil)
		ack := &fakeAck{}
		headers := amqp.Table{"x-retry-count": int32(1), "x-original-routing-key": contracts.RKEventPublished}

		newTestConsumer(svc, &fakeRetry{}).handleMessage(context.Background(), delivery(ack, retryQueueName, published(t), headers))
		assert.Equal(t, 1, ack.acked)
		svc.AssertExpectations(t)
	})

	t.Run("max_retries_goes_to_dlq", func(t *testing.T) {
		svc := new(MockInventory)
		svc.On("OpenInventory", mock.Anything, "ev-1", 10).Return(nil, errors.New("db down"))
		ack := &fakeAck{}
		retry := &fakeRetry{}
		headers := amqp.Table{"x-retry-count": int32(maxRetries)}

		newTestConsumer(svc, retry).handleMessage(context.Background(), delivery(ack, contracts.RKEventPublished, published(t), headers))
		assert.Equal(t, 1, ack.nacked)
		assert.Empty(t, retry.published)
	})

	t.Run("retry_publish_failure_goes_to_dlq", func(t *testing.T) {
		svc := new(MockInventory)
		svc.On("OpenInventory", mock.Anything, "ev-1", 10).Return(nil, errors.New("db down"))
		ack := &fakeAck{}

		newTestConsumer(svc, &fakeRetry{err: errors.New("channel closed")}).handleMessage(context.Background(), delivery(ack, contracts.RKEventPublished, published(t), nil))
		assert.Equal(t, 1, ack.nacked)
	})
}

func TestDispatch_LifecycleOrderAgainstTicketService(t *testing.T) {
	ctx := context.Background()
	newSvc := func() *ticket.Service {
		return ticket.New(memory.NewStore().Tickets(), clock.NewFixed(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)), "eur")
	}
	published := envelope(t, contracts.EventPayload{EventID: "ev-1", Capacity: 10, Status: "published"})
	bookErr := func(svc *ticket.Service) error {
		_, err := svc.BookTicket(ctx, ticket.BookCmd{EventID: "ev-1", UserID: "u1", PriceCents: 100})
		return err
	}

	t.Run("canceled_before_published_keeps_sales_closed", func(t *testing.T) {
		svc := newSvc()
		canceled := envelope(t, contracts.EventCanceledPayload{EventID: "ev-1", Capacity: 10})

		require.NoError(t, dispatch(ctx, svc, contracts.RKEventCanceled, canceled))
		require.NoError(t, dispatch(ctx, svc, contracts.RKEventPublished, published))

		inv, err := svc.GetInventory(ctx, "ev-1")
		require.NoError(t, err)
		assert.False(t, inv.Open)
		assert.True(t, domain.IsCode(bookErr(svc), domain.CodeInvalidOperation))
	})

	t.Run("completed_event_stops_booking", func(t *testing.T) {
		svc := newSvc()
		require.NoError(t, dispatch(ctx, svc, contracts.RKEventPublished, published))
		require.NoError(t, bookErr(svc))

		completed := envelope(t, contracts.EventPayload{EventID: "ev-1", Capacity: 10, Status: "completed"})
		require.NoError(t, dispatch(ctx, svc, contracts.RKEventCompleted, completed))
		assert.True(t, domain.IsCode(bookErr(svc), domain.CodeInvalidOperation))
	})

	t.Run("started_event_stops_booking", func(t *testing.T) {
		svc := newSvc()
		require.NoError(t, dispatch(ctx, svc, contracts.RKEventPublished, published))

		started := envelope(t, contracts.EventPayload{EventID: "ev-1", Capacity: 10, Status: "ongoing"})
		require.NoError(t, dispatch(ctx, svc, contracts.RKEventStarted, started))
		assert.True(t, domain.IsCode(bookErr(svc), domain.CodeInvalidOperation))
	})
}

func TestLifecycleKeys_BindEverySalesTransition(t *testing.T) {
	assert.ElementsMatch(t, []string{
		contracts.RKEventPublished,
		contracts.RKEventStarted,
		contracts.RKEventCompleted,
		contracts.RKEventCanceled,
	}, lifecycleKeys)
}

func TestPublishEvent_RejectsBadInput(t *testing.T) {
	p := &Publisher{exchange: DefaultExchange}
	assert.Error(t, p.PublishEvent(context.Background(), "", "m-1", nil))
	assert.Error(t, p.PublishEvent(context.Background(), "event.created", " ", nil))
}
