package contracts

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	appCtx "github.com/baechuer/real-time-ressys/services/booking-service/internal/pkg/context"
)

const (
	EnvelopeVersion = 1
	Producer        = "booking-service"
)

// Routing keys on the topic exchange.
const (
	RKEventCreated   = "event.created"
	RKEventUpdated   = "event.updated"
	RKEventPublished = "event.published"
	RKEventStarted   = "event.started"
	RKEventCompleted = "event.completed"
	RKEventCanceled  = "event.canceled"
	RKEventDeleted   = "event.deleted"

	RKTicketBooked   = "ticket.booked"
	RKTicketCanceled = "ticket.canceled"
)

// DomainEventEnvelope is the stable contract for all domain events emitted by booking-service.
// Consumers should rely on version/producer/message_id/occurred_at + payload.
type DomainEventEnvelope[T any] struct {
	Version    int       `json:"version"`
	Producer   string    `json:"producer"`
	MessageID  string    `json:"message_id"`
	TraceID    string    `json:"trace_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    T         `json:"payload"`
}

// OutboxMessage is one durable row written in the same tx as the state change.
type OutboxMessage struct {
	MessageID  string
	RoutingKey string
	Body       []byte
	CreatedAt  time.Time
}

// NewOutboxMessage wraps payload in an envelope with a fresh message id.
// trace_id comes from the request id stored in ctx, if any.
func NewOutboxMessage[T any](ctx context.Context, routingKey string, payload T, now time.Time) (OutboxMessage, error) {
	messageID := uuid.NewString()
	env := DomainEventEnvelope[T]{
		Version:    EnvelopeVersion,
		Producer:   Producer,
		MessageID:  messageID,
		TraceID:    appCtx.GetRequestID(ctx),
		OccurredAt: now.UTC(),
		Payload:    payload,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return OutboxMessage{}, err
	}
	return OutboxMessage{
		MessageID:  messageID,
		RoutingKey: routingKey,
		Body:       body,
		CreatedAt:  now.UTC(),
	}, nil
}
