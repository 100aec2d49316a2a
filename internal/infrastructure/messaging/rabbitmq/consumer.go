package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/contracts"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/metrics"
)

const (
	queueName      = "booking-service.event-lifecycle"
	retryQueueName = queueName + ".retry"
	dlqName        = queueName + ".dlq"
	dlxName        = "booking.dlx"

	maxRetries   = 3
	retryDelayMS = 5000
)

// InventoryService is what the consumer drives. *ticket.Service satisfies it.
type InventoryService interface {
	OpenInventory(ctx context.Context, eventID string, totalSeats int) (*domain.SeatInventory, error)
	StopSales(ctx context.Context, eventID string, totalSeats int) (*domain.SeatInventory, error)
}

// lifecycleKeys are the routing keys the consumer binds.
var lifecycleKeys = []string{
	contracts.RKEventPublished,
	contracts.RKEventStarted,
	contracts.RKEventCompleted,
	contracts.RKEventCanceled,
}

// retryPublisher is the part of *amqp.Channel used to reschedule a delivery.
type retryPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Consumer opens seat inventories on event.published and stops sales on
// event.started, event.completed and event.canceled.
type Consumer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	retry    retryPublisher
	queue    string
	exchange string
	svc      InventoryService
	log      zerolog.Logger
}

func NewConsumer(rabbitURL, exchange string, svc InventoryService) (*Consumer, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(rabbitURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := declareTopology(ch, exchange); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	if err := ch.Qos(16, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	return &Consumer{
		conn:     conn,
		channel:  ch,
		retry:    ch,
		queue:    queueName,
		exchange: exchange,
		svc:      svc,
		log:      zlog.With().Str("component", "lifecycle_consumer").Logger(),
	}, nil
}

// declareTopology: main queue dead-letters into the DLQ; the retry queue
// holds messages for retryDelayMS and then routes them back to the main queue.
func declareTopology(ch *amqp.Channel, exchange string) error {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	if err := ch.ExchangeDeclare(dlxName, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dlx: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dlq: %w", err)
	}
	if err := ch.QueueBind(dlqName, "", dlxName, false, nil); err != nil {
		return fmt.Errorf("failed to bind dlq: %w", err)
	}

	q, err := ch.QueueDeclare(queueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange": dlxName,
	})
	if err != nil {
		return fmt.Errorf("failed to declare main queue: %w", err)
	}
	if _, err := ch.QueueDeclare(retryQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": queueName,
		"x-message-ttl":             int32(retryDelayMS),
	}); err != nil {
		return fmt.Errorf("failed to declare retry queue: %w", err)
	}

	for _, key := range lifecycleKeys {
		if err := ch.QueueBind(q.Name, key, exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue to %s: %w", key, err)
		}
	}
	return nil
}

// Start consumes in the background until ctx is done.
func (c *Consumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	c.log.Info().Str("queue", c.queue).Str("exchange", c.exchange).Msg("event lifecycle consumer started")

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.log.Info().Msg("consumer shutting down")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.log.Warn().Msg("consumer channel closed")
					return
				}
				c.handleMessage(ctx, msg)
			}
		}
	}()
	return nil
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// errPoison marks a message that can never succeed.
var errPoison = errors.New("poison message")

func effectiveRoutingKey(msg amqp.Delivery) string {
	if v, ok := msg.Headers["x-original-routing-key"].(string); ok && v != "" {
		return v
	}
	return msg.RoutingKey
}

func retryCount(msg amqp.Delivery) int {
	switch v := msg.Headers["x-retry-count"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func (c *Consumer) handleMessage(parent context.Context, msg amqp.Delivery) {
	routingKey := effectiveRoutingKey(msg)
	log := c.log.With().Str("routing_key", routingKey).Str("message_id", msg.MessageId).Logger()

	ctx, cancel := context.WithTimeout(parent, 5*time.Second)
	defer cancel()

	err := dispatch(ctx, c.svc, routingKey, msg.Body)
	switch {
	case err == nil:
		metrics.RecordConsumed(routingKey, "ok")
		_ = msg.Ack(false)

	case errors.Is(err, errPoison):
		log.Error().Err(err).Msg("poison message, sending to DLQ")
		metrics.RecordConsumed(routingKey, "dlq")
		_ = msg.Nack(false, false)

	case domain.IsCode(err, domain.CodeNotFound):
		log.Warn().Err(err).Msg("target not found, dropping message")
		metrics.RecordConsumed(routingKey, "dropped")
		_ = msg.Ack(false)

	case domain.CodeOf(err) != "":
		// business rejection, retrying cannot change the outcome
		log.Error().Err(err).Msg("message rejected, sending to DLQ")
		metrics.RecordConsumed(routingKey, "dlq")
		_ = msg.Nack(false, false)

	default:
		c.retryOrDeadLetter(ctx, msg, routingKey, err, log)
	}
}

func (c *Consumer) retryOrDeadLetter(ctx context.Context, msg amqp.Delivery, routingKey string, cause error, log zerolog.Logger) {
	n := retryCount(msg)
	if n >= maxRetries {
		log.Error().Err(cause).Int("retry_count", n).Msg("max retries reached, sending to DLQ")
		metrics.RecordConsumed(routingKey, "dlq")
		_ = msg.Nack(false, false)
		return
	}

	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers["x-retry-count"] = int32(n + 1)
	headers["x-original-routing-key"] = routingKey

	pubErr := c.retry.PublishWithContext(ctx, "", retryQueueName, false, false, amqp.Publishing{
		ContentType:  msg.ContentType,
		DeliveryMode: amqp.Persistent,
		Body:         msg.Body,
		Headers:      headers,
		MessageId:    msg.MessageId,
	})
	if pubErr != nil {
		log.Error().Err(pubErr).Msg("failed to publish to retry queue")
		metrics.RecordConsumed(routingKey, "dlq")
		_ = msg.Nack(false, false)
		return
	}

	log.Warn().Err(cause).Int("retry_count", n+1).Msg("processing failed, scheduled retry")
	metrics.RecordConsumed(routingKey, "retry")
	_ = msg.Ack(false)
}

// dispatch decodes the envelope for routingKey and applies it. Unknown keys are a no-op.
func dispatch(ctx context.Context, svc InventoryService, routingKey string, body []byte) error {
	switch routingKey {
	case contracts.RKEventPublished:
		var env contracts.DomainEventEnvelope[contracts.EventPayload]
		if err := json.Unmarshal(body, &env); err != nil {
			return fmt.Errorf("%w: %v", errPoison, err)
		}
		eventID := strings.TrimSpace(env.Payload.EventID)
		if eventID == "" || env.Payload.Capacity <= 0 {
			return fmt.Errorf("%w: event_id and positive capacity required", errPoison)
		}
		_, err := svc.OpenInventory(ctx, eventID, env.Payload.Capacity)
		return err

	case contracts.RKEventStarted, contracts.RKEventCompleted:
		// once the event is under way it is no longer bookable
		var env contracts.DomainEventEnvelope[contracts.EventPayload]
		if err := json.Unmarshal(body, &env); err != nil {
			return fmt.Errorf("%w: %v", errPoison, err)
		}
		eventID := strings.TrimSpace(env.Payload.EventID)
		if eventID == "" {
			return fmt.Errorf("%w: event_id required", errPoison)
		}
		_, err := svc.StopSales(ctx, eventID, env.Payload.Capacity)
		return err

	case contracts.RKEventCanceled:
		var env contracts.DomainEventEnvelope[contracts.EventCanceledPayload]
		if err := json.Unmarshal(body, &env); err != nil {
			return fmt.Errorf("%w: %v", errPoison, err)
		}
		eventID := strings.TrimSpace(env.Payload.EventID)
		if eventID == "" {
			return fmt.Errorf("%w: event_id required", errPoison)
		}
		// may arrive before event.published; StopSales leaves a closed row
		_, err := svc.StopSales(ctx, eventID, env.Payload.Capacity)
		return err

	default:
		return nil
	}
}
