package memory

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/contracts"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/metrics"
)

type Publisher interface {
	PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error
}

// StartOutboxRelay drains committed outbox messages to pub every interval.
// A failed publish keeps the message and the rest of the queue for the next tick.
func (s *Store) StartOutboxRelay(ctx context.Context, pub Publisher, interval time.Duration) {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	go func() {
		log := zlog.With().Str("component", "outbox_relay").Logger()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sent, err := s.DrainOutbox(func(m contracts.OutboxMessage) error {
					pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
					defer cancel()
					return pub.PublishEvent(pubCtx, m.RoutingKey, m.MessageID, m.Body)
				})
				for i := 0; i < sent; i++ {
					metrics.RecordOutbox("sent")
				}
				if err != nil {
					metrics.RecordOutbox("retry")
					log.Warn().Err(err).Msg("outbox publish failed")
				}
			}
		}
	}()
}
