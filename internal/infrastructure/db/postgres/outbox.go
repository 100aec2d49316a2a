package postgres

import (
	"context"
	"database/sql"
	"math"
	"math/rand"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/metrics"
)

// Publisher delivers one outbox row to the broker.
type Publisher interface {
	PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error
}

type outboxRow struct {
	ID         int64
	MessageID  string
	RoutingKey string
	Body       []byte
	Attempts   int
}

// SKIP LOCKED lets several replicas drain the table without blocking each other.
const selectOutboxClaimsSQL = `
SELECT id, message_id, routing_key, body, attempts
FROM event_outbox
WHERE status = 'pending'
  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
ORDER BY next_retry_at ASC, created_at ASC
LIMIT $1
FOR UPDATE SKIP LOCKED
`

const updateOutboxClaimSQL = `
UPDATE event_outbox
SET next_retry_at = $2,
    status = 'processing'
WHERE id = $1
`

const markOutboxSentSQL = `
UPDATE event_outbox
SET status = 'sent',
    sent_at = $2,
    last_error = NULL
WHERE id = $1
`

const markOutboxFailedSQL = `
UPDATE event_outbox
SET status = 'pending',
    attempts = attempts + 1,
    next_retry_at = $2,
    last_error = $3
WHERE id = $1
`

const markOutboxDeadSQL = `
UPDATE event_outbox
SET status = 'dead',
    attempts = attempts + 1,
    last_error = $2
WHERE id = $1
`

// Rows stuck in 'processing' after a crash become pending again once the
// reservation expires.
const reclaimOutboxSQL = `
UPDATE event_outbox
SET status = 'pending'
WHERE status = 'processing' AND next_retry_at <= NOW()
`

const (
	maxAttempts       = 10
	claimReservation  = 30 * time.Second
	defaultBatchLimit = 20
)

type OutboxWorker struct {
	db       *sql.DB
	pub      Publisher
	interval time.Duration
	batch    int
}

func NewOutboxWorker(db *sql.DB, pub Publisher, interval time.Duration, batch int) *OutboxWorker {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if batch <= 0 {
		batch = defaultBatchLimit
	}
	return &OutboxWorker{db: db, pub: pub, interval: interval, batch: batch}
}

// Start polls until ctx is done. It returns immediately.
func (w *OutboxWorker) Start(ctx context.Context) {
	go func() {
		log := zlog.With().Str("component", "outbox_worker").Logger()

		// spread replicas that boot together
		time.Sleep(time.Duration(rand.Intn(1000)) * time.Millisecond)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		log.Info().Dur("interval", w.interval).Int("batch", w.batch).Msg("outbox worker started")
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("outbox worker stopped")
				return
			case <-ticker.C:
				if _, err := w.db.ExecContext(ctx, reclaimOutboxSQL); err != nil && ctx.Err() == nil {
					log.Warn().Err(err).Msg("outbox reclaim failed")
				}
				if _, err := w.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
					log.Error().Err(err).Msg("outbox batch failed")
				}
			}
		}
	}()
}

// ProcessBatch claims due rows in a short tx, then publishes each one
// outside any lock and records the result. It returns the number claimed.
func (w *OutboxWorker) ProcessBatch(ctx context.Context) (int, error) {
	batch, err := w.claim(ctx)
	if err != nil {
		return 0, err
	}
	for _, item := range batch {
		w.processSingleItem(ctx, item)
	}
	return len(batch), nil
}

func (w *OutboxWorker) claim(ctx context.Context) ([]outboxRow, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := w.db.BeginTx(claimCtx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(claimCtx, selectOutboxClaimsSQL, w.batch)
	if err != nil {
		return nil, err
	}
	var batch []outboxRow
	for rows.Next() {
		var item outboxRow
		if err := rows.Scan(&item.ID, &item.MessageID, &item.RoutingKey, &item.Body, &item.Attempts); err != nil {
			rows.Close()
			return nil, err
		}
		batch = append(batch, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(batch) == 0 {
		return nil, tx.Commit()
	}

	reservation := time.Now().UTC().Add(claimReservation)
	for _, item := range batch {
		if _, err := tx.ExecContext(claimCtx, updateOutboxClaimSQL, item.ID, reservation); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return batch, nil
}

func (w *OutboxWorker) processSingleItem(ctx context.Context, item outboxRow) {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err := w.pub.PublishEvent(pubCtx, item.RoutingKey, item.MessageID, item.Body)
	cancel()

	resCtx, cancelRes := context.WithTimeout(ctx, 3*time.Second)
	defer cancelRes()

	log := zlog.With().
		Str("component", "outbox_worker").
		Str("message_id", item.MessageID).
		Str("routing_key", item.RoutingKey).
		Logger()

	if err != nil {
		errMsg := err.Error()
		if item.Attempts+1 >= maxAttempts {
			if _, dbErr := w.db.ExecContext(resCtx, markOutboxDeadSQL, item.ID, errMsg); dbErr != nil {
				log.Error().Err(dbErr).Msg("mark outbox dead failed")
			}
			metrics.RecordOutbox("dead")
			log.Error().Err(err).Int("attempts", item.Attempts+1).Msg("outbox message dead")
			return
		}
		nextRetry := time.Now().UTC().Add(computeNextRetry(item.Attempts))
		if _, dbErr := w.db.ExecContext(resCtx, markOutboxFailedSQL, item.ID, nextRetry, errMsg); dbErr != nil {
			log.Error().Err(dbErr).Msg("mark outbox failed failed")
		}
		metrics.RecordOutbox("retry")
		log.Warn().Err(err).Time("next_retry_at", nextRetry).Msg("outbox publish failed")
		return
	}

	if _, dbErr := w.db.ExecContext(resCtx, markOutboxSentSQL, item.ID, time.Now().UTC()); dbErr != nil {
		// the row goes back to pending after the reservation; consumers dedupe on message_id
		log.Error().Err(dbErr).Msg("mark outbox sent failed")
	}
	metrics.RecordOutbox("sent")
}

// computeNextRetry is 2^attempt seconds, clamped to [1s, 10m], with +/-10% jitter.
func computeNextRetry(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	sec := math.Pow(2, float64(attempt))
	sec = math.Min(math.Max(sec, 1), 600)

	d := time.Duration(sec * float64(time.Second))
	j := time.Duration(rand.Int63n(int64(d/5))) - d/10
	return d + j
}
