package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	err  error
	sent []string
}

func (p *recordingPublisher) PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, routingKey+"/"+messageID)
	return nil
}

var claimCols = []string{"id", "message_id", "routing_key", "body", "attempts"}

func expectClaim(mock sqlmock.Sqlmock, rows *sqlmock.Rows, ids ...int64) {
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM event_outbox (.+) FOR UPDATE SKIP LOCKED").WithArgs(20).WillReturnRows(rows)
	for _, id := range ids {
		mock.ExpectExec("UPDATE event_outbox SET next_retry_at").WithArgs(id, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()
}

func TestOutboxWorker_ProcessBatch(t *testing.T) {
	t.Run("publishes_and_marks_sent", func(t *testing.T) {
		db, mock := newMock(t)
		pub := &recordingPublisher{}
		w := NewOutboxWorker(db, pub, time.Second, 20)

		expectClaim(mock, sqlmock.NewRows(claimCols).
			AddRow(int64(1), "m-1", "ticket.booked", []byte(`{}`), 0).
			AddRow(int64(2), "m-2", "ticket.canceled", []byte(`{}`), 3), 1, 2)
		mock.ExpectExec("SET status = 'sent'").WithArgs(int64(1), sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("SET status = 'sent'").WithArgs(int64(2), sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))

		n, err := w.ProcessBatch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, []string{"ticket.booked/m-1", "ticket.canceled/m-2"}, pub.sent)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty_batch", func(t *testing.T) {
		db, mock := newMock(t)
		w := NewOutboxWorker(db, &recordingPublisher{}, time.Second, 20)
		expectClaim(mock, sqlmock.NewRows(claimCols))

		n, err := w.ProcessBatch(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure_schedules_retry", func(t *testing.T) {
		db, mock := newMock(t)
		w := NewOutboxWorker(db, &recordingPublisher{err: errors.New("broker down")}, time.Second, 20)

		expectClaim(mock, sqlmock.NewRows(claimCols).AddRow(int64(7), "m-7", "event.published", []byte(`{}`), 2), 7)
		mock.ExpectExec("SET status = 'pending'").WithArgs(int64(7), sqlmock.AnyArg(), "broker down").
			WillReturnResult(sqlmock.NewResult(0, 1))

		_, err := w.ProcessBatch(context.Background())
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("last_attempt_goes_dead", func(t *testing.T) {
		db, mock := newMock(t)
		w := NewOutboxWorker(db, &recordingPublisher{err: errors.New("broker down")}, time.Second, 20)

		expectClaim(mock, sqlmock.NewRows(claimCols).AddRow(int64(9), "m-9", "event.published", []byte(`{}`), maxAttempts-1), 9)
		mock.ExpectExec("SET status = 'dead'").WithArgs(int64(9), "broker down").
			WillReturnResult(sqlmock.NewResult(0, 1))

		_, err := w.ProcessBatch(context.Background())
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestComputeNextRetry_Bounds(t *testing.T) {
	d0 := computeNextRetry(-1)
	assert.GreaterOrEqual(t, d0, 900*time.Millisecond)
	assert.LessOrEqual(t, d0, 1100*time.Millisecond)

	d3 := computeNextRetry(3)
	assert.GreaterOrEqual(t, d3, 7200*time.Millisecond)
	assert.LessOrEqual(t, d3, 8800*time.Millisecond)

	d20 := computeNextRetry(20)
	assert.GreaterOrEqual(t, d20, 540*time.Second)
	assert.LessOrEqual(t, d20, 660*time.Second)
}
