package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/contracts"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
)

type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

var _ event.EventRepo = (*EventRepo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	var e domain.Event
	var status, category string
	if err := row.Scan(
		&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Location, &category, &e.ImageURL,
		&e.StartTime, &e.EndTime, &e.Capacity, &e.AvailableSeats, &status,
		&e.PublishedAt, &e.StartedAt, &e.CompletedAt, &e.CanceledAt, &e.CancelReason,
		&e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.Status = domain.EventStatus(status)
	e.Category = domain.Category(category)
	if !e.Status.Valid() {
		return nil, fmt.Errorf("event %s: invalid status %q in db", e.ID, status)
	}
	return &e, nil
}

func scanEvents(rows *sql.Rows) ([]*domain.Event, error) {
	defer rows.Close()
	out := []*domain.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, getEventSQL, id))
	if err != nil {
		return nil, notFound(err, "event not found")
	}
	return e, nil
}

func (r *EventRepo) List(ctx context.Context, f event.ListFilter) ([]*domain.Event, int, error) {
	where := []string{}
	args := []any{}
	argN := 1

	add := func(condFmt string, val any) {
		where = append(where, fmt.Sprintf(condFmt, argN))
		args = append(args, val)
		argN++
	}

	if f.Status == "" {
		where = append(where, "status <> 'draft'")
	} else {
		add("status = $%d", string(f.Status))
	}
	if f.Category != "" {
		add("category = $%d", string(f.Category))
	}
	if f.OrganizerID != "" {
		add("organizer_id = $%d", f.OrganizerID)
	}
	if f.Location != "" {
		add("location ILIKE $%d", "%"+escapeLike(f.Location)+"%")
	}
	if f.Query != "" {
		add("title ILIKE $%d", "%"+escapeLike(f.Query)+"%")
	}
	if f.From != nil {
		add("start_time >= $%d", *f.From)
	}
	if f.To != nil {
		add("end_time <= $%d", *f.To)
	}

	whereSQL := "WHERE " + strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events "+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, pageSize := f.Page, f.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	listSQL := `SELECT ` + eventColumns + ` FROM events ` + whereSQL +
		fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, argN, argN+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := scanEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func (r *EventRepo) ListUpcoming(ctx context.Context, now time.Time, limit int) ([]*domain.Event, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events
WHERE status = 'published' AND start_time > $1
ORDER BY start_time ASC, id ASC
LIMIT $2`, now, limit)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

func (r *EventRepo) ListOngoing(ctx context.Context, now time.Time, limit int) ([]*domain.Event, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events
WHERE status = 'ongoing'
   OR (status = 'published' AND start_time <= $1 AND end_time >= $1)
ORDER BY start_time ASC, id ASC
LIMIT $2`, now, limit)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

func (r *EventRepo) ListByOrganizer(ctx context.Context, organizerID string, status domain.EventStatus, page, pageSize int) ([]*domain.Event, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE organizer_id = $1 AND ($2 = '' OR status = $2)`,
		organizerID, string(status),
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events
WHERE organizer_id = $1 AND ($2 = '' OR status = $2)
ORDER BY created_at DESC, id DESC
LIMIT $3 OFFSET $4`, organizerID, string(status), pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	items, err := scanEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *EventRepo) CountByOrganizerAndStatus(ctx context.Context, organizerID string, status domain.EventStatus) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE organizer_id = $1 AND status = $2`,
		organizerID, string(status),
	).Scan(&n)
	return n, err
}

func (r *EventRepo) WithTx(ctx context.Context, fn func(tr event.TxEventRepo) error) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(&eventTx{tx: tx})
	})
}

type eventTx struct {
	tx *sql.Tx
}

func (t *eventTx) Insert(ctx context.Context, e *domain.Event) error {
	_, err := t.tx.ExecContext(ctx, insertEventSQL,
		e.ID, e.OrganizerID, e.Title, e.Description, e.Location, string(e.Category), e.ImageURL,
		e.StartTime, e.EndTime, e.Capacity, e.AvailableSeats, string(e.Status),
		e.PublishedAt, e.StartedAt, e.CompletedAt, e.CanceledAt, e.CancelReason,
		e.CreatedAt, e.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrConflict("event already exists")
	}
	return err
}

func (t *eventTx) GetByIDForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	e, err := scanEvent(t.tx.QueryRowContext(ctx, getEventForUpdateSQL, id))
	if err != nil {
		return nil, notFound(err, "event not found")
	}
	return e, nil
}

func (t *eventTx) Update(ctx context.Context, e *domain.Event) error {
	res, err := t.tx.ExecContext(ctx, updateEventSQL,
		e.ID,
		e.Title, e.Description, e.Location, string(e.Category), e.ImageURL,
		e.StartTime, e.EndTime, e.Capacity, e.AvailableSeats, string(e.Status),
		e.PublishedAt, e.StartedAt, e.CompletedAt, e.CanceledAt,
		e.CancelReason, e.UpdatedAt,
	)
	return expectOneRow(res, err, "event not found")
}

func (t *eventTx) Delete(ctx context.Context, id string) error {
	res, err := t.tx.ExecContext(ctx, deleteEventSQL, id)
	return expectOneRow(res, err, "event not found")
}

func (t *eventTx) InsertOutbox(ctx context.Context, msg contracts.OutboxMessage) error {
	return insertOutbox(ctx, t.tx, msg)
}
