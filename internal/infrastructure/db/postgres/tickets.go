package postgres

import (
	"context"
	"database/sql"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/application/ticket"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/contracts"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
)

type TicketRepo struct {
	db *sql.DB
}

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

var _ ticket.TicketRepo = (*TicketRepo)(nil)

func scanInventory(row rowScanner) (*domain.SeatInventory, error) {
	var inv domain.SeatInventory
	if err := row.Scan(
		&inv.EventID, &inv.TotalSeats, &inv.RemainingSeats, &inv.Open, &inv.CreatedAt, &inv.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &inv, nil
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var t domain.Ticket
	var typ, status string
	if err := row.Scan(
		&t.ID, &t.EventID, &t.UserID, &typ, &t.PriceCents, &t.Currency, &t.RedemptionCode,
		&status, &t.CanceledAt, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.Type = domain.TicketType(typ)
	t.Status = domain.TicketStatus(status)
	return &t, nil
}

func (r *TicketRepo) GetInventory(ctx context.Context, eventID string) (*domain.SeatInventory, error) {
	inv, err := scanInventory(r.db.QueryRowContext(ctx, getInventorySQL, eventID))
	if err != nil {
		return nil, notFound(err, "inventory not found")
	}
	return inv, nil
}

func (r *TicketRepo) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	t, err := scanTicket(r.db.QueryRowContext(ctx, getTicketSQL, id))
	if err != nil {
		return nil, notFound(err, "ticket not found")
	}
	return t, nil
}

func (r *TicketRepo) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]*domain.Ticket, int, error) {
	return r.list(ctx, "user_id", userID, page, pageSize)
}

func (r *TicketRepo) ListByEvent(ctx context.Context, eventID string, page, pageSize int) ([]*domain.Ticket, int, error) {
	return r.list(ctx, "event_id", eventID, page, pageSize)
}

// list filters on column, which is always one of our own identifiers.
func (r *TicketRepo) list(ctx context.Context, column, value string, page, pageSize int) ([]*domain.Ticket, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE `+column+` = $1`, value,
	).Scan(&total); err != nil {
		if sqlState(err) == codeInvalidText {
			return []*domain.Ticket{}, 0, nil
		}
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+ticketColumns+` FROM tickets
WHERE `+column+` = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`, value, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []*domain.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *TicketRepo) WithTx(ctx context.Context, fn func(tr ticket.TxTicketRepo) error) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(&ticketTx{tx: tx})
	})
}

type ticketTx struct {
	tx *sql.Tx
}

func (t *ticketTx) GetInventoryForUpdate(ctx context.Context, eventID string) (*domain.SeatInventory, error) {
	inv, err := scanInventory(t.tx.QueryRowContext(ctx, getInventoryForUpdateSQL, eventID))
	if err != nil {
		return nil, notFound(err, "inventory not found")
	}
	return inv, nil
}

func (t *ticketTx) InsertInventory(ctx context.Context, inv *domain.SeatInventory) (bool, error) {
	res, err := t.tx.ExecContext(ctx, insertInventorySQL,
		inv.EventID, inv.TotalSeats, inv.RemainingSeats, inv.Open, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (t *ticketTx) UpdateInventory(ctx context.Context, inv *domain.SeatInventory) error {
	res, err := t.tx.ExecContext(ctx, updateInventorySQL,
		inv.EventID, inv.RemainingSeats, inv.Open, inv.UpdatedAt,
	)
	return expectOneRow(res, err, "inventory not found")
}

func (t *ticketTx) InsertTicket(ctx context.Context, tk *domain.Ticket) error {
	_, err := t.tx.ExecContext(ctx, insertTicketSQL,
		tk.ID, tk.EventID, tk.UserID, string(tk.Type), tk.PriceCents, tk.Currency, tk.RedemptionCode,
		string(tk.Status), tk.CanceledAt, tk.CreatedAt, tk.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrConflict("ticket already exists")
	}
	return err
}

func (t *ticketTx) GetTicketForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	tk, err := scanTicket(t.tx.QueryRowContext(ctx, getTicketForUpdateSQL, id))
	if err != nil {
		return nil, notFound(err, "ticket not found")
	}
	return tk, nil
}

func (t *ticketTx) UpdateTicket(ctx context.Context, tk *domain.Ticket) error {
	res, err := t.tx.ExecContext(ctx, updateTicketSQL, tk.ID, string(tk.Status), tk.CanceledAt, tk.UpdatedAt)
	return expectOneRow(res, err, "ticket not found")
}

func (t *ticketTx) InsertOutbox(ctx context.Context, msg contracts.OutboxMessage) error {
	return insertOutbox(ctx, t.tx, msg)
}
