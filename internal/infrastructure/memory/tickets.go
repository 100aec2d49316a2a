package memory

import (
	"context"

	memdb "github.com/hashicorp/go-memdb"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/application/ticket"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/contracts"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
)

type TicketRepo struct {
	s *Store
}

var _ ticket.TicketRepo = (*TicketRepo)(nil)

func (r *TicketRepo) GetInventory(ctx context.Context, eventID string) (*domain.SeatInventory, error) {
	var out *domain.SeatInventory
	err := r.s.read(func(tx *memdb.Txn) error {
		obj, err := tx.First(tableInventories, "id", eventID)
		if err != nil {
			return err
		}
		if obj == nil {
			return domain.ErrNotFound("inventory not found")
		}
		inv := *obj.(*domain.SeatInventory)
		out = &inv
		return nil
	})
	return out, err
}

func (r *TicketRepo) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	var out *domain.Ticket
	err := r.s.read(func(tx *memdb.Txn) error {
		obj, err := tx.First(tableTickets, "id", id)
		if err != nil {
			return err
		}
		if obj == nil {
			return domain.ErrNotFound("ticket not found")
		}
		t := *obj.(*domain.Ticket)
		out = &t
		return nil
	})
	return out, err
}

func (r *TicketRepo) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]*domain.Ticket, int, error) {
	return r.list("user", userID, page, pageSize)
}

func (r *TicketRepo) ListByEvent(ctx context.Context, eventID string, page, pageSize int) ([]*domain.Ticket, int, error) {
	return r.list("event", eventID, page, pageSize)
}

func (r *TicketRepo) list(index, key string, page, pageSize int) ([]*domain.Ticket, int, error) {
	var out []*domain.Ticket
	err := r.s.read(func(tx *memdb.Txn) error {
		it, err := tx.Get(tableTickets, index, key)
		if err != nil {
			return err
		}
		out = collect[domain.Ticket](it, nil)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sortNewestFirst(out,
		func(t *domain.Ticket) int64 { return t.CreatedAt.UnixNano() },
		func(t *domain.Ticket) string { return t.ID })
	return paginate(out, page, pageSize), len(out), nil
}

func (r *TicketRepo) WithTx(ctx context.Context, fn func(tr ticket.TxTicketRepo) error) error {
	return r.s.withTx(ctx, func(t *txn) error {
		return fn(&ticketTx{t: t})
	})
}

type ticketTx struct {
	t *txn
}

func (x *ticketTx) GetInventoryForUpdate(ctx context.Context, eventID string) (*domain.SeatInventory, error) {
	obj, err := x.t.first(tableInventories, eventID)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, domain.ErrNotFound("inventory not found")
	}
	inv := *obj.(*domain.SeatInventory)
	return &inv, nil
}

func (x *ticketTx) InsertInventory(ctx context.Context, inv *domain.SeatInventory) (bool, error) {
	obj, err := x.t.first(tableInventories, inv.EventID)
	if err != nil {
		return false, err
	}
	if obj != nil {
		return false, nil
	}
	cp := *inv
	return true, x.t.insert(tableInventories, &cp)
}

func (x *ticketTx) UpdateInventory(ctx context.Context, inv *domain.SeatInventory) error {
	if _, err := x.GetInventoryForUpdate(ctx, inv.EventID); err != nil {
		return err
	}
	cp := *inv
	return x.t.insert(tableInventories, &cp)
}

func (x *ticketTx) InsertTicket(ctx context.Context, tk *domain.Ticket) error {
	obj, err := x.t.first(tableTickets, tk.ID)
	if err != nil {
		return err
	}
	if obj != nil {
		return domain.ErrConflict("ticket already exists")
	}
	cp := *tk
	return x.t.insert(tableTickets, &cp)
}

func (x *ticketTx) GetTicketForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	obj, err := x.t.first(tableTickets, id)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, domain.ErrNotFound("ticket not found")
	}
	tk := *obj.(*domain.Ticket)
	return &tk, nil
}

func (x *ticketTx) UpdateTicket(ctx context.Context, tk *domain.Ticket) error {
	if _, err := x.GetTicketForUpdate(ctx, tk.ID); err != nil {
		return err
	}
	cp := *tk
	return x.t.insert(tableTickets, &cp)
}

func (x *ticketTx) InsertOutbox(ctx context.Context, msg contracts.OutboxMessage) error {
	return x.t.insertOutbox(msg)
}
