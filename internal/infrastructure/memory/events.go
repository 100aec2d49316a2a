package memory

import (
	"context"
	"sort"
	"time"

	memdb "github.com/hashicorp/go-memdb"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/contracts"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
)

type EventRepo struct {
	s *Store
}

var _ event.EventRepo = (*EventRepo)(nil)

func (r *EventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	var out *domain.Event
	err := r.s.read(func(tx *memdb.Txn) error {
		obj, err := tx.First(tableEvents, "id", id)
		if err != nil {
			return err
		}
		if obj == nil {
			return domain.ErrNotFound("event not found")
		}
		e := *obj.(*domain.Event)
		out = &e
		return nil
	})
	return out, err
}

func (r *EventRepo) scan(index string, args []any, keep func(*domain.Event) bool) ([]*domain.Event, error) {
	var out []*domain.Event
	err := r.s.read(func(tx *memdb.Txn) error {
		it, err := tx.Get(tableEvents, index, args...)
		if err != nil {
			return err
		}
		out = collect(it, keep)
		return nil
	})
	return out, err
}

func (r *EventRepo) List(ctx context.Context, f event.ListFilter) ([]*domain.Event, int, error) {
	index, args := "id", []any{}
	switch {
	case f.OrganizerID != "":
		index, args = "organizer", []any{f.OrganizerID}
	case f.Status != "":
		index, args = "status", []any{string(f.Status)}
	}
	out, err := r.scan(index, args, func(e *domain.Event) bool { return matches(e, f) })
	if err != nil {
		return nil, 0, err
	}
	sortNewestFirst(out,
		func(e *domain.Event) int64 { return e.CreatedAt.UnixNano() },
		func(e *domain.Event) string { return e.ID })
	return paginate(out, f.Page, f.PageSize), len(out), nil
}

func matches(e *domain.Event, f event.ListFilter) bool {
	if f.Status == "" && e.Status == domain.StatusDraft {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.OrganizerID != "" && e.OrganizerID != f.OrganizerID {
		return false
	}
	if f.Location != "" && !containsFold(e.Location, f.Location) {
		return false
	}
	if f.Query != "" && !containsFold(e.Title, f.Query) {
		return false
	}
	if f.From != nil && e.StartTime.Before(*f.From) {
		return false
	}
	if f.To != nil && e.EndTime.After(*f.To) {
		return false
	}
	return true
}

func (r *EventRepo) ListUpcoming(ctx context.Context, now time.Time, limit int) ([]*domain.Event, error) {
	out, err := r.scan("status", []any{string(domain.StatusPublished)}, func(e *domain.Event) bool {
		return e.StartTime.After(now)
	})
	if err != nil {
		return nil, err
	}
	return byStart(out, limit), nil
}

func (r *EventRepo) ListOngoing(ctx context.Context, now time.Time, limit int) ([]*domain.Event, error) {
	out, err := r.scan("id", nil, func(e *domain.Event) bool {
		if e.Status == domain.StatusOngoing {
			return true
		}
		return e.Status == domain.StatusPublished && !e.StartTime.After(now) && !e.EndTime.Before(now)
	})
	if err != nil {
		return nil, err
	}
	return byStart(out, limit), nil
}

func byStart(out []*domain.Event, limit int) []*domain.Event {
	if out == nil {
		out = []*domain.Event{}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *EventRepo) ListByOrganizer(ctx context.Context, organizerID string, status domain.EventStatus, page, pageSize int) ([]*domain.Event, int, error) {
	out, err := r.scan("organizer", []any{organizerID}, func(e *domain.Event) bool {
		return status == "" || e.Status == status
	})
	if err != nil {
		return nil, 0, err
	}
	sortNewestFirst(out,
		func(e *domain.Event) int64 { return e.CreatedAt.UnixNano() },
		func(e *domain.Event) string { return e.ID })
	return paginate(out, page, pageSize), len(out), nil
}

func (r *EventRepo) CountByOrganizerAndStatus(ctx context.Context, organizerID string, status domain.EventStatus) (int, error) {
	out, err := r.scan("organizer", []any{organizerID}, func(e *domain.Event) bool {
		return e.Status == status
	})
	return len(out), err
}

func (r *EventRepo) WithTx(ctx context.Context, fn func(tr event.TxEventRepo) error) error {
	return r.s.withTx(ctx, func(t *txn) error {
		return fn(&eventTx{t: t})
	})
}

type eventTx struct {
	t *txn
}

func (x *eventTx) Insert(ctx context.Context, e *domain.Event) error {
	obj, err := x.t.first(tableEvents, e.ID)
	if err != nil {
		return err
	}
	if obj != nil {
		return domain.ErrConflict("event already exists")
	}
	cp := *e
	return x.t.insert(tableEvents, &cp)
}

// GetByIDForUpdate reads through the write txn, which already excludes other writers.
func (x *eventTx) GetByIDForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	obj, err := x.t.first(tableEvents, id)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, domain.ErrNotFound("event not found")
	}
	e := *obj.(*domain.Event)
	return &e, nil
}

func (x *eventTx) Update(ctx context.Context, e *domain.Event) error {
	if _, err := x.GetByIDForUpdate(ctx, e.ID); err != nil {
		return err
	}
	cp := *e
	return x.t.insert(tableEvents, &cp)
}

func (x *eventTx) Delete(ctx context.Context, id string) error {
	obj, err := x.t.first(tableEvents, id)
	if err != nil {
		return err
	}
	if obj == nil {
		return domain.ErrNotFound("event not found")
	}
	return x.t.tx.Delete(tableEvents, obj)
}

func (x *eventTx) InsertOutbox(ctx context.Context, msg contracts.OutboxMessage) error {
	return x.t.insertOutbox(msg)
}
