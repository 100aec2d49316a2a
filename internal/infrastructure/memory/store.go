// Package memory is a process-local store used when STORAGE_DRIVER=memory
// and by the application tests. It sits on go-memdb: write transactions
// are serialized by memdb's writer lock and an aborted txn leaves no trace.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	memdb "github.com/hashicorp/go-memdb"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/contracts"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/metrics"
)

const (
	tableEvents      = "events"
	tableInventories = "inventories"
	tableTickets     = "tickets"
	tableUsers       = "users"
	tableOutbox      = "outbox"

	// DefaultOutboxLimit bounds the undelivered outbox when nothing drains it.
	DefaultOutboxLimit = 10000
)

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableEvents: {
				Name: tableEvents,
				Indexes: map[string]*memdb.IndexSchema{
					"id":        {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					"organizer": {Name: "organizer", Indexer: &memdb.StringFieldIndex{Field: "OrganizerID"}},
					"status":    {Name: "status", Indexer: &memdb.StringFieldIndex{Field: "Status"}},
				},
			},
			tableInventories: {
				Name: tableInventories,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "EventID"}},
				},
			},
			tableTickets: {
				Name: tableTickets,
				Indexes: map[string]*memdb.IndexSchema{
					"id":    {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					"user":  {Name: "user", Indexer: &memdb.StringFieldIndex{Field: "UserID"}},
					"event": {Name: "event", Indexer: &memdb.StringFieldIndex{Field: "EventID"}},
				},
			},
			tableUsers: {
				Name: tableUsers,
				Indexes: map[string]*memdb.IndexSchema{
					"id":    {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					"email": {Name: "email", AllowMissing: true, Indexer: &memdb.StringFieldIndex{Field: "Email", Lowercase: true}},
				},
			},
			tableOutbox: {
				Name: tableOutbox,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "Key"}},
				},
			},
		},
	}
}

// outboxRow orders messages by commit sequence; Key is the zero-padded seq.
type outboxRow struct {
	Key string
	Msg contracts.OutboxMessage
}

type Store struct {
	db *memdb.MemDB

	outboxLimit int
	// seq and outboxLen are only touched inside write txns, which memdb serializes.
	seq       uint64
	outboxLen int
}

type Option func(*Store)

// WithOutboxLimit caps undelivered outbox rows; the oldest are dropped first.
func WithOutboxLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.outboxLimit = n
		}
	}
}

func NewStore(opts ...Option) *Store {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		// the schema is static; an error here is a programming mistake
		panic(fmt.Sprintf("memory: invalid schema: %v", err))
	}
	s := &Store{db: db, outboxLimit: DefaultOutboxLimit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Events() *EventRepo   { return &EventRepo{s: s} }
func (s *Store) Tickets() *TicketRepo { return &TicketRepo{s: s} }
func (s *Store) Users() *UserRepo     { return &UserRepo{s: s} }

// Outbox returns a copy of every committed outbox message, oldest first.
func (s *Store) Outbox() []contracts.OutboxMessage {
	rows := s.outboxRows()
	out := make([]contracts.OutboxMessage, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Msg)
	}
	return out
}

func (s *Store) outboxRows() []*outboxRow {
	txn := s.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableOutbox, "id")
	if err != nil {
		return nil
	}
	var rows []*outboxRow
	for obj := it.Next(); obj != nil; obj = it.Next() {
		rows = append(rows, obj.(*outboxRow))
	}
	return rows
}

// DrainOutbox hands committed messages to fn in order and deletes those it
// accepted. The first failure stops the drain; the rest stay queued.
func (s *Store) DrainOutbox(fn func(contracts.OutboxMessage) error) (sent int, err error) {
	pending := s.outboxRows()

	var sendErr error
	for _, row := range pending {
		if sendErr = fn(row.Msg); sendErr != nil {
			break
		}
		sent++
	}
	if sent == 0 {
		return 0, sendErr
	}

	txn := s.db.Txn(true)
	defer txn.Abort()
	for _, row := range pending[:sent] {
		if err := txn.Delete(tableOutbox, row); err != nil && !errors.Is(err, memdb.ErrNotFound) {
			return sent, fmt.Errorf("delete outbox row: %w", err)
		}
	}
	s.outboxLen -= sent
	if s.outboxLen < 0 {
		s.outboxLen = 0
	}
	txn.Commit()
	return sent, sendErr
}

// txn wraps one memdb write transaction.
type txn struct {
	s   *Store
	tx  *memdb.Txn
	out int
}

// withTx runs fn in a write txn and commits only when fn succeeds.
func (s *Store) withTx(ctx context.Context, fn func(t *txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := s.db.Txn(true)
	defer tx.Abort() // no-op after Commit

	t := &txn{s: s, tx: tx}
	if err := fn(t); err != nil {
		return err
	}
	if err := t.trimOutbox(); err != nil {
		return err
	}
	s.outboxLen += t.out
	tx.Commit()
	return nil
}

func (t *txn) first(table string, id string) (any, error) {
	obj, err := t.tx.First(table, "id", id)
	if err != nil {
		return nil, fmt.Errorf("memdb %s lookup: %w", table, err)
	}
	return obj, nil
}

func (t *txn) insert(table string, obj any) error {
	if err := t.tx.Insert(table, obj); err != nil {
		return fmt.Errorf("memdb %s insert: %w", table, err)
	}
	return nil
}

func (t *txn) insertOutbox(msg contracts.OutboxMessage) error {
	t.s.seq++
	t.out++
	return t.insert(tableOutbox, &outboxRow{Key: fmt.Sprintf("%020d", t.s.seq), Msg: msg})
}

// trimOutbox drops the oldest rows so the committed outbox stays under the limit.
func (t *txn) trimOutbox() error {
	excess := t.s.outboxLen + t.out - t.s.outboxLimit
	if t.out == 0 || excess <= 0 {
		return nil
	}
	it, err := t.tx.Get(tableOutbox, "id")
	if err != nil {
		return err
	}
	var victims []any
	for obj := it.Next(); obj != nil && len(victims) < excess; obj = it.Next() {
		victims = append(victims, obj)
	}
	for _, v := range victims {
		if err := t.tx.Delete(tableOutbox, v); err != nil {
			return err
		}
		metrics.RecordOutbox("dropped")
	}
	t.out -= len(victims)
	zlog.Warn().Int("dropped", len(victims)).Int("limit", t.s.outboxLimit).Msg("memory outbox full, dropped oldest messages")
	return nil
}

// read runs fn against a read-only snapshot.
func (s *Store) read(fn func(tx *memdb.Txn) error) error {
	tx := s.db.Txn(false)
	defer tx.Abort()
	return fn(tx)
}

func collect[T any](it memdb.ResultIterator, keep func(*T) bool) []*T {
	var out []*T
	for obj := it.Next(); obj != nil; obj = it.Next() {
		v := *obj.(*T)
		if keep == nil || keep(&v) {
			out = append(out, &v)
		}
	}
	return out
}

func paginate[T any](items []T, page, pageSize int) []T {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := min(start+pageSize, len(items))
	return items[start:end]
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func sortNewestFirst[T any](items []T, created func(T) int64, id func(T) string) {
	sort.Slice(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if ci != cj {
			return ci > cj
		}
		return id(items[i]) > id(items[j])
	})
}
