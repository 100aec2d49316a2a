package memory

import (
	"context"

	memdb "github.com/hashicorp/go-memdb"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/application/user"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
)

type UserRepo struct {
	s *Store
}

var _ user.UserRepo = (*UserRepo)(nil)

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	return r.s.withTx(ctx, func(t *txn) error {
		obj, err := t.first(tableUsers, u.ID)
		if err != nil {
			return err
		}
		if obj != nil {
			return domain.ErrConflict("user already exists")
		}
		if err := emailTaken(t.tx, u.Email, ""); err != nil {
			return err
		}
		cp := *u
		return t.insert(tableUsers, &cp)
	})
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := r.s.read(func(tx *memdb.Txn) error {
		obj, err := tx.First(tableUsers, "id", id)
		if err != nil {
			return err
		}
		if obj == nil {
			return domain.ErrNotFound("user not found")
		}
		u := *obj.(*domain.User)
		out = &u
		return nil
	})
	return out, err
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	return r.s.withTx(ctx, func(t *txn) error {
		obj, err := t.first(tableUsers, u.ID)
		if err != nil {
			return err
		}
		if obj == nil {
			return domain.ErrNotFound("user not found")
		}
		if err := emailTaken(t.tx, u.Email, u.ID); err != nil {
			return err
		}
		cp := *u
		return t.insert(tableUsers, &cp)
	})
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	return r.s.withTx(ctx, func(t *txn) error {
		obj, err := t.first(tableUsers, id)
		if err != nil {
			return err
		}
		if obj == nil {
			return domain.ErrNotFound("user not found")
		}
		return t.tx.Delete(tableUsers, obj)
	})
}

func (r *UserRepo) List(ctx context.Context, page, pageSize int) ([]*domain.User, int, error) {
	var out []*domain.User
	err := r.s.read(func(tx *memdb.Txn) error {
		it, err := tx.Get(tableUsers, "id")
		if err != nil {
			return err
		}
		out = collect[domain.User](it, nil)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	if out == nil {
		out = []*domain.User{}
	}
	sortNewestFirst(out,
		func(u *domain.User) int64 { return u.CreatedAt.UnixNano() },
		func(u *domain.User) string { return u.ID })
	return paginate(out, page, pageSize), len(out), nil
}

// emailTaken uses the lowercase email index; memdb does not enforce uniqueness itself.
func emailTaken(tx *memdb.Txn, email, exceptID string) error {
	if email == "" {
		return nil
	}
	it, err := tx.Get(tableUsers, "email", email)
	if err != nil {
		return err
	}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		if obj.(*domain.User).ID != exceptID {
			return domain.ErrConflict("email already registered")
		}
	}
	return nil
}
