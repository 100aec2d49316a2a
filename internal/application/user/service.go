package user

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
)

type Clock interface {
	Now() time.Time
}

type UserRepo interface {
	Create(ctx context.Context, u *domain.User) error // conflict on duplicate email
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error // conflict on duplicate email
	Delete(ctx context.Context, id string) error      // not_found when missing
	List(ctx context.Context, page, pageSize int) ([]*domain.User, int, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
}

const (
	MinPasswordLen = 8
	MaxPasswordLen = 72 // bcrypt input limit
)

type Service struct {
	repo   UserRepo
	hasher PasswordHasher
	clock  Clock
}

func New(repo UserRepo, hasher PasswordHasher, clock Clock) *Service {
	return &Service{repo: repo, hasher: hasher, clock: clock}
}

type CreateCmd struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      domain.Role
}

func (s *Service) Create(ctx context.Context, cmd CreateCmd) (*domain.User, error) {
	hash, err := s.hash(cmd.Password)
	if err != nil {
		return nil, err
	}
	u, err := domain.NewUser(cmd.FirstName, cmd.LastName, cmd.Email, hash, cmd.Role, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

type UserPage struct {
	Items    []*domain.User
	Page     int
	PageSize int
	Total    int
}

func (s *Service) List(ctx context.Context, page, pageSize int) (UserPage, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	items, total, err := s.repo.List(ctx, page, pageSize)
	if err != nil {
		return UserPage{}, err
	}
	return UserPage{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

type UpdateCmd struct {
	ID        string
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
	Role      *domain.Role
}

func (s *Service) Update(ctx context.Context, cmd UpdateCmd) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}

	patch := domain.UserPatch{
		FirstName: cmd.FirstName,
		LastName:  cmd.LastName,
		Email:     cmd.Email,
		Role:      cmd.Role,
	}
	if cmd.Password != nil {
		hash, err := s.hash(*cmd.Password)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &hash
	}

	if err := u.ApplyUpdate(patch, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) hash(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", domain.ErrInvalidDataMeta("invalid password", map[string]string{"password": "required"})
	}
	if n := utf8.RuneCountInString(password); n < MinPasswordLen || len(password) > MaxPasswordLen {
		return "", domain.ErrInvalidDataMeta("invalid password", map[string]string{"password": "must be 8..72 chars"})
	}
	return s.hasher.Hash(password)
}
