package domain

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type Role string

const (
	RoleParticipant Role = "participant"
	RoleOrganizer   Role = "organizer"
	RoleAdmin       Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleParticipant || r == RoleOrganizer || r == RoleAdmin
}

const MaxNameLen = 100

type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         Role

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserPatch is a partial profile update. Password hashing happens upstream.
type UserPatch struct {
	FirstName    *string
	LastName     *string
	Email        *string
	Role         *Role
	PasswordHash *string
}

func NewUser(firstName, lastName, email, passwordHash string, role Role, now time.Time) (*User, error) {
	u := &User{
		ID:        uuid.NewString(),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	if role == "" {
		role = RoleParticipant
	}
	if err := u.apply(UserPatch{
		FirstName:    &firstName,
		LastName:     &lastName,
		Email:        &email,
		Role:         &role,
		PasswordHash: &passwordHash,
	}); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) ApplyUpdate(p UserPatch, now time.Time) error {
	next := *u
	if err := next.apply(p); err != nil {
		return err
	}
	next.UpdatedAt = now.UTC()
	*u = next
	return nil
}

func (u *User) apply(p UserPatch) error {
	if p.FirstName != nil {
		v := strings.TrimSpace(*p.FirstName)
		if v == "" || utf8.RuneCountInString(v) > MaxNameLen {
			return ErrInvalidDataMeta("invalid first_name", map[string]string{"first_name": "required, <= 100 chars"})
		}
		u.FirstName = v
	}
	if p.LastName != nil {
		v := strings.TrimSpace(*p.LastName)
		if v == "" || utf8.RuneCountInString(v) > MaxNameLen {
			return ErrInvalidDataMeta("invalid last_name", map[string]string{"last_name": "required, <= 100 chars"})
		}
		u.LastName = v
	}
	if p.Email != nil {
		v := NormalizeEmail(*p.Email)
		if _, err := mail.ParseAddress(v); err != nil || v == "" {
			return ErrInvalidDataMeta("invalid email", map[string]string{"email": "must be a valid address"})
		}
		u.Email = v
	}
	if p.Role != nil {
		if !p.Role.Valid() {
			return ErrInvalidDataMeta("invalid role", map[string]string{"role": "must be one of: participant, organizer, admin"})
		}
		u.Role = *p.Role
	}
	if p.PasswordHash != nil {
		if strings.TrimSpace(*p.PasswordHash) == "" {
			return ErrInvalidData("password is required")
		}
		u.PasswordHash = *p.PasswordHash
	}
	return nil
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
