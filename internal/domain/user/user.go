package user

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// User is the domain entity corresponding to the `users` table.
type User struct {
	ID          string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PhoneNumber string
	FirstName   *string
	LastName    *string
}

var (
	ErrNotFound         = errors.New("not found")
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrTelegramNotFound = fmt.Errorf("telegram account %w", ErrNotFound)
	ErrInvalidPhone     = errors.New("invalid phone number")
	ErrAlreadyLinked    = errors.New("telegram account already registered")
	ErrNoBindingTarget  = errors.New("either user_id or phone_number must be provided")
)

// NormalizePhone strips separators and keeps a single leading plus.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	for i, r := range raw {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return "", ErrInvalidPhone
		}
	}
	out := b.String()
	if len(strings.TrimPrefix(out, "+")) < 5 {
		return "", ErrInvalidPhone
	}
	return out, nil
}

// NewUser constructs a new User entity with a normalized phone number.
func NewUser(phone string, firstName, lastName *string) (*User, error) {
	p, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &User{
		CreatedAt:   now,
		UpdatedAt:   now,
		PhoneNumber: p,
		FirstName:   trimmed(firstName),
		LastName:    trimmed(lastName),
	}, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
