package postgres

import (
	"context"
	"errors"

	"gogogo/internal/domain/ride"
	"gogogo/internal/domain/user"
	"gogogo/internal/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrPhoneTaken is returned when another user already owns the phone number.
var ErrPhoneTaken = errors.New("phone number already registered")

// UserRepo persists users using pgx and plain SQL.
type UserRepo struct{}

// NewUserRepo constructs a new UserRepo.
func NewUserRepo() ports.UserRepository {
	return &UserRepo{}
}

// Create inserts a new user row.
func (repo *UserRepo) Create(ctx context.Context, u *user.User) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO users (id, phone_number, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, u.ID, u.PhoneNumber, u.FirstName, u.LastName).Scan(&u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrPhoneTaken
	}
	if err != nil {
		return ride.Datastore("user.create", err)
	}
	return nil
}

func (repo *UserRepo) getOne(ctx context.Context, where string, arg any) (*user.User, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var u user.User
	err = tx.QueryRow(ctx, `
		SELECT id, created_at, updated_at, phone_number, first_name, last_name
		FROM users
		WHERE `+where, arg,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.PhoneNumber, &u.FirstName, &u.LastName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, ride.Datastore("user.get", err)
	}
	return &u, nil
}

// GetByID returns one user or user.ErrUserNotFound.
func (repo *UserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, user.ErrUserNotFound
	}
	return repo.getOne(ctx, "id = $1", id)
}

// FindByPhone returns the owner of a phone number or user.ErrUserNotFound.
func (repo *UserRepo) FindByPhone(ctx context.Context, phone string) (*user.User, error) {
	return repo.getOne(ctx, "phone_number = $1", phone)
}

// FindPhonesByIDs resolves phone numbers of many users in one round-trip.
func (repo *UserRepo) FindPhonesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string)
	keys := uniqueIDs(ids)
	if len(keys) == 0 {
		return out, nil
	}

	rows, err := tx.Query(ctx, `SELECT id, phone_number FROM users WHERE id = ANY($1)`, keys)
	if err != nil {
		return nil, ride.Datastore("user.find_phones", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, phone string
		if err := rows.Scan(&id, &phone); err != nil {
			return nil, ride.Datastore("user.find_phones", err)
		}
		out[id] = phone
	}
	if err := rows.Err(); err != nil {
		return nil, ride.Datastore("user.find_phones", err)
	}
	return out, nil
}
