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

// TelegramRepo persists chat-bot accounts using pgx and plain SQL.
type TelegramRepo struct{}

// NewTelegramRepo constructs a new TelegramRepo.
func NewTelegramRepo() ports.TelegramRepository {
	return &TelegramRepo{}
}

// Create inserts a new account row. A taken telegram id or user yields user.ErrAlreadyLinked.
func (repo *TelegramRepo) Create(ctx context.Context, acc *user.TelegramAccount) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	if acc.ID == "" {
		acc.ID = uuid.NewString()
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO telegram_users (
			id, user_id, telegram_id, chat_id, username, language_code, role, language
		)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)
		RETURNING created_at, updated_at
	`,
		acc.ID, acc.UserID, acc.TelegramID, acc.ChatID, acc.Username,
		acc.LanguageCode, acc.Role.String(), acc.Language,
	).Scan(&acc.CreatedAt, &acc.UpdatedAt)
	if isUniqueViolation(err) {
		return user.ErrAlreadyLinked
	}
	if err != nil {
		return ride.Datastore("telegram.create", err)
	}
	return nil
}

// GetByTelegramID returns one account or user.ErrTelegramNotFound.
func (repo *TelegramRepo) GetByTelegramID(ctx context.Context, telegramID int64) (*user.TelegramAccount, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var (
		acc  user.TelegramAccount
		role *string
	)
	err = tx.QueryRow(ctx, `
		SELECT id, created_at, updated_at, user_id, telegram_id, chat_id,
		       username, language_code, role, language
		FROM telegram_users
		WHERE telegram_id = $1
	`, telegramID).Scan(
		&acc.ID, &acc.CreatedAt, &acc.UpdatedAt, &acc.UserID, &acc.TelegramID, &acc.ChatID,
		&acc.Username, &acc.LanguageCode, &role, &acc.Language,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, user.ErrTelegramNotFound
	}
	if err != nil {
		return nil, ride.Datastore("telegram.get", err)
	}
	if role != nil {
		acc.Role = user.Role(*role)
	}
	return &acc, nil
}

// Update stores the mutable fields of an account.
func (repo *TelegramRepo) Update(ctx context.Context, acc *user.TelegramAccount) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		UPDATE telegram_users
		SET role = NULLIF($2, ''), language = $3, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, acc.ID, acc.Role.String(), acc.Language).Scan(&acc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return user.ErrTelegramNotFound
	}
	if err != nil {
		return ride.Datastore("telegram.update", err)
	}
	return nil
}

// FindChannelByUserID returns the user's channel, or nil when no account is linked.
func (repo *TelegramRepo) FindChannelByUserID(ctx context.Context, userID string) (*user.Channel, error) {
	channels, err := repo.FindChannelsByUserIDs(ctx, []string{userID})
	if err != nil {
		return nil, err
	}
	if ch, ok := channels[userID]; ok {
		return &ch, nil
	}
	return nil, nil
}

// FindChannelsByUserIDs resolves the channels of many users in one round-trip.
func (repo *TelegramRepo) FindChannelsByUserIDs(ctx context.Context, userIDs []string) (map[string]user.Channel, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]user.Channel)
	keys := uniqueIDs(userIDs)
	if len(keys) == 0 {
		return out, nil
	}

	rows, err := tx.Query(ctx, `
		SELECT user_id, telegram_id, chat_id, username
		FROM telegram_users
		WHERE user_id = ANY($1)
	`, keys)
	if err != nil {
		return nil, ride.Datastore("telegram.find_channels", err)
	}
	defer rows.Close()

	for rows.Next() {
		var acc user.TelegramAccount
		if err := rows.Scan(&acc.UserID, &acc.TelegramID, &acc.ChatID, &acc.Username); err != nil {
			return nil, ride.Datastore("telegram.find_channels", err)
		}
		out[acc.UserID] = acc.Channel()
	}
	if err := rows.Err(); err != nil {
		return nil, ride.Datastore("telegram.find_channels", err)
	}
	return out, nil
}
