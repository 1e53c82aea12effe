package user

import "time"

// TelegramAccount links a user to the chat-bot. It corresponds to the `telegram_users` table.
type TelegramAccount struct {
	ID           string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	UserID       string
	TelegramID   int64
	ChatID       *int64
	Username     *string
	LanguageCode *string
	Role         Role
	Language     *string
}

// ChannelID returns the conversation to deliver to: the chat id when set, else the telegram id.
func (acc *TelegramAccount) ChannelID() int64 {
	if acc.ChatID != nil && *acc.ChatID != 0 {
		return *acc.ChatID
	}
	return acc.TelegramID
}

// Channel is the resolved notification destination of a person.
type Channel struct {
	UserID     string
	TelegramID int64
	ChatID     int64 // ChatID falls back to TelegramID
	Username   *string
}

// Channel projects the account onto its notification destination.
func (acc *TelegramAccount) Channel() Channel {
	return Channel{
		UserID:     acc.UserID,
		TelegramID: acc.TelegramID,
		ChatID:     acc.ChannelID(),
		Username:   acc.Username,
	}
}

// Update applies the optional role and language changes.
func (acc *TelegramAccount) Update(role *Role, language *string) error {
	if role != nil {
		if !role.Valid() {
			return ErrInvalidRole
		}
		acc.Role = *role
	}
	if language != nil {
		acc.Language = trimmed(language)
	}
	acc.UpdatedAt = time.Now().UTC()
	return nil
}
