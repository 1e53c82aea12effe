package service

import (
	"context"
	"errors"
	"strings"

	"gogogo/internal/domain/user"
	"gogogo/internal/general/logger"
	"gogogo/internal/ports"
)

// ErrTelegramIDRequired is returned when a link request carries no telegram id.
var ErrTelegramIDRequired = errors.New("telegram_id is required")

// userService manages users and their linked chat-bot accounts.
type userService struct {
	logger       *logger.Logger
	uow          ports.UnitOfWork
	userRepo     ports.UserRepository
	telegramRepo ports.TelegramRepository
}

// NewUserService creates a new instance of the UserService with the provided dependencies.
func NewUserService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	userRepo ports.UserRepository,
	telegramRepo ports.TelegramRepository,
) ports.UserService {
	return &userService{
		logger:       logger,
		uow:          uow,
		userRepo:     userRepo,
		telegramRepo: telegramRepo,
	}
}

// RegisterUser creates a user, or returns the existing owner of the phone number.
func (service *userService) RegisterUser(ctx context.Context, in ports.RegisterUserInput) (*user.User, error) {
	candidate, err := user.NewUser(in.PhoneNumber, in.FirstName, in.LastName)
	if err != nil {
		return nil, err
	}

	var out *user.User
	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		existing, err := service.userRepo.FindByPhone(txCtx, candidate.PhoneNumber)
		switch {
		case err == nil:
			out = existing
			return nil
		case !errors.Is(err, user.ErrNotFound):
			return err
		}

		if err := service.userRepo.Create(txCtx, candidate); err != nil {
			return err
		}
		out = candidate
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "user_register_failed", "Failed to register user", err, nil)
		return nil, err
	}

	service.logger.Info(ctx, "user_registered", "User registered", map[string]any{"user_id": out.ID})
	return out, nil
}

// LinkTelegram registers a chat-bot account and binds it to a user chosen by id or by phone.
// Binding by an unknown phone creates the user.
func (service *userService) LinkTelegram(ctx context.Context, in ports.LinkTelegramInput) (*user.TelegramAccount, error) {
	if in.TelegramID == 0 {
		return nil, ErrTelegramIDRequired
	}
	if !in.Role.Valid() {
		return nil, user.ErrInvalidRole
	}
	userID := strings.TrimSpace(in.UserID)
	phone := strings.TrimSpace(in.PhoneNumber)
	if userID == "" && phone == "" {
		return nil, user.ErrNoBindingTarget
	}

	acc := &user.TelegramAccount{
		TelegramID:   in.TelegramID,
		ChatID:       in.ChatID,
		Username:     in.Username,
		LanguageCode: in.LanguageCode,
		Role:         in.Role,
		Language:     in.Language,
	}
	if acc.LanguageCode == nil {
		acc.LanguageCode = in.Language
	}

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		if _, err := service.telegramRepo.GetByTelegramID(txCtx, in.TelegramID); err == nil {
			return user.ErrAlreadyLinked
		} else if !errors.Is(err, user.ErrNotFound) {
			return err
		}

		owner, err := service.resolveOwner(txCtx, userID, phone, in.Username)
		if err != nil {
			return err
		}
		acc.UserID = owner.ID

		return service.telegramRepo.Create(txCtx, acc)
	})
	if err != nil {
		service.logger.Warn(ctx, "telegram_link_failed", "Failed to link telegram account", err, map[string]any{
			"telegram_id": in.TelegramID,
		})
		return nil, err
	}

	service.logger.Info(ctx, "telegram_linked", "Telegram account linked", map[string]any{
		"telegram_id": acc.TelegramID,
		"user_id":     acc.UserID,
	})
	return acc, nil
}

func (service *userService) resolveOwner(ctx context.Context, userID, phone string, username *string) (*user.User, error) {
	if userID != "" {
		return service.userRepo.GetByID(ctx, userID)
	}

	normalized, err := user.NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	existing, err := service.userRepo.FindByPhone(ctx, normalized)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, err
	}

	// the username stands in for the first name until the user fills it in
	created, err := user.NewUser(normalized, username, nil)
	if err != nil {
		return nil, err
	}
	if err := service.userRepo.Create(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

// GetTelegram returns an account by its telegram id.
func (service *userService) GetTelegram(ctx context.Context, telegramID int64) (*user.TelegramAccount, error) {
	var out *user.TelegramAccount
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		out, err = service.telegramRepo.GetByTelegramID(txCtx, telegramID)
		return err
	})
	return out, err
}

// UpdateTelegram changes the role and/or preferred language of an account.
func (service *userService) UpdateTelegram(ctx context.Context, telegramID int64, role *user.Role, language *string) (*user.TelegramAccount, error) {
	var out *user.TelegramAccount
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		acc, err := service.telegramRepo.GetByTelegramID(txCtx, telegramID)
		if err != nil {
			return err
		}
		if err := acc.Update(role, language); err != nil {
			return err
		}
		if err := service.telegramRepo.Update(txCtx, acc); err != nil {
			return err
		}
		out = acc
		return nil
	})
	if err != nil {
		return nil, err
	}

	service.logger.Info(ctx, "telegram_updated", "Telegram account updated", map[string]any{"telegram_id": telegramID})
	return out, nil
}
