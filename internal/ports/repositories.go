package ports

import (
	"context"
	"time"

	"gogogo/internal/domain/ride"
	"gogogo/internal/domain/user"
)

// UnitOfWork interface is used to manage transactions across multiple repository operations.
type UnitOfWork interface {
	// WithinTx runs fn in a read-write transaction, joining one already carried by ctx.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	// WithinDetachedTx always opens a fresh read-only transaction, ignoring any carried by ctx,
	// and releases it when fn returns.
	WithinDetachedTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OfferQuery is the filter of a windowed offer search. Keys are already normalized.
type OfferQuery struct {
	StartKey string
	EndKey   string
	MinSeats int
	From     time.Time // inclusive
	To       time.Time // inclusive
	Limit    int
	Offset   int
}

// RequestQuery is the filter of a windowed request search. Keys are already normalized.
type RequestQuery struct {
	StartKey string
	EndKey   string
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}

// OfferRepository defines the methods for managing ride offers.
type OfferRepository interface {
	Create(ctx context.Context, o *ride.Offer) error
	GetByID(ctx context.Context, id string) (*ride.Offer, error)
	List(ctx context.Context, limit, offset int) ([]*ride.Offer, error)
	ListByDriver(ctx context.Context, driverID string) ([]*ride.Offer, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, q OfferQuery) ([]*ride.Offer, error)
}

// RequestRepository defines the methods for managing ride requests.
type RequestRepository interface {
	Create(ctx context.Context, r *ride.Request) error
	GetByID(ctx context.Context, id string) (*ride.Request, error)
	List(ctx context.Context, limit, offset int) ([]*ride.Request, error)
	ListByPassenger(ctx context.Context, passengerID string) ([]*ride.Request, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, q RequestQuery) ([]*ride.Request, error)
}

// UserRepository defines the methods for managing users.
type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id string) (*user.User, error)
	FindByPhone(ctx context.Context, phone string) (*user.User, error)
	// FindPhonesByIDs returns user id -> phone number for the users that exist.
	FindPhonesByIDs(ctx context.Context, ids []string) (map[string]string, error)
}

// TelegramRepository defines the methods for managing chat-bot accounts.
type TelegramRepository interface {
	Create(ctx context.Context, acc *user.TelegramAccount) error
	GetByTelegramID(ctx context.Context, telegramID int64) (*user.TelegramAccount, error)
	Update(ctx context.Context, acc *user.TelegramAccount) error
	// FindChannelByUserID returns nil without error when the user has no linked account.
	FindChannelByUserID(ctx context.Context, userID string) (*user.Channel, error)
	// FindChannelsByUserIDs returns user id -> channel for the users that have one.
	FindChannelsByUserIDs(ctx context.Context, userIDs []string) (map[string]user.Channel, error)
}

// CarPhotoRepository defines the methods for managing driver car photos.
type CarPhotoRepository interface {
	Create(ctx context.Context, p *ride.CarPhoto) error
	GetByID(ctx context.Context, id string) (*ride.CarPhoto, error)
	ListByDriver(ctx context.Context, driverID string) ([]*ride.CarPhoto, error)
	Delete(ctx context.Context, id string) error
	// ListURLsByDriverIDs returns driver id -> photo urls, oldest first.
	ListURLsByDriverIDs(ctx context.Context, driverIDs []string) (map[string][]string, error)
}
