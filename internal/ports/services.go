package ports

import (
	"context"

	"gogogo/internal/domain/ride"
	"gogogo/internal/domain/user"
)

// ----- DTOs for Ride Service -----

// OfferSearchInput is the raw query of GET /offers/search.
type OfferSearchInput struct {
	StartLocation string
	EndLocation   string
	SeatsNeeded   int
	Date          string // YYYY-MM-DD
	Limit         int
	Offset        int
}

// RequestSearchInput is the raw query of GET /requests/search.
type RequestSearchInput struct {
	StartLocation string
	EndLocation   string
	Date          string
	Limit         int
	Offset        int
}

// OfferView is the API representation of an offer.
type OfferView struct {
	ID              string `json:"id"`
	DriverID        string `json:"driver_id"`
	RequestSource   string `json:"request_source"`
	TravelStartDate string `json:"travel_start_date"`
	TravelStartTime string `json:"travel_start_time"`
	StartLocation   string `json:"start_location"`
	EndLocation     string `json:"end_location"`
	CarModel        string `json:"car_model"`
	TotalSeatAmount int    `json:"total_seat_amount"`
	FreeSeats       int    `json:"free_seats"`
	Price           *int   `json:"price"`
}

// NewOfferView maps a domain offer to its API representation.
func NewOfferView(o *ride.Offer) OfferView {
	return OfferView{
		ID:              o.ID,
		DriverID:        o.DriverID,
		RequestSource:   o.Source.String(),
		TravelStartDate: o.TravelDate.Format(ride.DateLayout),
		TravelStartTime: o.TravelTime,
		StartLocation:   o.StartLocation,
		EndLocation:     o.EndLocation,
		CarModel:        o.CarModel,
		TotalSeatAmount: o.TotalSeats,
		FreeSeats:       o.FreeSeats,
		Price:           o.Price,
	}
}

// RequestView is the API representation of a request.
type RequestView struct {
	ID              string `json:"id"`
	PassengerID     string `json:"passenger_id"`
	RequestSource   string `json:"request_source"`
	TravelStartDate string `json:"travel_start_date"`
	TravelStartTime string `json:"travel_start_time"`
	StartLocation   string `json:"start_location"`
	EndLocation     string `json:"end_location"`
	SeatAmount      string `json:"seat_amount"`
}

// NewRequestView maps a domain request to its API representation.
func NewRequestView(r *ride.Request) RequestView {
	return RequestView{
		ID:              r.ID,
		PassengerID:     r.PassengerID,
		RequestSource:   r.Source.String(),
		TravelStartDate: r.TravelDate.Format(ride.DateLayout),
		TravelStartTime: r.TravelTime,
		StartLocation:   r.StartLocation,
		EndLocation:     r.EndLocation,
		SeatAmount:      r.SeatAmount,
	}
}

// ----- Ride Service Interface -----

// RideService exposes the boundary for offers, requests and car photos.
type RideService interface {
	CreateOffer(ctx context.Context, driverID string, in ride.OfferDraft) (*ride.Offer, error)
	ListOffers(ctx context.Context, limit, offset int) ([]*ride.Offer, error)
	ListDriverOffers(ctx context.Context, driverID string) ([]*ride.Offer, error)
	DeleteOffer(ctx context.Context, offerID, driverID string) error
	SearchOffers(ctx context.Context, in OfferSearchInput) ([]*ride.Offer, error)

	CreateRequest(ctx context.Context, passengerID string, in ride.RequestDraft) (*ride.Request, error)
	ListRequests(ctx context.Context, limit, offset int) ([]*ride.Request, error)
	ListPassengerRequests(ctx context.Context, passengerID string) ([]*ride.Request, error)
	DeleteRequest(ctx context.Context, requestID, passengerID string) error
	SearchRequests(ctx context.Context, in RequestSearchInput) ([]*ride.Request, error)

	UploadCarPhoto(ctx context.Context, driverID string, data []byte) (*ride.CarPhoto, error)
	ListCarPhotos(ctx context.Context, driverID string) ([]*ride.CarPhoto, error)
	DeleteCarPhoto(ctx context.Context, photoID, driverID string) error
}

// ---------------------------------------------------------------------------------------------------------------

// ----- DTOs for User Service -----

// RegisterUserInput is the body of POST /users.
type RegisterUserInput struct {
	PhoneNumber string
	FirstName   *string
	LastName    *string
}

// LinkTelegramInput is the body of POST /telegram.
// Either UserID or PhoneNumber selects the user to bind to.
type LinkTelegramInput struct {
	TelegramID   int64
	ChatID       *int64
	Username     *string
	LanguageCode *string
	Role         user.Role
	Language     *string
	UserID       string
	PhoneNumber  string
}

// UserService exposes the boundary for users and their chat-bot accounts.
type UserService interface {
	RegisterUser(ctx context.Context, in RegisterUserInput) (*user.User, error)
	LinkTelegram(ctx context.Context, in LinkTelegramInput) (*user.TelegramAccount, error)
	GetTelegram(ctx context.Context, telegramID int64) (*user.TelegramAccount, error)
	UpdateTelegram(ctx context.Context, telegramID int64, role *user.Role, language *string) (*user.TelegramAccount, error)
}

// ---------------------------------------------------------------------------------------------------------------

// ----- Matching pipeline -----

// JobKind names the entity a match job was created for.
type JobKind string

const (
	JobOffer   JobKind = "offer"
	JobRequest JobKind = "request"
)

// Valid reports whether kind is one of the allowed job kinds.
func (kind JobKind) Valid() bool {
	return kind == JobOffer || kind == JobRequest
}

// JobQueue hands a match job to the worker pool. Delivery is at least once.
type JobQueue interface {
	Enqueue(ctx context.Context, kind JobKind, entityID string) error
}

// Notifier posts one notification payload to the chat-bot webhook and returns the HTTP status.
type Notifier interface {
	Notify(ctx context.Context, payload any) (int, error)
}

// MediaStore uploads images and resolves their public URLs.
type MediaStore interface {
	Upload(ctx context.Context, publicID string, data []byte) (string, error)
	FetchURL(ctx context.Context, publicID string) (string, error)
}

// MatchReport summarizes one processed match job.
type MatchReport struct {
	Kind      JobKind `json:"kind"`
	EntityID  string  `json:"entity_id"`
	Found     bool    `json:"found"`
	Matches   int     `json:"matches"`
	Attempted int     `json:"attempted"`
	Delivered int     `json:"delivered"`
	Failed    int     `json:"failed"`
	Skipped   int     `json:"skipped"`
}

// MatchProcessor runs the matching pipeline for one job.
type MatchProcessor interface {
	ProcessOffer(ctx context.Context, offerID string) (MatchReport, error)
	ProcessRequest(ctx context.Context, requestID string) (MatchReport, error)
}
