package contracts

import (
	"gogogo/internal/domain/ride"
)

// Notification types understood by the chat-bot webhook.
const (
	TypeNewOfferFound          = "new_offer_found"
	TypeMatchesFoundForRequest = "matches_found_for_request"
)

// EnrichedOffer is an offer plus the driver contact and car photos.
type EnrichedOffer struct {
	ID              string   `json:"id"`
	DriverID        string   `json:"driver_id"`
	RequestSource   string   `json:"request_source"`
	TravelStartDate string   `json:"travel_start_date"`
	TravelStartTime string   `json:"travel_start_time"`
	StartLocation   string   `json:"start_location"`
	EndLocation     string   `json:"end_location"`
	CarModel        string   `json:"car_model"`
	TotalSeatAmount int      `json:"total_seat_amount"`
	FreeSeats       int      `json:"free_seats"`
	Price           *int     `json:"price"`
	DriverPhone     *string  `json:"driver_phone"`
	DriverUsername  *string  `json:"driver_username"`
	CarPhotos       []string `json:"car_photos"`
}

// NewEnrichedOffer maps an offer and its enrichment to the wire shape.
// A nil photo list is sent as an empty array.
func NewEnrichedOffer(o *ride.Offer, phone, username *string, photos []string) EnrichedOffer {
	if photos == nil {
		photos = []string{}
	}
	return EnrichedOffer{
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
		DriverPhone:     phone,
		DriverUsername:  username,
		CarPhotos:       photos,
	}
}

// NewOfferFound tells one passenger about an offer on their route.
type NewOfferFound struct {
	Type            string        `json:"type"`
	Offer           EnrichedOffer `json:"offer"`
	RequestID       string        `json:"request_id"`
	PassengerID     string        `json:"passenger_id"`
	PassengerChatID int64         `json:"passenger_chat_id"`
}

// NewNewOfferFound builds the offer-triggered payload for one matched request.
func NewNewOfferFound(offer EnrichedOffer, requestID, passengerID string, chatID int64) NewOfferFound {
	return NewOfferFound{
		Type:            TypeNewOfferFound,
		Offer:           offer,
		RequestID:       requestID,
		PassengerID:     passengerID,
		PassengerChatID: chatID,
	}
}

// MatchesFoundForRequest tells a passenger about every offer matching their request.
// Telegram and chat ids are null when the passenger has no linked account.
type MatchesFoundForRequest struct {
	Type                string          `json:"type"`
	RequestID           string          `json:"request_id"`
	PassengerID         string          `json:"passenger_id"`
	PassengerTelegramID *int64          `json:"passenger_telegram_id"`
	PassengerChatID     *int64          `json:"passenger_chat_id"`
	Matches             []EnrichedOffer `json:"matches"`
}

// NewMatchesFoundForRequest builds the request-triggered payload.
func NewMatchesFoundForRequest(requestID, passengerID string, telegramID, chatID *int64, matches []EnrichedOffer) MatchesFoundForRequest {
	if matches == nil {
		matches = []EnrichedOffer{}
	}
	return MatchesFoundForRequest{
		Type:                TypeMatchesFoundForRequest,
		RequestID:           requestID,
		PassengerID:         passengerID,
		PassengerTelegramID: telegramID,
		PassengerChatID:     chatID,
		Matches:             matches,
	}
}

// EventType returns the payload discriminator.
func (p NewOfferFound) EventType() string { return p.Type }

// EventType returns the payload discriminator.
func (p MatchesFoundForRequest) EventType() string { return p.Type }
