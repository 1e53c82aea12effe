package ride

import (
	"strings"
	"time"

	"gogogo/internal/domain/location"
)

// Offer is the domain entity corresponding to the `ride_offers` table.
type Offer struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	DriverID string
	Source   Source

	TravelDate time.Time // date only, UTC
	TravelTime string    // HH:MM:SS

	// canonical display names; matching compares their keys
	StartLocation string
	EndLocation   string

	CarModel   string
	TotalSeats int
	FreeSeats  int
	Price      *int
}

// OfferDraft carries the caller-supplied fields of a new offer.
type OfferDraft struct {
	Source        Source
	TravelDate    time.Time
	TravelTime    string
	StartLocation string
	EndLocation   string
	CarModel      string
	TotalSeats    int
	FreeSeats     int
	Price         *int
}

// NewOffer validates the draft and returns an offer with normalized locations.
func NewOffer(driverID string, in OfferDraft) (*Offer, error) {
	driverID, err := ParseDriverID(driverID)
	if err != nil {
		return nil, err
	}
	clock, err := ParseClock(in.TravelTime)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	offer := &Offer{
		CreatedAt:     now,
		UpdatedAt:     now,
		DriverID:      driverID,
		Source:        in.Source,
		TravelDate:    DateOnly(in.TravelDate),
		TravelTime:    clock,
		StartLocation: location.Normalize(in.StartLocation),
		EndLocation:   location.Normalize(in.EndLocation),
		CarModel:      strings.TrimSpace(in.CarModel),
		TotalSeats:    in.TotalSeats,
		FreeSeats:     in.FreeSeats,
		Price:         in.Price,
	}
	if !offer.Source.Valid() {
		offer.Source = SourceTelegram
	}
	if err := offer.Validate(); err != nil {
		return nil, err
	}
	return offer, nil
}

// Validate checks invariants of the Offer entity.
func (offer *Offer) Validate() error {
	if offer.DriverID == "" {
		return ErrDriverRequired
	}
	if offer.StartLocation == "" || offer.EndLocation == "" {
		return ErrLocationRequired
	}
	if offer.CarModel == "" {
		return ErrCarModelRequired
	}
	if offer.TotalSeats < 0 || offer.FreeSeats < 0 || offer.FreeSeats > offer.TotalSeats {
		return ErrBadSeatCounts
	}
	if offer.Price != nil && *offer.Price < 0 {
		return ErrNegativePrice
	}
	return nil
}

// OwnedBy reports whether driverID owns the offer.
func (offer *Offer) OwnedBy(driverID string) bool {
	return offer.DriverID == strings.TrimSpace(driverID)
}

// Untouched reports whether no seat has been taken yet.
func (offer *Offer) Untouched() bool {
	return offer.FreeSeats == offer.TotalSeats
}

// Fits reports whether the offer can carry the request's demand.
// A "full" request needs the whole car to be free.
func (offer *Offer) Fits(req *Request) bool {
	if req.IsFull() {
		return offer.Untouched() && offer.FreeSeats > 0
	}
	n, err := req.Seats()
	if err != nil {
		return false
	}
	return n <= offer.FreeSeats
}
