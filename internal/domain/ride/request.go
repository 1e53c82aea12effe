package ride

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"gogogo/internal/domain/location"
)

// SeatsFull is the seat demand meaning "the entire vehicle".
const SeatsFull = "full"

var ErrFullDemand = errors.New(`seat demand is "full" and has no count`)

// Request is the domain entity corresponding to the `ride_requests` table.
type Request struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	PassengerID string
	Source      Source

	TravelDate time.Time
	TravelTime string

	StartLocation string
	EndLocation   string

	SeatAmount string // positive integer or SeatsFull
}

// RequestDraft carries the caller-supplied fields of a new request.
type RequestDraft struct {
	Source        Source
	TravelDate    time.Time
	TravelTime    string
	StartLocation string
	EndLocation   string
	SeatAmount    string
}

// ParseSeatAmount validates a seat demand: "full" (any case) or a positive integer.
func ParseSeatAmount(s string) (string, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, SeatsFull) {
		return SeatsFull, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return "", &ParseError{Field: "seat_amount", Value: s, Err: err}
	}
	if n <= 0 {
		return "", &ParseError{Field: "seat_amount", Value: s, Err: errors.New("must be positive")}
	}
	return strconv.Itoa(n), nil
}

// NewRequest validates the draft and returns a request with normalized locations.
func NewRequest(passengerID string, in RequestDraft) (*Request, error) {
	passengerID, err := ParsePassengerID(passengerID)
	if err != nil {
		return nil, err
	}
	clock, err := ParseClock(in.TravelTime)
	if err != nil {
		return nil, err
	}
	seats, err := ParseSeatAmount(in.SeatAmount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	req := &Request{
		CreatedAt:     now,
		UpdatedAt:     now,
		PassengerID:   passengerID,
		Source:        in.Source,
		TravelDate:    DateOnly(in.TravelDate),
		TravelTime:    clock,
		StartLocation: location.Normalize(in.StartLocation),
		EndLocation:   location.Normalize(in.EndLocation),
		SeatAmount:    seats,
	}
	if !req.Source.Valid() {
		req.Source = SourceTelegram
	}
	if req.StartLocation == "" || req.EndLocation == "" {
		return nil, ErrLocationRequired
	}
	return req, nil
}

// IsFull reports whether the passenger wants the whole vehicle.
func (req *Request) IsFull() bool {
	return req.SeatAmount == SeatsFull
}

// Seats returns the numeric demand. It fails for "full" and malformed values.
func (req *Request) Seats() (int, error) {
	if req.IsFull() {
		return 0, ErrFullDemand
	}
	n, err := strconv.Atoi(strings.TrimSpace(req.SeatAmount))
	if err != nil || n <= 0 {
		return 0, &ParseError{Field: "seat_amount", Value: req.SeatAmount, Err: err}
	}
	return n, nil
}

// SeatsNeeded is the minimum free seat count used when searching offers for
// this request. "full" and malformed values fall back to one seat.
func (req *Request) SeatsNeeded() int {
	n, err := req.Seats()
	if err != nil {
		return 1
	}
	return n
}

// OwnedBy reports whether passengerID owns the request.
func (req *Request) OwnedBy(passengerID string) bool {
	return req.PassengerID == strings.TrimSpace(passengerID)
}
