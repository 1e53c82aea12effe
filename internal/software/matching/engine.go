package matching

import (
	"context"
	"time"

	"gogogo/internal/domain/location"
	"gogogo/internal/domain/ride"
	"gogogo/internal/ports"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100

	// DefaultOfferWindow is added to a date-only reference, so offer search stays on that day.
	DefaultOfferWindow   = 4 * time.Hour
	DefaultRequestWindow = 48 * time.Hour
)

// Engine finds counterpart offers or requests on the same route within a date window.
type Engine struct {
	offers        ports.OfferRepository
	requests      ports.RequestRepository
	offerWindow   time.Duration
	requestWindow time.Duration
	defaultLimit  int
}

// NewEngine binds the engine to its repositories. Zero windows or limit select the defaults.
func NewEngine(
	offers ports.OfferRepository,
	requests ports.RequestRepository,
	offerWindow, requestWindow time.Duration,
	defaultLimit int,
) *Engine {
	if offerWindow <= 0 {
		offerWindow = DefaultOfferWindow
	}
	if requestWindow <= 0 {
		requestWindow = DefaultRequestWindow
	}
	if defaultLimit <= 0 || defaultLimit > MaxLimit {
		defaultLimit = DefaultLimit
	}
	return &Engine{
		offers:        offers,
		requests:      requests,
		offerWindow:   offerWindow,
		requestWindow: requestWindow,
		defaultLimit:  defaultLimit,
	}
}

// SearchOffers parses a raw search and runs it. A malformed date yields *ride.ParseError.
func (engine *Engine) SearchOffers(ctx context.Context, in ports.OfferSearchInput) ([]*ride.Offer, error) {
	date, err := ride.ParseDate(in.Date)
	if err != nil {
		return nil, err
	}
	return engine.OffersFor(ctx, in.StartLocation, in.EndLocation, in.SeatsNeeded, date, in.Limit, in.Offset)
}

// SearchRequests parses a raw search and runs it. A malformed date yields *ride.ParseError.
func (engine *Engine) SearchRequests(ctx context.Context, in ports.RequestSearchInput) ([]*ride.Request, error) {
	date, err := ride.ParseDate(in.Date)
	if err != nil {
		return nil, err
	}
	return engine.RequestsFor(ctx, in.StartLocation, in.EndLocation, date, in.Limit, in.Offset)
}

// OffersFor returns offers on the route with at least seatsNeeded free seats,
// travelling within the offer window from ref, earliest first.
func (engine *Engine) OffersFor(ctx context.Context, start, end string, seatsNeeded int, ref time.Time, limit, offset int) ([]*ride.Offer, error) {
	if seatsNeeded < 1 {
		seatsNeeded = 1
	}
	from, to := ride.Window(ref, engine.offerWindow)
	limit, offset = engine.Page(limit, offset)

	offers, err := engine.offers.Search(ctx, ports.OfferQuery{
		StartKey: location.Key(start),
		EndKey:   location.Key(end),
		MinSeats: seatsNeeded,
		From:     from,
		To:       to,
		Limit:    limit,
		Offset:   offset,
	})
	return offers, ride.Datastore("search offers", err)
}

// RequestsFor returns requests on the route travelling within the request window from ref.
// Seat demand is not compared with any capacity here.
func (engine *Engine) RequestsFor(ctx context.Context, start, end string, ref time.Time, limit, offset int) ([]*ride.Request, error) {
	from, to := ride.Window(ref, engine.requestWindow)
	limit, offset = engine.Page(limit, offset)

	requests, err := engine.requests.Search(ctx, ports.RequestQuery{
		StartKey: location.Key(start),
		EndKey:   location.Key(end),
		From:     from,
		To:       to,
		Limit:    limit,
		Offset:   offset,
	})
	return requests, ride.Datastore("search requests", err)
}

// MatchOffer finds requests compatible with a stored offer.
func (engine *Engine) MatchOffer(ctx context.Context, offer *ride.Offer) ([]*ride.Request, error) {
	return engine.RequestsFor(ctx, offer.StartLocation, offer.EndLocation, offer.TravelDate, engine.defaultLimit, 0)
}

// MatchRequest finds offers compatible with a stored request.
func (engine *Engine) MatchRequest(ctx context.Context, req *ride.Request) ([]*ride.Offer, error) {
	return engine.OffersFor(ctx, req.StartLocation, req.EndLocation, req.SeatsNeeded(), req.TravelDate, engine.defaultLimit, 0)
}

// Page clamps a caller's paging: a non-positive limit takes the configured default,
// larger ones are capped at MaxLimit, and a negative offset becomes zero.
func (engine *Engine) Page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = engine.defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
