package service

import (
	"context"

	"gogogo/internal/domain/ride"
	"gogogo/internal/ports"
)

// ListOffers returns all offers by travel date.
func (service *rideService) ListOffers(ctx context.Context, limit, offset int) ([]*ride.Offer, error) {
	limit, offset = service.engine.Page(limit, offset)
	var out []*ride.Offer
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		out, err = service.offerRepo.List(txCtx, limit, offset)
		return err
	})
	return out, err
}

// ListDriverOffers returns every offer of one driver.
func (service *rideService) ListDriverOffers(ctx context.Context, driverID string) ([]*ride.Offer, error) {
	var out []*ride.Offer
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		out, err = service.offerRepo.ListByDriver(txCtx, driverID)
		return err
	})
	return out, err
}

// SearchOffers runs a windowed offer search.
func (service *rideService) SearchOffers(ctx context.Context, in ports.OfferSearchInput) ([]*ride.Offer, error) {
	var out []*ride.Offer
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		out, err = service.engine.SearchOffers(txCtx, in)
		return err
	})
	return out, err
}

// ListRequests returns all requests by travel date.
func (service *rideService) ListRequests(ctx context.Context, limit, offset int) ([]*ride.Request, error) {
	limit, offset = service.engine.Page(limit, offset)
	var out []*ride.Request
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		out, err = service.requestRepo.List(txCtx, limit, offset)
		return err
	})
	return out, err
}

// ListPassengerRequests returns every request of one passenger.
func (service *rideService) ListPassengerRequests(ctx context.Context, passengerID string) ([]*ride.Request, error) {
	var out []*ride.Request
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		out, err = service.requestRepo.ListByPassenger(txCtx, passengerID)
		return err
	})
	return out, err
}

// SearchRequests runs a windowed request search.
func (service *rideService) SearchRequests(ctx context.Context, in ports.RequestSearchInput) ([]*ride.Request, error) {
	var out []*ride.Request
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		out, err = service.engine.SearchRequests(txCtx, in)
		return err
	})
	return out, err
}
