package service

import (
	"context"

	"gogogo/internal/domain/ride"
	"gogogo/internal/ports"
)

// CreateOffer persists a driver's offer and then schedules matching for it.
func (service *rideService) CreateOffer(ctx context.Context, driverID string, in ride.OfferDraft) (*ride.Offer, error) {
	offer, err := ride.NewOffer(driverID, in)
	if err != nil {
		return nil, err
	}

	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		return service.offerRepo.Create(txCtx, offer)
	})
	if err != nil {
		service.logger.Error(ctx, "offer_create_failed", "Failed to create ride offer", err, map[string]any{
			"driver_id": offer.DriverID,
		})
		return nil, err
	}

	service.logger.Info(ctx, "offer_created", "Ride offer created", map[string]any{
		"offer_id":  offer.ID,
		"driver_id": offer.DriverID,
		"route":     offer.StartLocation + " -> " + offer.EndLocation,
	})

	// committed above, so the worker can always read it
	service.enqueue(ctx, ports.JobOffer, offer.ID)

	return offer, nil
}

// CreateRequest persists a passenger's request and then schedules matching for it.
func (service *rideService) CreateRequest(ctx context.Context, passengerID string, in ride.RequestDraft) (*ride.Request, error) {
	req, err := ride.NewRequest(passengerID, in)
	if err != nil {
		return nil, err
	}

	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		return service.requestRepo.Create(txCtx, req)
	})
	if err != nil {
		service.logger.Error(ctx, "request_create_failed", "Failed to create ride request", err, map[string]any{
			"passenger_id": req.PassengerID,
		})
		return nil, err
	}

	service.logger.Info(ctx, "request_created", "Ride request created", map[string]any{
		"request_id":   req.ID,
		"passenger_id": req.PassengerID,
		"seat_amount":  req.SeatAmount,
	})

	service.enqueue(ctx, ports.JobRequest, req.ID)

	return req, nil
}
