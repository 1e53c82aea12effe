package service

import (
	"context"

	"gogogo/internal/domain/ride"
)

// DeleteOffer removes an offer on behalf of its driver.
func (service *rideService) DeleteOffer(ctx context.Context, offerID, driverID string) error {
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		offer, err := service.offerRepo.GetByID(txCtx, offerID)
		if err != nil {
			return err
		}
		if !offer.OwnedBy(driverID) {
			return ride.ErrNotOwner
		}
		return service.offerRepo.Delete(txCtx, offer.ID)
	})
	if err != nil {
		service.logger.Warn(ctx, "offer_delete_failed", "Failed to delete ride offer", err, map[string]any{
			"offer_id":  offerID,
			"driver_id": driverID,
		})
		return err
	}

	service.logger.Info(ctx, "offer_deleted", "Ride offer deleted", map[string]any{"offer_id": offerID})
	return nil
}

// DeleteRequest removes a request on behalf of its passenger.
func (service *rideService) DeleteRequest(ctx context.Context, requestID, passengerID string) error {
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		req, err := service.requestRepo.GetByID(txCtx, requestID)
		if err != nil {
			return err
		}
		if !req.OwnedBy(passengerID) {
			return ride.ErrNotOwner
		}
		return service.requestRepo.Delete(txCtx, req.ID)
	})
	if err != nil {
		service.logger.Warn(ctx, "request_delete_failed", "Failed to delete ride request", err, map[string]any{
			"request_id":   requestID,
			"passenger_id": passengerID,
		})
		return err
	}

	service.logger.Info(ctx, "request_deleted", "Ride request deleted", map[string]any{"request_id": requestID})
	return nil
}
