package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gogogo/internal/domain/ride"

	"github.com/google/uuid"
)

// ErrEmptyPhoto is returned for an upload without content.
var ErrEmptyPhoto = errors.New("photo is empty")

// UploadCarPhoto stores the image in media storage and records its URL for the driver.
func (service *rideService) UploadCarPhoto(ctx context.Context, driverID string, data []byte) (*ride.CarPhoto, error) {
	driverID, err := ride.ParseDriverID(driverID)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyPhoto
	}

	publicID := fmt.Sprintf("%s/%s/%s", service.photoFolder, driverID, uuid.NewString())
	url, err := service.media.Upload(ctx, publicID, data)
	if err != nil {
		service.logger.Error(ctx, "photo_upload_failed", "Failed to upload car photo", err, map[string]any{
			"driver_id": driverID,
			"public_id": publicID,
		})
		return nil, fmt.Errorf("upload car photo: %w", err)
	}

	photo := &ride.CarPhoto{DriverID: driverID, URL: url}
	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		return service.photoRepo.Create(txCtx, photo)
	})
	if err != nil {
		return nil, err
	}

	service.logger.Info(ctx, "photo_uploaded", "Car photo stored", map[string]any{
		"photo_id":  photo.ID,
		"driver_id": driverID,
	})
	return photo, nil
}

// ListCarPhotos returns a driver's photos, oldest first.
func (service *rideService) ListCarPhotos(ctx context.Context, driverID string) ([]*ride.CarPhoto, error) {
	var out []*ride.CarPhoto
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		out, err = service.photoRepo.ListByDriver(txCtx, driverID)
		return err
	})
	return out, err
}

// DeleteCarPhoto removes the photo record. The stored image itself is kept.
func (service *rideService) DeleteCarPhoto(ctx context.Context, photoID, driverID string) error {
	return service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		photo, err := service.photoRepo.GetByID(txCtx, photoID)
		if err != nil {
			return err
		}
		if photo.DriverID != strings.TrimSpace(driverID) {
			return ride.ErrNotOwner
		}
		return service.photoRepo.Delete(txCtx, photo.ID)
	})
}
