package service

import (
	"gogogo/internal/general/logger"
	"gogogo/internal/ports"
	"gogogo/internal/software/matching"
)

// rideService encapsulates the offer, request and car photo logic and its dependencies.
type rideService struct {
	logger      *logger.Logger
	uow         ports.UnitOfWork
	offerRepo   ports.OfferRepository
	requestRepo ports.RequestRepository
	photoRepo   ports.CarPhotoRepository
	engine      *matching.Engine
	queue       ports.JobQueue
	media       ports.MediaStore
	photoFolder string
}

// NewRideService creates a new instance of the RideService with the provided dependencies.
func NewRideService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	offerRepo ports.OfferRepository,
	requestRepo ports.RequestRepository,
	photoRepo ports.CarPhotoRepository,
	engine *matching.Engine,
	queue ports.JobQueue,
	media ports.MediaStore,
	photoFolder string,
) ports.RideService {
	return &rideService{
		logger:      logger,
		uow:         uow,
		offerRepo:   offerRepo,
		requestRepo: requestRepo,
		photoRepo:   photoRepo,
		engine:      engine,
		queue:       queue,
		media:       media,
		photoFolder: photoFolder,
	}
}
