package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"gogogo/internal/domain/ride"
	"gogogo/internal/ports"
)

// --- Request DTOs (HTTP boundary) ---

type createOfferRequest struct {
	TravelStartDate string `json:"travel_start_date"` // YYYY-MM-DD
	TravelStartTime string `json:"travel_start_time"` // HH:MM[:SS]
	StartLocation   string `json:"start_location"`
	EndLocation     string `json:"end_location"`
	RequestSource   string `json:"request_source"`
	CarModel        string `json:"car_model"`
	TotalSeatAmount int    `json:"total_seat_amount"`
	FreeSeats       int    `json:"free_seats"`
	Price           *int   `json:"price"`
}

func offerViews(offers []*ride.Offer) []ports.OfferView {
	out := make([]ports.OfferView, len(offers))
	for i, o := range offers {
		out[i] = ports.NewOfferView(o)
	}
	return out
}

// ----- Handler: POST /offers?driver_id= -----

func (handler *RideHTTPHandler) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	driverID, ok := handler.requiredQuery(ctx, w, r, "driver_id")
	if !ok {
		return
	}

	var req createOfferRequest
	if !handler.decodeJSON(ctx, w, r, &req) {
		return
	}

	date, err := ride.ParseDate(req.TravelStartDate)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
		return
	}
	source, err := ride.ParseSource(req.RequestSource)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
		return
	}

	// bound service call
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	offer, err := handler.svc.CreateOffer(ctxWithTimeout, driverID, ride.OfferDraft{
		Source:        source,
		TravelDate:    date,
		TravelTime:    req.TravelStartTime,
		StartLocation: req.StartLocation,
		EndLocation:   req.EndLocation,
		CarModel:      req.CarModel,
		TotalSeats:    req.TotalSeatAmount,
		FreeSeats:     req.FreeSeats,
		Price:         req.Price,
	})
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusCreated, ports.NewOfferView(offer))
}

// ----- Handler: GET /offers -----

func (handler *RideHTTPHandler) handleListOffers(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	limit, err := intQuery(r, "limit", 0)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	offset, err := intQuery(r, "offset", 0)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	offers, err := handler.svc.ListOffers(ctx, limit, offset)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, offerViews(offers))
}

// ----- Handler: GET /offers/search -----

func (handler *RideHTTPHandler) handleSearchOffers(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	start, ok := handler.requiredQuery(ctx, w, r, "start_location")
	if !ok {
		return
	}
	end, ok := handler.requiredQuery(ctx, w, r, "end_location")
	if !ok {
		return
	}
	date, ok := handler.requiredQuery(ctx, w, r, "start_time")
	if !ok {
		return
	}

	in := ports.OfferSearchInput{StartLocation: start, EndLocation: end, Date: date}
	var err error
	if in.SeatsNeeded, err = intQuery(r, "seats_needed", 1); err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	if in.Limit, err = intQuery(r, "limit", 0); err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	if in.Offset, err = intQuery(r, "offset", 0); err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	offers, err := handler.svc.SearchOffers(ctx, in)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, offerViews(offers))
}

// ----- Handler: GET /drivers/{driver_id}/offers -----

func (handler *RideHTTPHandler) handleDriverOffers(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	offers, err := handler.svc.ListDriverOffers(ctx, strings.TrimSpace(r.PathValue("driver_id")))
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, offerViews(offers))
}

// ----- Handler: DELETE /offers/{offer_id}?driver_id= -----

func (handler *RideHTTPHandler) handleDeleteOffer(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	driverID, ok := handler.requiredQuery(ctx, w, r, "driver_id")
	if !ok {
		return
	}

	if err := handler.svc.DeleteOffer(ctx, strings.TrimSpace(r.PathValue("offer_id")), driverID); err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
