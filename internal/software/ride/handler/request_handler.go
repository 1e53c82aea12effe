package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"gogogo/internal/domain/ride"
	"gogogo/internal/ports"
)

type createRequestRequest struct {
	TravelStartDate string `json:"travel_start_date"`
	TravelStartTime string `json:"travel_start_time"`
	StartLocation   string `json:"start_location"`
	EndLocation     string `json:"end_location"`
	RequestSource   string `json:"request_source"`
	SeatAmount      string `json:"seat_amount"` // "1", "2", ..., "full"
}

func requestViews(requests []*ride.Request) []ports.RequestView {
	out := make([]ports.RequestView, len(requests))
	for i, req := range requests {
		out[i] = ports.NewRequestView(req)
	}
	return out
}

// ----- Handler: POST /requests?passenger_id= -----

func (handler *RideHTTPHandler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	passengerID, ok := handler.requiredQuery(ctx, w, r, "passenger_id")
	if !ok {
		return
	}

	var body createRequestRequest
	if !handler.decodeJSON(ctx, w, r, &body) {
		return
	}

	date, err := ride.ParseDate(body.TravelStartDate)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
		return
	}
	source, err := ride.ParseSource(body.RequestSource)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := handler.svc.CreateRequest(ctxWithTimeout, passengerID, ride.RequestDraft{
		Source:        source,
		TravelDate:    date,
		TravelTime:    body.TravelStartTime,
		StartLocation: body.StartLocation,
		EndLocation:   body.EndLocation,
		SeatAmount:    body.SeatAmount,
	})
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusCreated, ports.NewRequestView(req))
}

// ----- Handler: GET /requests -----

func (handler *RideHTTPHandler) handleListRequests(w http.ResponseWriter, r *http.Request) {
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

	requests, err := handler.svc.ListRequests(ctx, limit, offset)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, requestViews(requests))
}

// ----- Handler: GET /requests/search -----

func (handler *RideHTTPHandler) handleSearchRequests(w http.ResponseWriter, r *http.Request) {
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

	in := ports.RequestSearchInput{StartLocation: start, EndLocation: end, Date: date}
	var err error
	if in.Limit, err = intQuery(r, "limit", 0); err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	if in.Offset, err = intQuery(r, "offset", 0); err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	requests, err := handler.svc.SearchRequests(ctx, in)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, requestViews(requests))
}

// ----- Handler: GET /passengers/{passenger_id}/requests -----

func (handler *RideHTTPHandler) handlePassengerRequests(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	requests, err := handler.svc.ListPassengerRequests(ctx, strings.TrimSpace(r.PathValue("passenger_id")))
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, requestViews(requests))
}

// ----- Handler: DELETE /requests/{request_id}?passenger_id= -----

func (handler *RideHTTPHandler) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	passengerID, ok := handler.requiredQuery(ctx, w, r, "passenger_id")
	if !ok {
		return
	}

	if err := handler.svc.DeleteRequest(ctx, strings.TrimSpace(r.PathValue("request_id")), passengerID); err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
