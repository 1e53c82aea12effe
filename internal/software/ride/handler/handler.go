package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gogogo/internal/domain/ride"
	"gogogo/internal/general/logger"
	"gogogo/internal/ports"

	"github.com/jackc/pgx/v5/pgconn"
)

// RideHTTPHandler adapts HTTP requests to the RideService.
type RideHTTPHandler struct {
	svc    ports.RideService
	logger *logger.Logger
}

// NewRideHTTPHandler wires an HTTP handler around the RideService.
func NewRideHTTPHandler(svc ports.RideService, logger *logger.Logger) *RideHTTPHandler {
	return &RideHTTPHandler{svc: svc, logger: logger}
}

// RegisterRoutes mounts ride endpoints on the provided mux under prefix.
func (handler *RideHTTPHandler) RegisterRoutes(mux *http.ServeMux, prefix string) {
	mux.HandleFunc("POST "+prefix+"/offers", handler.handleCreateOffer)
	mux.HandleFunc("GET "+prefix+"/offers", handler.handleListOffers)
	mux.HandleFunc("GET "+prefix+"/offers/search", handler.handleSearchOffers)
	mux.HandleFunc("GET "+prefix+"/drivers/{driver_id}/offers", handler.handleDriverOffers)
	mux.HandleFunc("DELETE "+prefix+"/offers/{offer_id}", handler.handleDeleteOffer)

	mux.HandleFunc("POST "+prefix+"/requests", handler.handleCreateRequest)
	mux.HandleFunc("GET "+prefix+"/requests", handler.handleListRequests)
	mux.HandleFunc("GET "+prefix+"/requests/search", handler.handleSearchRequests)
	mux.HandleFunc("GET "+prefix+"/passengers/{passenger_id}/requests", handler.handlePassengerRequests)
	mux.HandleFunc("DELETE "+prefix+"/requests/{request_id}", handler.handleDeleteRequest)

	mux.HandleFunc("POST "+prefix+"/drivers/{driver_id}/photos", handler.handleUploadPhoto)
	mux.HandleFunc("GET "+prefix+"/drivers/{driver_id}/photos", handler.handleListPhotos)
	mux.HandleFunc("DELETE "+prefix+"/photos/{photo_id}", handler.handleDeletePhoto)
}

// ----- general helpers -----

// jsonResponse takes any type of data and encode it to HTTP response.
func (handler *RideHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	// encode to buffer first so we can control status on failure
	var buf []byte
	var err error

	if data != nil {
		buf, err = json.Marshal(data)
		if err != nil {
			handler.logger.Error(ctx, "response_encode_failed", "Failed to encode response", err, nil)
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
			return
		}
	} else {
		buf = []byte("{}")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// httpError sends a JSON error response with a message.
func (handler *RideHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	if status >= 500 {
		action = "http_internal_error"
	} else if status == http.StatusBadRequest {
		action = "validation_failed"
	} else if status == http.StatusUnsupportedMediaType {
		action = "unsupported_media_type"
	}
	handler.logger.Error(ctx, action, msg, err, nil)

	type errBody struct {
		Error string `json:"error"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

// serviceError maps a service error to its HTTP status.
func (handler *RideHTTPHandler) serviceError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		pgErr *pgconn.PgError
		pe    *ride.ParseError
		de    *ride.DatastoreError
	)
	switch {
	case errors.Is(err, ride.ErrNotFound):
		handler.httpError(ctx, w, http.StatusNotFound, err.Error(), err)
	case errors.Is(err, ride.ErrNotOwner):
		handler.httpError(ctx, w, http.StatusForbidden, err.Error(), err)
	case errors.As(err, &pgErr), errors.As(err, &de):
		handler.httpError(ctx, w, http.StatusInternalServerError, "database error", err)
	case errors.As(err, &pe), isValidation(err):
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
	default:
		handler.httpError(ctx, w, http.StatusInternalServerError, "internal error", err)
	}
}

func isValidation(err error) bool {
	for _, target := range []error{
		ride.ErrDriverRequired, ride.ErrPassengerMissing, ride.ErrLocationRequired,
		ride.ErrCarModelRequired, ride.ErrBadSeatCounts, ride.ErrNegativePrice,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// decodeJSON reads a bounded, strictly-typed JSON body into dst.
func (handler *RideHTTPHandler) decodeJSON(ctx context.Context, w http.ResponseWriter, r *http.Request, dst any) bool {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			handler.httpError(ctx, w, http.StatusRequestEntityTooLarge, "request body too large", err)
			return false
		}
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return false
	}
	return true
}

// requiredQuery returns a trimmed, non-empty query parameter.
func (handler *RideHTTPHandler) requiredQuery(ctx context.Context, w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, name+" is required", nil)
		return "", false
	}
	return v, true
}

// intQuery parses an optional integer query parameter.
func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ride.ParseError{Field: name, Value: raw, Err: err}
	}
	return n, nil
}

// withReqID extracts or generates a request ID and adds it to the context.
func (handler *RideHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		reqID = randID()
	}
	return handler.logger.WithRequestID(ctx, reqID)
}

// randID generates a random 24-char hex string suitable for request IDs.
func randID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
