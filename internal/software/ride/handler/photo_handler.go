package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"gogogo/internal/domain/ride"
)

const maxPhotoBytes = 10 << 20

type carPhotoView struct {
	ID        string    `json:"id"`
	DriverID  string    `json:"driver_id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

func newCarPhotoView(p *ride.CarPhoto) carPhotoView {
	return carPhotoView{ID: p.ID, DriverID: p.DriverID, URL: p.URL, CreatedAt: p.CreatedAt}
}

// ----- Handler: POST /drivers/{driver_id}/photos (multipart "file") -----

func (handler *RideHTTPHandler) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes+(1<<20))
	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			handler.httpError(ctx, w, http.StatusRequestEntityTooLarge, "file too large", err)
			return
		}
		handler.httpError(ctx, w, http.StatusBadRequest, "multipart form with a file field is required", err)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "file is required", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "failed to read file", err)
		return
	}
	if len(data) == 0 {
		handler.httpError(ctx, w, http.StatusBadRequest, "Empty file", nil)
		return
	}

	photo, err := handler.svc.UploadCarPhoto(ctx, strings.TrimSpace(r.PathValue("driver_id")), data)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusCreated, newCarPhotoView(photo))
}

// ----- Handler: GET /drivers/{driver_id}/photos -----

func (handler *RideHTTPHandler) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	photos, err := handler.svc.ListCarPhotos(ctx, strings.TrimSpace(r.PathValue("driver_id")))
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	out := make([]carPhotoView, len(photos))
	for i, p := range photos {
		out[i] = newCarPhotoView(p)
	}
	handler.jsonResponse(ctx, w, http.StatusOK, out)
}

// ----- Handler: DELETE /photos/{photo_id}?driver_id= -----

func (handler *RideHTTPHandler) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	driverID, ok := handler.requiredQuery(ctx, w, r, "driver_id")
	if !ok {
		return
	}
	if err := handler.svc.DeleteCarPhoto(ctx, strings.TrimSpace(r.PathValue("photo_id")), driverID); err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
