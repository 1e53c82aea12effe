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
	"time"

	"gogogo/internal/domain/ride"
	"gogogo/internal/domain/user"
	"gogogo/internal/general/logger"
	"gogogo/internal/general/postgres"
	"gogogo/internal/ports"
	"gogogo/internal/software/user/service"
)

// UserHTTPHandler adapts HTTP requests to the UserService.
type UserHTTPHandler struct {
	svc    ports.UserService
	logger *logger.Logger
}

// NewUserHTTPHandler wires an HTTP handler around the UserService.
func NewUserHTTPHandler(svc ports.UserService, logger *logger.Logger) *UserHTTPHandler {
	return &UserHTTPHandler{svc: svc, logger: logger}
}

// RegisterRoutes mounts user and telegram endpoints on the provided mux under prefix.
func (handler *UserHTTPHandler) RegisterRoutes(mux *http.ServeMux, prefix string) {
	mux.HandleFunc("POST "+prefix+"/users", handler.handleRegisterUser)
	mux.HandleFunc("POST "+prefix+"/telegram", handler.handleLinkTelegram)
	mux.HandleFunc("GET "+prefix+"/telegram/{telegram_id}", handler.handleGetTelegram)
	mux.HandleFunc("PATCH "+prefix+"/telegram/{telegram_id}", handler.handleUpdateTelegram)
}

// --- DTOs (HTTP boundary) ---

type registerUserRequest struct {
	PhoneNumber string  `json:"phone_number"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
}

type userView struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	FirstName   *string   `json:"first_name"`
	LastName    *string   `json:"last_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type linkTelegramRequest struct {
	TelegramID   int64   `json:"telegram_id"`
	ChatID       *int64  `json:"chat_id"`
	Username     *string `json:"username"`
	LanguageCode *string `json:"language_code"`
	Role         *string `json:"role"`
	Language     *string `json:"language"`
	UserID       string  `json:"user_id"`
	PhoneNumber  string  `json:"phone_number"`
}

type updateTelegramRequest struct {
	Role     *string `json:"role"`
	Language *string `json:"language"`
}

type telegramView struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	TelegramID   int64     `json:"telegram_id"`
	ChatID       *int64    `json:"chat_id"`
	Username     *string   `json:"username"`
	LanguageCode *string   `json:"language_code"`
	Role         *string   `json:"role"`
	Language     *string   `json:"language"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newTelegramView(acc *user.TelegramAccount) telegramView {
	view := telegramView{
		ID:           acc.ID,
		UserID:       acc.UserID,
		TelegramID:   acc.TelegramID,
		ChatID:       acc.ChatID,
		Username:     acc.Username,
		LanguageCode: acc.LanguageCode,
		Language:     acc.Language,
		CreatedAt:    acc.CreatedAt,
		UpdatedAt:    acc.UpdatedAt,
	}
	if acc.Role != user.RoleNone {
		role := acc.Role.String()
		view.Role = &role
	}
	return view
}

// ----- Handler: POST /users -----

func (handler *UserHTTPHandler) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	var req registerUserRequest
	if !handler.decodeJSON(ctx, w, r, &req) {
		return
	}

	u, err := handler.svc.RegisterUser(ctx, ports.RegisterUserInput{
		PhoneNumber: req.PhoneNumber,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
	})
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusCreated, userView{
		ID:          u.ID,
		PhoneNumber: u.PhoneNumber,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	})
}

// ----- Handler: POST /telegram -----

func (handler *UserHTTPHandler) handleLinkTelegram(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	var req linkTelegramRequest
	if !handler.decodeJSON(ctx, w, r, &req) {
		return
	}

	var role user.Role
	if req.Role != nil {
		parsed, err := user.ParseRole(*req.Role)
		if err != nil {
			handler.httpError(ctx, w, http.StatusBadRequest, "role must be one of: passenger, driver", err)
			return
		}
		role = parsed
	}

	acc, err := handler.svc.LinkTelegram(ctx, ports.LinkTelegramInput{
		TelegramID:   req.TelegramID,
		ChatID:       req.ChatID,
		Username:     req.Username,
		LanguageCode: req.LanguageCode,
		Role:         role,
		Language:     req.Language,
		UserID:       req.UserID,
		PhoneNumber:  req.PhoneNumber,
	})
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusCreated, newTelegramView(acc))
}

// ----- Handler: GET /telegram/{telegram_id} -----

func (handler *UserHTTPHandler) handleGetTelegram(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	telegramID, ok := handler.telegramID(ctx, w, r)
	if !ok {
		return
	}

	acc, err := handler.svc.GetTelegram(ctx, telegramID)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, newTelegramView(acc))
}

// ----- Handler: PATCH /telegram/{telegram_id} -----

func (handler *UserHTTPHandler) handleUpdateTelegram(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	telegramID, ok := handler.telegramID(ctx, w, r)
	if !ok {
		return
	}

	var req updateTelegramRequest
	if !handler.decodeJSON(ctx, w, r, &req) {
		return
	}

	var role *user.Role
	if req.Role != nil {
		parsed, err := user.ParseRole(*req.Role)
		if err != nil {
			handler.httpError(ctx, w, http.StatusBadRequest, "role must be one of: passenger, driver", err)
			return
		}
		role = &parsed
	}

	acc, err := handler.svc.UpdateTelegram(ctx, telegramID, role, req.Language)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, newTelegramView(acc))
}

// ----- general helpers -----

func (handler *UserHTTPHandler) telegramID(ctx context.Context, w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.PathValue("telegram_id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "telegram_id must be an integer", err)
		return 0, false
	}
	return id, true
}

// serviceError maps a service error to its HTTP status.
func (handler *UserHTTPHandler) serviceError(ctx context.Context, w http.ResponseWriter, err error) {
	var de *ride.DatastoreError
	switch {
	case errors.Is(err, user.ErrNotFound):
		handler.httpError(ctx, w, http.StatusNotFound, err.Error(), err)
	case errors.Is(err, user.ErrInvalidPhone), errors.Is(err, user.ErrInvalidRole),
		errors.Is(err, user.ErrNoBindingTarget), errors.Is(err, user.ErrAlreadyLinked),
		errors.Is(err, postgres.ErrPhoneTaken), errors.Is(err, service.ErrTelegramIDRequired):
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
	case errors.As(err, &de):
		handler.httpError(ctx, w, http.StatusInternalServerError, "database error", err)
	default:
		handler.httpError(ctx, w, http.StatusInternalServerError, "internal error", err)
	}
}

// jsonResponse takes any type of data and encode it to HTTP response.
func (handler *UserHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	buf, err := json.Marshal(data)
	if err != nil {
		handler.logger.Error(ctx, "response_encode_failed", "Failed to encode response", err, nil)
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// httpError sends a JSON error response with a message.
func (handler *UserHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	if status >= 500 {
		action = "http_internal_error"
	} else if status == http.StatusBadRequest {
		action = "validation_failed"
	}
	handler.logger.Error(ctx, action, msg, err, nil)

	handler.jsonResponse(ctx, w, status, map[string]string{"error": msg})
}

// decodeJSON reads a bounded JSON body into dst.
func (handler *UserHTTPHandler) decodeJSON(ctx context.Context, w http.ResponseWriter, r *http.Request, dst any) bool {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return false
	}
	return true
}

// withReqID extracts or generates a request ID and adds it to the context.
func (handler *UserHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		var b [12]byte
		_, _ = rand.Read(b[:])
		reqID = hex.EncodeToString(b[:])
	}
	return handler.logger.WithRequestID(ctx, reqID)
}
