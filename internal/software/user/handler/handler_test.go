package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gogogo/internal/domain/user"
	"gogogo/internal/general/logger"
	"gogogo/internal/ports"
)

type stubUsers struct {
	ports.UserService
	linked  ports.LinkTelegramInput
	updated *user.Role
}

func (s *stubUsers) LinkTelegram(_ context.Context, in ports.LinkTelegramInput) (*user.TelegramAccount, error) {
	s.linked = in
	return &user.TelegramAccount{ID: "t1", UserID: "u1", TelegramID: in.TelegramID, Role: in.Role}, nil
}

func (s *stubUsers) GetTelegram(_ context.Context, id int64) (*user.TelegramAccount, error) {
	if id != 5 {
		return nil, user.ErrTelegramNotFound
	}
	return &user.TelegramAccount{ID: "t5", TelegramID: 5}, nil
}

func (s *stubUsers) UpdateTelegram(_ context.Context, id int64, role *user.Role, _ *string) (*user.TelegramAccount, error) {
	s.updated = role
	return &user.TelegramAccount{ID: "t5", TelegramID: id, Role: *role}, nil
}

func serve(svc ports.UserService, method, target, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	NewUserHTTPHandler(svc, logger.NewWithWriter("test", io.Discard, slog.LevelError)).RegisterRoutes(mux, "/api/v1")

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestLinkTelegramParsesRole(t *testing.T) {
	svc := &stubUsers{}

	rec := serve(svc, http.MethodPost, "/api/v1/telegram", `{"telegram_id": 99, "role": "Driver", "phone_number": "+996700000001"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if svc.linked.Role != user.RoleDriver || svc.linked.PhoneNumber != "+996700000001" {
		t.Fatalf("linked = %+v", svc.linked)
	}
	var view map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &view)
	if view["role"] != "driver" || view["telegram_id"] != float64(99) {
		t.Fatalf("view = %v", view)
	}

	if rec := serve(svc, http.MethodPost, "/api/v1/telegram", `{"telegram_id": 1, "role": "admin"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad role: status = %d", rec.Code)
	}
}

func TestGetTelegram(t *testing.T) {
	svc := &stubUsers{}
	if rec := serve(svc, http.MethodGet, "/api/v1/telegram/5", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec := serve(svc, http.MethodGet, "/api/v1/telegram/6", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing: status = %d", rec.Code)
	}
	if rec := serve(svc, http.MethodGet, "/api/v1/telegram/abc", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric: status = %d", rec.Code)
	}
}

func TestUpdateTelegram(t *testing.T) {
	svc := &stubUsers{}
	rec := serve(svc, http.MethodPatch, "/api/v1/telegram/5", `{"role":"passenger"}`)
	if rec.Code != http.StatusOK || svc.updated == nil || *svc.updated != user.RolePassenger {
		t.Fatalf("status = %d updated = %v", rec.Code, svc.updated)
	}
}
