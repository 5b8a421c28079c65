package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tablebook/reservation-service/internal/api/http/handlers"
	"github.com/tablebook/reservation-service/internal/auth"
	"github.com/tablebook/reservation-service/internal/config"
	"github.com/tablebook/reservation-service/internal/events"
	"github.com/tablebook/reservation-service/internal/observability"
	"github.com/tablebook/reservation-service/internal/persistence"
	"github.com/tablebook/reservation-service/internal/repository/memory"
	"github.com/tablebook/reservation-service/internal/service"
)

var testNow = time.Date(2025, 1, 9, 12, 0, 0, 0, time.UTC)

type testServer struct {
	app     *fiber.App
	authSvc *service.AuthService
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	store := memory.NewStore()
	dispatcher := events.NewInMemoryDispatcher()
	clock := func() time.Time { return testNow }

	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:              "test-secret",
		AccessTokenTTLMinutes:  60,
		RefreshTokenTTLMinutes: 120,
		BcryptCost:             bcrypt.MinCost,
	}}
	authSvc := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo:  store.Users(),
		Blacklist: memory.NewTokenBlacklist(),
		Metrics:   metrics,
		Logger:    logger,
	})
	tableSvc := service.NewTableService(service.TableDependencies{
		TableRepo:  store.Tables(),
		Dispatcher: dispatcher,
		Logger:     logger,
		Clock:      clock,
	})
	reservationSvc := service.NewReservationService(service.ReservationDependencies{
		ReservationRepo: store.Reservations(),
		TableRepo:       store.Tables(),
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		Logger:          logger,
		Clock:           clock,
		Location:        time.UTC,
	})

	pg, err := persistence.NewPostgres(context.Background(), config.PostgresConfig{}, logger)
	require.NoError(t, err)

	app := NewApp("test", AppDependencies{Logger: logger, Metrics: metrics, Timeout: 5 * time.Second}, RouteConfig{
		Health:         handlers.NewHealthHandler("test", "0.0.0", pg, nil),
		Auth:           handlers.NewAuthHandler(authSvc),
		Tables:         handlers.NewTablesHandler(tableSvc, reservationSvc),
		Admin:          handlers.NewAdminHandler(tableSvc, reservationSvc),
		AuthMiddleware: auth.NewAuthMiddleware(authSvc.TokenManager(), store.Users()),
		RateLimiter:    auth.NewIPRateLimiter(rateLimit),
		Metrics:        metrics,
	})
	return &testServer{app: app, authSvc: authSvc}
}

type response struct {
	Status int
	Body   map[string]any
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := response{Status: resp.StatusCode, Body: map[string]any{}}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out.Body))
	}
	return out
}

func (r response) data() map[string]any {
	data, _ := r.Body["data"].(map[string]any)
	return data
}

func (r response) list() []any {
	items, _ := r.Body["data"].([]any)
	return items
}

func (r response) errorCode() string {
	e, _ := r.Body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func (s *testServer) signup(t *testing.T, username string) string {
	t.Helper()
	resp := s.do(t, "POST", "/auth/signup", "", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "tasty-dinner",
	})
	require.Equal(t, nethttp.StatusCreated, resp.Status, resp.Body)
	return resp.data()["access"].(string)
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	_, _, err := s.authSvc.EnsureAdmin(context.Background(), "admin", "admin@example.com", "admin-password")
	require.NoError(t, err)
	resp := s.do(t, "POST", "/auth/login", "", map[string]any{"username": "admin", "password": "admin-password"})
	require.Equal(t, nethttp.StatusOK, resp.Status)
	return resp.data()["access"].(string)
}

func (s *testServer) createTable(t *testing.T, admin, name string, capacity int) int64 {
	t.Helper()
	resp := s.do(t, "POST", "/admin/tables", admin, map[string]any{"name": name, "capacity": capacity})
	require.Equal(t, nethttp.StatusCreated, resp.Status, resp.Body)
	assert.Equal(t, true, resp.data()["is_available"])
	return int64(resp.data()["id"].(float64))
}

func reserveBody(start, end string, party int) map[string]any {
	return map[string]any{
		"reservation_date": "2025-01-10",
		"start_time":       start,
		"end_time":         end,
		"party_size":       party,
		"special_requests": "window seat",
	}
}

func TestReservationFlow(t *testing.T) {
	s := newTestServer(t, 0)
	admin := s.adminToken(t)
	alice := s.signup(t, "alice")
	bob := s.signup(t, "bob")
	tableID := s.createTable(t, admin, "Window", 4)
	reserve := fmt.Sprintf("/tables/%d/reserve", tableID)

	resp := s.do(t, "POST", reserve, alice, reserveBody("18:00", "20:00", 2))
	require.Equal(t, nethttp.StatusCreated, resp.Status, resp.Body)
	assert.Equal(t, "confirmed", resp.data()["status"])
	assert.Equal(t, "18:00", resp.data()["start_time"])
	assert.Equal(t, "alice", resp.data()["username"])
	assert.Equal(t, "Window", resp.data()["table_name"])

	resp = s.do(t, "POST", reserve, bob, reserveBody("19:00", "21:00", 2))
	assert.Equal(t, nethttp.StatusBadRequest, resp.Status)
	assert.Equal(t, "RESERVATION_CONFLICT", resp.errorCode())
	assert.Contains(t, resp.Body["error"].(map[string]any)["message"], "18:00 to 20:00")

	resp = s.do(t, "POST", reserve, bob, reserveBody("20:00", "22:00", 2))
	assert.Equal(t, nethttp.StatusCreated, resp.Status)

	resp = s.do(t, "POST", reserve, bob, reserveBody("12:00", "13:00", 5))
	assert.Equal(t, nethttp.StatusBadRequest, resp.Status)
	assert.Equal(t, "VALIDATION_FAILED", resp.errorCode())

	resp = s.do(t, "POST", reserve, bob, map[string]any{"reservation_date": "2025-01-10", "start_time": "25:00", "end_time": "26:00", "party_size": 2})
	assert.Equal(t, nethttp.StatusBadRequest, resp.Status)

	resp = s.do(t, "POST", "/tables/999/reserve", bob, reserveBody("12:00", "13:00", 2))
	assert.Equal(t, nethttp.StatusNotFound, resp.Status)

	resp = s.do(t, "GET", "/tables?date=2025-01-10&start_time=19:00&end_time=20:00", bob, nil)
	require.Equal(t, nethttp.StatusOK, resp.Status)
	assert.Empty(t, resp.list())

	resp = s.do(t, "GET", "/tables/?capacity=2", bob, nil)
	require.Equal(t, nethttp.StatusOK, resp.Status)
	assert.Len(t, resp.list(), 1)

	resp = s.do(t, "GET", "/tables?capacity=abc", bob, nil)
	assert.Equal(t, nethttp.StatusBadRequest, resp.Status)

	cancel := fmt.Sprintf("/tables/%d/cancel", tableID)
	resp = s.do(t, "DELETE", cancel, alice, nil)
	assert.Equal(t, nethttp.StatusNoContent, resp.Status)
	resp = s.do(t, "DELETE", cancel, alice, nil)
	assert.Equal(t, nethttp.StatusNotFound, resp.Status)
	assert.Equal(t, "NOT_FOUND", resp.errorCode())

	resp = s.do(t, "GET", "/tables/history", alice, nil)
	require.Equal(t, nethttp.StatusOK, resp.Status)
	require.Len(t, resp.list(), 1)
	assert.Equal(t, "cancelled", resp.list()[0].(map[string]any)["status"])

	resp = s.do(t, "GET", "/tables/history?status=confirmed", alice, nil)
	require.Equal(t, nethttp.StatusOK, resp.Status)
	assert.Empty(t, resp.list())

	resp = s.do(t, "GET", "/admin/reservations?search=bob", admin, nil)
	require.Equal(t, nethttp.StatusOK, resp.Status)
	assert.Len(t, resp.list(), 1)
	meta := resp.Body["meta"].(map[string]any)
	assert.Equal(t, float64(1), meta["count"])
	assert.Equal(t, float64(50), meta["limit"])
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t, 0)
	alice := s.signup(t, "alice")

	resp := s.do(t, "GET", "/admin/tables", alice, nil)
	assert.Equal(t, nethttp.StatusForbidden, resp.Status)
	assert.Equal(t, "FORBIDDEN", resp.errorCode())

	resp = s.do(t, "GET", "/admin/tables", "", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, resp.Status)

	resp = s.do(t, "GET", "/tables", "", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, resp.Status)
}

func TestAdminTableCRUD(t *testing.T) {
	s := newTestServer(t, 0)
	admin := s.adminToken(t)
	id := s.createTable(t, admin, "Patio", 4)
	path := fmt.Sprintf("/admin/tables/%d", id)

	resp := s.do(t, "POST", "/admin/tables", admin, map[string]any{"name": "", "capacity": 0})
	assert.Equal(t, nethttp.StatusBadRequest, resp.Status)

	resp = s.do(t, "PATCH", path, admin, map[string]any{"is_available": false})
	require.Equal(t, nethttp.StatusOK, resp.Status)
	assert.Equal(t, false, resp.data()["is_available"])
	assert.Equal(t, "Patio", resp.data()["name"])

	resp = s.do(t, "PUT", path, admin, map[string]any{"name": "Terrace", "capacity": 6, "location": "Outside"})
	require.Equal(t, nethttp.StatusOK, resp.Status)
	assert.Equal(t, "Terrace", resp.data()["name"])
	assert.Equal(t, true, resp.data()["is_available"])

	resp = s.do(t, "GET", "/admin/tables?search=outs&ordering=-capacity", admin, nil)
	require.Equal(t, nethttp.StatusOK, resp.Status)
	assert.Len(t, resp.list(), 1)

	resp = s.do(t, "GET", "/admin/tables?ordering=secret", admin, nil)
	assert.Equal(t, nethttp.StatusBadRequest, resp.Status)

	resp = s.do(t, "DELETE", path, admin, nil)
	assert.Equal(t, nethttp.StatusNoContent, resp.Status)
	resp = s.do(t, "GET", path, admin, nil)
	assert.Equal(t, nethttp.StatusNotFound, resp.Status)
	resp = s.do(t, "GET", "/admin/tables/abc", admin, nil)
	assert.Equal(t, nethttp.StatusNotFound, resp.Status)
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t, 0)

	resp := s.do(t, "POST", "/auth/signup", "", map[string]any{"username": "carol", "email": "carol@example.com", "password": "12345678"})
	assert.Equal(t, nethttp.StatusBadRequest, resp.Status)
	assert.Contains(t, resp.Body["error"].(map[string]any)["details"], "password")

	resp = s.do(t, "POST", "/auth/signup", "", map[string]any{"username": "carol", "email": "carol@example.com", "password": "tasty-dinner"})
	require.Equal(t, nethttp.StatusCreated, resp.Status)
	access := resp.data()["access"].(string)
	refresh := resp.data()["refresh"].(string)
	assert.Equal(t, false, resp.data()["user"].(map[string]any)["is_admin"])

	resp = s.do(t, "POST", "/auth/login", "", map[string]any{"username": "carol", "password": "nope-nope"})
	assert.Equal(t, nethttp.StatusUnauthorized, resp.Status)

	resp = s.do(t, "GET", "/auth/me", access, nil)
	require.Equal(t, nethttp.StatusOK, resp.Status)
	assert.Equal(t, "carol", resp.data()["username"])

	resp = s.do(t, "PATCH", "/auth/me", access, map[string]any{"email": "carol@new.example.com"})
	require.Equal(t, nethttp.StatusOK, resp.Status)
	assert.Equal(t, "carol@new.example.com", resp.data()["email"])

	resp = s.do(t, "POST", "/auth/refresh", "", map[string]any{"refresh": refresh})
	require.Equal(t, nethttp.StatusOK, resp.Status)
	assert.NotEmpty(t, resp.data()["access"])

	resp = s.do(t, "POST", "/auth/logout", access, map[string]any{"refresh": refresh})
	assert.Equal(t, nethttp.StatusNoContent, resp.Status)

	resp = s.do(t, "POST", "/auth/refresh", "", map[string]any{"refresh": refresh})
	assert.Equal(t, nethttp.StatusUnauthorized, resp.Status)

	resp = s.do(t, "POST", "/auth/password/change", access, map[string]any{"current_password": "tasty-dinner", "new_password": "fresh-secret"})
	assert.Equal(t, nethttp.StatusNoContent, resp.Status)
	resp = s.do(t, "POST", "/auth/login", "", map[string]any{"username": "carol", "password": "fresh-secret"})
	assert.Equal(t, nethttp.StatusOK, resp.Status)
}

func TestLoginIsRateLimited(t *testing.T) {
	s := newTestServer(t, 2)
	body := map[string]any{"username": "ghost", "password": "whatever1"}

	assert.Equal(t, nethttp.StatusUnauthorized, s.do(t, "POST", "/auth/login", "", body).Status)
	assert.Equal(t, nethttp.StatusUnauthorized, s.do(t, "POST", "/auth/login", "", body).Status)
	resp := s.do(t, "POST", "/auth/login", "", body)
	assert.Equal(t, nethttp.StatusTooManyRequests, resp.Status)
	assert.Equal(t, "RATE_LIMITED", resp.errorCode())
}

func TestHealthMetricsAndUnknownRoutes(t *testing.T) {
	s := newTestServer(t, 0)

	resp := s.do(t, "GET", "/health/live", "", nil)
	assert.Equal(t, nethttp.StatusOK, resp.Status)

	resp = s.do(t, "GET", "/health/ready", "", nil)
	require.Equal(t, nethttp.StatusOK, resp.Status)
	deps := resp.Body["dependencies"].(map[string]any)
	assert.Equal(t, "disabled", deps["postgres"])
	assert.Equal(t, "disabled", deps["redis"])

	resp = s.do(t, "GET", "/nope", "", nil)
	assert.Equal(t, nethttp.StatusNotFound, resp.Status)
	assert.Equal(t, "NOT_FOUND", resp.errorCode())

	req := httptest.NewRequest("GET", "/metrics", nil)
	raw, err := s.app.Test(req, -1)
	require.NoError(t, err)
	metrics, err := io.ReadAll(raw.Body)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "tablebook_http_requests_total")
	assert.NotEmpty(t, raw.Header.Get(observability.RequestIDHeader))
}
