package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/postroute/postal-service/internal/api/http/handlers"
	"github.com/postroute/postal-service/internal/auth"
	"github.com/postroute/postal-service/internal/config"
	"github.com/postroute/postal-service/internal/domain"
	"github.com/postroute/postal-service/internal/events"
	"github.com/postroute/postal-service/internal/identity"
	"github.com/postroute/postal-service/internal/observability"
	"github.com/postroute/postal-service/internal/repository/memory"
	"github.com/postroute/postal-service/internal/service"
	"github.com/postroute/postal-service/internal/session"
)

type okDependency struct{}

func (okDependency) Ping(context.Context) error { return nil }
func (okDependency) Enabled() bool              { return false }

type testServer struct {
	app   *fiber.App
	store *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	mgr := identity.NewManager(store, bcrypt.MinCost)
	admin := config.AdminConfig{Username: "admin", Email: "admin@postal.local", Password: "admin123"}
	require.NoError(t, service.NewSetupService(store, mgr, admin, zap.NewNop()).Run(ctx, domain.BuiltinRoles))

	sessions := session.NewMemoryStore(time.Hour)
	tokens := auth.NewTokenManager("test-secret", 15)
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	branches := service.NewBranchService(store)
	cars := service.NewCarService(store)
	params := handlers.ListParams{DefaultPageSize: 10}
	authService := service.NewAuthService(service.AuthDependencies{Store: store, Identity: mgr, Sessions: sessions, Tokens: tokens})

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("postal", "test", map[string]handlers.Dependency{"postgres": okDependency{}}),
		Account:        handlers.NewAccountHandler(authService, branches, cars, params),
		Mail:           handlers.NewMailHandler(service.NewMailService(service.MailDependencies{Store: store, Dispatcher: dispatcher}), params),
		Activities:     handlers.NewActivityHandler(service.NewActivityService(store, dispatcher), params),
		Registry:       handlers.NewRegistryHandler(branches, cars, params),
		Users:          handlers.NewUsersHandler(service.NewUserService(store, mgr, "changeme"), service.NewRoleService(store, mgr), params),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, sessions, session.Lookups{Users: store.Users(), Branches: store.Branches(), Cars: store.Cars()}),
		Metrics:        metrics,
	})
	return &testServer{app: app, store: store}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
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

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/account/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, status, body)
	return body["data"].(map[string]any)["auth"].(map[string]any)["token"].(string)
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func dataID(t *testing.T, body map[string]any) int64 {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, body)
	return int64(data["id"].(float64))
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = s.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "disabled", body["dependencies"].(map[string]any)["postgres"])

	status, _ = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestAuthenticationRequired(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/account/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	status, _ = s.do(t, http.MethodPost, "/account/login", "", map[string]string{"username": "admin", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)

	token := s.login(t, "admin", "admin123")
	status, body = s.do(t, http.MethodGet, "/account/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Admin", body["data"].(map[string]any)["user"].(map[string]any)["role"])

	status, _ = s.do(t, http.MethodPost, "/account/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = s.do(t, http.MethodGet, "/account/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestWorkflowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "admin123")

	status, body := s.do(t, http.MethodPost, "/admin/branches", admin, map[string]string{"name": "Central", "address": "1 Main St"})
	require.Equal(t, http.StatusCreated, status, body)
	central := dataID(t, body)
	_, body = s.do(t, http.MethodPost, "/admin/branches", admin, map[string]string{"name": "North", "address": "9 Hill Rd"})
	north := dataID(t, body)
	_, body = s.do(t, http.MethodPost, "/admin/cars", admin, map[string]string{"model": "Transit", "number": "PX-100"})
	van := dataID(t, body)

	status, body = s.do(t, http.MethodPost, "/admin/users", admin, map[string]string{
		"username": "olga", "email": "olga@postal.local", "first_name": "Olga", "role": "Operator", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, status, body)
	_, _ = s.do(t, http.MethodPost, "/admin/users", admin, map[string]string{
		"username": "dan", "email": "dan@postal.local", "first_name": "Dan", "role": "Driver", "password": "secret1",
	})

	operator := s.login(t, "olga", "secret1")

	// Creating mail needs a selected branch.
	status, body = s.do(t, http.MethodPost, "/operator/mail", operator, map[string]any{
		"person_from": "Ann", "person_to": "Bob", "address_to": "5 Elm", "destination_branch_id": north,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "WORKFLOW_FAILED", errorCode(body))

	status, _ = s.do(t, http.MethodPut, "/account/branch", operator, map[string]int64{"id": 999})
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = s.do(t, http.MethodPut, "/account/branch", operator, map[string]int64{"id": central})
	require.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodPost, "/operator/mail", operator, map[string]any{
		"person_from": "Ann", "person_to": "Bob", "address_to": "5 Elm", "destination_branch_id": north,
	})
	require.Equal(t, http.StatusCreated, status, body)
	mailID := dataID(t, body)
	assert.Equal(t, "Created", body["data"].(map[string]any)["state"])

	// Operators may not shelve.
	status, body = s.do(t, http.MethodPost, fmt.Sprintf("/stockman/mail/%d/stock", mailID), operator, map[string]string{"branch_stock_address": "A-1"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	// Admin passes every gate.
	_, _ = s.do(t, http.MethodPut, "/account/branch", admin, map[string]int64{"id": central})
	status, body = s.do(t, http.MethodPost, fmt.Sprintf("/stockman/mail/%d/stock", mailID), admin, map[string]string{"branch_stock_address": "A-1"})
	require.Equal(t, http.StatusOK, status, body)

	driver := s.login(t, "dan", "secret1")
	_, _ = s.do(t, http.MethodPut, "/account/branch", driver, map[string]int64{"id": central})
	_, _ = s.do(t, http.MethodPut, "/account/car", driver, map[string]int64{"id": van})

	status, body = s.do(t, http.MethodGet, "/driver/mail/branch", driver, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, body = s.do(t, http.MethodPost, fmt.Sprintf("/driver/mail/%d/load", mailID), driver, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "InDeliveryToBranchStock", body["data"].(map[string]any)["state"])

	status, body = s.do(t, http.MethodGet, "/driver/mail/car?sort=id&order=desc&page_size=5", driver, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["meta"].(map[string]any)["total_count"])

	status, body = s.do(t, http.MethodGet, "/driver/mail/car?sort=colour", driver, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_ARGUMENT", errorCode(body))

	status, body = s.do(t, http.MethodGet, fmt.Sprintf("/mail/%d", mailID), operator, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "PX-100", body["data"].(map[string]any)["current_car"].(map[string]any)["number"])

	status, body = s.do(t, http.MethodGet, fmt.Sprintf("/manager/activities?mail_id=%d&sort=id&order=asc", mailID), admin, nil)
	require.Equal(t, http.StatusOK, status)
	entries := body["data"].([]any)
	require.Len(t, entries, 3)
	assert.Equal(t, "Created", entries[0].(map[string]any)["type"])

	status, body = s.do(t, http.MethodDelete, fmt.Sprintf("/admin/branches/%d", north), admin, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(body))

	status, _ = s.do(t, http.MethodDelete, "/admin/activities?before="+time.Now().Add(time.Hour).UTC().Format(time.RFC3339), admin, nil)
	assert.Equal(t, http.StatusNoContent, status)
	_, body = s.do(t, http.MethodGet, "/manager/activities", admin, nil)
	assert.Empty(t, body["data"])
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}
