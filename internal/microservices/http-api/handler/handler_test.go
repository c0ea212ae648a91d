package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"titlehub/internal/microservices/http-api/dto"
	"titlehub/internal/microservices/http-api/handler"
	"titlehub/internal/microservices/http-api/middleware"
	"titlehub/internal/microservices/http-api/models"
	"titlehub/internal/microservices/http-api/permission"
	"titlehub/internal/microservices/http-api/repository"
	"titlehub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- MOCK SERVICES ---

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Signup(ctx context.Context, req dto.SignupRequest) (*dto.SignupResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SignupResponse), args.Error(1)
}

func (m *MockAuthService) ObtainToken(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TokenResponse), args.Error(1)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}

func (m *MockAuthService) Authenticate(ctx context.Context, tokenString string) (permission.Identity, error) {
	args := m.Called(ctx, tokenString)
	return args.Get(0).(permission.Identity), args.Error(1)
}

type MockTitleService struct {
	mock.Mock
}

func (m *MockTitleService) List(ctx context.Context, f repository.TitleFilter, q dto.PageQuery) (*dto.PaginatedResponse[dto.TitleResponse], error) {
	args := m.Called(ctx, f, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaginatedResponse[dto.TitleResponse]), args.Error(1)
}

func (m *MockTitleService) GetByID(ctx context.Context, id int64) (*dto.TitleResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TitleResponse), args.Error(1)
}

func (m *MockTitleService) Create(ctx context.Context, req dto.CreateTitleDTO) (*dto.TitleResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TitleResponse), args.Error(1)
}

func (m *MockTitleService) Update(ctx context.Context, id int64, req dto.UpdateTitleDTO) (*dto.TitleResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TitleResponse), args.Error(1)
}

func (m *MockTitleService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- HELPERS ---

var adminIdentity = permission.Identity{UserID: "admin-id", Username: "boss", Role: models.RoleAdmin}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupRouter(auth *MockAuthService, titles *MockTitleService, opts handler.RouterOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth.On("Authenticate", mock.Anything, "admin-token").Return(adminIdentity, nil).Maybe()
	auth.On("Authenticate", mock.Anything, "bad-token").Return(permission.Identity{}, service.ErrInvalidToken).Maybe()
	return handler.NewRouter(handler.Services{Auth: auth, Title: titles}, opts, discardLogger())
}

func doRequest(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// --- TESTS ---

func TestTitleHandler_Get(t *testing.T) {
	auth, titles := new(MockAuthService), new(MockTitleService)
	r := setupRouter(auth, titles, handler.RouterOptions{})

	titles.On("GetByID", mock.Anything, int64(7)).Return(&dto.TitleResponse{ID: 7, Name: "Solaris", Genre: []dto.GenreResponse{}}, nil)
	titles.On("GetByID", mock.Anything, int64(8)).Return(nil, fmt.Errorf("title %w", service.ErrNotFound))

	w := doRequest(r, http.MethodGet, "/api/v1/titles/7", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Solaris", body["name"])
	assert.Nil(t, body["rating"])
	assert.Nil(t, body["category"])

	w = doRequest(r, http.MethodGet, "/api/v1/titles/8", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "title not found", decode(t, w)["error"])

	w = doRequest(r, http.MethodGet, "/api/v1/titles/abc", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	titles.AssertExpectations(t)
}

func TestTitleHandler_List(t *testing.T) {
	auth, titles := new(MockAuthService), new(MockTitleService)
	r := setupRouter(auth, titles, handler.RouterOptions{})

	year := 1972
	page := dto.NewPaginatedResponse([]dto.TitleResponse{{ID: 1, Name: "Solaris"}}, 2, 5, 6)
	titles.On("List", mock.Anything,
		repository.TitleFilter{CategorySlug: "film", GenreSlug: "sci-fi", Year: &year, Name: "sol"},
		dto.PageQuery{Page: 2, PageSize: 5},
	).Return(&page, nil)

	w := doRequest(r, http.MethodGet, "/api/v1/titles?category=film&genre=sci-fi&year=1972&name=sol&page=2&page_size=5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(6), body["total"])
	assert.Equal(t, float64(2), body["total_pages"])
	assert.Len(t, body["data"], 1)

	w = doRequest(r, http.MethodGet, "/api/v1/titles?page_size=1000", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["errors"], "page_size")

	titles.AssertExpectations(t)
}

func TestTitleHandler_WritePermissions(t *testing.T) {
	auth, titles := new(MockAuthService), new(MockTitleService)
	r := setupRouter(auth, titles, handler.RouterOptions{})

	w := doRequest(r, http.MethodPost, "/api/v1/titles", "", map[string]any{"name": "Solaris"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	auth.On("Authenticate", mock.Anything, "user-token").
		Return(permission.Identity{UserID: "u1", Username: "reader", Role: models.RoleUser}, nil)
	w = doRequest(r, http.MethodDelete, "/api/v1/titles/1", "user-token", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/titles/1", "bad-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	titles.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	titles.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestTitleHandler_Create(t *testing.T) {
	auth, titles := new(MockAuthService), new(MockTitleService)
	r := setupRouter(auth, titles, handler.RouterOptions{})

	year := 1972
	req := dto.CreateTitleDTO{Name: "Solaris", Year: &year, Genre: []string{"sci-fi"}, Category: "film"}
	titles.On("Create", mock.Anything, req).Return(&dto.TitleResponse{ID: 1, Name: "Solaris", Year: &year}, nil)

	w := doRequest(r, http.MethodPost, "/api/v1/titles", "admin-token", req)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["id"])

	w = doRequest(r, http.MethodPost, "/api/v1/titles", "admin-token", map[string]any{"year": 2000})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errs := decode(t, w)["errors"].(map[string]any)
	assert.Equal(t, []any{"this field is required"}, errs["name"])

	titles.AssertExpectations(t)
}

func TestTitleHandler_MalformedJSON(t *testing.T) {
	auth, titles := new(MockAuthService), new(MockTitleService)
	r := setupRouter(auth, titles, handler.RouterOptions{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/titles", bytes.NewBufferString(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer admin-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["errors"], service.NonFieldErrors)
}

func TestTitleHandler_UpdateAndDelete(t *testing.T) {
	auth, titles := new(MockAuthService), new(MockTitleService)
	r := setupRouter(auth, titles, handler.RouterOptions{})

	full := dto.CreateTitleDTO{Name: "Stalker"}
	titles.On("Update", mock.Anything, int64(3), full.ToUpdate()).Return(&dto.TitleResponse{ID: 3, Name: "Stalker"}, nil)
	name := "Mirror"
	titles.On("Update", mock.Anything, int64(4), dto.UpdateTitleDTO{Name: &name}).
		Return(nil, service.NewValidationError("genre", "object with slug=x does not exist"))
	titles.On("Delete", mock.Anything, int64(3)).Return(nil)
	titles.On("Delete", mock.Anything, int64(9)).Return(errors.New("connection reset"))

	w := doRequest(r, http.MethodPut, "/api/v1/titles/3", "admin-token", full)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodPatch, "/api/v1/titles/4", "admin-token", map[string]any{"name": "Mirror"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["errors"], "genre")

	w = doRequest(r, http.MethodDelete, "/api/v1/titles/3", "admin-token", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(r, http.MethodDelete, "/api/v1/titles/9", "admin-token", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decode(t, w)["error"])

	titles.AssertExpectations(t)
}

func TestAuthHandler(t *testing.T) {
	auth, titles := new(MockAuthService), new(MockTitleService)
	r := setupRouter(auth, titles, handler.RouterOptions{})

	signup := dto.SignupRequest{Username: "reader", Email: "reader@example.com"}
	auth.On("Signup", mock.Anything, signup).Return(&dto.SignupResponse{Username: "reader", Email: "reader@example.com"}, nil)
	auth.On("ObtainToken", mock.Anything, dto.TokenRequest{Username: "reader", ConfirmationCode: "wrong"}).
		Return(nil, service.ErrInvalidConfirmationCode)
	auth.On("ObtainToken", mock.Anything, dto.TokenRequest{Username: "reader", ConfirmationCode: "right"}).
		Return(&dto.TokenResponse{Token: "jwt"}, nil)

	w := doRequest(r, http.MethodPost, "/api/v1/auth/signup", "", signup)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "reader@example.com", decode(t, w)["email"])

	w = doRequest(r, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{"username": "Me", "email": "me@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["errors"], "username")

	w = doRequest(r, http.MethodPost, "/api/v1/auth/token", "", map[string]string{"username": "reader", "confirmation_code": "wrong"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid confirmation code", decode(t, w)["error"])

	w = doRequest(r, http.MethodPost, "/api/v1/auth/token", "", map[string]string{"username": "reader", "confirmation_code": "right"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jwt", decode(t, w)["token"])

	auth.AssertExpectations(t)
}

func TestAuthHandler_MailFailure(t *testing.T) {
	auth, titles := new(MockAuthService), new(MockTitleService)
	r := setupRouter(auth, titles, handler.RouterOptions{})

	auth.On("Signup", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("%w: dial tcp: refused", service.ErrMailDelivery))

	w := doRequest(r, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{"username": "reader", "email": "reader@example.com"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_HealthCheck(t *testing.T) {
	auth, titles := new(MockAuthService), new(MockTitleService)

	healthy := setupRouter(auth, titles, handler.RouterOptions{})
	w := doRequest(healthy, http.MethodGet, "/check-conn", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	down := setupRouter(auth, titles, handler.RouterOptions{
		HealthCheck: func(ctx context.Context) error { return errors.New("db down") },
	})
	w = doRequest(down, http.MethodGet, "/check-conn", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_RateLimitIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	auth, titles := new(MockAuthService), new(MockTitleService)
	r := setupRouter(auth, titles, handler.RouterOptions{AuthLimiter: middleware.NewLocalLimiter(1, time.Minute)})

	send := func(forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", nil)
		req.RemoteAddr = "192.0.2.1:4321"
		req.Header.Set("X-Forwarded-For", forwardedFor)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusBadRequest, send("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("1.1.1.2"), "same peer shares one bucket")
}

func TestRouter_RateLimitHonorsTrustedProxy(t *testing.T) {
	auth, titles := new(MockAuthService), new(MockTitleService)
	r := setupRouter(auth, titles, handler.RouterOptions{
		AuthLimiter:    middleware.NewLocalLimiter(1, time.Minute),
		TrustedProxies: []string{"192.0.2.1"},
	})

	send := func(forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", nil)
		req.RemoteAddr = "192.0.2.1:4321"
		req.Header.Set("X-Forwarded-For", forwardedFor)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusBadRequest, send("198.51.100.7"))
	assert.Equal(t, http.StatusBadRequest, send("198.51.100.8"), "clients behind the proxy are limited separately")
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.7"))
}
