package routes

import (
	"account-service/internal/config"
	"account-service/internal/infrastructure/database/memory"
	"account-service/internal/infrastructure/geo"
	"account-service/internal/notification"
	"account-service/internal/usecase/account"
	"account-service/internal/usecase/otp"
	"account-service/internal/usecase/token"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type healthFunc func(ctx context.Context) error

func (f healthFunc) Health(ctx context.Context) error { return f(ctx) }

func newRouter(health HealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		JWT:    config.JWTConfig{Secret: "test-secret", AccessTTL: time.Minute, RefreshTTL: time.Hour},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"*"}, AllowedMethods: []string{"GET"}},
	}
	store := memory.NewStore()
	svc := account.NewService(store, otp.NewManager(store), token.NewResetTokens("k", time.Hour),
		notification.LogNotifier{}, geo.Disabled{}, cfg)
	return SetupRoutes(cfg, svc, health)
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter(memory.NewStore()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	down := healthFunc(func(context.Context) error { return errors.New("connection refused") })
	w = httptest.NewRecorder()
	newRouter(down).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unhealthy")
}

func TestRoutes_Mounted(t *testing.T) {
	router := newRouter(memory.NewStore())

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodPost, "/register/", http.StatusBadRequest},
		{http.MethodPost, "/login/", http.StatusBadRequest},
		{http.MethodPost, "/login/refresh/", http.StatusBadRequest},
		{http.MethodPost, "/django-login/", http.StatusBadRequest},
		{http.MethodPost, "/otp/", http.StatusBadRequest},
		{http.MethodPost, "/verify-otp/", http.StatusBadRequest},
		{http.MethodPost, "/reset-password/", http.StatusBadRequest},
		{http.MethodPatch, "/change-password/", http.StatusUnauthorized},
		{http.MethodGet, "/me/", http.StatusUnauthorized},
		{http.MethodPut, "/me/", http.StatusUnauthorized},
		{http.MethodPatch, "/me/", http.StatusUnauthorized},
		{http.MethodDelete, "/me/", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}
