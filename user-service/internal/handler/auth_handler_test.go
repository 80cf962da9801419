package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/useradmin/userapi/shared/cqrs"
	"github.com/useradmin/userapi/shared/errs"
)

type mockAuthQuerier struct {
	loginFn   func(cqrs.LoginCommand) (string, error)
	refreshFn func(cqrs.RefreshTokenCommand) (string, error)
}

func (m *mockAuthQuerier) Login(_ context.Context, cmd cqrs.LoginCommand) (string, error) {
	if m.loginFn != nil {
		return m.loginFn(cmd)
	}
	return "", fmt.Errorf("not configured")
}

func (m *mockAuthQuerier) RefreshToken(_ context.Context, cmd cqrs.RefreshTokenCommand) (string, error) {
	if m.refreshFn != nil {
		return m.refreshFn(cmd)
	}
	return "", fmt.Errorf("not configured")
}

func newAuthTestRouter(q AuthQuerier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewAuthHandler(q).RegisterRoutes(r.Group("/api/auth"))
	return r
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		loginFn        func(cqrs.LoginCommand) (string, error)
		expectedStatus int
	}{
		{
			name:           "success",
			body:           map[string]interface{}{"login": "admin", "password": "admin123"},
			loginFn:        func(cqrs.LoginCommand) (string, error) { return "token", nil },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unauthorized - bad credentials",
			body:           map[string]interface{}{"login": "admin", "password": "nope"},
			loginFn:        func(cqrs.LoginCommand) (string, error) { return "", fmt.Errorf("%w: invalid credentials", errs.ErrUnauthenticated) },
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "bad request - missing password",
			body:           map[string]interface{}{"login": "admin"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "internal error",
			body:           map[string]interface{}{"login": "admin", "password": "admin123"},
			loginFn:        func(cqrs.LoginCommand) (string, error) { return "", fmt.Errorf("db down") },
			expectedStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAuthTestRouter(&mockAuthQuerier{loginFn: tt.loginFn})
			w := doRequest(router, http.MethodPost, "/api/auth/login", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestRefreshToken(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		refreshFn      func(cqrs.RefreshTokenCommand) (string, error)
		expectedStatus int
	}{
		{
			name:           "success",
			body:           map[string]interface{}{"token": "old"},
			refreshFn:      func(cqrs.RefreshTokenCommand) (string, error) { return "new", nil },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unauthorized - revoked account",
			body:           map[string]interface{}{"token": "old"},
			refreshFn:      func(cqrs.RefreshTokenCommand) (string, error) { return "", fmt.Errorf("%w: %w", errs.ErrUnauthenticated, errs.ErrRevoked) },
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "bad request - missing token",
			body:           map[string]interface{}{},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAuthTestRouter(&mockAuthQuerier{refreshFn: tt.refreshFn})
			w := doRequest(router, http.MethodPost, "/api/auth/refresh", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}
