package middlewares

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axiapac.com/punchclock/logging"
	"axiapac.com/punchclock/security"
)

const testSecret = "IxrAjDoa2FqElO7IhrSrUJELhUckePEPVpaePlS/Xaw="

func token(t *testing.T, employee string) string {
	t.Helper()
	tok, err := security.CreateIdentityToken(&security.EmployeeIdentity{EmployeeNumber: employee}, testSecret, 3600)
	require.NoError(t, err)
	return tok
}

func router(t *testing.T, hook IdentityHook) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	secret, err := security.DecodeSecret(testSecret)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", Authentication(secret, hook), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"employee": Claims(c).EmployeeNumber})
	})
	return r
}

func TestAuthentication(t *testing.T) {
	var seen []string
	r := router(t, func(c *gin.Context, claims *security.IdentityClaims, tok string) error {
		seen = append(seen, claims.EmployeeNumber)
		return nil
	})

	tests := []struct {
		name   string
		setup  func(req *http.Request)
		status int
	}{
		{name: "no token", setup: func(*http.Request) {}, status: http.StatusUnauthorized},
		{name: "wrong scheme", setup: func(req *http.Request) { req.Header.Set("Authorization", "Basic abc") }, status: http.StatusUnauthorized},
		{name: "garbage", setup: func(req *http.Request) { req.Header.Set("Authorization", "Bearer abc") }, status: http.StatusUnauthorized},
		{name: "bearer", setup: func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token(t, "E1")) }, status: http.StatusOK},
		{name: "cookie", setup: func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token(t, "E2")})
		}, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
	assert.Equal(t, []string{"E1", "E2"}, seen)
}

func TestAuthenticationHookError(t *testing.T) {
	r := router(t, func(*gin.Context, *security.IdentityClaims, string) error {
		return errors.New("profile unavailable")
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "E1"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "profile unavailable")
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	var ctxLogger *slog.Logger
	r := gin.New()
	r.Use(RequestLogger(base))
	r.GET("/ping", func(c *gin.Context) {
		ctxLogger = logging.FromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil).WithContext(context.Background())
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.NotNil(t, ctxLogger)
	assert.Contains(t, buf.String(), "request_id=abc-123")
	assert.Contains(t, buf.String(), "status=204")
}
