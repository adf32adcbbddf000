package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityMiddleware_APIKeyAuth(t *testing.T) {
	sm := NewSecurityMiddleware(&SecurityConfig{
		APIKeys: []string{"valid-key"},
	}, testLogger())
	handler := sm.Handler()(okHandler())

	// Valid key passes.
	req := httptest.NewRequest("GET", "/v1/providers", nil)
	req.Header.Set("X-API-Key", "valid-key")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Wrong key is rejected.
	req = httptest.NewRequest("GET", "/v1/providers", nil)
	req.Header.Set("X-API-Key", "wrong-key")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// No credential at all is rejected.
	req = httptest.NewRequest("GET", "/v1/providers", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSecurityMiddleware_JWTAuth(t *testing.T) {
	secret := "test-secret"
	sm := NewSecurityMiddleware(&SecurityConfig{JWTSecret: secret}, testLogger())
	handler := sm.Handler()(okHandler())

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/v1/providers", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// A token signed with another secret fails.
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	req = httptest.NewRequest("GET", "/v1/providers", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// An expired token fails.
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	req = httptest.NewRequest("GET", "/v1/providers", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSecurityMiddleware_NoAuthConfigured(t *testing.T) {
	sm := NewSecurityMiddleware(&SecurityConfig{}, testLogger())
	handler := sm.Handler()(okHandler())

	req := httptest.NewRequest("GET", "/v1/providers", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSecurityMiddleware_RateLimit(t *testing.T) {
	sm := NewSecurityMiddleware(&SecurityConfig{
		RateLimitEnabled:  true,
		RequestsPerMinute: 60,
		BurstSize:         2,
	}, testLogger())
	handler := sm.Handler()(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/v1/providers", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	// Burst exhausted.
	req := httptest.NewRequest("GET", "/v1/providers", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// A different client has its own bucket.
	req = httptest.NewRequest("GET", "/v1/providers", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSecurityMiddleware_CORS(t *testing.T) {
	sm := NewSecurityMiddleware(&SecurityConfig{
		AllowedOrigins: []string{"https://app.example.com"},
	}, testLogger())
	handler := sm.Handler()(okHandler())

	req := httptest.NewRequest("OPTIONS", "/v1/routes/optimize", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	// Unlisted origins get no CORS headers.
	req = httptest.NewRequest("OPTIONS", "/v1/routes/optimize", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityMiddleware_SecurityHeaders(t *testing.T) {
	sm := NewSecurityMiddleware(&SecurityConfig{}, testLogger())
	handler := sm.Handler()(okHandler())

	req := httptest.NewRequest("GET", "/v1/providers", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.168.1.5:4321"
	assert.Equal(t, "192.168.1.5", getClientIP(req))

	req.Header.Set("X-Real-IP", "203.0.113.9")
	assert.Equal(t, "203.0.113.9", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.1, 203.0.113.9")
	assert.Equal(t, "198.51.100.1", getClientIP(req))
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "sk-1****6789", maskAPIKey("sk-12345-6789"))
}
