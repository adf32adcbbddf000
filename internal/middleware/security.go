package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

type contextKey string

// ClientIDKey carries the authenticated client identity through the
// request context.
const ClientIDKey contextKey = "client_id"

// SecurityConfig holds configuration for the security middleware stack
type SecurityConfig struct {
	APIKeys           []string
	JWTSecret         string
	RateLimitEnabled  bool
	RequestsPerMinute int
	BurstSize         int
	AllowedOrigins    []string
}

// SecurityMiddleware provides authentication, rate limiting, CORS and
// security headers. Authentication accepts either a configured API key
// (X-API-Key header) or a bearer JWT signed with the configured secret;
// with neither keys nor a secret configured, requests pass unauthenticated.
type SecurityMiddleware struct {
	config  *SecurityConfig
	logger  *logrus.Logger
	buckets map[string]*tokenBucket
	mu      sync.Mutex
}

// NewSecurityMiddleware creates a new security middleware stack
func NewSecurityMiddleware(config *SecurityConfig, logger *logrus.Logger) *SecurityMiddleware {
	return &SecurityMiddleware{
		config:  config,
		logger:  logger,
		buckets: make(map[string]*tokenBucket),
	}
}

// Handler creates the complete security middleware chain
func (s *SecurityMiddleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		handler := next

		if s.authRequired() {
			handler = s.authMiddleware()(handler)
		}

		if s.config.RateLimitEnabled {
			handler = s.rateLimitMiddleware()(handler)
		}

		handler = s.corsMiddleware()(handler)
		handler = s.securityHeadersMiddleware()(handler)

		return handler
	}
}

func (s *SecurityMiddleware) authRequired() bool {
	return len(s.config.APIKeys) > 0 || s.config.JWTSecret != ""
}

// authMiddleware validates the request credential and stores the client
// identity in the context.
func (s *SecurityMiddleware) authMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
				if s.validAPIKey(apiKey) {
					ctx := context.WithValue(r.Context(), ClientIDKey, maskAPIKey(apiKey))
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
				s.logger.WithField("api_key_prefix", maskAPIKey(apiKey)).Warn("Invalid API key")
				http.Error(w, "Invalid API key", http.StatusUnauthorized)
				return
			}

			if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
				token := strings.TrimPrefix(authHeader, "Bearer ")
				subject, err := s.validateJWT(token)
				if err != nil {
					s.logger.WithError(err).Warn("Invalid JWT token")
					http.Error(w, "Invalid JWT token", http.StatusUnauthorized)
					return
				}
				ctx := context.WithValue(r.Context(), ClientIDKey, subject)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			http.Error(w, "Authentication required", http.StatusUnauthorized)
		})
	}
}

func (s *SecurityMiddleware) validAPIKey(candidate string) bool {
	for _, key := range s.config.APIKeys {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(key)) == 1 {
			return true
		}
	}
	return false
}

// validateJWT parses and verifies a bearer token, returning its subject.
func (s *SecurityMiddleware) validateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", jwt.ErrTokenSignatureInvalid
	}
	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	return subject, nil
}

// tokenBucket is a simple per-client token bucket refilled continuously
// at the configured rate.
type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
}

// rateLimitMiddleware enforces a per-client request rate keyed on the
// client IP.
func (s *SecurityMiddleware) rateLimitMiddleware() func(http.Handler) http.Handler {
	refillPerSecond := float64(s.config.RequestsPerMinute) / 60.0
	burst := float64(s.config.BurstSize)
	if burst <= 0 {
		burst = 1
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := getClientIP(r)

			s.mu.Lock()
			bucket, ok := s.buckets[key]
			if !ok {
				bucket = &tokenBucket{tokens: burst, lastRefill: time.Now()}
				s.buckets[key] = bucket
			}
			now := time.Now()
			bucket.tokens += now.Sub(bucket.lastRefill).Seconds() * refillPerSecond
			if bucket.tokens > burst {
				bucket.tokens = burst
			}
			bucket.lastRefill = now
			allowed := bucket.tokens >= 1
			if allowed {
				bucket.tokens--
			}
			s.mu.Unlock()

			if !allowed {
				s.logger.WithField("client_ip", key).Warn("Rate limit exceeded")
				w.Header().Set("Retry-After", "60")
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware handles cross-origin requests and preflight OPTIONS.
func (s *SecurityMiddleware) corsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			for _, allowedOrigin := range s.config.AllowedOrigins {
				if allowedOrigin == "*" || allowedOrigin == origin {
					allowed = true
					break
				}
			}

			if allowed && origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
				w.Header().Set("Access-Control-Max-Age", "86400")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// securityHeadersMiddleware adds security headers to responses
func (s *SecurityMiddleware) securityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Content-Security-Policy", "default-src 'self'")

			next.ServeHTTP(w, r)
		})
	}
}

// Helper functions

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if colonIndex := strings.LastIndex(ip, ":"); colonIndex != -1 {
		ip = ip[:colonIndex]
	}

	return ip
}

func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:4] + "****" + apiKey[len(apiKey)-4:]
}
