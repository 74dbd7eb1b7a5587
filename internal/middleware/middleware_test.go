package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestServiceAuth(t *testing.T) {
	handler := ServiceAuth([]byte(testSecret))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, _ := CallerFrom(r.Context())
		w.Header().Set("X-Caller", caller)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("Missing token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/resolve", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/resolve", nil)
		req.Header.Set("Authorization", "Basic user:pass")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Invalid signature", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"sub": "agente"}, "other-secret")
		req := httptest.NewRequest("GET", "/v1/resolve", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Expired token", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{
			"sub": "agente",
			"exp": time.Now().Add(-time.Hour).Unix(),
		}, testSecret)
		req := httptest.NewRequest("GET", "/v1/resolve", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Valid token carries the caller", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{
			"sub": "agente",
			"exp": time.Now().Add(time.Hour).Unix(),
		}, testSecret)
		req := httptest.NewRequest("GET", "/v1/resolve", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "agente", w.Header().Get("X-Caller"))
	})
}

func TestRateLimiter(t *testing.T) {
	t.Run("Strict tier throttles submissions", func(t *testing.T) {
		rl := NewRateLimiter()
		handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		var last int
		for i := 0; i < burstStrict+1; i++ {
			req := httptest.NewRequest("POST", "/v1/sessions/c1/submit", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			last = w.Code
		}
		assert.Equal(t, http.StatusTooManyRequests, last)
	})

	t.Run("Tiers have independent buckets", func(t *testing.T) {
		rl := NewRateLimiter()
		handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		// Exhaust the strict bucket.
		for i := 0; i < burstStrict+1; i++ {
			req := httptest.NewRequest("POST", "/v1/sessions/c1/submit", nil)
			req.RemoteAddr = "10.0.0.2:1234"
			handler.ServeHTTP(httptest.NewRecorder(), req)
		}

		// Resolution still flows on the general bucket.
		req := httptest.NewRequest("POST", "/v1/resolve", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Callers do not share buckets", func(t *testing.T) {
		rl := NewRateLimiter()
		handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		for i := 0; i < burstStrict+1; i++ {
			req := httptest.NewRequest("POST", "/v1/sessions/c1/submit", nil)
			req.RemoteAddr = "10.0.0.3:1234"
			handler.ServeHTTP(httptest.NewRecorder(), req)
		}

		req := httptest.NewRequest("POST", "/v1/sessions/c1/submit", nil)
		req.RemoteAddr = "10.0.0.4:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
