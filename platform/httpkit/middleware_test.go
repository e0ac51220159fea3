package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type staticJWTConfig struct {
	secret string
}

func (c staticJWTConfig) GetJWTAccessSecret() string { return c.secret }

func signToken(t *testing.T, secret, tokenType string, sub string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"type": tokenType,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func authEngine(cfg staticJWTConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/protected", AuthRequired(cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.MustGet(ContextUserIDKey)})
	})
	return engine
}

func TestAuthRequiredAcceptsAccessToken(t *testing.T) {
	cfg := staticJWTConfig{secret: "test-secret"}
	engine := authEngine(cfg)

	token := signToken(t, cfg.secret, "access", uuid.NewString())
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthRequiredRejectsBadTokens(t *testing.T) {
	cfg := staticJWTConfig{secret: "test-secret"}
	engine := authEngine(cfg)

	cases := []struct {
		name  string
		token string
	}{
		{"missing header", ""},
		{"wrong secret", signToken(t, "other-secret", "access", uuid.NewString())},
		{"refresh token", signToken(t, cfg.secret, "refresh", uuid.NewString())},
		{"non-uuid subject", signToken(t, cfg.secret, "access", "42")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestRequestIDHonorsIncomingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "incoming-id")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "incoming-id" {
		t.Fatalf("expected the incoming request ID echoed, got %q", got)
	}
}

func TestRequestIDGeneratesWhenAbsent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if _, err := uuid.Parse(rec.Header().Get(RequestIDHeader)); err != nil {
		t.Fatalf("expected a generated UUID request ID: %v", err)
	}
}

func TestIPRateLimiterBlocksAfterBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewIPRateLimiter(rate.Limit(1), 2, nil)
	engine := gin.New()
	engine.Use(limiter.RateLimit())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	var lastCode int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		lastCode = rec.Code
	}

	if lastCode != http.StatusTooManyRequests {
		t.Fatalf("expected the third request limited, got %d", lastCode)
	}
}
