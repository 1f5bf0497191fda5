package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	r.Use(handlers...)
	r.POST("/submit", func(c *gin.Context) {
		c.JSON(http.StatusAccepted, gin.H{"subject": GetSubject(c)})
	})
	return r
}

func post(r http.Handler, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	rl := NewRateLimiter(2, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, _, err := rl.Allow(ctx, "client")
		if err != nil || !allowed {
			t.Fatalf("request %d: expected allowed, got %v (%v)", i, allowed, err)
		}
	}
	if allowed, _, _ := rl.Allow(ctx, "client"); allowed {
		t.Error("expected third request to be limited")
	}
	if allowed, _, _ := rl.Allow(ctx, "other"); !allowed {
		t.Error("expected other client to have its own bucket")
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(1, 1, 20*time.Millisecond)
	ctx := context.Background()

	rl.Allow(ctx, "client")
	if allowed, _, _ := rl.Allow(ctx, "client"); allowed {
		t.Fatal("expected bucket to be empty")
	}
	time.Sleep(30 * time.Millisecond)
	if allowed, _, _ := rl.Allow(ctx, "client"); !allowed {
		t.Error("expected bucket to refill")
	}
}

func TestRateLimiterDropsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(2, 1, 20*time.Millisecond)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		rl.Allow(ctx, key)
	}
	if n := len(rl.tokens); n != 3 {
		t.Fatalf("expected 3 buckets, got %d", n)
	}

	// Two refill periods fill a bucket of two from empty.
	time.Sleep(50 * time.Millisecond)
	if _, remaining, _ := rl.Allow(ctx, "d"); remaining != 1 {
		t.Errorf("expected fresh bucket for d, got %d left", remaining)
	}
	rl.mu.Lock()
	n, m := len(rl.tokens), len(rl.lastRefill)
	rl.mu.Unlock()
	if n != 1 || m != 1 {
		t.Errorf("expected idle buckets to be dropped, have %d tokens and %d refill entries", n, m)
	}

	if _, remaining, _ := rl.Allow(ctx, "a"); remaining != 1 {
		t.Errorf("expected a to start over with a full bucket, got %d left", remaining)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	r := newRouter(RateLimitMiddleware(NewRateLimiter(1, 1, time.Minute), zap.NewNop()))

	w := post(r, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Limit"); got != "1" {
		t.Errorf("expected limit header 1, got %q", got)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("expected remaining header 0, got %q", got)
	}

	w = post(r, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	var body struct {
		Error APIError `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != ErrCodeRateLimited {
		t.Errorf("expected %s, got %s", ErrCodeRateLimited, body.Error.Code)
	}
	if body.Error.RetryAfter != int(time.Minute.Milliseconds()) {
		t.Errorf("unexpected retry hint %d", body.Error.RetryAfter)
	}
}

func TestRateLimitMiddlewareFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	r := newRouter(RateLimitMiddleware(NewRedisRateLimiter(client, 1, time.Minute), zap.NewNop()))
	for i := 0; i < 3; i++ {
		if w := post(r, nil); w.Code != http.StatusAccepted {
			t.Fatalf("request %d: expected 202 with redis down, got %d", i, w.Code)
		}
	}
}

func signToken(t *testing.T, secret string, method jwt.SigningMethod, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(method, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestAuthDisabledWithoutSecret(t *testing.T) {
	auth := NewAuthenticator("", zap.NewNop())
	if auth.Enabled() {
		t.Fatal("expected auth to be disabled")
	}
	if w := post(newRouter(auth.Middleware()), nil); w.Code != http.StatusAccepted {
		t.Errorf("expected 202, got %d", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	const secret = "test-secret"
	auth := NewAuthenticator(secret, zap.NewNop())
	r := newRouter(auth.Middleware())

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other", jwt.SigningMethodHS256, "u1"), http.StatusUnauthorized},
		{"valid token", "Bearer " + signToken(t, secret, jwt.SigningMethodHS256, "u1"), http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.header != "" {
				h.Set("Authorization", tt.header)
			}
			w := post(r, h)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestAuthSubjectKeysRateLimit(t *testing.T) {
	const secret = "test-secret"
	auth := NewAuthenticator(secret, zap.NewNop())
	r := newRouter(auth.Middleware(), RateLimitMiddleware(NewRateLimiter(1, 1, time.Minute), zap.NewNop()))

	alice := http.Header{"Authorization": {"Bearer " + signToken(t, secret, jwt.SigningMethodHS256, "alice")}}
	bob := http.Header{"Authorization": {"Bearer " + signToken(t, secret, jwt.SigningMethodHS256, "bob")}}

	w := post(r, alice)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["subject"] != "alice" {
		t.Errorf("expected subject alice, got %q", body["subject"])
	}
	if w := post(r, alice); w.Code != http.StatusTooManyRequests {
		t.Errorf("expected alice to be limited, got %d", w.Code)
	}
	if w := post(r, bob); w.Code != http.StatusAccepted {
		t.Errorf("expected bob to have a separate bucket, got %d", w.Code)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	r := newRouter()
	w := post(r, http.Header{"X-Request-Id": {"req-1"}})
	if got := w.Header().Get("X-Request-ID"); got != "req-1" {
		t.Errorf("expected request id to be echoed, got %q", got)
	}
	w = post(r, nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated request id")
	}
}
