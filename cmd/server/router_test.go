package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/promptly/client/internal/config"
	"github.com/promptly/client/internal/metrics"
	"github.com/promptly/client/internal/orchestrator"
	"github.com/promptly/client/internal/remote"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	service := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/generate":
			time.Sleep(20 * time.Millisecond)
			w.Write([]byte(`{"content":"ok","intent":"i","sentiment":"s","documents":[],"time_taken":0.02,"fallback_used":false}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(service.Close)

	cfg := config.Defaults()
	cfg.AIServiceURL = service.URL
	if mutate != nil {
		mutate(cfg)
	}

	client, err := remote.NewClient(cfg.Remote())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	orch := orchestrator.New(client, zap.NewNop(), orchestrator.WithListener(m.Observe))
	t.Cleanup(orch.Close)

	a := &app{
		cfg:      cfg,
		logger:   zap.NewNop(),
		client:   client,
		orch:     orch,
		metrics:  m,
		gatherer: reg,
	}
	return a.router()
}

func request(r http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouterHealthAndMetrics(t *testing.T) {
	r := newTestApp(t, nil)

	if w := request(r, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Errorf("expected /health 200, got %d", w.Code)
	}
	w := request(r, http.MethodGet, "/health/deep", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected /health/deep 200, got %d: %s", w.Code, w.Body.String())
	}

	w = request(r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected /metrics 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "promptly_generation_service_up 1") {
		t.Errorf("expected the deep health probe to be exported")
	}
}

func TestRouterServesAPIDocs(t *testing.T) {
	r := newTestApp(t, func(cfg *config.Config) { cfg.JWTSecret = "secret" })

	w := request(r, http.MethodGet, "/docs/doc.json", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected /docs/doc.json 200, got %d", w.Code)
	}
	for _, want := range []string{`"/submit"`, `"/submissions/{id}/wait"`, `"Bearer"`} {
		if !strings.Contains(w.Body.String(), want) {
			t.Errorf("expected doc to mention %s", want)
		}
	}
}

func TestRouterSubmitRateLimited(t *testing.T) {
	r := newTestApp(t, func(cfg *config.Config) { cfg.RateLimitPerMinute = 1 })

	if w := request(r, http.MethodPost, "/api/v1/submit", `{"text":"one"}`, nil); w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if w := request(r, http.MethodPost, "/api/v1/submit", `{"text":"two"}`, nil); w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", w.Code)
	}
	// Reads are not throttled
	if w := request(r, http.MethodGet, "/api/v1/state", "", nil); w.Code != http.StatusOK {
		t.Errorf("expected 200 from /state, got %d", w.Code)
	}
}

func TestRouterRequiresTokenWhenSecretSet(t *testing.T) {
	r := newTestApp(t, func(cfg *config.Config) { cfg.JWTSecret = "secret" })

	if w := request(r, http.MethodGet, "/api/v1/state", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if w := request(r, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Errorf("expected health to stay public, got %d", w.Code)
	}
}

func TestRouterAttemptsNeedDatabase(t *testing.T) {
	r := newTestApp(t, nil)
	if w := request(r, http.MethodGet, "/api/v1/attempts", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 without a database, got %d", w.Code)
	}
}

func TestNewLogger(t *testing.T) {
	cfg := config.Defaults()
	cfg.LogLevel = "debug"
	logger, err := newLogger(cfg)
	if err != nil {
		t.Fatalf("newLogger failed: %v", err)
	}
	if !logger.Core().Enabled(zap.DebugLevel) {
		t.Error("expected debug level to be enabled")
	}

	cfg.LogLevel = "loud"
	if _, err := newLogger(cfg); err == nil {
		t.Error("expected error for unknown level")
	}
}
