package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/promptly/client/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const maxBodyBytes = 4 << 20

// Client talks to the generation service. Every call performs exactly one
// HTTP exchange and reports failures as *models.GenerationError.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
	tracer trace.Tracer
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The client keeps a copy
// carrying the configured Timeout; hc itself is not modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracer sets the tracer used for outgoing call spans
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// NewClient creates a client for the service described by cfg
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.ContentType == "" {
		cfg.ContentType = DefaultContentType
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid remote config: %w", err)
	}
	cfg.Headers = copyHeaders(cfg.Headers)

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{},
		logger: zap.NewNop(),
		tracer: otel.Tracer("github.com/promptly/client/internal/remote"),
	}
	for _, opt := range opts {
		opt(c)
	}
	hc := *c.http
	hc.Timeout = cfg.Timeout
	c.http = &hc
	return c, nil
}

// Config returns the configuration the client was built with
func (c *Client) Config() Config {
	cfg := c.cfg
	cfg.Headers = copyHeaders(c.cfg.Headers)
	return cfg
}

// Generate submits req to POST /generate and decodes the result
func (c *Client) Generate(ctx context.Context, req models.GenerationRequest) (models.GenerationResult, error) {
	ctx, span := c.tracer.Start(ctx, "remote.Generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("promptly.platform", string(req.Platform)),
			attribute.Int("promptly.max_tokens", req.MaxTokens),
			attribute.Bool("promptly.use_legacy", req.UseLegacyAPI),
		),
	)
	defer span.End()

	start := time.Now()
	var result models.GenerationResult
	err := c.do(ctx, http.MethodPost, "/generate", req, &result)
	latency := time.Since(start)

	if err != nil {
		genErr := models.AsGenerationError(err)
		span.RecordError(genErr)
		span.SetStatus(codes.Error, string(genErr.Kind))
		c.logger.Warn("generation request failed",
			zap.String("kind", string(genErr.Kind)),
			zap.Int("status", genErr.StatusCode),
			zap.String("message", genErr.Message),
			zap.Duration("latency", latency),
		)
		return models.GenerationResult{}, genErr
	}

	span.SetAttributes(attribute.Bool("promptly.fallback_used", result.FallbackUsed))
	c.logger.Info("generation request completed",
		zap.String("intent", result.Intent),
		zap.String("sentiment", result.Sentiment),
		zap.Bool("fallback_used", result.FallbackUsed),
		zap.Duration("latency", latency),
	)
	return result, nil
}

// ProviderStatus asks the service which model providers are reachable
func (c *Client) ProviderStatus(ctx context.Context) (models.ProviderStatus, error) {
	ctx, span := c.tracer.Start(ctx, "remote.ProviderStatus", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	var status models.ProviderStatus
	if err := c.do(ctx, http.MethodGet, "/providers/status", nil, &status); err != nil {
		genErr := models.AsGenerationError(err)
		span.RecordError(genErr)
		span.SetStatus(codes.Error, string(genErr.Kind))
		return models.ProviderStatus{}, genErr
	}
	return status, nil
}

// CheckHealth probes GET /health. Only a 200 counts as healthy; every
// failure, timeouts included, is reported as false.
func (c *Client) CheckHealth(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.endpoint("/health"), nil)
	if err != nil {
		c.logger.Debug("health probe request build failed", zap.Error(err))
		return false
	}
	c.decorate(ctx, req)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("health probe failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	return resp.StatusCode == http.StatusOK
}

// do performs one exchange. payload is JSON encoded when non-nil, and a 2xx
// body is decoded into v.
func (c *Client) do(ctx context.Context, method, path string, payload any, v any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return models.NewClientError("could not encode request", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.endpoint(path), body)
	if err != nil {
		return models.NewClientError("could not build request", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", c.cfg.ContentType)
	}
	req.Header.Set("Accept", c.cfg.ContentType)
	c.decorate(ctx, req)

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransportError(err, c.cfg.Timeout)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return classifyTransportError(err, c.cfg.Timeout)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.NewServerError(resp.StatusCode, errorMessage(raw, resp.StatusCode))
	}

	if v == nil {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		genErr := models.NewServerError(resp.StatusCode, "invalid response body: "+err.Error())
		genErr.Err = err
		return genErr
	}
	return nil
}

// decorate applies static headers and propagates the trace context
func (c *Client) decorate(ctx context.Context, req *http.Request) {
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
}
