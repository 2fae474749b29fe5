// Package gateway dispatches every outbound API call and normalizes failures.
//
// All callers get the same contract: the bearer credential from the persisted
// session is attached automatically, successful bodies are decoded unchanged,
// and every failure (network, backend rejection, malformed response) comes
// back as a *Error whose Error() is a message fit for display.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"foodrescue/internal/gateway/metrics"
	"foodrescue/pkg/requestcontext"
)

const (
	// DefaultBaseURL is used when no API base URL is configured.
	DefaultBaseURL = "http://localhost:8000/api/v1"

	headerRequestID     = "X-Request-ID"
	headerCorrelationID = "X-Correlation-ID"
	tracerName          = "foodrescue/internal/gateway"
)

var emptyObject = []byte("{}")

// Encoding selects how a request body is serialized.
type Encoding int

const (
	// EncodingJSON sends the body as application/json. This is the default.
	EncodingJSON Encoding = iota
	// EncodingForm sends a url.Values body as application/x-www-form-urlencoded.
	// Only the credential exchange endpoint uses it.
	EncodingForm
)

// Request describes one API call relative to the client's base URL.
type Request struct {
	Method string
	Path   string
	// Route is the path template used for metrics and span names
	// ("/ngo/food/claim/{id}"). Defaults to Path.
	Route    string
	Query    url.Values
	Body     any
	Encoding Encoding
	// Anonymous suppresses the bearer header for endpoints that establish
	// a session rather than use one.
	Anonymous bool
}

func (r Request) route() string {
	if r.Route != "" {
		return r.Route
	}
	return r.Path
}

// TokenSource yields the bearer token of the current persisted session,
// or "" when nobody is signed in.
type TokenSource interface {
	Token(ctx context.Context) string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) string

func (f TokenFunc) Token(ctx context.Context) string {
	return f(ctx)
}

// Client performs API calls against a single base URL.
type Client struct {
	baseURL    string
	http       *http.Client
	tokens     TokenSource
	extractors []Extractor
	userAgent  string
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport. The gateway adds no timeouts of its
// own; whatever the given client enforces applies.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTokenSource sets where bearer credentials come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithExtractors overrides the error message extraction order.
func WithExtractors(extractors ...Extractor) Option {
	return func(c *Client) {
		if len(extractors) > 0 {
			c.extractors = extractors
		}
	}
}

// WithLogger sets the logger used for per-call debug and failure logs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTracer overrides the OpenTelemetry tracer (defaults to the global provider).
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithUserAgent sets the User-Agent header sent on every call.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New builds a client for baseURL. An empty baseURL selects DefaultBaseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must use http or https", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       http.DefaultClient,
		extractors: DefaultExtractors,
		userAgent:  "foodrescue-client",
		logger:     slog.Default(),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// BaseURL returns the normalized base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do performs req and decodes a successful body into out (which may be nil).
// No-content successes decode as an empty object, so maps come back empty and
// structs keep their zero value. Every failure past request construction is
// a *Error.
func (c *Client) Do(ctx context.Context, req Request, out any) (err error) {
	route := req.route()
	requestID := requestcontext.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	correlationID := requestcontext.CorrelationID(ctx)

	ctx, span := c.tracer.Start(ctx, req.Method+" "+route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.template", route),
			attribute.String("request.id", requestID),
			attribute.String("correlation.id", correlationID),
		),
	)
	start := time.Now()
	status := 0
	defer func() {
		elapsed := time.Since(start)
		if c.metrics != nil {
			c.metrics.ObserveRequest(req.Method, route, status, elapsed)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.logger.WarnContext(ctx, "api request failed",
				"method", req.Method,
				"route", route,
				"status", status,
				"request_id", requestID,
				"correlation_id", correlationID,
				"command", requestcontext.Command(ctx),
				"error", err,
			)
		} else {
			c.logger.DebugContext(ctx, "api request",
				"method", req.Method,
				"route", route,
				"status", status,
				"request_id", requestID,
				"correlation_id", correlationID,
				"duration_ms", elapsed.Milliseconds(),
			)
		}
		span.End()
	}()

	httpReq, err := c.newRequest(ctx, req, requestID)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.recordFailure(metrics.FailureTransport)
		return network(err)
	}
	defer resp.Body.Close()

	status = resp.StatusCode
	span.SetAttributes(attribute.Int("http.response.status_code", status))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordFailure(metrics.FailureTransport)
		return network(err)
	}
	return c.decode(resp, body, out)
}

func (c *Client) newRequest(ctx context.Context, req Request, requestID string) (*http.Request, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	if req.Body != nil {
		switch req.Encoding {
		case EncodingForm:
			form, ok := req.Body.(url.Values)
			if !ok {
				return nil, fmt.Errorf("form request %s: body must be url.Values, got %T", req.route(), req.Body)
			}
			body = strings.NewReader(form.Encode())
			contentType = "application/x-www-form-urlencoded"
		default:
			payload, err := json.Marshal(req.Body)
			if err != nil {
				return nil, fmt.Errorf("encode request %s: %w", req.route(), err)
			}
			body = bytes.NewReader(payload)
			contentType = "application/json"
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", req.route(), err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(headerRequestID, requestID)
	if id := requestcontext.CorrelationID(ctx); id != "" {
		httpReq.Header.Set(headerCorrelationID, id)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	if !req.Anonymous && c.tokens != nil {
		if token := c.tokens.Token(ctx); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return httpReq, nil
}

func (c *Client) decode(resp *http.Response, body []byte, out any) error {
	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	if success && (resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0) {
		emptyResult(out)
		return nil
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.recordFailure(metrics.FailureMalformed)
		return malformed(resp.StatusCode, statusText(resp), err)
	}

	if !success {
		c.recordFailure(metrics.FailureRejected)
		return &Error{
			Status:  resp.StatusCode,
			Message: ExtractMessage(parsed, statusText(resp), c.extractors),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.recordFailure(metrics.FailureMalformed)
		return malformed(resp.StatusCode, statusText(resp), err)
	}
	return nil
}

func (c *Client) recordFailure(kind string) {
	if c.metrics != nil {
		c.metrics.IncFailure(kind)
	}
}

// emptyResult fills out with the decoding of "{}". Slices and scalars cannot
// take an object, so they keep their zero value.
func emptyResult(out any) {
	if out == nil {
		return
	}
	_ = json.Unmarshal(emptyObject, out)
}
