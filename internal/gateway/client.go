// Package gateway issues the HTTP calls to the ClassPilot API. It attaches
// bearer-token auth, bounds every request with a deadline and normalises
// failures into *Error values. It never mutates client state.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/classpilot-go/internal/observability"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 4 << 20
)

// Config defines configuration options for the gateway client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client calls the ClassPilot REST API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	timeout time.Duration
	tracer  trace.Tracer
	logger  zerolog.Logger
	now     func() time.Time
}

// New builds a gateway client using the provided configuration.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("gateway base url is required")
	}

	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid gateway base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("gateway base url must be http or https, got %q", base.Scheme)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL: base,
		http:    httpClient,
		timeout: timeout,
		tracer:  otel.Tracer("github.com/noah-isme/classpilot-go/internal/gateway"),
		logger:  cfg.Logger.With().Str("component", "gateway").Logger(),
		now:     time.Now,
	}, nil
}

// call describes one API request.
type call struct {
	op        string
	method    string
	segments  []string
	query     url.Values
	token     string
	protected bool
	body      interface{}
	out       interface{}
}

func (c *Client) do(parent context.Context, req call) (err error) {
	start := c.now()
	outcome := "ok"
	defer func() {
		if err != nil {
			outcome = string(KindOf(err))
		}
		observability.GatewayRequests().WithLabelValues(req.op, outcome).Inc()
		observability.GatewayLatency().WithLabelValues(req.op).Observe(time.Since(start).Seconds())
	}()

	if req.protected && strings.TrimSpace(req.token) == "" {
		return MissingToken(req.op)
	}

	parent, correlationID := observability.EnsureCorrelation(parent)
	ctx, span := c.tracer.Start(parent, "gateway."+req.op, trace.WithAttributes(
		attribute.String("http.method", req.method),
		attribute.String("correlation_id", correlationID),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	httpReq, err := c.newRequest(ctx, req, correlationID)
	if err != nil {
		return err
	}

	logger := c.logger.With().
		Str("operation", req.op).
		Str("correlation_id", correlationID).
		Logger()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		gerr := DecodeError(0, nil, err)
		gerr.Op = req.op
		logger.Warn().Err(err).Str("kind", string(gerr.Kind)).Msg("api request failed without response")
		return gerr
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		gerr := DecodeError(0, nil, fmt.Errorf("read response body: %w", err))
		gerr.Op = req.op
		return gerr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		gerr := DecodeError(resp.StatusCode, payload, nil)
		gerr.Op = req.op
		logger.Debug().Int("status", resp.StatusCode).Str("kind", string(gerr.Kind)).Msg("api request rejected")
		return gerr
	}

	if req.out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}

	if err := json.Unmarshal(payload, req.out); err != nil {
		gerr := newError(KindDecode, fmt.Errorf("decode %s response: %w", req.op, err))
		gerr.Op = req.op
		gerr.Status = resp.StatusCode
		return gerr
	}

	logger.Debug().Int("status", resp.StatusCode).Msg("api request completed")
	return nil
}

func (c *Client) newRequest(ctx context.Context, req call, correlationID string) (*http.Request, error) {
	escaped := make([]string, len(req.segments))
	for i, segment := range req.segments {
		escaped[i] = url.PathEscape(segment)
	}
	endpoint := c.baseURL.JoinPath(escaped...)
	if len(req.query) > 0 {
		endpoint.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		encoded, err := json.Marshal(req.body)
		if err != nil {
			return nil, &Error{Op: req.op, Kind: KindDecode, Message: "failed to encode request", Err: err}
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint.String(), body)
	if err != nil {
		return nil, &Error{Op: req.op, Kind: KindTransport, Message: err.Error(), Err: err}
	}

	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	httpReq.Header.Set(observability.CorrelationHeader, correlationID)

	return httpReq, nil
}

// Identifier guards for operations that address a single resource.
var (
	errMissingID = errors.New("identifier is required")
	errInvalidID = errors.New("identifier must not contain path separators or dot segments")
)

func requireID(op, id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return &Error{Op: op, Kind: KindBusiness, Message: errMissingID.Error(), Err: errMissingID}
	}
	if trimmed == "." || trimmed == ".." || strings.ContainsAny(id, "/\\") {
		return &Error{Op: op, Kind: KindBusiness, Message: errInvalidID.Error(), Err: errInvalidID}
	}
	return nil
}
