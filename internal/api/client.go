package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// TokenSource yields the bearer token of the current device, or "" when anonymous.
type TokenSource interface {
	Token(ctx context.Context) string
}

type TokenFunc func(ctx context.Context) string

func (f TokenFunc) Token(ctx context.Context) string { return f(ctx) }

type Config struct {
	BaseURL          string
	Timeout          time.Duration
	BreakerThreshold uint32
	BreakerCooldown  time.Duration
}

// Client issues requests against the storefront backend and normalizes every
// answer into an Envelope. Business failures are returned, never raised;
// only transport failures produce an error.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	tokens     TokenSource
	breaker    *gobreaker.CircuitBreaker[*rawResponse]
}

type rawResponse struct {
	status int
	body   []byte
}

// errServerStatus is reported to the breaker for 5xx answers; the caller still
// receives the envelope.
var errServerStatus = errors.New("server error status")

func NewClient(cfg Config, tokens TokenSource) *Client {
	return newClient(cfg, tokens, &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)})
}

// NewClientWithHTTP lets callers provide their own http.Client (tests, custom transports).
func NewClientWithHTTP(cfg Config, tokens TokenSource, hc *http.Client) *Client {
	return newClient(cfg, tokens, hc)
}

func newClient(cfg Config, tokens TokenSource, hc *http.Client) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.BreakerThreshold == 0 {
		cfg.BreakerThreshold = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}
	if tokens == nil {
		tokens = TokenFunc(func(context.Context) string { return "" })
	}
	threshold := cfg.BreakerThreshold
	breaker := gobreaker.NewCircuitBreaker[*rawResponse](gobreaker.Settings{
		Name:    "storefront-api",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: hc,
		timeout:    cfg.Timeout,
		tokens:     tokens,
		breaker:    breaker,
	}
}

// Do sends one request. body is JSON encoded when non-nil.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) (*Envelope, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.breaker.Execute(func() (*rawResponse, error) {
		return c.roundTrip(reqCtx, method, endpoint, payload)
	})
	if err != nil && !errors.Is(err, errServerStatus) {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = ErrCircuitOpen
		}
		return nil, &TransportError{Op: method + " " + path, Err: err}
	}

	env, err := decodeEnvelope(raw.status, raw.body)
	if err != nil {
		return nil, &TransportError{Op: method + " " + path, Err: err}
	}
	if !env.Success {
		slog.DebugContext(ctx, "backend rejected request", "method", method, "path", path, "status", env.StatusCode, "message", env.Message)
	}
	return env, nil
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint string, payload []byte) (*rawResponse, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	raw := &rawResponse{status: resp.StatusCode, body: body}
	if resp.StatusCode >= http.StatusInternalServerError {
		return raw, errServerStatus
	}
	return raw, nil
}

// call performs a request and decodes the envelope data into T on success.
func call[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (*Response[T], error) {
	env, err := c.Do(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}
	resp := &Response[T]{Envelope: env}
	if env.Success {
		if err := env.Decode(&resp.Data); err != nil {
			return nil, err
		}
	}
	return resp, nil
}
