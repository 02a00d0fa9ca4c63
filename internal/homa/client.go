// Package homa is the single point of outbound HTTP calls to the HOMA REST
// API. It injects the auth token, enforces timeouts, classifies failures
// into a small error taxonomy, and hands callers a gjson.Result so the
// store layer can probe the inconsistent response envelopes.
package homa

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/miosalud/miosync/internal/events"
	"github.com/miosalud/miosync/internal/shape"
	"github.com/miosalud/miosync/internal/storage"
)

// TokenSource supplies the current bearer token. It is consulted on every
// request — never cached — so externally rotated tokens take effect
// immediately.
type TokenSource interface {
	Token() string
}

// KVTokenSource reads the token from durable storage.
type KVTokenSource struct {
	KV storage.KV
}

func (s KVTokenSource) Token() string {
	v, err := s.KV.Get(storage.KeyToken)
	if err != nil {
		return ""
	}
	return v
}

// Gateway is the surface the store layer consumes. *Client implements it.
type Gateway interface {
	Get(ctx context.Context, endpoint string, opts ...RequestOption) (gjson.Result, error)
	Post(ctx context.Context, endpoint string, body any, opts ...RequestOption) (gjson.Result, error)
	Put(ctx context.Context, endpoint string, body any, opts ...RequestOption) (gjson.Result, error)
	Delete(ctx context.Context, endpoint string, opts ...RequestOption) (gjson.Result, error)
}

// Client is the API gateway client.
type Client struct {
	http    *resty.Client
	tokens  TokenSource
	bus     *events.Bus
	logger  *zap.Logger
	timeout time.Duration
}

// Option configures the client at construction time.
type Option func(*Client)

// WithTimeout overrides the default 10s request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// NewClient creates a gateway client for the given base URL. Relative
// endpoints resolve against it; absolute URLs pass through untouched.
// Retries are deliberately not configured here — recovery is the opt-in
// retry helper at the call site, never the gateway.
func NewClient(baseURL string, tokens TokenSource, bus *events.Bus, logger *zap.Logger, opts ...Option) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	c := &Client{
		http:    httpClient,
		tokens:  tokens,
		bus:     bus,
		logger:  logger,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type requestOptions struct {
	timeout time.Duration
}

// RequestOption configures a single request.
type RequestOption func(*requestOptions)

// WithRequestTimeout overrides the client timeout for one call.
func WithRequestTimeout(d time.Duration) RequestOption {
	return func(o *requestOptions) { o.timeout = d }
}

func (c *Client) Get(ctx context.Context, endpoint string, opts ...RequestOption) (gjson.Result, error) {
	return c.Request(ctx, http.MethodGet, endpoint, nil, opts...)
}

func (c *Client) Post(ctx context.Context, endpoint string, body any, opts ...RequestOption) (gjson.Result, error) {
	return c.Request(ctx, http.MethodPost, endpoint, body, opts...)
}

func (c *Client) Put(ctx context.Context, endpoint string, body any, opts ...RequestOption) (gjson.Result, error) {
	return c.Request(ctx, http.MethodPut, endpoint, body, opts...)
}

func (c *Client) Delete(ctx context.Context, endpoint string, opts ...RequestOption) (gjson.Result, error) {
	return c.Request(ctx, http.MethodDelete, endpoint, nil, opts...)
}

// Request performs one HTTP call. 204 yields a zero gjson.Result and nil
// error. On 401 the session-expired signal is published before the error
// returns; the client itself never clears storage or redirects.
func (c *Client) Request(ctx context.Context, method, endpoint string, body any, opts ...RequestOption) (gjson.Result, error) {
	o := requestOptions{timeout: c.timeout}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req := c.http.R().
		SetContext(ctx).
		SetHeader("X-API-KEY", c.tokens.Token())
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, endpoint)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			c.logger.Warn("request timed out",
				zap.String("method", method),
				zap.String("endpoint", endpoint),
				zap.Duration("timeout", o.timeout),
			)
			return gjson.Result{}, &TimeoutError{Endpoint: endpoint}
		}
		c.logger.Error("request failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return gjson.Result{}, &NetworkError{Endpoint: endpoint, Err: err}
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized:
		c.logger.Warn("session expired", zap.String("endpoint", endpoint))
		c.bus.Publish(events.TopicSessionExpired, map[string]any{"endpoint": endpoint})
		return gjson.Result{}, &SessionExpiredError{Endpoint: endpoint}

	case resp.StatusCode() == http.StatusNoContent:
		return gjson.Result{}, nil

	case resp.IsError():
		msg := errorMessage(resp)
		c.logger.Warn("http error",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode()),
			zap.String("message", msg),
		)
		return gjson.Result{}, &HTTPError{
			Status:   resp.StatusCode(),
			Endpoint: endpoint,
			Message:  msg,
		}
	}

	return gjson.ParseBytes(resp.Body()), nil
}

// errorMessage pulls the server-supplied message out of a JSON error body,
// falling back to the HTTP status line.
func errorMessage(resp *resty.Response) string {
	body := gjson.ParseBytes(resp.Body())
	if msg := shape.FirstString(body, "message", "error", "msg", "data.message"); msg != "" {
		return msg
	}
	return resp.Status()
}
