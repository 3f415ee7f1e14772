// Package supabase provides a client for Supabase (PostgREST + Auth).
// It is the record store and identity provider behind the BFA. Row access
// runs with the caller's own access token so row-level security stays in
// the database.
package supabase

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

	"github.com/boddenberg/denuncias-bfa/internal/domain"
	"github.com/boddenberg/denuncias-bfa/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to Supabase PostgREST and GoTrue.
type Client struct {
	httpClient *http.Client
	baseURL    string
	anonKey    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	logger     *zap.Logger

	// OnError is called once per failed call, after retries, with the
	// service name. Used for the external error counter.
	OnError func(service string)
}

// NewClient creates a Supabase client.
func NewClient(httpClient *http.Client, baseURL, anonKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		cb:         cb,
		cfg:        cfg,
		logger:     logger,
	}
}

// request describes one HTTP exchange with Supabase.
type request struct {
	service string // rest or auth, for logs and error labels
	method  string
	path    string // relative to the project URL, e.g. "rest/v1/complaints"
	query   url.Values
	body    any
	headers map[string]string
	bearer  string // overrides the token taken from ctx
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// bearerFor returns the caller's access token, or the anon key for public calls.
func (c *Client) bearerFor(ctx context.Context, override string) string {
	if override != "" {
		return override
	}
	if p := domain.PrincipalFrom(ctx); p != nil && p.AccessToken != "" {
		return p.AccessToken
	}
	return c.anonKey
}

// doRequest executes one attempt and classifies the outcome. Transient
// failures come back plain so the retry loop tries again; anything else is
// wrapped with resilience.Permanent.
func (c *Client) doRequest(ctx context.Context, r request) (*response, error) {
	u := fmt.Sprintf("%s/%s", c.baseURL, r.path)
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var reader io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		if err != nil {
			return nil, resilience.Permanent(fmt.Errorf("encode body: %w", err))
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, reader)
	if err != nil {
		c.logger.Error("supabase: failed to create request",
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.Error(err),
		)
		return nil, resilience.Permanent(err)
	}

	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.bearerFor(ctx, r.bearer))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.Error(err),
		)
		if ctx.Err() != nil {
			return nil, resilience.Permanent(ctx.Err())
		}
		return nil, &domain.ErrTransientBackend{Service: r.service, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("supabase: failed to read response body",
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.Error(err),
		)
		return nil, &domain.ErrTransientBackend{Service: r.service, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, classifyStatus(r.service, resp.StatusCode, body)
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
	)
	return &response{status: resp.StatusCode, header: resp.Header, body: body}, nil
}

// classifyStatus maps a non-2xx status onto the error taxonomy.
func classifyStatus(service string, status int, body []byte) error {
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests, status >= 500:
		return &domain.ErrTransientBackend{Service: service, Status: status, Err: errors.New(errorMessage(body))}
	case status == http.StatusUnauthorized:
		return resilience.Permanent(&domain.ErrUnauthorized{Message: errorMessage(body)})
	case status == http.StatusForbidden:
		return resilience.Permanent(&domain.ErrPermission{Action: errorMessage(body)})
	default:
		return resilience.Permanent(&domain.ErrBackend{Service: service, Status: status, Body: string(body)})
	}
}

// errorMessage extracts a readable message from a PostgREST or GoTrue error body.
func errorMessage(body []byte) string {
	var e struct {
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil {
		for _, s := range []string{e.Message, e.Msg, e.ErrorDescription, e.Error} {
			if s != "" {
				return s
			}
		}
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return "request rejected"
}

// call runs r through the circuit breaker and the retry loop and returns
// a domain error on failure.
func (c *Client) call(ctx context.Context, r request) (*response, error) {
	var out *response
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			resp, err := c.doRequest(ctx, r)
			if err != nil {
				return err
			}
			out = resp
			return nil
		})
	})
	if err == nil {
		return out, nil
	}

	if c.OnError != nil {
		c.OnError("supabase/" + r.service)
	}
	return nil, c.mapError(r, err)
}

func (c *Client) mapError(r request, err error) error {
	err = resilience.Unwrap(err)
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &domain.ErrCircuitOpen{Service: "supabase/" + r.service}
	case errors.Is(err, context.DeadlineExceeded):
		return &domain.ErrTimeout{Operation: r.method + " " + r.path}
	case errors.Is(err, context.Canceled):
		return err
	}
	return err
}

// decode unmarshals a JSON body into v.
func decode(service string, resp *response, v any) error {
	if len(resp.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, v); err != nil {
		return &domain.ErrBackend{Service: service, Status: resp.status, Body: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

// Ping checks that the project answers on the GoTrue health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.call(ctx, request{
		service: "auth",
		method:  http.MethodGet,
		path:    authPrefix + "health",
		bearer:  c.anonKey,
	})
	return err
}
