// Package transport is the single HTTP adapter every store goes through. It
// injects the bearer token, enforces the request timeout and turns a 401
// into a session teardown.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/grpc/codes"

	"clinic-console/internal/session"
)

// DefaultTimeout aborts a hung request.
const DefaultTimeout = 10 * time.Second

const maxBody = 4 << 20

// sign-in endpoints share one limiter
var limited = map[string]bool{
	http.MethodPost + " /auth/login":    true,
	http.MethodPost + " /auth/register": true,
}

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	AuthRPS    float64
	AuthBurst  int
	HTTPClient *http.Client
}

type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	session *session.Manager
	limiter *rate.Limiter
	log     zerolog.Logger
}

func New(opts Options, sess *session.Manager, log zerolog.Logger) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseURL)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	lim := rate.NewLimiter(rate.Inf, 0)
	if opts.AuthRPS > 0 {
		burst := opts.AuthBurst
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(opts.AuthRPS), burst)
	}
	return &Client{
		base:    base,
		http:    hc,
		timeout: timeout,
		session: sess,
		limiter: lim,
		log:     log.With().Str("component", "transport").Logger(),
	}, nil
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do sends one request and decodes a 2xx JSON body into out when out is
// non-nil. Failures come back as *Error, or ErrStaleSession when the session
// changed while the request was in flight.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if limited[method+" "+path] {
		if err := c.limiter.Wait(ctx); err != nil {
			return &Error{Code: codes.ResourceExhausted, Method: method, Path: path,
				Message: "too many sign-in attempts, try again shortly", Err: err}
		}
	}

	token, gen := c.session.Token()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return &Error{Code: codes.InvalidArgument, Method: method, Path: path, Err: err}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rid := uuid.NewString()
	req.Header.Set("X-Request-ID", rid)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		e := &Error{Code: codes.Unavailable, Method: method, Path: path, Err: err}
		switch {
		case errors.Is(err, context.Canceled):
			e.Code = codes.Canceled
		case errors.Is(err, context.DeadlineExceeded):
			e.Code = codes.DeadlineExceeded
		}
		c.log.Warn().Err(err).Str("request_id", rid).Str("method", method).Str("path", path).
			Dur("latency", time.Since(start)).Msg("request failed")
		return e
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return &Error{Code: codes.Unavailable, HTTPStatus: resp.StatusCode, Method: method, Path: path, Err: err}
	}

	c.log.Debug().Str("request_id", rid).Str("method", method).Str("path", path).
		Int("status", resp.StatusCode).Dur("latency", time.Since(start)).Msg("request")

	if c.session.Generation() != gen {
		c.log.Debug().Str("request_id", rid).Msg("dropping response from previous session")
		return ErrStaleSession
	}

	if resp.StatusCode >= 300 {
		e := responseError(method, path, resp.StatusCode, raw)
		if resp.StatusCode == http.StatusUnauthorized {
			c.session.TeardownIf(context.WithoutCancel(ctx), gen, session.ReasonUnauthorized)
		}
		c.log.Warn().Str("request_id", rid).Str("method", method).Str("path", path).
			Int("status", resp.StatusCode).Str("message", e.Message).Msg("request rejected")
		return e
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Code: codes.Internal, HTTPStatus: resp.StatusCode, Method: method, Path: path,
			Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}
