// Package rest implements the generic "send one authenticated, rate-limited
// request" primitive every per-endpoint wrapper is built from.
package rest

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/xid"
	"github.com/valyala/fasthttp"

	"github.com/beacon-chat/beacon-go/beacon"
	"github.com/beacon-chat/beacon-go/beacon/ratelimit"
)

// RequestBuilder configures a single outgoing request (the method, the
// Authorization and User-Agent headers, and the URI are already set by
// Client.Do; builders add query strings, other headers, or a JSON body).
type RequestBuilder func(req *fasthttp.Request)

// Client is a thin composition of an HTTPS client, a bearer-token header
// injector, the rate limiter, and the at-most-one retry policy. One
// instance is shared by every caller of a given principal.
type Client struct {
	http    *fasthttp.Client
	limiter *ratelimit.Limiter
	cfg     beacon.Config
	baseURL string
}

// NewClient builds a Client against baseURL (the fixed HTTPS origin plus
// versioned API prefix).
func NewClient(cfg beacon.Config, baseURL string) *Client {
	cfg = cfg.WithDefaults()

	return &Client{
		http:    &fasthttp.Client{},
		limiter: ratelimit.New(cfg.GlobalRateLimit, cfg.RateLimitJitter, cfg.RateLimitSafety),
		cfg:     cfg,
		baseURL: baseURL,
	}
}

// Response is the decoded result of a REST call.
type Response struct {
	Status int
	Body   []byte
}

// Decode unmarshals the response body as JSON into dst.
func (r *Response) Decode(dst any) error {
	if err := json.Unmarshal(r.Body, dst); err != nil {
		return &beacon.DecodeError{Op: "rest.Response.Decode", Err: err}
	}

	return nil
}

// Do sends one request against route (the canonical path template, used as
// the rate-limit bucket key) using method, configured by build. It prepends
// the fixed API base, injects the bearer token, gates the call through the
// rate limiter, and applies at-most-one retry on transport-level connect
// failure or on a 429 whose post-update slept out the window.
func (c *Client) Do(ctx context.Context, route, method, path string, build RequestBuilder) (*Response, error) {
	correlation := xid.New().String()

	resp, err := c.attempt(ctx, route, method, path, build, correlation)
	if err == nil {
		return resp, nil
	}

	if !c.retryable(err) {
		return nil, err
	}

	beacon.Logger.Debug().Str(beacon.LogCtxCorrelation, correlation).
		Msg("rest: retrying after transport or rate-limit failure")

	return c.attempt(ctx, route, method, path, build, correlation)
}

func (c *Client) retryable(err error) bool {
	if c.cfg.Retries < 1 {
		return false
	}

	var transportErr *beacon.TransportError
	if errors.As(err, &transportErr) {
		return true
	}

	var rateLimited *beacon.RateLimitedError

	return errors.As(err, &rateLimited)
}

func (c *Client) attempt(ctx context.Context, route, method, path string, build RequestBuilder, correlation string) (*Response, error) {
	if err := c.limiter.Check(ctx, route); err != nil {
		return nil, &beacon.OtherError{Op: "rest.Client.Do: rate limit wait", Err: err}
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)

	req.Header.SetMethod(method)
	req.Header.Set("Authorization", c.cfg.Token)
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.SetRequestURI(c.baseURL + path)

	if build != nil {
		build(req)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	beacon.LogRequest(beacon.Logger.Debug(), correlation, route, method, path).Msg("rest: request")

	if err := c.http.DoTimeout(req, resp, c.cfg.HTTPTimeout); err != nil {
		return nil, &beacon.TransportError{Op: "rest.Client.Do", Err: err}
	}

	status := resp.StatusCode()
	body := append([]byte(nil), resp.Body()...)

	beacon.LogResponse(beacon.Logger.Debug(), status, resp.Header.String(), string(body)).Msg("rest: response")

	header, headerErr := parseRateLimitHeader(resp)
	if headerErr == nil {
		c.limiter.Update(route, header)
	} else {
		beacon.Logger.Debug().Str(beacon.LogCtxCorrelation, correlation).
			Err(headerErr).Msg("rest: rate-limit header parse failed, bucket left unchanged")
	}

	switch {
	case status >= 200 && status < 300:
		return &Response{Status: status, Body: body}, nil

	case status == fasthttp.StatusTooManyRequests:
		if header.RetryAfter == 0 {
			header.RetryAfter = retryAfterFromBody(body)
		}

		if header.RetryAfter == 0 {
			header.RetryAfter = time.Second
		}

		delay := ratelimit.RetryDelay(header)

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, &beacon.TransportError{Op: "rest.Client.Do: 429 wait", Err: ctx.Err()}
		}

		return nil, &beacon.RateLimitedError{Route: route, RetryAfter: header.RetryAfter.Seconds(), Global: header.Global}

	default:
		var decoded any
		_ = json.Unmarshal(body, &decoded)

		return nil, &beacon.StatusError{Route: route, Status: status, Body: string(body), Decoded: decoded}
	}
}

// retryAfterFromBody extracts a 429 response body's "retry_after" field, the
// JSON-level fallback for platforms that omit the Retry-After header. A body
// that isn't JSON or lacks the field leaves the caller to apply its own
// default.
func retryAfterFromBody(body []byte) time.Duration {
	var payload struct {
		RetryAfter float64 `json:"retry_after"`
	}

	if err := json.Unmarshal(body, &payload); err != nil || payload.RetryAfter <= 0 {
		return 0
	}

	return time.Duration(payload.RetryAfter * float64(time.Second))
}

func parseRateLimitHeader(resp *fasthttp.Response) (ratelimit.Header, error) {
	h := ratelimit.Header{}

	limit := resp.Header.Peek("X-RateLimit-Limit")
	remaining := resp.Header.Peek("X-RateLimit-Remaining")
	reset := resp.Header.Peek("X-RateLimit-Reset")
	global := resp.Header.Peek("X-RateLimit-Global")
	retryAfter := resp.Header.Peek("Retry-After")

	if len(limit) == 0 || len(remaining) == 0 || len(reset) == 0 {
		return h, fmt.Errorf("rest: missing rate-limit headers")
	}

	if err := parseHeaderFields(&h, limit, remaining, reset, retryAfter); err != nil {
		return h, err
	}

	h.Global = len(global) > 0

	return h, nil
}
