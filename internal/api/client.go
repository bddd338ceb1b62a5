package api

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

	"github.com/sirupsen/logrus"

	"github.com/idilsaglam/todo-client/internal/logging"
)

const (
	DefaultBaseURL = "http://127.0.0.1:8999"
	defaultTimeout = 15 * time.Second
	userAgent      = "todo-client/1"
)

// TokenSource yields the bearer token for outgoing requests; "" means none.
// It is satisfied by *session.Store.
type TokenSource interface {
	Bearer() string
	Clear() error
}

// RequestInterceptor may modify a request before it is sent. Returning an
// error aborts the call.
type RequestInterceptor func(*http.Request) error

// ResponseInterceptor sees every response before it is decoded. Returning
// an error fails the call with that error.
type ResponseInterceptor func(*http.Response) error

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     logrus.FieldLogger
	Tokens     TokenSource

	// OnUnauthorized runs after a 401 has cleared the stored token.
	OnUnauthorized func()
}

// Client talks to the to-do REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	log        logrus.FieldLogger
	tokens     TokenSource
	onUnauth   func()

	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// New builds a client with the default interceptors installed: bearer
// token, request id and user agent on the way out; logout on 401 on the
// way back.
func New(opts Options) (*Client, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	parsed, err := url.Parse(strings.TrimRight(base, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", base)
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	c := &Client{
		baseURL:    parsed,
		httpClient: hc,
		log:        log,
		tokens:     opts.Tokens,
		onUnauth:   opts.OnUnauthorized,
	}
	c.UseRequest(requestID, c.bearer, func(r *http.Request) error {
		r.Header.Set("User-Agent", userAgent)
		return nil
	})
	c.UseResponse(c.logoutOnUnauthorized)
	return c, nil
}

// UseRequest appends request interceptors.
func (c *Client) UseRequest(fns ...RequestInterceptor) {
	c.requestInterceptors = append(c.requestInterceptors, fns...)
}

// UseResponse appends response interceptors.
func (c *Client) UseResponse(fns ...ResponseInterceptor) {
	c.responseInterceptors = append(c.responseInterceptors, fns...)
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return strings.TrimRight(c.baseURL.String(), "/") }

func (c *Client) bearer(r *http.Request) error {
	if c.tokens == nil {
		return nil
	}
	if tok := c.tokens.Bearer(); tok != "" {
		r.Header.Set("Authorization", "Bearer "+tok)
	}
	return nil
}

func (c *Client) logoutOnUnauthorized(resp *http.Response) error {
	if resp.StatusCode != http.StatusUnauthorized {
		return nil
	}
	// Login failures are 400s, so a 401 always means the session is gone.
	if c.tokens != nil {
		if err := c.tokens.Clear(); err != nil {
			c.log.WithError(err).Warn("clear token after 401")
		}
	}
	if c.onUnauth != nil {
		c.onUnauth()
	}
	return nil
}

// call sends a JSON request and decodes a JSON response into out (which
// may be nil). Non-2xx responses become *Error.
func (c *Client) call(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return &Error{Op: op, Err: fmt.Errorf("encode: %w", err)}
		}
		body = buf
	}
	rel, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.ResolveReference(rel).String(), body)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, fn := range c.requestInterceptors {
		if err := fn(req); err != nil {
			return &Error{Op: op, Err: err}
		}
	}

	log := c.log.WithFields(logrus.Fields{
		"op":         op,
		"method":     method,
		"path":       req.URL.Path,
		"request_id": req.Header.Get(headerRequestID),
	})
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("request failed")
		return &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()
	log = log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start).Round(time.Millisecond).String(),
	})

	for _, fn := range c.responseInterceptors {
		if err := fn(resp); err != nil {
			log.WithError(err).Warn("response rejected")
			return &Error{Op: op, Status: resp.StatusCode, Err: err}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(op, resp)
		log.WithField("detail", apiErr.Detail).Warn("api error")
		return apiErr
	}
	log.Debug("ok")

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return &Error{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
