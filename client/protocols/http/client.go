package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gear6io/stardog-go/utils"
	"github.com/go-faster/errors"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const (
	// RequestIDHeader correlates client and server logs for one call
	RequestIDHeader = "X-Request-ID"

	maxErrorBody = 512
)

// Target addresses one triplestore endpoint with its credentials
type Target struct {
	BaseURL  string
	Username string
	Password string
}

// Response is a fully read HTTP response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

// StatusError reports a non-2xx response
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
	RequestID  string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Body)
}

// Client is the HTTP transport shared by every call on a connection
type Client struct {
	client *http.Client
	logger zerolog.Logger
}

// NewClient creates a transport; a zero timeout leaves requests bounded only
// by their context
func NewClient(timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		client: &http.Client{Timeout: timeout},
		logger: logger.With().Str("component", "http-transport").Logger(),
	}
}

// PostForm sends form as an application/x-www-form-urlencoded body
func (c *Client) PostForm(ctx context.Context, t Target, form url.Values, accept string, path ...string) (*Response, error) {
	body := strings.NewReader(form.Encode())
	return c.do(ctx, t, http.MethodPost, path, body, "application/x-www-form-urlencoded", accept)
}

// PutJSON sends v encoded as JSON
func (c *Client) PutJSON(ctx context.Context, t Target, v interface{}, path ...string) (*Response, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshal request")
	}
	return c.do(ctx, t, http.MethodPut, path, bytes.NewReader(payload), "application/json", "application/json")
}

// Get issues a GET with the given Accept header
func (c *Client) Get(ctx context.Context, t Target, accept string, path ...string) (*Response, error) {
	return c.do(ctx, t, http.MethodGet, path, nil, "", accept)
}

// Close releases idle connections
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}

func (c *Client) do(ctx context.Context, t Target, method string, path []string, body io.Reader, contentType, accept string) (*Response, error) {
	endpoint, err := buildURL(t.BaseURL, path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}

	requestID := utils.RequestID()
	req.Header.Set(RequestIDHeader, requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if t.Username != "" || t.Password != "" {
		req.SetBasicAuth(t.Username, t.Password)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("request_id", requestID).Str("method", method).Str("url", endpoint).Msg("Request failed")
		return nil, errors.Wrapf(err, "%s %s", method, endpoint)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}

	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("url", endpoint).
		Int("status", resp.StatusCode).
		Int("bytes", len(data)).
		Dur("elapsed", time.Since(start)).
		Msg("Request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := strings.TrimSpace(string(data))
		if len(excerpt) > maxErrorBody {
			excerpt = excerpt[:maxErrorBody] + "..."
		}
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       excerpt,
			RequestID:  requestID,
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		RequestID:  requestID,
	}, nil
}

// buildURL appends each path element to base as one escaped segment. The
// result is never path-cleaned, so "/" and ".." inside an element stay data.
func buildURL(base string, path []string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", errors.Wrapf(err, "build url from %q", base)
	}

	escaped := strings.TrimRight(u.EscapedPath(), "/")
	for _, p := range path {
		escaped += "/" + url.PathEscape(p)
	}
	if u.Path, err = url.PathUnescape(escaped); err != nil {
		return "", errors.Wrapf(err, "build url from %q", base)
	}
	u.RawPath = escaped
	return u.String(), nil
}
