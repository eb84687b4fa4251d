// Package rest talks to the remote data service: a generic REST resource
// store with json-server semantics (collection endpoints, exact-match query
// filters, create/patch/replace/delete by id).
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/jwalitptl/clinic-console/internal/repository"
	"github.com/jwalitptl/clinic-console/pkg/circuitbreaker"
	"github.com/jwalitptl/clinic-console/pkg/metrics"
)

var (
	// ErrNotFound is returned for HTTP 404.
	ErrNotFound = repository.ErrNotFound
	// ErrUnavailable is returned when the data service cannot be reached.
	ErrUnavailable = repository.ErrUnavailable
)

// StatusError is a non-2xx response other than 404.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.Code, e.Body)
}

type Config struct {
	BaseURL         string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	metrics    *metrics.Metrics
}

// NewClient builds a client for cfg.BaseURL. m may be nil.
func NewClient(cfg Config, m *metrics.Metrics) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		metrics: m,
	}
	c.breaker = circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
		Name:                "datastore",
		ConsecutiveFailures: cfg.BreakerFailures,
		Timeout:             cfg.BreakerTimeout,
		IsFailure:           countsAgainstBreaker,
		OnStateChange: func(name string, _, to gobreaker.State) {
			if m != nil {
				m.BreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	})
	return c
}

// countsAgainstBreaker treats transport failures and 5xx as service faults.
// Missing records and rejected input say nothing about the service's health.
func countsAgainstBreaker(err error) bool {
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Code >= http.StatusInternalServerError
}

func (c *Client) List(ctx context.Context, collection string, filter repository.Filter, out interface{}) error {
	endpoint := c.endpoint(collection, "")
	if len(filter) > 0 {
		endpoint = endpoint + "?" + encodeFilter(filter)
	}
	return c.doJSON(ctx, collection, http.MethodGet, endpoint, nil, out)
}

func (c *Client) Get(ctx context.Context, collection, id string, out interface{}) error {
	return c.doJSON(ctx, collection, http.MethodGet, c.endpoint(collection, id), nil, out)
}

func (c *Client) Create(ctx context.Context, collection string, body, out interface{}) error {
	return c.doJSON(ctx, collection, http.MethodPost, c.endpoint(collection, ""), body, out)
}

func (c *Client) Patch(ctx context.Context, collection, id string, body, out interface{}) error {
	return c.doJSON(ctx, collection, http.MethodPatch, c.endpoint(collection, id), body, out)
}

func (c *Client) Replace(ctx context.Context, collection, id string, body, out interface{}) error {
	return c.doJSON(ctx, collection, http.MethodPut, c.endpoint(collection, id), body, out)
}

func (c *Client) Delete(ctx context.Context, collection, id string) error {
	return c.doJSON(ctx, collection, http.MethodDelete, c.endpoint(collection, id), nil, nil)
}

// Ping checks that the data service answers at all.
func (c *Client) Ping(ctx context.Context) error {
	if c.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("%w: circuit open", ErrUnavailable)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) endpoint(collection, id string) string {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(collection))
	if id != "" {
		endpoint = fmt.Sprintf("%s/%s", endpoint, url.PathEscape(id))
	}
	return endpoint
}

func (c *Client) doJSON(ctx context.Context, collection, method, endpoint string, body, out interface{}) error {
	start := time.Now()
	status := "error"

	err := c.breaker.Execute(func() error {
		code, err := c.roundTrip(ctx, method, endpoint, body, out)
		if code > 0 {
			status = strconv.Itoa(code)
		}
		return err
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		status = "rejected"
		err = fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if c.metrics != nil {
		c.metrics.DatastoreRequests.WithLabelValues(collection, method, status).Inc()
		c.metrics.DatastoreLatency.WithLabelValues(collection, method).Observe(time.Since(start).Seconds())
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint string, body, out interface{}) (int, error) {
	var payload io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, fmt.Errorf("%s %s: %w", method, endpoint, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, &StatusError{
			Method: method,
			URL:    endpoint,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(data)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("%s %s: failed to decode response: %w", method, endpoint, err)
	}
	return resp.StatusCode, nil
}

// encodeFilter renders filter as a query string sorted by key.
func encodeFilter(filter repository.Filter) string {
	values := url.Values{}
	for k, v := range filter {
		values.Set(k, v)
	}
	return values.Encode()
}
