package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// response pairs the decoded provider body with the HTTP status code.
type response struct {
	Body   map[string]any
	Status int
}

// Client is the shared outbound HTTP client for provider calls. Every call
// carries an explicit timeout and runs through a circuit breaker, so a
// misbehaving provider fails fast instead of tying up callers. Transport
// failures (network errors, timeouts, open breaker, undecodable bodies)
// come back as errors; provider-reported business failures arrive in the
// decoded body and are the adapter's concern.
type Client struct {
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[response]
}

func NewClient(name string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	settings := gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[response](settings),
	}
}

// DoJSON performs an HTTP call with a JSON body (nil for none) and decodes
// the JSON response. A non-2xx status is not an error as long as the body
// decodes; providers report resolution failures that way.
func (c *Client) DoJSON(ctx context.Context, method, url string, headers map[string]string, body any) (map[string]any, int, error) {
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal request: %w", err)
		}
		buf = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, buf)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.breaker.Execute(func() (response, error) {
		res, err := c.http.Do(req)
		if err != nil {
			return response{}, err
		}
		defer res.Body.Close()

		raw, err := io.ReadAll(res.Body)
		if err != nil {
			return response{}, fmt.Errorf("read response: %w", err)
		}
		var decoded map[string]any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return response{}, fmt.Errorf("decode response (status %d): %w", res.StatusCode, err)
		}
		return response{Body: decoded, Status: res.StatusCode}, nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", method, url, err)
	}
	return resp.Body, resp.Status, nil
}

// toMinorUnits converts a major-unit amount to the provider's minor unit.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// toMajorUnits is the inverse conversion for amounts echoed by providers.
func toMajorUnits(minor float64) float64 {
	return minor / 100
}
