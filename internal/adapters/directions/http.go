package directions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"routemax-service/internal/domain"
	"routemax-service/internal/ports"
	"routemax-service/internal/retry"
)

// Client implements the RouteOptimizer and Geocoder ports against the
// Google Directions web service.
//
// It coordinates:
//   - Address normalization
//   - Persistent geocode caching
//   - External API calls with retry/backoff
//
// Rate-limit responses are surfaced immediately as ports.ErrRateLimited so
// callers can switch to the cheaper preserve-order path instead of burning
// quota on retries. The client is safe for concurrent use.
type Client struct {
	session      *http.Client
	apiKey       string
	baseURL      string
	geocodeCache GeocodeCache
}

// GeocodeCache is the persistence boundary for resolved addresses. Both the
// Postgres- and SQLite-backed caches satisfy it.
type GeocodeCache interface {
	Get(ctx context.Context, address string) (domain.Coordinates, bool, error)
	Put(ctx context.Context, address string, c domain.Coordinates) error
}

func NewClient(apiKey string, geocodeCache GeocodeCache) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("directions api key is empty")
	}

	return &Client{
		session:      &http.Client{Timeout: 10 * time.Second},
		apiKey:       apiKey,
		baseURL:      "https://maps.googleapis.com/maps/api",
		geocodeCache: geocodeCache,
	}, nil
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

// normalize ensures consistent cache keys by collapsing whitespace.
func (c *Client) normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// get fetches one endpoint with bounded retries. Transient failures
// (network errors, 5xx) back off exponentially; a 429 is converted to
// ports.ErrRateLimited without retrying.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	query.Set("key", c.apiKey)
	fullURL := c.baseURL + endpoint + "?" + query.Encode()

	fetch := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.session.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			return nil, &httpStatusError{
				Code: resp.StatusCode,
				Body: strings.TrimSpace(string(body)),
			}
		}

		return body, nil
	}

	body, err := retry.Do(ctx, retry.Config{
		MaxAttempts: 4,
		BaseDelay:   200 * time.Millisecond,
		Retryable:   isTransient,
	}, fetch)
	if err != nil {
		var he *httpStatusError
		if errors.As(err, &he) && he.Code == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %s", ports.ErrRateLimited, he.Body)
		}
		return nil, err
	}

	return body, nil
}

// isTransient marks network failures and 5xx responses as retryable. 429 is
// deliberately not retryable: backpressure is the caller's decision.
func isTransient(err error) bool {
	var he *httpStatusError
	if errors.As(err, &he) {
		switch he.Code {
		case 500, 502, 503, 504:
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
