// Package geocode names generic "Basketball Court" records from a reverse
// geocode of their coordinates.
package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/bcorbett503/HoopRank/internal/resilience"
)

// DefaultURL is the public Nominatim reverse endpoint.
const DefaultURL = "https://nominatim.openstreetmap.org/reverse"

// Address holds Nominatim address details keyed by component, e.g. "park",
// "road" or "city".
type Address map[string]string

// Reverser looks up the address around a coordinate. A nil Address with a
// nil error means the service had nothing for that point.
type Reverser interface {
	Reverse(ctx context.Context, lat, lng float64) (Address, error)
}

// Option configures the Nominatim client.
type Option func(*nominatim)

// WithURL overrides the reverse endpoint.
func WithURL(u string) Option {
	return func(n *nominatim) { n.url = u }
}

// WithUserAgent sets the User-Agent header Nominatim requires.
func WithUserAgent(ua string) Option {
	return func(n *nominatim) { n.userAgent = ua }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(n *nominatim) { n.httpClient = hc }
}

// WithRateLimit allows one request per interval. Zero disables limiting.
func WithRateLimit(interval time.Duration) Option {
	return func(n *nominatim) {
		if interval <= 0 {
			n.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		n.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// WithRetryPolicy replaces the retry policy for transient failures.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(n *nominatim) { n.retry = p }
}

type nominatim struct {
	url        string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      resilience.Policy
}

// NewNominatim creates a Reverser backed by Nominatim. The public server
// allows one request per second; the default leaves a little headroom.
func NewNominatim(opts ...Option) Reverser {
	n := &nominatim{
		url:        DefaultURL,
		userAgent:  "courtsync/1.0",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(1100*time.Millisecond), 1),
		retry:      resilience.DefaultPolicy("nominatim"),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type reverseResponse struct {
	Address Address `json:"address"`
	Error   string  `json:"error"`
}

func (n *nominatim) Reverse(ctx context.Context, lat, lng float64) (Address, error) {
	params := url.Values{
		"lat":            {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(lng, 'f', -1, 64)},
		"format":         {"json"},
		"zoom":           {"16"},
		"addressdetails": {"1"},
	}
	reqURL := n.url + "?" + params.Encode()

	return resilience.DoVal(ctx, n.retry, func(ctx context.Context) (Address, error) {
		if err := n.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "geocode: rate limit")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "geocode: build request")
		}
		req.Header.Set("User-Agent", n.userAgent)

		resp, err := n.httpClient.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "geocode: request")
		}
		defer resp.Body.Close() //nolint:errcheck

		if err := resilience.CheckResponse(resp, "nominatim"); err != nil {
			return nil, err
		}

		var body reverseResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, eris.Wrap(err, "geocode: decode response")
		}
		if body.Error != "" || len(body.Address) == 0 {
			return nil, nil
		}
		return body.Address, nil
	})
}
