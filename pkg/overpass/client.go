// Package overpass fetches indoor basketball venue candidates from the
// OpenStreetMap Overpass API.
package overpass

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bcorbett503/HoopRank/internal/resilience"
	"github.com/bcorbett503/HoopRank/internal/venue"
)

// DefaultURL is the public Overpass interpreter.
const DefaultURL = "https://overpass-api.de/api/interpreter"

// Client fetches venues.
type Client interface {
	// FetchVenues runs one query per venue type inside bbox (nil for no
	// bounds) and returns the records deduplicated by id, first seen wins.
	FetchVenues(ctx context.Context, bbox *BBox, types []VenueType) ([]venue.Record, error)
}

// Option configures the client.
type Option func(*client)

// WithURL overrides the interpreter endpoint.
func WithURL(u string) Option {
	return func(c *client) { c.url = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) { c.httpClient = hc }
}

// WithLimit caps the elements returned per venue type.
func WithLimit(n int) Option {
	return func(c *client) { c.limit = n }
}

// WithDelay spaces consecutive queries by at least d.
func WithDelay(d time.Duration) Option {
	return func(c *client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithRetryPolicy replaces the retry policy for transient failures.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(c *client) { c.retry = p }
}

type client struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
	limit      int
	retry      resilience.Policy
}

// NewClient creates an Overpass client. Defaults follow the public server's
// usage policy: one query every two seconds and a ten minute read timeout.
func NewClient(opts ...Option) Client {
	c := &client{
		url:        DefaultURL,
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		limiter:    rate.NewLimiter(rate.Every(2*time.Second), 1),
		limit:      10000,
		retry:      resilience.DefaultPolicy("overpass"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *client) FetchVenues(ctx context.Context, bbox *BBox, types []VenueType) ([]venue.Record, error) {
	if len(types) == 0 {
		types = DefaultVenueTypes
	}

	var out []venue.Record
	seen := make(map[string]bool)
	for _, t := range types {
		records, err := c.fetchType(ctx, bbox, t)
		if err != nil {
			return nil, err
		}
		added := 0
		for _, r := range records {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			out = append(out, r)
			added++
		}
		zap.L().Info("overpass: fetched venue type",
			zap.String("type", t.String()),
			zap.Int("records", len(records)),
			zap.Int("new", added),
		)
	}

	for cat, n := range venue.CountByCategory(out) {
		zap.L().Debug("overpass: category total", zap.String("category", string(cat)), zap.Int("count", n))
	}
	return out, nil
}

func (c *client) fetchType(ctx context.Context, bbox *BBox, t VenueType) ([]venue.Record, error) {
	query := BuildQuery(bbox, t, c.limit)

	resp, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*response, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "overpass: rate limit")
		}
		return c.post(ctx, query)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "overpass: fetch %s", t)
	}

	records := make([]venue.Record, 0, len(resp.Elements))
	for _, e := range resp.Elements {
		if r, ok := toRecord(e, t); ok {
			records = append(records, r)
		}
	}
	zap.L().Debug("overpass: converted elements",
		zap.String("type", t.String()),
		zap.Int("elements", len(resp.Elements)),
		zap.Int("records", len(records)),
	)
	return records, nil
}

func (c *client) post(ctx context.Context, query string) (*response, error) {
	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "overpass: build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "overpass: request")
	}
	defer httpResp.Body.Close() //nolint:errcheck

	if err := resilience.CheckResponse(httpResp, "overpass"); err != nil {
		return nil, err
	}

	var resp response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, eris.Wrap(err, "overpass: decode response")
	}
	return &resp, nil
}
