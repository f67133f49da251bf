package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/couchcryptid/climogram-etl/internal/domain"
	"github.com/couchcryptid/climogram-etl/internal/observability"
)

const dateLayout = "2006-01-02"

// Client implements domain.ObservationSource against the dataset catalog HTTP API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker
	backoff    BackoffConfig
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a catalog client. maxRetries bounds the retries of
// throttled (429) and failed (5xx) requests.
func NewClient(baseURL, token string, timeout time.Duration, maxRetries int, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		breaker: newBreaker("catalog"),
		backoff: BackoffConfig{
			MaxRetries:      maxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		metrics: metrics,
		logger:  logger,
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// Observations fetches one calendar year of ds restricted to the region's
// bounding box. An empty region returns no observations without a request.
func (c *Client) Observations(ctx context.Context, ds domain.Dataset, region domain.Region, year domain.YearBucket) ([]domain.Observation, error) {
	box, ok := region.BBox()
	if !ok {
		return nil, nil
	}

	params := url.Values{
		"dataset": {ds.ID},
		"band":    {ds.Band},
		"start":   {year.Start().Format(dateLayout)},
		"end":     {year.End().Format(dateLayout)},
		"bbox":    {box.String()},
	}
	fullURL := c.baseURL + "/v1/observations?" + params.Encode()

	start := time.Now()
	obs, err := c.fetch(ctx, fullURL)
	c.metrics.CatalogAPIDuration.WithLabelValues(ds.ID).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		c.metrics.CatalogRequests.WithLabelValues(ds.ID, "success").Inc()
	case isUnavailable(err):
		c.metrics.CatalogRequests.WithLabelValues(ds.ID, "unavailable").Inc()
		return nil, fmt.Errorf("%s %d: %w", ds.ID, year, err)
	default:
		c.metrics.CatalogRequests.WithLabelValues(ds.ID, "error").Inc()
		c.logger.Warn("catalog request failed",
			"dataset", ds.ID,
			"year", int(year),
			"region", region.ID,
			"error", err,
		)
		return nil, fmt.Errorf("fetch %s %d: %w", ds.ID, year, err)
	}

	c.logger.Debug("catalog observations fetched",
		"dataset", ds.ID,
		"year", int(year),
		"region", region.ID,
		"count", len(obs),
	)
	return obs, nil
}

func (c *Client) fetch(ctx context.Context, fullURL string) ([]domain.Observation, error) {
	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, c.httpClient, c.backoff, c.breaker, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrYearUnavailable
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("catalog API error: status %d: %s", resp.StatusCode, body)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	obs := make([]domain.Observation, 0, len(payload.Observations))
	for _, o := range payload.Observations {
		obs = append(obs, domain.Observation{
			Time:  o.Time.UTC(),
			Geo:   domain.Geo{Lat: o.Lat, Lon: o.Lon},
			Value: o.Value,
		})
	}
	return obs, nil
}

// Catalog API response types.

type response struct {
	Dataset      string        `json:"dataset"`
	Band         string        `json:"band"`
	Observations []observation `json:"observations"`
}

type observation struct {
	Time  time.Time `json:"time"`
	Lat   float64   `json:"lat"`
	Lon   float64   `json:"lon"`
	Value float64   `json:"value"`
}
