package catalog

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/climogram-etl/internal/adapter/catalog/catalogtest"
	"github.com/couchcryptid/climogram-etl/internal/domain"
	"github.com/couchcryptid/climogram-etl/internal/observability"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testToken         = "test-token"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testClient(baseURL string) *Client {
	return &Client{
		token:      testToken,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		breaker:    newBreaker("test"),
		backoff:    BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond},
		metrics:    testMetrics(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func testRegion() domain.Region {
	return domain.Region{ID: "plot", Rings: [][]domain.Geo{{
		{Lat: -23.5, Lon: -46.8}, {Lat: -23.5, Lon: -46.4}, {Lat: -23.2, Lon: -46.4}, {Lat: -23.2, Lon: -46.8}, {Lat: -23.5, Lon: -46.8},
	}}}
}

func TestClient_Observations_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/observations", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "UCSB-CHG/CHIRPS/DAILY", q.Get("dataset"))
		assert.Equal(t, "precipitation", q.Get("band"))
		assert.Equal(t, "2005-01-01", q.Get("start"))
		assert.Equal(t, "2006-01-01", q.Get("end"))
		assert.Equal(t, "-46.8,-23.5,-46.4,-23.2", q.Get("bbox"))
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))

		resp := response{
			Dataset: "UCSB-CHG/CHIRPS/DAILY",
			Band:    "precipitation",
			Observations: []observation{
				{Time: time.Date(2005, 2, 1, 0, 0, 0, 0, time.UTC), Lat: -23.3, Lon: -46.6, Value: 12.5},
				{Time: time.Date(2005, 2, 2, 0, 0, 0, 0, time.UTC), Lat: -23.3, Lon: -46.6, Value: 3},
			},
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	obs, err := c.Observations(context.Background(), domain.Precipitation, testRegion(), 2005)
	require.NoError(t, err)

	require.Len(t, obs, 2)
	assert.Equal(t, domain.Geo{Lat: -23.3, Lon: -46.6}, obs[0].Geo)
	assert.Equal(t, 12.5, obs[0].Value)
	assert.Equal(t, time.Date(2005, 2, 2, 0, 0, 0, 0, time.UTC), obs[1].Time)
}

func TestClient_Observations_NoTokenNoAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"observations":[]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.token = ""
	obs, err := c.Observations(context.Background(), domain.Temperature, testRegion(), 2005)
	require.NoError(t, err)
	assert.Empty(t, obs)
}

func TestClient_Observations_EmptyRegionSkipsRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	obs, err := c.Observations(context.Background(), domain.Precipitation, domain.Region{ID: "empty"}, 2005)
	require.NoError(t, err)
	assert.Empty(t, obs)
	assert.Equal(t, int32(0), hits.Load())
}

func TestClient_Observations_NotFoundIsYearUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Observations(context.Background(), domain.Temperature, testRegion(), 1990)
	require.ErrorIs(t, err, domain.ErrYearUnavailable)
}

func TestClient_Observations_RetriesServerError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"observations":[{"time":"2005-06-01T00:00:00Z","lat":-23.3,"lon":-46.6,"value":15000}]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	obs, err := c.Observations(context.Background(), domain.Temperature, testRegion(), 2005)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_Observations_ClientErrorNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Not Authorized"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Observations(context.Background(), domain.Precipitation, testRegion(), 2005)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.NotErrorIs(t, err, domain.ErrYearUnavailable)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_Observations_RetriesExhausted(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Observations(context.Background(), domain.Precipitation, testRegion(), 2005)
	require.ErrorIs(t, err, errRateLimited)
	assert.Equal(t, int32(3), hits.Load())
}

func TestClient_Observations_BreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.backoff.MaxRetries = 0

	for range 6 {
		_, err := c.Observations(context.Background(), domain.Precipitation, testRegion(), 2005)
		require.ErrorIs(t, err, errServerError)
	}

	_, err := c.Observations(context.Background(), domain.Precipitation, testRegion(), 2005)
	require.ErrorIs(t, err, errCircuitOpen)
	assert.Equal(t, int32(6), hits.Load())
}

func TestClient_Observations_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}
	c.backoff.MaxRetries = 0

	_, err := c.Observations(context.Background(), domain.Precipitation, testRegion(), 2005)
	require.Error(t, err)
}

func TestClient_Observations_MockTransport(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, `=~/v1/observations`,
		httpmock.NewStringResponder(http.StatusOK,
			`{"dataset":"MODIS/061/MOD11A1","band":"LST_Day_1km","observations":[`+
				`{"time":"2010-01-05T00:00:00Z","lat":-23.3,"lon":-46.6,"value":14800},`+
				`{"time":"2010-01-13T00:00:00Z","lat":-23.3,"lon":-46.6,"value":15000}]}`))

	c := testClient("http://catalog.test")
	c.httpClient = &http.Client{Transport: transport}

	obs, err := c.Observations(context.Background(), domain.Temperature, testRegion(), 2010)
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, 14800.0, obs[0].Value)
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestNewClient_TrimsBaseURL(t *testing.T) {
	c := NewClient("http://catalog.test/", "", time.Second, 3, testMetrics(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, "http://catalog.test", c.baseURL)
	assert.Equal(t, 3, c.backoff.MaxRetries)
}

func TestClient_Observations_FixtureServer(t *testing.T) {
	fixture := catalogtest.Default()
	srv, h := catalogtest.NewServer(fixture, testToken)
	defer srv.Close()

	c := testClient(srv.URL)
	region := testRegion()
	box, _ := region.BBox()

	obs, err := c.Observations(context.Background(), domain.Temperature, region, 2012)
	require.NoError(t, err)

	want, err := fixture.Generate(domain.Temperature.ID, box, 2012)
	require.NoError(t, err)
	assert.Equal(t, want, obs)

	_, err = c.Observations(context.Background(), domain.Temperature, region, 1995)
	require.ErrorIs(t, err, domain.ErrYearUnavailable)
	assert.Equal(t, int64(2), h.Requests())
}
