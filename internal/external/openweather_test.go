package external

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqipipe/internal/types"
)

// newTestBaseClient returns a BaseClient that never sleeps between retries.
func newTestBaseClient(t *testing.T) *BaseClient {
	t.Helper()
	return NewBaseClient(
		&http.Client{Timeout: 5 * time.Second},
		"test-"+t.Name(),
		RetryPolicy{MaxRetries: 1, MinWait: time.Millisecond, MaxWait: time.Millisecond},
		"aqipipe-test/1.0",
		WithSleepFunc(func(time.Duration) {}),
	)
}

const pollutionForecastFixture = `{
	"coord": {"lon": 89.46, "lat": 24.13},
	"list": [
		{"dt": 1756684800, "main": {"aqi": 3}, "components": {"co": 530.7, "no2": 12.3, "o3": 68.7, "so2": 7.2, "pm2_5": 41.5, "pm10": 62.0}},
		{"dt": 1756688400, "main": {"aqi": 2}, "components": {"pm2_5": 18.1}}
	]
}`

func TestOpenWeatherClient_PollutionForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/air_pollution/forecast", r.URL.Path)
		assert.Equal(t, "secret-key", r.URL.Query().Get("appid"))
		assert.Equal(t, "24.13", r.URL.Query().Get("lat"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(pollutionForecastFixture))
	}))
	defer srv.Close()

	client := NewOpenWeatherClient(newTestBaseClient(t), srv.URL, "secret-key")

	points, err := client.PollutionForecast(context.Background(), 24.13, 89.46)
	require.NoError(t, err)
	require.Len(t, points, 2)

	first := points[0]
	assert.Equal(t, time.Unix(1756684800, 0).UTC(), first.Timestamp)
	require.NotNil(t, first.AQI)
	assert.Equal(t, 3, *first.AQI)
	require.NotNil(t, first.PM25)
	assert.InDelta(t, 41.5, *first.PM25, 1e-9)

	// Second entry omits most components; the leaves must come back nil,
	// not zero, so defaulting stays an adapter decision.
	second := points[1]
	require.NotNil(t, second.PM25)
	assert.Nil(t, second.PM10)
	assert.Nil(t, second.CO)
}

func TestOpenWeatherClient_WeatherForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/forecast", r.URL.Path)
		_, _ = w.Write([]byte(`{"cod": "200", "list": [
			{"dt": 1756684800, "main": {"temp": 28.4, "humidity": 74, "pressure": 1006}},
			{"dt": 1756695600, "main": {"temp": 26.1}}
		]}`))
	}))
	defer srv.Close()

	client := NewOpenWeatherClient(newTestBaseClient(t), srv.URL, "secret-key")

	points, err := client.WeatherForecast(context.Background(), 24.13, 89.46)
	require.NoError(t, err)
	require.Len(t, points, 2)

	require.NotNil(t, points[0].Pressure)
	assert.InDelta(t, 1006, *points[0].Pressure, 1e-9)
	assert.Nil(t, points[1].Humidity)
	assert.Nil(t, points[1].Pressure)
}

func TestOpenWeatherClient_ServerError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewOpenWeatherClient(newTestBaseClient(t), srv.URL, "secret-key")

	_, err := client.PollutionForecast(context.Background(), 24.13, 89.46)
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeUpstreamTransport, appErr.Code)
	assert.Equal(t, 2, calls, "one retry expected")
}

func TestOpenWeatherClient_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"cod": 401, "message": "Invalid API key"}`))
	}))
	defer srv.Close()

	client := NewOpenWeatherClient(newTestBaseClient(t), srv.URL, "bad-key")

	_, err := client.PollutionForecast(context.Background(), 24.13, 89.46)
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeUpstreamTransport, appErr.Code)
}

func TestOpenWeatherClient_MissingList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"cod": "200", "message": "no data"}`))
	}))
	defer srv.Close()

	client := NewOpenWeatherClient(newTestBaseClient(t), srv.URL, "secret-key")

	_, err := client.PollutionForecast(context.Background(), 24.13, 89.46)
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeUpstreamSchema, appErr.Code)
}
