package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"aqipipe/internal/types"
)

// OpenWeatherClient calls the OpenWeather air_pollution and 5-day weather
// forecast endpoints. It embeds BaseClient for circuit breaking and retries.
type OpenWeatherClient struct {
	*BaseClient
	baseURL string
	apiKey  types.SecretString
}

// NewOpenWeatherClient creates a client for the given base URL and API key.
func NewOpenWeatherClient(base *BaseClient, baseURL string, apiKey types.SecretString) *OpenWeatherClient {
	return &OpenWeatherClient{
		BaseClient: base,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// owPollutionResponse is the wire shape of /data/2.5/air_pollution and
// /data/2.5/air_pollution/forecast. The absence of "list" marks a schema
// failure; individual component leaves are optional.
type owPollutionResponse struct {
	List []owPollutionEntry `json:"list"`
}

type owPollutionEntry struct {
	Dt   int64 `json:"dt"`
	Main struct {
		AQI *int `json:"aqi"`
	} `json:"main"`
	Components struct {
		PM25 *float64 `json:"pm2_5"`
		PM10 *float64 `json:"pm10"`
		NO2  *float64 `json:"no2"`
		SO2  *float64 `json:"so2"`
		CO   *float64 `json:"co"`
		O3   *float64 `json:"o3"`
	} `json:"components"`
}

// owWeatherResponse is the wire shape of /data/2.5/forecast (3-hourly).
type owWeatherResponse struct {
	List []owWeatherEntry `json:"list"`
}

type owWeatherEntry struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
		Pressure *float64 `json:"pressure"`
	} `json:"main"`
}

// PollutionForecast returns the upstream pollution forecast sequence for the
// given coordinates, ordered as delivered by the provider.
func (c *OpenWeatherClient) PollutionForecast(ctx context.Context, lat, lon float64) ([]types.PollutionPoint, error) {
	var decoded owPollutionResponse
	if err := c.getJSON(ctx, "/data/2.5/air_pollution/forecast", lat, lon, &decoded); err != nil {
		return nil, err
	}
	if decoded.List == nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamSchema, "pollution forecast response has no list", nil)
	}

	points := make([]types.PollutionPoint, 0, len(decoded.List))
	for _, e := range decoded.List {
		points = append(points, types.PollutionPoint{
			Timestamp: time.Unix(e.Dt, 0).UTC(),
			PM25:      e.Components.PM25,
			PM10:      e.Components.PM10,
			NO2:       e.Components.NO2,
			SO2:       e.Components.SO2,
			CO:        e.Components.CO,
			O3:        e.Components.O3,
			AQI:       e.Main.AQI,
		})
	}
	return points, nil
}

// WeatherForecast returns the upstream 3-hourly weather forecast sequence for
// the given coordinates, ordered as delivered by the provider.
func (c *OpenWeatherClient) WeatherForecast(ctx context.Context, lat, lon float64) ([]types.WeatherPoint, error) {
	var decoded owWeatherResponse
	if err := c.getJSON(ctx, "/data/2.5/forecast", lat, lon, &decoded); err != nil {
		return nil, err
	}
	if decoded.List == nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamSchema, "weather forecast response has no list", nil)
	}

	points := make([]types.WeatherPoint, 0, len(decoded.List))
	for _, e := range decoded.List {
		points = append(points, types.WeatherPoint{
			Timestamp:   time.Unix(e.Dt, 0).UTC(),
			Temperature: e.Main.Temp,
			Humidity:    e.Main.Humidity,
			Pressure:    e.Main.Pressure,
		})
	}
	return points, nil
}

// getJSON performs a GET against the given path with lat/lon/appid query
// parameters and decodes the 200 response into out. Non-200 statuses map to
// a transport failure, undecodable bodies to a schema failure.
func (c *OpenWeatherClient) getJSON(ctx context.Context, path string, lat, lon float64, out any) error {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%g", lat))
	q.Set("lon", fmt.Sprintf("%g", lon))
	q.Set("units", "metric")
	q.Set("appid", c.apiKey.Unmask())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build openweather request", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.NewAppError(
			types.ErrCodeUpstreamTransport,
			fmt.Sprintf("openweather returned status %d", resp.StatusCode),
			nil,
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return types.NewAppError(types.ErrCodeUpstreamSchema, "failed to decode openweather response", err)
	}
	return nil
}
