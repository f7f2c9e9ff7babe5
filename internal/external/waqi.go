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

// WAQIClient calls the World Air Quality Index project city feed
// (https://aqicn.org/api/). It embeds BaseClient for circuit breaking and
// retries.
type WAQIClient struct {
	*BaseClient
	baseURL string
	token   types.SecretString
}

// NewWAQIClient creates a client for the given base URL and API token.
func NewWAQIClient(base *BaseClient, baseURL string, token types.SecretString) *WAQIClient {
	return &WAQIClient{
		BaseClient: base,
		baseURL:    baseURL,
		token:      token,
	}
}

// WAQISnapshot is one normalized city feed reading. WAQI reports the EPA
// 0-500 index; individual pollutant and weather leaves are optional.
type WAQISnapshot struct {
	Timestamp time.Time
	AQI       *int

	PM25 *float64
	PM10 *float64
	NO2  *float64
	SO2  *float64
	CO   *float64
	O3   *float64

	Temperature *float64
	Humidity    *float64
	Pressure    *float64
}

// waqiResponse is the wire shape of /feed/{city}/. Readings live under
// data.iaqi.<pollutant>.v; a top-level status other than "ok" marks the
// whole response as unusable.
type waqiResponse struct {
	Status string `json:"status"`
	Data   struct {
		AQI  *int `json:"aqi"`
		Time struct {
			V int64 `json:"v"`
		} `json:"time"`
		IAQI map[string]struct {
			V *float64 `json:"v"`
		} `json:"iaqi"`
	} `json:"data"`
}

// CityFeed fetches the current reading for a city (e.g. "guwahati" or
// "here" for geo-located requests).
func (c *WAQIClient) CityFeed(ctx context.Context, city string) (*WAQISnapshot, error) {
	q := url.Values{}
	q.Set("token", c.token.Unmask())

	endpoint := fmt.Sprintf("%s/feed/%s/?%s", c.baseURL, url.PathEscape(city), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build waqi request", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamTransport,
			fmt.Sprintf("waqi returned status %d", resp.StatusCode),
			nil,
		)
	}

	var decoded waqiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamSchema, "failed to decode waqi response", err)
	}
	if decoded.Status != "ok" {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamSchema,
			fmt.Sprintf("waqi returned status %q", decoded.Status),
			nil,
		)
	}

	snap := &WAQISnapshot{
		Timestamp:   time.Unix(decoded.Data.Time.V, 0).UTC(),
		AQI:         decoded.Data.AQI,
		PM25:        iaqiValue(decoded.Data.IAQI, "pm25"),
		PM10:        iaqiValue(decoded.Data.IAQI, "pm10"),
		NO2:         iaqiValue(decoded.Data.IAQI, "no2"),
		SO2:         iaqiValue(decoded.Data.IAQI, "so2"),
		CO:          iaqiValue(decoded.Data.IAQI, "co"),
		O3:          iaqiValue(decoded.Data.IAQI, "o3"),
		Temperature: iaqiValue(decoded.Data.IAQI, "t"),
		Humidity:    iaqiValue(decoded.Data.IAQI, "h"),
		Pressure:    iaqiValue(decoded.Data.IAQI, "p"),
	}
	if snap.Timestamp.Unix() == 0 {
		snap.Timestamp = time.Now().UTC()
	}
	return snap, nil
}

// iaqiValue reads a nested iaqi.<key>.v leaf, nil when the leaf is absent.
func iaqiValue(iaqi map[string]struct {
	V *float64 `json:"v"`
}, key string) *float64 {
	entry, ok := iaqi[key]
	if !ok {
		return nil
	}
	return entry.V
}
