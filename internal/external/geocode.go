package external

import (
	"github.com/kelvins/geocoder"

	"aqipipe/internal/types"
)

// Geocoder resolves state/city names to coordinates so runs can be scoped by
// name instead of raw lat/lon. Backed by the Google geocoding API via
// kelvins/geocoder, which keeps a package-level API key.
type Geocoder struct {
	configured bool
}

// NewGeocoder installs the API key and returns a resolver. The key is
// required: name resolution without one is an explicit configuration error,
// never a silent fallback.
func NewGeocoder(apiKey types.SecretString) *Geocoder {
	if apiKey.IsEmpty() {
		return &Geocoder{}
	}
	geocoder.ApiKey = apiKey.Unmask()
	return &Geocoder{configured: true}
}

// Resolve returns the coordinates for a state (optionally qualified by
// country). Any lookup failure maps to an upstream transport error.
func (g *Geocoder) Resolve(state, country string) (lat, lon float64, err error) {
	if !g.configured {
		return 0, 0, types.NewAppError(types.ErrCodeConfigInvalid, "GEOCODER_API_KEY is not set", nil)
	}

	location, gerr := geocoder.Geocoding(geocoder.Address{
		State:   state,
		Country: country,
	})
	if gerr != nil {
		return 0, 0, types.NewAppError(types.ErrCodeUpstreamTransport, "geocoding lookup failed", gerr)
	}
	return location.Latitude, location.Longitude, nil
}
