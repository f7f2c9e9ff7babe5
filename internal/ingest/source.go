// Package ingest normalizes heterogeneous provider payloads into canonical
// feature records. Each upstream source is its own adapter implementing the
// Source interface; adding a provider means adding an adapter, never
// branching inside shared code. All defaulting happens here: a record that
// leaves this package has every numeric feature populated.
package ingest

import (
	"context"

	"aqipipe/internal/types"
)

// Source is a capability interface over one upstream data source. Fetch
// returns zero or more normalized records. A transport or schema failure
// yields an error and no records, never partial data; the caller logs the
// failure and the run continues.
type Source interface {
	// Name identifies the adapter (persisted as the record's source tag).
	Name() string
	// Scale is the AQI category scale this source reports on.
	Scale() types.AQIScale
	// Fetch retrieves and normalizes the source's current payload.
	Fetch(ctx context.Context) ([]types.FeatureRecord, error)
}
