// Package store provides the PostgreSQL-backed feature store. It follows the
// repository pattern over a minimal DBTX interface that is satisfied by both
// *pgxpool.Pool (for normal queries) and pgx.Tx (for transactional
// execution), keeping every query testable without a database server.
//
// The store is append-only: rows are never updated or deleted, duplicate
// timestamps are permitted (repeated polls), and re-running ingestion is the
// recovery mechanism for any failed run.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"aqipipe/internal/types"
)

// DBTX is the minimal interface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// featureColumns is the persisted column set in insert/select order,
// mirroring the canonical FeatureRecord schema plus provenance tags.
const featureColumns = `ts, pm25, pm10, no2, so2, co, o3, temperature, humidity, pressure, aqi, category, scale, source`

// FeatureStore persists canonical feature records.
type FeatureStore struct {
	db DBTX
}

// NewFeatureStore creates a FeatureStore backed by the given database
// connection (pool or transaction).
func NewFeatureStore(db DBTX) *FeatureStore {
	return &FeatureStore{db: db}
}

// Init creates the features table when absent. It is idempotent: running it
// against an existing table never alters existing rows.
func (s *FeatureStore) Init(ctx context.Context) error {
	_, err := s.db.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS features (
			id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			ts          TIMESTAMPTZ NOT NULL,
			pm25        DOUBLE PRECISION NOT NULL,
			pm10        DOUBLE PRECISION NOT NULL,
			no2         DOUBLE PRECISION NOT NULL,
			so2         DOUBLE PRECISION NOT NULL,
			co          DOUBLE PRECISION NOT NULL,
			o3          DOUBLE PRECISION NOT NULL,
			temperature DOUBLE PRECISION NOT NULL,
			humidity    DOUBLE PRECISION NOT NULL,
			pressure    DOUBLE PRECISION NOT NULL,
			aqi         INTEGER,
			category    TEXT NOT NULL DEFAULT 'Unknown',
			scale       TEXT NOT NULL DEFAULT '',
			source      TEXT NOT NULL DEFAULT ''
		)`)
	if err != nil {
		return types.NewAppError(types.ErrCodeStoreInternal, "failed to initialize features table", err)
	}
	return nil
}

// Append inserts one immutable row. There is no uniqueness constraint on the
// timestamp.
func (s *FeatureStore) Append(ctx context.Context, rec *types.FeatureRecord) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO features (`+featureColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		rec.Timestamp.UTC(),
		rec.PM25, rec.PM10, rec.NO2, rec.SO2, rec.CO, rec.O3,
		rec.Temperature, rec.Humidity, rec.Pressure,
		rec.AQI,
		rec.Category,
		string(rec.Scale),
		rec.Source,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeStoreInternal, "failed to append feature record", err)
	}
	return nil
}

// Latest returns the single record with the maximum timestamp. It fails with
// a store_empty AppError when no rows exist.
func (s *FeatureStore) Latest(ctx context.Context) (*types.FeatureRecord, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+featureColumns+`
		 FROM features
		 ORDER BY ts DESC
		 LIMIT 1`)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeStoreEmpty, "feature store has no records", err)
		}
		return nil, types.NewAppError(types.ErrCodeStoreInternal, "failed to load latest feature record", err)
	}
	return rec, nil
}

// AllHistorical returns every record with timestamp <= asOf in ascending
// timestamp order. Training uses it to exclude synthetic/inserted future
// rows. An empty result is not an error here; the trainer decides whether
// the slice is sufficient.
func (s *FeatureStore) AllHistorical(ctx context.Context, asOf time.Time) ([]types.FeatureRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+featureColumns+`
		 FROM features
		 WHERE ts <= $1
		 ORDER BY ts ASC`,
		asOf.UTC(),
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeStoreInternal, "failed to query historical records", err)
	}
	defer rows.Close()

	var records []types.FeatureRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeStoreInternal, "failed to scan feature record", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeStoreInternal, "failed to iterate historical records", err)
	}
	return records, nil
}

// scanRecord scans one row in featureColumns order.
func scanRecord(row pgx.Row) (*types.FeatureRecord, error) {
	var rec types.FeatureRecord
	var scale string
	err := row.Scan(
		&rec.Timestamp,
		&rec.PM25, &rec.PM10, &rec.NO2, &rec.SO2, &rec.CO, &rec.O3,
		&rec.Temperature, &rec.Humidity, &rec.Pressure,
		&rec.AQI,
		&rec.Category,
		&scale,
		&rec.Source,
	)
	if err != nil {
		return nil, err
	}
	rec.Scale = types.AQIScale(scale)
	return &rec, nil
}
