package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"aqipipe/internal/types"
)

type mockDBTX struct {
	mock.Mock
}

func (m *mockDBTX) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDBTX) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if r := args.Get(0); r != nil {
		return r.(pgx.Rows), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDBTX) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// --- Mock Row / Rows ---

type mockRow struct {
	scanErr error
	scanFn  func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error {
	if r.scanFn != nil {
		return r.scanFn(dest...)
	}
	return r.scanErr
}

type mockRows struct {
	data   [][]any
	idx    int
	closed bool
	errVal error
}

func newMockRows(data [][]any) *mockRows {
	return &mockRows{data: data, idx: -1}
}

func (r *mockRows) Next() bool {
	if r.closed {
		return false
	}
	r.idx++
	return r.idx < len(r.data)
}

func (r *mockRows) Scan(dest ...any) error {
	return scanInto(r.data[r.idx], dest)
}

func (r *mockRows) Close()                                       { r.closed = true }
func (r *mockRows) Err() error                                   { return r.errVal }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Values() ([]any, error)                       { return nil, nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }

// scanInto copies one fixture row into scan destinations in featureColumns
// order.
func scanInto(row []any, dest []any) error {
	for i, d := range dest {
		switch v := d.(type) {
		case *time.Time:
			*v = row[i].(time.Time)
		case *float64:
			*v = row[i].(float64)
		case **int:
			if row[i] == nil {
				*v = nil
			} else {
				n := row[i].(int)
				*v = &n
			}
		case *string:
			*v = row[i].(string)
		}
	}
	return nil
}

// fixtureRow builds a raw row for the given timestamp and AQI (nil for a
// label-less row).
func fixtureRow(ts time.Time, aqi any) []any {
	return []any{ts, 40.0, 60.0, 20.0, 5.0, 0.5, 30.0, 25.0, 60.0, 1013.0, aqi, "Moderate", "epa_0_500", "waqi"}
}

// --- Tests ---

func TestFeatureStore_Init_Idempotent(t *testing.T) {
	db := new(mockDBTX)
	s := NewFeatureStore(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("CREATE TABLE"), nil).Twice()

	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Init(ctx))
	db.AssertExpectations(t)
}

func TestFeatureStore_Append(t *testing.T) {
	db := new(mockDBTX)
	s := NewFeatureStore(db)
	ctx := context.Background()

	aqi := 75
	rec := &types.FeatureRecord{
		Timestamp: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		PM25:      40, PM10: 60, NO2: 20, SO2: 5, CO: 0.5, O3: 30,
		Temperature: 25, Humidity: 60, Pressure: 1013,
		AQI:      &aqi,
		Category: "Moderate",
		Scale:    types.ScaleEPA,
		Source:   "waqi",
	}

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(args []any) bool {
		return len(args) == 14
	})).Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	require.NoError(t, s.Append(ctx, rec))
	db.AssertExpectations(t)
}

func TestFeatureStore_Append_WriteFailureIsFatal(t *testing.T) {
	db := new(mockDBTX)
	s := NewFeatureStore(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("disk full"))

	err := s.Append(ctx, &types.FeatureRecord{Timestamp: time.Now()})
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeStoreInternal, appErr.Code)
}

func TestFeatureStore_Latest(t *testing.T) {
	db := new(mockDBTX)
	s := NewFeatureStore(db)
	ctx := context.Background()

	ts := time.Date(2026, 8, 30, 18, 0, 0, 0, time.UTC)
	row := &mockRow{scanFn: func(dest ...any) error {
		return scanInto(fixtureRow(ts, 75), dest)
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	rec, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, ts, rec.Timestamp)
	require.NotNil(t, rec.AQI)
	assert.Equal(t, 75, *rec.AQI)
	assert.Equal(t, types.ScaleEPA, rec.Scale)
	assert.InDelta(t, 40.0, rec.PM25, 1e-9)
}

func TestFeatureStore_Latest_Empty(t *testing.T) {
	db := new(mockDBTX)
	s := NewFeatureStore(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanErr: pgx.ErrNoRows})

	_, err := s.Latest(ctx)
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeStoreEmpty, appErr.Code)
}

func TestFeatureStore_AllHistorical(t *testing.T) {
	db := new(mockDBTX)
	s := NewFeatureStore(db)
	ctx := context.Background()

	asOf := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	rows := newMockRows([][]any{
		fixtureRow(asOf.AddDate(0, 0, -2), 75),
		fixtureRow(asOf.AddDate(0, 0, -1), nil),
	})

	db.On("Query", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(args []any) bool {
		return len(args) == 1 && args[0].(time.Time).Equal(asOf)
	})).Return(rows, nil)

	records, err := s.AllHistorical(ctx, asOf)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.NotNil(t, records[0].AQI)
	assert.Nil(t, records[1].AQI)
	assert.True(t, records[0].Timestamp.Before(records[1].Timestamp))
}

func TestFeatureStore_AllHistorical_EmptyIsNotAnError(t *testing.T) {
	db := new(mockDBTX)
	s := NewFeatureStore(db)
	ctx := context.Background()

	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(newMockRows(nil), nil)

	records, err := s.AllHistorical(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, records)
}
