// Package postgres persists silver-layer records, the optional queryable
// store next to the partitioned CSV export.
package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// Store upserts canonical records into the aqi.silver_observations table.
// It implements pipeline.RecordSink.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects a pgx pool to the configured database.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

const upsertQuery = `INSERT INTO aqi.silver_observations
(station_id, station_name, pollutant, datetime_utc, datetime_local, latitude, longitude,
 value, unit, avg_period_minutes, source_url, source_agency, ingested_at_utc, license, quality_flag,
 created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,NOW(),NOW())
ON CONFLICT (station_id, pollutant, datetime_utc) DO UPDATE
SET value = EXCLUDED.value,
    unit = EXCLUDED.unit,
    avg_period_minutes = EXCLUDED.avg_period_minutes,
    ingested_at_utc = EXCLUDED.ingested_at_utc,
    quality_flag = EXCLUDED.quality_flag,
    updated_at = NOW()`

// LoadBatch upserts a record batch. Re-running a pipeline over the same
// window updates rows in place, keyed by (station, pollutant, timestamp).
func (s *Store) LoadBatch(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(upsertQuery,
			r.StationID, r.StationName, r.Pollutant, r.DatetimeUTC, r.DatetimeLocal,
			nullableFloat(r.Latitude), nullableFloat(r.Longitude),
			r.Value, r.Unit, r.AvgPeriodMinutes,
			nullableString(r.SourceURL), nullableString(r.SourceAgency),
			r.IngestedAtUTC, nullableString(r.License), r.QualityFlag,
		)
	}

	res := s.pool.SendBatch(ctx, batch)
	defer res.Close()

	for range records {
		if _, err := res.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// nullableFloat converts a verbatim coordinate string to a nullable float;
// unparsable coordinates become NULL in the store (the validator reports them).
func nullableFloat(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
