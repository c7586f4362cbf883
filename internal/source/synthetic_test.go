package source

import (
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

func TestSyntheticObservations(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.January, 7, 0, 0, 0, 0, time.UTC)

	frame := SyntheticObservations(start, end, "https://example.com", "MMA", "")

	t.Run("one row per day per pollutant", func(t *testing.T) {
		assert.Len(t, frame.Rows, 7*6)
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		again := SyntheticObservations(start, end, "https://example.com", "MMA", "")
		if diff := cmp.Diff(frame, again); diff != "" {
			t.Errorf("generator is not deterministic (-first +second):\n%s", diff)
		}
	})

	t.Run("values are plausible", func(t *testing.T) {
		for _, row := range frame.Rows {
			v, err := strconv.ParseFloat(row["value"], 64)
			require.NoError(t, err, "row value %q", row["value"])
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 10000.0)
		}
	})

	t.Run("rows normalize and validate cleanly", func(t *testing.T) {
		loc, err := time.LoadLocation("America/Sao_Paulo")
		require.NoError(t, err)

		records, dropped := domain.Normalize(frame, loc)
		assert.Empty(t, dropped)
		require.Len(t, records, len(frame.Rows))
		assert.Empty(t, domain.Validate(domain.FrameOf(records)))
	})

	t.Run("anchored to the reference station", func(t *testing.T) {
		assert.Equal(t, "cras_fercal", frame.Rows[0]["station_id"])
		assert.Equal(t, "-15.7023", frame.Rows[0]["latitude"])
		assert.Equal(t, "MMA", frame.Rows[0]["source_agency"])
	})

	t.Run("single day window", func(t *testing.T) {
		oneDay := SyntheticObservations(start, start, "https://example.com", "MMA", "")
		assert.Len(t, oneDay.Rows, 6)
	})
}

func TestFromSpecs(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("builds enabled connectors", func(t *testing.T) {
		sources, err := FromSpecs(config.DefaultSources(), time.Second, logger)
		require.NoError(t, err)
		require.Len(t, sources, 2)
		assert.Equal(t, "arcgis_stations", sources[0].Name())
		assert.Equal(t, "monitorar", sources[1].Name())
	})

	t.Run("skips disabled specs", func(t *testing.T) {
		specs := config.DefaultSources()
		specs[0].Enabled = false

		sources, err := FromSpecs(specs, time.Second, logger)
		require.NoError(t, err)
		require.Len(t, sources, 1)
		assert.Equal(t, "monitorar", sources[0].Name())
	})

	t.Run("unknown kind fails fast", func(t *testing.T) {
		specs := []config.SourceSpec{{Name: "x", Kind: "ftp", Enabled: true}}

		_, err := FromSpecs(specs, time.Second, logger)
		assert.ErrorContains(t, err, "unknown source kind")
	})
}
