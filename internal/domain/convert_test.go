package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saoPaulo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	return loc
}

func TestConvertConcentration(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		unit     string
		expected float64
	}{
		{"canonical unit unchanged", 42.5, "µg/m³", 42.5},
		{"mg per cubic meter", 1.5, "mg/m³", 1500.0},
		{"mg ascii spelling", 2.0, "mg/m3", 2000.0},
		{"mg caret spelling", 0.25, "mg/m^3", 250.0},
		{"mg uppercase", 1.0, "MG/M3", 1000.0},
		{"mg with spaces", 1.0, "  mg/m³  ", 1000.0},
		{"unrecognized unit passes through", 7.0, "ppb", 7.0},
		{"empty unit passes through", 7.0, "", 7.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ConvertConcentration(tt.value, tt.unit))
		})
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	loc := saoPaulo(t)

	t.Run("naive timestamp gets local zone", func(t *testing.T) {
		utcISO, localISO, err := NormalizeTimestamp("2025-01-01T00:00:00", loc)
		require.NoError(t, err)
		assert.Equal(t, "2025-01-01T00:00:00-03:00", localISO)
		// UTC is exactly 3 hours ahead of the naive local instant.
		assert.Equal(t, "2025-01-01T03:00:00+00:00", utcISO)
	})

	t.Run("offset timestamp converted to local zone", func(t *testing.T) {
		utcISO, localISO, err := NormalizeTimestamp("2025-06-15T12:00:00+00:00", loc)
		require.NoError(t, err)
		assert.Equal(t, "2025-06-15T09:00:00-03:00", localISO)
		assert.Equal(t, "2025-06-15T12:00:00+00:00", utcISO)
	})

	t.Run("both columns represent the same instant", func(t *testing.T) {
		utcISO, localISO, err := NormalizeTimestamp("2024-03-10 18:30:00", loc)
		require.NoError(t, err)

		utc, err := time.Parse(time.RFC3339, utcISO)
		require.NoError(t, err)
		local, err := time.Parse(time.RFC3339, localISO)
		require.NoError(t, err)
		assert.True(t, utc.Equal(local))
	})

	t.Run("date only", func(t *testing.T) {
		_, localISO, err := NormalizeTimestamp("2025-02-01", loc)
		require.NoError(t, err)
		assert.Equal(t, "2025-02-01T00:00:00-03:00", localISO)
	})

	t.Run("garbage input", func(t *testing.T) {
		_, _, err := NormalizeTimestamp("not a date", loc)
		require.Error(t, err)

		var parseErr *ParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Contains(t, parseErr.Error(), "not a date")
	})

	t.Run("empty input", func(t *testing.T) {
		_, _, err := NormalizeTimestamp("", loc)
		var parseErr *ParseError
		require.True(t, errors.As(err, &parseErr))
	})
}

func TestParseTimestamp(t *testing.T) {
	loc := saoPaulo(t)

	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"rfc3339", "2025-01-01T10:00:00-03:00", true},
		{"rfc3339 nano", "2025-01-01T10:00:00.123456789Z", true},
		{"naive iso", "2025-01-01T10:00:00", true},
		{"naive with space", "2025-01-01 10:00:00", true},
		{"naive minutes only", "2025-01-01T10:00", true},
		{"date only", "2025-01-01", true},
		{"surrounding whitespace", "  2025-01-01T10:00:00  ", true},
		{"empty", "", false},
		{"garbage", "yesterday-ish", false},
		{"numeric junk", "123456", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTimestamp(tt.input, loc)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
