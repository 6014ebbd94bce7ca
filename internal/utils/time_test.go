package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		input string
		want  time.Time
	}{
		{"2025-03-10T12:30:00Z", want},
		{"2025-03-10T14:30:00+02:00", want},
		{"2025-03-10T12:30:00.250Z", want.Add(250 * time.Millisecond)},
		{"2025-03-10T12:30", want},
		{"2025-03-10T12:30:00", want},
		{"2025-03-10 12:30:00", want},
		{"  2025-03-10T12:30:00Z ", want},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseTimestampInvalid(t *testing.T) {
	for _, input := range []string{"", "tomorrow", "2025-03-10", "10/03/2025 12:30", "0001-01-01T00:00:00Z", "0001-01-01T00:00"} {
		_, err := ParseTimestamp(input)
		assert.Error(t, err, input)
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	zone := time.FixedZone("UTC-5", -5*60*60)
	in := time.Date(2025, 3, 10, 7, 30, 0, 987654321, zone)

	got := NormalizeTimestamp(in)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 987000000, got.Nanosecond())
	assert.Equal(t, 12, got.Hour())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0 days 00:00:00", FormatDuration(0))
	assert.Equal(t, "0 days 00:00:00", FormatDuration(-time.Hour))
	assert.Equal(t, "0 days 01:02:03", FormatDuration(time.Hour+2*time.Minute+3*time.Second+400*time.Millisecond))
	assert.Equal(t, "2 days 03:04:05", FormatDuration(51*time.Hour+4*time.Minute+5*time.Second))
}
