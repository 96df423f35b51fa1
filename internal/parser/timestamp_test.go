package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTimestamp(t *testing.T) {
	cases := []struct {
		name string
		line string
		want time.Time
	}{
		{"dash space", "2025-08-01 10:00:00 connecting to portal vpn.example.com",
			time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)},
		{"slash space", "(T1234) 2025/08/01 10:00:02 portal connected",
			time.Date(2025, 8, 1, 10, 0, 2, 0, time.UTC)},
		{"dash T", "2025-08-01T23:59:59 tunnel is up",
			time.Date(2025, 8, 1, 23, 59, 59, 0, time.UTC)},
		{"fraction", "[P1 T2] 2025/08/01 10:00:00.125 Debug(  12): auth start",
			time.Date(2025, 8, 1, 10, 0, 0, 125_000_000, time.UTC)},
		{"micros", "2025-08-01 10:00:00.000042 x",
			time.Date(2025, 8, 1, 10, 0, 0, 42_000, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts, ok := ExtractTimestamp(tc.line)
			require.True(t, ok)
			assert.True(t, tc.want.Equal(ts), "got %s", ts)
			assert.Equal(t, time.UTC, ts.Location())
		})
	}
}

func TestExtractTimestampRejects(t *testing.T) {
	for _, line := range []string{
		"",
		"no time here",
		"08/01/2025 10:00:00 us order",
		"2025-08-01 10:00 minutes only",
		"2025-13-01 10:00:00 bad month",
		"2025-02-30 10:00:00 bad day",
		"2025-08-01 25:00:00 bad hour",
	} {
		_, ok := ExtractTimestamp(line)
		assert.False(t, ok, line)
	}
}

func TestParseTime(t *testing.T) {
	cases := map[string]time.Time{
		"2025-08-01 00:00":    time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		"2025/08/01 12:30":    time.Date(2025, 8, 1, 12, 30, 0, 0, time.UTC),
		"2025-08-01T12:30":    time.Date(2025, 8, 1, 12, 30, 0, 0, time.UTC),
		"2025-08-01":          time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		"2025-08-01 12:30:15": time.Date(2025, 8, 1, 12, 30, 15, 0, time.UTC),
	}
	for in, want := range cases {
		got, ok := ParseTime(in)
		require.True(t, ok, in)
		assert.True(t, want.Equal(got), "%s -> %s", in, got)
	}

	_, ok := ParseTime("yesterday")
	assert.False(t, ok)
}
