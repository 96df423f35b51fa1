package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VPNLogSift/internal/models"
)

func TestBuildMergesAndSorts(t *testing.T) {
	sources := []Source{
		LinesSource("a.log", []string{
			"2025-08-01 10:00:05 auth success",
			"2025-08-01 10:00:01 portal connected",
		}),
		LinesSource("b.log", []string{
			"2025-08-01 10:00:00 connecting to portal vpn.example.com",
			"2025-08-01 10:00:05 tunnel is up",
		}),
	}

	events, st, err := Build(context.Background(), sources, Window{})
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, Stats{Lines: 4}, st)

	assert.Equal(t, models.EventPortalConnectStart, events[0].EventType)
	assert.Equal(t, models.EventPortalConnectSuccess, events[1].EventType)
	// одинаковое время: порядок источников сохраняется
	assert.Equal(t, "a.log", events[2].Source)
	assert.Equal(t, models.EventAuthSuccess, events[2].EventType)
	assert.Equal(t, "b.log", events[3].Source)
	assert.Equal(t, models.EventTunnelUp, events[3].EventType)

	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Timestamp.Before(events[i-1].Timestamp))
	}
}

func TestBuildDropsLinesWithoutTimestamp(t *testing.T) {
	sources := []Source{LinesSource("PanGPS.log", []string{
		"2025-08-01 10:00:00 connecting to portal vpn.example.com",
		"    continuation line without a time",
		"tunnel is up",
	})}

	events, st, err := Build(context.Background(), sources, Window{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 3, st.Lines)
	assert.Equal(t, 2, st.NoTime)
}

func TestBuildWindowIsHalfOpen(t *testing.T) {
	since := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	until := time.Date(2025, 8, 1, 11, 0, 0, 0, time.UTC)
	sources := []Source{LinesSource("x", []string{
		"2025-08-01 09:59:59 reconnecting",
		"2025-08-01 10:00:00 reconnecting",
		"2025-08-01 10:59:59 reconnecting",
		"2025-08-01 11:00:00 reconnecting",
	})}

	events, st, err := Build(context.Background(), sources, Window{Since: since, Until: until})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].Timestamp.Equal(since))
	assert.Equal(t, 2, st.OutOfRange)
}

func TestWindowContains(t *testing.T) {
	ts := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	assert.True(t, Window{}.Contains(ts))
	assert.True(t, Window{Since: ts}.Contains(ts))
	assert.False(t, Window{Until: ts}.Contains(ts))
	assert.True(t, Window{Until: ts.Add(time.Nanosecond)}.Contains(ts))
}

func TestBuildLoadError(t *testing.T) {
	boom := errors.New("boom")
	sources := []Source{
		LinesSource("ok", []string{"2025-08-01 10:00:00 tunnel is up"}),
		{ID: "broken", Load: func() ([]string, error) { return nil, boom }},
	}

	_, _, err := Build(context.Background(), sources, Window{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken")
}

func TestBuildEmpty(t *testing.T) {
	events, st, err := Build(context.Background(), nil, Window{})
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Zero(t, st.Lines)
}
