package clickhouseclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"VPNLogSift/internal/config"
)

func TestNewIsLazyAndEmptyBatchIsNoop(t *testing.T) {
	c, err := New(config.ClickHouseConfig{
		Address:       "127.0.0.1:1",
		Database:      "vpn",
		Protocol:      "http",
		SessionsTable: "vpn_sessions",
		EventsTable:   "vpn_events",
	}, true, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "vpn_sessions", c.SessionsTable)
	assert.True(t, c.Redact)
	assert.NoError(t, c.InsertSessionBatch(context.Background(), nil))
}
