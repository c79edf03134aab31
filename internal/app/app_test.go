package app

import (
	"context"
	"testing"
	"time"

	"github.com/ickb/orderbot/internal/telemetry"
	"github.com/ickb/orderbot/pkg/config"
	"github.com/ickb/orderbot/pkg/healthprobe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestHeartbeat_BeatsAtReportEnd(t *testing.T) {
	hc := healthprobe.New(time.Minute)
	sink := heartbeat{hc: hc}

	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	err := sink.StoreReport(context.Background(), &telemetry.Report{StartTime: start, ElapsedSeconds: 1.5})
	require.NoError(t, err)

	assert.True(t, start.Add(1500*time.Millisecond).Equal(hc.LastIteration()))
	assert.NoError(t, sink.Close())
}

func TestNew_InvalidKeyClosesCleanly(t *testing.T) {
	cfg := &config.Config{
		SleepInterval: time.Minute,
		BotPrivateKey: "not-a-key",
	}

	a, err := New(cfg, zaptest.NewLogger(t), nil)
	require.Error(t, err)
	assert.Nil(t, a)
	assert.Contains(t, err.Error(), "setup signer")
}

func TestClose_Idempotent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{logger: zaptest.NewLogger(t), ctx: ctx, cancel: cancel}

	a.Close()
	a.Close()

	assert.ErrorIs(t, a.ctx.Err(), context.Canceled)
}
