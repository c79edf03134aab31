package app

import (
	"context"
	"time"

	"github.com/ickb/orderbot/internal/telemetry"
	"github.com/ickb/orderbot/pkg/healthprobe"
)

// heartbeat is a report sink that feeds readiness.
type heartbeat struct {
	hc *healthprobe.HealthChecker
}

func (h heartbeat) StoreReport(_ context.Context, report *telemetry.Report) error {
	h.hc.Beat(report.StartTime.Add(time.Duration(report.ElapsedSeconds * float64(time.Second))))
	return nil
}

func (h heartbeat) Close() error {
	return nil
}
