package storage

import (
	"context"

	"github.com/ickb/orderbot/internal/telemetry"
)

// Storage is the interface for persisting execution reports.
type Storage interface {
	// StoreReport persists one sealed report.
	StoreReport(ctx context.Context, report *telemetry.Report) error

	// Close closes the storage connection.
	Close() error
}
