package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/ickb/orderbot/internal/telemetry"
	"go.uber.org/zap"
)

// ConsoleStorage writes one JSON object per report, one per line.
type ConsoleStorage struct {
	mu     sync.Mutex
	out    io.Writer
	logger *zap.Logger
}

// NewConsoleStorage creates a console storage writing to out, or stdout when out is nil.
func NewConsoleStorage(out io.Writer, logger *zap.Logger) *ConsoleStorage {
	if out == nil {
		out = os.Stdout
	}
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		out:    out,
		logger: logger,
	}
}

// StoreReport writes the report as a JSON line.
func (c *ConsoleStorage) StoreReport(_ context.Context, report *telemetry.Report) error {
	line, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.out.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
