package storage

import (
	"context"
	"errors"

	"github.com/ickb/orderbot/internal/telemetry"
)

// MultiStorage fans a report out to several storages.
type MultiStorage struct {
	sinks []Storage
}

// NewMultiStorage combines sinks, skipping nil entries.
func NewMultiStorage(sinks ...Storage) *MultiStorage {
	m := &MultiStorage{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// StoreReport stores into every sink, joining their errors.
func (m *MultiStorage) StoreReport(ctx context.Context, report *telemetry.Report) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.StoreReport(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (m *MultiStorage) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
