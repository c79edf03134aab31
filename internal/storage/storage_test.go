package storage

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	json "github.com/goccy/go-json"
	"github.com/ickb/orderbot/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testReport() *telemetry.Report {
	return &telemetry.Report{
		ID:        "3f1c2b9e-6a55-4c8e-9a4c-2a1f0e9d7b11",
		StartTime: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Outcome:   "success",
		NewOrder: &telemetry.Order{
			Direction: "base-to-quote",
			Amount:    "50000000000",
		},
		CancelledOrders: 1,
		MeltedOrders:    2,
		Fee:             1234,
		FeeRate:         1000,
		TxHash:          "0xabc",
		ElapsedSeconds:  0.75,
	}
}

func TestConsoleStorage_StoreReport(t *testing.T) {
	var buf bytes.Buffer
	storage := NewConsoleStorage(&buf, zaptest.NewLogger(t))

	require.NoError(t, storage.StoreReport(context.Background(), testReport()))
	require.NoError(t, storage.StoreReport(context.Background(), &telemetry.Report{ID: "second"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var decoded telemetry.Report
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &decoded))
	assert.Equal(t, "success", decoded.Outcome)
	assert.Equal(t, 1, decoded.CancelledOrders)
	assert.Equal(t, "base-to-quote", decoded.NewOrder.Direction)
	assert.Contains(t, lines[1], `"id":"second"`)
}

func TestConsoleStorage_Close(t *testing.T) {
	storage := NewConsoleStorage(nil, zaptest.NewLogger(t))
	assert.NoError(t, storage.Close())
}

func TestMemoryStorage(t *testing.T) {
	storage := NewMemoryStorage()

	_, ok := storage.Last()
	assert.False(t, ok)

	report := testReport()
	require.NoError(t, storage.StoreReport(context.Background(), report))
	report.Outcome = "mutated"

	last, ok := storage.Last()
	require.True(t, ok)
	assert.Equal(t, "success", last.Outcome, "stored copy is isolated")
	assert.Equal(t, 1, storage.Count())
}

type failingStorage struct {
	err error
}

func (f failingStorage) StoreReport(context.Context, *telemetry.Report) error { return f.err }
func (f failingStorage) Close() error                                         { return f.err }

func TestMultiStorage(t *testing.T) {
	memory := NewMemoryStorage()
	multi := NewMultiStorage(memory, nil, failingStorage{err: errors.New("disk full")})

	err := multi.StoreReport(context.Background(), testReport())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, memory.Count(), "healthy sinks still receive the report")
	assert.Error(t, multi.Close())

	assert.NoError(t, NewMultiStorage(memory).Close())
}

func TestPostgresStorage_StoreReport(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	storage := NewPostgresStorageFromDB(db, zaptest.NewLogger(t))
	report := testReport()

	mock.ExpectExec("INSERT INTO execution_reports").
		WithArgs(
			report.ID,
			sqlmock.AnyArg(), // started_at
			"success",
			"base-to-quote",
			"50000000000",
			1,
			2,
			1234,
			1000,
			"0xabc",
			nil, // no error
			false,
			false,
			0.75,
			sqlmock.AnyArg(), // report document
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = storage.StoreReport(context.Background(), report)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_StoreReport_NoOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	storage := NewPostgresStorageFromDB(db, zaptest.NewLogger(t))
	report := &telemetry.Report{ID: "x", Outcome: "fatal", Error: "insufficient funds"}

	mock.ExpectExec("INSERT INTO execution_reports").
		WithArgs("x", sqlmock.AnyArg(), "fatal", nil, nil, 0, 0, 0, 0, nil, "insufficient funds",
			false, false, 0.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, storage.StoreReport(context.Background(), report))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_StoreReport_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	storage := NewPostgresStorageFromDB(db, zaptest.NewLogger(t))

	mock.ExpectExec("INSERT INTO execution_reports").
		WillReturnError(sqlmock.ErrCancelled)

	err = storage.StoreReport(context.Background(), testReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert report")
}

func TestPostgresStorage_Close(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	storage := NewPostgresStorageFromDB(db, zaptest.NewLogger(t))
	mock.ExpectClose()

	assert.NoError(t, storage.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_EnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	storage := NewPostgresStorageFromDB(db, zaptest.NewLogger(t))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS execution_reports").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, storage.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_EnsureSchema_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	storage := NewPostgresStorageFromDB(db, zaptest.NewLogger(t))
	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	err = storage.EnsureSchema(context.Background())
	assert.ErrorContains(t, err, "create schema")
}

func TestPostgresStorage_InsertMatchesSchema(t *testing.T) {
	assert.Contains(t, insertReport, "INSERT INTO execution_reports")
	for _, column := range []string{"id", "started_at", "outcome", "tx_hash", "elapsed_seconds", "report"} {
		assert.Contains(t, Schema, column)
	}
}
