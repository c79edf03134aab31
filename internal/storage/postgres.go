package storage

import (
	"context"
	"database/sql"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/ickb/orderbot/internal/telemetry"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL storage.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	storage := NewPostgresStorageFromDB(db, cfg.Logger)
	err = storage.EnsureSchema(context.Background())
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return storage, nil
}

// NewPostgresStorageFromDB wraps an open database handle.
func NewPostgresStorageFromDB(db *sql.DB, logger *zap.Logger) *PostgresStorage {
	return &PostgresStorage{db: db, logger: logger}
}

// Schema creates the reports table. It is safe to run on every start.
const Schema = `
	CREATE TABLE IF NOT EXISTS execution_reports (
		id               UUID PRIMARY KEY,
		started_at       TIMESTAMPTZ NOT NULL,
		outcome          TEXT NOT NULL,
		direction        TEXT,
		amount           NUMERIC,
		cancelled_orders INTEGER NOT NULL,
		melted_orders    INTEGER NOT NULL,
		fee              BIGINT NOT NULL,
		fee_rate         BIGINT NOT NULL,
		tx_hash          TEXT,
		error            TEXT,
		fallback         BOOLEAN NOT NULL,
		shutdown         BOOLEAN NOT NULL,
		elapsed_seconds  DOUBLE PRECISION NOT NULL,
		report           JSONB NOT NULL
	)
`

// EnsureSchema creates the reports table if it does not exist.
func (p *PostgresStorage) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, Schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

const insertReport = `
	INSERT INTO execution_reports (
		id, started_at, outcome, direction, amount,
		cancelled_orders, melted_orders, fee, fee_rate,
		tx_hash, error, fallback, shutdown, elapsed_seconds, report
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
	)
`

// StoreReport inserts the report; the full document goes into a JSONB column.
func (p *PostgresStorage) StoreReport(ctx context.Context, report *telemetry.Report) error {
	doc, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	var direction, amount sql.NullString
	if report.NewOrder != nil {
		direction = sql.NullString{String: report.NewOrder.Direction, Valid: true}
		amount = sql.NullString{String: report.NewOrder.Amount, Valid: true}
	}

	_, err = p.db.ExecContext(ctx, insertReport,
		report.ID,
		report.StartTime,
		report.Outcome,
		direction,
		amount,
		report.CancelledOrders,
		report.MeltedOrders,
		int64(report.Fee),
		int64(report.FeeRate),
		nullable(report.TxHash),
		nullable(report.Error),
		report.Fallback,
		report.Shutdown,
		report.ElapsedSeconds,
		doc,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	p.logger.Debug("report-stored", zap.String("report-id", report.ID))
	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
