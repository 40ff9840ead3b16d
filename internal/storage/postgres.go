package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/Alias1177/SignalEngine/models"
)

// PostgresStore persists the signal history in PostgreSQL.
type PostgresStore struct {
	db        *sql.DB
	retention int
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NewPostgresStore opens a connection and ensures the schema exists.
func NewPostgresStore(params ConnectionParams, retention int) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	return &PostgresStore{db: db, retention: retention}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS signals (
			id TEXT PRIMARY KEY,
			pair TEXT NOT NULL,
			ts BIGINT NOT NULL,
			type TEXT NOT NULL,
			status TEXT NOT NULL,
			outcome TEXT NOT NULL DEFAULT '',
			confidence DOUBLE PRECISION NOT NULL,
			patterns TEXT[] NOT NULL DEFAULT '{}',
			entry DOUBLE PRECISION NOT NULL,
			stop_loss DOUBLE PRECISION NOT NULL,
			take_profit DOUBLE PRECISION NOT NULL,
			risk_reward DOUBLE PRECISION NOT NULL,
			leverage DOUBLE PRECISION NOT NULL,
			position_size DOUBLE PRECISION NOT NULL,
			trading_fees DOUBLE PRECISION NOT NULL,
			net_profit DOUBLE PRECISION NOT NULL,
			net_loss DOUBLE PRECISION NOT NULL,
			entry_time TIMESTAMP NOT NULL
		)
	`)
	return err
}

// Append inserts the record and trims the history to the retention bound.
func (s *PostgresStore) Append(ctx context.Context, signal models.PersistedSignal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO signals (
			id, pair, ts, type, status, outcome, confidence, patterns,
			entry, stop_loss, take_profit, risk_reward, leverage,
			position_size, trading_fees, net_profit, net_loss, entry_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`,
		signal.ID, signal.Pair, signal.Timestamp, string(signal.Type),
		string(signal.Status), string(signal.Outcome), signal.Confidence,
		pq.Array(signal.Patterns), signal.Entry, signal.StopLoss,
		signal.TakeProfit, signal.RiskReward, signal.Leverage,
		signal.PositionSize, signal.TradingFees, signal.NetProfit,
		signal.NetLoss, signal.EntryTime,
	)
	if err != nil {
		return fmt.Errorf("failed to insert signal: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		DELETE FROM signals WHERE id IN (
			SELECT id FROM signals ORDER BY ts DESC, id DESC OFFSET $1
		)
	`, s.retention)
	if err != nil {
		return fmt.Errorf("failed to trim signal history: %w", err)
	}
	return nil
}

// UpdateStatus resolves a record. Records already in a terminal status are
// left untouched by the WHERE clause.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status models.SignalStatus, outcome models.SignalOutcome) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE signals SET status = $1, outcome = COALESCE(NULLIF($2, ''), outcome)
		WHERE id = $3 AND status = $4
	`, string(status), string(outcome), id, string(models.StatusActive))
	if err != nil {
		return fmt.Errorf("failed to update signal status: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// Either unknown id or already terminal. Only the former is an error.
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM signals WHERE id = $1)`, id,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

// List returns retained records, newest first.
func (s *PostgresStore) List(ctx context.Context) ([]models.PersistedSignal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pair, ts, type, status, outcome, confidence, patterns,
			entry, stop_loss, take_profit, risk_reward, leverage,
			position_size, trading_fees, net_profit, net_loss, entry_time
		FROM signals ORDER BY ts DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var out []models.PersistedSignal
	for rows.Next() {
		var r models.PersistedSignal
		var sigType, status, outcome string
		var patterns pq.StringArray
		if err := rows.Scan(
			&r.ID, &r.Pair, &r.Timestamp, &sigType, &status, &outcome,
			&r.Confidence, &patterns, &r.Entry, &r.StopLoss, &r.TakeProfit,
			&r.RiskReward, &r.Leverage, &r.PositionSize, &r.TradingFees,
			&r.NetProfit, &r.NetLoss, &r.EntryTime,
		); err != nil {
			return nil, err
		}
		r.Type = models.SignalType(sigType)
		r.Status = models.SignalStatus(status)
		r.Outcome = models.SignalOutcome(outcome)
		r.Patterns = []string(patterns)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ClearAll wipes the history.
func (s *PostgresStore) ClearAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM signals`)
	return err
}

// Close releases the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
