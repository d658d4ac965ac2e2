package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/sensor-telemetry-service/internal/domain"
	"github.com/couchcryptid/sensor-telemetry-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

//go:embed sql/insert-reading.sql
var insertReadingSQL string

//go:embed sql/get-history.sql
var getHistorySQL string

//go:embed sql/prune-readings.sql
var pruneReadingsSQL string

// tsLayout is fixed width so text comparison in SQL orders by time.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

func formatTS(t time.Time) string { return t.UTC().Format(tsLayout) }

// Recorder stores telemetry events as history rows.
// It implements pipeline.BatchLoader.
type Recorder struct {
	db        *sql.DB
	retention time.Duration
	clock     clockwork.Clock
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewRecorder wraps an open history database. A positive retention prunes
// rows older than now-retention after every batch.
func NewRecorder(db *sql.DB, retention time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Recorder {
	return &Recorder{
		db:        db,
		retention: retention,
		clock:     clock,
		metrics:   metrics,
		logger:    logger,
	}
}

// LoadBatch inserts one row per event, keyed by sensor and reading time, in a
// single transaction. Rows already present are left as they are.
func (r *Recorder) LoadBatch(ctx context.Context, events []domain.TelemetryEvent) (err error) {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertReadingSQL)
	if err != nil {
		return fmt.Errorf("prepare insert reading: %w", err)
	}
	defer stmt.Close()

	var written int64
	for _, ev := range events {
		rd := ev.Readings
		res, err := stmt.ExecContext(ctx, ev.SensorID, formatTS(rd.LastUpdated),
			rd.Temperature, rd.Humidity, rd.Pressure, rd.WindDirection, rd.WindSpeed, string(ev.Alert.Level))
		if err != nil {
			return fmt.Errorf("insert reading for %s: %w", ev.SensorID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			written += n
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history tx: %w", err)
	}
	r.metrics.HistoryRowsWritten.Add(float64(written))

	if r.retention > 0 {
		if _, err := r.Prune(ctx, r.clock.Now().Add(-r.retention)); err != nil {
			r.logger.Warn("history prune failed", "error", err)
		}
	}
	return nil
}

// History returns up to limit of the most recent readings for sensorID with
// from <= ts <= to, oldest first.
func (r *Recorder) History(ctx context.Context, sensorID string, from, to time.Time, limit int) ([]domain.HistoryPoint, error) {
	rows, err := r.db.QueryContext(ctx, getHistorySQL, sensorID, formatTS(from), formatTS(to), limit)
	if err != nil {
		return nil, fmt.Errorf("query history for %s: %w", sensorID, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Error("close history rows", "error", err)
		}
	}()

	out := []domain.HistoryPoint{}
	for rows.Next() {
		var p domain.HistoryPoint
		var ts string
		if err := rows.Scan(&ts, &p.Temperature, &p.Humidity, &p.Pressure, &p.WindDirection, &p.WindSpeed); err != nil {
			return nil, err
		}
		if p.Timestamp, err = time.Parse(tsLayout, ts); err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Prune deletes rows older than before and returns how many were removed.
func (r *Recorder) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, pruneReadingsSQL, formatTS(before))
	if err != nil {
		return 0, fmt.Errorf("prune readings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.metrics.HistoryRowsPruned.Add(float64(n))
		r.logger.Debug("history pruned", "rows", n, "before", before)
	}
	return n, nil
}

// Close closes the underlying database.
func (r *Recorder) Close() error {
	return r.db.Close()
}
