package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/huangsam/sensorlabel/internal/contract"
	"github.com/huangsam/sensorlabel/schema"
)

// Table names for run tracking.
const (
	runsTable   = "sensorlabel_runs"
	slicesTable = "sensorlabel_run_slices"
)

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore opens the backend and creates the run tables when missing.
// NoneBackend yields a store that records nothing.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	if backend == schema.NoneBackend {
		return &RunStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, contract.GetRunDBFilePath())
	if err != nil {
		return nil, err
	}
	if err := createRunTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run tables: %w", err)
	}
	return &RunStoreImpl{db: db, backend: backend}, nil
}

// createRunTables creates the run tracking tables.
func createRunTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{slicesTable, getCreateSlicesQuery(backend)},
	}
	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for sensorlabel_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_uuid CHAR(36) NOT NULL,
				operation VARCHAR(32) NOT NULL,
				input_file VARCHAR(1024) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				rows_in INT NOT NULL DEFAULT 0,
				rows_out INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				run_uuid TEXT NOT NULL,
				operation TEXT NOT NULL,
				input_file TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				rows_in INT NOT NULL DEFAULT 0,
				rows_out INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_uuid TEXT NOT NULL,
				operation TEXT NOT NULL,
				input_file TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				rows_in INTEGER NOT NULL DEFAULT 0,
				rows_out INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateSlicesQuery returns the CREATE TABLE query for sensorlabel_run_slices.
func getCreateSlicesQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(slicesTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				slice_index INT NOT NULL,
				label VARCHAR(255) NOT NULL,
				slice_start DATETIME(6) NOT NULL,
				duration_ms BIGINT NOT NULL,
				row_count INT NOT NULL,
				subject VARCHAR(255),
				location VARCHAR(255),
				PRIMARY KEY (run_id, slice_index)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				slice_index INT NOT NULL,
				label TEXT NOT NULL,
				slice_start TIMESTAMPTZ NOT NULL,
				duration_ms BIGINT NOT NULL,
				row_count INT NOT NULL,
				subject TEXT,
				location TEXT,
				PRIMARY KEY (run_id, slice_index)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				slice_index INTEGER NOT NULL,
				label TEXT NOT NULL,
				slice_start TEXT NOT NULL,
				duration_ms INTEGER NOT NULL,
				row_count INTEGER NOT NULL,
				subject TEXT,
				location TEXT,
				PRIMARY KEY (run_id, slice_index)
			);
		`, quotedTableName)
	}
}

// BeginRun creates a new run and returns its ID.
func (rs *RunStoreImpl) BeginRun(op schema.OperationKind, inputFile string, startTime time.Time, configParams map[string]any) (int64, error) {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)
	args := []any{uuid.NewString(), string(op), inputFile, formatTime(startTime, rs.backend), string(configJSON)}

	var runID int64
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, operation, input_file, start_time, config_params) VALUES ($1, $2, $3, $4, $5) RETURNING run_id`, quotedTableName)
		err = rs.db.QueryRow(query, args...).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, operation, input_file, start_time, config_params) VALUES (?, ?, ?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = rs.db.Exec(query, args...)
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun stores the end time, duration and row counts of a run.
func (rs *RunStoreImpl) EndRun(runID int64, endTime time.Time, rowsIn, rowsOut int) error {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quotedTableName, placeholder(rs.backend, 1))
	startTime, err := rs.scanTime(rs.db.QueryRow(query, runID))
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}

	durationMs := endTime.Sub(startTime).Milliseconds()
	update := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, rows_in = %s, rows_out = %s WHERE run_id = %s`,
		quotedTableName,
		placeholder(rs.backend, 1), placeholder(rs.backend, 2), placeholder(rs.backend, 3),
		placeholder(rs.backend, 4), placeholder(rs.backend, 5))
	if _, err := rs.db.Exec(update, formatTime(endTime, rs.backend), durationMs, rowsIn, rowsOut, runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordSlices stores the labelled slices of a run in one transaction.
func (rs *RunStoreImpl) RecordSlices(runID int64, slices []schema.SliceRecord) error {
	if rs.backend == schema.NoneBackend || rs.db == nil || len(slices) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (run_id, slice_index, label, slice_start, duration_ms, row_count, subject, location) VALUES (%s)`,
		quoteTableName(slicesTable, rs.backend), placeholders(rs.backend, 8))

	tx, err := rs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(query)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare slice insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, s := range slices {
		if _, err := stmt.Exec(runID, s.SliceIndex, s.Label, formatTime(s.SliceStart, rs.backend), s.DurationMs, s.RowCount, s.Subject, s.Location); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert slice %d: %w", s.SliceIndex, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit slices: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns run counts, the run time range and table sizes.
func (rs *RunStoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return status, nil
	}

	quotedRuns := quoteTableName(runsTable, rs.backend)
	if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedRuns)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		row := rs.db.QueryRow(fmt.Sprintf("SELECT run_id FROM %s ORDER BY run_id DESC LIMIT 1", quotedRuns))
		if err := row.Scan(&status.LastRunID); err != nil {
			return status, fmt.Errorf("failed to get last run id: %w", err)
		}
		var err error
		status.LastRunTime, err = rs.scanTime(rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id DESC LIMIT 1", quotedRuns)))
		if err != nil {
			return status, fmt.Errorf("failed to get last run time: %w", err)
		}
		status.OldestRunTime, err = rs.scanTime(rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quotedRuns)))
		if err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		row = rs.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(rows_out), 0) FROM %s", quotedRuns))
		if err := row.Scan(&status.TotalRowsWritten); err != nil {
			return status, fmt.Errorf("failed to get total rows written: %w", err)
		}
	}

	for _, table := range []string{runsTable, slicesTable} {
		var count int64
		row := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, rs.backend)))
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllRuns retrieves every run ordered by ID.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, run_uuid, operation, input_file, start_time, end_time,
		run_duration_ms, rows_in, rows_out, config_params FROM %s ORDER BY run_id`, quoteTableName(runsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		switch rs.backend {
		case schema.SQLiteBackend:
			var startStr string
			var endStr *string
			if err := rows.Scan(&record.RunID, &record.RunUUID, &record.Operation, &record.InputFile, &startStr, &endStr,
				&record.RunDurationMs, &record.RowsIn, &record.RowsOut, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
			if record.StartTime, err = time.Parse(time.RFC3339Nano, startStr); err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			if endStr != nil {
				end, err := time.Parse(time.RFC3339Nano, *endStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				record.EndTime = &end
			}
		default: // MySQL and PostgreSQL
			if err := rows.Scan(&record.RunID, &record.RunUUID, &record.Operation, &record.InputFile, &record.StartTime, &record.EndTime,
				&record.RunDurationMs, &record.RowsIn, &record.RowsOut, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllSlices retrieves every recorded slice ordered by run and index.
func (rs *RunStoreImpl) GetAllSlices() ([]schema.SliceRecord, error) {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, slice_index, label, slice_start, duration_ms, row_count, subject, location
		FROM %s ORDER BY run_id, slice_index`, quoteTableName(slicesTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query slices: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.SliceRecord
	for rows.Next() {
		var record schema.SliceRecord
		switch rs.backend {
		case schema.SQLiteBackend:
			var startStr string
			if err := rows.Scan(&record.RunID, &record.SliceIndex, &record.Label, &startStr, &record.DurationMs,
				&record.RowCount, &record.Subject, &record.Location); err != nil {
				return nil, fmt.Errorf("failed to scan slice: %w", err)
			}
			if record.SliceStart, err = time.Parse(time.RFC3339Nano, startStr); err != nil {
				return nil, fmt.Errorf("failed to parse slice_start: %w", err)
			}
		default: // MySQL and PostgreSQL
			if err := rows.Scan(&record.RunID, &record.SliceIndex, &record.Label, &record.SliceStart, &record.DurationMs,
				&record.RowCount, &record.Subject, &record.Location); err != nil {
				return nil, fmt.Errorf("failed to scan slice: %w", err)
			}
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating slices: %w", err)
	}
	return results, nil
}

// scanTime reads a single time column, which SQLite stores as RFC 3339 text.
func (rs *RunStoreImpl) scanTime(row *sql.Row) (time.Time, error) {
	if rs.backend == schema.SQLiteBackend {
		var s string
		if err := row.Scan(&s); err != nil {
			return time.Time{}, err
		}
		return time.Parse(time.RFC3339Nano, s)
	}
	var t time.Time
	err := row.Scan(&t)
	return t, err
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	if backend == schema.SQLiteBackend {
		return t.Format(time.RFC3339Nano)
	}
	return t
}
