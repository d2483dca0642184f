package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/account-history/internal/common"
	"github.com/Veraticus/account-history/internal/model"
)

// CreateRun records the start of a history run.
func (s *SQLiteStorage) CreateRun(ctx context.Context, run *model.Run) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, source, aging_days, started_at)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.Source, run.AgingDays, run.StartedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create run: %w", classifyError(err))
	}

	return nil
}

// FinishRun stores the final statistics of a run and marks it finished.
func (s *SQLiteStorage) FinishRun(ctx context.Context, run *model.Run) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, events = ?, purchases = ?, fraud_reports = ?,
			line_count = ?, customers = ?
		WHERE id = ?
	`, run.FinishedAt.UTC(), run.Stats.Events, run.Stats.Purchases, run.Stats.FraudReports,
		run.Stats.Lines, run.Stats.Customers, run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", classifyError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run %s: %w", run.ID, common.ErrNotFound)
	}

	return nil
}

// SaveReportLines appends report lines to a run in a single transaction.
func (s *SQLiteStorage) SaveReportLines(ctx context.Context, runID string, lines []model.ReportLine) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(runID, "runID"); err != nil {
		return err
	}
	if err := validateReportLines(lines); err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classifyError(err))
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO report_lines (run_id, date, customer_id, status, detail_count)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", classifyError(err))
	}
	defer func() { _ = stmt.Close() }()

	for _, line := range lines {
		_, err := stmt.ExecContext(ctx,
			runID,
			line.Date.Format(model.DateLayout),
			line.CustomerID,
			string(line.Classification.Status),
			line.Classification.Count,
		)
		if err != nil {
			return fmt.Errorf("failed to save report line: %w", classifyError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report lines: %w", classifyError(err))
	}

	return nil
}

const runColumns = `id, source, aging_days, started_at, finished_at,
	events, purchases, fraud_reports, line_count, customers`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.Run, error) {
	var run model.Run
	var finishedAt sql.NullTime

	err := row.Scan(
		&run.ID,
		&run.Source,
		&run.AgingDays,
		&run.StartedAt,
		&finishedAt,
		&run.Stats.Events,
		&run.Stats.Purchases,
		&run.Stats.FraudReports,
		&run.Stats.Lines,
		&run.Stats.Customers,
	)
	if err != nil {
		return nil, err
	}

	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}

	return &run, nil
}

// GetRun returns a single run by ID.
func (s *SQLiteStorage) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(runID, "runID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

// ListRuns returns the most recent runs first. A non-positive limit returns all runs.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// GetReportLines returns the report lines of a run in emission order.
func (s *SQLiteStorage) GetReportLines(ctx context.Context, runID string) ([]model.ReportLine, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(runID, "runID"); err != nil {
		return nil, err
	}

	return s.queryReportLines(ctx, `
		SELECT date, customer_id, status, detail_count
		FROM report_lines
		WHERE run_id = ?
		ORDER BY id
	`, runID)
}

// GetCustomerReportLines returns every archived report line for a customer, oldest first.
func (s *SQLiteStorage) GetCustomerReportLines(ctx context.Context, customerID string) ([]model.ReportLine, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(customerID, "customerID"); err != nil {
		return nil, err
	}

	return s.queryReportLines(ctx, `
		SELECT date, customer_id, status, detail_count
		FROM report_lines
		WHERE customer_id = ?
		ORDER BY date, id
	`, customerID)
}

func (s *SQLiteStorage) queryReportLines(ctx context.Context, query string, args ...any) ([]model.ReportLine, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query report lines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var lines []model.ReportLine
	for rows.Next() {
		var (
			rawDate string
			status  string
			line    model.ReportLine
		)
		if err := rows.Scan(&rawDate, &line.CustomerID, &status, &line.Classification.Count); err != nil {
			return nil, fmt.Errorf("failed to scan report line: %w", err)
		}

		line.Date, err = time.Parse(model.DateLayout, rawDate)
		if err != nil {
			return nil, fmt.Errorf("invalid stored date %q: %w", rawDate, err)
		}
		line.Classification.Status = model.Status(status)

		lines = append(lines, line)
	}

	return lines, rows.Err()
}
