package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tguerin/timekeep/internal/db"
	"github.com/tguerin/timekeep/internal/domain"
)

// SQLiteSummaryRepo implements SummaryRepo using a SQLite database.
type SQLiteSummaryRepo struct {
	db db.DBTX
}

// NewSQLiteSummaryRepo creates a new SQLiteSummaryRepo.
func NewSQLiteSummaryRepo(conn db.DBTX) *SQLiteSummaryRepo {
	return &SQLiteSummaryRepo{db: conn}
}

func (r *SQLiteSummaryRepo) Upsert(ctx context.Context, s *domain.DailySummary) error {
	query := `INSERT INTO daily_summaries (date, total_minutes, adjusted_minutes, status, sent_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
		total_minutes = excluded.total_minutes,
		adjusted_minutes = excluded.adjusted_minutes,
		status = excluded.status,
		sent_at = excluded.sent_at`
	_, err := r.db.ExecContext(ctx, query,
		s.Date,
		s.TotalMinutes,
		nullableFloatToValue(s.AdjustedMinutes),
		string(s.Status),
		nullableTimeToString(s.SentAt, time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting daily summary: %w", err)
	}
	return nil
}

func (r *SQLiteSummaryRepo) GetByDate(ctx context.Context, date string) (*domain.DailySummary, error) {
	query := `SELECT date, total_minutes, adjusted_minutes, status, sent_at
		FROM daily_summaries WHERE date = ?`
	row := r.db.QueryRowContext(ctx, query, date)

	s, err := scanSummaryRow(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("daily summary %s: %w", date, ErrNotFound)
		}
		return nil, err
	}
	return s, nil
}

func (r *SQLiteSummaryRepo) ListByRange(ctx context.Context, from, to string) ([]*domain.DailySummary, error) {
	query := `SELECT date, total_minutes, adjusted_minutes, status, sent_at
		FROM daily_summaries WHERE date BETWEEN ? AND ? ORDER BY date DESC`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing summaries by range: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// ListPending returns every summary not yet sent, oldest first.
func (r *SQLiteSummaryRepo) ListPending(ctx context.Context) ([]*domain.DailySummary, error) {
	query := `SELECT date, total_minutes, adjusted_minutes, status, sent_at
		FROM daily_summaries WHERE status != 'sent' ORDER BY date`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing pending summaries: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

func (r *SQLiteSummaryRepo) Delete(ctx context.Context, date string) error {
	query := `DELETE FROM daily_summaries WHERE date = ?`
	_, err := r.db.ExecContext(ctx, query, date)
	if err != nil {
		return fmt.Errorf("deleting daily summary: %w", err)
	}
	return nil
}

func scanSummaryRow(scan func(dest ...any) error) (*domain.DailySummary, error) {
	var s domain.DailySummary
	var adjusted sql.NullFloat64
	var sentAt sql.NullString
	var status string

	if err := scan(&s.Date, &s.TotalMinutes, &adjusted, &status, &sentAt); err != nil {
		return nil, err
	}
	if adjusted.Valid {
		v := adjusted.Float64
		s.AdjustedMinutes = &v
	}
	s.Status = domain.SummaryStatus(status)
	s.SentAt = parseNullableTime(sentAt, time.RFC3339)
	return &s, nil
}

func scanSummaries(rows *sql.Rows) ([]*domain.DailySummary, error) {
	var summaries []*domain.DailySummary
	for rows.Next() {
		s, err := scanSummaryRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning summary row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating summaries: %w", err)
	}
	return summaries, nil
}
