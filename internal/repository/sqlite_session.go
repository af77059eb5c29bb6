package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tguerin/timekeep/internal/db"
	"github.com/tguerin/timekeep/internal/domain"
)

const sessionColumns = `id, task_key, task_title, task_type, activity_id, activity_name, activity_value,
	start_time, end_time, duration_seconds, comment, status, export_ref, created_at, updated_at`

// SQLiteSessionRepo implements SessionRepo using a SQLite database.
type SQLiteSessionRepo struct {
	db db.DBTX
}

// NewSQLiteSessionRepo creates a new SQLiteSessionRepo.
func NewSQLiteSessionRepo(conn db.DBTX) *SQLiteSessionRepo {
	return &SQLiteSessionRepo{db: conn}
}

func (r *SQLiteSessionRepo) Create(ctx context.Context, s *domain.WorkSession) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	if s.Status == "" {
		s.Status = domain.SessionDraft
	}

	query := `INSERT INTO work_sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.TaskKey,
		s.TaskTitle,
		s.TaskType,
		nullableIntToValue(s.ActivityID),
		s.ActivityName,
		s.ActivityValue,
		s.StartTime.UTC().Format(time.RFC3339),
		nullableTimeToString(s.EndTime, time.RFC3339),
		s.DurationSeconds,
		s.Comment,
		string(s.Status),
		nullableStringToValue(s.ExportRef),
		s.CreatedAt.Format(time.RFC3339),
		s.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting work session: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepo) GetByID(ctx context.Context, id string) (*domain.WorkSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM work_sessions WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	s, err := r.scanSession(row)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetActive returns the open session (end_time IS NULL), or nil when the
// timer is idle.
func (r *SQLiteSessionRepo) GetActive(ctx context.Context) (*domain.WorkSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM work_sessions
		WHERE end_time IS NULL ORDER BY start_time DESC LIMIT 1`
	row := r.db.QueryRowContext(ctx, query)
	s, err := r.scanSession(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (r *SQLiteSessionRepo) ListByDate(ctx context.Context, date string) ([]*domain.WorkSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM work_sessions
		WHERE date(start_time) = ? ORDER BY start_time`
	rows, err := r.db.QueryContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("listing sessions by date: %w", err)
	}
	defer rows.Close()
	return r.scanSessions(rows)
}

func (r *SQLiteSessionRepo) ListByRange(ctx context.Context, from, to string) ([]*domain.WorkSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM work_sessions
		WHERE date(start_time) BETWEEN ? AND ? ORDER BY start_time`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing sessions by range: %w", err)
	}
	defer rows.Close()
	return r.scanSessions(rows)
}

func (r *SQLiteSessionRepo) Update(ctx context.Context, s *domain.WorkSession) error {
	query := `UPDATE work_sessions SET
		task_key = ?, task_title = ?, task_type = ?,
		activity_id = ?, activity_name = ?, activity_value = ?,
		start_time = ?, end_time = ?, duration_seconds = ?,
		comment = ?, status = ?, export_ref = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		s.TaskKey,
		s.TaskTitle,
		s.TaskType,
		nullableIntToValue(s.ActivityID),
		s.ActivityName,
		s.ActivityValue,
		s.StartTime.UTC().Format(time.RFC3339),
		nullableTimeToString(s.EndTime, time.RFC3339),
		s.DurationSeconds,
		s.Comment,
		string(s.Status),
		nullableStringToValue(s.ExportRef),
		nowUTC(),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("updating work session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("work session %s: %w", s.ID, ErrNotFound)
	}
	return nil
}

// UpdateDuration persists a checkpoint of an open session's elapsed time.
func (r *SQLiteSessionRepo) UpdateDuration(ctx context.Context, id string, seconds int) error {
	query := `UPDATE work_sessions SET duration_seconds = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, seconds, nowUTC(), id)
	if err != nil {
		return fmt.Errorf("checkpointing session duration: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("work session %s: %w", id, ErrNotFound)
	}
	return nil
}

// Close terminates a session, setting its end time and final duration.
func (r *SQLiteSessionRepo) Close(ctx context.Context, id string, endTime time.Time, seconds int) error {
	query := `UPDATE work_sessions SET end_time = ?, duration_seconds = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		endTime.UTC().Format(time.RFC3339), seconds, nowUTC(), id,
	)
	if err != nil {
		return fmt.Errorf("closing work session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("work session %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteSessionRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM work_sessions WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting work session: %w", err)
	}
	return nil
}

// scanSession scans a single session from a *sql.Row.
func (r *SQLiteSessionRepo) scanSession(row *sql.Row) (*domain.WorkSession, error) {
	var s domain.WorkSession
	var activityID sql.NullInt64
	var startStr, createdStr, updatedStr string
	var endStr, exportRef sql.NullString
	var status string

	err := row.Scan(
		&s.ID, &s.TaskKey, &s.TaskTitle, &s.TaskType,
		&activityID, &s.ActivityName, &s.ActivityValue,
		&startStr, &endStr, &s.DurationSeconds,
		&s.Comment, &status, &exportRef, &createdStr, &updatedStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("work session: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning work session: %w", err)
	}

	return r.populateSession(&s, activityID, startStr, endStr, exportRef, status, createdStr, updatedStr)
}

// scanSessions scans multiple sessions from *sql.Rows.
func (r *SQLiteSessionRepo) scanSessions(rows *sql.Rows) ([]*domain.WorkSession, error) {
	var sessions []*domain.WorkSession
	for rows.Next() {
		var s domain.WorkSession
		var activityID sql.NullInt64
		var startStr, createdStr, updatedStr string
		var endStr, exportRef sql.NullString
		var status string

		err := rows.Scan(
			&s.ID, &s.TaskKey, &s.TaskTitle, &s.TaskType,
			&activityID, &s.ActivityName, &s.ActivityValue,
			&startStr, &endStr, &s.DurationSeconds,
			&s.Comment, &status, &exportRef, &createdStr, &updatedStr,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}

		session, popErr := r.populateSession(&s, activityID, startStr, endStr, exportRef, status, createdStr, updatedStr)
		if popErr != nil {
			return nil, popErr
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

// populateSession fills in parsed fields after scanning raw values.
func (r *SQLiteSessionRepo) populateSession(
	s *domain.WorkSession,
	activityID sql.NullInt64,
	startStr string,
	endStr, exportRef sql.NullString,
	status, createdStr, updatedStr string,
) (*domain.WorkSession, error) {
	if activityID.Valid {
		v := int(activityID.Int64)
		s.ActivityID = &v
	}
	if exportRef.Valid {
		v := exportRef.String
		s.ExportRef = &v
	}
	s.Status = domain.SessionStatus(status)
	s.EndTime = parseNullableTime(endStr, time.RFC3339)

	var parseErr error
	s.StartTime, parseErr = time.Parse(time.RFC3339, startStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing start_time: %w", parseErr)
	}
	s.CreatedAt, parseErr = time.Parse(time.RFC3339, createdStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	s.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return s, nil
}
