package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/tguerin/timekeep/internal/db"
	"github.com/tguerin/timekeep/internal/domain"
)

// SQLiteRecentTaskRepo implements RecentTaskRepo using a SQLite database.
type SQLiteRecentTaskRepo struct {
	db db.DBTX
}

// NewSQLiteRecentTaskRepo creates a new SQLiteRecentTaskRepo.
func NewSQLiteRecentTaskRepo(conn db.DBTX) *SQLiteRecentTaskRepo {
	return &SQLiteRecentTaskRepo{db: conn}
}

// Touch inserts the task or refreshes its title, type and last-used time.
func (r *SQLiteRecentTaskRepo) Touch(ctx context.Context, t *domain.RecentTask) error {
	if t.LastUsedAt.IsZero() {
		t.LastUsedAt = time.Now().UTC()
	}
	query := `INSERT INTO recent_tasks (task_key, task_title, task_type, last_used_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(task_key) DO UPDATE SET
		task_title = excluded.task_title,
		task_type = excluded.task_type,
		last_used_at = excluded.last_used_at`
	_, err := r.db.ExecContext(ctx, query,
		t.TaskKey, t.TaskTitle, t.TaskType, t.LastUsedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("touching recent task: %w", err)
	}
	return nil
}

func (r *SQLiteRecentTaskRepo) ListRecent(ctx context.Context, limit int) ([]*domain.RecentTask, error) {
	query := `SELECT task_key, task_title, task_type, last_used_at
		FROM recent_tasks ORDER BY last_used_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.RecentTask
	for rows.Next() {
		var t domain.RecentTask
		var lastUsed string
		if err := rows.Scan(&t.TaskKey, &t.TaskTitle, &t.TaskType, &lastUsed); err != nil {
			return nil, fmt.Errorf("scanning recent task: %w", err)
		}
		t.LastUsedAt, err = time.Parse(time.RFC3339, lastUsed)
		if err != nil {
			return nil, fmt.Errorf("parsing last_used_at: %w", err)
		}
		tasks = append(tasks, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recent tasks: %w", err)
	}
	return tasks, nil
}
