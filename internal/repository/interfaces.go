package repository

import (
	"context"
	"time"

	"github.com/tguerin/timekeep/internal/domain"
)

// SessionRepo stores work sessions. Create assigns an id when the session
// carries none. GetActive returns (nil, nil) when no session is open.
type SessionRepo interface {
	Create(ctx context.Context, s *domain.WorkSession) error
	GetByID(ctx context.Context, id string) (*domain.WorkSession, error)
	GetActive(ctx context.Context) (*domain.WorkSession, error)
	ListByDate(ctx context.Context, date string) ([]*domain.WorkSession, error)
	ListByRange(ctx context.Context, from, to string) ([]*domain.WorkSession, error)
	Update(ctx context.Context, s *domain.WorkSession) error
	UpdateDuration(ctx context.Context, id string, seconds int) error
	Close(ctx context.Context, id string, endTime time.Time, seconds int) error
	Delete(ctx context.Context, id string) error
}

type SummaryRepo interface {
	Upsert(ctx context.Context, s *domain.DailySummary) error
	GetByDate(ctx context.Context, date string) (*domain.DailySummary, error)
	ListByRange(ctx context.Context, from, to string) ([]*domain.DailySummary, error)
	ListPending(ctx context.Context) ([]*domain.DailySummary, error)
	Delete(ctx context.Context, date string) error
}

type ConfigRepo interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type RecentTaskRepo interface {
	Touch(ctx context.Context, t *domain.RecentTask) error
	ListRecent(ctx context.Context, limit int) ([]*domain.RecentTask, error)
}
