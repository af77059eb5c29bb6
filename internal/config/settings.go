// Package config exposes the store-backed settings the engines consume,
// with typed accessors and defaults matching the seeded configuration rows.
package config

import (
	"context"
	"strconv"
	"time"

	"github.com/tguerin/timekeep/internal/repository"
)

// Configuration keys.
const (
	KeyMaxDailyHours        = "max_daily_hours"
	KeyNotificationInterval = "notification_interval"
	KeyIdleAlertEnabled     = "idle_alert_enabled"
	KeyIdleAlertInterval    = "idle_alert_interval_minutes"
	KeyIdleAlertStartHour   = "idle_alert_start_hour"
	KeyIdleAlertEndHour     = "idle_alert_end_hour"
)

// Defaults used when a key is missing or unparseable.
const (
	DefaultMaxDailyHours           = 7.5
	DefaultNotificationIntervalMin = 60
	DefaultIdleAlertIntervalMin    = 15
	DefaultIdleAlertStartHour      = 8
	DefaultIdleAlertEndHour        = 18
)

// Settings reads and writes typed configuration values. Every getter falls
// back to its default when the key is absent or malformed, so a missing
// configuration row never blocks the engines.
type Settings struct {
	repo repository.ConfigRepo
}

func NewSettings(repo repository.ConfigRepo) *Settings {
	return &Settings{repo: repo}
}

func (s *Settings) MaxDailyHours(ctx context.Context) float64 {
	return s.floatOr(ctx, KeyMaxDailyHours, DefaultMaxDailyHours)
}

// MaxDailyMinutes returns the daily cap in minutes (hours * 60).
func (s *Settings) MaxDailyMinutes(ctx context.Context) float64 {
	return s.MaxDailyHours(ctx) * 60
}

func (s *Settings) NotificationInterval(ctx context.Context) time.Duration {
	return time.Duration(s.intOr(ctx, KeyNotificationInterval, DefaultNotificationIntervalMin)) * time.Minute
}

func (s *Settings) IdleAlertEnabled(ctx context.Context) bool {
	v, err := s.repo.Get(ctx, KeyIdleAlertEnabled)
	if err != nil {
		return true
	}
	return v != "false"
}

func (s *Settings) IdleAlertInterval(ctx context.Context) time.Duration {
	return time.Duration(s.intOr(ctx, KeyIdleAlertInterval, DefaultIdleAlertIntervalMin)) * time.Minute
}

func (s *Settings) IdleAlertHours(ctx context.Context) (startHour, endHour int) {
	return s.intOr(ctx, KeyIdleAlertStartHour, DefaultIdleAlertStartHour),
		s.intOr(ctx, KeyIdleAlertEndHour, DefaultIdleAlertEndHour)
}

func (s *Settings) Set(ctx context.Context, key, value string) error {
	return s.repo.Set(ctx, key, value)
}

func (s *Settings) Get(ctx context.Context, key string) (string, error) {
	return s.repo.Get(ctx, key)
}

func (s *Settings) intOr(ctx context.Context, key string, fallback int) int {
	v, err := s.repo.Get(ctx, key)
	if err != nil {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func (s *Settings) floatOr(ctx context.Context, key string, fallback float64) float64 {
	v, err := s.repo.Get(ctx, key)
	if err != nil {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
