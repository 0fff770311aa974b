// Package journal keeps an append-only audit trail of alert lifecycle and
// login events.
package journal

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"profsafe-backend/internal/model"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// Journal defines the audit log operations.
type Journal interface {
	Record(ctx context.Context, event model.AlertEvent) error
	Recent(ctx context.Context, limit int) ([]model.AlertEvent, error)
}

// gormJournal implements the Journal interface using GORM.
type gormJournal struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormJournal creates a new GORM-backed journal.
func NewGormJournal(db *gorm.DB) Journal {
	return &gormJournal{db: db, now: time.Now}
}

// Record appends one event. A zero OccurredAt is stamped with the current time.
func (j *gormJournal) Record(ctx context.Context, event model.AlertEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = j.now().UTC()
	}
	if err := j.db.WithContext(ctx).Create(&event).Error; err != nil {
		return fmt.Errorf("failed to record %s event: %w", event.Kind, err)
	}
	return nil
}

// Recent returns the latest events, newest first.
func (j *gormJournal) Recent(ctx context.Context, limit int) ([]model.AlertEvent, error) {
	limit = clampLimit(limit)

	var events []model.AlertEvent
	if err := j.db.WithContext(ctx).
		Order("occurred_at DESC, id DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to load recent events: %w", err)
	}
	return events, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// Discard is a Journal that drops every event.
type Discard struct{}

func (Discard) Record(context.Context, model.AlertEvent) error { return nil }

func (Discard) Recent(context.Context, int) ([]model.AlertEvent, error) {
	return []model.AlertEvent{}, nil
}
