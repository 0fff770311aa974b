package model

import "time"

// EventKind names a lifecycle event written to the journal.
type EventKind string

const (
	EventAlertCreated  EventKind = "alert_created"
	EventAlertResolved EventKind = "alert_resolved"
	EventAlertsCleared EventKind = "alerts_cleared"
	EventSirenCommand  EventKind = "siren_command"
	EventModeChanged   EventKind = "mode_changed"
	EventSchoolUpdated EventKind = "school_updated"
	EventLoginSuccess  EventKind = "login_success"
	EventLoginFailure  EventKind = "login_failure"
	EventLoginLocked   EventKind = "login_locked"
)

// AlertEvent is one append-only journal row. Live state is never rebuilt
// from it.
type AlertEvent struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind       EventKind `gorm:"size:32;not null;index" json:"kind"`
	AlertID    string    `gorm:"size:64;index" json:"alertId,omitempty"`
	Teacher    string    `gorm:"size:256" json:"teacher,omitempty"`
	Room       string    `gorm:"size:128" json:"room,omitempty"`
	ClientIP   string    `gorm:"size:64" json:"clientIp,omitempty"`
	Detail     string    `gorm:"size:1024" json:"detail,omitempty"`
	OccurredAt time.Time `gorm:"not null;index" json:"occurredAt"`
}
