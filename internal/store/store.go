package store

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store defines the alert lifecycle operations the HTTP layer depends on.
type Store interface {
	Create(input AlertInput) (AlertRecord, error)
	List() []AlertRecord
	Status() Status
	ResolveNext() (AlertRecord, bool)
	Resolve(id string) (AlertRecord, bool, error)
	Clear()
	SetSiren(action string) (SirenState, error)
	Siren() SirenState
	SetMode(mode string) (SirenMode, error)
	Mode() SirenMode
	School() School
	SetSchool(s School) School
	Revision() uint64
}

// MemoryStore is the process-local alert collection. Records are kept
// newest-first. Every method is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	alerts   []AlertRecord
	siren    SirenState
	mode     SirenMode
	school   School
	revision uint64

	loc    *time.Location
	layout string
	now    func() time.Time
	newID  func() string
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithLocation sets the zone used for display timestamps.
func WithLocation(loc *time.Location) Option {
	return func(s *MemoryStore) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithTimestampLayout sets the display timestamp layout.
func WithTimestampLayout(layout string) Option {
	return func(s *MemoryStore) {
		if layout != "" {
			s.layout = layout
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the uuid generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *MemoryStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithSchool seeds the school metadata.
func WithSchool(school School) Option {
	return func(s *MemoryStore) {
		s.school = trimSchool(school)
	}
}

// New creates an empty store with the siren off.
func New(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		mode:   ModeSoundVisual,
		loc:    time.Local,
		layout: "2006-01-02 15:04:05",
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the input, prepends a fresh unresolved record and raises
// the siren. Empty room or description leaves the store untouched.
func (s *MemoryStore) Create(input AlertInput) (AlertRecord, error) {
	room := strings.TrimSpace(input.Room)
	if room == "" {
		return AlertRecord{}, &ValidationError{Field: "room", Message: "is required"}
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return AlertRecord{}, &ValidationError{Field: "description", Message: "is required"}
	}

	now := s.now()
	record := AlertRecord{
		ID:          s.newID(),
		Teacher:     orDefault(input.Teacher, DefaultTeacher),
		Room:        room,
		Description: description,
		Type:        orDefault(input.Type, DefaultType),
		Urgency:     orDefault(input.Urgency, DefaultUrgency),
		Timestamp:   now.In(s.loc).Format(s.layout),
		CreatedAt:   now.UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append([]AlertRecord{record}, s.alerts...)
	s.siren = SirenState{Active: true, Muted: false}
	s.revision++
	return record, nil
}

// List returns a copy of the records in store order.
func (s *MemoryStore) List() []AlertRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// Status returns alerts and flags read under a single lock.
func (s *MemoryStore) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Alerts: s.snapshot(),
		Siren:  s.siren.Active,
		Muted:  s.siren.Muted,
		Mode:   s.mode,
	}
}

// ResolveNext resolves the oldest unresolved alert (first raised, first
// handled) and reports whether anything changed.
func (s *MemoryStore) ResolveNext() (AlertRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.alerts) - 1; i >= 0; i-- {
		if !s.alerts[i].Resolved {
			s.markResolved(i)
			return s.alerts[i], true
		}
	}
	return AlertRecord{}, false
}

// Resolve resolves the alert with the given id. An already resolved alert
// reports false without error.
func (s *MemoryStore) Resolve(id string) (AlertRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.alerts {
		if s.alerts[i].ID != id {
			continue
		}
		if s.alerts[i].Resolved {
			return s.alerts[i], false, nil
		}
		s.markResolved(i)
		return s.alerts[i], true, nil
	}
	return AlertRecord{}, false, ErrAlertNotFound
}

// Clear drops every alert and silences the siren.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = nil
	s.siren = SirenState{}
	s.revision++
}

// SetSiren applies one of on, off, mute or unmute.
func (s *MemoryStore) SetSiren(action string) (SirenState, error) {
	act := SirenAction(strings.ToLower(strings.TrimSpace(action)))

	s.mu.Lock()
	defer s.mu.Unlock()

	switch act {
	case SirenOn:
		s.siren = SirenState{Active: true, Muted: false}
	case SirenOff:
		s.siren.Active = false
	case SirenMute:
		s.siren.Muted = true
	case SirenUnmute:
		s.siren.Muted = false
	default:
		return s.siren, &ValidationError{Field: "action", Message: "must be one of on, off, mute, unmute"}
	}
	s.revision++
	return s.siren, nil
}

// Siren returns the current flags.
func (s *MemoryStore) Siren() SirenState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.siren
}

// SetMode switches between sound_visual and visual signalling.
func (s *MemoryStore) SetMode(mode string) (SirenMode, error) {
	m := SirenMode(strings.ToLower(strings.TrimSpace(mode)))
	if m != ModeSoundVisual && m != ModeVisual {
		return s.Mode(), &ValidationError{Field: "mode", Message: "must be sound_visual or visual"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
	s.revision++
	return m, nil
}

// Mode returns the current siren mode.
func (s *MemoryStore) Mode() SirenMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// School returns the school metadata.
func (s *MemoryStore) School() School {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.school
}

// SetSchool replaces the school metadata.
func (s *MemoryStore) SetSchool(school School) School {
	school = trimSchool(school)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.school = school
	s.revision++
	return school
}

// Revision increases on every mutation.
func (s *MemoryStore) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// markResolved must be called with mu held.
func (s *MemoryStore) markResolved(i int) {
	at := s.now().UTC()
	s.alerts[i].Resolved = true
	s.alerts[i].ResolvedAt = &at
	s.siren.Active = s.hasUnresolved()
	s.revision++
}

func (s *MemoryStore) hasUnresolved() bool {
	for _, a := range s.alerts {
		if !a.Resolved {
			return true
		}
	}
	return false
}

func (s *MemoryStore) snapshot() []AlertRecord {
	out := make([]AlertRecord, len(s.alerts))
	copy(out, s.alerts)
	return out
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

func trimSchool(s School) School {
	return School{
		Name:    strings.TrimSpace(s.Name),
		CNPJ:    strings.TrimSpace(s.CNPJ),
		Address: strings.TrimSpace(s.Address),
		Phone:   strings.TrimSpace(s.Phone),
	}
}
