package store

import "time"

// AlertRecord is a single reported incident.
type AlertRecord struct {
	ID          string     `json:"id"`
	Teacher     string     `json:"teacher"`
	Room        string     `json:"room"`
	Description string     `json:"description"`
	Type        string     `json:"type"`
	Urgency     string     `json:"urgency"`
	Timestamp   string     `json:"ts"`
	CreatedAt   time.Time  `json:"createdAt"`
	Resolved    bool       `json:"resolved"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`
}

// AlertInput is the unvalidated payload of a new alert.
type AlertInput struct {
	Teacher     string `json:"teacher"`
	Room        string `json:"room"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Urgency     string `json:"urgency"`
}

// SirenAction is a command accepted by SetSiren.
type SirenAction string

const (
	SirenOn     SirenAction = "on"
	SirenOff    SirenAction = "off"
	SirenMute   SirenAction = "mute"
	SirenUnmute SirenAction = "unmute"
)

// SirenMode selects how dashboards signal an active siren.
type SirenMode string

const (
	ModeSoundVisual SirenMode = "sound_visual"
	ModeVisual      SirenMode = "visual"
)

// SirenState is the shared two-flag siren status.
type SirenState struct {
	Active bool `json:"siren"`
	Muted  bool `json:"muted"`
}

// Status is a consistent snapshot of everything a dashboard polls.
type Status struct {
	Alerts []AlertRecord `json:"alerts"`
	Siren  bool          `json:"siren"`
	Muted  bool          `json:"muted"`
	Mode   SirenMode     `json:"mode"`
}

// School is the metadata printed on reports.
type School struct {
	Name    string `json:"nome"`
	CNPJ    string `json:"cnpj"`
	Address string `json:"endereco"`
	Phone   string `json:"telefone"`
}

const (
	DefaultTeacher = "Professor(a)"
	DefaultType    = "Outra situação"
	DefaultUrgency = "Média"
)
