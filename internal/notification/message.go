package notification

import (
	"fmt"
	"strings"

	"profsafe-backend/internal/store"
)

// Message is the outbound text of one raised alert.
type Message struct {
	AlertID     string
	Teacher     string
	Room        string
	Description string
	Timestamp   string
}

// MessageFromAlert builds a Message from a stored record.
func MessageFromAlert(a store.AlertRecord) Message {
	return Message{
		AlertID:     a.ID,
		Teacher:     a.Teacher,
		Room:        a.Room,
		Description: a.Description,
		Timestamp:   a.Timestamp,
	}
}

// Text renders the notification body shared by every channel.
func (m Message) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ALERTA: %s — %s — %s", m.Teacher, m.Room, m.Timestamp)
	if d := strings.TrimSpace(m.Description); d != "" {
		fmt.Fprintf(&b, "\n%s", d)
	}
	return b.String()
}

// Result is the outcome of one channel delivery.
type Result struct {
	Channel string `json:"channel"`
	OK      bool   `json:"ok"`
	Reason  string `json:"reason,omitempty"`
}
