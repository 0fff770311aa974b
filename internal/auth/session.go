package auth

import (
	"crypto/rand"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

// Session key constants
const (
	SessionName        = "profsafe_session"
	SessionUserKey     = "user"
	SessionAuthKey     = "authenticated"
	SessionActivityKey = "last_activity"
)

// SessionStatus is the outcome of checking a request's session.
type SessionStatus int

const (
	SessionAnonymous SessionStatus = iota
	SessionActive
	SessionExpired
)

// SessionManager issues dashboard sessions that expire after a period of
// inactivity. Each authenticated request slides the window forward.
type SessionManager struct {
	store *sessions.CookieStore
	idle  time.Duration
	now   func() time.Time
}

// NewSessionManager creates a cookie-backed session manager. An empty secret
// is replaced by a random key, which invalidates sessions on restart.
func NewSessionManager(secret []byte, idle time.Duration, secure bool) (*SessionManager, error) {
	if len(secret) == 0 {
		log.Printf("session secret not set; generating an ephemeral key")
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate session key: %w", err)
		}
	}

	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int((24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &SessionManager{store: store, idle: idle, now: time.Now}, nil
}

// SetClock overrides time.Now.
func (m *SessionManager) SetClock(now func() time.Time) {
	if now != nil {
		m.now = now
	}
}

// Idle returns the inactivity window.
func (m *SessionManager) Idle() time.Duration {
	return m.idle
}

// Login marks the request's session as authenticated for user.
func (m *SessionManager) Login(w http.ResponseWriter, r *http.Request, user string) error {
	sess, _ := m.store.Get(r, SessionName)
	sess.Values[SessionUserKey] = user
	sess.Values[SessionAuthKey] = true
	sess.Values[SessionActivityKey] = m.now().Unix()
	sess.Options.MaxAge = m.store.Options.MaxAge
	return sess.Save(r, w)
}

// Logout destroys the session cookie.
func (m *SessionManager) Logout(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, SessionName)
	sess.Values = make(map[interface{}]interface{})
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// Touch checks the session and, when it is still active, refreshes its last
// activity. An idle session is destroyed and reported as expired.
func (m *SessionManager) Touch(w http.ResponseWriter, r *http.Request) (SessionStatus, error) {
	sess, err := m.store.Get(r, SessionName)
	if err != nil {
		// undecodable cookie, e.g. signed with a previous key
		return SessionAnonymous, nil
	}

	authenticated, _ := sess.Values[SessionAuthKey].(bool)
	if !authenticated {
		return SessionAnonymous, nil
	}

	now := m.now()
	last, _ := sess.Values[SessionActivityKey].(int64)
	if now.Sub(time.Unix(last, 0)) > m.idle {
		sess.Values = make(map[interface{}]interface{})
		sess.Options.MaxAge = -1
		return SessionExpired, sess.Save(r, w)
	}

	sess.Values[SessionActivityKey] = now.Unix()
	return SessionActive, sess.Save(r, w)
}
