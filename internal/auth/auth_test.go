package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCredentials_Verify(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("PS24@central"), bcrypt.MinCost)
	require.NoError(t, err)

	creds, err := NewCredentials("central", "", string(hash))
	require.NoError(t, err)

	assert.True(t, creds.Verify("central", "PS24@central"))
	assert.False(t, creds.Verify("central", "wrong"))
	assert.False(t, creds.Verify("other", "PS24@central"))
	assert.Equal(t, "central", creds.Username())
}

func TestCredentials_HashesPlainPassword(t *testing.T) {
	creds, err := NewCredentials("central", "secret", "")
	require.NoError(t, err)
	assert.True(t, creds.Verify("central", "secret"))
}

func TestCredentials_Errors(t *testing.T) {
	_, err := NewCredentials("", "secret", "")
	assert.Error(t, err)

	_, err = NewCredentials("central", "", "")
	assert.Error(t, err)

	_, err = NewCredentials("central", "", "not-a-bcrypt-hash")
	assert.Error(t, err)
}

func TestNilCredentialsRejectEverything(t *testing.T) {
	var creds *Credentials
	assert.False(t, creds.Verify("", ""))
}

type sessionHarness struct {
	t       *testing.T
	manager *SessionManager
	now     time.Time
	cookies []*http.Cookie
}

func newSessionHarness(t *testing.T) *sessionHarness {
	m, err := NewSessionManager([]byte("0123456789abcdef0123456789abcdef"), 15*time.Minute, false)
	require.NoError(t, err)
	h := &sessionHarness{t: t, manager: m, now: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)}
	m.SetClock(func() time.Time { return h.now })
	return h
}

func (h *sessionHarness) request() *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/central", nil)
	for _, c := range h.cookies {
		req.AddCookie(c)
	}
	return req
}

func (h *sessionHarness) keep(w *httptest.ResponseRecorder) {
	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		h.cookies = cookies
	}
}

func (h *sessionHarness) login() {
	w := httptest.NewRecorder()
	require.NoError(h.t, h.manager.Login(w, h.request(), "central"))
	h.keep(w)
}

func (h *sessionHarness) touch() SessionStatus {
	w := httptest.NewRecorder()
	status, err := h.manager.Touch(w, h.request())
	require.NoError(h.t, err)
	h.keep(w)
	return status
}

func TestSessionManager_AnonymousWithoutLogin(t *testing.T) {
	h := newSessionHarness(t)
	assert.Equal(t, SessionAnonymous, h.touch())
}

func TestSessionManager_SlidingExpiry(t *testing.T) {
	h := newSessionHarness(t)
	h.login()

	// Three requests 10 minutes apart: each refreshes the window.
	for i := 0; i < 3; i++ {
		h.now = h.now.Add(10 * time.Minute)
		assert.Equal(t, SessionActive, h.touch(), "request %d", i)
	}

	h.now = h.now.Add(15*time.Minute + time.Second)
	assert.Equal(t, SessionExpired, h.touch())
	assert.Equal(t, SessionAnonymous, h.touch(), "expired session is destroyed")
}

func TestSessionManager_Logout(t *testing.T) {
	h := newSessionHarness(t)
	h.login()
	require.Equal(t, SessionActive, h.touch())

	w := httptest.NewRecorder()
	require.NoError(t, h.manager.Logout(w, h.request()))
	h.keep(w)

	assert.Equal(t, SessionAnonymous, h.touch())
}

func TestSessionManager_ForeignCookieIsAnonymous(t *testing.T) {
	h := newSessionHarness(t)
	h.cookies = []*http.Cookie{{Name: SessionName, Value: "garbage"}}
	assert.Equal(t, SessionAnonymous, h.touch())
}

func TestSessionManager_GeneratesSecret(t *testing.T) {
	m, err := NewSessionManager(nil, time.Minute, true)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, m.Idle())
}
