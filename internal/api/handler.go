package api

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"profsafe-backend/internal/auth"
	"profsafe-backend/internal/journal"
	"profsafe-backend/internal/model"
	"profsafe-backend/internal/mw"
	"profsafe-backend/internal/notification"
	"profsafe-backend/internal/store"
	"profsafe-backend/internal/throttle"
)

const defaultJournalTimeout = 3 * time.Second

//go:embed templates/*.html
var templateFS embed.FS

func pageTemplates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

// Dispatcher queues outbound alert notifications.
type Dispatcher interface {
	Dispatch(msg notification.Message) bool
}

type discardDispatcher struct{}

func (discardDispatcher) Dispatch(notification.Message) bool { return false }

// Options carries the dependencies of the HTTP layer.
type Options struct {
	Store           store.Store
	Throttle        *throttle.LoginThrottle
	Credentials     *auth.Credentials
	Sessions        *auth.SessionManager
	AuthEnabled     bool
	Journal         journal.Journal
	Notifier        Dispatcher
	DB              *gorm.DB
	WebPush         *webpush.Options
	Location        *time.Location
	TimestampLayout string
	CacheTTL        time.Duration
	JournalTimeout  time.Duration
	Now             func() time.Time
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store        store.Store
	throttle     *throttle.LoginThrottle
	creds        *auth.Credentials
	sessions     *auth.SessionManager
	authEnabled  bool
	journal      journal.Journal
	notifier     Dispatcher
	db           *gorm.DB
	webpush      *webpush.Options
	loc          *time.Location
	layout       string
	cacheTTL     time.Duration
	responses    *cache.Cache
	reports      *cache.Cache
	limiter      *mw.IPRateLimiter
	alertLimiter *mw.IPRateLimiter
	journalWait  time.Duration
	now          func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(opts Options) *Handler {
	h := &Handler{
		store:       opts.Store,
		throttle:    opts.Throttle,
		creds:       opts.Credentials,
		sessions:    opts.Sessions,
		authEnabled: opts.AuthEnabled,
		journal:     opts.Journal,
		notifier:    opts.Notifier,
		db:          opts.DB,
		webpush:     opts.WebPush,
		loc:         opts.Location,
		layout:      opts.TimestampLayout,
		cacheTTL:    opts.CacheTTL,
		journalWait: opts.JournalTimeout,
		now:         opts.Now,
	}
	if h.store == nil {
		h.store = store.New()
	}
	if h.throttle == nil {
		h.throttle = throttle.New()
	}
	if h.journal == nil {
		h.journal = journal.Discard{}
	}
	if h.notifier == nil {
		h.notifier = discardDispatcher{}
	}
	if h.loc == nil {
		h.loc = time.Local
	}
	if h.cacheTTL <= 0 {
		h.cacheTTL = 5 * time.Second
	}
	if h.journalWait <= 0 {
		h.journalWait = defaultJournalTimeout
	}
	if h.now == nil {
		h.now = time.Now
	}
	h.responses = cache.New(h.cacheTTL, 2*h.cacheTTL)
	h.reports = cache.New(10*time.Minute, 20*time.Minute)
	return h
}

// record appends a journal event. Failures are logged and never change the
// response; a slow database gives up after the journal timeout.
func (h *Handler) record(c *gin.Context, event model.AlertEvent) {
	event.ClientIP = c.ClientIP()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.journalWait)
	defer cancel()
	if err := h.journal.Record(ctx, event); err != nil {
		log.Printf("journal: %v", err)
	}
}

// PruneClients forgets rate limiter state of clients idle for maxIdle.
func (h *Handler) PruneClients(maxIdle time.Duration) int {
	removed := 0
	for _, l := range []*mw.IPRateLimiter{h.limiter, h.alertLimiter} {
		if l != nil {
			removed += l.Cleanup(maxIdle)
		}
	}
	return removed
}

// revisionKey ties a cached GET to the store revision, so any mutation
// misses the old entry.
func (h *Handler) revisionKey(c *gin.Context) string {
	return fmt.Sprintf("%s@%d", c.Request.RequestURI, h.store.Revision())
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
}

// Health answers the plain text liveness check.
func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "API OK - PROF_SAFE24 rodando.")
}
