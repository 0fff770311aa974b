package api

import (
	"fmt"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"profsafe-backend/internal/auth"
	"profsafe-backend/internal/metrics"
	"profsafe-backend/internal/model"
)

const (
	loginPath   = "/login_central"
	centralPath = "/central"

	contextUserKey = "user"

	msgBadCredentials = "Usuário ou senha inválidos."
	msgSessionExpired = "Sessão expirada. Entre novamente."
)

func lockedMessage(wait time.Duration) string {
	minutes := int(math.Ceil(wait.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("Muitas tentativas. Tente novamente em %d minuto(s).", minutes)
}

func (h *Handler) renderLogin(c *gin.Context, status int, username, message string) {
	c.HTML(status, "login_central.html", gin.H{"Error": message, "Username": username})
}

// LoginPage handles GET /login_central.
func (h *Handler) LoginPage(c *gin.Context) {
	message := ""
	if c.Query("expired") == "1" {
		message = msgSessionExpired
	}
	h.renderLogin(c, http.StatusOK, "", message)
}

// Login handles POST /login_central. Failures are counted per client IP and
// a locked client is rejected before its credentials are checked.
func (h *Handler) Login(c *gin.Context) {
	if !h.authEnabled {
		c.Redirect(http.StatusFound, centralPath)
		return
	}

	clientID := c.ClientIP()
	username := strings.TrimSpace(c.PostForm("usuario"))
	password := strings.TrimSpace(c.PostForm("senha"))

	if locked, until := h.throttle.IsLocked(clientID); locked {
		metrics.IncLogin(metrics.LoginLocked)
		h.record(c, model.AlertEvent{Kind: model.EventLoginLocked, Detail: username})
		h.renderLogin(c, http.StatusTooManyRequests, username, lockedMessage(until.Sub(h.now())))
		return
	}

	if !h.creds.Verify(username, password) {
		metrics.IncLogin(metrics.LoginFailure)
		locked, until := h.throttle.RecordFailure(clientID)
		h.record(c, model.AlertEvent{Kind: model.EventLoginFailure, Detail: username})
		if locked {
			log.Printf("login locked for %s until %s", clientID, until.Format(time.RFC3339))
			h.renderLogin(c, http.StatusTooManyRequests, username, lockedMessage(until.Sub(h.now())))
			return
		}
		h.renderLogin(c, http.StatusUnauthorized, username, msgBadCredentials)
		return
	}

	h.throttle.RecordSuccess(clientID)
	if err := h.sessions.Login(c.Writer, c.Request, username); err != nil {
		log.Printf("failed to save session: %v", err)
		h.renderLogin(c, http.StatusInternalServerError, username, "Erro ao iniciar sessão.")
		return
	}
	metrics.IncLogin(metrics.LoginSuccess)
	h.record(c, model.AlertEvent{Kind: model.EventLoginSuccess, Detail: username})
	c.Redirect(http.StatusFound, centralPath)
}

// Logout handles POST /logout_central.
func (h *Handler) Logout(c *gin.Context) {
	if h.sessions != nil {
		if err := h.sessions.Logout(c.Writer, c.Request); err != nil {
			log.Printf("failed to clear session: %v", err)
		}
	}
	c.Redirect(http.StatusFound, loginPath)
}

// Central renders the dashboard page.
func (h *Handler) Central(c *gin.Context) {
	c.HTML(http.StatusOK, "central.html", gin.H{
		"School": h.store.School(),
		"Mode":   h.store.Mode(),
		"User":   c.GetString(contextUserKey),
	})
}

// RequireSession guards dashboard routes. Each accepted request slides the
// inactivity window; an idle or missing session sends pages to the login form
// and API calls get 401.
func (h *Handler) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.authEnabled {
			c.Next()
			return
		}

		status, err := h.sessions.Touch(c.Writer, c.Request)
		if err != nil {
			log.Printf("failed to refresh session: %v", err)
		}
		if status == auth.SessionActive {
			c.Set(contextUserKey, h.creds.Username())
			c.Next()
			return
		}

		target := loginPath
		if status == auth.SessionExpired {
			target += "?expired=1"
		}
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "authentication required", "redirect": target})
			return
		}
		c.Redirect(http.StatusFound, target)
		c.Abort()
	}
}
