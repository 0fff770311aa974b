package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"profsafe-backend/internal/metrics"
	"profsafe-backend/internal/model"
	"profsafe-backend/internal/notification"
	"profsafe-backend/internal/store"
)

// CreateAlert handles POST /api/alert. The response never waits for the
// outbound notifications.
func (h *Handler) CreateAlert(c *gin.Context) {
	var input store.AlertInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request"})
		return
	}

	alert, err := h.store.Create(input)
	if err != nil {
		if store.IsValidation(err) {
			badRequest(c, err)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to create alert"})
		return
	}
	metrics.IncAlertCreated()

	h.notifier.Dispatch(notification.MessageFromAlert(alert))
	h.record(c, model.AlertEvent{
		Kind:    model.EventAlertCreated,
		AlertID: alert.ID,
		Teacher: alert.Teacher,
		Room:    alert.Room,
		Detail:  alert.Description,
	})

	c.JSON(http.StatusOK, gin.H{"ok": true, "alert": alert, "siren": h.store.Siren().Active})
}

// GetStatus handles GET /api/status.
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Status())
}

type resolveRequest struct {
	ID string `json:"id"`
}

// Resolve handles POST /api/resolve. Without an id the oldest unresolved
// alert is resolved.
func (h *Handler) Resolve(c *gin.Context) {
	var req resolveRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request"})
			return
		}
	}

	var (
		alert   store.AlertRecord
		updated bool
	)
	if req.ID == "" {
		alert, updated = h.store.ResolveNext()
	} else {
		var err error
		alert, updated, err = h.store.Resolve(req.ID)
		if errors.Is(err, store.ErrAlertNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
			return
		}
	}

	if updated {
		metrics.IncAlertResolved()
		h.record(c, model.AlertEvent{
			Kind:    model.EventAlertResolved,
			AlertID: alert.ID,
			Teacher: alert.Teacher,
			Room:    alert.Room,
		})
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "updated": updated, "siren": h.store.Siren().Active})
}

// Clear handles POST /api/clear.
func (h *Handler) Clear(c *gin.Context) {
	h.store.Clear()
	metrics.IncAlertsCleared()
	h.record(c, model.AlertEvent{Kind: model.EventAlertsCleared})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type sirenRequest struct {
	Action string `json:"action" binding:"required"`
}

// SetSiren handles POST /api/siren.
func (h *Handler) SetSiren(c *gin.Context) {
	var req sirenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "action is required"})
		return
	}

	state, err := h.store.SetSiren(req.Action)
	if err != nil {
		badRequest(c, err)
		return
	}
	action := strings.ToLower(strings.TrimSpace(req.Action))
	metrics.IncSirenCommand(action)
	h.record(c, model.AlertEvent{Kind: model.EventSirenCommand, Detail: action})

	c.JSON(http.StatusOK, gin.H{"ok": true, "siren": state.Active, "muted": state.Muted})
}

// GetSirenMode handles GET /api/siren_mode.
func (h *Handler) GetSirenMode(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"mode": h.store.Mode()})
}

type modeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// SetSirenMode handles POST /api/siren_mode.
func (h *Handler) SetSirenMode(c *gin.Context) {
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "mode is required"})
		return
	}

	mode, err := h.store.SetMode(req.Mode)
	if err != nil {
		badRequest(c, err)
		return
	}
	h.record(c, model.AlertEvent{Kind: model.EventModeChanged, Detail: string(mode)})
	c.JSON(http.StatusOK, gin.H{"mode": mode})
}

// GetSchool handles GET /api/school.
func (h *Handler) GetSchool(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.School())
}

// SetSchool handles POST /api/school.
func (h *Handler) SetSchool(c *gin.Context) {
	var req store.School
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request"})
		return
	}

	school := h.store.SetSchool(req)
	h.record(c, model.AlertEvent{Kind: model.EventSchoolUpdated, Detail: school.Name})
	c.JSON(http.StatusOK, gin.H{"ok": true, "school": school})
}
