package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetHistory handles GET /api/history.
func (h *Handler) GetHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	events, err := h.journal.Recent(c.Request.Context(), limit)
	if err != nil {
		log.Printf("history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
