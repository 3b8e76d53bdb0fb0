package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	zlog "github.com/rs/zerolog/log"

	"github.com/tfu/musify/internal/app/playback"
	"github.com/tfu/musify/internal/domain/history"
	"github.com/tfu/musify/internal/infra/metrics"
)

// Handler exposes the playback operations over HTTP.
type Handler struct {
	orch     *playback.Orchestrator
	registry *metrics.Registry
}

// NewHandler creates the playback HTTP handler.
func NewHandler(orch *playback.Orchestrator, registry *metrics.Registry) *Handler {
	return &Handler{orch: orch, registry: registry}
}

type startRequest struct {
	TrackID string `json:"trackId" binding:"required"`
}

// Start begins playback of a track.
// POST /api/playback/start
func (h *Handler) Start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "trackId is required"})
		return
	}

	view, err := h.orch.Start(c.Request.Context(), c.GetString(userIDKey), req.TrackID)
	if err != nil {
		zlog.Error().Msgf("start failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start playback"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// Pause pauses the current playback.
// POST /api/playback/pause
func (h *Handler) Pause(c *gin.Context) {
	if !h.orch.Pause(c.Request.Context(), c.GetString(userIDKey)) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Resume unpauses the current playback.
// POST /api/playback/resume
func (h *Handler) Resume(c *gin.Context) {
	view, err := h.orch.Resume(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		zlog.Error().Msgf("resume failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resume playback"})
		return
	}
	if view == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no paused session"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// Next advances to the next track.
// POST /api/playback/next
func (h *Handler) Next(c *gin.Context) {
	view, err := h.orch.Next(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		zlog.Error().Msgf("next failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to advance playback"})
		return
	}
	if view == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no next track available"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// Previous returns to the most recently played track.
// POST /api/playback/previous
func (h *Handler) Previous(c *gin.Context) {
	view, err := h.orch.Previous(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		zlog.Error().Msgf("previous failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rewind playback"})
		return
	}
	if view == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no previous track recorded"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// Stop ends the current session.
// POST /api/playback/stop
func (h *Handler) Stop(c *gin.Context) {
	if !h.orch.Stop(c.Request.Context(), c.GetString(userIDKey)) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Status reports the current playback state.
// GET /api/playback/status
func (h *Handler) Status(c *gin.Context) {
	status, err := h.orch.Status(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		zlog.Error().Msgf("status failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read playback status"})
		return
	}
	if status == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// History lists the user's playback history, newest first. Optional
// from/to query parameters (RFC 3339) bound the range.
// GET /api/playback/history
func (h *Handler) History(c *gin.Context) {
	limit := 20
	if l := c.Query("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= 100 {
			limit = val
		}
	}
	offset := 0
	if o := c.Query("offset"); o != "" {
		if val, err := strconv.Atoi(o); err == nil && val >= 0 {
			offset = val
		}
	}

	var from, to time.Time
	if f := c.Query("from"); f != "" {
		val, err := time.Parse(time.RFC3339, f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be an RFC 3339 timestamp"})
			return
		}
		from = val
	}
	if tq := c.Query("to"); tq != "" {
		val, err := time.Parse(time.RFC3339, tq)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be an RFC 3339 timestamp"})
			return
		}
		to = val
	}

	var records []history.Record
	var err error
	if from.IsZero() && to.IsZero() {
		records, err = h.orch.History(c.Request.Context(), c.GetString(userIDKey), limit, offset)
	} else {
		records, err = h.orch.HistoryInRange(c.Request.Context(), c.GetString(userIDKey), from, to, limit, offset)
	}
	if err != nil {
		zlog.Error().Msgf("history failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   records,
		"limit":  limit,
		"offset": offset,
	})
}

// Metrics returns the aggregated latency metrics.
// GET /api/metrics
func (h *Handler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.registry.Snapshot())
}
