package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskboard/internal/model"
	"taskboard/internal/store"
)

const maxNotificationPage = 200

type NotificationHandler struct {
	notes store.NotificationLog
}

func NewNotificationHandler(notes store.NotificationLog) *NotificationHandler {
	return &NotificationHandler{notes: notes}
}

type NotificationResponse struct {
	ID         uuid.UUID      `json:"id"`
	EventID    uuid.UUID      `json:"event_id"`
	Channel    string         `json:"channel"`
	Event      string         `json:"event"`
	SenderID   uuid.UUID      `json:"sender_id"`
	Payload    map[string]any `json:"payload"`
	ReadAt     *time.Time     `json:"read_at,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type MarkReadRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,uuid"`
}

func toNotificationResponse(n model.Notification) NotificationResponse {
	return NotificationResponse{
		ID:         n.ID,
		EventID:    n.EventID,
		Channel:    n.Channel,
		Event:      n.Event,
		SenderID:   n.SenderID,
		Payload:    n.Data,
		ReadAt:     n.ReadAt,
		OccurredAt: n.CreatedAt,
	}
}

// GetAll godoc
// @Summary      Catch up on change events recorded for the caller
// @Description  Returns notifications created after the cursor, oldest first.
// @Tags         Notifications
// @Security     BearerAuth
// @Param        after query string false "RFC3339 cursor"
// @Param        limit query int false "Page size, at most 200"
// @Success      200 {array} NotificationResponse
// @Router       /notifications [get]
func (h *NotificationHandler) GetAll(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var after time.Time
	if raw := c.Query("after"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "after must be an RFC3339 timestamp"})
			return
		}
		after = t
	}
	limit := maxNotificationPage
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxNotificationPage)
	}

	notes, err := h.notes.ForUser(c.Request.Context(), userID, after, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]NotificationResponse, 0, len(notes))
	for _, n := range notes {
		resp = append(resp, toNotificationResponse(n))
	}
	c.JSON(http.StatusOK, resp)
}

// MarkRead godoc
// @Summary      Mark notifications as read
// @Tags         Notifications
// @Security     BearerAuth
// @Param        request body MarkReadRequest true "Notification IDs"
// @Success      200 {object} map[string]int64
// @Router       /notifications/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, s := range req.IDs {
		ids = append(ids, uuid.MustParse(s))
	}
	n, err := h.notes.MarkRead(c.Request.Context(), userID, ids, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
