package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/service"
)

type CommentHandler struct {
	svc *service.Service
}

func NewCommentHandler(svc *service.Service) *CommentHandler {
	return &CommentHandler{svc: svc}
}

type CommentRequest struct {
	Text string `json:"text" binding:"required"`
}

// Activities godoc
// @Summary      Activity feed of a task, newest first
// @Tags         Comments
// @Security     BearerAuth
// @Param        id path string true "Task ID"
// @Success      200 {array} service.ActivityView
// @Router       /tasks/{id}/activities [get]
func (h *CommentHandler) Activities(c *gin.Context) {
	actor, taskID, ok := actorAnd(c, "id", "task")
	if !ok {
		return
	}

	feed, err := h.svc.Activities(c.Request.Context(), actor, taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

// Create godoc
// @Summary      Comment on a task
// @Tags         Comments
// @Security     BearerAuth
// @Param        id path string true "Task ID"
// @Param        request body CommentRequest true "Comment"
// @Success      201 {object} service.ActivityView
// @Router       /tasks/{id}/comments [post]
func (h *CommentHandler) Create(c *gin.Context) {
	actor, taskID, ok := actorAnd(c, "id", "task")
	if !ok {
		return
	}
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	comment, err := h.svc.AddComment(c.Request.Context(), actor, taskID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// Update godoc
// @Summary      Edit a comment
// @Tags         Comments
// @Security     BearerAuth
// @Param        id path string true "Comment ID"
// @Param        request body CommentRequest true "Comment"
// @Success      200 {object} service.ActivityView
// @Router       /comments/{id} [put]
func (h *CommentHandler) Update(c *gin.Context) {
	actor, commentID, ok := actorAnd(c, "id", "comment")
	if !ok {
		return
	}
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	comment, err := h.svc.EditComment(c.Request.Context(), actor, commentID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Delete godoc
// @Summary      Delete a comment
// @Tags         Comments
// @Security     BearerAuth
// @Param        id path string true "Comment ID"
// @Success      204
// @Router       /comments/{id} [delete]
func (h *CommentHandler) Delete(c *gin.Context) {
	actor, commentID, ok := actorAnd(c, "id", "comment")
	if !ok {
		return
	}

	if err := h.svc.DeleteComment(c.Request.Context(), actor, commentID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
