package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/model"
	"taskboard/internal/service"
)

type JoinHandler struct {
	svc *service.Service
}

func NewJoinHandler(svc *service.Service) *JoinHandler {
	return &JoinHandler{svc: svc}
}

type RespondJoinRequest struct {
	Approve bool       `json:"approve"`
	Role    model.Role `json:"role" binding:"omitempty,oneof=admin member"`
}

// Request godoc
// @Summary      Ask to join a private board
// @Tags         Join requests
// @Security     BearerAuth
// @Param        id path string true "Board ID"
// @Success      201 {object} service.JoinRequestView
// @Router       /boards/{id}/join-requests [post]
func (h *JoinHandler) Request(c *gin.Context) {
	actor, boardID, ok := actorAnd(c, "id", "board")
	if !ok {
		return
	}

	req, err := h.svc.RequestJoin(c.Request.Context(), actor, boardID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// Pending godoc
// @Summary      List pending join requests of a board
// @Tags         Join requests
// @Security     BearerAuth
// @Param        id path string true "Board ID"
// @Success      200 {array} service.JoinRequestView
// @Router       /boards/{id}/join-requests [get]
func (h *JoinHandler) Pending(c *gin.Context) {
	actor, boardID, ok := actorAnd(c, "id", "board")
	if !ok {
		return
	}

	reqs, err := h.svc.PendingJoinRequests(c.Request.Context(), actor, boardID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// Respond godoc
// @Summary      Approve or reject a join request
// @Tags         Join requests
// @Security     BearerAuth
// @Param        id path string true "Join request ID"
// @Param        request body RespondJoinRequest true "Decision"
// @Success      200 {object} service.JoinRequestView
// @Router       /join-requests/{id} [post]
func (h *JoinHandler) Respond(c *gin.Context) {
	actor, requestID, ok := actorAnd(c, "id", "join request")
	if !ok {
		return
	}
	var req RespondJoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	resp, err := h.svc.RespondJoin(c.Request.Context(), actor, requestID, req.Approve, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
