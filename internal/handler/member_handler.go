package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskboard/internal/model"
	"taskboard/internal/service"
)

type MemberHandler struct {
	svc *service.Service
}

func NewMemberHandler(svc *service.Service) *MemberHandler {
	return &MemberHandler{svc: svc}
}

type AddMemberRequest struct {
	UserID string     `json:"user_id" binding:"required,uuid"`
	Role   model.Role `json:"role" binding:"required,oneof=owner admin member"`
}

type UpdateRoleRequest struct {
	Role model.Role `json:"role" binding:"required,oneof=owner admin member"`
}

// GetAll godoc
// @Summary      List board members
// @Tags         Members
// @Security     BearerAuth
// @Param        id path string true "Board ID"
// @Success      200 {array} service.MemberView
// @Router       /boards/{id}/members [get]
func (h *MemberHandler) GetAll(c *gin.Context) {
	actor, boardID, ok := actorAnd(c, "id", "board")
	if !ok {
		return
	}

	members, err := h.svc.Members(c.Request.Context(), actor, boardID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// Add godoc
// @Summary      Add a workspace user to a board
// @Tags         Members
// @Security     BearerAuth
// @Param        id path string true "Board ID"
// @Param        request body AddMemberRequest true "Member"
// @Success      201 {object} service.MemberView
// @Router       /boards/{id}/members [post]
func (h *MemberHandler) Add(c *gin.Context) {
	actor, boardID, ok := actorAnd(c, "id", "board")
	if !ok {
		return
	}
	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	member, err := h.svc.AddMember(c.Request.Context(), actor, boardID, uuid.MustParse(req.UserID), req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

// UpdateRole godoc
// @Summary      Change a member's role
// @Description  Granting owner transfers ownership; the previous owner becomes admin.
// @Tags         Members
// @Security     BearerAuth
// @Param        id path string true "Board ID"
// @Param        userId path string true "User ID"
// @Param        request body UpdateRoleRequest true "Role"
// @Success      200 {array} service.MemberView
// @Router       /boards/{id}/members/{userId} [patch]
func (h *MemberHandler) UpdateRole(c *gin.Context) {
	actor, boardID, ok := actorAnd(c, "id", "board")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId", "user")
	if !ok {
		return
	}
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	members, err := h.svc.UpdateRole(c.Request.Context(), actor, boardID, userID, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// Remove godoc
// @Summary      Remove a member from a board
// @Tags         Members
// @Security     BearerAuth
// @Param        id path string true "Board ID"
// @Param        userId path string true "User ID"
// @Success      204
// @Router       /boards/{id}/members/{userId} [delete]
func (h *MemberHandler) Remove(c *gin.Context) {
	actor, boardID, ok := actorAnd(c, "id", "board")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId", "user")
	if !ok {
		return
	}

	if err := h.svc.RemoveMember(c.Request.Context(), actor, boardID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
