package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskboard/internal/model"
	"taskboard/internal/service"
)

type WorkspaceHandler struct {
	svc *service.Service
}

func NewWorkspaceHandler(svc *service.Service) *WorkspaceHandler {
	return &WorkspaceHandler{svc: svc}
}

type CreateWorkspaceRequest struct {
	Name string `json:"name" binding:"required"`
}

type AddWorkspaceMemberRequest struct {
	UserID string     `json:"user_id" binding:"required,uuid"`
	Role   model.Role `json:"role" binding:"required,oneof=admin member"`
}

// Create godoc
// @Summary      Create a workspace owned by the caller
// @Tags         Workspaces
// @Security     BearerAuth
// @Param        request body CreateWorkspaceRequest true "Workspace"
// @Success      201 {object} service.WorkspaceView
// @Router       /workspaces [post]
func (h *WorkspaceHandler) Create(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	var req CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ws, err := h.svc.CreateWorkspace(c.Request.Context(), actor, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ws)
}

// AddMember godoc
// @Summary      Add a user to a workspace
// @Tags         Workspaces
// @Security     BearerAuth
// @Param        id path string true "Workspace ID"
// @Param        request body AddWorkspaceMemberRequest true "Member"
// @Success      204
// @Router       /workspaces/{id}/members [post]
func (h *WorkspaceHandler) AddMember(c *gin.Context) {
	actor, workspaceID, ok := actorAnd(c, "id", "workspace")
	if !ok {
		return
	}
	var req AddWorkspaceMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.svc.AddWorkspaceMember(c.Request.Context(), actor, workspaceID, uuid.MustParse(req.UserID), req.Role); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Members godoc
// @Summary      List workspace members
// @Tags         Workspaces
// @Security     BearerAuth
// @Param        id path string true "Workspace ID"
// @Success      200 {array} service.MemberView
// @Router       /workspaces/{id}/members [get]
func (h *WorkspaceHandler) Members(c *gin.Context) {
	actor, workspaceID, ok := actorAnd(c, "id", "workspace")
	if !ok {
		return
	}

	members, err := h.svc.WorkspaceMembers(c.Request.Context(), actor, workspaceID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}
