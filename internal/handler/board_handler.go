package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/service"
	"taskboard/internal/store"
)

type BoardHandler struct {
	svc *service.Service
}

func NewBoardHandler(svc *service.Service) *BoardHandler {
	return &BoardHandler{svc: svc}
}

type CreateBoardRequest struct {
	Name    string `json:"name" binding:"required"`
	Private bool   `json:"private"`
}

type UpdateBoardRequest struct {
	Name    *string `json:"name"`
	Private *bool   `json:"private"`
}

// Create godoc
// @Summary      Create a board in a workspace
// @Tags         Boards
// @Security     BearerAuth
// @Param        id path string true "Workspace ID"
// @Param        request body CreateBoardRequest true "Board"
// @Success      201 {object} service.BoardView
// @Router       /workspaces/{id}/boards [post]
func (h *BoardHandler) Create(c *gin.Context) {
	actor, workspaceID, ok := actorAnd(c, "id", "workspace")
	if !ok {
		return
	}
	var req CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	board, err := h.svc.CreateBoard(c.Request.Context(), actor, workspaceID, service.BoardInput{Name: req.Name, Private: req.Private})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, board)
}

// GetAll godoc
// @Summary      List the boards of a workspace visible to the caller
// @Tags         Boards
// @Security     BearerAuth
// @Param        id path string true "Workspace ID"
// @Param        filter query string false "active, archived or all"
// @Success      200 {array} service.BoardView
// @Router       /workspaces/{id}/boards [get]
func (h *BoardHandler) GetAll(c *gin.Context) {
	actor, workspaceID, ok := actorAnd(c, "id", "workspace")
	if !ok {
		return
	}
	filter, ok := archiveFilter(c)
	if !ok {
		return
	}

	boards, err := h.svc.Boards(c.Request.Context(), actor, workspaceID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, boards)
}

// GetByID godoc
// @Summary      Open a board with its lists, tasks and roster
// @Description  Opening a public board as a non-member joins it.
// @Tags         Boards
// @Security     BearerAuth
// @Param        id path string true "Board ID"
// @Success      200 {object} service.BoardDetail
// @Router       /boards/{id} [get]
func (h *BoardHandler) GetByID(c *gin.Context) {
	actor, boardID, ok := actorAnd(c, "id", "board")
	if !ok {
		return
	}

	detail, err := h.svc.ViewBoard(c.Request.Context(), actor, boardID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Update godoc
// @Summary      Rename a board or change its privacy
// @Tags         Boards
// @Security     BearerAuth
// @Param        id path string true "Board ID"
// @Param        request body UpdateBoardRequest true "Changes"
// @Success      200 {object} service.BoardView
// @Router       /boards/{id} [patch]
func (h *BoardHandler) Update(c *gin.Context) {
	actor, boardID, ok := actorAnd(c, "id", "board")
	if !ok {
		return
	}
	var req UpdateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	board, err := h.svc.UpdateBoard(c.Request.Context(), actor, boardID, service.BoardPatch{Name: req.Name, Private: req.Private})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// @Summary      Archive a board
// @Tags         Boards
// @Security     BearerAuth
// @Param        id path string true "Board ID"
// @Success      200 {object} service.BoardView
// @Router       /boards/{id}/archive [post]
func (h *BoardHandler) Archive(c *gin.Context) {
	actor, boardID, ok := actorAnd(c, "id", "board")
	if !ok {
		return
	}
	board, err := h.svc.ArchiveBoard(c.Request.Context(), actor, boardID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// @Summary      Restore an archived board
// @Tags         Boards
// @Security     BearerAuth
// @Param        id path string true "Board ID"
// @Success      200 {object} service.BoardView
// @Router       /boards/{id}/unarchive [post]
func (h *BoardHandler) Unarchive(c *gin.Context) {
	actor, boardID, ok := actorAnd(c, "id", "board")
	if !ok {
		return
	}
	board, err := h.svc.UnarchiveBoard(c.Request.Context(), actor, boardID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// @Summary      Delete a board and everything on it
// @Tags         Boards
// @Security     BearerAuth
// @Param        id path string true "Board ID"
// @Success      204
// @Router       /boards/{id} [delete]
func (h *BoardHandler) Delete(c *gin.Context) {
	actor, boardID, ok := actorAnd(c, "id", "board")
	if !ok {
		return
	}
	if err := h.svc.DestroyBoard(c.Request.Context(), actor, boardID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func archiveFilter(c *gin.Context) (store.ArchiveFilter, bool) {
	filter, err := store.ParseArchiveFilter(c.Query("filter"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filter must be active, archived or all"})
		return 0, false
	}
	return filter, true
}
