package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/service"
)

type ListHandler struct {
	svc *service.Service
}

func NewListHandler(svc *service.Service) *ListHandler {
	return &ListHandler{svc: svc}
}

type CreateListRequest struct {
	Name  string `json:"name" binding:"required"`
	Index *int   `json:"index" binding:"omitempty,min=0"`
}

type RenameListRequest struct {
	Name string `json:"name" binding:"required"`
}

type MoveRequest struct {
	Index *int `json:"index" binding:"required,min=0"`
}

// Create godoc
// @Summary      Add a list to a board
// @Description  Without an index the list is appended.
// @Tags         Lists
// @Security     BearerAuth
// @Param        id path string true "Board ID"
// @Param        request body CreateListRequest true "List"
// @Success      201 {object} service.ListView
// @Failure      503 {object} map[string]interface{} "Retryable"
// @Router       /boards/{id}/lists [post]
func (h *ListHandler) Create(c *gin.Context) {
	actor, boardID, ok := actorAnd(c, "id", "board")
	if !ok {
		return
	}
	var req CreateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	list, err := h.svc.AddList(c.Request.Context(), actor, boardID, service.ListInput{Name: req.Name, Index: req.Index})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, list)
}

// GetAll godoc
// @Summary      List the lists of a board in order
// @Tags         Lists
// @Security     BearerAuth
// @Param        id path string true "Board ID"
// @Param        filter query string false "active, archived or all"
// @Success      200 {array} service.ListView
// @Router       /boards/{id}/lists [get]
func (h *ListHandler) GetAll(c *gin.Context) {
	actor, boardID, ok := actorAnd(c, "id", "board")
	if !ok {
		return
	}
	filter, ok := archiveFilter(c)
	if !ok {
		return
	}

	lists, err := h.svc.Lists(c.Request.Context(), actor, boardID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lists)
}

// Rename godoc
// @Summary      Rename a list
// @Tags         Lists
// @Security     BearerAuth
// @Param        id path string true "List ID"
// @Param        request body RenameListRequest true "Name"
// @Success      200 {object} service.ListView
// @Router       /lists/{id} [patch]
func (h *ListHandler) Rename(c *gin.Context) {
	actor, listID, ok := actorAnd(c, "id", "list")
	if !ok {
		return
	}
	var req RenameListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	list, err := h.svc.RenameList(c.Request.Context(), actor, listID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Move godoc
// @Summary      Move a list to an index among its siblings
// @Tags         Lists
// @Security     BearerAuth
// @Param        id path string true "List ID"
// @Param        request body MoveRequest true "Target index"
// @Success      200 {object} service.ListView
// @Failure      503 {object} map[string]interface{} "Retryable"
// @Router       /lists/{id}/move [post]
func (h *ListHandler) Move(c *gin.Context) {
	actor, listID, ok := actorAnd(c, "id", "list")
	if !ok {
		return
	}
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	list, err := h.svc.MoveList(c.Request.Context(), actor, listID, *req.Index)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary      Archive a list
// @Tags         Lists
// @Security     BearerAuth
// @Param        id path string true "List ID"
// @Success      200 {object} service.ListView
// @Router       /lists/{id}/archive [post]
func (h *ListHandler) Archive(c *gin.Context) {
	actor, listID, ok := actorAnd(c, "id", "list")
	if !ok {
		return
	}
	list, err := h.svc.ArchiveList(c.Request.Context(), actor, listID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary      Restore an archived list
// @Tags         Lists
// @Security     BearerAuth
// @Param        id path string true "List ID"
// @Success      200 {object} service.ListView
// @Router       /lists/{id}/unarchive [post]
func (h *ListHandler) Unarchive(c *gin.Context) {
	actor, listID, ok := actorAnd(c, "id", "list")
	if !ok {
		return
	}
	list, err := h.svc.UnarchiveList(c.Request.Context(), actor, listID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary      Delete a list with its tasks
// @Tags         Lists
// @Security     BearerAuth
// @Param        id path string true "List ID"
// @Success      204
// @Router       /lists/{id} [delete]
func (h *ListHandler) Delete(c *gin.Context) {
	actor, listID, ok := actorAnd(c, "id", "list")
	if !ok {
		return
	}
	if err := h.svc.DestroyList(c.Request.Context(), actor, listID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Reindex godoc
// @Summary      Renumber the lists of a board with even gaps
// @Tags         Lists
// @Security     BearerAuth
// @Param        id path string true "Board ID"
// @Success      200 {array} service.ListView
// @Router       /boards/{id}/lists/reindex [post]
func (h *ListHandler) Reindex(c *gin.Context) {
	actor, boardID, ok := actorAnd(c, "id", "board")
	if !ok {
		return
	}
	lists, err := h.svc.ReindexLists(c.Request.Context(), actor, boardID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lists)
}
