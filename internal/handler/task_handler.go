package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskboard/internal/service"
)

type TaskHandler struct {
	svc *service.Service
}

func NewTaskHandler(svc *service.Service) *TaskHandler {
	return &TaskHandler{svc: svc}
}

type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Index       *int       `json:"index" binding:"omitempty,min=0"`
}

type MoveTaskRequest struct {
	ListID *string `json:"list_id" binding:"omitempty,uuid"`
	Index  *int    `json:"index" binding:"omitempty,min=0"`
}

type RenameTaskRequest struct {
	Title string `json:"title" binding:"required"`
}

type EditTaskRequest struct {
	Description  *string    `json:"description"`
	DueDate      *time.Time `json:"due_date"`
	ClearDueDate bool       `json:"clear_due_date"`
}

type CompleteTaskRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

// Create godoc
// @Summary      Add a task to a list
// @Description  Without an index the task is appended. Records a "created" activity.
// @Tags         Tasks
// @Security     BearerAuth
// @Param        id path string true "List ID"
// @Param        request body CreateTaskRequest true "Task"
// @Success      201 {object} service.TaskResult
// @Failure      503 {object} map[string]interface{} "Retryable"
// @Router       /lists/{id}/tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	actor, listID, ok := actorAnd(c, "id", "list")
	if !ok {
		return
	}
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	res, err := h.svc.AddTask(c.Request.Context(), actor, listID, service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Index:       req.Index,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GetAll godoc
// @Summary      List the tasks of a list in order
// @Tags         Tasks
// @Security     BearerAuth
// @Param        id path string true "List ID"
// @Param        filter query string false "active, archived or all"
// @Success      200 {array} service.TaskView
// @Router       /lists/{id}/tasks [get]
func (h *TaskHandler) GetAll(c *gin.Context) {
	actor, listID, ok := actorAnd(c, "id", "list")
	if !ok {
		return
	}
	filter, ok := archiveFilter(c)
	if !ok {
		return
	}

	tasks, err := h.svc.Tasks(c.Request.Context(), actor, listID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// GetByID godoc
// @Summary      Get a task with its activity and attachments
// @Tags         Tasks
// @Security     BearerAuth
// @Param        id path string true "Task ID"
// @Success      200 {object} service.TaskDetail
// @Router       /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	actor, taskID, ok := actorAnd(c, "id", "task")
	if !ok {
		return
	}

	detail, err := h.svc.GetTask(c.Request.Context(), actor, taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Move godoc
// @Summary      Move a task within its list or to another list of the board
// @Tags         Tasks
// @Security     BearerAuth
// @Param        id path string true "Task ID"
// @Param        request body MoveTaskRequest true "Target"
// @Success      200 {object} service.TaskResult
// @Failure      503 {object} map[string]interface{} "Retryable"
// @Router       /tasks/{id}/move [post]
func (h *TaskHandler) Move(c *gin.Context) {
	actor, taskID, ok := actorAnd(c, "id", "task")
	if !ok {
		return
	}
	var req MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	in := service.MoveTaskInput{Index: req.Index}
	if req.ListID != nil {
		listID := uuid.MustParse(*req.ListID)
		in.ListID = &listID
	}
	res, err := h.svc.MoveTask(c.Request.Context(), actor, taskID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Rename a task
// @Tags         Tasks
// @Security     BearerAuth
// @Param        id path string true "Task ID"
// @Param        request body RenameTaskRequest true "Title"
// @Success      200 {object} service.TaskResult
// @Router       /tasks/{id}/title [put]
func (h *TaskHandler) Rename(c *gin.Context) {
	actor, taskID, ok := actorAnd(c, "id", "task")
	if !ok {
		return
	}
	var req RenameTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	res, err := h.svc.RenameTask(c.Request.Context(), actor, taskID, req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Edit a task's description or due date
// @Tags         Tasks
// @Security     BearerAuth
// @Param        id path string true "Task ID"
// @Param        request body EditTaskRequest true "Changes"
// @Success      200 {object} service.TaskResult
// @Router       /tasks/{id} [patch]
func (h *TaskHandler) Edit(c *gin.Context) {
	actor, taskID, ok := actorAnd(c, "id", "task")
	if !ok {
		return
	}
	var req EditTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	res, err := h.svc.EditTask(c.Request.Context(), actor, taskID, service.TaskPatch{
		Description:  req.Description,
		DueDate:      req.DueDate,
		ClearDueDate: req.ClearDueDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Mark a task complete or incomplete
// @Tags         Tasks
// @Security     BearerAuth
// @Param        id path string true "Task ID"
// @Param        request body CompleteTaskRequest true "State"
// @Success      200 {object} service.TaskResult
// @Router       /tasks/{id}/complete [put]
func (h *TaskHandler) Complete(c *gin.Context) {
	actor, taskID, ok := actorAnd(c, "id", "task")
	if !ok {
		return
	}
	var req CompleteTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	res, err := h.svc.CompleteTask(c.Request.Context(), actor, taskID, *req.Completed)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Archive a task
// @Tags         Tasks
// @Security     BearerAuth
// @Param        id path string true "Task ID"
// @Success      200 {object} service.TaskResult
// @Router       /tasks/{id}/archive [post]
func (h *TaskHandler) Archive(c *gin.Context) {
	actor, taskID, ok := actorAnd(c, "id", "task")
	if !ok {
		return
	}
	res, err := h.svc.ArchiveTask(c.Request.Context(), actor, taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Restore an archived task
// @Tags         Tasks
// @Security     BearerAuth
// @Param        id path string true "Task ID"
// @Success      200 {object} service.TaskResult
// @Router       /tasks/{id}/unarchive [post]
func (h *TaskHandler) Unarchive(c *gin.Context) {
	actor, taskID, ok := actorAnd(c, "id", "task")
	if !ok {
		return
	}
	res, err := h.svc.UnarchiveTask(c.Request.Context(), actor, taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Delete a task
// @Tags         Tasks
// @Security     BearerAuth
// @Param        id path string true "Task ID"
// @Success      204
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	actor, taskID, ok := actorAnd(c, "id", "task")
	if !ok {
		return
	}
	if err := h.svc.DestroyTask(c.Request.Context(), actor, taskID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Reindex godoc
// @Summary      Renumber the tasks of a list with even gaps
// @Tags         Tasks
// @Security     BearerAuth
// @Param        id path string true "List ID"
// @Success      200 {array} service.TaskView
// @Router       /lists/{id}/tasks/reindex [post]
func (h *TaskHandler) Reindex(c *gin.Context) {
	actor, listID, ok := actorAnd(c, "id", "list")
	if !ok {
		return
	}
	tasks, err := h.svc.ReindexTasks(c.Request.Context(), actor, listID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}
