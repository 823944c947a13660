package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskboard/internal/service"
)

type AttachmentHandler struct {
	svc *service.Service
}

func NewAttachmentHandler(svc *service.Service) *AttachmentHandler {
	return &AttachmentHandler{svc: svc}
}

// Upload godoc
// @Summary      Attach a file to a task
// @Tags         Attachments
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Param        id path string true "Task ID"
// @Param        file formData file true "File"
// @Success      201 {object} service.AttachmentResult
// @Failure      400 {object} map[string]string
// @Router       /tasks/{id}/attachments [post]
func (h *AttachmentHandler) Upload(c *gin.Context) {
	actor, taskID, ok := actorAnd(c, "id", "task")
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxAttachmentSize+1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A file field is required"})
		return
	}
	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable upload"})
		return
	}
	defer f.Close()

	res, err := h.svc.UploadAttachment(c.Request.Context(), actor, taskID, service.FileInput{
		Name:     header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Size:     header.Size,
		Body:     f,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Download godoc
// @Summary      Download an attachment
// @Tags         Attachments
// @Security     BearerAuth
// @Produce      octet-stream
// @Param        id path string true "Attachment ID"
// @Success      200 {file} file
// @Router       /attachments/{id} [get]
func (h *AttachmentHandler) Download(c *gin.Context) {
	actor, attachmentID, ok := actorAnd(c, "id", "attachment")
	if !ok {
		return
	}

	file, obj, err := h.svc.OpenAttachment(c.Request.Context(), actor, attachmentID)
	if err != nil {
		respondError(c, err)
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = file.MimeType
	}
	c.DataFromReader(http.StatusOK, obj.Size, contentType, obj.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%s", strconv.Quote(file.Name)),
	})
}

// Delete godoc
// @Summary      Remove an attachment
// @Tags         Attachments
// @Security     BearerAuth
// @Param        id path string true "Attachment ID"
// @Success      200 {object} service.ActivityView
// @Router       /attachments/{id} [delete]
func (h *AttachmentHandler) Delete(c *gin.Context) {
	actor, attachmentID, ok := actorAnd(c, "id", "attachment")
	if !ok {
		return
	}

	activity, err := h.svc.DeleteAttachment(c.Request.Context(), actor, attachmentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, activity)
}
