package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"learnloop/internal/api/middleware"
	"learnloop/internal/service"
	"learnloop/pkg/response"
)

// MaterialHandler course file endpoints.
type MaterialHandler struct {
	materialSvc service.MaterialService
}

// NewMaterialHandler creates a MaterialHandler.
func NewMaterialHandler(materialSvc service.MaterialService) *MaterialHandler {
	return &MaterialHandler{materialSvc: materialSvc}
}

// Upload stores a PDF sent as multipart form fields file, title and
// description.
// POST /api/courses/:courseId/upload
func (h *MaterialHandler) Upload(c *gin.Context) {
	in := service.UploadInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
	}

	fh, err := c.FormFile("file")
	switch {
	case middleware.IsBodyTooLarge(err):
		_ = c.Error(err)
		return
	case err != nil && !errors.Is(err, http.ErrMissingFile):
		response.BadRequest(c, 10001, "Invalid multipart form")
		return
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			response.FromError(c, err)
			return
		}
		defer f.Close()

		in.Filename = fh.Filename
		in.Body = f
		in.Size = fh.Size
	}

	result, err := h.materialSvc.Upload(c.Request.Context(), c.Param("courseId"), in)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, result)
}

// ListFiles
// GET /api/courses/:courseId/files
// GET /api/courses/:courseId/materials
func (h *MaterialHandler) ListFiles(c *gin.Context) {
	files, err := h.materialSvc.List(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, gin.H{"files": files})
}

// DeleteFile removes one file. The key is the rest of the path.
// DELETE /api/courses/:courseId/files/*fileKey
func (h *MaterialHandler) DeleteFile(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("fileKey"), "/")
	if err := h.materialSvc.Delete(c.Request.Context(), c.Param("courseId"), key); err != nil {
		response.FromError(c, err)
		return
	}

	response.Message(c, "File deleted successfully")
}
