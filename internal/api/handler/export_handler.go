package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"learnloop/internal/service"
	"learnloop/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler file download endpoints.
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler creates an ExportHandler.
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportRoster downloads the roster as a spreadsheet.
// GET /api/courses/:courseId/students/export
func (h *ExportHandler) ExportRoster(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportRoster(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
