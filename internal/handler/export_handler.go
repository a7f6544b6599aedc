package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clanpulse/clanpulse-api/internal/service"
	"github.com/clanpulse/clanpulse-api/pkg/response"
)

// ExportHandler serves rendered downloads of accepted records.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// ChestEntries godoc
// @Summary Export chest entries
// @Description Download a clan's accepted chest records as CSV, PDF or XLSX
// @Tags Export
// @Produce octet-stream
// @Param id path string true "Clan UUID"
// @Param format query string false "csv (default), pdf or xlsx"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /clans/{id}/export/chests [get]
func (h *ExportHandler) ChestEntries(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))

	file, err := h.service.ChestEntries(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Payload)
}
