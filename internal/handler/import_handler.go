package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clanpulse/clanpulse-api/internal/dto"
	"github.com/clanpulse/clanpulse-api/internal/models"
	"github.com/clanpulse/clanpulse-api/internal/service"
	appErrors "github.com/clanpulse/clanpulse-api/pkg/errors"
	"github.com/clanpulse/clanpulse-api/pkg/response"
)

type importService interface {
	Submit(ctx context.Context, payload dto.ImportPayload, opts service.SubmitOptions, claims *models.JWTClaims) (*dto.ImportResponse, error)
}

// ImportHandler accepts bulk export payloads for staging.
type ImportHandler struct {
	service importService
}

// NewImportHandler creates a new handler.
func NewImportHandler(svc importService) *ImportHandler {
	return &ImportHandler{service: svc}
}

// Submit godoc
// @Summary Submit a data import
// @Description Stage a bulk export payload (chests, members, events) for review
// @Tags Import
// @Accept json
// @Produce json
// @Param clan_id query string false "Target clan UUID (fallback when the payload omits it)"
// @Param X-Source header string false "Attribution: file_import or api_push"
// @Param payload body dto.ImportPayload true "Export payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /import/submit [post]
func (h *ImportHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload dto.ImportPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid import payload"))
		return
	}

	source := c.GetHeader("X-Source")
	if source == "" {
		source = string(models.SourceFileImport)
	}
	opts := service.SubmitOptions{
		ClanIDQuery: c.Query("clan_id"),
		Source:      source,
	}

	res, err := h.service.Submit(c.Request.Context(), payload, opts, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}
