package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clanpulse/clanpulse-api/internal/dto"
	"github.com/clanpulse/clanpulse-api/internal/models"
	appErrors "github.com/clanpulse/clanpulse-api/pkg/errors"
	"github.com/clanpulse/clanpulse-api/pkg/response"
)

type submissionQueryService interface {
	List(ctx context.Context, query dto.SubmissionQuery) ([]models.Submission, *models.Pagination, error)
	Get(ctx context.Context, id string) (*dto.SubmissionDetail, error)
}

type reviewService interface {
	Review(ctx context.Context, submissionID string, req dto.ReviewRequest, reviewer *models.JWTClaims) (*dto.ReviewResult, error)
}

// SubmissionHandler serves the review queue endpoints.
type SubmissionHandler struct {
	submissions submissionQueryService
	reviews     reviewService
}

// NewSubmissionHandler creates a new handler.
func NewSubmissionHandler(submissions submissionQueryService, reviews reviewService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, reviews: reviews}
}

// List godoc
// @Summary List submissions
// @Description List import submissions filtered by clan, type and status
// @Tags Submissions
// @Produce json
// @Param clan_id query string false "Clan UUID"
// @Param type query string false "Data type: chests, members, events"
// @Param status query string false "Comma-separated statuses"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /import/submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	query := dto.SubmissionQuery{
		ClanID: c.Query("clan_id"),
		Type:   models.SubmissionType(c.Query("type")),
	}
	if raw := c.Query("status"); raw != "" {
		for _, status := range strings.Split(raw, ",") {
			status = strings.TrimSpace(status)
			if status != "" {
				query.Status = append(query.Status, models.SubmissionStatus(status))
			}
		}
	}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	subs, pagination, err := h.submissions.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, subs, pagination)
}

// Get godoc
// @Summary Get submission detail
// @Description Fetch one submission header with all of its staged rows
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission UUID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /import/submissions/{id} [get]
func (h *SubmissionHandler) Get(c *gin.Context) {
	detail, err := h.submissions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// Review godoc
// @Summary Review a submission
// @Description Apply a bulk action or per-item decisions to a pending submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission UUID"
// @Param payload body dto.ReviewRequest true "Review request"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /import/submissions/{id}/review [post]
func (h *SubmissionHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	result, err := h.reviews.Review(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}
