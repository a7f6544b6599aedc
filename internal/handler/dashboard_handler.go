package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clanpulse/clanpulse-api/internal/models"
	"github.com/clanpulse/clanpulse-api/pkg/response"
)

type clanDashboardService interface {
	ClanOverview(ctx context.Context, clanID string) (*models.ClanDashboard, bool, error)
}

// DashboardHandler serves the clan overview endpoint.
type DashboardHandler struct {
	service clanDashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc clanDashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// ClanOverview godoc
// @Summary Clan dashboard
// @Description Aggregate counters for one clan's imported data
// @Tags Dashboard
// @Produce json
// @Param id path string true "Clan UUID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /clans/{id}/dashboard [get]
func (h *DashboardHandler) ClanOverview(c *gin.Context) {
	dashboard, cached, err := h.service.ClanOverview(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dashboard, nil, map[string]interface{}{"cache": cached})
}
