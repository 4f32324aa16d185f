package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/deelicious-bakes-backend/internal/http/response"
	"github.com/yungbote/deelicious-bakes-backend/internal/services"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
}

func NewDashboardHandler(dashboardService services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func (dh *DashboardHandler) Get(c *gin.Context) {
	d, err := dh.dashboardService.Get(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, d)
}
