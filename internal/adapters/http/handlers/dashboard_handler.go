package handlers

import (
	"microloan/internal/adapters/http/middleware"
	"microloan/internal/core/services"
	"microloan/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// DashboardResponse is the staff overview with recent payments
type DashboardResponse struct {
	*services.DashboardData
	RecentPayments []*PaymentResponse `json:"recentPayments"`
}

// GetDashboard returns the staff dashboard
// @Summary Staff Dashboard
// @Description Application counts by status and collected fees (Manager/Admin)
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	data, err := h.dashboardService.GetDashboard(c.UserContext(), middleware.Principal(c))
	if err != nil {
		return response.FromError(c, err)
	}

	recent := make([]*PaymentResponse, len(data.RecentPayments))
	for i, p := range data.RecentPayments {
		recent[i] = toPaymentResponse(p)
	}
	return response.Success(c, "Dashboard retrieved successfully", DashboardResponse{
		DashboardData:  data,
		RecentPayments: recent,
	})
}
