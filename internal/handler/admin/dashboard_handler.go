package admin

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/campus-sports-backend/internal/common/handler"
	adminService "github.com/dumeirei/campus-sports-backend/internal/service/admin"
)

// DashboardHandler 运营看板处理器
type DashboardHandler struct {
	dashboardService *adminService.DashboardService
	adminAuthService *adminService.AdminAuthService
}

// NewDashboardHandler 创建运营看板处理器
func NewDashboardHandler(
	dashboardSvc *adminService.DashboardService,
	adminAuthSvc *adminService.AdminAuthService,
) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardSvc,
		adminAuthService: adminAuthSvc,
	}
}

// GetOverview 运营概览
// @Summary 运营概览
// @Description 用户、场馆、预订与收入的汇总统计，学校管理员只见本校数据
// @Tags 运营看板
// @Produce json
// @Security Bearer
// @Param university_id query int false "学校ID（平台管理员）"
// @Success 200 {object} response.Response{data=adminService.Overview}
// @Router /admin/dashboard/overview [get]
func (h *DashboardHandler) GetOverview(c *gin.Context) {
	scope, ok := resolveScope(c, h.adminAuthService)
	if !ok {
		return
	}

	overview, err := h.dashboardService.GetOverview(c.Request.Context(), scope)
	handler.MustSucceed(c, err, overview)
}

// GetFacilityUtilization 场馆利用率
// @Summary 场馆利用率
// @Description 按场馆统计有效预订数，降序排列
// @Tags 运营看板
// @Produce json
// @Security Bearer
// @Param university_id query int false "学校ID（平台管理员）"
// @Success 200 {object} response.Response{data=[]adminService.FacilityUtilization}
// @Router /admin/dashboard/utilization [get]
func (h *DashboardHandler) GetFacilityUtilization(c *gin.Context) {
	scope, ok := resolveScope(c, h.adminAuthService)
	if !ok {
		return
	}

	utilization, err := h.dashboardService.GetFacilityUtilization(c.Request.Context(), scope)
	handler.MustSucceed(c, err, utilization)
}

// GetBookingTrend 预订趋势
// @Summary 预订趋势
// @Description 按日统计近 N 天的预订量，缺数据的日期补零
// @Tags 运营看板
// @Produce json
// @Security Bearer
// @Param university_id query int false "学校ID（平台管理员）"
// @Param days query int false "统计天数，默认7，最大90"
// @Success 200 {object} response.Response{data=[]adminService.TrendPoint}
// @Router /admin/dashboard/trend [get]
func (h *DashboardHandler) GetBookingTrend(c *gin.Context) {
	scope, ok := resolveScope(c, h.adminAuthService)
	if !ok {
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))

	trend, err := h.dashboardService.GetBookingTrend(c.Request.Context(), scope, days)
	handler.MustSucceed(c, err, trend)
}

// RegisterRoutes 注册路由
func (h *DashboardHandler) RegisterRoutes(r *gin.RouterGroup) {
	dashboard := r.Group("/dashboard")
	{
		dashboard.GET("/overview", h.GetOverview)
		dashboard.GET("/utilization", h.GetFacilityUtilization)
		dashboard.GET("/trend", h.GetBookingTrend)
	}
}
