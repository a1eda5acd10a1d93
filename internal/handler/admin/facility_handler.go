package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/campus-sports-backend/internal/common/handler"
	"github.com/dumeirei/campus-sports-backend/internal/common/response"
	adminService "github.com/dumeirei/campus-sports-backend/internal/service/admin"
	facilityService "github.com/dumeirei/campus-sports-backend/internal/service/facility"
)

// FacilityHandler 场馆管理处理器
type FacilityHandler struct {
	facilityService  *facilityService.FacilityService
	adminAuthService *adminService.AdminAuthService
}

// NewFacilityHandler 创建场馆管理处理器
func NewFacilityHandler(
	facilitySvc *facilityService.FacilityService,
	adminAuthSvc *adminService.AdminAuthService,
) *FacilityHandler {
	return &FacilityHandler{
		facilityService:  facilitySvc,
		adminAuthService: adminAuthSvc,
	}
}

// CreateFacility 创建场馆
// @Summary 创建场馆
// @Tags 场馆管理
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body facilityService.CreateFacilityRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Facility}
// @Router /admin/facilities [post]
func (h *FacilityHandler) CreateFacility(c *gin.Context) {
	scope, ok := resolveScope(c, h.adminAuthService)
	if !ok {
		return
	}

	var req facilityService.CreateFacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}
	if !withinScope(scope, req.UniversityID) {
		response.Forbidden(c, "无权管理该学校的场馆")
		return
	}

	facility, err := h.facilityService.CreateFacility(c.Request.Context(), &req)
	handler.MustSucceed(c, err, facility)
}

// UpdateFacility 更新场馆
// @Summary 更新场馆
// @Tags 场馆管理
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "场馆ID"
// @Param request body facilityService.UpdateFacilityRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Facility}
// @Router /admin/facilities/{id} [put]
func (h *FacilityHandler) UpdateFacility(c *gin.Context) {
	scope, ok := resolveScope(c, h.adminAuthService)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "场馆")
	if !ok {
		return
	}
	if !h.checkFacilityScope(c, scope, id) {
		return
	}

	var req facilityService.UpdateFacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	facility, err := h.facilityService.UpdateFacility(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, facility)
}

// UpdateFacilityStatusRequest 更新场馆状态请求
type UpdateFacilityStatusRequest struct {
	Status int8 `json:"status"`
}

// UpdateFacilityStatus 更新场馆状态
// @Summary 更新场馆状态
// @Description 0 未开放 / 1 开放 / 2 维护中
// @Tags 场馆管理
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "场馆ID"
// @Param request body UpdateFacilityStatusRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Facility}
// @Router /admin/facilities/{id}/status [put]
func (h *FacilityHandler) UpdateFacilityStatus(c *gin.Context) {
	scope, ok := resolveScope(c, h.adminAuthService)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "场馆")
	if !ok {
		return
	}
	if !h.checkFacilityScope(c, scope, id) {
		return
	}

	var req UpdateFacilityStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	facility, err := h.facilityService.UpdateFacility(c.Request.Context(), id, &facilityService.UpdateFacilityRequest{
		Status: &req.Status,
	})
	handler.MustSucceed(c, err, facility)
}

// ListFacilities 场馆列表
// @Summary 场馆列表
// @Tags 场馆管理
// @Produce json
// @Security Bearer
// @Param university_id query int false "学校ID（平台管理员）"
// @Param sport_type query string false "运动类型"
// @Param name query string false "名称关键字"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /admin/facilities [get]
func (h *FacilityHandler) ListFacilities(c *gin.Context) {
	scope, ok := resolveScope(c, h.adminAuthService)
	if !ok {
		return
	}

	p := handler.BindPagination(c)

	filters := map[string]interface{}{}
	if scope != nil {
		filters["university_id"] = *scope
	}
	if sportType := c.Query("sport_type"); sportType != "" {
		filters["sport_type"] = sportType
	}
	if name := c.Query("name"); name != "" {
		filters["name"] = name
	}

	list, total, err := h.facilityService.ListFacilities(c.Request.Context(), p.Page, p.PageSize, filters)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// GetFacility 场馆详情
// @Summary 场馆详情
// @Tags 场馆管理
// @Produce json
// @Security Bearer
// @Param id path int true "场馆ID"
// @Success 200 {object} response.Response{data=models.Facility}
// @Router /admin/facilities/{id} [get]
func (h *FacilityHandler) GetFacility(c *gin.Context) {
	scope, ok := resolveScope(c, h.adminAuthService)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "场馆")
	if !ok {
		return
	}

	facility, err := h.facilityService.GetFacility(c.Request.Context(), id)
	if handler.HandleError(c, err) {
		return
	}
	if !withinScope(scope, facility.UniversityID) {
		response.Forbidden(c, "无权查看该场馆")
		return
	}

	response.Success(c, facility)
}

// DeleteFacility 删除场馆
// @Summary 删除场馆
// @Description 存在未完结预订的场馆不可删除
// @Tags 场馆管理
// @Produce json
// @Security Bearer
// @Param id path int true "场馆ID"
// @Success 200 {object} response.Response
// @Router /admin/facilities/{id} [delete]
func (h *FacilityHandler) DeleteFacility(c *gin.Context) {
	scope, ok := resolveScope(c, h.adminAuthService)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "场馆")
	if !ok {
		return
	}
	if !h.checkFacilityScope(c, scope, id) {
		return
	}

	handler.MustSucceed(c, h.facilityService.DeleteFacility(c.Request.Context(), id), nil)
}

// checkFacilityScope 校验场馆归属是否在管理范围内，越权时已发送响应
func (h *FacilityHandler) checkFacilityScope(c *gin.Context, scope *int64, facilityID int64) bool {
	if scope == nil {
		return true
	}
	facility, err := h.facilityService.GetFacility(c.Request.Context(), facilityID)
	if handler.HandleError(c, err) {
		return false
	}
	if facility.UniversityID != *scope {
		response.Forbidden(c, "无权管理该场馆")
		return false
	}
	return true
}

// RegisterRoutes 注册路由
func (h *FacilityHandler) RegisterRoutes(r *gin.RouterGroup) {
	facilities := r.Group("/facilities")
	{
		facilities.POST("", h.CreateFacility)
		facilities.GET("", h.ListFacilities)
		facilities.GET("/:id", h.GetFacility)
		facilities.PUT("/:id", h.UpdateFacility)
		facilities.PUT("/:id/status", h.UpdateFacilityStatus)
		facilities.DELETE("/:id", h.DeleteFacility)
	}
}
