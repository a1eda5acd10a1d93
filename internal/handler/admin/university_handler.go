package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/campus-sports-backend/internal/common/handler"
	"github.com/dumeirei/campus-sports-backend/internal/common/response"
	facilityService "github.com/dumeirei/campus-sports-backend/internal/service/facility"
)

// UniversityHandler 学校管理处理器
// 全部操作仅限平台管理员
type UniversityHandler struct {
	facilityService *facilityService.FacilityService
}

// NewUniversityHandler 创建学校管理处理器
func NewUniversityHandler(facilitySvc *facilityService.FacilityService) *UniversityHandler {
	return &UniversityHandler{facilityService: facilitySvc}
}

// CreateUniversity 创建学校
// @Summary 创建学校
// @Tags 学校管理
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body facilityService.CreateUniversityRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.University}
// @Router /admin/universities [post]
func (h *UniversityHandler) CreateUniversity(c *gin.Context) {
	var req facilityService.CreateUniversityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	university, err := h.facilityService.CreateUniversity(c.Request.Context(), &req)
	handler.MustSucceed(c, err, university)
}

// UpdateUniversity 更新学校
// @Summary 更新学校
// @Tags 学校管理
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "学校ID"
// @Param request body facilityService.UpdateUniversityRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.University}
// @Router /admin/universities/{id} [put]
func (h *UniversityHandler) UpdateUniversity(c *gin.Context) {
	id, ok := handler.ParseID(c, "学校")
	if !ok {
		return
	}

	var req facilityService.UpdateUniversityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	university, err := h.facilityService.UpdateUniversity(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, university)
}

// ListUniversities 学校列表
// @Summary 学校列表
// @Tags 学校管理
// @Produce json
// @Security Bearer
// @Param name query string false "名称关键字"
// @Param city query string false "城市"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /admin/universities [get]
func (h *UniversityHandler) ListUniversities(c *gin.Context) {
	p := handler.BindPagination(c)

	filters := map[string]interface{}{}
	if name := c.Query("name"); name != "" {
		filters["name"] = name
	}
	if city := c.Query("city"); city != "" {
		filters["city"] = city
	}

	list, total, err := h.facilityService.ListUniversities(c.Request.Context(), p.Page, p.PageSize, filters)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// GetUniversity 学校详情
// @Summary 学校详情
// @Tags 学校管理
// @Produce json
// @Security Bearer
// @Param id path int true "学校ID"
// @Success 200 {object} response.Response{data=models.University}
// @Router /admin/universities/{id} [get]
func (h *UniversityHandler) GetUniversity(c *gin.Context) {
	id, ok := handler.ParseID(c, "学校")
	if !ok {
		return
	}

	university, err := h.facilityService.GetUniversity(c.Request.Context(), id)
	handler.MustSucceed(c, err, university)
}

// DeleteUniversity 删除学校
// @Summary 删除学校
// @Tags 学校管理
// @Produce json
// @Security Bearer
// @Param id path int true "学校ID"
// @Success 200 {object} response.Response
// @Router /admin/universities/{id} [delete]
func (h *UniversityHandler) DeleteUniversity(c *gin.Context) {
	id, ok := handler.ParseID(c, "学校")
	if !ok {
		return
	}

	handler.MustSucceed(c, h.facilityService.DeleteUniversity(c.Request.Context(), id), nil)
}

// RegisterRoutes 注册路由
func (h *UniversityHandler) RegisterRoutes(r *gin.RouterGroup) {
	universities := r.Group("/universities")
	{
		universities.POST("", h.CreateUniversity)
		universities.GET("", h.ListUniversities)
		universities.GET("/:id", h.GetUniversity)
		universities.PUT("/:id", h.UpdateUniversity)
		universities.DELETE("/:id", h.DeleteUniversity)
	}
}
