// Package facility 提供场馆浏览相关的 HTTP Handler
package facility

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/campus-sports-backend/internal/common/handler"
	"github.com/dumeirei/campus-sports-backend/internal/common/response"
	"github.com/dumeirei/campus-sports-backend/internal/models"
	facilityService "github.com/dumeirei/campus-sports-backend/internal/service/facility"
)

// Handler 场馆浏览处理器
// 面向用户端，只暴露开放状态的学校与场馆
type Handler struct {
	facilityService     *facilityService.FacilityService
	availabilityService *facilityService.AvailabilityService
}

// NewHandler 创建场馆浏览处理器
func NewHandler(
	facilitySvc *facilityService.FacilityService,
	availabilitySvc *facilityService.AvailabilityService,
) *Handler {
	return &Handler{
		facilityService:     facilitySvc,
		availabilityService: availabilitySvc,
	}
}

// ListUniversities 学校列表
// @Summary 学校列表
// @Tags 场馆
// @Produce json
// @Param city query string false "城市"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /universities [get]
func (h *Handler) ListUniversities(c *gin.Context) {
	p := handler.BindPagination(c)

	filters := map[string]interface{}{
		"status": int8(models.UniversityStatusActive),
	}
	if city := c.Query("city"); city != "" {
		filters["city"] = city
	}

	list, total, err := h.facilityService.ListUniversities(c.Request.Context(), p.Page, p.PageSize, filters)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// GetUniversity 学校详情
// @Summary 学校详情
// @Tags 场馆
// @Produce json
// @Param id path int true "学校ID"
// @Success 200 {object} response.Response{data=models.University}
// @Router /universities/{id} [get]
func (h *Handler) GetUniversity(c *gin.Context) {
	id, ok := handler.ParseID(c, "学校")
	if !ok {
		return
	}

	university, err := h.facilityService.GetUniversity(c.Request.Context(), id)
	handler.MustSucceed(c, err, university)
}

// ListFacilities 场馆列表
// @Summary 场馆列表
// @Tags 场馆
// @Produce json
// @Param university_id query int false "学校ID"
// @Param sport_type query string false "运动类型"
// @Param name query string false "名称关键字"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /facilities [get]
func (h *Handler) ListFacilities(c *gin.Context) {
	p := handler.BindPagination(c)

	universityID, ok := handler.ParseQueryID(c, "university_id", "学校")
	if !ok {
		return
	}

	filters := map[string]interface{}{
		"status": int8(models.FacilityStatusActive),
	}
	if universityID != nil {
		filters["university_id"] = *universityID
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
// @Tags 场馆
// @Produce json
// @Param id path int true "场馆ID"
// @Success 200 {object} response.Response{data=models.Facility}
// @Router /facilities/{id} [get]
func (h *Handler) GetFacility(c *gin.Context) {
	id, ok := handler.ParseID(c, "场馆")
	if !ok {
		return
	}

	facility, err := h.facilityService.GetFacility(c.Request.Context(), id)
	handler.MustSucceed(c, err, facility)
}

// GetAvailability 场馆可用时段
// @Summary 场馆可用时段
// @Description 按日期返回整点时段及其可预约状态
// @Tags 场馆
// @Produce json
// @Param id path int true "场馆ID"
// @Param date query string true "日期 YYYY-MM-DD"
// @Success 200 {object} response.Response{data=facilityService.DayAvailability}
// @Router /facilities/{id}/slots [get]
func (h *Handler) GetAvailability(c *gin.Context) {
	id, ok := handler.ParseID(c, "场馆")
	if !ok {
		return
	}

	dateStr := c.Query("date")
	if dateStr == "" {
		response.BadRequest(c, "请指定日期")
		return
	}
	date, err := handler.ParseDate(dateStr)
	if err != nil {
		response.BadRequest(c, "无效的日期格式")
		return
	}

	availability, err := h.availabilityService.GetDayAvailability(c.Request.Context(), id, date)
	handler.MustSucceed(c, err, availability)
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/universities", h.ListUniversities)
	r.GET("/universities/:id", h.GetUniversity)

	facilities := r.Group("/facilities")
	{
		facilities.GET("", h.ListFacilities)
		facilities.GET("/:id", h.GetFacility)
		facilities.GET("/:id/slots", h.GetAvailability)
	}
}
