package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/campus-sports-backend/internal/common/handler"
	"github.com/dumeirei/campus-sports-backend/internal/common/response"
	adminService "github.com/dumeirei/campus-sports-backend/internal/service/admin"
	bookingService "github.com/dumeirei/campus-sports-backend/internal/service/booking"
)

// BookingHandler 预订管理处理器
// 覆盖预订查询、到场核销与状态修正
type BookingHandler struct {
	bookingService   *bookingService.BookingService
	adminAuthService *adminService.AdminAuthService
}

// NewBookingHandler 创建预订管理处理器
func NewBookingHandler(
	bookingSvc *bookingService.BookingService,
	adminAuthSvc *adminService.AdminAuthService,
) *BookingHandler {
	return &BookingHandler{
		bookingService:   bookingSvc,
		adminAuthService: adminAuthSvc,
	}
}

// ListBookings 预订列表
// @Summary 预订列表
// @Tags 预订管理
// @Produce json
// @Security Bearer
// @Param university_id query int false "学校ID（平台管理员）"
// @Param facility_id query int false "场馆ID"
// @Param user_id query int false "用户ID"
// @Param status query string false "状态过滤"
// @Param start_date query string false "开始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /admin/bookings [get]
func (h *BookingHandler) ListBookings(c *gin.Context) {
	scope, ok := resolveScope(c, h.adminAuthService)
	if !ok {
		return
	}

	p := handler.BindPagination(c)

	filters := map[string]interface{}{}
	if scope != nil {
		filters["university_id"] = *scope
	}
	facilityID, ok := handler.ParseQueryID(c, "facility_id", "场馆")
	if !ok {
		return
	}
	if facilityID != nil {
		filters["facility_id"] = *facilityID
	}
	userID, ok := handler.ParseQueryID(c, "user_id", "用户")
	if !ok {
		return
	}
	if userID != nil {
		filters["user_id"] = *userID
	}
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	start, end, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}
	if start != nil {
		filters["start_date"] = *start
	}
	if end != nil {
		filters["end_date"] = *end
	}

	list, total, err := h.bookingService.ListBookings(c.Request.Context(), p.Page, p.PageSize, filters)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// GetBooking 预订详情
// @Summary 预订详情
// @Tags 预订管理
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /admin/bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	_, bookingID, ok := handler.RequireAdminAndParseID(c, "预订")
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBookingByID(c.Request.Context(), bookingID)
	handler.MustSucceed(c, err, booking)
}

// VerifyByCodeRequest 按预订码查询请求
type VerifyByCodeRequest struct {
	BookingCode string `json:"booking_code" binding:"required"`
}

// VerifyByCode 按预订码查询预订
// @Summary 按预订码查询预订
// @Description 场馆前台扫码后先展示预订信息，确认无误再核销
// @Tags 预订管理
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body VerifyByCodeRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /admin/bookings/verify [post]
func (h *BookingHandler) VerifyByCode(c *gin.Context) {
	_, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	var req VerifyByCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	booking, err := h.bookingService.VerifyByCode(c.Request.Context(), req.BookingCode)
	handler.MustSucceed(c, err, booking)
}

// CheckInRequest 到场核销请求
type CheckInRequest struct {
	BookingCode string `json:"booking_code" binding:"required"`
}

// CheckIn 到场核销
// @Summary 到场核销
// @Description 仅已确认的预订可核销，核销窗口为时段开始前后各一段时间
// @Tags 预订管理
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body CheckInRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /admin/bookings/check-in [post]
func (h *BookingHandler) CheckIn(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	booking, err := h.bookingService.CheckInByCode(c.Request.Context(), req.BookingCode, adminID)
	handler.MustSucceed(c, err, booking)
}

// SetStatusRequest 修改预订状态请求
type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus 修改预订状态
// @Summary 修改预订状态
// @Description 仅支持标记为已完成或已取消，取消已支付预订会触发退款
// @Tags 预订管理
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Param request body SetStatusRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /admin/bookings/{id}/status [put]
func (h *BookingHandler) SetStatus(c *gin.Context) {
	adminID, bookingID, ok := handler.RequireAdminAndParseID(c, "预订")
	if !ok {
		return
	}

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	booking, err := h.bookingService.AdminSetStatus(c.Request.Context(), adminID, bookingID, req.Status)
	handler.MustSucceed(c, err, booking)
}

// RegisterRoutes 注册路由
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	{
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/verify", h.VerifyByCode)
		bookings.POST("/check-in", h.CheckIn)
		bookings.PUT("/:id/status", h.SetStatus)
	}
}
