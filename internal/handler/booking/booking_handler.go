// Package booking 提供预订相关的 HTTP Handler
package booking

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/campus-sports-backend/internal/common/handler"
	"github.com/dumeirei/campus-sports-backend/internal/common/response"
	bookingService "github.com/dumeirei/campus-sports-backend/internal/service/booking"
)

// Handler 预订处理器
type Handler struct {
	bookingService *bookingService.BookingService
}

// NewHandler 创建预订处理器
func NewHandler(bookingSvc *bookingService.BookingService) *Handler {
	return &Handler{bookingService: bookingSvc}
}

// CreateBooking 创建预订
// @Summary 创建预订
// @Description 预约指定场馆某日的整点时段，创建后需在支付时限内完成支付
// @Tags 预订
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body bookingService.CreateBookingRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req bookingService.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), userID, &req)
	handler.MustSucceed(c, err, booking)
}

// ListBookings 我的预订列表
// @Summary 我的预订列表
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param status query string false "状态过滤"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /bookings [get]
func (h *Handler) ListBookings(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	p := handler.BindPagination(c)

	var status *string
	if s := c.Query("status"); s != "" {
		status = &s
	}

	list, total, err := h.bookingService.ListUserBookings(c.Request.Context(), userID, p.Page, p.PageSize, status)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// GetBooking 预订详情
// @Summary 预订详情
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /bookings/{id} [get]
func (h *Handler) GetBooking(c *gin.Context) {
	userID, bookingID, ok := handler.RequireUserAndParseID(c, "预订")
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), userID, bookingID)
	handler.MustSucceed(c, err, booking)
}

// GetBookingByCode 按预订码查询预订
// @Summary 按预订码查询预订
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param code path string true "预订码"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /bookings/code/{code} [get]
func (h *Handler) GetBookingByCode(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	booking, err := h.bookingService.VerifyByCode(c.Request.Context(), c.Param("code"))
	if handler.HandleError(c, err) {
		return
	}
	if booking.UserID != userID {
		response.Forbidden(c, "无权查看该预订")
		return
	}

	response.Success(c, booking)
}

// CancelBookingRequest 取消预订请求
type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}

// CancelBooking 取消预订
// @Summary 取消预订
// @Description 开始前可取消，已支付的预订取消后原路退款
// @Tags 预订
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Param request body CancelBookingRequest false "请求参数"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /bookings/{id}/cancel [post]
func (h *Handler) CancelBooking(c *gin.Context) {
	userID, bookingID, ok := handler.RequireUserAndParseID(c, "预订")
	if !ok {
		return
	}

	var req CancelBookingRequest
	_ = c.ShouldBindJSON(&req)

	booking, err := h.bookingService.CancelBooking(c.Request.Context(), userID, bookingID, req.Reason)
	handler.MustSucceed(c, err, booking)
}

// GetBookingQRCode 预订核销二维码
// @Summary 预订核销二维码
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response
// @Router /bookings/{id}/qrcode [get]
func (h *Handler) GetBookingQRCode(c *gin.Context) {
	userID, bookingID, ok := handler.RequireUserAndParseID(c, "预订")
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), userID, bookingID)
	if handler.HandleError(c, err) {
		return
	}
	if booking.QRCode == nil {
		response.NotFound(c, "二维码尚未生成")
		return
	}

	response.Success(c, gin.H{
		"booking_code": booking.BookingCode,
		"qr_code":      *booking.QRCode,
	})
}

// RegisterRoutes 注册路由（需要用户认证）
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.GET("/code/:code", h.GetBookingByCode)
		bookings.GET("/:id/qrcode", h.GetBookingQRCode)
		bookings.POST("/:id/cancel", h.CancelBooking)
	}
}
