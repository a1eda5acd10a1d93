package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/campus-sports-backend/internal/common/handler"
	"github.com/dumeirei/campus-sports-backend/internal/common/response"
	paymentService "github.com/dumeirei/campus-sports-backend/internal/service/payment"
)

// PaymentHandler 支付管理处理器
type PaymentHandler struct {
	paymentService *paymentService.PaymentService
}

// NewPaymentHandler 创建支付管理处理器
func NewPaymentHandler(paymentSvc *paymentService.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentSvc}
}

// ListPayments 支付列表
// @Summary 支付列表
// @Tags 支付管理
// @Produce json
// @Security Bearer
// @Param booking_id query int false "预订ID"
// @Param user_id query int false "用户ID"
// @Param method query string false "支付方式"
// @Param status query string false "状态过滤"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /admin/payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	_, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	p := handler.BindPagination(c)

	filters := map[string]interface{}{}
	bookingID, ok := handler.ParseQueryID(c, "booking_id", "预订")
	if !ok {
		return
	}
	if bookingID != nil {
		filters["booking_id"] = *bookingID
	}
	userID, ok := handler.ParseQueryID(c, "user_id", "用户")
	if !ok {
		return
	}
	if userID != nil {
		filters["user_id"] = *userID
	}
	if method := c.Query("method"); method != "" {
		filters["method"] = method
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

	list, total, err := h.paymentService.ListPayments(c.Request.Context(), p.Page, p.PageSize, filters)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// ListBookingPayments 预订的支付记录
// @Summary 预订的支付记录
// @Tags 支付管理
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response{data=[]models.Payment}
// @Router /admin/bookings/{id}/payments [get]
func (h *PaymentHandler) ListBookingPayments(c *gin.Context) {
	_, bookingID, ok := handler.RequireAdminAndParseID(c, "预订")
	if !ok {
		return
	}

	payments, err := h.paymentService.ListBookingPayments(c.Request.Context(), bookingID)
	handler.MustSucceed(c, err, payments)
}

// Refund 退款
// @Summary 退款
// @Description 仅已完成的支付可退款，支持部分退款
// @Tags 支付管理
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body paymentService.RefundRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Payment}
// @Router /admin/payments/refund [post]
func (h *PaymentHandler) Refund(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	var req paymentService.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	payment, err := h.paymentService.Refund(c.Request.Context(), adminID, &req)
	handler.MustSucceed(c, err, payment)
}

// RegisterRoutes 注册路由
func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.GET("", h.ListPayments)
		payments.POST("/refund", h.Refund)
	}
	r.GET("/bookings/:id/payments", h.ListBookingPayments)
}
