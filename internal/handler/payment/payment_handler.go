// Package payment 提供支付相关的 HTTP Handler
package payment

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/campus-sports-backend/internal/common/handler"
	"github.com/dumeirei/campus-sports-backend/internal/common/response"
	paymentService "github.com/dumeirei/campus-sports-backend/internal/service/payment"
)

// 回调签名头
const (
	HeaderSignature = "X-Signature"
	HeaderTimestamp = "X-Timestamp"
)

// Handler 支付处理器
type Handler struct {
	paymentService *paymentService.PaymentService
}

// NewHandler 创建支付处理器
func NewHandler(paymentSvc *paymentService.PaymentService) *Handler {
	return &Handler{
		paymentService: paymentSvc,
	}
}

// CreatePayment 发起支付
// @Summary 发起支付
// @Tags 支付
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body paymentService.CreatePaymentRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Payment}
// @Router /payments [post]
func (h *Handler) CreatePayment(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req paymentService.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.paymentService.CreatePayment(c.Request.Context(), userID, &req)
	handler.MustSucceed(c, err, result)
}

// GetPayment 查询支付
// @Summary 查询支付
// @Tags 支付
// @Produce json
// @Security Bearer
// @Param id path int true "支付ID"
// @Success 200 {object} response.Response{data=models.Payment}
// @Router /payments/{id} [get]
func (h *Handler) GetPayment(c *gin.Context) {
	userID, paymentID, ok := handler.RequireUserAndParseID(c, "支付")
	if !ok {
		return
	}

	result, err := h.paymentService.GetPayment(c.Request.Context(), userID, paymentID)
	handler.MustSucceed(c, err, result)
}

// RequestRefundRequest 退款申请参数
type RequestRefundRequest struct {
	Reason string `json:"reason" binding:"required,max=255"`
}

// RequestRefund 申请退款
// @Summary 申请退款
// @Description 仅本人已支付且未核销、未完成的预订可申请，退款后预订级联取消
// @Tags 支付
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "支付ID"
// @Param request body RequestRefundRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Payment}
// @Router /payments/{id}/refund [post]
func (h *Handler) RequestRefund(c *gin.Context) {
	userID, paymentID, ok := handler.RequireUserAndParseID(c, "支付")
	if !ok {
		return
	}

	var req RequestRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.paymentService.RequestRefund(c.Request.Context(), userID, paymentID, req.Reason)
	handler.MustSucceed(c, err, result)
}

// Webhook 支付处理商回调
// @Summary 支付处理商回调
// @Description 校验签名后应用支付结果，同一交易重复投递只生效一次
// @Tags 支付
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /payments/webhook [post]
func (h *Handler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "FAIL",
			"message": "读取请求体失败",
		})
		return
	}

	signature := c.GetHeader(HeaderSignature)
	timestamp := c.GetHeader(HeaderTimestamp)

	if err := h.paymentService.HandleWebhook(c.Request.Context(), signature, timestamp, body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "FAIL",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "SUCCESS",
		"message": "成功",
	})
}

// RegisterRoutes 注册路由（需要用户认证）
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.POST("", h.CreatePayment)
		payments.GET("/:id", h.GetPayment)
		payments.POST("/:id/refund", h.RequestRefund)
	}
}

// RegisterWebhookRoutes 注册回调路由（无需认证）
func (h *Handler) RegisterWebhookRoutes(r *gin.RouterGroup) {
	r.POST("/payments/webhook", h.Webhook)
}
