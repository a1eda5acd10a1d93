// Package auth 提供认证相关的 HTTP Handler
package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/campus-sports-backend/internal/common/handler"
	"github.com/dumeirei/campus-sports-backend/internal/common/response"
	authService "github.com/dumeirei/campus-sports-backend/internal/service/auth"
)

// Handler 认证处理器
type Handler struct {
	authService *authService.AuthService
	codeService *authService.CodeService
}

// NewHandler 创建认证处理器
func NewHandler(authSvc *authService.AuthService, codeSvc *authService.CodeService) *Handler {
	return &Handler{
		authService: authSvc,
		codeService: codeSvc,
	}
}

// Register 注册账号
// @Summary 注册账号
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body authService.RegisterRequest true "请求参数"
// @Success 200 {object} response.Response{data=authService.LoginResponse}
// @Router /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req authService.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.authService.Register(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

// PasswordLogin 账号密码登录
// @Summary 账号密码登录
// @Description 账号支持手机号或邮箱
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body authService.PasswordLoginRequest true "请求参数"
// @Success 200 {object} response.Response{data=authService.LoginResponse}
// @Router /auth/login [post]
func (h *Handler) PasswordLogin(c *gin.Context) {
	var req authService.PasswordLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.authService.PasswordLogin(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

// SendSmsCode 发送短信验证码
// @Summary 发送短信验证码
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body authService.SendSmsCodeRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /auth/sms/send [post]
func (h *Handler) SendSmsCode(c *gin.Context) {
	var req authService.SendSmsCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if handler.HandleError(c, h.authService.SendSmsCode(c.Request.Context(), &req)) {
		return
	}

	response.Success(c, gin.H{
		"expire_in": int(h.codeService.GetCodeExpireIn().Seconds()),
	})
}

// SmsLogin 短信验证码登录
// @Summary 短信验证码登录
// @Description 未注册的手机号会自动创建账号
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body authService.SmsLoginRequest true "请求参数"
// @Success 200 {object} response.Response{data=authService.LoginResponse}
// @Router /auth/login/sms [post]
func (h *Handler) SmsLogin(c *gin.Context) {
	var req authService.SmsLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.authService.SmsLogin(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshToken 刷新 Token
// @Summary 刷新 Token
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /auth/refresh [post]
func (h *Handler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	tokenPair, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	handler.MustSucceed(c, err, tokenPair)
}

// ChangePassword 修改密码
// @Summary 修改密码
// @Tags 认证
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body authService.ChangePasswordRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /auth/password [put]
func (h *Handler) ChangePassword(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req authService.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	handler.MustSucceed(c, h.authService.ChangePassword(c.Request.Context(), userID, &req), nil)
}

// GetCurrentUser 获取当前用户信息
// @Summary 获取当前用户信息
// @Tags 认证
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=authService.UserInfo}
// @Router /auth/me [get]
func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUserByID(c.Request.Context(), userID)
	if handler.HandleError(c, err) {
		return
	}

	response.Success(c, &authService.UserInfo{
		ID:           user.ID,
		Phone:        user.Phone,
		Email:        user.Email,
		Nickname:     user.Nickname,
		Avatar:       user.Avatar,
		UniversityID: user.UniversityID,
		IsVerified:   user.IsVerified,
	})
}

// Logout 退出登录
// @Summary 退出登录
// @Tags 认证
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	response.Success(c, nil)
}

// RegisterRoutes 注册路由，smsLimit 附加在发送验证码接口上
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, smsLimit ...gin.HandlerFunc) {
	auth := r.Group("/auth")
	{
		// 公开接口
		auth.POST("/register", h.Register)
		auth.POST("/login", h.PasswordLogin)
		auth.POST("/sms/send", append(smsLimit, h.SendSmsCode)...)
		auth.POST("/login/sms", h.SmsLogin)
		auth.POST("/refresh", h.RefreshToken)
	}
}

// RegisterProtectedRoutes 注册需要认证的路由
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.GET("/me", h.GetCurrentUser)
		auth.PUT("/password", h.ChangePassword)
		auth.POST("/logout", h.Logout)
	}
}
