// Package admin 提供管理员相关的 HTTP Handler
package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/campus-sports-backend/internal/common/handler"
	"github.com/dumeirei/campus-sports-backend/internal/common/response"
	adminService "github.com/dumeirei/campus-sports-backend/internal/service/admin"
)

// AuthHandler 管理员认证处理器
type AuthHandler struct {
	adminAuthService *adminService.AdminAuthService
}

// NewAuthHandler 创建管理员认证处理器
func NewAuthHandler(adminAuthSvc *adminService.AdminAuthService) *AuthHandler {
	return &AuthHandler{
		adminAuthService: adminAuthSvc,
	}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 管理员登录
// @Summary 管理员登录
// @Tags 管理员认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "请求参数"
// @Success 200 {object} response.Response{data=adminService.LoginResponse}
// @Router /admin/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.adminAuthService.Login(c.Request.Context(), &adminService.LoginRequest{
		Username: req.Username,
		Password: req.Password,
		IP:       c.ClientIP(),
	})
	handler.MustSucceed(c, err, result)
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshToken 刷新管理员 Token
// @Summary 刷新管理员 Token
// @Tags 管理员认证
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /admin/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	tokenPair, err := h.adminAuthService.RefreshToken(c.Request.Context(), req.RefreshToken)
	handler.MustSucceed(c, err, tokenPair)
}

// GetCurrentAdmin 获取当前管理员信息
// @Summary 获取当前管理员信息
// @Tags 管理员认证
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=adminService.AdminInfo}
// @Router /admin/auth/me [get]
func (h *AuthHandler) GetCurrentAdmin(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	info, err := h.adminAuthService.GetAdminInfo(c.Request.Context(), adminID)
	handler.MustSucceed(c, err, info)
}

// ChangePassword 修改密码
// @Summary 修改管理员密码
// @Tags 管理员认证
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body adminService.ChangePasswordRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /admin/auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return
	}

	var req adminService.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	handler.MustSucceed(c, h.adminAuthService.ChangePassword(c.Request.Context(), adminID, &req), nil)
}

// RegisterPublicRoutes 注册无需认证的路由
func (h *AuthHandler) RegisterPublicRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.RefreshToken)
	}
}

// RegisterRoutes 注册需要认证的路由
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.GET("/me", h.GetCurrentAdmin)
		auth.PUT("/password", h.ChangePassword)
	}
}
