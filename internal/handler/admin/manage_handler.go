package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/campus-sports-backend/internal/common/handler"
	"github.com/dumeirei/campus-sports-backend/internal/common/response"
	adminService "github.com/dumeirei/campus-sports-backend/internal/service/admin"
)

// ManageHandler 管理员账号管理处理器
// 全部操作仅限平台管理员
type ManageHandler struct {
	manageService *adminService.AdminManageService
}

// NewManageHandler 创建管理员账号管理处理器
func NewManageHandler(manageSvc *adminService.AdminManageService) *ManageHandler {
	return &ManageHandler{manageService: manageSvc}
}

// CreateAdmin 创建管理员
// @Summary 创建管理员
// @Description 学校管理员必须关联学校
// @Tags 管理员管理
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body adminService.CreateAdminRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Admin}
// @Router /admin/admins [post]
func (h *ManageHandler) CreateAdmin(c *gin.Context) {
	var req adminService.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	admin, err := h.manageService.CreateAdmin(c.Request.Context(), &req)
	handler.MustSucceed(c, err, admin)
}

// ListAdmins 管理员列表
// @Summary 管理员列表
// @Tags 管理员管理
// @Produce json
// @Security Bearer
// @Param role query string false "角色过滤"
// @Param university_id query int false "学校ID"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /admin/admins [get]
func (h *ManageHandler) ListAdmins(c *gin.Context) {
	var req adminService.ListAdminsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	list, total, err := h.manageService.ListAdmins(c.Request.Context(), &req)
	handler.MustSucceedPage(c, err, list, total, req.Page, req.PageSize)
}

// UpdateAdminStatusRequest 更新管理员状态请求
type UpdateAdminStatusRequest struct {
	Status int8 `json:"status"`
}

// UpdateAdminStatus 更新管理员状态
// @Summary 更新管理员状态
// @Tags 管理员管理
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "管理员ID"
// @Param request body UpdateAdminStatusRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /admin/admins/{id}/status [put]
func (h *ManageHandler) UpdateAdminStatus(c *gin.Context) {
	_, adminID, ok := handler.RequireAdminAndParseID(c, "管理员")
	if !ok {
		return
	}

	var req UpdateAdminStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	handler.MustSucceed(c, h.manageService.UpdateAdminStatus(c.Request.Context(), adminID, req.Status), nil)
}

// ResetPasswordRequest 重置密码请求
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=6,max=32"`
}

// ResetPassword 重置管理员密码
// @Summary 重置管理员密码
// @Tags 管理员管理
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "管理员ID"
// @Param request body ResetPasswordRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /admin/admins/{id}/password [put]
func (h *ManageHandler) ResetPassword(c *gin.Context) {
	_, adminID, ok := handler.RequireAdminAndParseID(c, "管理员")
	if !ok {
		return
	}

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	handler.MustSucceed(c, h.manageService.ResetAdminPassword(c.Request.Context(), adminID, req.NewPassword), nil)
}

// DeleteAdmin 删除管理员
// @Summary 删除管理员
// @Tags 管理员管理
// @Produce json
// @Security Bearer
// @Param id path int true "管理员ID"
// @Success 200 {object} response.Response
// @Router /admin/admins/{id} [delete]
func (h *ManageHandler) DeleteAdmin(c *gin.Context) {
	_, adminID, ok := handler.RequireAdminAndParseID(c, "管理员")
	if !ok {
		return
	}

	handler.MustSucceed(c, h.manageService.DeleteAdmin(c.Request.Context(), adminID), nil)
}

// RegisterRoutes 注册路由
func (h *ManageHandler) RegisterRoutes(r *gin.RouterGroup) {
	admins := r.Group("/admins")
	{
		admins.POST("", h.CreateAdmin)
		admins.GET("", h.ListAdmins)
		admins.PUT("/:id/status", h.UpdateAdminStatus)
		admins.PUT("/:id/password", h.ResetPassword)
		admins.DELETE("/:id", h.DeleteAdmin)
	}
}
