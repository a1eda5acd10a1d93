package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/campus-sports-backend/internal/common/handler"
	"github.com/dumeirei/campus-sports-backend/internal/common/response"
	adminService "github.com/dumeirei/campus-sports-backend/internal/service/admin"
)

// UserHandler 用户管理处理器
type UserHandler struct {
	userAdminService *adminService.UserAdminService
	adminAuthService *adminService.AdminAuthService
}

// NewUserHandler 创建用户管理处理器
func NewUserHandler(
	userAdminSvc *adminService.UserAdminService,
	adminAuthSvc *adminService.AdminAuthService,
) *UserHandler {
	return &UserHandler{
		userAdminService: userAdminSvc,
		adminAuthService: adminAuthSvc,
	}
}

// ListUsers 用户列表
// @Summary 用户列表
// @Tags 用户管理
// @Produce json
// @Security Bearer
// @Param university_id query int false "学校ID（平台管理员）"
// @Param status query int false "状态过滤"
// @Param phone query string false "手机号模糊查询"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	scope, ok := resolveScope(c, h.adminAuthService)
	if !ok {
		return
	}

	var req adminService.ListUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}
	if scope != nil {
		req.UniversityID = scope
	}

	list, total, err := h.userAdminService.ListUsers(c.Request.Context(), &req)
	handler.MustSucceedPage(c, err, list, total, req.Page, req.PageSize)
}

// GetUser 用户详情
// @Summary 用户详情
// @Tags 用户管理
// @Produce json
// @Security Bearer
// @Param id path int true "用户ID"
// @Success 200 {object} response.Response{data=models.User}
// @Router /admin/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	_, userID, ok := handler.RequireAdminAndParseID(c, "用户")
	if !ok {
		return
	}

	user, err := h.userAdminService.GetUser(c.Request.Context(), userID)
	handler.MustSucceed(c, err, user)
}

// UpdateUserStatusRequest 更新用户状态请求
type UpdateUserStatusRequest struct {
	Status int8 `json:"status"`
}

// UpdateUserStatus 更新用户状态
// @Summary 更新用户状态
// @Description 0 禁用 / 1 正常
// @Tags 用户管理
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "用户ID"
// @Param request body UpdateUserStatusRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /admin/users/{id}/status [put]
func (h *UserHandler) UpdateUserStatus(c *gin.Context) {
	_, userID, ok := handler.RequireAdminAndParseID(c, "用户")
	if !ok {
		return
	}

	var req UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	handler.MustSucceed(c, h.userAdminService.UpdateUserStatus(c.Request.Context(), userID, req.Status), nil)
}

// VerifyStudent 学生认证
// @Summary 学生认证
// @Description 认证后学号加密存储，用户与学校绑定
// @Tags 用户管理
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "用户ID"
// @Param request body adminService.VerifyStudentRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /admin/users/{id}/verify [post]
func (h *UserHandler) VerifyStudent(c *gin.Context) {
	scope, ok := resolveScope(c, h.adminAuthService)
	if !ok {
		return
	}
	userID, ok := handler.ParseID(c, "用户")
	if !ok {
		return
	}

	var req adminService.VerifyStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}
	if !withinScope(scope, req.UniversityID) {
		response.Forbidden(c, "无权认证其他学校的学生")
		return
	}

	handler.MustSucceed(c, h.userAdminService.VerifyStudent(c.Request.Context(), userID, &req), nil)
}

// GetStudentID 查询学号
// @Summary 查询学号
// @Description 解密返回已认证用户的学号
// @Tags 用户管理
// @Produce json
// @Security Bearer
// @Param id path int true "用户ID"
// @Success 200 {object} response.Response
// @Router /admin/users/{id}/student-id [get]
func (h *UserHandler) GetStudentID(c *gin.Context) {
	_, userID, ok := handler.RequireAdminAndParseID(c, "用户")
	if !ok {
		return
	}

	studentID, err := h.userAdminService.GetStudentID(c.Request.Context(), userID)
	if handler.HandleError(c, err) {
		return
	}

	response.Success(c, gin.H{"student_id": studentID})
}

// RegisterRoutes 注册路由
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id/status", h.UpdateUserStatus)
		users.POST("/:id/verify", h.VerifyStudent)
		users.GET("/:id/student-id", h.GetStudentID)
	}
}
