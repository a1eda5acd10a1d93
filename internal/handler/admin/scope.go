package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/campus-sports-backend/internal/common/handler"
	"github.com/dumeirei/campus-sports-backend/internal/common/response"
	"github.com/dumeirei/campus-sports-backend/internal/middleware"
	"github.com/dumeirei/campus-sports-backend/internal/models"
	adminService "github.com/dumeirei/campus-sports-backend/internal/service/admin"
)

// resolveScope 解析当前管理员的数据范围
// 平台管理员返回 nil（不限学校），可通过 university_id 查询参数聚焦某一学校；
// 学校管理员固定返回其关联学校，越权的 university_id 参数直接忽略。
// 范围无法确定时已发送响应，调用方应当 return。
func resolveScope(c *gin.Context, authSvc *adminService.AdminAuthService) (*int64, bool) {
	adminID, ok := handler.RequireAdminID(c)
	if !ok {
		return nil, false
	}

	if middleware.GetRole(c) == models.AdminRoleSuper {
		universityID, ok := handler.ParseQueryID(c, "university_id", "学校")
		if !ok {
			return nil, false
		}
		return universityID, true
	}

	info, err := authSvc.GetAdminInfo(c.Request.Context(), adminID)
	if err != nil {
		response.Unauthorized(c, "管理员不存在")
		return nil, false
	}
	if info.UniversityID == nil {
		response.Forbidden(c, "管理员未关联学校")
		return nil, false
	}
	return info.UniversityID, true
}

// withinScope 校验目标学校是否在当前范围内
func withinScope(scope *int64, universityID int64) bool {
	return scope == nil || *scope == universityID
}
