package admin

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/campus-sports-backend/internal/common/crypto"
	"github.com/dumeirei/campus-sports-backend/internal/common/errors"
	"github.com/dumeirei/campus-sports-backend/internal/models"
	"github.com/dumeirei/campus-sports-backend/internal/repository"
)

// AdminManageService 管理员账号管理服务，仅平台管理员可用
type AdminManageService struct {
	adminRepo      *repository.AdminRepository
	universityRepo *repository.UniversityRepository
}

// NewAdminManageService 创建管理员账号管理服务
func NewAdminManageService(
	adminRepo *repository.AdminRepository,
	universityRepo *repository.UniversityRepository,
) *AdminManageService {
	return &AdminManageService{
		adminRepo:      adminRepo,
		universityRepo: universityRepo,
	}
}

// CreateAdminRequest 创建管理员请求
type CreateAdminRequest struct {
	Username     string  `json:"username" binding:"required,min=3,max=50"`
	Password     string  `json:"password" binding:"required,min=6,max=32"`
	Name         string  `json:"name" binding:"required"`
	Phone        *string `json:"phone,omitempty"`
	Email        *string `json:"email,omitempty"`
	Role         string  `json:"role" binding:"required"`
	UniversityID *int64  `json:"university_id,omitempty"`
}

// CreateAdmin 创建管理员，学校管理员必须关联学校
func (s *AdminManageService) CreateAdmin(ctx context.Context, req *CreateAdminRequest) (*models.Admin, error) {
	if req.Role != models.AdminRoleSuper && req.Role != models.AdminRoleUniversity {
		return nil, errors.ErrInvalidParams.WithMessage("无效的管理员角色")
	}
	if req.Role == models.AdminRoleUniversity {
		if req.UniversityID == nil {
			return nil, errors.ErrInvalidParams.WithMessage("学校管理员必须关联学校")
		}
		if _, err := s.universityRepo.GetByID(ctx, *req.UniversityID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, errors.ErrUniversityNotFound
			}
			return nil, errors.ErrDatabaseError.WithError(err)
		}
	}

	exists, err := s.adminRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil, errors.ErrAlreadyExists.WithMessage("用户名已存在")
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	admin := &models.Admin{
		Username:     req.Username,
		PasswordHash: hash,
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		Role:         req.Role,
		UniversityID: req.UniversityID,
		Status:       models.AdminStatusActive,
	}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return admin, nil
}

// ListAdminsRequest 管理员列表请求
type ListAdminsRequest struct {
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
	Role         string `form:"role"`
	UniversityID *int64 `form:"university_id"`
}

// ListAdmins 分页查询管理员
func (s *AdminManageService) ListAdmins(ctx context.Context, req *ListAdminsRequest) ([]*models.Admin, int64, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 20
	}

	filters := make(map[string]interface{})
	if req.Role != "" {
		filters["role"] = req.Role
	}
	if req.UniversityID != nil {
		filters["university_id"] = *req.UniversityID
	}

	admins, total, err := s.adminRepo.List(ctx, (req.Page-1)*req.PageSize, req.PageSize, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return admins, total, nil
}

// UpdateAdminStatus 启用或禁用管理员
func (s *AdminManageService) UpdateAdminStatus(ctx context.Context, adminID int64, status int8) error {
	if status != models.AdminStatusActive && status != models.AdminStatusDisabled {
		return errors.ErrInvalidParams.WithMessage("无效的状态")
	}
	if _, err := s.adminRepo.GetByID(ctx, adminID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrAdminNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if err := s.adminRepo.UpdateStatus(ctx, adminID, status); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// ResetAdminPassword 重置管理员密码
func (s *AdminManageService) ResetAdminPassword(ctx context.Context, adminID int64, newPassword string) error {
	if len(newPassword) < 6 {
		return errors.ErrInvalidParams.WithMessage("密码长度不足")
	}
	if _, err := s.adminRepo.GetByID(ctx, adminID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrAdminNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return errors.ErrInternalError.WithError(err)
	}
	if err := s.adminRepo.UpdatePassword(ctx, adminID, hash); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// DeleteAdmin 删除管理员
func (s *AdminManageService) DeleteAdmin(ctx context.Context, adminID int64) error {
	if _, err := s.adminRepo.GetByID(ctx, adminID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrAdminNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if err := s.adminRepo.Delete(ctx, adminID); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}
