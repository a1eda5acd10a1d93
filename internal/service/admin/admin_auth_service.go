// Package admin 提供管理端服务
package admin

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/campus-sports-backend/internal/common/crypto"
	"github.com/dumeirei/campus-sports-backend/internal/common/errors"
	"github.com/dumeirei/campus-sports-backend/internal/common/jwt"
	"github.com/dumeirei/campus-sports-backend/internal/models"
	"github.com/dumeirei/campus-sports-backend/internal/repository"
)

// AdminAuthService 管理员认证服务
type AdminAuthService struct {
	adminRepo  *repository.AdminRepository
	jwtManager *jwt.Manager
}

// NewAdminAuthService 创建管理员认证服务
func NewAdminAuthService(adminRepo *repository.AdminRepository, jwtManager *jwt.Manager) *AdminAuthService {
	return &AdminAuthService{
		adminRepo:  adminRepo,
		jwtManager: jwtManager,
	}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	IP       string `json:"-"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Admin     *AdminInfo     `json:"admin"`
	TokenPair *jwt.TokenPair `json:"token"`
}

// AdminInfo 管理员信息（不含敏感字段）
type AdminInfo struct {
	ID           int64   `json:"id"`
	Username     string  `json:"username"`
	Name         string  `json:"name"`
	Phone        *string `json:"phone,omitempty"`
	Email        *string `json:"email,omitempty"`
	Role         string  `json:"role"`
	UniversityID *int64  `json:"university_id,omitempty"`
}

// Login 管理员登录
func (s *AdminAuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	admin, err := s.adminRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrAdminNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if admin.Status != models.AdminStatusActive {
		return nil, errors.ErrAccountDisabled
	}

	if !crypto.VerifyPassword(req.Password, admin.PasswordHash) {
		return nil, errors.ErrPasswordError
	}

	tokenPair, err := s.jwtManager.GenerateTokenPair(admin.ID, jwt.UserTypeAdmin, admin.Role)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	// 登录信息更新失败不阻塞登录
	_ = s.adminRepo.UpdateLoginInfo(ctx, admin.ID, req.IP)

	return &LoginResponse{
		Admin:     s.toAdminInfo(admin),
		TokenPair: tokenPair,
	}, nil
}

// GetAdminInfo 获取管理员信息
func (s *AdminAuthService) GetAdminInfo(ctx context.Context, adminID int64) (*AdminInfo, error) {
	admin, err := s.adminRepo.GetByID(ctx, adminID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrAdminNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return s.toAdminInfo(admin), nil
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=32"`
}

// ChangePassword 修改密码
func (s *AdminAuthService) ChangePassword(ctx context.Context, adminID int64, req *ChangePasswordRequest) error {
	admin, err := s.adminRepo.GetByID(ctx, adminID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrAdminNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	if !crypto.VerifyPassword(req.OldPassword, admin.PasswordHash) {
		return errors.ErrPasswordError
	}

	hash, err := crypto.HashPassword(req.NewPassword)
	if err != nil {
		return errors.ErrInternalError.WithError(err)
	}

	if err := s.adminRepo.UpdatePassword(ctx, adminID, hash); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// RefreshToken 刷新 Token
func (s *AdminAuthService) RefreshToken(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	tokenPair, err := s.jwtManager.RefreshToken(refreshToken)
	if err != nil {
		if err == jwt.ErrTokenExpired {
			return nil, errors.ErrTokenExpired
		}
		return nil, errors.ErrTokenInvalid
	}
	return tokenPair, nil
}

// ValidateAdminToken 校验管理员令牌
func (s *AdminAuthService) ValidateAdminToken(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.jwtManager.ParseToken(token)
	if err != nil {
		if err == jwt.ErrTokenExpired {
			return nil, errors.ErrTokenExpired
		}
		return nil, errors.ErrTokenInvalid
	}
	if claims.UserType != jwt.UserTypeAdmin {
		return nil, errors.ErrPermissionDenied
	}
	return claims, nil
}

// toAdminInfo 转换为管理员信息
func (s *AdminAuthService) toAdminInfo(admin *models.Admin) *AdminInfo {
	return &AdminInfo{
		ID:           admin.ID,
		Username:     admin.Username,
		Name:         admin.Name,
		Phone:        admin.Phone,
		Email:        admin.Email,
		Role:         admin.Role,
		UniversityID: admin.UniversityID,
	}
}
