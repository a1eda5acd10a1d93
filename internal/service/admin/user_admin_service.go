package admin

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/campus-sports-backend/internal/common/crypto"
	"github.com/dumeirei/campus-sports-backend/internal/common/errors"
	"github.com/dumeirei/campus-sports-backend/internal/models"
	"github.com/dumeirei/campus-sports-backend/internal/repository"
)

// UserAdminService 用户管理服务
type UserAdminService struct {
	userRepo *repository.UserRepository
	aes      *crypto.AES
}

// NewUserAdminService 创建用户管理服务，aes 用于学号加密存储
func NewUserAdminService(userRepo *repository.UserRepository, aes *crypto.AES) *UserAdminService {
	return &UserAdminService{
		userRepo: userRepo,
		aes:      aes,
	}
}

// ListUsersRequest 用户列表请求
type ListUsersRequest struct {
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
	UniversityID *int64 `form:"university_id"`
	Status       *int8  `form:"status"`
	Phone        string `form:"phone"`
}

// ListUsers 分页查询用户
func (s *UserAdminService) ListUsers(ctx context.Context, req *ListUsersRequest) ([]*models.User, int64, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 20
	}

	filters := make(map[string]interface{})
	if req.UniversityID != nil {
		filters["university_id"] = *req.UniversityID
	}
	if req.Status != nil {
		filters["status"] = *req.Status
	}
	if req.Phone != "" {
		filters["phone"] = req.Phone
	}

	users, total, err := s.userRepo.List(ctx, (req.Page-1)*req.PageSize, req.PageSize, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return users, total, nil
}

// GetUser 查询用户详情
func (s *UserAdminService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return user, nil
}

// UpdateUserStatus 启用或禁用用户
func (s *UserAdminService) UpdateUserStatus(ctx context.Context, userID int64, status int8) error {
	if status != models.UserStatusActive && status != models.UserStatusDisabled {
		return errors.ErrInvalidParams.WithMessage("无效的状态")
	}
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	if err := s.userRepo.UpdateStatus(ctx, userID, status); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// VerifyStudentRequest 学生认证请求
type VerifyStudentRequest struct {
	UniversityID int64  `json:"university_id" binding:"required"`
	StudentID    string `json:"student_id" binding:"required"`
}

// VerifyStudent 学生认证，学号加密存储
func (s *UserAdminService) VerifyStudent(ctx context.Context, userID int64, req *VerifyStudentRequest) error {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}

	encrypted, err := s.aes.Encrypt(req.StudentID)
	if err != nil {
		return errors.ErrInternalError.WithError(err)
	}

	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		"university_id":        req.UniversityID,
		"student_id_encrypted": encrypted,
		"is_verified":          true,
	}); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// GetStudentID 解密学号，仅认证用户有学号
func (s *UserAdminService) GetStudentID(ctx context.Context, userID int64) (string, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.StudentIDEncrypted == nil || *user.StudentIDEncrypted == "" {
		return "", errors.ErrNotFound.WithMessage("用户未认证学号")
	}
	studentID, err := s.aes.Decrypt(*user.StudentIDEncrypted)
	if err != nil {
		return "", errors.ErrInternalError.WithError(err)
	}
	return studentID, nil
}
