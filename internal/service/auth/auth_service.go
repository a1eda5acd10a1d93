// Package auth 提供认证服务
package auth

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/campus-sports-backend/internal/common/crypto"
	"github.com/dumeirei/campus-sports-backend/internal/common/errors"
	"github.com/dumeirei/campus-sports-backend/internal/common/jwt"
	"github.com/dumeirei/campus-sports-backend/internal/common/utils"
	"github.com/dumeirei/campus-sports-backend/internal/models"
	"github.com/dumeirei/campus-sports-backend/internal/repository"
)

// AuthService 认证服务
type AuthService struct {
	db          *gorm.DB
	userRepo    *repository.UserRepository
	jwtManager  *jwt.Manager
	codeService *CodeService
}

// NewAuthService 创建认证服务
func NewAuthService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	jwtManager *jwt.Manager,
	codeService *CodeService,
) *AuthService {
	return &AuthService{
		db:          db,
		userRepo:    userRepo,
		jwtManager:  jwtManager,
		codeService: codeService,
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Phone        string  `json:"phone" binding:"required"`
	Password     string  `json:"password" binding:"required,min=6,max=32"`
	Email        *string `json:"email,omitempty"`
	Nickname     string  `json:"nickname"`
	UniversityID *int64  `json:"university_id,omitempty"`
}

// PasswordLoginRequest 密码登录请求
type PasswordLoginRequest struct {
	Account  string `json:"account" binding:"required"` // 手机号或邮箱
	Password string `json:"password" binding:"required"`
}

// SendSmsCodeRequest 发送短信验证码请求
type SendSmsCodeRequest struct {
	Phone    string   `json:"phone" binding:"required"`
	CodeType CodeType `json:"code_type" binding:"required"`
}

// SmsLoginRequest 短信验证码登录请求
type SmsLoginRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	User      *UserInfo      `json:"user"`
	TokenPair *jwt.TokenPair `json:"token"`
	IsNewUser bool           `json:"is_new_user"`
}

// UserInfo 用户信息
type UserInfo struct {
	ID           int64   `json:"id"`
	Phone        *string `json:"phone,omitempty"`
	Email        *string `json:"email,omitempty"`
	Nickname     string  `json:"nickname"`
	Avatar       *string `json:"avatar,omitempty"`
	UniversityID *int64  `json:"university_id,omitempty"`
	IsVerified   bool    `json:"is_verified"`
}

// Register 手机号密码注册
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*LoginResponse, error) {
	if !utils.ValidatePhone(req.Phone) {
		return nil, errors.ErrPhoneInvalid
	}
	if req.Email != nil && *req.Email != "" && !utils.ValidateEmail(*req.Email) {
		return nil, errors.ErrEmailInvalid
	}

	exists, err := s.userRepo.ExistsByPhone(ctx, req.Phone)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil, errors.ErrPhoneExists
	}
	if req.Email != nil && *req.Email != "" {
		exists, err = s.userRepo.ExistsByEmail(ctx, *req.Email)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		if exists {
			return nil, errors.ErrEmailExists
		}
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	nickname := req.Nickname
	if nickname == "" {
		nickname = s.generateNickname(req.Phone)
	}

	user := &models.User{
		Phone:        &req.Phone,
		Email:        req.Email,
		PasswordHash: hash,
		Nickname:     nickname,
		UniversityID: req.UniversityID,
		Status:       models.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	tokenPair, err := s.jwtManager.GenerateTokenPair(user.ID, jwt.UserTypeUser, "")
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	return &LoginResponse{
		User:      s.toUserInfo(user),
		TokenPair: tokenPair,
		IsNewUser: true,
	}, nil
}

// PasswordLogin 密码登录，账号支持手机号或邮箱
func (s *AuthService) PasswordLogin(ctx context.Context, req *PasswordLoginRequest) (*LoginResponse, error) {
	var (
		user *models.User
		err  error
	)
	if utils.ValidatePhone(req.Account) {
		user, err = s.userRepo.GetByPhone(ctx, req.Account)
	} else {
		user, err = s.userRepo.GetByEmail(ctx, req.Account)
	}
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if !crypto.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, errors.ErrPasswordError
	}
	if user.Status == models.UserStatusDisabled {
		return nil, errors.ErrAccountDisabled
	}

	now := time.Now()
	if err := s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{
		"last_login_at": &now,
	}); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	tokenPair, err := s.jwtManager.GenerateTokenPair(user.ID, jwt.UserTypeUser, "")
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	return &LoginResponse{
		User:      s.toUserInfo(user),
		TokenPair: tokenPair,
	}, nil
}

// SendSmsCode 发送短信验证码
func (s *AuthService) SendSmsCode(ctx context.Context, req *SendSmsCodeRequest) error {
	if !utils.ValidatePhone(req.Phone) {
		return errors.ErrPhoneInvalid
	}

	if err := s.codeService.SendCode(ctx, req.Phone, req.CodeType); err != nil {
		return errors.Wrap(errors.ErrSmsSendFail.Code, err.Error(), err)
	}

	return nil
}

// SmsLogin 短信验证码登录，未注册的手机号自动注册
func (s *AuthService) SmsLogin(ctx context.Context, req *SmsLoginRequest) (*LoginResponse, error) {
	valid, err := s.codeService.VerifyCode(ctx, req.Phone, req.Code, CodeTypeLogin)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}
	if !valid {
		return nil, errors.ErrSmsCodeError
	}

	user, isNew, err := s.findOrCreateUser(ctx, req.Phone)
	if err != nil {
		return nil, err
	}

	if user.Status == models.UserStatusDisabled {
		return nil, errors.ErrAccountDisabled
	}

	tokenPair, err := s.jwtManager.GenerateTokenPair(user.ID, jwt.UserTypeUser, "")
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	return &LoginResponse{
		User:      s.toUserInfo(user),
		TokenPair: tokenPair,
		IsNewUser: isNew,
	}, nil
}

// findOrCreateUser 查找或创建用户
func (s *AuthService) findOrCreateUser(ctx context.Context, phone string) (*models.User, bool, error) {
	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err == nil {
		return user, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, errors.ErrDatabaseError.WithError(err)
	}

	user = &models.User{
		Phone:    &phone,
		Nickname: s.generateNickname(phone),
		Status:   models.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, false, errors.ErrDatabaseError.WithError(err)
	}

	return user, true, nil
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=32"`
}

// ChangePassword 修改密码
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, req *ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrUserNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	if !crypto.VerifyPassword(req.OldPassword, user.PasswordHash) {
		return errors.ErrPasswordError
	}

	hash, err := crypto.HashPassword(req.NewPassword)
	if err != nil {
		return errors.ErrInternalError.WithError(err)
	}

	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		"password_hash": hash,
	}); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	return nil
}

// generateNickname 生成默认昵称
func (s *AuthService) generateNickname(phone string) string {
	if len(phone) >= 4 {
		return fmt.Sprintf("用户%s", phone[len(phone)-4:])
	}
	return fmt.Sprintf("用户%d", time.Now().UnixNano()%10000)
}

// toUserInfo 转换为用户信息
func (s *AuthService) toUserInfo(user *models.User) *UserInfo {
	return &UserInfo{
		ID:           user.ID,
		Phone:        user.Phone,
		Email:        user.Email,
		Nickname:     user.Nickname,
		Avatar:       user.Avatar,
		UniversityID: user.UniversityID,
		IsVerified:   user.IsVerified,
	}
}

// RefreshToken 刷新 Token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	tokenPair, err := s.jwtManager.RefreshToken(refreshToken)
	if err != nil {
		if err == jwt.ErrTokenExpired {
			return nil, errors.ErrTokenExpired
		}
		return nil, errors.ErrTokenInvalid
	}
	return tokenPair, nil
}

// GetUserByID 根据 ID 获取用户
func (s *AuthService) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return user, nil
}
