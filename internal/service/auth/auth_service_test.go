package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dumeirei/campus-sports-backend/internal/common/errors"
	"github.com/dumeirei/campus-sports-backend/internal/common/jwt"
	"github.com/dumeirei/campus-sports-backend/internal/common/utils"
	"github.com/dumeirei/campus-sports-backend/internal/models"
	"github.com/dumeirei/campus-sports-backend/internal/repository"
)

func setupAuthServiceTest(t *testing.T) (*gorm.DB, *AuthService) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.University{}, &models.User{})
	require.NoError(t, err)

	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            "test-secret",
		AccessExpireTime:  time.Hour,
		RefreshExpireTime: 24 * time.Hour,
		Issuer:            "campus-sports-test",
	})

	redisClient, _ := newTestRedisClient(t)
	codeService := NewCodeService(redisClient, &stubSMSSender{}, nil)

	svc := NewAuthService(db, repository.NewUserRepository(db), jwtManager, codeService)
	return db, svc
}

func TestAuthService_Register(t *testing.T) {
	_, svc := setupAuthServiceTest(t)
	ctx := context.Background()

	t.Run("注册成功", func(t *testing.T) {
		resp, err := svc.Register(ctx, &RegisterRequest{
			Phone:        "13900139000",
			Password:     "secret123",
			Email:        utils.StringPtr("alice@example.edu"),
			Nickname:     "Alice",
			UniversityID: utils.Int64Ptr(1),
		})
		require.NoError(t, err)
		assert.True(t, resp.IsNewUser)
		assert.Equal(t, "Alice", resp.User.Nickname)
		assert.NotEmpty(t, resp.TokenPair.AccessToken)
		assert.NotEmpty(t, resp.TokenPair.RefreshToken)
	})

	t.Run("手机号重复", func(t *testing.T) {
		_, err := svc.Register(ctx, &RegisterRequest{
			Phone:    "13900139000",
			Password: "secret123",
		})
		assert.ErrorIs(t, err, errors.ErrPhoneExists)
	})

	t.Run("邮箱重复", func(t *testing.T) {
		_, err := svc.Register(ctx, &RegisterRequest{
			Phone:    "13900139001",
			Password: "secret123",
			Email:    utils.StringPtr("alice@example.edu"),
		})
		assert.ErrorIs(t, err, errors.ErrEmailExists)
	})

	t.Run("无效手机号", func(t *testing.T) {
		_, err := svc.Register(ctx, &RegisterRequest{
			Phone:    "12345",
			Password: "secret123",
		})
		assert.ErrorIs(t, err, errors.ErrPhoneInvalid)
	})

	t.Run("无效邮箱", func(t *testing.T) {
		_, err := svc.Register(ctx, &RegisterRequest{
			Phone:    "13900139002",
			Password: "secret123",
			Email:    utils.StringPtr("not-an-email"),
		})
		assert.ErrorIs(t, err, errors.ErrEmailInvalid)
	})

	t.Run("默认昵称取手机号后四位", func(t *testing.T) {
		resp, err := svc.Register(ctx, &RegisterRequest{
			Phone:    "13900139003",
			Password: "secret123",
		})
		require.NoError(t, err)
		assert.Equal(t, "用户9003", resp.User.Nickname)
	})
}

func TestAuthService_PasswordLogin(t *testing.T) {
	db, svc := setupAuthServiceTest(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{
		Phone:    "13900139100",
		Password: "secret123",
		Email:    utils.StringPtr("bob@example.edu"),
		Nickname: "Bob",
	})
	require.NoError(t, err)

	t.Run("手机号登录", func(t *testing.T) {
		resp, err := svc.PasswordLogin(ctx, &PasswordLoginRequest{
			Account:  "13900139100",
			Password: "secret123",
		})
		require.NoError(t, err)
		assert.False(t, resp.IsNewUser)
		assert.Equal(t, "Bob", resp.User.Nickname)
		assert.NotEmpty(t, resp.TokenPair.AccessToken)

		var user models.User
		require.NoError(t, db.First(&user, resp.User.ID).Error)
		assert.NotNil(t, user.LastLoginAt)
	})

	t.Run("邮箱登录", func(t *testing.T) {
		resp, err := svc.PasswordLogin(ctx, &PasswordLoginRequest{
			Account:  "bob@example.edu",
			Password: "secret123",
		})
		require.NoError(t, err)
		assert.Equal(t, "Bob", resp.User.Nickname)
	})

	t.Run("密码错误", func(t *testing.T) {
		_, err := svc.PasswordLogin(ctx, &PasswordLoginRequest{
			Account:  "13900139100",
			Password: "wrong-password",
		})
		assert.ErrorIs(t, err, errors.ErrPasswordError)
	})

	t.Run("用户不存在", func(t *testing.T) {
		_, err := svc.PasswordLogin(ctx, &PasswordLoginRequest{
			Account:  "13900139999",
			Password: "secret123",
		})
		assert.ErrorIs(t, err, errors.ErrUserNotFound)
	})

	t.Run("账号被禁用", func(t *testing.T) {
		require.NoError(t, db.Model(&models.User{}).
			Where("phone = ?", "13900139100").
			Update("status", models.UserStatusDisabled).Error)

		_, err := svc.PasswordLogin(ctx, &PasswordLoginRequest{
			Account:  "13900139100",
			Password: "secret123",
		})
		assert.ErrorIs(t, err, errors.ErrAccountDisabled)
	})
}

func TestAuthService_SmsLogin(t *testing.T) {
	_, svc := setupAuthServiceTest(t)
	ctx := context.Background()
	phone := "13900139200"

	sendCodeAndRead := func(t *testing.T) string {
		require.NoError(t, svc.SendSmsCode(ctx, &SendSmsCodeRequest{Phone: phone, CodeType: CodeTypeLogin}))
		code, err := svc.codeService.redis.Get(ctx, svc.codeService.codeKey(phone, CodeTypeLogin)).Result()
		require.NoError(t, err)
		return code
	}

	t.Run("首次登录自动注册", func(t *testing.T) {
		code := sendCodeAndRead(t)
		resp, err := svc.SmsLogin(ctx, &SmsLoginRequest{Phone: phone, Code: code})
		require.NoError(t, err)
		assert.True(t, resp.IsNewUser)
		assert.Equal(t, "用户9200", resp.User.Nickname)
	})

	t.Run("再次登录不重复注册", func(t *testing.T) {
		// 清理发送频率限制键后重新发送
		svc.codeService.redis.Del(ctx, svc.codeService.sendLimitKey(phone))
		code := sendCodeAndRead(t)
		resp, err := svc.SmsLogin(ctx, &SmsLoginRequest{Phone: phone, Code: code})
		require.NoError(t, err)
		assert.False(t, resp.IsNewUser)
	})

	t.Run("验证码错误", func(t *testing.T) {
		_, err := svc.SmsLogin(ctx, &SmsLoginRequest{Phone: phone, Code: "000000"})
		assert.ErrorIs(t, err, errors.ErrSmsCodeError)
	})

	t.Run("无效手机号发送验证码被拒绝", func(t *testing.T) {
		err := svc.SendSmsCode(ctx, &SendSmsCodeRequest{Phone: "12345", CodeType: CodeTypeLogin})
		assert.ErrorIs(t, err, errors.ErrPhoneInvalid)
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	_, svc := setupAuthServiceTest(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &RegisterRequest{
		Phone:    "13900139300",
		Password: "old-secret",
	})
	require.NoError(t, err)
	userID := resp.User.ID

	t.Run("旧密码错误", func(t *testing.T) {
		err := svc.ChangePassword(ctx, userID, &ChangePasswordRequest{
			OldPassword: "wrong",
			NewPassword: "new-secret",
		})
		assert.ErrorIs(t, err, errors.ErrPasswordError)
	})

	t.Run("修改成功后旧密码失效", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(ctx, userID, &ChangePasswordRequest{
			OldPassword: "old-secret",
			NewPassword: "new-secret",
		}))

		_, err := svc.PasswordLogin(ctx, &PasswordLoginRequest{
			Account:  "13900139300",
			Password: "old-secret",
		})
		assert.ErrorIs(t, err, errors.ErrPasswordError)

		_, err = svc.PasswordLogin(ctx, &PasswordLoginRequest{
			Account:  "13900139300",
			Password: "new-secret",
		})
		require.NoError(t, err)
	})

	t.Run("用户不存在", func(t *testing.T) {
		err := svc.ChangePassword(ctx, 99999, &ChangePasswordRequest{
			OldPassword: "x",
			NewPassword: "new-secret",
		})
		assert.ErrorIs(t, err, errors.ErrUserNotFound)
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	_, svc := setupAuthServiceTest(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &RegisterRequest{
		Phone:    "13900139400",
		Password: "secret123",
	})
	require.NoError(t, err)

	t.Run("刷新成功", func(t *testing.T) {
		pair, err := svc.RefreshToken(ctx, resp.TokenPair.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
	})

	t.Run("无效令牌", func(t *testing.T) {
		_, err := svc.RefreshToken(ctx, "not-a-token")
		assert.ErrorIs(t, err, errors.ErrTokenInvalid)
	})
}

func TestAuthService_GetUserByID(t *testing.T) {
	_, svc := setupAuthServiceTest(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &RegisterRequest{
		Phone:    "13900139500",
		Password: "secret123",
	})
	require.NoError(t, err)

	user, err := svc.GetUserByID(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "13900139500", *user.Phone)

	_, err = svc.GetUserByID(ctx, 99999)
	assert.ErrorIs(t, err, errors.ErrUserNotFound)
}
