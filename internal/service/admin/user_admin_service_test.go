package admin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/campus-sports-backend/internal/common/crypto"
	"github.com/dumeirei/campus-sports-backend/internal/common/errors"
	"github.com/dumeirei/campus-sports-backend/internal/common/utils"
	"github.com/dumeirei/campus-sports-backend/internal/models"
	"github.com/dumeirei/campus-sports-backend/internal/repository"
)

func setupUserAdminTest(t *testing.T) (*gorm.DB, *UserAdminService) {
	db := setupAdminTestDB(t)
	aes, err := crypto.NewAES("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	svc := NewUserAdminService(repository.NewUserRepository(db), aes)
	return db, svc
}

func TestUserAdminService_ListUsers(t *testing.T) {
	db, svc := setupUserAdminTest(t)
	ctx := context.Background()

	uni := createTestUniversity(t, db, "列表学校")
	require.NoError(t, db.Create(&models.User{
		Phone:        utils.StringPtr("13800001111"),
		Nickname:     "甲",
		UniversityID: &uni.ID,
		Status:       models.UserStatusActive,
	}).Error)
	require.NoError(t, db.Create(&models.User{
		Phone:    utils.StringPtr("13800002222"),
		Nickname: "乙",
		Status:   models.UserStatusDisabled,
	}).Error)

	t.Run("全部用户", func(t *testing.T) {
		users, total, err := svc.ListUsers(ctx, &ListUsersRequest{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, users, 2)
	})

	t.Run("按学校过滤", func(t *testing.T) {
		_, total, err := svc.ListUsers(ctx, &ListUsersRequest{UniversityID: &uni.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("按状态过滤", func(t *testing.T) {
		status := int8(models.UserStatusDisabled)
		users, total, err := svc.ListUsers(ctx, &ListUsersRequest{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "乙", users[0].Nickname)
	})

	t.Run("按手机号模糊查询", func(t *testing.T) {
		users, total, err := svc.ListUsers(ctx, &ListUsersRequest{Phone: "0000111"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "甲", users[0].Nickname)
	})
}

func TestUserAdminService_UpdateUserStatus(t *testing.T) {
	db, svc := setupUserAdminTest(t)
	ctx := context.Background()

	user := &models.User{Nickname: "丙", Status: models.UserStatusActive}
	require.NoError(t, db.Create(user).Error)

	require.NoError(t, svc.UpdateUserStatus(ctx, user.ID, models.UserStatusDisabled))

	var updated models.User
	require.NoError(t, db.First(&updated, user.ID).Error)
	assert.Equal(t, models.UserStatusDisabled, int(updated.Status))

	t.Run("用户不存在", func(t *testing.T) {
		err := svc.UpdateUserStatus(ctx, 99999, models.UserStatusActive)
		assert.ErrorIs(t, err, errors.ErrUserNotFound)
	})

	t.Run("无效状态", func(t *testing.T) {
		err := svc.UpdateUserStatus(ctx, user.ID, 7)
		require.Error(t, err)
		assert.Equal(t, errors.ErrInvalidParams.Code, errors.GetAppError(err).Code)
	})
}

func TestUserAdminService_VerifyStudent(t *testing.T) {
	db, svc := setupUserAdminTest(t)
	ctx := context.Background()

	uni := createTestUniversity(t, db, "认证学校")
	user := &models.User{Nickname: "丁", Status: models.UserStatusActive}
	require.NoError(t, db.Create(user).Error)

	require.NoError(t, svc.VerifyStudent(ctx, user.ID, &VerifyStudentRequest{
		UniversityID: uni.ID,
		StudentID:    "2021012345",
	}))

	var updated models.User
	require.NoError(t, db.First(&updated, user.ID).Error)
	assert.True(t, updated.IsVerified)
	require.NotNil(t, updated.UniversityID)
	assert.Equal(t, uni.ID, *updated.UniversityID)

	// 学号密文存储
	require.NotNil(t, updated.StudentIDEncrypted)
	assert.NotEqual(t, "2021012345", *updated.StudentIDEncrypted)

	studentID, err := svc.GetStudentID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "2021012345", studentID)

	t.Run("未认证用户无学号", func(t *testing.T) {
		other := &models.User{Nickname: "戊", Status: models.UserStatusActive}
		require.NoError(t, db.Create(other).Error)

		_, err := svc.GetStudentID(ctx, other.ID)
		require.Error(t, err)
		assert.Equal(t, errors.ErrNotFound.Code, errors.GetAppError(err).Code)
	})
}
