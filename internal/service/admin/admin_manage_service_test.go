package admin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/campus-sports-backend/internal/common/errors"
	"github.com/dumeirei/campus-sports-backend/internal/common/utils"
	"github.com/dumeirei/campus-sports-backend/internal/models"
	"github.com/dumeirei/campus-sports-backend/internal/repository"
)

func setupManageTest(t *testing.T) (*gorm.DB, *AdminManageService) {
	db := setupAdminTestDB(t)
	svc := NewAdminManageService(
		repository.NewAdminRepository(db),
		repository.NewUniversityRepository(db),
	)
	return db, svc
}

func createTestUniversity(t *testing.T, db *gorm.DB, name string) *models.University {
	uni := &models.University{
		Name:   name,
		Status: models.UniversityStatusActive,
	}
	require.NoError(t, db.Create(uni).Error)
	return uni
}

func TestAdminManageService_CreateAdmin(t *testing.T) {
	db, svc := setupManageTest(t)
	ctx := context.Background()

	uni := createTestUniversity(t, db, "清华大学")

	t.Run("创建学校管理员", func(t *testing.T) {
		admin, err := svc.CreateAdmin(ctx, &CreateAdminRequest{
			Username:     "thu_admin",
			Password:     "admin123",
			Name:         "体育馆管理员",
			Role:         models.AdminRoleUniversity,
			UniversityID: &uni.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, models.AdminStatusActive, int(admin.Status))
		assert.NotEqual(t, "admin123", admin.PasswordHash)
	})

	t.Run("用户名重复", func(t *testing.T) {
		_, err := svc.CreateAdmin(ctx, &CreateAdminRequest{
			Username:     "thu_admin",
			Password:     "admin123",
			Name:         "another",
			Role:         models.AdminRoleUniversity,
			UniversityID: &uni.ID,
		})
		require.Error(t, err)
		assert.Equal(t, errors.ErrAlreadyExists.Code, errors.GetAppError(err).Code)
	})

	t.Run("学校管理员缺少学校", func(t *testing.T) {
		_, err := svc.CreateAdmin(ctx, &CreateAdminRequest{
			Username: "no_uni",
			Password: "admin123",
			Name:     "x",
			Role:     models.AdminRoleUniversity,
		})
		require.Error(t, err)
		assert.Equal(t, errors.ErrInvalidParams.Code, errors.GetAppError(err).Code)
	})

	t.Run("学校不存在", func(t *testing.T) {
		_, err := svc.CreateAdmin(ctx, &CreateAdminRequest{
			Username:     "ghost_uni",
			Password:     "admin123",
			Name:         "x",
			Role:         models.AdminRoleUniversity,
			UniversityID: utils.Int64Ptr(99999),
		})
		assert.ErrorIs(t, err, errors.ErrUniversityNotFound)
	})

	t.Run("无效角色", func(t *testing.T) {
		_, err := svc.CreateAdmin(ctx, &CreateAdminRequest{
			Username: "badrole",
			Password: "admin123",
			Name:     "x",
			Role:     "moderator",
		})
		require.Error(t, err)
		assert.Equal(t, errors.ErrInvalidParams.Code, errors.GetAppError(err).Code)
	})

	t.Run("平台管理员无需学校", func(t *testing.T) {
		admin, err := svc.CreateAdmin(ctx, &CreateAdminRequest{
			Username: "platform",
			Password: "admin123",
			Name:     "平台管理员",
			Role:     models.AdminRoleSuper,
		})
		require.NoError(t, err)
		assert.Nil(t, admin.UniversityID)
	})
}

func TestAdminManageService_ListAndStatus(t *testing.T) {
	db, svc := setupManageTest(t)
	ctx := context.Background()

	uni := createTestUniversity(t, db, "北京大学")
	for _, name := range []string{"a1", "a2"} {
		_, err := svc.CreateAdmin(ctx, &CreateAdminRequest{
			Username:     name,
			Password:     "admin123",
			Name:         name,
			Role:         models.AdminRoleUniversity,
			UniversityID: &uni.ID,
		})
		require.NoError(t, err)
	}
	super, err := svc.CreateAdmin(ctx, &CreateAdminRequest{
		Username: "root",
		Password: "admin123",
		Name:     "root",
		Role:     models.AdminRoleSuper,
	})
	require.NoError(t, err)

	t.Run("按角色过滤", func(t *testing.T) {
		admins, total, err := svc.ListAdmins(ctx, &ListAdminsRequest{Role: models.AdminRoleUniversity})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, admins, 2)
	})

	t.Run("按学校过滤", func(t *testing.T) {
		_, total, err := svc.ListAdmins(ctx, &ListAdminsRequest{UniversityID: &uni.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("禁用与启用", func(t *testing.T) {
		require.NoError(t, svc.UpdateAdminStatus(ctx, super.ID, models.AdminStatusDisabled))

		var admin models.Admin
		require.NoError(t, db.First(&admin, super.ID).Error)
		assert.Equal(t, models.AdminStatusDisabled, int(admin.Status))

		require.NoError(t, svc.UpdateAdminStatus(ctx, super.ID, models.AdminStatusActive))
	})

	t.Run("无效状态", func(t *testing.T) {
		err := svc.UpdateAdminStatus(ctx, super.ID, 9)
		require.Error(t, err)
		assert.Equal(t, errors.ErrInvalidParams.Code, errors.GetAppError(err).Code)
	})

	t.Run("重置密码", func(t *testing.T) {
		require.NoError(t, svc.ResetAdminPassword(ctx, super.ID, "brand-new-pass"))

		authSvc := NewAdminAuthService(repository.NewAdminRepository(db), newTestJWTManager())
		_, err := authSvc.Login(ctx, &LoginRequest{Username: "root", Password: "brand-new-pass"})
		require.NoError(t, err)
	})

	t.Run("删除管理员", func(t *testing.T) {
		require.NoError(t, svc.DeleteAdmin(ctx, super.ID))
		err := svc.DeleteAdmin(ctx, super.ID)
		assert.ErrorIs(t, err, errors.ErrAdminNotFound)
	})
}
