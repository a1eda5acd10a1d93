package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/campus-sports-backend/internal/models"
)

// UniversityRepository 学校仓储
type UniversityRepository struct {
	db *gorm.DB
}

// NewUniversityRepository 创建学校仓储
func NewUniversityRepository(db *gorm.DB) *UniversityRepository {
	return &UniversityRepository{db: db}
}

// Create 创建学校
func (r *UniversityRepository) Create(ctx context.Context, university *models.University) error {
	return r.db.WithContext(ctx).Create(university).Error
}

// GetByID 根据 ID 获取学校
func (r *UniversityRepository) GetByID(ctx context.Context, id int64) (*models.University, error) {
	var university models.University
	err := r.db.WithContext(ctx).First(&university, id).Error
	if err != nil {
		return nil, err
	}
	return &university, nil
}

// GetByIDWithFacilities 根据 ID 获取学校（包含场馆）
func (r *UniversityRepository) GetByIDWithFacilities(ctx context.Context, id int64) (*models.University, error) {
	var university models.University
	err := r.db.WithContext(ctx).Preload("Facilities").First(&university, id).Error
	if err != nil {
		return nil, err
	}
	return &university, nil
}

// Update 更新学校
func (r *UniversityRepository) Update(ctx context.Context, university *models.University) error {
	return r.db.WithContext(ctx).Save(university).Error
}

// UpdateFields 更新指定字段
func (r *UniversityRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.University{}).Where("id = ?", id).Updates(fields).Error
}

// Delete 删除学校
func (r *UniversityRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.University{}, id).Error
}

// List 获取学校列表
func (r *UniversityRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.University, int64, error) {
	var universities []*models.University
	var total int64

	query := r.db.WithContext(ctx).Model(&models.University{})

	// 应用过滤条件
	if name, ok := filters["name"].(string); ok && name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}
	if city, ok := filters["city"].(string); ok && city != "" {
		query = query.Where("city = ?", city)
	}
	if status, ok := filters["status"].(int8); ok {
		query = query.Where("status = ?", status)
	}

	// 统计总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 查询列表
	if err := query.Order("id ASC").Offset(offset).Limit(limit).Find(&universities).Error; err != nil {
		return nil, 0, err
	}

	return universities, total, nil
}

// ExistsByName 检查学校名称是否存在
func (r *UniversityRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.University{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

// Count 统计学校数量
func (r *UniversityRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.University{}).Count(&count).Error
	return count, err
}
