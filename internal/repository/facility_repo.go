package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dumeirei/campus-sports-backend/internal/models"
)

// FacilityRepository 场馆仓储
type FacilityRepository struct {
	db *gorm.DB
}

// NewFacilityRepository 创建场馆仓储
func NewFacilityRepository(db *gorm.DB) *FacilityRepository {
	return &FacilityRepository{db: db}
}

// Create 创建场馆
func (r *FacilityRepository) Create(ctx context.Context, facility *models.Facility) error {
	return r.db.WithContext(ctx).Create(facility).Error
}

// GetByID 根据 ID 获取场馆
func (r *FacilityRepository) GetByID(ctx context.Context, id int64) (*models.Facility, error) {
	var facility models.Facility
	err := r.db.WithContext(ctx).First(&facility, id).Error
	if err != nil {
		return nil, err
	}
	return &facility, nil
}

// LockByID 以 FOR UPDATE 锁定场馆行，作为同一场馆并发预订写入的串行点
// sqlite 单写者本身串行且不支持行锁，直接放行
func (r *FacilityRepository) LockByID(ctx context.Context, id int64) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	var facility models.Facility
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Take(&facility, id).Error
}

// GetByIDWithUniversity 根据 ID 获取场馆（包含学校信息）
func (r *FacilityRepository) GetByIDWithUniversity(ctx context.Context, id int64) (*models.Facility, error) {
	var facility models.Facility
	err := r.db.WithContext(ctx).Preload("University").First(&facility, id).Error
	if err != nil {
		return nil, err
	}
	return &facility, nil
}

// Update 更新场馆
func (r *FacilityRepository) Update(ctx context.Context, facility *models.Facility) error {
	return r.db.WithContext(ctx).Save(facility).Error
}

// UpdateFields 更新指定字段
func (r *FacilityRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Facility{}).Where("id = ?", id).Updates(fields).Error
}

// UpdateStatus 更新场馆状态
func (r *FacilityRepository) UpdateStatus(ctx context.Context, id int64, status int8) error {
	return r.db.WithContext(ctx).Model(&models.Facility{}).Where("id = ?", id).Update("status", status).Error
}

// Delete 删除场馆
func (r *FacilityRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Facility{}, id).Error
}

// List 获取场馆列表
func (r *FacilityRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Facility, int64, error) {
	var facilities []*models.Facility
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Facility{})

	// 应用过滤条件
	if universityID, ok := filters["university_id"].(int64); ok && universityID > 0 {
		query = query.Where("university_id = ?", universityID)
	}
	if sportType, ok := filters["sport_type"].(string); ok && sportType != "" {
		query = query.Where("sport_type = ?", sportType)
	}
	if name, ok := filters["name"].(string); ok && name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}
	if status, ok := filters["status"].(int8); ok {
		query = query.Where("status = ?", status)
	}

	// 统计总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 查询列表
	if err := query.Order("id ASC").Offset(offset).Limit(limit).Find(&facilities).Error; err != nil {
		return nil, 0, err
	}

	return facilities, total, nil
}

// ListByUniversity 获取学校的场馆列表
func (r *FacilityRepository) ListByUniversity(ctx context.Context, universityID int64) ([]*models.Facility, error) {
	var facilities []*models.Facility
	err := r.db.WithContext(ctx).
		Where("university_id = ?", universityID).
		Order("id ASC").
		Find(&facilities).Error
	return facilities, err
}

// CountByUniversity 统计学校的场馆数量
func (r *FacilityRepository) CountByUniversity(ctx context.Context, universityID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Facility{}).
		Where("university_id = ?", universityID).
		Count(&count).Error
	return count, err
}

// Count 统计场馆数量
func (r *FacilityRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Facility{}).Count(&count).Error
	return count, err
}
