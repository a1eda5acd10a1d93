package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/campus-sports-backend/internal/models"
)

// ScheduleRepository 排期仓储
type ScheduleRepository struct {
	db *gorm.DB
}

// NewScheduleRepository 创建排期仓储
func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Create 创建排期
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}

// GetByFacilityAndDate 根据场馆和日期获取排期
func (r *ScheduleRepository) GetByFacilityAndDate(ctx context.Context, facilityID int64, date time.Time) (*models.Schedule, error) {
	var schedule models.Schedule
	err := r.db.WithContext(ctx).
		Where("facility_id = ?", facilityID).
		Where("date = ?", normalizeDate(date)).
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// DeleteByFacility 删除场馆的全部排期
func (r *ScheduleRepository) DeleteByFacility(ctx context.Context, facilityID int64) error {
	return r.db.WithContext(ctx).
		Where("facility_id = ?", facilityID).
		Delete(&models.Schedule{}).Error
}

// DeleteBefore 删除指定日期之前的排期
func (r *ScheduleRepository) DeleteBefore(ctx context.Context, date time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("date < ?", normalizeDate(date)).
		Delete(&models.Schedule{})
	return result.RowsAffected, result.Error
}

// normalizeDate 将日期的时分秒归零
func normalizeDate(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
}
