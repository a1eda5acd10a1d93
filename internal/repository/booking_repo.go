package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/campus-sports-backend/internal/models"
)

// BookingRepository 预订仓储
type BookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository 创建预订仓储
func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create 创建预订
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

// GetByID 根据 ID 获取预订
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByIDWithDetails 根据 ID 获取预订（包含关联信息）
func (r *BookingRepository) GetByIDWithDetails(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Facility").
		Preload("University").
		First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByCode 根据预订码获取预订
func (r *BookingRepository) GetByCode(ctx context.Context, code string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Where("booking_code = ?", code).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByCodeWithDetails 根据预订码获取预订（包含关联信息）
func (r *BookingRepository) GetByCodeWithDetails(ctx context.Context, code string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Facility").
		Preload("University").
		Where("booking_code = ?", code).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// Update 更新预订
func (r *BookingRepository) Update(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Save(booking).Error
}

// UpdateFields 更新指定字段
func (r *BookingRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", id).Updates(fields).Error
}

// List 获取预订列表
func (r *BookingRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Booking, int64, error) {
	var bookings []*models.Booking
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Booking{})

	// 应用过滤条件
	if userID, ok := filters["user_id"].(int64); ok && userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	if facilityID, ok := filters["facility_id"].(int64); ok && facilityID > 0 {
		query = query.Where("facility_id = ?", facilityID)
	}
	if universityID, ok := filters["university_id"].(int64); ok && universityID > 0 {
		query = query.Where("university_id = ?", universityID)
	}
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if statuses, ok := filters["statuses"].([]string); ok && len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if code, ok := filters["booking_code"].(string); ok && code != "" {
		query = query.Where("booking_code = ?", code)
	}
	if startDate, ok := filters["start_date"].(time.Time); ok {
		query = query.Where("date >= ?", normalizeDate(startDate))
	}
	if endDate, ok := filters["end_date"].(time.Time); ok {
		query = query.Where("date <= ?", normalizeDate(endDate))
	}

	// 统计总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 查询列表
	if err := query.
		Preload("Facility").
		Preload("University").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&bookings).Error; err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

// ListByUser 获取用户的预订列表
func (r *BookingRepository) ListByUser(ctx context.Context, userID int64, offset, limit int, status *string) ([]*models.Booking, int64, error) {
	filters := map[string]interface{}{
		"user_id": userID,
	}
	if status != nil {
		filters["status"] = *status
	}
	return r.List(ctx, offset, limit, filters)
}

// ListActiveByFacilityAndDate 获取场馆当日占用时段的预订（待支付/已确认）
func (r *BookingRepository) ListActiveByFacilityAndDate(ctx context.Context, facilityID int64, date time.Time) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := r.db.WithContext(ctx).
		Where("facility_id = ?", facilityID).
		Where("date = ?", normalizeDate(date)).
		Where("status IN ?", models.ActiveBookingStatuses).
		Order("start_time ASC").
		Find(&bookings).Error
	return bookings, err
}

// ExistsOverlap 检查场馆当日是否存在与 [start, end) 重叠的有效预订
// "HH:MM" 零填充字符串可按字典序比较，端点相接不算重叠
func (r *BookingRepository) ExistsOverlap(ctx context.Context, facilityID int64, date time.Time, startTime, endTime string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("facility_id = ?", facilityID).
		Where("date = ?", normalizeDate(date)).
		Where("status IN ?", models.ActiveBookingStatuses).
		Where("(start_time < ? AND end_time > ?)", endTime, startTime).
		Count(&count).Error
	return count > 0, err
}

// ExistsByCode 检查预订码是否已存在
func (r *BookingRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("booking_code = ?", code).
		Count(&count).Error
	return count > 0, err
}

// ListToComplete 获取已过结束时间、需要标记完成的已确认预订
func (r *BookingRepository) ListToComplete(ctx context.Context, now time.Time, limit int) ([]*models.Booking, error) {
	var bookings []*models.Booking
	today := normalizeDate(now)
	nowClock := now.Format("15:04")
	err := r.db.WithContext(ctx).
		Where("status = ?", models.BookingStatusConfirmed).
		Where("date < ? OR (date = ? AND end_time <= ?)", today, today, nowClock).
		Limit(limit).
		Find(&bookings).Error
	return bookings, err
}

// ListExpiredPending 获取超过支付时限的待支付预订
func (r *BookingRepository) ListExpiredPending(ctx context.Context, createdBefore time.Time, limit int) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := r.db.WithContext(ctx).
		Where("status = ?", models.BookingStatusPending).
		Where("payment_status = ?", models.BookingPaymentUnpaid).
		Where("created_at < ?", createdBefore).
		Limit(limit).
		Find(&bookings).Error
	return bookings, err
}

// CountByStatus 按状态统计预订数量
func (r *BookingRepository) CountByStatus(ctx context.Context, universityID *int64) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	query := r.db.WithContext(ctx).Model(&models.Booking{}).
		Select("status, count(*) as count").
		Group("status")
	if universityID != nil {
		query = query.Where("university_id = ?", *universityID)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[string]int64, len(rows))
	for _, r := range rows {
		result[r.Status] = r.Count
	}
	return result, nil
}

// CountToday 统计今日创建的预订数量
func (r *BookingRepository) CountToday(ctx context.Context, universityID *int64) (int64, error) {
	var count int64
	today := normalizeDate(time.Now())
	tomorrow := today.Add(24 * time.Hour)
	query := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("created_at >= ? AND created_at < ?", today, tomorrow)
	if universityID != nil {
		query = query.Where("university_id = ?", *universityID)
	}
	err := query.Count(&count).Error
	return count, err
}

// SumRevenue 统计已支付预订的收入（最小货币单位）
func (r *BookingRepository) SumRevenue(ctx context.Context, universityID *int64) (int64, error) {
	var total *int64
	query := r.db.WithContext(ctx).Model(&models.Booking{}).
		Select("sum(total_price)").
		Where("payment_status = ?", models.BookingPaymentPaid)
	if universityID != nil {
		query = query.Where("university_id = ?", *universityID)
	}
	if err := query.Scan(&total).Error; err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// CountByFacility 按场馆统计预订数量（用于场馆利用率）
func (r *BookingRepository) CountByFacility(ctx context.Context, universityID *int64) (map[int64]int64, error) {
	type row struct {
		FacilityID int64
		Count      int64
	}
	var rows []row
	query := r.db.WithContext(ctx).Model(&models.Booking{}).
		Select("facility_id, count(*) as count").
		Where("status IN ?", []string{models.BookingStatusConfirmed, models.BookingStatusCompleted}).
		Group("facility_id")
	if universityID != nil {
		query = query.Where("university_id = ?", *universityID)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[int64]int64, len(rows))
	for _, r := range rows {
		result[r.FacilityID] = r.Count
	}
	return result, nil
}
