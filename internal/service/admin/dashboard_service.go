package admin

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/campus-sports-backend/internal/common/errors"
	"github.com/dumeirei/campus-sports-backend/internal/models"
	"github.com/dumeirei/campus-sports-backend/internal/repository"
)

// DashboardService 管理端统计服务
// universityID 为 nil 表示平台维度，否则只统计该学校的数据
type DashboardService struct {
	db           *gorm.DB
	bookingRepo  *repository.BookingRepository
	facilityRepo *repository.FacilityRepository
}

// NewDashboardService 创建统计服务
func NewDashboardService(
	db *gorm.DB,
	bookingRepo *repository.BookingRepository,
	facilityRepo *repository.FacilityRepository,
) *DashboardService {
	return &DashboardService{
		db:           db,
		bookingRepo:  bookingRepo,
		facilityRepo: facilityRepo,
	}
}

// Overview 概览数据，金额为最小货币单位
type Overview struct {
	TotalUsers    int64 `json:"total_users"`
	TodayNewUsers int64 `json:"today_new_users"`

	TotalFacilities int64 `json:"total_facilities"`
	OpenFacilities  int64 `json:"open_facilities"`

	TotalBookings     int64 `json:"total_bookings"`
	TodayBookings     int64 `json:"today_bookings"`
	PendingBookings   int64 `json:"pending_bookings"`
	ConfirmedBookings int64 `json:"confirmed_bookings"`
	CompletedBookings int64 `json:"completed_bookings"`
	CancelledBookings int64 `json:"cancelled_bookings"`
	CheckedInBookings int64 `json:"checked_in_bookings"`

	TotalRevenue int64 `json:"total_revenue"`
}

// GetOverview 获取概览数据
func (s *DashboardService) GetOverview(ctx context.Context, universityID *int64) (*Overview, error) {
	overview := &Overview{}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tomorrow := today.Add(24 * time.Hour)

	// 用户统计
	userQuery := s.db.WithContext(ctx).Model(&models.User{})
	if universityID != nil {
		userQuery = userQuery.Where("university_id = ?", *universityID)
	}
	if err := userQuery.Count(&overview.TotalUsers).Error; err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	todayUserQuery := s.db.WithContext(ctx).Model(&models.User{}).
		Where("created_at >= ? AND created_at < ?", today, tomorrow)
	if universityID != nil {
		todayUserQuery = todayUserQuery.Where("university_id = ?", *universityID)
	}
	if err := todayUserQuery.Count(&overview.TodayNewUsers).Error; err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	// 场馆统计
	facilityQuery := s.db.WithContext(ctx).Model(&models.Facility{})
	if universityID != nil {
		facilityQuery = facilityQuery.Where("university_id = ?", *universityID)
	}
	if err := facilityQuery.Count(&overview.TotalFacilities).Error; err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	openQuery := s.db.WithContext(ctx).Model(&models.Facility{}).
		Where("status = ?", models.FacilityStatusActive)
	if universityID != nil {
		openQuery = openQuery.Where("university_id = ?", *universityID)
	}
	if err := openQuery.Count(&overview.OpenFacilities).Error; err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	// 预订统计
	byStatus, err := s.bookingRepo.CountByStatus(ctx, universityID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	overview.PendingBookings = byStatus[models.BookingStatusPending]
	overview.ConfirmedBookings = byStatus[models.BookingStatusConfirmed]
	overview.CompletedBookings = byStatus[models.BookingStatusCompleted]
	overview.CancelledBookings = byStatus[models.BookingStatusCancelled]
	for _, count := range byStatus {
		overview.TotalBookings += count
	}

	overview.TodayBookings, err = s.bookingRepo.CountToday(ctx, universityID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	checkedInQuery := s.db.WithContext(ctx).Model(&models.Booking{}).
		Where("checked_in = ?", true)
	if universityID != nil {
		checkedInQuery = checkedInQuery.Where("university_id = ?", *universityID)
	}
	if err := checkedInQuery.Count(&overview.CheckedInBookings).Error; err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	overview.TotalRevenue, err = s.bookingRepo.SumRevenue(ctx, universityID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	return overview, nil
}

// FacilityUtilization 场馆预订统计
type FacilityUtilization struct {
	FacilityID   int64  `json:"facility_id"`
	FacilityName string `json:"facility_name"`
	BookingCount int64  `json:"booking_count"`
}

// GetFacilityUtilization 按场馆统计预订量，预订量多的在前
func (s *DashboardService) GetFacilityUtilization(ctx context.Context, universityID *int64) ([]*FacilityUtilization, error) {
	counts, err := s.bookingRepo.CountByFacility(ctx, universityID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	var facilities []*models.Facility
	if universityID != nil {
		facilities, err = s.facilityRepo.ListByUniversity(ctx, *universityID)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
	} else {
		if err := s.db.WithContext(ctx).Order("id").Find(&facilities).Error; err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
	}

	result := make([]*FacilityUtilization, 0, len(facilities))
	for _, f := range facilities {
		result = append(result, &FacilityUtilization{
			FacilityID:   f.ID,
			FacilityName: f.Name,
			BookingCount: counts[f.ID],
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].BookingCount > result[j].BookingCount
	})
	return result, nil
}

// TrendPoint 预订趋势点
type TrendPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// GetBookingTrend 按预订日期统计最近 days 天的预订量
func (s *DashboardService) GetBookingTrend(ctx context.Context, universityID *int64, days int) ([]*TrendPoint, error) {
	if days < 1 || days > 90 {
		days = 7
	}
	now := time.Now()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -(days - 1))

	type row struct {
		Date  time.Time
		Count int64
	}
	var rows []row
	query := s.db.WithContext(ctx).Model(&models.Booking{}).
		Select("date, count(*) as count").
		Where("date >= ?", since).
		Group("date").
		Order("date")
	if universityID != nil {
		query = query.Where("university_id = ?", *universityID)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	byDate := make(map[string]int64, len(rows))
	for _, r := range rows {
		byDate[r.Date.Format("2006-01-02")] = r.Count
	}

	points := make([]*TrendPoint, 0, days)
	for i := 0; i < days; i++ {
		d := since.AddDate(0, 0, i).Format("2006-01-02")
		points = append(points, &TrendPoint{Date: d, Count: byDate[d]})
	}
	return points, nil
}
