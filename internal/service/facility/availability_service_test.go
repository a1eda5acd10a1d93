// Package facility 时段可用性服务单元测试
package facility

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/campus-sports-backend/internal/common/errors"
	"github.com/dumeirei/campus-sports-backend/internal/models"
	"github.com/dumeirei/campus-sports-backend/internal/repository"
)

func setupAvailabilityTest(t *testing.T) (*gorm.DB, *AvailabilityService) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.University{}, &models.Facility{}, &models.Schedule{}, &models.Booking{})
	require.NoError(t, err)

	svc := NewAvailabilityService(
		db,
		repository.NewFacilityRepository(db),
		repository.NewScheduleRepository(db),
		repository.NewBookingRepository(db),
		nil,
		DefaultSlotMinutes,
	)
	return db, svc
}

// 2026-09-07 是周一
var testMonday = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

func createTestFacility(t *testing.T, db *gorm.DB, hours models.OperatingHours) *models.Facility {
	facility := &models.Facility{
		UniversityID:   1,
		Name:           "测试篮球场",
		SportType:      models.SportTypeBasketball,
		PricePerHour:   6000,
		Currency:       models.CurrencyCNY,
		OperatingHours: hours,
		Status:         models.FacilityStatusActive,
	}
	require.NoError(t, db.Create(facility).Error)
	return facility
}

func TestGenerateSlots(t *testing.T) {
	t.Run("整点营业窗口", func(t *testing.T) {
		slots, err := GenerateSlots(models.DayHours{IsOpen: true, Open: "09:00", Close: "12:00"}, 60)
		require.NoError(t, err)
		require.Len(t, slots, 3)
		assert.Equal(t, "09:00", slots[0].StartTime)
		assert.Equal(t, "10:00", slots[0].EndTime)
		assert.Equal(t, "11:00", slots[2].StartTime)
		assert.Equal(t, "12:00", slots[2].EndTime)
		for _, s := range slots {
			assert.True(t, s.IsAvailable)
		}
	})

	t.Run("末尾不足一个时段丢弃", func(t *testing.T) {
		full, err := GenerateSlots(models.DayHours{IsOpen: true, Open: "09:00", Close: "12:00"}, 60)
		require.NoError(t, err)
		partial, err := GenerateSlots(models.DayHours{IsOpen: true, Open: "09:00", Close: "12:30"}, 60)
		require.NoError(t, err)
		assert.Equal(t, full, partial)
	})

	t.Run("闭馆日返回空序列", func(t *testing.T) {
		slots, err := GenerateSlots(models.DayHours{IsOpen: false, Open: "09:00", Close: "12:00"}, 60)
		require.NoError(t, err)
		assert.Empty(t, slots)
	})

	t.Run("营业窗口短于一个时段", func(t *testing.T) {
		slots, err := GenerateSlots(models.DayHours{IsOpen: true, Open: "09:00", Close: "09:30"}, 60)
		require.NoError(t, err)
		assert.Empty(t, slots)
	})

	t.Run("自定义时段长度", func(t *testing.T) {
		slots, err := GenerateSlots(models.DayHours{IsOpen: true, Open: "09:00", Close: "10:30"}, 30)
		require.NoError(t, err)
		require.Len(t, slots, 3)
		assert.Equal(t, "09:30", slots[1].StartTime)
	})

	t.Run("生成结果确定且可重复", func(t *testing.T) {
		day := models.DayHours{IsOpen: true, Open: "08:00", Close: "22:00"}
		first, err := GenerateSlots(day, 60)
		require.NoError(t, err)
		second, err := GenerateSlots(day, 60)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("营业时间格式非法", func(t *testing.T) {
		_, err := GenerateSlots(models.DayHours{IsOpen: true, Open: "9:00", Close: "12:00"}, 60)
		assert.Error(t, err)
	})
}

func TestOverlaps(t *testing.T) {
	t.Run("端点相接不算重叠", func(t *testing.T) {
		assert.False(t, Overlaps(540, 600, 600, 660))
		assert.False(t, Overlaps(600, 660, 540, 600))
	})

	t.Run("部分重叠", func(t *testing.T) {
		assert.True(t, Overlaps(570, 630, 600, 660))
	})

	t.Run("包含关系", func(t *testing.T) {
		assert.True(t, Overlaps(540, 720, 600, 660))
		assert.True(t, Overlaps(600, 660, 540, 720))
	})

	t.Run("对称性", func(t *testing.T) {
		cases := [][4]int{
			{540, 600, 600, 660},
			{570, 630, 600, 660},
			{540, 720, 600, 660},
			{0, 60, 120, 180},
		}
		for _, c := range cases {
			assert.Equal(t, Overlaps(c[0], c[1], c[2], c[3]), Overlaps(c[2], c[3], c[0], c[1]))
		}
	})
}

func TestResolveAvailability(t *testing.T) {
	slots := []models.SlotItem{
		{StartTime: "09:00", EndTime: "10:00", IsAvailable: true},
		{StartTime: "10:00", EndTime: "11:00", IsAvailable: true},
		{StartTime: "11:00", EndTime: "12:00", IsAvailable: true},
	}

	t.Run("预订占用对应时段", func(t *testing.T) {
		bookings := []*models.Booking{
			{StartTime: "10:00", EndTime: "11:00", Status: models.BookingStatusConfirmed},
		}
		resolved := ResolveAvailability(slots, bookings)
		assert.True(t, resolved[0].IsAvailable)
		assert.False(t, resolved[1].IsAvailable)
		assert.True(t, resolved[2].IsAvailable)
	})

	t.Run("跨时段预订占用多个时段", func(t *testing.T) {
		bookings := []*models.Booking{
			{StartTime: "09:30", EndTime: "10:30", Status: models.BookingStatusPending},
		}
		resolved := ResolveAvailability(slots, bookings)
		assert.False(t, resolved[0].IsAvailable)
		assert.False(t, resolved[1].IsAvailable)
		assert.True(t, resolved[2].IsAvailable)
	})

	t.Run("模板不可用时保持不可用", func(t *testing.T) {
		tpl := []models.SlotItem{
			{StartTime: "09:00", EndTime: "10:00", IsAvailable: false},
		}
		resolved := ResolveAvailability(tpl, nil)
		assert.False(t, resolved[0].IsAvailable)
	})

	t.Run("无预订时全部可用", func(t *testing.T) {
		resolved := ResolveAvailability(slots, nil)
		for _, s := range resolved {
			assert.True(t, s.IsAvailable)
		}
	})
}

func TestAvailabilityService_GetDayAvailability(t *testing.T) {
	db, svc := setupAvailabilityTest(t)
	ctx := context.Background()

	facility := createTestFacility(t, db, models.OperatingHours{
		"monday": {IsOpen: true, Open: "09:00", Close: "12:00"},
	})

	t.Run("惰性创建排期并返回时段", func(t *testing.T) {
		result, err := svc.GetDayAvailability(ctx, facility.ID, testMonday)
		require.NoError(t, err)
		assert.True(t, result.IsOpen)
		require.Len(t, result.Slots, 3)

		// 排期模板应已落库
		var count int64
		db.Model(&models.Schedule{}).Where("facility_id = ?", facility.ID).Count(&count)
		assert.Equal(t, int64(1), count)

		// 重复查询不会再建排期，结果一致
		again, err := svc.GetDayAvailability(ctx, facility.ID, testMonday)
		require.NoError(t, err)
		assert.Equal(t, result.Slots, again.Slots)
		db.Model(&models.Schedule{}).Where("facility_id = ?", facility.ID).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("有效预订动态占用时段", func(t *testing.T) {
		db.Create(&models.Booking{
			BookingCode: "OCCUPY01", UserID: 1, FacilityID: facility.ID, UniversityID: 1,
			Date: testMonday, StartTime: "10:00", EndTime: "11:00", Duration: 60,
			TotalPrice: 6000, Currency: models.CurrencyCNY,
			Status: models.BookingStatusConfirmed, PaymentStatus: models.BookingPaymentPaid,
		})

		result, err := svc.GetDayAvailability(ctx, facility.ID, testMonday)
		require.NoError(t, err)
		assert.True(t, result.Slots[0].IsAvailable)
		assert.False(t, result.Slots[1].IsAvailable)
		assert.True(t, result.Slots[2].IsAvailable)

		// 动态占用不写回模板
		var schedule models.Schedule
		require.NoError(t, db.Where("facility_id = ?", facility.ID).First(&schedule).Error)
		for _, s := range schedule.Slots {
			assert.True(t, s.IsAvailable)
		}
	})

	t.Run("闭馆日返回空时段", func(t *testing.T) {
		sunday := time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC)
		result, err := svc.GetDayAvailability(ctx, facility.ID, sunday)
		require.NoError(t, err)
		assert.False(t, result.IsOpen)
		assert.Empty(t, result.Slots)
	})

	t.Run("场馆不存在", func(t *testing.T) {
		_, err := svc.GetDayAvailability(ctx, 99999, testMonday)
		assert.ErrorIs(t, err, errors.ErrFacilityNotFound)
	})

	t.Run("场馆未开放", func(t *testing.T) {
		closed := createTestFacility(t, db, models.OperatingHours{
			"monday": {IsOpen: true, Open: "09:00", Close: "12:00"},
		})
		db.Model(closed).Update("status", models.FacilityStatusMaintenance)

		_, err := svc.GetDayAvailability(ctx, closed.ID, testMonday)
		assert.ErrorIs(t, err, errors.ErrFacilityInactive)
	})
}

func TestAvailabilityService_ValidateWindow(t *testing.T) {
	db, svc := setupAvailabilityTest(t)
	ctx := context.Background()

	facility := createTestFacility(t, db, models.OperatingHours{
		"monday": {IsOpen: true, Open: "09:00", Close: "18:00"},
	})

	db.Create(&models.Booking{
		BookingCode: "EXIST001", UserID: 1, FacilityID: facility.ID, UniversityID: 1,
		Date: testMonday, StartTime: "10:00", EndTime: "11:00", Duration: 60,
		TotalPrice: 6000, Currency: models.CurrencyCNY,
		Status: models.BookingStatusConfirmed, PaymentStatus: models.BookingPaymentPaid,
	})

	t.Run("空闲窗口通过并返回时长", func(t *testing.T) {
		duration, err := svc.ValidateWindow(ctx, facility, testMonday, "14:00", "15:30")
		require.NoError(t, err)
		assert.Equal(t, 90, duration)
	})

	t.Run("部分重叠被拒绝", func(t *testing.T) {
		_, err := svc.ValidateWindow(ctx, facility, testMonday, "09:30", "10:30")
		assert.ErrorIs(t, err, errors.ErrBookingConflict)
	})

	t.Run("端点相接可预订", func(t *testing.T) {
		_, err := svc.ValidateWindow(ctx, facility, testMonday, "11:00", "12:00")
		assert.NoError(t, err)
	})

	t.Run("已取消的预订不阻塞", func(t *testing.T) {
		db.Create(&models.Booking{
			BookingCode: "CANCEL01", UserID: 1, FacilityID: facility.ID, UniversityID: 1,
			Date: testMonday, StartTime: "16:00", EndTime: "17:00", Duration: 60,
			TotalPrice: 6000, Currency: models.CurrencyCNY,
			Status: models.BookingStatusCancelled, PaymentStatus: models.BookingPaymentUnpaid,
		})
		_, err := svc.ValidateWindow(ctx, facility, testMonday, "16:00", "17:00")
		assert.NoError(t, err)
	})

	t.Run("超出营业时间", func(t *testing.T) {
		_, err := svc.ValidateWindow(ctx, facility, testMonday, "08:00", "09:00")
		assert.ErrorIs(t, err, errors.ErrSlotOutOfHours)

		_, err = svc.ValidateWindow(ctx, facility, testMonday, "17:30", "18:30")
		assert.ErrorIs(t, err, errors.ErrSlotOutOfHours)
	})

	t.Run("闭馆日被拒绝", func(t *testing.T) {
		sunday := time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC)
		_, err := svc.ValidateWindow(ctx, facility, sunday, "10:00", "11:00")
		assert.ErrorIs(t, err, errors.ErrFacilityClosed)
	})

	t.Run("结束不晚于开始", func(t *testing.T) {
		_, err := svc.ValidateWindow(ctx, facility, testMonday, "11:00", "11:00")
		assert.Error(t, err)

		_, err = svc.ValidateWindow(ctx, facility, testMonday, "12:00", "11:00")
		assert.Error(t, err)
	})

	t.Run("时刻格式非法", func(t *testing.T) {
		_, err := svc.ValidateWindow(ctx, facility, testMonday, "25:00", "26:00")
		assert.Error(t, err)
	})
}
