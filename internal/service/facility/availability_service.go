// Package facility 提供场馆与时段可用性服务
package facility

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/dumeirei/campus-sports-backend/internal/common/cache"
	"github.com/dumeirei/campus-sports-backend/internal/common/errors"
	"github.com/dumeirei/campus-sports-backend/internal/common/timeutil"
	"github.com/dumeirei/campus-sports-backend/internal/models"
	"github.com/dumeirei/campus-sports-backend/internal/repository"
)

// DefaultSlotMinutes 默认时段长度（分钟）
const DefaultSlotMinutes = 60

// availabilityCacheTTL 当日可用性缓存时长
const availabilityCacheTTL = 30 * time.Second

// AvailabilityService 时段可用性服务
type AvailabilityService struct {
	db           *gorm.DB
	facilityRepo *repository.FacilityRepository
	scheduleRepo *repository.ScheduleRepository
	bookingRepo  *repository.BookingRepository
	cache        *redis.Client
	slotMinutes  int
}

// NewAvailabilityService 创建时段可用性服务
func NewAvailabilityService(
	db *gorm.DB,
	facilityRepo *repository.FacilityRepository,
	scheduleRepo *repository.ScheduleRepository,
	bookingRepo *repository.BookingRepository,
	cacheClient *redis.Client,
	slotMinutes int,
) *AvailabilityService {
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}
	return &AvailabilityService{
		db:           db,
		facilityRepo: facilityRepo,
		scheduleRepo: scheduleRepo,
		bookingRepo:  bookingRepo,
		cache:        cacheClient,
		slotMinutes:  slotMinutes,
	}
}

// WeekdayKey 日期对应的营业时间表键
func WeekdayKey(date time.Time) string {
	return strings.ToLower(date.Weekday().String())
}

// GenerateSlots 根据单日营业时间生成候选时段序列
// 从 open 起按 slotMinutes 切片，末尾不足一个时段的部分丢弃；闭馆日返回空序列
func GenerateSlots(day models.DayHours, slotMinutes int) ([]models.SlotItem, error) {
	if !day.IsOpen {
		return []models.SlotItem{}, nil
	}

	openMin, err := timeutil.ParseClock(day.Open)
	if err != nil {
		return nil, errors.ErrOperatingHoursErr.WithError(err)
	}
	closeMin, err := timeutil.ParseClock(day.Close)
	if err != nil {
		return nil, errors.ErrOperatingHoursErr.WithError(err)
	}
	if closeMin <= openMin {
		return nil, errors.ErrOperatingHoursErr.WithMessage("营业结束时刻必须晚于开始时刻")
	}

	slots := make([]models.SlotItem, 0, (closeMin-openMin)/slotMinutes)
	for cursor := openMin; cursor+slotMinutes <= closeMin; cursor += slotMinutes {
		slots = append(slots, models.SlotItem{
			StartTime:   timeutil.FormatClock(cursor),
			EndTime:     timeutil.FormatClock(cursor + slotMinutes),
			IsAvailable: true,
		})
	}
	return slots, nil
}

// Overlaps 半开区间 [aStart,aEnd) 与 [bStart,bEnd) 是否重叠，端点相接不算
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// ResolveAvailability 将有效预订叠加到时段模板上，返回标注后的时段序列
func ResolveAvailability(slots []models.SlotItem, bookings []*models.Booking) []models.SlotItem {
	result := make([]models.SlotItem, len(slots))
	for i, slot := range slots {
		result[i] = slot
		if !slot.IsAvailable {
			continue
		}
		slotStart, err1 := timeutil.ParseClock(slot.StartTime)
		slotEnd, err2 := timeutil.ParseClock(slot.EndTime)
		if err1 != nil || err2 != nil {
			result[i].IsAvailable = false
			continue
		}
		for _, b := range bookings {
			bStart, err1 := timeutil.ParseClock(b.StartTime)
			bEnd, err2 := timeutil.ParseClock(b.EndTime)
			if err1 != nil || err2 != nil {
				continue
			}
			if Overlaps(slotStart, slotEnd, bStart, bEnd) {
				result[i].IsAvailable = false
				break
			}
		}
	}
	return result
}

// DayAvailability 场馆单日可用性
type DayAvailability struct {
	FacilityID int64             `json:"facility_id"`
	Date       string            `json:"date"`
	IsOpen     bool              `json:"is_open"`
	Slots      []models.SlotItem `json:"slots"`
}

// GetDayAvailability 查询场馆指定日期的可用时段
// 排期模板按 facility+date 惰性创建一次，预订占用在每次查询时动态叠加
func (s *AvailabilityService) GetDayAvailability(ctx context.Context, facilityID int64, date time.Time) (*DayAvailability, error) {
	dateKey := date.Format("2006-01-02")
	cacheKey := availabilityCacheKey(facilityID, dateKey)

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached DayAvailability
			if json.Unmarshal(data, &cached) == nil {
				return &cached, nil
			}
		}
	}

	facility, err := s.facilityRepo.GetByID(ctx, facilityID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrFacilityNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if facility.Status != models.FacilityStatusActive {
		return nil, errors.ErrFacilityInactive
	}

	day, ok := facility.OperatingHours[WeekdayKey(date)]
	if !ok || !day.IsOpen {
		return &DayAvailability{
			FacilityID: facilityID,
			Date:       dateKey,
			IsOpen:     false,
			Slots:      []models.SlotItem{},
		}, nil
	}

	schedule, err := s.getOrCreateSchedule(ctx, facility, date, day)
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookingRepo.ListActiveByFacilityAndDate(ctx, facilityID, date)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	result := &DayAvailability{
		FacilityID: facilityID,
		Date:       dateKey,
		IsOpen:     true,
		Slots:      ResolveAvailability(schedule.Slots, bookings),
	}

	if s.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, availabilityCacheTTL).Err()
		}
	}

	return result, nil
}

// getOrCreateSchedule 获取排期模板，不存在时惰性创建
func (s *AvailabilityService) getOrCreateSchedule(ctx context.Context, facility *models.Facility, date time.Time, day models.DayHours) (*models.Schedule, error) {
	schedule, err := s.scheduleRepo.GetByFacilityAndDate(ctx, facility.ID, date)
	if err == nil {
		return schedule, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	slots, err := GenerateSlots(day, s.slotMinutes)
	if err != nil {
		return nil, err
	}
	schedule = &models.Schedule{
		FacilityID: facility.ID,
		Date:       normalizeDate(date),
		Slots:      slots,
	}
	if createErr := s.scheduleRepo.Create(ctx, schedule); createErr != nil {
		// 并发首查时唯一索引可能已被另一请求占用，回读即可
		schedule, err = s.scheduleRepo.GetByFacilityAndDate(ctx, facility.ID, date)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(createErr)
		}
	}
	return schedule, nil
}

// ValidateWindow 校验请求窗口：格式合法、落在营业时间内、与有效预订无重叠
// 返回窗口时长（分钟）
func (s *AvailabilityService) ValidateWindow(ctx context.Context, facility *models.Facility, date time.Time, startTime, endTime string) (int, error) {
	start, err := timeutil.ParseClock(startTime)
	if err != nil {
		return 0, err
	}
	end, err := timeutil.ParseClock(endTime)
	if err != nil {
		return 0, err
	}
	if end <= start {
		return 0, errors.ErrTimeSlotInvalid.WithMessage("结束时刻必须晚于开始时刻")
	}

	day, ok := facility.OperatingHours[WeekdayKey(date)]
	if !ok || !day.IsOpen {
		return 0, errors.ErrFacilityClosed
	}
	openMin, err := timeutil.ParseClock(day.Open)
	if err != nil {
		return 0, errors.ErrOperatingHoursErr.WithError(err)
	}
	closeMin, err := timeutil.ParseClock(day.Close)
	if err != nil {
		return 0, errors.ErrOperatingHoursErr.WithError(err)
	}
	if start < openMin || end > closeMin {
		return 0, errors.ErrSlotOutOfHours
	}

	exists, err := s.bookingRepo.ExistsOverlap(ctx, facility.ID, date, startTime, endTime)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return 0, errors.ErrBookingConflict
	}

	return end - start, nil
}

// InvalidateDay 清除场馆单日可用性缓存（预订创建/取消后调用）
func (s *AvailabilityService) InvalidateDay(ctx context.Context, facilityID int64, date time.Time) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, availabilityCacheKey(facilityID, date.Format("2006-01-02"))).Err()
}

func availabilityCacheKey(facilityID int64, dateKey string) string {
	return cache.BuildKey("availability", formatID(facilityID), dateKey)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func normalizeDate(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
}
