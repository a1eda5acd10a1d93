// Package booking 提供预订全生命周期服务
package booking

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/campus-sports-backend/internal/common/errors"
	"github.com/dumeirei/campus-sports-backend/internal/common/logger"
	"github.com/dumeirei/campus-sports-backend/internal/common/qrcode"
	"github.com/dumeirei/campus-sports-backend/internal/models"
	"github.com/dumeirei/campus-sports-backend/internal/repository"
	"github.com/dumeirei/campus-sports-backend/internal/service/facility"
	"github.com/dumeirei/campus-sports-backend/pkg/eventbus"
)

// maxCodeAttempts 预订码碰撞重试上限
const maxCodeAttempts = 5

// AdminCancelReason 管理端取消的默认原因
const AdminCancelReason = "Cancelled by administrator"

// ExpireCancelReason 支付超时自动取消的原因
const ExpireCancelReason = "Payment window expired"

// BookingService 预订服务
type BookingService struct {
	db           *gorm.DB
	bookingRepo  *repository.BookingRepository
	facilityRepo *repository.FacilityRepository
	availability *facility.AvailabilityService
	codeSvc      *CodeService
	qrGen        *qrcode.Generator
	publisher    eventbus.Publisher
}

// NewBookingService 创建预订服务
func NewBookingService(
	db *gorm.DB,
	bookingRepo *repository.BookingRepository,
	facilityRepo *repository.FacilityRepository,
	availability *facility.AvailabilityService,
	codeSvc *CodeService,
	qrGen *qrcode.Generator,
	publisher eventbus.Publisher,
) *BookingService {
	if publisher == nil {
		publisher = eventbus.NopPublisher{}
	}
	return &BookingService{
		db:           db,
		bookingRepo:  bookingRepo,
		facilityRepo: facilityRepo,
		availability: availability,
		codeSvc:      codeSvc,
		qrGen:        qrGen,
		publisher:    publisher,
	}
}

// CreateBookingRequest 创建预订请求
type CreateBookingRequest struct {
	FacilityID int64  `json:"facility_id" binding:"required"`
	Date       string `json:"date" binding:"required"`
	StartTime  string `json:"start_time" binding:"required"`
	EndTime    string `json:"end_time" binding:"required"`
}

// CreateBooking 创建预订
// 校验与落库在同一事务内完成，提交前重查冲突，保证同一场馆同日不会出现重叠的有效预订
func (s *BookingService) CreateBooking(ctx context.Context, userID int64, req *CreateBookingRequest) (*models.Booking, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, errors.ErrInvalidParams.WithMessage("日期格式错误，应为 YYYY-MM-DD")
	}
	// 按日期字符串比较，避免解析时区与本地时区不一致
	if req.Date < time.Now().Format("2006-01-02") {
		return nil, errors.ErrBookingDatePassed.WithMessage("不能预订过去的日期")
	}

	fac, err := s.facilityRepo.GetByIDWithUniversity(ctx, req.FacilityID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrFacilityNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if fac.Status != models.FacilityStatusActive {
		return nil, errors.ErrFacilityInactive
	}

	duration, err := s.availability.ValidateWindow(ctx, fac, date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		UserID:        userID,
		FacilityID:    fac.ID,
		UniversityID:  fac.UniversityID,
		Date:          normalizeDate(date),
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Duration:      duration,
		TotalPrice:    Price(fac.PricePerHour, duration),
		Currency:      fac.Currency,
		Status:        models.BookingStatusPending,
		PaymentStatus: models.BookingPaymentUnpaid,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := repository.NewBookingRepository(tx)

		// 锁定场馆行，同一场馆的冲突重检和插入在此串行
		// 否则 READ COMMITTED 下两个并发事务互相看不到对方未提交的插入
		if err := repository.NewFacilityRepository(tx).LockByID(ctx, fac.ID); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		// 窗口校验到提交之间可能有并发写入，事务内再查一次
		conflict, err := txRepo.ExistsOverlap(ctx, fac.ID, date, req.StartTime, req.EndTime)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if conflict {
			return errors.ErrBookingConflict
		}

		for i := 0; i < maxCodeAttempts; i++ {
			code := s.codeSvc.GenerateCode()
			exists, err := txRepo.ExistsByCode(ctx, code)
			if err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
			if !exists {
				booking.BookingCode = code
				break
			}
		}
		if booking.BookingCode == "" {
			return errors.ErrOperationFailed.WithMessage("预订码生成失败")
		}

		if err := txRepo.Create(ctx, booking); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		if s.qrGen != nil {
			content, err := s.codeSvc.BuildQRContent(booking, fac.Name)
			if err != nil {
				return errors.ErrOperationFailed.WithError(err)
			}
			dataURL, err := s.qrGen.GenerateDataURL(content)
			if err != nil {
				return errors.ErrOperationFailed.WithError(err)
			}
			booking.QRCode = &dataURL
			if err := tx.Model(&models.Booking{}).Where("id = ?", booking.ID).
				Update("qr_code", dataURL).Error; err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.IsAppError(err) {
			return nil, err
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.availability.InvalidateDay(ctx, fac.ID, date)
	s.publishEvent(ctx, eventbus.TopicBookingCreated, booking)
	return booking, nil
}

// GetBooking 用户查询自己的预订
func (s *BookingService) GetBooking(ctx context.Context, userID, bookingID int64) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByIDWithDetails(ctx, bookingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if booking.UserID != userID {
		return nil, errors.ErrPermissionDenied
	}
	return booking, nil
}

// GetBookingByID 管理端按 ID 查询预订
func (s *BookingService) GetBookingByID(ctx context.Context, bookingID int64) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByIDWithDetails(ctx, bookingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return booking, nil
}

// VerifyByCode 按预订码查询预订，核销前展示用
func (s *BookingService) VerifyByCode(ctx context.Context, code string) (*models.Booking, error) {
	code = s.codeSvc.NormalizeCode(code)
	if !s.codeSvc.ValidateCode(code) {
		return nil, errors.ErrInvalidParams.WithMessage("预订码格式错误")
	}
	booking, err := s.bookingRepo.GetByCodeWithDetails(ctx, code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBookingCodeNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return booking, nil
}

// ListUserBookings 用户预订列表
func (s *BookingService) ListUserBookings(ctx context.Context, userID int64, page, pageSize int, status *string) ([]*models.Booking, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	bookings, total, err := s.bookingRepo.ListByUser(ctx, userID, (page-1)*pageSize, pageSize, status)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return bookings, total, nil
}

// ListBookings 管理端预订列表
func (s *BookingService) ListBookings(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]*models.Booking, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	bookings, total, err := s.bookingRepo.List(ctx, (page-1)*pageSize, pageSize, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return bookings, total, nil
}

// CancelBooking 用户取消预订
func (s *BookingService) CancelBooking(ctx context.Context, userID, bookingID int64, reason string) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if booking.UserID != userID {
		return nil, errors.ErrPermissionDenied
	}
	return s.cancel(ctx, booking, &userID, reason)
}

// cancel 执行取消，终态预订拒绝任何变更
func (s *BookingService) cancel(ctx context.Context, booking *models.Booking, actorID *int64, reason string) (*models.Booking, error) {
	if booking.IsTerminal() {
		return nil, errors.ErrBookingTerminal
	}

	now := time.Now()
	fields := map[string]interface{}{
		"status":              models.BookingStatusCancelled,
		"cancelled_at":        now,
		"cancelled_by":        actorID,
		"cancellation_reason": reason,
	}
	if err := s.bookingRepo.UpdateFields(ctx, booking.ID, fields); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	booking.Status = models.BookingStatusCancelled
	booking.CancelledAt = &now
	booking.CancelledBy = actorID
	booking.CancellationReason = &reason

	s.availability.InvalidateDay(ctx, booking.FacilityID, booking.Date)
	s.publishEvent(ctx, eventbus.TopicBookingCancelled, booking)
	return booking, nil
}

// CheckInByCode 扫码核销
// 拒绝原因逐项区分：状态不对、未支付、已核销、日期已过
func (s *BookingService) CheckInByCode(ctx context.Context, code string, adminID int64) (*models.Booking, error) {
	code = s.codeSvc.NormalizeCode(code)
	booking, err := s.bookingRepo.GetByCodeWithDetails(ctx, code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBookingCodeNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return s.checkIn(ctx, booking, adminID)
}

func (s *BookingService) checkIn(ctx context.Context, booking *models.Booking, adminID int64) (*models.Booking, error) {
	if booking.Status == models.BookingStatusCancelled {
		return nil, errors.ErrBookingCancelled
	}
	if booking.Status != models.BookingStatusConfirmed {
		return nil, errors.ErrBookingNotConfirmed
	}
	if booking.PaymentStatus != models.BookingPaymentPaid {
		return nil, errors.ErrPaymentNotPaid
	}
	if booking.CheckedIn {
		return nil, errors.ErrBookingAlreadyChecked
	}
	if booking.Date.Format("2006-01-02") < time.Now().Format("2006-01-02") {
		return nil, errors.ErrBookingDatePassed
	}

	now := time.Now()
	fields := map[string]interface{}{
		"checked_in":    true,
		"checked_in_at": now,
		"checked_in_by": adminID,
	}
	if err := s.bookingRepo.UpdateFields(ctx, booking.ID, fields); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	booking.CheckedIn = true
	booking.CheckedInAt = &now
	booking.CheckedInBy = &adminID

	s.publishEvent(ctx, eventbus.TopicBookingCheckedIn, booking)
	return booking, nil
}

// AdminSetStatus 管理端修改预订状态，仅支持标记完成或取消
func (s *BookingService) AdminSetStatus(ctx context.Context, adminID, bookingID int64, status string) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if booking.IsTerminal() {
		return nil, errors.ErrBookingTerminal
	}

	switch status {
	case models.BookingStatusCompleted:
		now := time.Now()
		fields := map[string]interface{}{"status": models.BookingStatusCompleted}
		if !booking.CheckedIn {
			fields["checked_in"] = true
			fields["checked_in_at"] = now
			fields["checked_in_by"] = adminID
			booking.CheckedIn = true
			booking.CheckedInAt = &now
			booking.CheckedInBy = &adminID
		}
		if err := s.bookingRepo.UpdateFields(ctx, booking.ID, fields); err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		booking.Status = models.BookingStatusCompleted

		s.availability.InvalidateDay(ctx, booking.FacilityID, booking.Date)
		s.publishEvent(ctx, eventbus.TopicBookingCompleted, booking)
		return booking, nil
	case models.BookingStatusCancelled:
		return s.cancel(ctx, booking, &adminID, AdminCancelReason)
	default:
		return nil, errors.ErrInvalidParams.WithMessage("仅支持将预订标记为已完成或已取消")
	}
}

// ProcessCompleted 将已过结束时间的已确认预订批量标记完成，定时任务调用
func (s *BookingService) ProcessCompleted(ctx context.Context, now time.Time, limit int) (int, error) {
	bookings, err := s.bookingRepo.ListToComplete(ctx, now, limit)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}

	completed := 0
	for _, b := range bookings {
		fields := map[string]interface{}{"status": models.BookingStatusCompleted}
		if err := s.bookingRepo.UpdateFields(ctx, b.ID, fields); err != nil {
			logger.Error("标记预订完成失败",
				logger.Int64("booking_id", b.ID),
				logger.Err(err))
			continue
		}
		b.Status = models.BookingStatusCompleted
		s.publishEvent(ctx, eventbus.TopicBookingCompleted, b)
		completed++
	}
	return completed, nil
}

// ProcessExpired 取消超过支付时限的待支付预订，定时任务调用
func (s *BookingService) ProcessExpired(ctx context.Context, createdBefore time.Time, limit int) (int, error) {
	bookings, err := s.bookingRepo.ListExpiredPending(ctx, createdBefore, limit)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}

	cancelled := 0
	for _, b := range bookings {
		if _, err := s.cancel(ctx, b, nil, ExpireCancelReason); err != nil {
			logger.Error("取消超时预订失败",
				logger.Int64("booking_id", b.ID),
				logger.Err(err))
			continue
		}
		cancelled++
	}
	return cancelled, nil
}

func (s *BookingService) publishEvent(ctx context.Context, topic string, booking *models.Booking) {
	event := &eventbus.Event{
		Type:        topic,
		BookingID:   booking.ID,
		BookingCode: booking.BookingCode,
		FacilityID:  booking.FacilityID,
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		logger.Warn("发布预订事件失败",
			logger.String("topic", topic),
			logger.Int64("booking_id", booking.ID),
			logger.Err(err))
	}
}

func normalizeDate(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
}
