// Package scheduler 提供定时任务
package scheduler

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/campus-sports-backend/internal/common/config"
	"github.com/dumeirei/campus-sports-backend/internal/repository"
	bookingService "github.com/dumeirei/campus-sports-backend/internal/service/booking"
	paymentService "github.com/dumeirei/campus-sports-backend/internal/service/payment"
)

// TaskHandler 任务处理器
type TaskHandler struct {
	db             *gorm.DB
	scheduleRepo   *repository.ScheduleRepository
	bookingService *bookingService.BookingService
	paymentService *paymentService.PaymentService
	business       config.BusinessConfig
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(
	db *gorm.DB,
	scheduleRepo *repository.ScheduleRepository,
	bookingSvc *bookingService.BookingService,
	paymentSvc *paymentService.PaymentService,
	business config.BusinessConfig,
) *TaskHandler {
	return &TaskHandler{
		db:             db,
		scheduleRepo:   scheduleRepo,
		bookingService: bookingSvc,
		paymentService: paymentSvc,
		business:       business,
	}
}

func (h *TaskHandler) sweepBatch() int {
	if h.business.Booking.SweepBatchSize > 0 {
		return h.business.Booking.SweepBatchSize
	}
	return 100
}

// ExpirePendingBookings 关闭超时未支付的预订
func (h *TaskHandler) ExpirePendingBookings(ctx context.Context) error {
	expire := h.business.Booking.PendingExpireMinutes
	if expire <= 0 {
		expire = 15
	}
	createdBefore := time.Now().Add(-time.Duration(expire) * time.Minute)

	n, err := h.bookingService.ProcessExpired(ctx, createdBefore, h.sweepBatch())
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("[Task] Expired %d unpaid bookings", n)
	}
	return nil
}

// CompleteFinishedBookings 自动完成已结束的预订
func (h *TaskHandler) CompleteFinishedBookings(ctx context.Context) error {
	n, err := h.bookingService.ProcessCompleted(ctx, time.Now(), h.sweepBatch())
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("[Task] Completed %d finished bookings", n)
	}
	return nil
}

// CloseExpiredPayments 关闭过期支付单
func (h *TaskHandler) CloseExpiredPayments(ctx context.Context) error {
	batch := h.business.Payment.CloseBatchSize
	if batch <= 0 {
		batch = 100
	}

	n, err := h.paymentService.CloseExpiredPayments(ctx, time.Now(), batch)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("[Task] Closed %d expired payments", n)
	}
	return nil
}

// PurgeOldSchedules 清理过期排期
func (h *TaskHandler) PurgeOldSchedules(ctx context.Context) error {
	retention := h.business.Booking.ScheduleRetentionDays
	if retention <= 0 {
		retention = 90
	}
	cutoff := time.Now().AddDate(0, 0, -retention)

	n, err := h.scheduleRepo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("[Task] Purged %d old schedules", n)
	}
	return nil
}

// SetupTasks 设置所有任务
func SetupTasks(scheduler *Scheduler, handler *TaskHandler) {
	sweepInterval := time.Duration(handler.business.Booking.SweepIntervalMinutes) * time.Minute
	if sweepInterval <= 0 {
		sweepInterval = 1 * time.Minute
	}
	closeInterval := time.Duration(handler.business.Payment.CloseIntervalMin) * time.Minute
	if closeInterval <= 0 {
		closeInterval = 1 * time.Minute
	}

	// 定期关闭超时未支付预订
	scheduler.AddTask("ExpirePendingBookings", sweepInterval, handler.ExpirePendingBookings)

	// 定期自动完成已结束预订
	scheduler.AddTask("CompleteFinishedBookings", sweepInterval, handler.CompleteFinishedBookings)

	// 定期关闭过期支付单
	scheduler.AddTask("CloseExpiredPayments", closeInterval, handler.CloseExpiredPayments)

	// 每天清理历史排期
	scheduler.AddTask("PurgeOldSchedules", 24*time.Hour, handler.PurgeOldSchedules)
}
