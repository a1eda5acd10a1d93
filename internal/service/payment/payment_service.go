// Package payment 提供支付与退款服务
package payment

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/campus-sports-backend/internal/common/errors"
	"github.com/dumeirei/campus-sports-backend/internal/common/logger"
	"github.com/dumeirei/campus-sports-backend/internal/common/utils"
	"github.com/dumeirei/campus-sports-backend/internal/models"
	"github.com/dumeirei/campus-sports-backend/internal/repository"
	"github.com/dumeirei/campus-sports-backend/internal/service/facility"
	"github.com/dumeirei/campus-sports-backend/pkg/eventbus"
	"github.com/dumeirei/campus-sports-backend/pkg/payprovider"
)

// paymentExpireIn 未支付订单的关闭时限
const paymentExpireIn = 15 * time.Minute

// PaymentService 支付服务
type PaymentService struct {
	db           *gorm.DB
	paymentRepo  *repository.PaymentRepository
	bookingRepo  *repository.BookingRepository
	availability *facility.AvailabilityService
	provider     payprovider.Provider
	publisher    eventbus.Publisher
}

// NewPaymentService 创建支付服务
func NewPaymentService(
	db *gorm.DB,
	paymentRepo *repository.PaymentRepository,
	bookingRepo *repository.BookingRepository,
	availability *facility.AvailabilityService,
	provider payprovider.Provider,
	publisher eventbus.Publisher,
) *PaymentService {
	if publisher == nil {
		publisher = eventbus.NopPublisher{}
	}
	return &PaymentService{
		db:           db,
		paymentRepo:  paymentRepo,
		bookingRepo:  bookingRepo,
		availability: availability,
		provider:     provider,
		publisher:    publisher,
	}
}

// CreatePaymentRequest 发起支付请求
type CreatePaymentRequest struct {
	BookingID int64  `json:"booking_id" binding:"required"`
	Method    string `json:"method" binding:"required"`
}

// CreatePayment 发起支付
// 先落支付单再请求处理商，同步结果与异步回调走同一套幂等应用逻辑
func (s *PaymentService) CreatePayment(ctx context.Context, userID int64, req *CreatePaymentRequest) (*models.Payment, error) {
	if !validMethod(req.Method) {
		return nil, errors.ErrPaymentMethodError
	}

	booking, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if booking.UserID != userID {
		return nil, errors.ErrPermissionDenied
	}
	if booking.Status == models.BookingStatusCancelled {
		return nil, errors.ErrBookingCancelled
	}
	if booking.PaymentStatus == models.BookingPaymentPaid {
		return nil, errors.ErrBookingStatusError.WithMessage("预订已支付")
	}

	now := time.Now()
	expireAt := now.Add(paymentExpireIn)
	payment := &models.Payment{
		PaymentNo:   utils.GenerateOrderNo("P"),
		BookingID:   booking.ID,
		BookingCode: booking.BookingCode,
		UserID:      userID,
		Amount:      booking.TotalPrice,
		Currency:    booking.Currency,
		Method:      req.Method,
		Status:      models.PaymentStatusPending,
		ExpiredAt:   &expireAt,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	result, err := s.provider.Authorize(ctx, &payprovider.AuthorizeRequest{
		PaymentNo:   payment.PaymentNo,
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		Method:      payment.Method,
		Description: "场馆预订 " + booking.BookingCode,
	})
	if err != nil {
		// 处理商不可达时支付单留在 pending，等回调或超时关闭
		logger.Error("支付请求失败",
			logger.String("payment_no", payment.PaymentNo),
			logger.Err(err))
		return nil, errors.ErrExternalService.WithError(err)
	}

	succeeded := result.Status == payprovider.StatusSucceeded
	return s.applyResult(ctx, payment.PaymentNo, result.TransactionID, payment.Amount, succeeded, result.FailureReason)
}

// HandleWebhook 处理支付回调
// 以 transactionId 去重，同一交易重复投递只应用一次
func (s *PaymentService) HandleWebhook(ctx context.Context, signature, timestamp string, body []byte) error {
	if err := s.provider.VerifySignature(signature, timestamp, body); err != nil {
		return errors.ErrPaymentCallbackError.WithError(err)
	}
	event, err := s.provider.ParseWebhook(body)
	if err != nil {
		return errors.ErrPaymentCallbackError.WithError(err)
	}

	switch event.EventType {
	case payprovider.EventPaymentSucceeded, payprovider.EventPaymentFailed:
	case payprovider.EventRefundSucceeded:
		// 退款同步处理，回调仅确认
		return nil
	default:
		return errors.ErrPaymentCallbackError.WithMessage("未知的回调事件类型: " + event.EventType)
	}

	payment, err := s.paymentRepo.GetByPaymentNo(ctx, event.PaymentNo)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrPaymentNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if event.Amount != payment.Amount {
		return errors.ErrPaymentAmountError
	}

	succeeded := event.EventType == payprovider.EventPaymentSucceeded
	_, err = s.applyResult(ctx, event.PaymentNo, event.TransactionID, event.Amount, succeeded, event.FailureReason)
	return err
}

// applyResult 将处理商结果落库
// 支付单非 pending 即视为已处理，支付单与预订在同一事务内更新
func (s *PaymentService) applyResult(ctx context.Context, paymentNo, transactionID string, amount int64, succeeded bool, failureReason string) (*models.Payment, error) {
	var applied *models.Payment
	var paidBooking *models.Booking

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txPaymentRepo := repository.NewPaymentRepository(tx)
		txBookingRepo := repository.NewBookingRepository(tx)

		if existing, err := txPaymentRepo.GetByTransactionID(ctx, transactionID); err == nil {
			applied = existing
			return nil
		} else if err != gorm.ErrRecordNotFound {
			return errors.ErrDatabaseError.WithError(err)
		}

		payment, err := txPaymentRepo.GetByPaymentNo(ctx, paymentNo)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrPaymentNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		if payment.Status != models.PaymentStatusPending {
			applied = payment
			return nil
		}
		if amount != payment.Amount {
			return errors.ErrPaymentAmountError
		}

		booking, err := txBookingRepo.GetByID(ctx, payment.BookingID)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		now := time.Now()
		if succeeded {
			if err := txPaymentRepo.UpdateFields(ctx, payment.ID, map[string]interface{}{
				"status":         models.PaymentStatusCompleted,
				"transaction_id": transactionID,
				"paid_at":        now,
			}); err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
			payment.Status = models.PaymentStatusCompleted
			payment.TransactionID = &transactionID
			payment.PaidAt = &now

			// 已取消的预订不再确认，金额留待退款处理
			if booking.Status != models.BookingStatusCancelled {
				bookingFields := map[string]interface{}{
					"payment_status": models.BookingPaymentPaid,
				}
				if booking.Status != models.BookingStatusCompleted {
					bookingFields["status"] = models.BookingStatusConfirmed
					booking.Status = models.BookingStatusConfirmed
				}
				if err := txBookingRepo.UpdateFields(ctx, booking.ID, bookingFields); err != nil {
					return errors.ErrDatabaseError.WithError(err)
				}
				booking.PaymentStatus = models.BookingPaymentPaid
				paidBooking = booking
			}
		} else {
			if err := txPaymentRepo.UpdateFields(ctx, payment.ID, map[string]interface{}{
				"status":         models.PaymentStatusFailed,
				"transaction_id": transactionID,
				"error_message":  failureReason,
			}); err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
			payment.Status = models.PaymentStatusFailed
			payment.TransactionID = &transactionID
			payment.ErrorMessage = &failureReason

			if booking.Status != models.BookingStatusCancelled {
				if err := txBookingRepo.UpdateFields(ctx, booking.ID, map[string]interface{}{
					"payment_status": models.BookingPaymentFailed,
				}); err != nil {
					return errors.ErrDatabaseError.WithError(err)
				}
			}
		}

		applied = payment
		return nil
	})
	if err != nil {
		if errors.IsAppError(err) {
			return nil, err
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if paidBooking != nil {
		s.publishEvent(ctx, eventbus.TopicBookingPaid, paidBooking)
	}
	return applied, nil
}

// RefundRequest 退款请求
type RefundRequest struct {
	PaymentID int64  `json:"payment_id" binding:"required"`
	Amount    *int64 `json:"amount,omitempty"`
	Reason    string `json:"reason" binding:"required,max=255"`
}

// Refund 管理端退款
// 仅已完成的支付可退；预订未完成时级联取消并释放时段
func (s *PaymentService) Refund(ctx context.Context, adminID int64, req *RefundRequest) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, req.PaymentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPaymentNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if payment.Status != models.PaymentStatusCompleted {
		return nil, errors.ErrRefundFailed.WithMessage("仅已完成的支付可退款")
	}

	refundAmount := payment.Amount
	if req.Amount != nil {
		refundAmount = *req.Amount
	}
	if refundAmount <= 0 || refundAmount > payment.Amount {
		return nil, errors.ErrPaymentAmountError
	}

	transactionID := ""
	if payment.TransactionID != nil {
		transactionID = *payment.TransactionID
	}
	result, err := s.provider.Refund(ctx, &payprovider.RefundRequest{
		PaymentNo:     payment.PaymentNo,
		RefundNo:      utils.GenerateOrderNo("R"),
		TransactionID: transactionID,
		Amount:        refundAmount,
		Reason:        req.Reason,
	})
	if err != nil {
		return nil, errors.ErrExternalService.WithError(err)
	}
	if result.Status != payprovider.StatusSucceeded {
		return nil, errors.ErrRefundFailed
	}

	var cancelledBooking *models.Booking
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txPaymentRepo := repository.NewPaymentRepository(tx)
		txBookingRepo := repository.NewBookingRepository(tx)

		now := time.Now()
		if err := txPaymentRepo.UpdateFields(ctx, payment.ID, map[string]interface{}{
			"status":                models.PaymentStatusRefunded,
			"refund_amount":         refundAmount,
			"refund_reason":         req.Reason,
			"refunded_at":           now,
			"refund_transaction_id": result.RefundTransactionID,
		}); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		payment.Status = models.PaymentStatusRefunded
		payment.RefundAmount = &refundAmount
		payment.RefundReason = &req.Reason
		payment.RefundedAt = &now
		payment.RefundTransactionID = &result.RefundTransactionID

		booking, err := txBookingRepo.GetByID(ctx, payment.BookingID)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		bookingFields := map[string]interface{}{
			"payment_status": models.BookingPaymentRefunded,
		}
		// 已完成的预订保持完成态，其余级联取消
		if booking.Status != models.BookingStatusCompleted {
			bookingFields["status"] = models.BookingStatusCancelled
			bookingFields["cancelled_at"] = now
			bookingFields["cancelled_by"] = adminID
			bookingFields["cancellation_reason"] = req.Reason
			booking.Status = models.BookingStatusCancelled
			cancelledBooking = booking
		}
		if err := txBookingRepo.UpdateFields(ctx, booking.ID, bookingFields); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		if errors.IsAppError(err) {
			return nil, err
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if cancelledBooking != nil {
		if s.availability != nil {
			s.availability.InvalidateDay(ctx, cancelledBooking.FacilityID, cancelledBooking.Date)
		}
		s.publishEvent(ctx, eventbus.TopicBookingCancelled, cancelledBooking)
	}
	s.publishEvent(ctx, eventbus.TopicPaymentRefunded, &models.Booking{
		ID:          payment.BookingID,
		BookingCode: payment.BookingCode,
	})
	return payment, nil
}

// RequestRefund 用户对自己的支付申请退款
// 已核销或已完成的预订不可退，其余复用管理端退款流程
func (s *PaymentService) RequestRefund(ctx context.Context, userID, paymentID int64, reason string) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPaymentNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if payment.UserID != userID {
		return nil, errors.ErrPermissionDenied
	}

	booking, err := s.bookingRepo.GetByID(ctx, payment.BookingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if booking.CheckedIn || booking.Status == models.BookingStatusCompleted {
		return nil, errors.ErrRefundFailed.WithMessage("已核销或已完成的预订不可退款")
	}

	return s.Refund(ctx, userID, &RefundRequest{PaymentID: paymentID, Reason: reason})
}

// GetPayment 用户查询自己的支付单
func (s *PaymentService) GetPayment(ctx context.Context, userID, paymentID int64) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPaymentNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if payment.UserID != userID {
		return nil, errors.ErrPermissionDenied
	}
	return payment, nil
}

// ListBookingPayments 查询预订的全部支付尝试
func (s *PaymentService) ListBookingPayments(ctx context.Context, bookingID int64) ([]*models.Payment, error) {
	payments, err := s.paymentRepo.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return payments, nil
}

// ListPayments 管理端支付单列表
func (s *PaymentService) ListPayments(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]*models.Payment, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	payments, total, err := s.paymentRepo.List(ctx, (page-1)*pageSize, pageSize, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return payments, total, nil
}

// CloseExpiredPayments 关闭超时未支付的支付单，定时任务调用
func (s *PaymentService) CloseExpiredPayments(ctx context.Context, now time.Time, limit int) (int, error) {
	payments, err := s.paymentRepo.GetPendingExpired(ctx, now, limit)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}

	closed := 0
	for _, p := range payments {
		if err := s.paymentRepo.UpdateFields(ctx, p.ID, map[string]interface{}{
			"status":        models.PaymentStatusFailed,
			"error_message": "支付超时关闭",
		}); err != nil {
			logger.Error("关闭超时支付失败",
				logger.String("payment_no", p.PaymentNo),
				logger.Err(err))
			continue
		}
		closed++
	}
	return closed, nil
}

func (s *PaymentService) publishEvent(ctx context.Context, topic string, booking *models.Booking) {
	event := &eventbus.Event{
		Type:        topic,
		BookingID:   booking.ID,
		BookingCode: booking.BookingCode,
		FacilityID:  booking.FacilityID,
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		logger.Warn("发布支付事件失败",
			logger.String("topic", topic),
			logger.Err(err))
	}
}

func validMethod(method string) bool {
	switch method {
	case models.PaymentMethodWechat, models.PaymentMethodAlipay, models.PaymentMethodCard, models.PaymentMethodMock:
		return true
	}
	return false
}
