// Package notify 将预订事件转换为用户短信通知
package notify

import (
	"context"

	"github.com/dumeirei/campus-sports-backend/internal/common/logger"
	"github.com/dumeirei/campus-sports-backend/internal/repository"
	"github.com/dumeirei/campus-sports-backend/pkg/eventbus"
	"github.com/dumeirei/campus-sports-backend/pkg/sms"
)

// Notifier 事件发布装饰器
// 先转发给内层 Publisher，再按事件类型给预订用户发短信通知。
// 通知失败只记日志，不影响业务流程。
type Notifier struct {
	inner       eventbus.Publisher
	smsSender   sms.Sender
	bookingRepo *repository.BookingRepository
	userRepo    *repository.UserRepository
}

// NewNotifier 创建通知装饰器
func NewNotifier(
	inner eventbus.Publisher,
	smsSender sms.Sender,
	bookingRepo *repository.BookingRepository,
	userRepo *repository.UserRepository,
) *Notifier {
	if inner == nil {
		inner = eventbus.NopPublisher{}
	}
	return &Notifier{
		inner:       inner,
		smsSender:   smsSender,
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
	}
}

// Publish 转发事件并触发对应的短信通知
func (n *Notifier) Publish(ctx context.Context, topic string, event *eventbus.Event) error {
	err := n.inner.Publish(ctx, topic, event)

	switch topic {
	case eventbus.TopicBookingPaid:
		n.notify(ctx, event, sms.TemplateCodeBookingConfirmed)
	case eventbus.TopicBookingCancelled:
		n.notify(ctx, event, sms.TemplateCodeBookingCancelled)
	case eventbus.TopicPaymentRefunded:
		n.notify(ctx, event, sms.TemplateCodeRefundNotice)
	}

	return err
}

// Close 关闭内层 Publisher
func (n *Notifier) Close() {
	n.inner.Close()
}

func (n *Notifier) notify(ctx context.Context, event *eventbus.Event, template sms.TemplateCode) {
	if n.smsSender == nil || event.BookingID == 0 {
		return
	}

	booking, err := n.bookingRepo.GetByID(ctx, event.BookingID)
	if err != nil {
		logger.Warn("通知查询预订失败",
			logger.BookingID(event.BookingID),
			logger.Err(err))
		return
	}
	user, err := n.userRepo.GetByID(ctx, booking.UserID)
	if err != nil {
		logger.Warn("通知查询用户失败",
			logger.UserID(booking.UserID),
			logger.Err(err))
		return
	}
	if user.Phone == nil {
		return
	}

	params := map[string]string{
		"booking_code": booking.BookingCode,
		"date":         booking.Date.Format("2006-01-02"),
		"time_range":   booking.StartTime + "-" + booking.EndTime,
	}
	if err := n.smsSender.SendNotification(ctx, *user.Phone, template, params); err != nil {
		logger.Warn("发送预订通知短信失败",
			logger.BookingCode(booking.BookingCode),
			logger.String("template", string(template)),
			logger.Err(err))
	}
}
