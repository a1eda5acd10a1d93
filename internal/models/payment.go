package models

import (
	"time"
)

// Payment 支付记录，仅追加不删除
type Payment struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	PaymentNo     string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"payment_no"`
	BookingID     int64      `gorm:"index;not null" json:"booking_id"`
	BookingCode   string     `gorm:"type:varchar(8);not null" json:"booking_code"`
	UserID        int64      `gorm:"index;not null" json:"user_id"`
	Amount        int64      `gorm:"not null" json:"amount"`
	Currency      string     `gorm:"type:varchar(3);not null" json:"currency"`
	Method        string     `gorm:"type:varchar(20);not null" json:"method"`
	Status        string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	TransactionID *string    `gorm:"type:varchar(64);uniqueIndex" json:"transaction_id,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	ExpiredAt     *time.Time `json:"expired_at,omitempty"`
	ErrorMessage  *string    `gorm:"type:varchar(255)" json:"error_message,omitempty"`

	RefundAmount        *int64     `json:"refund_amount,omitempty"`
	RefundReason        *string    `gorm:"type:varchar(255)" json:"refund_reason,omitempty"`
	RefundedAt          *time.Time `json:"refunded_at,omitempty"`
	RefundTransactionID *string    `gorm:"type:varchar(64)" json:"refund_transaction_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Booking *Booking `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 表名
func (Payment) TableName() string {
	return "payments"
}

// PaymentMethod 支付方式
const (
	PaymentMethodWechat = "wechat" // 微信支付
	PaymentMethodAlipay = "alipay" // 支付宝
	PaymentMethodCard   = "card"   // 银行卡
	PaymentMethodMock   = "mock"   // 模拟支付
)

// PaymentStatus 支付状态
const (
	PaymentStatusPending   = "pending"   // 处理中
	PaymentStatusCompleted = "completed" // 已完成
	PaymentStatusFailed    = "failed"    // 失败
	PaymentStatusRefunded  = "refunded"  // 已退款
)
