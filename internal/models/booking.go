package models

import (
	"time"
)

// Booking 预订模型
type Booking struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingCode  string `gorm:"type:varchar(8);uniqueIndex;not null" json:"booking_code"`
	UserID       int64  `gorm:"index;not null" json:"user_id"`
	FacilityID   int64  `gorm:"index:idx_booking_facility_date;not null" json:"facility_id"`
	UniversityID int64  `gorm:"index;not null" json:"university_id"`

	Date      time.Time `gorm:"type:date;index:idx_booking_facility_date;not null" json:"date"`
	StartTime string    `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime   string    `gorm:"type:varchar(5);not null" json:"end_time"`
	Duration  int       `gorm:"not null" json:"duration"`

	TotalPrice int64  `gorm:"not null" json:"total_price"`
	Currency   string `gorm:"type:varchar(3);not null" json:"currency"`

	Status        string `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentStatus string `gorm:"type:varchar(20);not null;default:'unpaid'" json:"payment_status"`

	CheckedIn   bool       `gorm:"not null;default:false" json:"checked_in"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
	CheckedInBy *int64     `json:"checked_in_by,omitempty"`

	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy        *int64     `json:"cancelled_by,omitempty"`
	CancellationReason *string    `gorm:"type:varchar(255)" json:"cancellation_reason,omitempty"`

	QRCode *string `gorm:"type:text" json:"qr_code,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	User       *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Facility   *Facility   `gorm:"foreignKey:FacilityID" json:"facility,omitempty"`
	University *University `gorm:"foreignKey:UniversityID" json:"university,omitempty"`
}

// TableName 表名
func (Booking) TableName() string {
	return "bookings"
}

// BookingStatus 预订状态
const (
	BookingStatusPending   = "pending"   // 待支付
	BookingStatusConfirmed = "confirmed" // 已确认
	BookingStatusCancelled = "cancelled" // 已取消
	BookingStatusCompleted = "completed" // 已完成
)

// BookingPaymentStatus 预订支付状态
const (
	BookingPaymentUnpaid   = "unpaid"   // 未支付
	BookingPaymentPaid     = "paid"     // 已支付
	BookingPaymentRefunded = "refunded" // 已退款
	BookingPaymentFailed   = "failed"   // 支付失败
)

// ActiveBookingStatuses 占用时段的预订状态
var ActiveBookingStatuses = []string{BookingStatusPending, BookingStatusConfirmed}

// IsTerminal 预订是否处于终态
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingStatusCancelled || b.Status == BookingStatusCompleted
}
