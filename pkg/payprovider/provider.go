// Package payprovider 封装外部支付处理商接口
package payprovider

import (
	"context"
	"time"
)

// 交易状态
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusPending   = "pending"
)

// 回调事件类型
const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
	EventRefundSucceeded  = "refund.succeeded"
)

// AuthorizeRequest 扣款请求
type AuthorizeRequest struct {
	PaymentNo   string `json:"payment_no"`
	Amount      int64  `json:"amount"` // 单位：分
	Currency    string `json:"currency"`
	Method      string `json:"method"`
	Description string `json:"description,omitempty"`
	NotifyURL   string `json:"notify_url,omitempty"`
}

// AuthorizeResult 扣款结果
type AuthorizeResult struct {
	TransactionID string     `json:"transaction_id"`
	Status        string     `json:"status"`
	FailureReason string     `json:"failure_reason,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

// RefundRequest 退款请求
type RefundRequest struct {
	PaymentNo     string `json:"payment_no"`
	RefundNo      string `json:"refund_no"`
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	Reason        string `json:"reason,omitempty"`
}

// RefundResult 退款结果
type RefundResult struct {
	RefundTransactionID string     `json:"refund_transaction_id"`
	Status              string     `json:"status"`
	RefundedAt          *time.Time `json:"refunded_at,omitempty"`
}

// WebhookEvent 支付回调事件
type WebhookEvent struct {
	EventType     string `json:"event_type"`
	PaymentNo     string `json:"payment_no"`
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	FailureReason string `json:"failure_reason,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}

// Provider 支付处理商接口
type Provider interface {
	Authorize(ctx context.Context, req *AuthorizeRequest) (*AuthorizeResult, error)
	Refund(ctx context.Context, req *RefundRequest) (*RefundResult, error)
	ParseWebhook(payload []byte) (*WebhookEvent, error)
	VerifySignature(signature, timestamp string, body []byte) error
}
