package payprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// MockProvider 内存支付实现，沙箱环境与单元测试用
type MockProvider struct {
	mu      sync.Mutex
	seq     int64
	FailAll bool // 为 true 时所有扣款返回失败

	authorized map[string]*AuthorizeResult
}

// NewMockProvider 创建模拟支付处理商
func NewMockProvider() *MockProvider {
	return &MockProvider{
		authorized: make(map[string]*AuthorizeResult),
	}
}

// Authorize 模拟同步扣款，同一单号重复扣款返回首次结果
func (m *MockProvider) Authorize(ctx context.Context, req *AuthorizeRequest) (*AuthorizeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.authorized[req.PaymentNo]; ok {
		return prev, nil
	}

	if m.FailAll {
		result := &AuthorizeResult{
			TransactionID: m.nextTxnID("txn_fail"),
			Status:        StatusFailed,
			FailureReason: "card declined",
		}
		m.authorized[req.PaymentNo] = result
		return result, nil
	}

	now := time.Now()
	result := &AuthorizeResult{
		TransactionID: m.nextTxnID("txn"),
		Status:        StatusSucceeded,
		PaidAt:        &now,
	}
	m.authorized[req.PaymentNo] = result
	return result, nil
}

// Refund 模拟退款
func (m *MockProvider) Refund(ctx context.Context, req *RefundRequest) (*RefundResult, error) {
	now := time.Now()
	return &RefundResult{
		RefundTransactionID: m.nextTxnID("rfd"),
		Status:              StatusSucceeded,
		RefundedAt:          &now,
	}, nil
}

// ParseWebhook 解析回调报文
func (m *MockProvider) ParseWebhook(payload []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("parse webhook payload error: %w", err)
	}
	if event.TransactionID == "" {
		return nil, fmt.Errorf("webhook payload missing transaction_id")
	}
	return &event, nil
}

// VerifySignature 模拟实现不校验签名
func (m *MockProvider) VerifySignature(signature, timestamp string, body []byte) error {
	return nil
}

func (m *MockProvider) nextTxnID(prefix string) string {
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano(), atomic.AddInt64(&m.seq, 1))
}
