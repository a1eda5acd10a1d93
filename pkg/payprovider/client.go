package payprovider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config 支付处理商配置
type Config struct {
	BaseURL       string `mapstructure:"base_url"`
	AppID         string `mapstructure:"app_id"`
	Secret        string `mapstructure:"secret"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	NotifyURL     string `mapstructure:"notify_url"`
	TimeoutSec    int    `mapstructure:"timeout_sec"`
	IsSandbox     bool   `mapstructure:"is_sandbox"`
}

// Client HTTP 支付处理商客户端
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient 创建支付客户端
func NewClient(config *Config) *Client {
	timeout := time.Duration(config.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Authorize 同步扣款
func (c *Client) Authorize(ctx context.Context, req *AuthorizeRequest) (*AuthorizeResult, error) {
	if req.NotifyURL == "" {
		req.NotifyURL = c.config.NotifyURL
	}
	var result AuthorizeResult
	if err := c.post(ctx, "/v1/charges", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Refund 申请退款
func (c *Client) Refund(ctx context.Context, req *RefundRequest) (*RefundResult, error) {
	var result RefundResult
	if err := c.post(ctx, "/v1/refunds", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ParseWebhook 解析回调报文
func (c *Client) ParseWebhook(payload []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("parse webhook payload error: %w", err)
	}
	if event.TransactionID == "" {
		return nil, fmt.Errorf("webhook payload missing transaction_id")
	}
	return &event, nil
}

// VerifySignature 校验回调签名，signature 为 HMAC-SHA256(timestamp + "." + body)
func (c *Client) VerifySignature(signature, timestamp string, body []byte) error {
	mac := hmac.New(sha256.New, []byte(c.config.WebhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("webhook signature mismatch")
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("payprovider marshal request error: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("payprovider build request error: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-App-Id", c.config.AppID)
	httpReq.Header.Set("X-Signature", c.sign(body))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("payprovider request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("payprovider read response error: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("payprovider http %d: %s", resp.StatusCode, respBody)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("payprovider parse response error: %w", err)
	}
	return nil
}

func (c *Client) sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(c.config.Secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
