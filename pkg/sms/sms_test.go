// Package sms 短信服务单元测试
package sms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClient_SendCode(t *testing.T) {
	client := NewMockClient("校园体育")
	ctx := context.Background()

	t.Run("发送登录验证码", func(t *testing.T) {
		err := client.SendCode(ctx, "13800138000", "123456", TemplateCodeLogin)
		require.NoError(t, err)
	})

	t.Run("发送注册验证码", func(t *testing.T) {
		err := client.SendCode(ctx, "13800138001", "654321", TemplateCodeRegister)
		require.NoError(t, err)
	})

	t.Run("发送重置密码验证码", func(t *testing.T) {
		err := client.SendCode(ctx, "13800138002", "222222", TemplateCodeReset)
		require.NoError(t, err)
	})
}

func TestMockClient_SendNotification(t *testing.T) {
	client := NewMockClient("校园体育")
	ctx := context.Background()

	t.Run("发送预订确认通知", func(t *testing.T) {
		params := map[string]string{
			"booking_code": "A1B2C3D4",
			"facility":     "综合体育馆羽毛球场",
			"time_range":   "10:00-11:00",
		}
		err := client.SendNotification(ctx, "13800138000", TemplateCodeBookingConfirmed, params)
		require.NoError(t, err)
	})

	t.Run("发送退款通知", func(t *testing.T) {
		params := map[string]string{
			"booking_code": "A1B2C3D4",
			"amount":       "40.00",
		}
		err := client.SendNotification(ctx, "13800138000", TemplateCodeRefundNotice, params)
		require.NoError(t, err)
	})

	t.Run("发送空参数通知", func(t *testing.T) {
		err := client.SendNotification(ctx, "13800138001", TemplateCodeBookingCancelled, nil)
		require.NoError(t, err)
	})
}

func TestTemplateCode_Constants(t *testing.T) {
	// 验证模板编码常量
	assert.Equal(t, TemplateCode("SMS_LOGIN"), TemplateCodeLogin)
	assert.Equal(t, TemplateCode("SMS_REGISTER"), TemplateCodeRegister)
	assert.Equal(t, TemplateCode("SMS_RESET"), TemplateCodeReset)
	assert.Equal(t, TemplateCode("SMS_BOOKING_CONFIRMED"), TemplateCodeBookingConfirmed)
	assert.Equal(t, TemplateCode("SMS_BOOKING_CANCELLED"), TemplateCodeBookingCancelled)
	assert.Equal(t, TemplateCode("SMS_REFUND_NOTICE"), TemplateCodeRefundNotice)
}

func TestNewClient_Config(t *testing.T) {
	t.Run("默认接入点", func(t *testing.T) {
		client, err := NewClient(&Config{
			AccessKeyID:     "test-key",
			AccessKeySecret: "test-secret",
			SignName:        "校园体育",
		})
		require.NoError(t, err)
		assert.Equal(t, "校园体育", client.signName)
	})

	t.Run("自定义接入点", func(t *testing.T) {
		client, err := NewClient(&Config{
			AccessKeyID:     "test-key",
			AccessKeySecret: "test-secret",
			SignName:        "校园体育",
			Endpoint:        "dysmsapi.aliyuncs.com",
		})
		require.NoError(t, err)
		assert.NotNil(t, client.client)
	})
}

// 编译期验证两种客户端都满足 Sender 接口
var (
	_ Sender = (*Client)(nil)
	_ Sender = (*MockClient)(nil)
)
