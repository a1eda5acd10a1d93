// Package errors 定义业务错误码和错误处理
package errors

import (
	"fmt"
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown         = New(1000, "未知错误")
	ErrInvalidParams   = New(1001, "参数错误")
	ErrNotFound        = New(1002, "资源不存在")
	ErrAlreadyExists   = New(1003, "资源已存在")
	ErrDatabaseError   = New(1004, "数据库错误")
	ErrCacheError      = New(1005, "缓存错误")
	ErrInternalError   = New(1006, "内部错误")
	ErrExternalService = New(1007, "外部服务错误")
	ErrRateLimitExceed = New(1008, "请求过于频繁")
	ErrOperationFailed = New(1009, "操作失败")
)

// 认证错误码 (2000-2999)
var (
	ErrUnauthorized     = New(2000, "未登录")
	ErrTokenExpired     = New(2001, "登录已过期")
	ErrTokenInvalid     = New(2002, "无效的令牌")
	ErrTokenRefreshFail = New(2003, "刷新令牌失败")
	ErrPermissionDenied = New(2004, "权限不足")
	ErrAccountDisabled  = New(2005, "账号已禁用")
	ErrPasswordError    = New(2007, "密码错误")
	ErrPhoneInvalid     = New(2008, "无效的手机号")
	ErrSmsSendFail      = New(2011, "短信发送失败")
	ErrSmsCodeError     = New(2012, "验证码错误")
)

// 用户错误码 (3000-3999)
var (
	ErrUserNotFound  = New(3000, "用户不存在")
	ErrUserExists    = New(3001, "用户已存在")
	ErrEmailExists   = New(3002, "邮箱已被注册")
	ErrEmailInvalid  = New(3003, "无效的邮箱")
	ErrAdminNotFound = New(3004, "管理员不存在")
	ErrPhoneExists   = New(3005, "手机号已被注册")
)

// 场馆错误码 (4000-4999)
var (
	ErrUniversityNotFound = New(4000, "学校不存在")
	ErrFacilityNotFound   = New(4001, "场馆不存在")
	ErrFacilityInactive   = New(4002, "场馆未开放")
	ErrFacilityClosed     = New(4003, "场馆当日不营业")
	ErrScheduleNotFound   = New(4004, "排期不存在")
	ErrOperatingHoursErr  = New(4005, "营业时间配置错误")
)

// 支付错误码 (6000-6999)
var (
	ErrPaymentNotFound      = New(6000, "支付记录不存在")
	ErrPaymentFailed        = New(6001, "支付失败")
	ErrPaymentExpired       = New(6002, "支付已过期")
	ErrRefundFailed         = New(6004, "退款失败")
	ErrPaymentAmountError   = New(6005, "支付金额不符")
	ErrPaymentMethodError   = New(6006, "支付方式错误")
	ErrPaymentCallbackError = New(6007, "支付回调错误")
	ErrPaymentNotPaid       = New(6008, "订单未支付")
)

// 预订错误码 (8000-8999)
var (
	ErrBookingNotFound       = New(8000, "预订不存在")
	ErrBookingStatusError    = New(8001, "预订状态异常")
	ErrBookingConflict       = New(8002, "时段已被预订")
	ErrBookingTerminal       = New(8003, "预订已结束")
	ErrBookingCodeNotFound   = New(8004, "核销码不存在")
	ErrBookingAlreadyChecked = New(8005, "预订已核销")
	ErrBookingNotConfirmed   = New(8006, "预订未确认")
	ErrBookingCancelled      = New(8007, "预订已取消")
	ErrTimeSlotInvalid       = New(8008, "无效的时段")
	ErrSlotOutOfHours        = New(8009, "时段超出营业时间")
	ErrBookingDatePassed     = New(8010, "预订日期已过")
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError 获取应用错误
func GetAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrUnknown.WithError(err)
}
