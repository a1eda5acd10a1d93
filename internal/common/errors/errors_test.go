// Package errors 错误码和错误处理单元测试
package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== AppError 基础测试 ====================

func TestNew(t *testing.T) {
	err := New(1001, "参数错误")
	require.NotNil(t, err)
	assert.Equal(t, 1001, err.Code)
	assert.Equal(t, "参数错误", err.Message)
	assert.Nil(t, err.Err)
}

func TestWrap(t *testing.T) {
	originalErr := stderrors.New("database connection failed")
	err := Wrap(1004, "数据库错误", originalErr)

	require.NotNil(t, err)
	assert.Equal(t, 1004, err.Code)
	assert.Equal(t, "数据库错误", err.Message)
	assert.Equal(t, originalErr, err.Err)
}

// ==================== AppError 方法测试 ====================

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		want     string
	}{
		{
			name:     "Error without underlying error",
			appError: New(1001, "参数错误"),
			want:     "[1001] 参数错误",
		},
		{
			name:     "Error with underlying error",
			appError: Wrap(1004, "数据库错误", stderrors.New("connection timeout")),
			want:     "[1004] 数据库错误: connection timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.appError.Error()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	originalErr := stderrors.New("original error")
	err := Wrap(1000, "wrapped error", originalErr)

	unwrapped := err.Unwrap()
	assert.Equal(t, originalErr, unwrapped)
}

func TestAppError_WithMessage(t *testing.T) {
	original := New(1001, "原始消息")
	modified := original.WithMessage("修改后的消息")

	assert.Equal(t, 1001, modified.Code)
	assert.Equal(t, "修改后的消息", modified.Message)
	assert.Nil(t, modified.Err)

	// 验证原始错误未被修改
	assert.Equal(t, "原始消息", original.Message)
}

func TestAppError_WithError(t *testing.T) {
	original := New(1001, "参数错误")
	underlyingErr := stderrors.New("validation failed")
	modified := original.WithError(underlyingErr)

	assert.Equal(t, 1001, modified.Code)
	assert.Equal(t, "参数错误", modified.Message)
	assert.Equal(t, underlyingErr, modified.Err)

	// 验证原始错误未被修改
	assert.Nil(t, original.Err)
}

// ==================== 错误码常量测试 ====================

func TestCommonErrors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code int
	}{
		{"ErrUnknown", ErrUnknown, 1000},
		{"ErrInvalidParams", ErrInvalidParams, 1001},
		{"ErrNotFound", ErrNotFound, 1002},
		{"ErrAlreadyExists", ErrAlreadyExists, 1003},
		{"ErrDatabaseError", ErrDatabaseError, 1004},
		{"ErrCacheError", ErrCacheError, 1005},
		{"ErrInternalError", ErrInternalError, 1006},
		{"ErrExternalService", ErrExternalService, 1007},
		{"ErrRateLimitExceed", ErrRateLimitExceed, 1008},
		{"ErrOperationFailed", ErrOperationFailed, 1009},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestAuthErrors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code int
	}{
		{"ErrUnauthorized", ErrUnauthorized, 2000},
		{"ErrTokenExpired", ErrTokenExpired, 2001},
		{"ErrTokenInvalid", ErrTokenInvalid, 2002},
		{"ErrTokenRefreshFail", ErrTokenRefreshFail, 2003},
		{"ErrPermissionDenied", ErrPermissionDenied, 2004},
		{"ErrAccountDisabled", ErrAccountDisabled, 2005},
		{"ErrPasswordError", ErrPasswordError, 2007},
		{"ErrPhoneInvalid", ErrPhoneInvalid, 2008},
		{"ErrSmsSendFail", ErrSmsSendFail, 2011},
		{"ErrSmsCodeError", ErrSmsCodeError, 2012},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestUserErrors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code int
	}{
		{"ErrUserNotFound", ErrUserNotFound, 3000},
		{"ErrUserExists", ErrUserExists, 3001},
		{"ErrEmailExists", ErrEmailExists, 3002},
		{"ErrEmailInvalid", ErrEmailInvalid, 3003},
		{"ErrAdminNotFound", ErrAdminNotFound, 3004},
		{"ErrPhoneExists", ErrPhoneExists, 3005},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestFacilityErrors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code int
	}{
		{"ErrUniversityNotFound", ErrUniversityNotFound, 4000},
		{"ErrFacilityNotFound", ErrFacilityNotFound, 4001},
		{"ErrFacilityInactive", ErrFacilityInactive, 4002},
		{"ErrFacilityClosed", ErrFacilityClosed, 4003},
		{"ErrScheduleNotFound", ErrScheduleNotFound, 4004},
		{"ErrOperatingHoursErr", ErrOperatingHoursErr, 4005},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestPaymentErrors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code int
	}{
		{"ErrPaymentNotFound", ErrPaymentNotFound, 6000},
		{"ErrPaymentFailed", ErrPaymentFailed, 6001},
		{"ErrPaymentExpired", ErrPaymentExpired, 6002},
		{"ErrRefundFailed", ErrRefundFailed, 6004},
		{"ErrPaymentAmountError", ErrPaymentAmountError, 6005},
		{"ErrPaymentMethodError", ErrPaymentMethodError, 6006},
		{"ErrPaymentCallbackError", ErrPaymentCallbackError, 6007},
		{"ErrPaymentNotPaid", ErrPaymentNotPaid, 6008},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestBookingErrors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code int
	}{
		{"ErrBookingNotFound", ErrBookingNotFound, 8000},
		{"ErrBookingStatusError", ErrBookingStatusError, 8001},
		{"ErrBookingConflict", ErrBookingConflict, 8002},
		{"ErrBookingTerminal", ErrBookingTerminal, 8003},
		{"ErrBookingCodeNotFound", ErrBookingCodeNotFound, 8004},
		{"ErrBookingAlreadyChecked", ErrBookingAlreadyChecked, 8005},
		{"ErrBookingNotConfirmed", ErrBookingNotConfirmed, 8006},
		{"ErrBookingCancelled", ErrBookingCancelled, 8007},
		{"ErrTimeSlotInvalid", ErrTimeSlotInvalid, 8008},
		{"ErrSlotOutOfHours", ErrSlotOutOfHours, 8009},
		{"ErrBookingDatePassed", ErrBookingDatePassed, 8010},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

// ==================== 辅助函数测试 ====================

func TestIsAppError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"AppError", ErrUnknown, true},
		{"AppError created by New", New(1001, "test"), true},
		{"Standard error", stderrors.New("standard error"), false},
		{"Nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsAppError(tt.err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetAppError(t *testing.T) {
	t.Run("From AppError", func(t *testing.T) {
		original := ErrInvalidParams
		got := GetAppError(original)
		assert.Equal(t, original, got)
	})

	t.Run("From standard error", func(t *testing.T) {
		standardErr := stderrors.New("standard error")
		got := GetAppError(standardErr)

		assert.Equal(t, ErrUnknown.Code, got.Code)
		assert.Equal(t, standardErr, got.Err)
	})

	t.Run("Preserves underlying error", func(t *testing.T) {
		underlyingErr := stderrors.New("database failed")
		appErr := Wrap(1004, "数据库错误", underlyingErr)

		got := GetAppError(appErr)
		assert.Equal(t, appErr, got)
	})
}

// ==================== 错误链测试 ====================

func TestErrorChaining(t *testing.T) {
	// 创建错误链
	originalErr := stderrors.New("connection timeout")
	wrappedErr := Wrap(1004, "数据库错误", originalErr)

	// 验证可以使用 errors.Is 和 errors.As
	unwrapped := wrappedErr.Unwrap()
	assert.Equal(t, originalErr, unwrapped)

	// 验证错误消息包含原始错误
	assert.Contains(t, wrappedErr.Error(), "connection timeout")
	assert.Contains(t, wrappedErr.Error(), "数据库错误")
	assert.Contains(t, wrappedErr.Error(), "1004")
}

// ==================== 边界条件测试 ====================

func TestAppError_EmptyMessage(t *testing.T) {
	err := New(9999, "")
	assert.Equal(t, 9999, err.Code)
	assert.Equal(t, "", err.Message)
	assert.Equal(t, "[9999] ", err.Error())
}

func TestAppError_ZeroCode(t *testing.T) {
	err := New(0, "零代码错误")
	assert.Equal(t, 0, err.Code)
	assert.Equal(t, "零代码错误", err.Message)
}

func TestAppError_NegativeCode(t *testing.T) {
	err := New(-1, "负数代码")
	assert.Equal(t, -1, err.Code)
	assert.Equal(t, "负数代码", err.Message)
}

// ==================== 修改链测试 ====================

func TestAppError_ChainedModifications(t *testing.T) {
	original := New(1001, "原始错误")

	// 链式修改
	modified := original.
		WithMessage("修改后的消息").
		WithError(stderrors.New("底层错误"))

	assert.Equal(t, 1001, modified.Code)
	assert.Equal(t, "修改后的消息", modified.Message)
	assert.NotNil(t, modified.Err)

	// 验证原始错误未被修改
	assert.Equal(t, "原始错误", original.Message)
	assert.Nil(t, original.Err)
}
