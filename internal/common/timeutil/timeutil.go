// Package timeutil 提供 "HH:MM" 时刻字符串的解析与计算
package timeutil

import (
	"fmt"
	"regexp"

	"github.com/dumeirei/campus-sports-backend/internal/common/errors"
)

// clockPattern "HH:MM" 格式校验
var clockPattern = regexp.MustCompile(`^([0-2][0-9]):([0-5][0-9])$`)

// MinutesPerDay 一天的分钟数
const MinutesPerDay = 24 * 60

// ParseClock 解析 "HH:MM" 为零点起的分钟偏移
// 格式不合法或小时超过 23 时返回参数错误
func ParseClock(s string) (int, error) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, errors.ErrInvalidParams.WithMessage(fmt.Sprintf("无效的时刻格式: %q", s))
	}
	hour := int(m[1][0]-'0')*10 + int(m[1][1]-'0')
	minute := int(m[2][0]-'0')*10 + int(m[2][1]-'0')
	if hour > 23 {
		return 0, errors.ErrInvalidParams.WithMessage(fmt.Sprintf("无效的小时: %q", s))
	}
	return hour*60 + minute, nil
}

// FormatClock 将分钟偏移格式化为零填充的 "HH:MM"
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Minutes 计算 start 到 end 的时长（分钟）
// 不支持跨午夜，end 不晚于 start 时返回参数错误
func Minutes(start, end string) (int, error) {
	s, err := ParseClock(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0, err
	}
	if e <= s {
		return 0, errors.ErrInvalidParams.WithMessage("结束时刻必须晚于开始时刻")
	}
	return e - s, nil
}
