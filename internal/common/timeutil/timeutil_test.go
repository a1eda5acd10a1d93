// Package timeutil 时刻工具单元测试
package timeutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		input    string
		expected int
		wantErr  bool
	}{
		{"00:00", 0, false},
		{"09:00", 540, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"29:00", 0, true},
		{"9:00", 0, true},
		{"09:60", 0, true},
		{"09-00", 0, true},
		{"", 0, true},
		{"abcde", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00", FormatClock(0))
	assert.Equal(t, "09:05", FormatClock(545))
	assert.Equal(t, "23:59", FormatClock(1439))
}

func TestFormatClock_RoundTrip(t *testing.T) {
	for m := 0; m < MinutesPerDay; m += 17 {
		got, err := ParseClock(FormatClock(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
}

func TestMinutes(t *testing.T) {
	t.Run("正常时长", func(t *testing.T) {
		d, err := Minutes("09:00", "10:30")
		require.NoError(t, err)
		assert.Equal(t, 90, d)
	})

	t.Run("结束早于开始", func(t *testing.T) {
		_, err := Minutes("10:00", "09:00")
		assert.Error(t, err)
	})

	t.Run("结束等于开始", func(t *testing.T) {
		_, err := Minutes("10:00", "10:00")
		assert.Error(t, err)
	})

	t.Run("格式错误", func(t *testing.T) {
		_, err := Minutes("10:00", "25:00")
		assert.Error(t, err)
	})
}
