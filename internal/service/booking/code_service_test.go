package booking

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/campus-sports-backend/internal/models"
)

func TestCodeService_GenerateCode(t *testing.T) {
	svc := NewCodeService()

	t.Run("长度与字符集", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			code := svc.GenerateCode()
			require.Len(t, code, CodeLength)
			for _, c := range code {
				assert.True(t, strings.ContainsRune(codeCharset, c), "非法字符: %c", c)
			}
		}
	})

	t.Run("一万次无重复", func(t *testing.T) {
		seen := make(map[string]bool, 10000)
		for i := 0; i < 10000; i++ {
			code := svc.GenerateCode()
			assert.False(t, seen[code], "预订码重复: %s", code)
			seen[code] = true
		}
	})
}

func TestCodeService_NormalizeCode(t *testing.T) {
	svc := NewCodeService()
	assert.Equal(t, "ABCD2345", svc.NormalizeCode("abcd2345"))
	assert.Equal(t, "ABCD2345", svc.NormalizeCode("  Abcd2345 "))
}

func TestCodeService_ValidateCode(t *testing.T) {
	svc := NewCodeService()
	assert.True(t, svc.ValidateCode("ABCD2345"))
	assert.False(t, svc.ValidateCode("abcd2345"))
	assert.False(t, svc.ValidateCode("ABC234"))
	assert.False(t, svc.ValidateCode("ABCD23456"))
	assert.False(t, svc.ValidateCode("ABCD-345"))
	assert.False(t, svc.ValidateCode(""))
}

func TestCodeService_BuildQRContent(t *testing.T) {
	svc := NewCodeService()
	b := &models.Booking{
		ID:          42,
		BookingCode: "ABCD2345",
		Date:        time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		StartTime:   "10:00",
		EndTime:     "11:00",
	}
	content, err := svc.BuildQRContent(b, "一号篮球场")
	require.NoError(t, err)
	assert.Contains(t, content, `"booking_id":42`)
	assert.Contains(t, content, `"booking_code":"ABCD2345"`)
	assert.Contains(t, content, `"date":"2026-09-07"`)
	assert.Contains(t, content, `"time_range":"10:00-11:00"`)
}
