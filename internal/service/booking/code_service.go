package booking

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dumeirei/campus-sports-backend/internal/models"
)

// 预订码字符集，去掉易混淆的 0/O 和 1/I
const codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength 预订码长度
const CodeLength = 8

// CodeService 预订码服务
type CodeService struct{}

// NewCodeService 创建预订码服务
func NewCodeService() *CodeService {
	return &CodeService{}
}

// GenerateCode 生成8位大写预订码
// 唯一性由预订表的唯一索引兜底，冲突时调用方重新生成
func (s *CodeService) GenerateCode() string {
	bytes := make([]byte, CodeLength)
	if _, err := rand.Read(bytes); err != nil {
		// 降级使用时间戳
		return fmt.Sprintf("%08X", time.Now().UnixNano()&0xFFFFFFFF)
	}
	code := make([]byte, CodeLength)
	for i, b := range bytes {
		code[i] = codeCharset[int(b)%len(codeCharset)]
	}
	return string(code)
}

// NormalizeCode 核销入口统一转大写后查找
func (s *CodeService) NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCode 校验预订码格式
func (s *CodeService) ValidateCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for _, c := range code {
		if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}

// QRPayload 二维码内容
type QRPayload struct {
	BookingID    int64  `json:"booking_id"`
	BookingCode  string `json:"booking_code"`
	FacilityName string `json:"facility_name"`
	Date         string `json:"date"`
	TimeRange    string `json:"time_range"`
}

// BuildQRContent 构造核销二维码内容
func (s *CodeService) BuildQRContent(b *models.Booking, facilityName string) (string, error) {
	payload := QRPayload{
		BookingID:    b.ID,
		BookingCode:  b.BookingCode,
		FacilityName: facilityName,
		Date:         b.Date.Format("2006-01-02"),
		TimeRange:    b.StartTime + "-" + b.EndTime,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
