package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// University 学校模型
type University struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	City      string    `gorm:"type:varchar(50);not null;default:''" json:"city"`
	Address   *string   `gorm:"type:varchar(255)" json:"address,omitempty"`
	Contact   *string   `gorm:"type:varchar(100)" json:"contact,omitempty"`
	Logo      *string   `gorm:"type:varchar(255)" json:"logo,omitempty"`
	Status    int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Facilities []Facility `gorm:"foreignKey:UniversityID" json:"facilities,omitempty"`
}

// TableName 表名
func (University) TableName() string {
	return "universities"
}

// UniversityStatus 学校状态
const (
	UniversityStatusDisabled = 0 // 停用
	UniversityStatusActive   = 1 // 正常
)

// DayHours 单日营业时间
type DayHours struct {
	IsOpen bool   `json:"is_open"`
	Open   string `json:"open"`
	Close  string `json:"close"`
}

// OperatingHours 周营业时间表（weekday -> 当日营业时间）
type OperatingHours map[string]DayHours

// Scan 实现 sql.Scanner 接口
func (h *OperatingHours) Scan(value interface{}) error {
	if value == nil {
		*h = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, h)
}

// Value 实现 driver.Valuer 接口
func (h OperatingHours) Value() (driver.Value, error) {
	if h == nil {
		return nil, nil
	}
	return json.Marshal(h)
}

// Facility 运动场馆模型
type Facility struct {
	ID             int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UniversityID   int64          `gorm:"index;not null" json:"university_id"`
	Name           string         `gorm:"type:varchar(100);not null" json:"name"`
	SportType      string         `gorm:"type:varchar(30);not null" json:"sport_type"`
	Description    *string        `gorm:"type:text" json:"description,omitempty"`
	PricePerHour   int64          `gorm:"not null;default:0" json:"price_per_hour"`
	Currency       string         `gorm:"type:varchar(3);not null;default:'CNY'" json:"currency"`
	OperatingHours OperatingHours `gorm:"type:jsonb" json:"operating_hours,omitempty"`
	Capacity       int            `gorm:"not null;default:0" json:"capacity"`
	Images         JSON           `gorm:"type:jsonb" json:"images,omitempty"`
	Status         int8           `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	University *University `gorm:"foreignKey:UniversityID" json:"university,omitempty"`
}

// TableName 表名
func (Facility) TableName() string {
	return "facilities"
}

// FacilityStatus 场馆状态
const (
	FacilityStatusInactive    = 0 // 未开放
	FacilityStatusActive      = 1 // 开放
	FacilityStatusMaintenance = 2 // 维护中
)

// SportType 运动类型
const (
	SportTypeBasketball = "basketball" // 篮球
	SportTypeFootball   = "football"   // 足球
	SportTypeBadminton  = "badminton"  // 羽毛球
	SportTypeTennis     = "tennis"     // 网球
	SportTypeSwimming   = "swimming"   // 游泳
	SportTypeGym        = "gym"        // 健身房
	SportTypeTableTennis = "table_tennis" // 乒乓球
)

// Currency 支持的币种
const (
	CurrencyCNY = "CNY"
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
	CurrencyGBP = "GBP"
	CurrencyRUB = "RUB"
)

// SupportedCurrencies 合法币种集合
var SupportedCurrencies = map[string]bool{
	CurrencyCNY: true,
	CurrencyUSD: true,
	CurrencyEUR: true,
	CurrencyGBP: true,
	CurrencyRUB: true,
}

// Weekdays 周营业时间表的键，周一起始
var Weekdays = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// SlotItem 排期中的单个时段
type SlotItem struct {
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
}

// SlotItems 时段序列
type SlotItems []SlotItem

// Scan 实现 sql.Scanner 接口
func (s *SlotItems) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// Value 实现 driver.Valuer 接口
func (s SlotItems) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Schedule 场馆单日排期（时段模板缓存，每 facility+date 一条）
type Schedule struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	FacilityID int64     `gorm:"uniqueIndex:uk_schedule_facility_date;not null" json:"facility_id"`
	Date       time.Time `gorm:"type:date;uniqueIndex:uk_schedule_facility_date;not null" json:"date"`
	Slots      SlotItems `gorm:"type:jsonb" json:"slots"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Facility *Facility `gorm:"foreignKey:FacilityID" json:"facility,omitempty"`
}

// TableName 表名
func (Schedule) TableName() string {
	return "schedules"
}
