package facility

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/campus-sports-backend/internal/common/errors"
	"github.com/dumeirei/campus-sports-backend/internal/common/timeutil"
	"github.com/dumeirei/campus-sports-backend/internal/models"
	"github.com/dumeirei/campus-sports-backend/internal/repository"
)

// FacilityService 场馆管理服务
type FacilityService struct {
	db             *gorm.DB
	universityRepo *repository.UniversityRepository
	facilityRepo   *repository.FacilityRepository
	scheduleRepo   *repository.ScheduleRepository
}

// NewFacilityService 创建场馆管理服务
func NewFacilityService(
	db *gorm.DB,
	universityRepo *repository.UniversityRepository,
	facilityRepo *repository.FacilityRepository,
	scheduleRepo *repository.ScheduleRepository,
) *FacilityService {
	return &FacilityService{
		db:             db,
		universityRepo: universityRepo,
		facilityRepo:   facilityRepo,
		scheduleRepo:   scheduleRepo,
	}
}

// CreateUniversityRequest 创建学校请求
type CreateUniversityRequest struct {
	Name    string  `json:"name" binding:"required,max=100"`
	City    string  `json:"city" binding:"required,max=50"`
	Address *string `json:"address,omitempty"`
	Contact *string `json:"contact,omitempty"`
	Logo    *string `json:"logo,omitempty"`
}

// CreateUniversity 创建学校
func (s *FacilityService) CreateUniversity(ctx context.Context, req *CreateUniversityRequest) (*models.University, error) {
	exists, err := s.universityRepo.ExistsByName(ctx, req.Name)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil, errors.ErrAlreadyExists.WithMessage("学校名称已存在")
	}

	university := &models.University{
		Name:    req.Name,
		City:    req.City,
		Address: req.Address,
		Contact: req.Contact,
		Logo:    req.Logo,
		Status:  models.UniversityStatusActive,
	}
	if err := s.universityRepo.Create(ctx, university); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return university, nil
}

// UpdateUniversityRequest 更新学校请求
type UpdateUniversityRequest struct {
	Name    *string `json:"name,omitempty"`
	City    *string `json:"city,omitempty"`
	Address *string `json:"address,omitempty"`
	Contact *string `json:"contact,omitempty"`
	Logo    *string `json:"logo,omitempty"`
	Status  *int8   `json:"status,omitempty"`
}

// UpdateUniversity 更新学校
func (s *FacilityService) UpdateUniversity(ctx context.Context, id int64, req *UpdateUniversityRequest) (*models.University, error) {
	university, err := s.universityRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUniversityNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if req.Name != nil {
		university.Name = *req.Name
	}
	if req.City != nil {
		university.City = *req.City
	}
	if req.Address != nil {
		university.Address = req.Address
	}
	if req.Contact != nil {
		university.Contact = req.Contact
	}
	if req.Logo != nil {
		university.Logo = req.Logo
	}
	if req.Status != nil {
		university.Status = *req.Status
	}

	if err := s.universityRepo.Update(ctx, university); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return university, nil
}

// GetUniversity 获取学校详情
func (s *FacilityService) GetUniversity(ctx context.Context, id int64) (*models.University, error) {
	university, err := s.universityRepo.GetByIDWithFacilities(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUniversityNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return university, nil
}

// ListUniversities 获取学校列表
func (s *FacilityService) ListUniversities(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]*models.University, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	universities, total, err := s.universityRepo.List(ctx, (page-1)*pageSize, pageSize, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return universities, total, nil
}

// DeleteUniversity 删除学校
func (s *FacilityService) DeleteUniversity(ctx context.Context, id int64) error {
	count, err := s.facilityRepo.CountByUniversity(ctx, id)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if count > 0 {
		return errors.ErrOperationFailed.WithMessage("学校下仍有场馆，无法删除")
	}
	if err := s.universityRepo.Delete(ctx, id); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// CreateFacilityRequest 创建场馆请求
type CreateFacilityRequest struct {
	UniversityID   int64                 `json:"university_id" binding:"required"`
	Name           string                `json:"name" binding:"required,max=100"`
	SportType      string                `json:"sport_type" binding:"required"`
	Description    *string               `json:"description,omitempty"`
	PricePerHour   int64                 `json:"price_per_hour" binding:"required,min=0"`
	Currency       string                `json:"currency" binding:"required"`
	OperatingHours models.OperatingHours `json:"operating_hours" binding:"required"`
	Capacity       int                   `json:"capacity,omitempty"`
	Images         models.JSON           `json:"images,omitempty"`
}

// CreateFacility 创建场馆
func (s *FacilityService) CreateFacility(ctx context.Context, req *CreateFacilityRequest) (*models.Facility, error) {
	if _, err := s.universityRepo.GetByID(ctx, req.UniversityID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUniversityNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if !models.SupportedCurrencies[req.Currency] {
		return nil, errors.ErrInvalidParams.WithMessage("不支持的币种")
	}
	if err := validateOperatingHours(req.OperatingHours); err != nil {
		return nil, err
	}

	facility := &models.Facility{
		UniversityID:   req.UniversityID,
		Name:           req.Name,
		SportType:      req.SportType,
		Description:    req.Description,
		PricePerHour:   req.PricePerHour,
		Currency:       req.Currency,
		OperatingHours: req.OperatingHours,
		Capacity:       req.Capacity,
		Images:         req.Images,
		Status:         models.FacilityStatusActive,
	}
	if err := s.facilityRepo.Create(ctx, facility); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return facility, nil
}

// UpdateFacilityRequest 更新场馆请求
type UpdateFacilityRequest struct {
	Name           *string                `json:"name,omitempty"`
	SportType      *string                `json:"sport_type,omitempty"`
	Description    *string                `json:"description,omitempty"`
	PricePerHour   *int64                 `json:"price_per_hour,omitempty"`
	Currency       *string                `json:"currency,omitempty"`
	OperatingHours *models.OperatingHours `json:"operating_hours,omitempty"`
	Capacity       *int                   `json:"capacity,omitempty"`
	Images         models.JSON            `json:"images,omitempty"`
	Status         *int8                  `json:"status,omitempty"`
}

// UpdateFacility 更新场馆
// 营业时间变动后清除该场馆的排期模板，后续查询按新营业时间惰性重建
func (s *FacilityService) UpdateFacility(ctx context.Context, id int64, req *UpdateFacilityRequest) (*models.Facility, error) {
	facility, err := s.facilityRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrFacilityNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	hoursChanged := false
	if req.Name != nil {
		facility.Name = *req.Name
	}
	if req.SportType != nil {
		facility.SportType = *req.SportType
	}
	if req.Description != nil {
		facility.Description = req.Description
	}
	if req.PricePerHour != nil {
		facility.PricePerHour = *req.PricePerHour
	}
	if req.Currency != nil {
		if !models.SupportedCurrencies[*req.Currency] {
			return nil, errors.ErrInvalidParams.WithMessage("不支持的币种")
		}
		facility.Currency = *req.Currency
	}
	if req.OperatingHours != nil {
		if err := validateOperatingHours(*req.OperatingHours); err != nil {
			return nil, err
		}
		facility.OperatingHours = *req.OperatingHours
		hoursChanged = true
	}
	if req.Capacity != nil {
		facility.Capacity = *req.Capacity
	}
	if req.Images != nil {
		facility.Images = req.Images
	}
	if req.Status != nil {
		facility.Status = *req.Status
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(facility).Error; err != nil {
			return err
		}
		if hoursChanged {
			if err := tx.Where("facility_id = ?", facility.ID).Delete(&models.Schedule{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return facility, nil
}

// GetFacility 获取场馆详情
func (s *FacilityService) GetFacility(ctx context.Context, id int64) (*models.Facility, error) {
	facility, err := s.facilityRepo.GetByIDWithUniversity(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrFacilityNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return facility, nil
}

// ListFacilities 获取场馆列表
func (s *FacilityService) ListFacilities(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]*models.Facility, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	facilities, total, err := s.facilityRepo.List(ctx, (page-1)*pageSize, pageSize, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return facilities, total, nil
}

// DeleteFacility 删除场馆及其排期
func (s *FacilityService) DeleteFacility(ctx context.Context, id int64) error {
	if _, err := s.facilityRepo.GetByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrFacilityNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("facility_id = ?", id).Delete(&models.Schedule{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Facility{}, id).Error
	})
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// validateOperatingHours 校验周营业时间表
func validateOperatingHours(hours models.OperatingHours) error {
	for weekday, day := range hours {
		if !validWeekday(weekday) {
			return errors.ErrOperatingHoursErr.WithMessage("无效的星期键: " + weekday)
		}
		if !day.IsOpen {
			continue
		}
		openMin, err := timeutil.ParseClock(day.Open)
		if err != nil {
			return errors.ErrOperatingHoursErr.WithError(err)
		}
		closeMin, err := timeutil.ParseClock(day.Close)
		if err != nil {
			return errors.ErrOperatingHoursErr.WithError(err)
		}
		if closeMin <= openMin {
			return errors.ErrOperatingHoursErr.WithMessage("营业结束时刻必须晚于开始时刻")
		}
	}
	return nil
}

func validWeekday(key string) bool {
	for _, w := range models.Weekdays {
		if w == key {
			return true
		}
	}
	return false
}
