package booking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/campus-sports-backend/internal/common/jwt"
	"github.com/dumeirei/campus-sports-backend/internal/common/qrcode"
	"github.com/dumeirei/campus-sports-backend/internal/common/response"
	"github.com/dumeirei/campus-sports-backend/internal/middleware"
	"github.com/dumeirei/campus-sports-backend/internal/models"
	"github.com/dumeirei/campus-sports-backend/internal/repository"
	bookingService "github.com/dumeirei/campus-sports-backend/internal/service/booking"
	"github.com/dumeirei/campus-sports-backend/internal/service/facility"
)

// fakeUserAuth 注入已登录用户，绕过 JWT 校验
func fakeUserAuth(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, userID)
		c.Set(middleware.ContextKeyUserType, jwt.UserTypeUser)
		c.Next()
	}
}

type handlerTestEnv struct {
	db       *gorm.DB
	facility *models.Facility
}

func setupBookingHandlerTest(t *testing.T, userID int64) (*gin.Engine, *handlerTestEnv) {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.University{}, &models.Facility{}, &models.Schedule{}, &models.User{}, &models.Booking{})
	require.NoError(t, err)

	hours := models.OperatingHours{}
	for _, w := range models.Weekdays {
		hours[w] = models.DayHours{IsOpen: true, Open: "08:00", Close: "22:00"}
	}
	fac := &models.Facility{
		UniversityID:   1,
		Name:           "游泳馆",
		SportType:      models.SportTypeSwimming,
		PricePerHour:   5000,
		Currency:       models.CurrencyCNY,
		OperatingHours: hours,
		Status:         models.FacilityStatusActive,
	}
	require.NoError(t, db.Create(fac).Error)

	bookingRepo := repository.NewBookingRepository(db)
	facilityRepo := repository.NewFacilityRepository(db)
	availability := facility.NewAvailabilityService(
		db, facilityRepo,
		repository.NewScheduleRepository(db),
		bookingRepo,
		nil, facility.DefaultSlotMinutes,
	)
	svc := bookingService.NewBookingService(
		db, bookingRepo, facilityRepo, availability,
		bookingService.NewCodeService(), qrcode.NewGenerator(), nil,
	)

	r := gin.New()
	group := r.Group("/api/v1")
	group.Use(fakeUserAuth(userID))
	NewHandler(svc).RegisterRoutes(group)

	return r, &handlerTestEnv{db: db, facility: fac}
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, *response.Response) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, &resp
}

func TestBookingHandler_CreateBooking(t *testing.T) {
	r, env := setupBookingHandlerTest(t, 1)
	date := time.Now().AddDate(0, 0, 2).Format("2006-01-02")

	t.Run("正常创建", func(t *testing.T) {
		w, resp := doJSON(t, r, http.MethodPost, "/api/v1/bookings", gin.H{
			"facility_id": env.facility.ID,
			"date":        date,
			"start_time":  "09:00",
			"end_time":    "10:00",
		})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 0, resp.Code)

		data, ok := resp.Data.(map[string]interface{})
		require.True(t, ok)
		assert.NotEmpty(t, data["booking_code"])
		assert.Equal(t, models.BookingStatusPending, data["status"])
	})

	t.Run("时段冲突", func(t *testing.T) {
		w, resp := doJSON(t, r, http.MethodPost, "/api/v1/bookings", gin.H{
			"facility_id": env.facility.ID,
			"date":        date,
			"start_time":  "09:00",
			"end_time":    "10:00",
		})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 8002, resp.Code)
	})

	t.Run("缺少参数", func(t *testing.T) {
		_, resp := doJSON(t, r, http.MethodPost, "/api/v1/bookings", gin.H{
			"facility_id": env.facility.ID,
		})
		assert.NotEqual(t, 0, resp.Code)
	})
}

func TestBookingHandler_ListAndGet(t *testing.T) {
	r, env := setupBookingHandlerTest(t, 1)
	date := time.Now().AddDate(0, 0, 3).Format("2006-01-02")

	_, created := doJSON(t, r, http.MethodPost, "/api/v1/bookings", gin.H{
		"facility_id": env.facility.ID,
		"date":        date,
		"start_time":  "14:00",
		"end_time":    "15:00",
	})
	require.Equal(t, 0, created.Code)
	bookingID := int64(created.Data.(map[string]interface{})["id"].(float64))

	t.Run("列表包含预订", func(t *testing.T) {
		_, resp := doJSON(t, r, http.MethodGet, "/api/v1/bookings?page=1&page_size=10", nil)
		require.Equal(t, 0, resp.Code)

		page, ok := resp.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, float64(1), page["total"])
	})

	t.Run("按ID查询", func(t *testing.T) {
		_, resp := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", bookingID), nil)
		require.Equal(t, 0, resp.Code)

		data := resp.Data.(map[string]interface{})
		assert.Equal(t, float64(bookingID), data["id"])
	})

	t.Run("他人预订不可见", func(t *testing.T) {
		other, _ := setupBookingHandlerTest(t, 2)
		_, resp := doJSON(t, other, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", bookingID), nil)
		assert.NotEqual(t, 0, resp.Code)
	})
}

func TestBookingHandler_CancelBooking(t *testing.T) {
	r, env := setupBookingHandlerTest(t, 1)
	date := time.Now().AddDate(0, 0, 4).Format("2006-01-02")

	_, created := doJSON(t, r, http.MethodPost, "/api/v1/bookings", gin.H{
		"facility_id": env.facility.ID,
		"date":        date,
		"start_time":  "16:00",
		"end_time":    "17:00",
	})
	require.Equal(t, 0, created.Code)
	bookingID := int64(created.Data.(map[string]interface{})["id"].(float64))

	t.Run("取消成功", func(t *testing.T) {
		_, resp := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/cancel", bookingID), gin.H{
			"reason": "计划有变",
		})
		require.Equal(t, 0, resp.Code)

		var kept models.Booking
		require.NoError(t, env.db.First(&kept, bookingID).Error)
		assert.Equal(t, models.BookingStatusCancelled, kept.Status)
		require.NotNil(t, kept.CancellationReason)
		assert.Equal(t, "计划有变", *kept.CancellationReason)
	})

	t.Run("重复取消被拒绝", func(t *testing.T) {
		_, resp := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/cancel", bookingID), nil)
		assert.Equal(t, 8003, resp.Code)
	})
}
