package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRateLimitRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestIPRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	client := newRateLimitRedis(t)

	r := gin.New()
	r.Use(IPRateLimit(client, 2, time.Minute))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	doGet := func(remoteAddr string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = remoteAddr
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("窗口内放行并返回余量", func(t *testing.T) {
		w := doGet("10.0.0.1:1234")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("超过限制返回429", func(t *testing.T) {
		doGet("10.0.0.1:1234")
		w := doGet("10.0.0.1:1234")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
	})

	t.Run("不同IP互不影响", func(t *testing.T) {
		w := doGet("10.0.0.2:1234")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestSmsRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	client := newRateLimitRedis(t)

	type sendReq struct {
		Phone string `json:"phone"`
		Type  string `json:"type"`
	}

	var bound sendReq
	r := gin.New()
	r.POST("/sms/send", SmsRateLimit(client), func(c *gin.Context) {
		// 中间件读过请求体后，后续绑定必须仍然可用
		if err := c.ShouldBindJSON(&bound); err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		c.String(http.StatusOK, "ok")
	})

	doPost := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/sms/send", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("首次发送放行且请求体可绑定", func(t *testing.T) {
		w := doPost(`{"phone":"13800138000","type":"login"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "13800138000", bound.Phone)
		assert.Equal(t, "login", bound.Type)
	})

	t.Run("一分钟内重复发送被拒", func(t *testing.T) {
		w := doPost(`{"phone":"13800138000","type":"login"}`)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})

	t.Run("不同手机号不受影响", func(t *testing.T) {
		w := doPost(`{"phone":"13900139000","type":"login"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("缺少手机号时放行交给参数校验", func(t *testing.T) {
		w := doPost(`{"type":"login"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
