// Package main 是应用程序入口
package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/campus-sports-backend/internal/common/config"
	"github.com/dumeirei/campus-sports-backend/internal/common/crypto"
	"github.com/dumeirei/campus-sports-backend/internal/common/jwt"
	"github.com/dumeirei/campus-sports-backend/internal/common/metrics"
	commonMiddleware "github.com/dumeirei/campus-sports-backend/internal/common/middleware"
	"github.com/dumeirei/campus-sports-backend/internal/common/qrcode"
	adminHandler "github.com/dumeirei/campus-sports-backend/internal/handler/admin"
	authHandler "github.com/dumeirei/campus-sports-backend/internal/handler/auth"
	bookingHandler "github.com/dumeirei/campus-sports-backend/internal/handler/booking"
	facilityHandler "github.com/dumeirei/campus-sports-backend/internal/handler/facility"
	paymentHandler "github.com/dumeirei/campus-sports-backend/internal/handler/payment"
	"github.com/dumeirei/campus-sports-backend/internal/middleware"
	"github.com/dumeirei/campus-sports-backend/internal/repository"
	"github.com/dumeirei/campus-sports-backend/internal/scheduler"
	adminService "github.com/dumeirei/campus-sports-backend/internal/service/admin"
	authService "github.com/dumeirei/campus-sports-backend/internal/service/auth"
	bookingService "github.com/dumeirei/campus-sports-backend/internal/service/booking"
	facilityService "github.com/dumeirei/campus-sports-backend/internal/service/facility"
	"github.com/dumeirei/campus-sports-backend/internal/service/notify"
	paymentService "github.com/dumeirei/campus-sports-backend/internal/service/payment"
	"github.com/dumeirei/campus-sports-backend/pkg/eventbus"
	"github.com/dumeirei/campus-sports-backend/pkg/payprovider"
	"github.com/dumeirei/campus-sports-backend/pkg/sms"
)

// application 持有启动后需要管理生命周期的组件
type application struct {
	scheduler *scheduler.Scheduler
	publisher eventbus.Publisher
}

// setupRouter 设置路由并完成依赖装配
func setupRouter(
	r *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
) (*application, error) {
	// 创建 JWT 管理器
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            cfg.JWT.Secret,
		AccessExpireTime:  cfg.JWT.AccessTokenDuration(),
		RefreshExpireTime: cfg.JWT.RefreshTokenDuration(),
		Issuer:            cfg.JWT.Issuer,
	})

	aes, err := crypto.NewAES(cfg.Crypto.AESKey)
	if err != nil {
		return nil, err
	}

	// 初始化仓储
	userRepo := repository.NewUserRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	universityRepo := repository.NewUniversityRepository(db)
	facilityRepo := repository.NewFacilityRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	operationLogRepo := repository.NewOperationLogRepository(db)

	// 初始化外部服务客户端
	var smsClient sms.Sender
	if cfg.SMS.Provider == "aliyun" {
		smsClient, err = sms.NewClient(&sms.Config{
			AccessKeyID:     cfg.SMS.AccessKeyID,
			AccessKeySecret: cfg.SMS.AccessKeySecret,
			SignName:        cfg.SMS.SignName,
		})
		if err != nil {
			return nil, err
		}
	} else {
		smsClient = sms.NewMockClient(cfg.SMS.SignName)
	}

	var payProvider payprovider.Provider
	if cfg.PayProvider.IsSandbox {
		payProvider = payprovider.NewMockProvider()
	} else {
		payProvider = payprovider.NewClient(&payprovider.Config{
			BaseURL:       cfg.PayProvider.BaseURL,
			AppID:         cfg.PayProvider.AppID,
			Secret:        cfg.PayProvider.Secret,
			WebhookSecret: cfg.PayProvider.WebhookSecret,
			NotifyURL:     cfg.PayProvider.NotifyURL,
			TimeoutSec:    cfg.PayProvider.TimeoutSec,
			IsSandbox:     cfg.PayProvider.IsSandbox,
		})
	}

	// 事件总线，未启用 MQTT 时退化为空实现
	var busPublisher eventbus.Publisher = eventbus.NopPublisher{}
	if cfg.MQTT.Enabled {
		bus := eventbus.NewBus(&eventbus.Config{
			Broker:        cfg.MQTT.Broker,
			ClientID:      cfg.MQTT.ClientIDPrefix + "api",
			Username:      cfg.MQTT.Username,
			Password:      cfg.MQTT.Password,
			QoS:           cfg.MQTT.QoS,
			KeepAlive:     cfg.MQTT.KeepAlive,
			AutoReconnect: cfg.MQTT.AutoReconnect,
		})
		if err := bus.Connect(); err != nil {
			logger.Warn("MQTT connect failed, falling back to nop publisher", zap.Error(err))
		} else {
			busPublisher = bus
		}
	}

	// 事件发布时顺带触发短信通知
	publisher := notify.NewNotifier(busPublisher, smsClient, bookingRepo, userRepo)

	// 初始化服务
	codeService := authService.NewCodeService(redisClient, smsClient, &authService.CodeServiceConfig{
		CodeLength: 6,
		ExpireIn:   time.Duration(cfg.SMS.CodeExpire) * time.Second,
	})
	authSvc := authService.NewAuthService(db, userRepo, jwtManager, codeService)

	facilitySvc := facilityService.NewFacilityService(db, universityRepo, facilityRepo, scheduleRepo)
	availabilitySvc := facilityService.NewAvailabilityService(
		db, facilityRepo, scheduleRepo, bookingRepo, redisClient, cfg.Business.Booking.SlotMinutes)

	qrGen := qrcode.NewGenerator()
	bookingCodeSvc := bookingService.NewCodeService()
	bookingSvc := bookingService.NewBookingService(
		db, bookingRepo, facilityRepo, availabilitySvc, bookingCodeSvc, qrGen, publisher)
	paymentSvc := paymentService.NewPaymentService(
		db, paymentRepo, bookingRepo, availabilitySvc, payProvider, publisher)

	adminAuthSvc := adminService.NewAdminAuthService(adminRepo, jwtManager)
	adminManageSvc := adminService.NewAdminManageService(adminRepo, universityRepo)
	userAdminSvc := adminService.NewUserAdminService(userRepo, aes)
	dashboardSvc := adminService.NewDashboardService(db, bookingRepo, facilityRepo)

	// 初始化处理器
	authH := authHandler.NewHandler(authSvc, codeService)
	facilityH := facilityHandler.NewHandler(facilitySvc, availabilitySvc)
	bookingH := bookingHandler.NewHandler(bookingSvc)
	paymentH := paymentHandler.NewHandler(paymentSvc)

	adminAuthH := adminHandler.NewAuthHandler(adminAuthSvc)
	adminUniversityH := adminHandler.NewUniversityHandler(facilitySvc)
	adminFacilityH := adminHandler.NewFacilityHandler(facilitySvc, adminAuthSvc)
	adminBookingH := adminHandler.NewBookingHandler(bookingSvc, adminAuthSvc)
	adminPaymentH := adminHandler.NewPaymentHandler(paymentSvc)
	adminUserH := adminHandler.NewUserHandler(userAdminSvc, adminAuthSvc)
	adminDashboardH := adminHandler.NewDashboardHandler(dashboardSvc, adminAuthSvc)
	adminManageH := adminHandler.NewManageHandler(adminManageSvc)

	operationLogger := commonMiddleware.NewOperationLogger(operationLogRepo)

	// 全局中间件
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP())
	r.Use(middleware.CORS(nil))
	r.Use(middleware.AccessLog(logger))

	if cfg.Metrics.Enabled {
		m := metrics.Init("campus_sports")
		r.Use(m.Middleware())
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}
	if cfg.Tracing.Enabled {
		r.Use(commonMiddleware.Tracing(&commonMiddleware.TracingConfig{
			ServiceName: cfg.Tracing.ServiceName,
			SkipPaths:   []string{"/health", "/ping", "/ready", cfg.Metrics.Path},
		}))
	}

	// 健康检查（不需要认证）
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, redisClient))

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 接口限流
	var smsLimit []gin.HandlerFunc
	rateLimited := func(g *gin.RouterGroup) {}
	if cfg.RateLimit.Enabled && redisClient != nil {
		smsLimit = append(smsLimit, middleware.SmsRateLimit(redisClient))
		rateLimited = func(g *gin.RouterGroup) {
			g.Use(middleware.IPRateLimit(redisClient, cfg.RateLimit.RequestsPerSecond, time.Second))
		}
	}

	// API v1 路由组
	v1 := r.Group("/api/v1")
	rateLimited(v1)
	{
		// 公开接口（无需认证）
		public := v1.Group("")
		{
			authH.RegisterRoutes(public, smsLimit...)
			facilityH.RegisterRoutes(public)
		}

		// 支付网关回调（验签，不需要认证）
		paymentH.RegisterWebhookRoutes(v1)

		// 用户端接口（需要用户认证）
		user := v1.Group("")
		user.Use(middleware.UserAuth(jwtManager))
		{
			authH.RegisterProtectedRoutes(user)
			bookingH.RegisterRoutes(user)
			paymentH.RegisterRoutes(user)
		}
	}

	// 管理后台 API
	admin := r.Group("/api/admin")
	rateLimited(admin)
	{
		adminAuthH.RegisterPublicRoutes(admin)

		authed := admin.Group("")
		authed.Use(middleware.AdminAuth(jwtManager))
		authed.Use(operationLogger.Log())
		{
			adminAuthH.RegisterRoutes(authed)
			adminFacilityH.RegisterRoutes(authed)
			adminBookingH.RegisterRoutes(authed)
			adminPaymentH.RegisterRoutes(authed)
			adminUserH.RegisterRoutes(authed)
			adminDashboardH.RegisterRoutes(authed)

			// 学校与管理员账号管理仅平台管理员可用
			super := authed.Group("")
			super.Use(middleware.RequireSuperAdmin())
			{
				adminUniversityH.RegisterRoutes(super)
				adminManageH.RegisterRoutes(super)
			}
		}
	}

	// 404 处理
	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"code":    404,
			"message": "接口不存在",
		})
	})

	// 后台任务
	taskHandler := scheduler.NewTaskHandler(db, scheduleRepo, bookingSvc, paymentSvc, cfg.Business)
	sched := scheduler.NewScheduler()
	scheduler.SetupTasks(sched, taskHandler)

	return &application{
		scheduler: sched,
		publisher: publisher,
	}, nil
}
