package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "credit-api/api/swagger" // swagger docs
	"credit-api/internal/config"
	"credit-api/internal/database"
	"credit-api/internal/handler"
	"credit-api/internal/logger"
	"credit-api/internal/metrics"
	"credit-api/internal/middleware"
	"credit-api/internal/repository"
	"credit-api/internal/service"
	"credit-api/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	shutdownTimeout        = 10 * time.Second
	limiterCleanupInterval = time.Minute
)

// @title           Credit Consultation API
// @version         1.0
// @description     Installment plans with compound interest, client registry and product catalogue.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	envErr := config.LoadEnvFile("configs/.env")

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		log.Info("no configs/.env file found, using process environment")
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped with error")
	}
}

func run(cfg config.Config, log *logrus.Logger) error {
	gin.SetMode(cfg.GinMode)

	db, err := database.NewConnection(cfg.DSN(), database.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	}, log)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	log.WithFields(logrus.Fields{"host": cfg.DBHost, "db": cfg.DBName}).Info("connected to PostgreSQL")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(log)
	go wsHub.Run()
	defer wsHub.Stop()

	auth := middleware.NewAuthenticator(cfg.JWTSecret)
	if !auth.Enabled() {
		log.Warn("JWT_SECRET is not set, product and audit endpoints are unauthenticated")
	}

	done := make(chan struct{})
	defer close(done)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log)
	limiter.StartCleanup(limiterCleanupInterval, done)

	// Set up dependencies (Repository -> Service -> Handler)
	clientRepo := repository.NewClientRepository(db)
	consultationRepo := repository.NewConsultationRepository(db)
	productRepo := repository.NewProductRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)

	consultationService := service.NewConsultationService(clientRepo, consultationRepo, wsHub, log, service.ConsultationOptions{
		DailyLimit: cfg.ConsultationDailyLimit,
	})
	productService := service.NewProductService(productRepo, auditRepo, txManager, wsHub, log)
	auditService := service.NewAuditService(auditRepo)

	healthHandler := handler.NewHealthHandler(sqlDB)
	consultationHandler := handler.NewConsultationHandler(consultationService, limiter)
	productHandler := handler.NewProductHandler(productService, auth)
	auditHandler := handler.NewAuditHandler(auditService, auth)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log), metrics.Instrument())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, auth, c)
	})

	healthHandler.RegisterRoutes(router.Group(""))
	consultationHandler.RegisterRoutes(router.Group(""))
	productHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
