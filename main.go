package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/piriram/pilling-backend/internal/adherence"
	"github.com/piriram/pilling-backend/internal/audit"
	"github.com/piriram/pilling-backend/internal/config"
	"github.com/piriram/pilling-backend/internal/handler"
	"github.com/piriram/pilling-backend/internal/middleware"
	"github.com/piriram/pilling-backend/internal/pdf"
	"github.com/piriram/pilling-backend/internal/repository"
	"github.com/piriram/pilling-backend/internal/scheduler"
	"github.com/piriram/pilling-backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("timezone", cfg.Server.Timezone),
	)

	location, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		logger.Fatal("invalid timezone", zap.Error(err), zap.String("timezone", cfg.Server.Timezone))
	}
	clock := adherence.NewSystemClock(location)

	pool, err := pgxpool.New(context.Background(), cfg.Database.URL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}
	logger.Info("connected to database")

	// Repositories
	cycleRepo := repository.NewCycleRepository(pool, logger)
	snapshotRepo := repository.NewSnapshotRepository(pool, logger)

	// Core evaluation
	engine := adherence.NewEngine(logger)
	auditLogger := audit.NewLogger(pool, logger)

	// Services
	cycleService := service.NewCycleService(cycleRepo, auditLogger, clock, logger)
	statusService := service.NewStatusService(cycleRepo, snapshotRepo, engine, clock, logger)
	pdfGenerator := pdf.NewGenerator(logger)
	reportService := service.NewReportService(cycleRepo, pdfGenerator, auditLogger, clock, logger)

	// Handlers
	cycleHandler := handler.NewCycleHandler(cycleService, logger)
	statusHandler := handler.NewStatusHandler(statusService, logger)
	reportHandler := handler.NewReportHandler(reportService, logger)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-Report-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.ErrorLogging(logger))

	registerRoutes(r, pool, logger, cycleHandler, statusHandler, reportHandler)

	// Daily snapshot job
	var snapshotScheduler *scheduler.SnapshotScheduler
	if cfg.Snapshot.Enabled {
		snapshotScheduler = scheduler.NewSnapshotScheduler(
			cycleRepo,
			snapshotRepo,
			engine,
			clock,
			cfg.Snapshot.CronSpec,
			logger,
		)
		if err := snapshotScheduler.Start(); err != nil {
			logger.Fatal("failed to start snapshot scheduler", zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	if snapshotScheduler != nil {
		snapshotScheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	pool.Close()
	logger.Info("server exited")
}

func registerRoutes(
	r *gin.Engine,
	pool *pgxpool.Pool,
	logger *zap.Logger,
	cycleHandler *handler.CycleHandler,
	statusHandler *handler.StatusHandler,
	reportHandler *handler.ReportHandler,
) {
	r.GET("/health", func(c *gin.Context) {
		if err := pool.Ping(c.Request.Context()); err != nil {
			logger.Error("health check failed: database unreachable", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "disconnected",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"database": "connected",
			"service":  "pilling-backend",
		})
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/cycles", cycleHandler.CreateCycle)
		v1.GET("/cycles/current", cycleHandler.GetCurrentCycle)
		v1.GET("/cycles/:id", cycleHandler.GetCycle)
		v1.DELETE("/cycles/:id", cycleHandler.DeleteCycle)
		v1.GET("/cycles/:id/snapshots", statusHandler.SnapshotHistory)

		v1.POST("/doses/:id/intake", cycleHandler.RecordIntake)
		v1.DELETE("/doses/:id/intake", cycleHandler.ClearIntake)
		v1.PUT("/doses/:id/note", cycleHandler.UpdateNote)

		v1.GET("/status", statusHandler.CurrentStatus)
		v1.GET("/timeline", statusHandler.Timeline)
		v1.GET("/calendar", statusHandler.Calendar)

		v1.POST("/reports/generate", reportHandler.Generate)
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Server.Environment == "production" {
		return zap.NewProduction()
	}

	zapCfg := zap.NewDevelopmentConfig()
	if cfg.Logging.Format == "json" {
		zapCfg.Encoding = "json"
		zapCfg.EncoderConfig = zap.NewProductionEncoderConfig()
	}
	if level, err := zapcore.ParseLevel(cfg.Logging.Level); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zapCfg.Build()
}
