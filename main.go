package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	glog "github.com/Laisky/go-utils/v5/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/apiprobe/apiprobe/common"
	"github.com/apiprobe/apiprobe/common/client"
	"github.com/apiprobe/apiprobe/common/config"
	"github.com/apiprobe/apiprobe/common/graceful"
	"github.com/apiprobe/apiprobe/common/logger"
	"github.com/apiprobe/apiprobe/controller"
	"github.com/apiprobe/apiprobe/middleware"
	"github.com/apiprobe/apiprobe/model"
	"github.com/apiprobe/apiprobe/monitor"
	"github.com/apiprobe/apiprobe/router"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	common.Init()
	logger.SetupLogger()
	logger.SetupEnhancedLogger()

	logger.Logger.Info("apiprobe started", zap.String("version", common.Version))

	if config.GinMode != "" {
		gin.SetMode(config.GinMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if config.LogRetentionDays > 0 && logger.LogDir != "" {
		logger.StartLogRetentionCleaner(ctx, config.LogRetentionDays, logger.LogDir)
	}

	model.InitDB()
	defer func() {
		if err := model.CloseDB(); err != nil {
			logger.Logger.Error("failed to close database", zap.Error(err))
		}
	}()

	if err := common.InitRedisClient(); err != nil {
		logger.Logger.Fatal("failed to initialize Redis", zap.Error(err))
	}
	defer common.CloseRedisClient()

	if config.EnablePrometheusMetrics {
		if err := monitor.InitPrometheusMonitoring(prometheus.DefaultRegisterer,
			common.Version, runtime.Version(), time.Unix(common.StartTime, 0)); err != nil {
			logger.Logger.Fatal("failed to initialize Prometheus monitoring", zap.Error(err))
		}
		logger.Logger.Info("Prometheus monitoring initialized")
	}

	if err := client.Init(); err != nil {
		logger.Logger.Fatal("failed to initialize outbound http client", zap.Error(err))
	}
	defer client.Close()
	controller.InitExecutor()

	logLevel := glog.LevelInfo
	if config.DebugEnabled {
		logLevel = glog.LevelDebug
	}

	server := gin.New()
	server.RedirectTrailingSlash = false
	server.Use(
		gmw.NewLoggerMiddleware(
			gmw.WithLoggerMwColored(),
			gmw.WithLevel(logLevel.String()),
			gmw.WithLogger(logger.Logger.Named("gin")),
		),
		middleware.RequestId(),
		middleware.PanicRecover(),
		middleware.GracefulTracker(),
	)
	if config.EnablePrometheusMetrics {
		server.Use(middleware.PrometheusMiddleware())
	}
	router.SetRouter(server)

	port := config.ServerPort
	if port == "" {
		port = strconv.Itoa(*common.Port)
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Logger.Info("server started", zap.String("address", "http://localhost:"+port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Logger.Info("shutdown signal received, draining")
	graceful.SetDraining()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(config.ShutdownTimeoutSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error("http server shutdown", zap.Error(err))
	}
	if err := graceful.Drain(shutdownCtx); err != nil {
		logger.Logger.Error("graceful drain", zap.Error(err))
	}
	logger.Logger.Info("server stopped")
}
