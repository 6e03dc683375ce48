package router

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/apiprobe/apiprobe/common/config"
	"github.com/apiprobe/apiprobe/common/helper"
	"github.com/apiprobe/apiprobe/common/logger"
)

func SetRouter(server *gin.Engine) {
	server.Use(cors.New(corsConfig(config.CorsOrigins)))
	if config.EnableGzip {
		server.Use(gzip.Gzip(gzip.DefaultCompression))
	}

	if config.EnablePrometheusMetrics {
		server.GET("/metrics", gin.WrapH(promhttp.Handler()))
		logger.Logger.Info("Prometheus metrics endpoint available at /metrics")
	}

	SetApiRouter(server)
}

func corsConfig(origins string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", helper.RequestIdKey},
		ExposeHeaders: []string{helper.RequestIdKey},
		MaxAge:        12 * time.Hour,
	}

	var allowed []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 || (len(allowed) == 1 && allowed[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}

	cfg.AllowOrigins = allowed
	cfg.AllowCredentials = true
	return cfg
}
