package app

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ingestq.io/ingestq/internal/api/handlers"
	"ingestq.io/ingestq/internal/api/middleware"
	"ingestq.io/ingestq/internal/config"
	"ingestq.io/ingestq/internal/pkg/logger"
)

// defaultAllowedOrigins is used when no origin is configured.
var defaultAllowedOrigins = []string{
	"http://localhost:8000",
	"http://127.0.0.1:8000",
}

func newRouter(cfg *config.Config, server *handlers.Server) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.ErrorHandler())
	router.Use(cors.New(buildCORSConfig(cfg)))

	router.GET("/", server.Root)
	router.POST("/ingest", server.Ingest)
	router.GET("/status/:ingestion_id", server.GetStatus)

	router.GET("/health/live", server.GetLiveness)
	router.GET("/health/ready", server.GetReadiness)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	levelHandler := gin.WrapH(logger.HTTPHandler())
	router.GET("/log/level", levelHandler)
	router.PUT("/log/level", levelHandler)
	return router
}

// buildCORSConfig turns the server CORS settings into a cors.Config.
// A wildcard origin is honored only with UnsafeAllowAllOrigins, and never
// together with credentials. With no usable origin left, localhost is allowed.
func buildCORSConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	if cfg.Server.UnsafeAllowAllOrigins {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
		return c
	}

	origins := make([]string, 0, len(cfg.Server.AllowedOrigins))
	for _, o := range cfg.Server.AllowedOrigins {
		o = strings.TrimSpace(o)
		if o == "" || o == "*" {
			continue
		}
		origins = append(origins, o)
	}
	if len(origins) == 0 {
		origins = append(origins, defaultAllowedOrigins...)
	}
	c.AllowOrigins = origins
	c.AllowCredentials = cfg.Server.AllowCredentials
	return c
}
