// Command bragi is the geocoder API server: it serves the forward,
// reverse, feature, status, and metrics endpoints of spec.md §6.
// Bootstrap is adapted from the teacher's cmd/main.go (gin router,
// graceful shutdown on SIGINT/SIGTERM, Prometheus metrics wiring),
// generalized from its Typesense-search-service shape to this
// platform's geocoder handlers and dropping its auth/tracing/tenant
// layers entirely (no auth surface per the spec's Non-goals).
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/tesseract-hub/mimir-geocoder/internal/cache"
	"github.com/tesseract-hub/mimir-geocoder/internal/config"
	"github.com/tesseract-hub/mimir-geocoder/internal/dsl"
	"github.com/tesseract-hub/mimir-geocoder/internal/geocode"
	"github.com/tesseract-hub/mimir-geocoder/internal/metrics"
	appmw "github.com/tesseract-hub/mimir-geocoder/internal/middleware"
	"github.com/tesseract-hub/mimir-geocoder/internal/search"
	"github.com/tesseract-hub/mimir-geocoder/internal/status"
)

const version = "0.1.0"

func main() {
	flags := pflag.NewFlagSet("bragi", pflag.ExitOnError)
	configDir := flags.String("config-dir", "config", "directory holding default.toml / <mode>.toml / local.toml")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load("BRAGI", *configDir, flags)
	if err != nil {
		log.Fatalf("bragi: loading configuration: %v", err)
	}

	logger := logrus.New()
	if cfg.Logging.Path != "" {
		f, err := os.OpenFile(cfg.Logging.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			log.Fatalf("bragi: opening log file: %v", err)
		}
		logger.SetOutput(f)
	}

	settings, err := dsl.Load(cfg.QueryTOML)
	if err != nil {
		logger.WithError(err).Warn("query settings file not found, using defaults")
		settings = dsl.Default()
	}

	backend := search.New(cfg.Elasticsearch.URL, cfg.Elasticsearch.APIKey, time.Duration(cfg.Elasticsearch.Timeout)*time.Second)

	respCache := cache.NewCache(cache.Config{TTL: time.Duration(cfg.HTTPCacheDuration) * time.Second})
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.WithError(err).Fatal("bragi: invalid redis.url")
		}
		respCache = respCache.WithRedis(redis.NewClient(opts))
	}

	reg := metrics.New()
	reporter := &status.Reporter{Version: version, Backend: backend}
	handler := &geocode.Handler{
		Backend:             backend,
		Settings:            settings,
		Version:             version,
		AutocompleteTimeout: time.Duration(cfg.AutocompleteTimeout) * time.Millisecond,
		ReverseTimeout:      time.Duration(cfg.ReverseTimeout) * time.Millisecond,
		FeaturesTimeout:     time.Duration(cfg.FeaturesTimeout) * time.Millisecond,
		Cache:               respCache,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(appmw.Recovery(logger), appmw.RequestID(), appmw.CORS(), appmw.Logger(logger), appmw.Metrics(reg))
	router.MaxMultipartMemory = cfg.Service.ContentLengthLimit

	router.GET("/metrics", gin.WrapH(reg.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	v1.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"description": "mimir-geocoder forward/reverse geocoding API"})
	})
	v1.GET("/status", reporter.Handler())
	v1.GET("/autocomplete", handler.Forward)
	v1.POST("/autocomplete", handler.Forward)
	v1.GET("/reverse", handler.Reverse)
	v1.GET("/features/:id", handler.Feature)

	addr := cfg.Service.Host + ":" + strconv.Itoa(cfg.Service.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	go func() {
		logger.WithField("addr", addr).Info("bragi starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("bragi: server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("bragi shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("error during shutdown")
		os.Exit(1)
	}
}
