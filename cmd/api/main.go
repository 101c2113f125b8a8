package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fingerattend/internal/backend"
	"fingerattend/internal/cloudinary"
	"fingerattend/internal/config"
	"fingerattend/internal/dashboard"
	"fingerattend/internal/httpmiddleware"
	"fingerattend/internal/linker"
	"fingerattend/internal/queue"
	"fingerattend/internal/sensor"
	"fingerattend/internal/store"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, err := store.Open(ctx, store.Options{
		Backend:     cfg.StorageBackend,
		RedisAddr:   cfg.RedisAddr,
		DatabaseURL: cfg.DatabaseURL,
		SQLitePath:  cfg.SQLitePath,
	})
	if err != nil {
		return err
	}
	defer kv.Close()
	log.Printf("session storage: %s", cfg.StorageBackend)

	api := backend.New(cfg.BackendURL, cfg.BackendTimeout)
	sensorClient := sensor.New(cfg.SensorURL, cfg.SensorSkip)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		rdb := store.NewRedis(cfg.RedisAddr)
		defer rdb.Close()
		q = queue.NewRedisQueue(rdb.Client, "")
	}
	link := linker.New(api, sensorClient, kv)
	if cfg.QueueBackend == "memory" {
		go func() {
			if err := link.Run(ctx, q); err != nil {
				log.Printf("in-process link consumer stopped: %v", err)
			}
		}()
		log.Println("fingerprint link jobs run in-process")
	}

	cdn := cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
	if cdn.Configured() {
		log.Println("Cloudinary configured:", cfg.CloudinaryCloudName)
	} else {
		log.Println("Cloudinary not configured (CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET not set)")
	}

	srv := &server{
		cfg:      cfg,
		base:     ctx,
		kv:       kv,
		source:   api,
		writer:   api,
		scanner:  sensorClient,
		linker:   link,
		queue:    q,
		cdn:      cdn,
		doctors:  dashboard.NewRegistry[*dashboard.Doctor](),
		students: dashboard.NewRegistry[*dashboard.Student](),
		limit:    httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware(),
	}
	defer srv.doctors.Close()
	defer srv.students.Close()
	go srv.doctors.SweepEvery(ctx, time.Minute, cfg.ViewIdleTimeout)
	go srv.students.SweepEvery(ctx, time.Minute, cfg.ViewIdleTimeout)

	r := newRouter(cfg)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		_, _, storeErr := kv.Get(c.Request.Context(), "health", "probe")
		sensorErr := sensorClient.Health(c.Request.Context())
		status := http.StatusOK
		if storeErr != nil || sensorErr != nil {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "storage": storeErr == nil, "sensor": sensorErr == nil})
	})
	srv.routes(r)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// newRouter builds the engine with the shared middleware stack.
func newRouter(cfg config.App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.Instrument())
	return r
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
