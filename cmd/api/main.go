package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"faceattend/internal/attendance"
	"faceattend/internal/auth"
	"faceattend/internal/cloudinary"
	"faceattend/internal/config"
	"faceattend/internal/departments"
	"faceattend/internal/events"
	"faceattend/internal/httpmiddleware"
	"faceattend/internal/queue"
	"faceattend/internal/store"
	"faceattend/internal/users"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := store.NewDB(dbCtx, cfg.DatabaseURL)
	dbCancel()
	if err != nil {
		if db == nil {
			return err
		}
		log.Printf("warning: db not reachable: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "")
	}

	cdnClient := cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
	if cdnClient.Enabled() {
		log.Println("Cloudinary configured:", cfg.CloudinaryCloudName)
	} else {
		log.Println("Cloudinary not configured (CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET not set)")
	}

	userRepo := users.NewRepository(db.Client)
	userSvc := users.NewService(userRepo, redisClient, cfg.StatsCacheTTL)

	deptRepo := departments.NewRepository(db.Client)
	deptSvc := departments.NewService(deptRepo)

	attRepo := attendance.NewRepository(db.Client)
	attSvc := attendance.NewService(attRepo, redisClient, cfg.StatsCacheTTL)

	eventRepo := events.NewRepository(db.Client)
	var upload events.Uploader
	if cdnClient.Enabled() {
		upload = func(data string) (string, error) {
			res, err := cdnClient.UploadBase64(data)
			if err != nil {
				return "", err
			}
			return res.SecureURL, nil
		}
	}
	eventSvc := events.NewService(eventRepo, userRepo, attSvc, q, upload)

	authHandler := auth.NewHandler(userRepo, userRepo, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.CORS())
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.Metrics())
	r.Use(httpmiddleware.NewRateLimiter(cfg.RateLimitPerMin).Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	api := r.Group("/api")
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	bearer := auth.Bearer(cfg.JWTSigningKey, cfg.JWTIssuer)
	api.GET("/auth/me", bearer, authHandler.Me)

	admin := api.Group("", bearer, auth.RequireRole("admin"))
	users.NewHandler(userSvc).Register(admin.Group("/users"))
	departments.NewHandler(deptSvc).Register(admin.Group("/departments"))
	events.NewHandler(eventSvc).Register(admin.Group("/events"))
	attendance.NewHandler(attSvc).Register(admin.Group("/attendance"))

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}
