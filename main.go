package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/hertz-contrib/cors"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/dkenzhe/photomatte/handlers"
	"github.com/dkenzhe/photomatte/internal/matting"
	"github.com/dkenzhe/photomatte/internal/middleware"
	"github.com/dkenzhe/photomatte/internal/session"
	"github.com/dkenzhe/photomatte/services/storage"
)

const (
	DefaultPort  = "8000"
	SessionTTL   = 30 * time.Minute
	PurgeEvery   = "@every 5m"
	maxBodyBytes = 52 * 1024 * 1024 // a little over the 50 MiB upload cap
)

func main() {
	// Default environment
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	envFile := fmt.Sprintf(".env.%s", env)
	// Load specific environment file, fallback to default .env
	if _, err := os.Stat(envFile); err == nil {
		log.Printf("Loading environment from %s", envFile)
	} else {
		log.Printf("%s not found, loading default .env file", envFile)
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("No %s file, relying on process environment", envFile)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = DefaultPort
	}

	// Result storage is optional; without R2 config downloads are served
	// from the session store only.
	var storageSvc storage.StorageService
	if os.Getenv("R2_BUCKET_NAME") != "" {
		svc, err := storage.NewR2Service()
		if err != nil {
			log.Fatalf("failed to initialize storage service: %v", err)
		}
		storageSvc = svc
	}

	sessions := session.NewStore(SessionTTL)
	sessions.OnEvict(func(s session.Session) {
		if storageSvc == nil || s.ResultKey == "" {
			return
		}
		if err := storageSvc.DeleteBlob(context.Background(), s.ResultKey); err != nil {
			log.Printf("Failed to delete mirrored result %s: %v", s.ResultKey, err)
		}
	})

	// initialize handlers
	photoHandler := &handlers.PhotoHandler{
		Sessions: sessions,
		Matting:  matting.NewClient(os.Getenv("MATTE_SIDECAR_ADDR")),
		Storage:  storageSvc,
	}
	userHandler := &handlers.UserHandler{}

	// create a new Hertz server
	h := server.New(
		server.WithHostPorts(":"+port),
		server.WithMaxRequestBodySize(maxBodyBytes),
	)

	// The editor UI may be hosted separately from the API.
	h.Use(cors.Default())

	h.GET("/", photoHandler.IndexHandler)
	h.GET("/api/health", photoHandler.HealthCheckHandler)

	editor := h.Group("/")
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		log.Println("JWT_SECRET set, editor endpoints require a Bearer token")
		editor.Use(middleware.AuthMiddleware([]byte(secret)))
		// WARNING: This is a TESTING-ONLY route. Disable or remove in production!
		h.POST("/api/test-auth", userHandler.TestAuthHandler)
	}
	editor.POST("/upload", photoHandler.UploadHandler)
	editor.POST("/set-size", photoHandler.SetSizeHandler)
	editor.POST("/set-crop", photoHandler.SetCropHandler)
	editor.POST("/remove-background", photoHandler.RemoveBackgroundHandler)
	editor.GET("/download/:sessionId", photoHandler.DownloadHandler)

	// Expired sessions (and their mirrored blobs) are purged on a schedule.
	c := cron.New()
	if _, err := c.AddFunc(PurgeEvery, func() {
		if n := sessions.Purge(); n > 0 {
			log.Printf("Purged %d expired sessions, %d live", n, sessions.Len())
		}
	}); err != nil {
		log.Fatalf("failed to schedule session purge: %v", err)
	}
	c.Start()
	defer c.Stop()

	// Start server
	log.Printf("Server starting on port %s...", port)
	h.Spin()
}
