package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"filevault/internal/config"
	"filevault/internal/database"
	"filevault/internal/domain/activity"
	"filevault/internal/domain/files"
	"filevault/internal/domain/watch"
	"filevault/internal/middleware"
	jwtsvc "filevault/internal/pkg/jwt"
	"filevault/internal/storage"
	"filevault/internal/tracing"
)

const (
	serviceName    = "filevault"
	serviceVersion = "1.0.0"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracing.Init(ctx, serviceName, serviceVersion, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("tracing: %v", err)
	}

	root := cfg.StorageRoot
	if cfg.StorageDriver == storage.DriverOS {
		if root, err = filepath.Abs(root); err != nil {
			log.Fatalf("storage root: %v", err)
		}
	}
	medium, err := storage.New(cfg.StorageDriver, root)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	j := jwtsvc.New(cfg.JWTSecret, cfg.DevTokenTTL)
	hub := watch.NewHub()
	observers := []files.Observer{hub}

	var activityHandler *activity.Handler
	var activityService *activity.Service
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL, cfg.IsProdLike())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		if err := database.Migrate(db, &activity.Event{}); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		activityService = activity.NewService(activity.NewRepository(db))
		observers = append(observers, activityService)
		activityHandler = activity.NewHandler(activityService)
	} else {
		log.Println("activity journal disabled: DATABASE_URL is empty")
	}

	fileService := files.NewService(medium, files.Options{
		Root:                root,
		TrashName:           cfg.TrashDirName,
		TrashRenameAttempts: cfg.TrashRenameAttempts,
		CacheMaxAge:         cfg.ContentCacheMaxAge,
		Archive: files.ArchiveLimits{
			MaxFiles:     cfg.MaxArchiveFiles,
			MaxFileSize:  cfg.MaxArchiveFileSize,
			MaxTotalSize: cfg.MaxArchiveTotalSize,
		},
	}, observers...)
	fileHandler := files.NewHandler(fileService, cfg.MaxUploadSize)

	origins := strings.Join(cfg.CORSAllowedOrigins, ",")
	watchHandler := watch.NewHandler(hub, j, middleware.AllowedOrigins(origins))

	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), middleware.RequestID(), middleware.ErrorLogger(), middleware.CORS(origins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		watchHandler.RegisterRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.TenantAuth(j))
		{
			files.RegisterRoutes(protected, fileHandler)
			if activityHandler != nil {
				activityHandler.RegisterRoutes(protected)
			}
		}
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(r, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("filevault listening on %s (storage=%s root=%s)", cfg.HTTPAddr, cfg.StorageDriver, root)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if activityService != nil {
		activityService.Close()
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Printf("tracer shutdown: %v", err)
	}
}
