package main

import (
	"context"
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"

	"filevault/internal/config"
	"filevault/internal/database"
	"filevault/internal/domain/activity"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := database.Connect(cfg.DatabaseURL, true)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	if err := database.Migrate(db, &activity.Event{}); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	svc := activity.NewService(activity.NewRepository(db))
	n, err := svc.Prune(context.Background(), cfg.ActivityRetention)
	svc.Close()
	if err != nil {
		log.Fatalf("cleanup file_activity failed: %v", err)
	}

	log.Printf("activity cleanup completed: retention=%s file_activity=%d", cfg.ActivityRetention, n)
}
