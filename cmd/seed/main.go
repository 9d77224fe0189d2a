package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"filevault/internal/config"
	"filevault/internal/domain/files"
	jwtsvc "filevault/internal/pkg/jwt"
	"filevault/internal/storage"
)

// sampleFiles are uploaded into the demo tenant. Names may carry sub-paths.
var sampleFiles = map[string]string{
	"documents/readme.txt":       "Welcome to filevault.\n",
	"documents/notes/todo.md":    "# Todo\n\n- try the archive endpoint\n",
	"gallery/2024/cover.svg":     `<svg xmlns="http://www.w3.org/2000/svg" width="8" height="8"/>`,
	"gallery/2024/palette.json":  `{"primary":"#1d4ed8"}`,
	"reports/quarterly-q1.csv":   "month,total\njan,10\nfeb,12\nmar,15\n",
	"reports/quarterly-q2.csv":   "month,total\napr,9\nmay,14\njun,18\n",
	"old/obsolete-draft.txt":     "to be trashed\n",
	"old/obsolete-draft (1).txt": "also to be trashed\n",
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.StorageDriver != storage.DriverOS {
		log.Fatal("seed needs STORAGE_DRIVER=os; a memory medium would vanish on exit")
	}

	tenant := strings.TrimSpace(os.Getenv("SEED_TENANT"))
	if tenant == "" {
		tenant = "demo"
	}

	root, err := filepath.Abs(cfg.StorageRoot)
	if err != nil {
		log.Fatalf("storage root: %v", err)
	}
	medium, err := storage.New(cfg.StorageDriver, root)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	svc := files.NewService(medium, files.Options{
		Root:                root,
		TrashName:           cfg.TrashDirName,
		TrashRenameAttempts: cfg.TrashRenameAttempts,
	})
	ctx := context.Background()

	log.Printf("Seeding tenant %q under %s...", tenant, root)
	for _, name := range []string{"documents", "gallery", "reports", "shared"} {
		_, err := svc.CreateFolder(ctx, tenant, "", name)
		if err != nil && !errors.Is(err, files.ErrAlreadyExists) {
			log.Fatalf("create folder %s: %v", name, err)
		}
	}

	items := make([]files.UploadItem, 0, len(sampleFiles))
	for name, body := range sampleFiles {
		items = append(items, files.UploadItem{Name: name, Open: opener(body)})
	}
	res, err := svc.Upload(ctx, tenant, "", items)
	if err != nil {
		log.Fatalf("upload samples: %v", err)
	}
	for _, f := range res.Failed {
		log.Printf("sample %s failed: %s", f.Name, f.Code)
	}

	for _, p := range []string{"old/obsolete-draft.txt", "old/obsolete-draft (1).txt"} {
		if _, err := svc.Remove(ctx, tenant, p); err != nil && !errors.Is(err, files.ErrNotFound) {
			log.Fatalf("trash %s: %v", p, err)
		}
	}

	token, err := jwtsvc.New(cfg.JWTSecret, cfg.DevTokenTTL).GenerateToken(tenant, "seed")
	if err != nil {
		log.Fatalf("token: %v", err)
	}

	log.Printf("Seed complete: uploaded=%d failed=%d", len(res.Uploaded), len(res.Failed))
	fmt.Printf("\nDev token for tenant %q (valid %s):\n%s\n", tenant, cfg.DevTokenTTL, token)
}

func opener(body string) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewBufferString(body)), nil
	}
}
