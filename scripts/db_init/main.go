package main

import (
	"context"
	"fmt"
	"os"

	dbfs "github.com/mkarpis/jobtrail/db"
	"github.com/mkarpis/jobtrail/internal/config"
	"github.com/mkarpis/jobtrail/internal/db"
)

func main() {
	ctx := context.Background()
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	database, err := db.New(ctx, cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	// run migrations using internal/db.Migrate
	if err := db.Migrate(ctx, database, dbfs.Migrations); err != nil {
		fmt.Fprintf(os.Stderr, "Migration runner error: %v\n", err)
		os.Exit(1)
	}

	// make sure the upload directory exists alongside the database
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Upload dir error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Database initialized successfully.")
}
