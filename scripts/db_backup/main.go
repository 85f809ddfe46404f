package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/garnizeh/review/internal/config"
	"github.com/garnizeh/review/internal/db"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to config YAML file")
		out        = flag.String("out", "", "Backup destination (default: <database_path>.bak)")
	)
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	dst := *out
	if dst == "" {
		dst = cfg.DatabasePath + ".bak"
	}

	ctx := context.Background()
	database, err := db.New(ctx, cfg.DatabasePath, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Backup error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.Backup(ctx, dst); err != nil {
		fmt.Fprintf(os.Stderr, "Backup error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Database backup completed: %s\n", dst)
}
