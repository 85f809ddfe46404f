package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	dbfs "github.com/garnizeh/review/db"
	"github.com/garnizeh/review/internal/config"
	"github.com/garnizeh/review/internal/db"
	"github.com/garnizeh/review/internal/remark"
	"github.com/garnizeh/review/internal/repository/sqlite"
	"github.com/garnizeh/review/internal/seed"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to config YAML file")
		fixture    = flag.String("fixture", "", "YAML fixture on disk (default: embedded seed/demo.yaml)")
	)
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	var f *seed.Fixture
	if *fixture != "" {
		fh, err := os.Open(*fixture)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Fixture error: %v\n", err)
			os.Exit(1)
		}
		f, err = seed.Parse(fh)
		fh.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Fixture error: %v\n", err)
			os.Exit(1)
		}
	} else {
		f, err = seed.Load(dbfs.SeedFiles, "seed/demo.yaml")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Fixture error: %v\n", err)
			os.Exit(1)
		}
	}

	database, err := db.New(ctx, cfg.DatabasePath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DB error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(ctx, database, dbfs.Migrations); err != nil {
		fmt.Fprintf(os.Stderr, "Migration runner error: %v\n", err)
		os.Exit(1)
	}

	repo := sqlite.New(database, logger)
	svc := remark.NewService(repo, nil, logger, nil)
	res, err := seed.New(repo, repo, svc, logger).Apply(ctx, f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Seed error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Seeded %d users and %d submissions (%d remarks).\n", res.UsersCreated, res.SubmissionsCreated, res.RemarksSaved)
}
