package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/garnizeh/review/internal/config"
	"github.com/garnizeh/review/internal/db"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to config YAML file")
		in         = flag.String("in", "", "Backup to restore (default: <database_path>.bak)")
	)
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	src := *in
	if src == "" {
		src = cfg.DatabasePath + ".bak"
	}

	// the server must be stopped; restore swaps the file underneath it
	if err := db.Restore(src, cfg.DatabasePath); err != nil {
		fmt.Fprintf(os.Stderr, "Restore error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Database restore completed.")
}
