// One-shot crawl: run the pipeline once against the configured database and
// exit non-zero when the run degraded. Meant for cron-less operation and
// manual backfills.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"notice-feed/internal/app"
	"notice-feed/internal/config"
	"notice-feed/internal/database/migration"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	// HTTP_PORT is required by the shared loader but irrelevant here.
	if os.Getenv("HTTP_PORT") == "" {
		os.Setenv("HTTP_PORT", "0")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := log.Default()

	container, err := app.NewContainer(cfg, logger)
	if err != nil {
		log.Fatalf("failed to build container: %v", err)
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Printf("cleanup error: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	if err := (migration.Runner{}).Run(ctx, container.DB.SQLDB()); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	res, err := container.Crawler.Run(ctx)
	if err != nil {
		log.Fatalf("crawl failed: %v", err)
	}

	for src, st := range res.Stats {
		logger.Printf("[Crawl] source=%s listed=%d changed=%d errors=%d", src, st.Listed, st.Changed, st.Errors)
	}
	logger.Printf("[Crawl] run=%s ok=%t", res.RunID, res.OK)

	if !res.OK {
		os.Exit(1)
	}
}
