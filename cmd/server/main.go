package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notice-feed/internal/app"
	"notice-feed/internal/config"
	"notice-feed/internal/crawler"
	"notice-feed/internal/database/migration"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := log.Default()

	server, container, cleanup, err := app.Bootstrap(cfg, logger)
	if err != nil {
		log.Fatalf("failed to bootstrap app: %v", err)
	}
	defer func() {
		if err := cleanup(); err != nil {
			log.Printf("cleanup error: %v", err)
		}
	}()

	migCtx, cancelMig := context.WithTimeout(context.Background(), 30*time.Second)
	if err := (migration.Runner{}).Run(migCtx, container.DB.SQLDB()); err != nil {
		cancelMig()
		log.Fatalf("failed to run migrations: %v", err)
	}
	cancelMig()

	var scheduler *cron.Cron
	if cfg.Crawl.Schedule != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.Crawl.Schedule, func() {
			runScheduledCrawl(container.Crawler, logger)
		})
		if err != nil {
			log.Fatalf("invalid CRAWL_SCHEDULE: %v", err)
		}
		scheduler.Start()
		logger.Printf("[Server] crawl schedule active: %s", cfg.Crawl.Schedule)
	}

	addr, err := app.ListenAddr(cfg.App.HTTPPort)
	if err != nil {
		log.Fatalf("invalid HTTP port: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Fiber.Listen(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	case <-sigCh:
		if scheduler != nil {
			<-scheduler.Stop().Done()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Fiber.ShutdownWithContext(ctx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}
}

func runScheduledCrawl(cr *crawler.Crawler, logger *log.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	res, err := cr.Run(ctx)
	if errors.Is(err, crawler.ErrRunInProgress) {
		logger.Printf("[Server] scheduled crawl skipped, run already in progress")
		return
	}
	if err != nil {
		logger.Printf("[Server] scheduled crawl failed: %v", err)
		return
	}
	logger.Printf("[Server] scheduled crawl run=%s ok=%t", res.RunID, res.OK)
}
