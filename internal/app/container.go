package app

import (
	"context"
	"log"
	"time"

	"notice-feed/internal/config"
	"notice-feed/internal/crawler"
	"notice-feed/internal/database"
	dbpostgres "notice-feed/internal/database/postgres"
	"notice-feed/internal/infrastructure/cache"
	"notice-feed/internal/repository"
	"notice-feed/internal/source"
	"notice-feed/internal/usecase"
)

// Container wires the long-lived dependencies once; handlers and commands
// pull from it.
type Container struct {
	Config config.Config
	DB     database.DB
	Cache  *cache.Redis

	Posts repository.PostRepository
	Runs  repository.RunRepository

	PostQuery *usecase.PostQueryUsecase
	Crawler   *crawler.Crawler
}

func NewContainer(cfg config.Config, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	redisCache := cache.NewRedis(cfg.Redis, logger)

	posts := repository.NewPostgresPostRepository(db)
	runs := repository.NewPostgresRunRepository(db)

	client := source.NewClient(cfg.Crawl.Timeout, cfg.Crawl.UserAgent, cfg.Crawl.Retries)
	cr := crawler.New(source.All(), posts, runs, client, redisCache, logger, cfg.Crawl.DetailLimit)

	return &Container{
		Config:    cfg,
		DB:        db,
		Cache:     redisCache,
		Posts:     posts,
		Runs:      runs,
		PostQuery: usecase.NewPostQueryUsecase(posts, redisCache),
		Crawler:   cr,
	}, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
