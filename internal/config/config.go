package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Crawl    CrawlConfig
}

type AppConfig struct {
	HTTPPort   string
	AdminToken string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	PoolMaxConns int32
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

type CrawlConfig struct {
	Timeout     time.Duration
	Retries     int
	DetailLimit int
	UserAgent   string
	// Cron expression; empty disables the scheduled trigger.
	Schedule string
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

func Load() (Config, error) {
	cfg := Config{}

	var missing []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key string) string {
		return strings.TrimSpace(os.Getenv(key))
	}

	cfg.App = AppConfig{
		HTTPPort:   req("HTTP_PORT"),
		AdminToken: opt("ADMIN_TOKEN"),
	}

	cfg.Database = DatabaseConfig{
		Host:         opt("DB_HOST"),
		Port:         opt("DB_PORT"),
		Name:         opt("DB_NAME"),
		User:         opt("DB_USER"),
		Password:     opt("DB_PASSWORD"),
		SSLMode:      opt("DB_SSL_MODE"),
		PoolMaxConns: int32(optInt("DB_POOL_MAX_CONNS", 0)),
	}

	cfg.Redis = RedisConfig{
		Host:     opt("REDIS_HOST"),
		Port:     optDefault("REDIS_PORT", "6379"),
		Password: opt("REDIS_PASSWORD"),
	}

	cfg.Crawl = CrawlConfig{
		Timeout:     time.Duration(optInt("CRAWL_TIMEOUT_MS", 15000)) * time.Millisecond,
		Retries:     optInt("CRAWL_RETRIES", 2),
		DetailLimit: optInt("CRAWL_DETAIL_LIMIT", 20),
		UserAgent:   optDefault("CRAWL_USER_AGENT", "notice-feed-crawler/1.0"),
		Schedule:    opt("CRAWL_SCHEDULE"),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	return cfg, nil
}

func optDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func optInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
