package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type (
	Postgres struct {
		User   string
		Pass   string
		Host   string
		Port   string
		DBName string
	}

	Redis struct {
		Addr string
		DB   int
	}

	ServerConfig struct {
		Port   string
		Host   string
		LogLvl string
	}

	// Feed is one quote provider address.
	Feed struct {
		ID   string
		Host string
		Port string
	}

	// Arbitrage holds the detection policy constants. The defaults come
	// from the reference scenario: 1.5s staleness window, 10 minute
	// session, 1 minute inactivity timeout, 100 units starting notional.
	Arbitrage struct {
		StalenessWindow   time.Duration
		SessionLifetime   time.Duration
		InactivityTimeout time.Duration
		StartNotional     float64
	}

	Config struct {
		Postgres  Postgres
		Redis     Redis
		Server    ServerConfig
		Feeds     []Feed
		Arbitrage Arbitrage
	}
)

func LoadConfig() *Config {
	cfg := &Config{}

	cfg.Postgres.User = getEnv("DB_USER", "postgres")
	cfg.Postgres.Pass = getEnv("DB_PASS", "postgres")
	cfg.Postgres.Host = getEnv("DB_HOST", "localhost")
	cfg.Postgres.Port = getEnv("DB_PORT", "5432")
	cfg.Postgres.DBName = getEnv("DB_NAME", "arbflow")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.DB, _ = strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg.Server.LogLvl = getEnv("LOG_LVL", "dev")
	cfg.Server.Port = getEnv("PORT", "8080")
	cfg.Server.Host = getEnv("HOST", "0.0.0.0")

	cfg.Feeds = parseFeeds(getEnv("FEED_ADDRS", "127.0.0.1:40101"))

	cfg.Arbitrage.StalenessWindow = getEnvDuration("STALENESS_WINDOW", 1500*time.Millisecond)
	cfg.Arbitrage.SessionLifetime = getEnvDuration("SESSION_LIFETIME", 10*time.Minute)
	cfg.Arbitrage.InactivityTimeout = getEnvDuration("INACTIVITY_TIMEOUT", time.Minute)
	cfg.Arbitrage.StartNotional = getEnvFloat("START_NOTIONAL", 100)

	return cfg
}

// parseFeeds splits a comma-separated list of host:port addresses.
func parseFeeds(raw string) []Feed {
	var feeds []Feed
	for i, addr := range strings.Split(raw, ",") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		host, port := addr, "40101"
		if idx := strings.LastIndex(addr, ":"); idx >= 0 {
			host, port = addr[:idx], addr[idx+1:]
		}
		feeds = append(feeds, Feed{
			ID:   "feed" + strconv.Itoa(i+1),
			Host: host,
			Port: port,
		})
	}
	return feeds
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}

	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil && value > 0 {
		return value
	}

	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil && value > 0 {
		return value
	}

	return defaultValue
}
