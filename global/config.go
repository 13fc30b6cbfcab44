package global

import (
	"os"
	"strconv"
	"sync"
)

// AppConfig is the process-wide configuration, loaded once from the
// environment. Every field has a default suitable for local development.
type AppConfig struct {
	Port   int
	NodeID int64

	MongoURI      string
	MongoDatabase string

	// RedisAddr empty disables the presence layer entirely.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string

	SendQueueSize int
	FanoutWorkers int
	FanoutQueue   int
}

var (
	cfg     *AppConfig
	cfgOnce sync.Once
)

func Config() *AppConfig {
	cfgOnce.Do(func() {
		cfg = &AppConfig{
			Port:          envInt("PORT", 3000),
			NodeID:        int64(envInt("NODE_ID", 1)),
			MongoURI:      envStr("MONGO_URI", "mongodb://localhost:27017"),
			MongoDatabase: envStr("MONGO_DB", "chatrelay"),
			RedisAddr:     envStr("REDIS_ADDR", ""),
			RedisPassword: envStr("REDIS_PASSWORD", ""),
			RedisDB:       envInt("REDIS_DB", 0),
			JWTSecret:     envStr("JWT_SECRET", "dev-only-secret"),
			SendQueueSize: envInt("SEND_QUEUE_SIZE", 256),
			FanoutWorkers: envInt("FANOUT_WORKERS", 8),
			FanoutQueue:   envInt("FANOUT_QUEUE", 1024),
		}
	})
	return cfg
}

func JWTSecret() []byte {
	return []byte(Config().JWTSecret)
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
