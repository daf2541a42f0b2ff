package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Reco     RecoConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisDB       int

	// The pipeline hits redis on every request (recall state, frequency
	// caps, bandit reads), so the pool is sized per deployment rather than
	// left at the client defaults.
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RecoConfig carries process-level tuning of the ranking pipeline. The
// hot-swappable parts (strategy weights, boost thresholds) have their own
// snapshot types and are only seeded from here.
type RecoConfig struct {
	RecallTimeout         time.Duration
	DefaultLimit          int
	SessionWeight         float64
	ExploreBlend          float64
	MMRLambda             float64
	MaxMerchantRatio      float64
	FreqCapDaily          int
	FreqCapWeekly         int
	ExplorationAlpha      float64
	SessionDecayPerMinute float64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.New("invalid redis database")
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "FreshMarket Reco API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "fresh_market"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisUsername: getEnv("REDIS_USERNAME", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
			PoolSize:      getEnvInt("REDIS_POOL_SIZE", 20),
			MinIdleConns:  getEnvInt("REDIS_MIN_IDLE_CONNS", 5),
			DialTimeout:   getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:   getEnvDuration("REDIS_READ_TIMEOUT", 500*time.Millisecond),
			WriteTimeout:  getEnvDuration("REDIS_WRITE_TIMEOUT", 500*time.Millisecond),
		},
		Reco: RecoConfig{
			RecallTimeout:         getEnvDuration("RECO_RECALL_TIMEOUT", 3*time.Second),
			DefaultLimit:          getEnvInt("RECO_DEFAULT_LIMIT", 10),
			SessionWeight:         getEnvFloat("RECO_SESSION_WEIGHT", 0.6),
			ExploreBlend:          getEnvFloat("RECO_EXPLORE_BLEND", 0.3),
			MMRLambda:             getEnvFloat("RECO_MMR_LAMBDA", 0.7),
			MaxMerchantRatio:      getEnvFloat("RECO_MAX_MERCHANT_RATIO", 0.4),
			FreqCapDaily:          getEnvInt("RECO_FREQ_CAP_DAILY", 1),
			FreqCapWeekly:         getEnvInt("RECO_FREQ_CAP_WEEKLY", 3),
			ExplorationAlpha:      getEnvFloat("RECO_EXPLORATION_ALPHA", 0.3),
			SessionDecayPerMinute: getEnvFloat("RECO_SESSION_DECAY", 0.95),
		},
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}

	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}

	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}

	return defaultVal
}
