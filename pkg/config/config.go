package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverBadger   = "badger"
	StoreDriverRedis    = "redis"
	StoreDriverPostgres = "postgres"
)

type Config struct {
	App             AppConfig
	Server          ServerConfig
	Database        DatabaseConfig
	JWT             JWTConfig
	Redis           RedisConfig
	Badger          BadgerConfig
	Store           StoreConfig
	Personalization PersonalizationConfig
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

type JWTConfig struct {
	SecretKey string
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	// expiry of personalization keys; 0 keeps them forever
	BlobTTL time.Duration
}

type BadgerConfig struct {
	Dir      string
	InMemory bool
}

// StoreConfig selects the blob store backing events, settings and metrics.
type StoreConfig struct {
	Driver string
}

type PersonalizationConfig struct {
	EventCapacity       int
	RecentViewWindow    int
	CategoryRankDepth   int
	WeightCategory      float64
	WeightView          float64
	WeightFeedback      float64
	FeedbackPropagation float64
	ConfidenceThreshold float64
	MaxSections         int
	MaxItemsPerSection  int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, errors.New("invalid redis database")
	}

	blobTTL, err := time.ParseDuration(getEnv("REDIS_BLOB_TTL", "0s"))
	if err != nil {
		return nil, errors.New("invalid redis blob ttl")
	}

	p, err := loadPersonalization()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "MyGreenMarket Personalization"),
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
			Name:     getEnv("DB_NAME", "my_green_market"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
			BlobTTL:       blobTTL,
		},
		Badger: BadgerConfig{
			Dir:      getEnv("BADGER_DIR", "./data/personalization"),
			InMemory: getEnv("BADGER_IN_MEMORY", "false") == "true",
		},
		Store: StoreConfig{
			Driver: getEnv("STORE_DRIVER", StoreDriverBadger),
		},
		Personalization: p,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required values and cross-field constraints.
func (c *Config) Validate() error {
	if c.JWT.SecretKey == "" {
		return errors.New("missing jwt secret")
	}

	// the catalog and order history always live in postgres
	if c.Database.Password == "" {
		return errors.New("missing database password")
	}

	switch c.Store.Driver {
	case StoreDriverBadger:
		if !c.Badger.InMemory && c.Badger.Dir == "" {
			return errors.New("missing badger directory")
		}
	case StoreDriverRedis, StoreDriverPostgres:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	p := c.Personalization
	if p.EventCapacity <= 0 {
		return errors.New("personalization event capacity must be positive")
	}
	if p.WeightCategory < 0 || p.WeightView < 0 || p.WeightFeedback < 0 {
		return errors.New("personalization weights must not be negative")
	}
	if p.ConfidenceThreshold < 0 || p.ConfidenceThreshold > 1 {
		return errors.New("personalization confidence threshold must be within [0,1]")
	}

	return nil
}

func loadPersonalization() (PersonalizationConfig, error) {
	var (
		p   PersonalizationConfig
		err error
	)

	ints := []struct {
		key string
		def int
		dst *int
	}{
		{"PERSONALIZATION_EVENT_CAPACITY", 500, &p.EventCapacity},
		{"PERSONALIZATION_RECENT_VIEW_WINDOW", 10, &p.RecentViewWindow},
		{"PERSONALIZATION_CATEGORY_RANK_DEPTH", 5, &p.CategoryRankDepth},
		{"PERSONALIZATION_MAX_SECTIONS", 3, &p.MaxSections},
		{"PERSONALIZATION_MAX_ITEMS_PER_SECTION", 8, &p.MaxItemsPerSection},
	}
	for _, v := range ints {
		if *v.dst, err = getEnvInt(v.key, v.def); err != nil {
			return p, fmt.Errorf("invalid %s: %w", v.key, err)
		}
	}

	floats := []struct {
		key string
		def float64
		dst *float64
	}{
		{"PERSONALIZATION_WEIGHT_CATEGORY", 0.5, &p.WeightCategory},
		{"PERSONALIZATION_WEIGHT_VIEW", 0.35, &p.WeightView},
		{"PERSONALIZATION_WEIGHT_FEEDBACK", 0.15, &p.WeightFeedback},
		{"PERSONALIZATION_FEEDBACK_PROPAGATION", 0.3, &p.FeedbackPropagation},
		{"PERSONALIZATION_CONFIDENCE_THRESHOLD", 0.3, &p.ConfidenceThreshold},
	}
	for _, v := range floats {
		if *v.dst, err = getEnvFloat(v.key, v.def); err != nil {
			return p, fmt.Errorf("invalid %s: %w", v.key, err)
		}
	}

	return p, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(val)
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	return strconv.ParseFloat(val, 64)
}
