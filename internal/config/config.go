package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverS3       = "s3"
	DriverMinio    = "minio"
	DriverSupabase = "supabase"

	KeyModeFlat     = "flat"
	KeyModeRelative = "relative"
)

type Config struct {
	Store    StoreConfig
	Source   SourceConfig
	Convert  ConvertConfig
	Batch    BatchConfig
	RabbitMQ RabbitMQConfig
	Status   StatusConfig
	Log      LogConfig
}

type StoreConfig struct {
	Driver        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	SkipPreflight bool
}

type SourceConfig struct {
	Path       string
	Extensions []string
}

type ConvertConfig struct {
	Quality         float32
	Lossless        bool
	MaxDimension    int
	DeleteArtifacts bool
}

type BatchConfig struct {
	Workers   int
	Timeout   time.Duration
	KeyMode   string
	KeyPrefix string
}

type RabbitMQConfig struct {
	URL            string
	Queue          string
	PublishTimeout time.Duration
}

type StatusConfig struct {
	Addr string
}

type LogConfig struct {
	Level  string
	Format string
}

var DefaultExtensions = []string{"jpg", "jpeg", "png", "gif"}

// Load reads the given env files (".env" when none are given) and builds a
// Config from the environment. A missing .env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := &Config{
		Store: StoreConfig{
			Driver:        strings.ToLower(getEnv("STORE_DRIVER", DriverS3)),
			Region:        getEnv("AWS_REGION", ""),
			Endpoint:      getEnv("STORE_ENDPOINT", ""),
			AccessKey:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretKey:     getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Bucket:        getEnv("STORE_BUCKET", ""),
			SkipPreflight: getEnvAsBool("SKIP_PREFLIGHT", false),
		},
		Source: SourceConfig{
			Path:       getEnv("SOURCE_PATH", ""),
			Extensions: getEnvAsList("ACCEPTED_EXTENSIONS", DefaultExtensions),
		},
		Convert: ConvertConfig{
			Quality:         float32(getEnvAsInt("WEBP_QUALITY", 80)),
			Lossless:        getEnvAsBool("WEBP_LOSSLESS", false),
			MaxDimension:    getEnvAsInt("MAX_DIMENSION", 0),
			DeleteArtifacts: getEnvAsBool("DELETE_ARTIFACTS", false),
		},
		Batch: BatchConfig{
			Workers:   getEnvAsInt("WORKERS", runtime.NumCPU()),
			Timeout:   getDuration("BATCH_TIMEOUT", 0),
			KeyMode:   strings.ToLower(getEnv("KEY_MODE", KeyModeFlat)),
			KeyPrefix: getEnv("KEY_PREFIX", ""),
		},
		RabbitMQ: RabbitMQConfig{
			URL:            getEnv("RABBITMQ_URL", ""),
			Queue:          getEnv("RABBITMQ_QUEUE", "image_uploads"),
			PublishTimeout: getDuration("PUBLISH_TIMEOUT", 5*time.Second),
		},
		Status: StatusConfig{
			Addr: getEnv("STATUS_ADDR", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}

	return cfg, nil
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	var errs []error
	required := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, fmt.Errorf("missing required setting %s", key))
		}
	}

	required("SOURCE_PATH", c.Source.Path)
	required("STORE_BUCKET", c.Store.Bucket)

	switch c.Store.Driver {
	case DriverS3:
		required("AWS_REGION", c.Store.Region)
		required("AWS_ACCESS_KEY_ID", c.Store.AccessKey)
		required("AWS_SECRET_ACCESS_KEY", c.Store.SecretKey)
	case DriverMinio:
		required("STORE_ENDPOINT", c.Store.Endpoint)
		required("AWS_REGION", c.Store.Region)
		required("AWS_ACCESS_KEY_ID", c.Store.AccessKey)
		required("AWS_SECRET_ACCESS_KEY", c.Store.SecretKey)
	case DriverSupabase:
		required("STORE_ENDPOINT", c.Store.Endpoint)
		required("AWS_SECRET_ACCESS_KEY", c.Store.SecretKey)
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}

	if c.Source.Path != "" {
		info, err := os.Stat(c.Source.Path)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("SOURCE_PATH: %w", err))
		case !info.IsDir():
			errs = append(errs, fmt.Errorf("SOURCE_PATH %s is not a directory", c.Source.Path))
		}
	}

	if len(c.Source.Extensions) == 0 {
		errs = append(errs, errors.New("ACCEPTED_EXTENSIONS must not be empty"))
	}
	if c.Batch.Workers < 0 {
		errs = append(errs, fmt.Errorf("WORKERS must be >= 0, got %d", c.Batch.Workers))
	}
	if c.Convert.Quality < 1 || c.Convert.Quality > 100 {
		errs = append(errs, fmt.Errorf("WEBP_QUALITY must be within 1..100, got %v", c.Convert.Quality))
	}
	if c.RabbitMQ.PublishTimeout < 0 {
		errs = append(errs, fmt.Errorf("PUBLISH_TIMEOUT must be >= 0, got %s", c.RabbitMQ.PublishTimeout))
	}
	if c.Convert.MaxDimension < 0 {
		errs = append(errs, fmt.Errorf("MAX_DIMENSION must be >= 0, got %d", c.Convert.MaxDimension))
	}
	if c.Batch.KeyMode != KeyModeFlat && c.Batch.KeyMode != KeyModeRelative {
		errs = append(errs, fmt.Errorf("unknown KEY_MODE %q", c.Batch.KeyMode))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsList(key string, defaultVal []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultVal...)
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimPrefix(strings.TrimSpace(item), ".")
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
