package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	BackendHTTP   = "http"
	BackendMemory = "memory"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"production"`
	HTTPServer HTTPServer `yaml:"http_server"`
	JWTSecret  string     `yaml:"jwt_secret" env:"JWT_SECRET"`
	Backend    Backend    `yaml:"backend"`
	Redis      Redis      `yaml:"redis"`
	RateLimit  RateLimit  `yaml:"rate_limit"`
	Sweeper    Sweeper    `yaml:"sweeper"`
	WebSocket  WebSocket  `yaml:"websocket"`
	MinIO      MinIO      `yaml:"minio"`
	Media      Media      `yaml:"media"`
}

// HTTPServer is the local inspector surface the UI talks to.
type HTTPServer struct {
	Address string `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8090"`
}

type Backend struct {
	Kind    string        `yaml:"kind" env:"BACKEND_KIND" env-default:"http"`
	BaseURL string        `yaml:"base_url" env:"BACKEND_BASE_URL" env-default:"http://localhost:8080/api"`
	Token   string        `yaml:"token" env:"BACKEND_TOKEN"`
	Timeout time.Duration `yaml:"timeout" env:"BACKEND_TIMEOUT" env-default:"10s"`
	// OwnerID owns stories created through the memory backend when the
	// token carries no user id.
	OwnerID string `yaml:"owner_id" env:"BACKEND_OWNER_ID" env-default:"local-user"`
}

// Redis is optional; an empty address disables caching and rate limiting.
type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type RateLimit struct {
	CreatePerMinute int64 `yaml:"create_per_minute" env:"RATE_LIMIT_CREATE" env-default:"20"`
	ViewPerMinute   int64 `yaml:"view_per_minute" env:"RATE_LIMIT_VIEW" env-default:"60"`
}

type Sweeper struct {
	Interval time.Duration `yaml:"interval" env:"SWEEPER_INTERVAL" env-default:"1m"`
}

// WebSocket tunes the event stream to the UI.
type WebSocket struct {
	WriteWait      time.Duration `yaml:"write_wait" env:"WS_WRITE_WAIT" env-default:"10s"`
	PongWait       time.Duration `yaml:"pong_wait" env:"WS_PONG_WAIT" env-default:"60s"`
	MaxMessageSize int64         `yaml:"max_message_size" env:"WS_MAX_MESSAGE_SIZE" env-default:"512"`
	SendBuffer     int           `yaml:"send_buffer" env:"WS_SEND_BUFFER" env-default:"256"`
}

// MinIO is optional; an empty endpoint disables media uploads.
type MinIO struct {
	Endpoint        string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
	AccessKeyID     string `yaml:"access_key_id" env:"MINIO_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"MINIO_SECRET_ACCESS_KEY"`
	BucketName      string `yaml:"bucket_name" env:"MINIO_BUCKET" env-default:"stories-media"`
	UseSSL          bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
	Region          string `yaml:"region" env:"MINIO_REGION" env-default:"us-east-1"`
}

type Media struct {
	MaxFileSize      int64    `yaml:"max_file_size" env-default:"52428800"`
	PresignedURLTTL  int      `yaml:"presigned_url_ttl" env-default:"900"`
	AllowedMimeTypes []string `yaml:"allowed_mime_types" env-default:"image/jpeg,image/png,image/gif,image/webp,video/mp4,video/quicktime"`
}

// Load reads the config file at path, with environment overrides.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file does not exist at path %s: %w", path, err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if cfg.Backend.Kind != BackendHTTP && cfg.Backend.Kind != BackendMemory {
		return nil, fmt.Errorf("unknown backend kind %q", cfg.Backend.Kind)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags

		if configPath == "" {
			log.Fatal("config path must be provided")
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	return cfg
}
