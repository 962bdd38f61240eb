package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const insecureJWTSecret = "backstage-dev-secret"

type Config struct {
	Addr      string          `yaml:"addr"`
	Env       string          `yaml:"env"`
	MySQL     MySQLConfig     `yaml:"mysql"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	JWT       JWTConfig       `yaml:"jwt"`
	Tracker   TrackerConfig   `yaml:"tracker"`
	Outbox    OutboxConfig    `yaml:"outbox"`
	Cache     CacheConfig     `yaml:"cache"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type MySQLConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	SeedCategories  bool          `yaml:"seed_categories"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// SMTPConfig is optional; an empty Host disables status notifications.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type JWTConfig struct {
	AccessSecret  string        `yaml:"access_secret"`
	RefreshSecret string        `yaml:"refresh_secret"`
	AccessTTL     time.Duration `yaml:"access_ttl"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl"`
}

type TrackerConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

type OutboxConfig struct {
	BatchSize int           `yaml:"batch_size"`
	Interval  time.Duration `yaml:"interval"`
	MaxRetry  int           `yaml:"max_retry"`
}

type CacheConfig struct {
	CategoryTTL time.Duration `yaml:"category_ttl"`
	SavedSetTTL time.Duration `yaml:"saved_set_ttl"`
}

type TelemetryConfig struct {
	ServiceName  string `yaml:"service_name"`
	CollectorURL string `yaml:"collector_url"`
}

// LoadConfig layers the optional YAML file at path over environment defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr: getEnv("BACKSTAGE_ADDR", ":8080"),
		Env:  getEnv("BACKSTAGE_ENV", "development"),
		MySQL: MySQLConfig{
			DSN:             getEnv("BACKSTAGE_MYSQL_DSN", "backstage:backstage@tcp(127.0.0.1:3306)/backstage?charset=utf8mb4&parseTime=True&loc=UTC"),
			MaxOpenConns:    getEnvInt("BACKSTAGE_MYSQL_MAX_OPEN", 20),
			MaxIdleConns:    getEnvInt("BACKSTAGE_MYSQL_MAX_IDLE", 5),
			ConnMaxLifetime: time.Hour,
			SeedCategories:  true,
		},
		Redis: RedisConfig{
			Addr:     getEnv("BACKSTAGE_REDIS_ADDR", "127.0.0.1:6379"),
			Password: getEnv("BACKSTAGE_REDIS_PASSWORD", ""),
			DB:       getEnvInt("BACKSTAGE_REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("BACKSTAGE_KAFKA_BROKERS", "")),
			Topic:   getEnv("BACKSTAGE_KAFKA_TOPIC", "backstage.jobs.events"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("BACKSTAGE_SMTP_HOST", ""),
			Port:     getEnvInt("BACKSTAGE_SMTP_PORT", 587),
			Username: getEnv("BACKSTAGE_SMTP_USERNAME", ""),
			Password: getEnv("BACKSTAGE_SMTP_PASSWORD", ""),
			From:     getEnv("BACKSTAGE_SMTP_FROM", "Backstage Jobs <no-reply@backstage.local>"),
		},
		JWT: JWTConfig{
			AccessSecret:  getEnv("BACKSTAGE_JWT_ACCESS_SECRET", insecureJWTSecret),
			RefreshSecret: getEnv("BACKSTAGE_JWT_REFRESH_SECRET", insecureJWTSecret+"-refresh"),
			AccessTTL:     getEnvDuration("BACKSTAGE_JWT_ACCESS_TTL", 30*time.Minute),
			RefreshTTL:    getEnvDuration("BACKSTAGE_JWT_REFRESH_TTL", 24*time.Hour),
		},
		Tracker: TrackerConfig{
			Workers:   getEnvInt("BACKSTAGE_TRACKER_WORKERS", 2),
			QueueSize: getEnvInt("BACKSTAGE_TRACKER_QUEUE", 1024),
		},
		Outbox: OutboxConfig{
			BatchSize: 200,
			Interval:  time.Second,
			MaxRetry:  5,
		},
		Cache: CacheConfig{
			CategoryTTL: 10 * time.Minute,
			SavedSetTTL: 24 * time.Hour,
		},
		Telemetry: TelemetryConfig{
			ServiceName:  getEnv("BACKSTAGE_SERVICE_NAME", "backstage-jobs"),
			CollectorURL: getEnv("BACKSTAGE_OTEL_COLLECTOR", ""),
		},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development") || strings.EqualFold(c.Env, "dev")
}

// Validate rejects configurations that cannot serve traffic safely.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is required")
	}
	if c.MySQL.DSN == "" {
		return errors.New("mysql.dsn is required")
	}
	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" {
		return errors.New("jwt secrets are required")
	}
	if !c.IsDevelopment() && strings.HasPrefix(c.JWT.AccessSecret, insecureJWTSecret) {
		return errors.New("jwt.access_secret uses the development default outside development")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("jwt ttls must be positive")
	}
	if c.Tracker.Workers <= 0 {
		return errors.New("tracker.workers must be positive")
	}
	if c.Tracker.QueueSize <= 0 {
		return errors.New("tracker.queue_size must be positive")
	}
	if c.Outbox.BatchSize <= 0 {
		c.Outbox.BatchSize = 200
	}
	if c.Outbox.Interval <= 0 {
		c.Outbox.Interval = time.Second
	}
	if c.Outbox.MaxRetry <= 0 {
		c.Outbox.MaxRetry = 5
	}
	if c.Cache.CategoryTTL <= 0 {
		c.Cache.CategoryTTL = 10 * time.Minute
	}
	if c.Cache.SavedSetTTL <= 0 {
		c.Cache.SavedSetTTL = 24 * time.Hour
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
