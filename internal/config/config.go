package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"Lee_Social/internal/pkg"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	NotifyLog   = "log"
	NotifyKafka = "kafka"
	NotifyNats  = "nats"

	defaultAccessSecret  = "secret-key"
	defaultRefreshSecret = "refresh-key"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	MySQL      MySQLConfig      `yaml:"mysql"`
	Redis      RedisConfig      `yaml:"redis"`
	JWT        JWTConfig        `yaml:"jwt"`
	SMTP       pkg.SMTPConfig   `yaml:"smtp"`
	Notify     NotifyConfig     `yaml:"notify"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`
	Relation   RelationConfig   `yaml:"relation"`
}

type AppConfig struct {
	Env         string   `yaml:"env"`
	HTTPAddr    string   `yaml:"http_addr"`
	LogLevel    string   `yaml:"log_level"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type MySQLConfig struct {
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	ConnMaxLife  time.Duration `yaml:"conn_max_life"`
	AutoMigrate  bool          `yaml:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	AccessSecret  string        `yaml:"access_secret"`
	RefreshSecret string        `yaml:"refresh_secret"`
	AccessTTL     time.Duration `yaml:"access_ttl"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl"`
}

type NotifyConfig struct {
	Driver    string          `yaml:"driver"`
	Kafka     pkg.KafkaConfig `yaml:"kafka"`
	Nats      pkg.NatsConfig  `yaml:"nats"`
	BatchSize int             `yaml:"batch_size"`
	Interval  time.Duration   `yaml:"interval"`
}

type ReconcilerConfig struct {
	Enabled   bool          `yaml:"enabled"`
	BatchSize int           `yaml:"batch_size"`
	Interval  time.Duration `yaml:"interval"`
}

type RelationConfig struct {
	// BlockDissolvesTies 拉黑时同时解除双方已有的关注与好友关系
	BlockDissolvesTies bool `yaml:"block_dissolves_ties"`
}

func Default() *Config {
	return &Config{
		App: AppConfig{
			Env:      EnvDevelopment,
			HTTPAddr: ":8080",
			LogLevel: "info",
		},
		MySQL: MySQLConfig{
			DSN:          "user:password@tcp(127.0.0.1:3306)/community?charset=utf8mb4&parseTime=True&loc=UTC",
			MaxOpenConns: 50,
			MaxIdleConns: 10,
			ConnMaxLife:  time.Hour,
			AutoMigrate:  true,
		},
		Redis: RedisConfig{Addr: "127.0.0.1:6379"},
		JWT: JWTConfig{
			AccessSecret:  defaultAccessSecret,
			RefreshSecret: defaultRefreshSecret,
			AccessTTL:     pkg.DefaultAccessTTL,
			RefreshTTL:    pkg.DefaultRefreshTTL,
		},
		SMTP: pkg.SMTPConfig{Port: 587},
		Notify: NotifyConfig{
			Driver:    NotifyLog,
			Kafka:     pkg.KafkaConfig{Brokers: []string{"127.0.0.1:9092"}, Topic: "social.notifications"},
			Nats:      pkg.NatsConfig{URL: "nats://127.0.0.1:4222", Subject: "social.notifications"},
			BatchSize: 200,
			Interval:  time.Second,
		},
		Reconciler: ReconcilerConfig{
			Enabled:   true,
			BatchSize: 500,
			Interval:  5 * time.Minute,
		},
	}
}

// Load 默认值 -> yaml 文件（可选）-> 环境变量，最后校验
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.HTTPAddr = getEnv("HTTP_ADDR", cfg.App.HTTPAddr)
	cfg.App.LogLevel = getEnv("LOG_LEVEL", cfg.App.LogLevel)
	cfg.App.CORSOrigins = getEnvList("CORS_ORIGINS", cfg.App.CORSOrigins)

	cfg.MySQL.DSN = getEnv("MYSQL_DSN", cfg.MySQL.DSN)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)

	cfg.JWT.AccessSecret = getEnv("JWT_ACCESS_SECRET", cfg.JWT.AccessSecret)
	cfg.JWT.RefreshSecret = getEnv("JWT_REFRESH_SECRET", cfg.JWT.RefreshSecret)

	cfg.SMTP.Host = getEnv("SMTP_HOST", cfg.SMTP.Host)
	cfg.SMTP.Port = getEnvInt("SMTP_PORT", cfg.SMTP.Port)
	cfg.SMTP.Username = getEnv("SMTP_USERNAME", cfg.SMTP.Username)
	cfg.SMTP.Password = getEnv("SMTP_PASSWORD", cfg.SMTP.Password)
	cfg.SMTP.From = getEnv("SMTP_FROM", cfg.SMTP.From)

	cfg.Notify.Driver = getEnv("NOTIFY_DRIVER", cfg.Notify.Driver)
	cfg.Notify.Kafka.Brokers = getEnvList("KAFKA_BROKERS", cfg.Notify.Kafka.Brokers)
	cfg.Notify.Kafka.Topic = getEnv("KAFKA_TOPIC", cfg.Notify.Kafka.Topic)
	cfg.Notify.Nats.URL = getEnv("NATS_URL", cfg.Notify.Nats.URL)
	cfg.Notify.Nats.Subject = getEnv("NATS_SUBJECT", cfg.Notify.Nats.Subject)

	cfg.Relation.BlockDissolvesTies = getEnvBool("BLOCK_DISSOLVES_TIES", cfg.Relation.BlockDissolvesTies)
}

func (c *Config) Validate() error {
	var errs []error
	switch c.App.Env {
	case EnvDevelopment, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("app.env must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.App.Env))
	}
	switch c.Notify.Driver {
	case NotifyLog, NotifyKafka, NotifyNats:
	default:
		errs = append(errs, fmt.Errorf("notify.driver must be log, kafka or nats, got %q", c.Notify.Driver))
	}
	if c.Notify.Driver == NotifyKafka && (len(c.Notify.Kafka.Brokers) == 0 || c.Notify.Kafka.Topic == "") {
		errs = append(errs, errors.New("notify.kafka requires brokers and topic"))
	}
	if c.MySQL.DSN == "" {
		errs = append(errs, errors.New("mysql.dsn is required"))
	}
	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" {
		errs = append(errs, errors.New("jwt secrets are required"))
	}
	if c.IsProduction() && (c.JWT.AccessSecret == defaultAccessSecret || c.JWT.RefreshSecret == defaultRefreshSecret) {
		errs = append(errs, errors.New("jwt secrets must be overridden in production"))
	}
	if c.JWT.AccessSecret != "" && c.JWT.AccessSecret == c.JWT.RefreshSecret {
		errs = append(errs, errors.New("jwt access and refresh secrets must differ"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool { return c.App.Env == EnvProduction }

// SlogLevel 无法识别时按 info 处理
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
