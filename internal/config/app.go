package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type HTTPServer struct {
	Port                     string `mapstructure:"port"`
	ReadHeaderTimeoutSeconds int    `mapstructure:"read_header_timeout_seconds"`
	ReadTimeoutSeconds       int    `mapstructure:"read_timeout_seconds"`
	// a rebuild waits on the rate provider, keep it above rate_api.fetch_timeout_seconds
	WriteTimeoutSeconds    int `mapstructure:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds"`
}

type DbServer struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Pass     string `mapstructure:"pass"`
	Name     string `mapstructure:"name"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (config *DbServer) GetConnectionStr() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		config.User, config.Pass, config.Host, config.Port, config.Name,
	)
}

type HTTPClient struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type RateAPI struct {
	BaseURL             string `mapstructure:"base_url"`
	FetchTimeoutSeconds int    `mapstructure:"fetch_timeout_seconds"`
}

type Scheduler struct {
	Enabled            bool `mapstructure:"enabled"`
	RefreshIntervalSec int  `mapstructure:"refresh_interval_sec"`
}

type Cache struct {
	MaxItems int64 `mapstructure:"max_items"`
}

// Redis is optional, events are not published when Addr is empty.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

type Logging struct {
	Level string `mapstructure:"level"`
}

type Currency struct {
	Code        string `mapstructure:"code"`
	Description string `mapstructure:"description"`
}

type AppConfig struct {
	HTTPServer HTTPServer `mapstructure:"http_server"`
	DbServer   DbServer   `mapstructure:"db_server"`
	HTTPClient HTTPClient `mapstructure:"http_client"`
	RateAPI    RateAPI    `mapstructure:"rate_api"`
	Scheduler  Scheduler  `mapstructure:"scheduler"`
	Cache      Cache      `mapstructure:"cache"`
	Redis      Redis      `mapstructure:"redis"`
	Logging    Logging    `mapstructure:"logging"`
	// Currencies overrides the built-in allow-list when not empty.
	Currencies []Currency `mapstructure:"currencies"`
}

func Init() (*AppConfig, error) {
	return Load("config.yaml")
}

// Load reads the yaml file at path (if present), .env (if present) and environment overrides.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	v.SetDefault("http_server.port", "8080")
	v.SetDefault("http_server.read_header_timeout_seconds", 5)
	v.SetDefault("http_server.read_timeout_seconds", 10)
	v.SetDefault("http_server.write_timeout_seconds", 30)
	v.SetDefault("http_server.shutdown_timeout_seconds", 10)
	v.SetDefault("db_server.host", "localhost")
	v.SetDefault("db_server.port", "5432")
	v.SetDefault("db_server.max_conns", 10)
	v.SetDefault("http_client.timeout_seconds", 10)
	v.SetDefault("rate_api.base_url", "https://api.fixer.io/latest")
	v.SetDefault("rate_api.fetch_timeout_seconds", 10)
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.refresh_interval_sec", 3600)
	v.SetDefault("cache.max_items", 64)
	v.SetDefault("redis.channel", "rates_synced")
	v.SetDefault("logging.level", "info")

	// db server env vars
	_ = v.BindEnv("db_server.host", "DB_HOST")
	_ = v.BindEnv("db_server.port", "DB_PORT")
	_ = v.BindEnv("db_server.user", "DB_USER")
	_ = v.BindEnv("db_server.pass", "DB_PASS")
	_ = v.BindEnv("db_server.name", "DB_NAME")
	_ = v.BindEnv("db_server.max_conns", "DB_MAX_CONNS")

	// http client env vars
	_ = v.BindEnv("http_client.timeout_seconds", "HTTP_CLIENT_TIMEOUT_SECONDS")

	// rate api env vars
	_ = v.BindEnv("rate_api.base_url", "RATE_API_BASE_URL")
	_ = v.BindEnv("rate_api.fetch_timeout_seconds", "RATE_API_FETCH_TIMEOUT_SECONDS")

	// redis env vars
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")

	_ = v.BindEnv("logging.level", "LOG_LEVEL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	for i := range cfg.Currencies {
		cfg.Currencies[i].Code = strings.ToUpper(strings.TrimSpace(cfg.Currencies[i].Code))
	}

	return &cfg, nil
}
