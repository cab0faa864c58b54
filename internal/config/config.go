package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Pricing  PricingConfig
	Notify   NotifyConfig
	Admin    AdminConfig
	Kiosk    KioskConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr string
}

type PricingConfig struct {
	UpstreamURL   string
	CacheTTL      time.Duration
	MarkupPercent float64
	FetchTimeout  time.Duration
}

type NotifyConfig struct {
	BotToken   string
	ChatID     string
	APIBaseURL string
	Retries    int
	QueueSize  int
}

type AdminConfig struct {
	Token string
}

type KioskConfig struct {
	MaxOrders int
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 3306)
	viper.SetDefault("DB_USER", "popkiosk")
	viper.SetDefault("DB_PASSWORD", "secret")
	viper.SetDefault("DB_NAME", "popkiosk")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("PRICE_UPSTREAM_URL", "https://api.coingecko.com/api/v3/simple/price")
	viper.SetDefault("PRICE_CACHE_TTL", "30s")
	viper.SetDefault("PRICE_MARKUP_PERCENT", 3.0)
	viper.SetDefault("PRICE_FETCH_TIMEOUT", "5s")
	viper.SetDefault("NOTIFY_BOT_TOKEN", "")
	viper.SetDefault("NOTIFY_CHAT_ID", "")
	viper.SetDefault("NOTIFY_API_BASE_URL", "https://api.telegram.org")
	viper.SetDefault("NOTIFY_RETRIES", 3)
	viper.SetDefault("NOTIFY_QUEUE_SIZE", 64)
	viper.SetDefault("ADMIN_TOKEN", "")
	viper.SetDefault("KIOSK_MAX_ORDERS", 1000)
	viper.SetDefault("LOG_LEVEL", "info")

	connMaxLifetime, err := time.ParseDuration(viper.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, err
	}
	cacheTTL, err := time.ParseDuration(viper.GetString("PRICE_CACHE_TTL"))
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := time.ParseDuration(viper.GetString("PRICE_FETCH_TIMEOUT"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Name:            viper.GetString("DB_NAME"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
		},
		Pricing: PricingConfig{
			UpstreamURL:   viper.GetString("PRICE_UPSTREAM_URL"),
			CacheTTL:      cacheTTL,
			MarkupPercent: viper.GetFloat64("PRICE_MARKUP_PERCENT"),
			FetchTimeout:  fetchTimeout,
		},
		Notify: NotifyConfig{
			BotToken:   viper.GetString("NOTIFY_BOT_TOKEN"),
			ChatID:     viper.GetString("NOTIFY_CHAT_ID"),
			APIBaseURL: viper.GetString("NOTIFY_API_BASE_URL"),
			Retries:    viper.GetInt("NOTIFY_RETRIES"),
			QueueSize:  viper.GetInt("NOTIFY_QUEUE_SIZE"),
		},
		Admin: AdminConfig{
			Token: viper.GetString("ADMIN_TOKEN"),
		},
		Kiosk: KioskConfig{
			MaxOrders: viper.GetInt("KIOSK_MAX_ORDERS"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
	}

	return cfg, nil
}
