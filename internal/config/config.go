package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type AppConfig struct {
	API      *APIConfig      `mapstructure:"api"`
	Gin      *GinConfig      `mapstructure:"gin"`
	Postgres *PostgresConfig `mapstructure:"postgres"`
	Sales    *SalesConfig    `mapstructure:"sales"`
	Realtime *RealtimeConfig `mapstructure:"realtime"`
}

type APIConfig struct {
	Environment        string `mapstructure:"environment"`
	BaseURL            string `mapstructure:"base_url"`
	Port               string `mapstructure:"port"`
	JWTSigningKey      string `mapstructure:"jwt_signing_key"`
	AllowedCORSDomains string `mapstructure:"allowed_cors_domains"`
	AdminEmail         string `mapstructure:"admin_email"`
	AdminPassword      string `mapstructure:"admin_password"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"db_name"`
}

// SalesConfig carries the business knobs for ticket sales.
type SalesConfig struct {
	// PricePerTime is the fixed unit price one "time" of a number sells for.
	PricePerTime float64 `mapstructure:"price_per_time"`
	// QueryTimeoutSeconds bounds every store read issued on behalf of a caller.
	QueryTimeoutSeconds int `mapstructure:"query_timeout_seconds"`
}

// RealtimeConfig tunes the live sync channels.
type RealtimeConfig struct {
	HeartbeatSeconds        int `mapstructure:"heartbeat_seconds"`
	HeartbeatTimeoutSeconds int `mapstructure:"heartbeat_timeout_seconds"`
	DebounceMillis          int `mapstructure:"debounce_millis"`
	MaxReconnectAttempts    int `mapstructure:"max_reconnect_attempts"`
	MaxBackoffSeconds       int `mapstructure:"max_backoff_seconds"`
}

func Load(configFile string) (*AppConfig, error) {
	viper.SetConfigFile(configFile)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("viper.ReadInConfig -> %w", err)
	}

	config := &AppConfig{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("viper.Unmarshal -> %w", err)
	}

	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		zap.L().Info("config file changed", zap.String("file", e.Name))
		if err := viper.Unmarshal(config); err != nil {
			zap.L().Error("failed to reload config", zap.Error(err))
		}
	})

	loadEnvOverrides(config)
	applyDefaults(config)

	return config, nil
}

func loadEnvOverrides(config *AppConfig) {
	if v := viper.GetString("API_JWT_SIGNING_KEY"); v != "" {
		config.API.JWTSigningKey = v
	}
	if v := viper.GetString("API_ADMIN_PASSWORD"); v != "" {
		config.API.AdminPassword = v
	}
	if v := viper.GetString("POSTGRES_PASSWORD"); v != "" {
		config.Postgres.Password = v
	}
	if v := viper.GetString("PORT"); v != "" { // Heroku-style port binding.
		config.API.Port = v
	}
}

func applyDefaults(config *AppConfig) {
	if config.Sales == nil {
		config.Sales = &SalesConfig{}
	}
	if config.Sales.PricePerTime <= 0 {
		config.Sales.PricePerTime = 0.25
	}
	if config.Sales.QueryTimeoutSeconds <= 0 {
		config.Sales.QueryTimeoutSeconds = 10
	}

	if config.Realtime == nil {
		config.Realtime = &RealtimeConfig{}
	}
	if config.Realtime.HeartbeatSeconds <= 0 {
		config.Realtime.HeartbeatSeconds = 30
	}
	if config.Realtime.HeartbeatTimeoutSeconds <= 0 {
		config.Realtime.HeartbeatTimeoutSeconds = 5
	}
	if config.Realtime.DebounceMillis <= 0 {
		config.Realtime.DebounceMillis = 1000
	}
	if config.Realtime.MaxReconnectAttempts <= 0 {
		config.Realtime.MaxReconnectAttempts = 30
	}
	if config.Realtime.MaxBackoffSeconds <= 0 {
		config.Realtime.MaxBackoffSeconds = 30
	}
}
