package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	CORSOrigins       string `mapstructure:"CORS_ORIGINS"`

	// Remote job API.
	APIBaseURL             string  `mapstructure:"API_BASE_URL"`
	AuthToken              string  `mapstructure:"AUTH_TOKEN"`
	RequestTimeoutSeconds  int     `mapstructure:"REQUEST_TIMEOUT_SECONDS"`
	OutboundRequestsPerSec float64 `mapstructure:"OUTBOUND_REQUESTS_PER_SEC"`

	// Booking store behaviour.
	PollIntervalSeconds int  `mapstructure:"POLL_INTERVAL_SECONDS"`
	KeepStaleOnError    bool `mapstructure:"KEEP_STALE_ON_ERROR"`

	// Redis configuration (OTP sheets). Empty address keeps sheets in memory.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisSheetDB  int    `mapstructure:"REDIS_SHEET_DB"`

	// MongoDB activity journal. Empty URL disables it.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Tracing.
	OTelEnabled     bool    `mapstructure:"OTEL_ENABLED"`
	OTelEndpoint    string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelSampleRatio float64 `mapstructure:"OTEL_SAMPLING_RATIO"`
	OTelServiceName string  `mapstructure:"OTEL_SERVICE_NAME"`
}

var AppConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("API_BASE_URL", "http://localhost:3000/")
	v.SetDefault("AUTH_TOKEN", "")
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 0)
	v.SetDefault("OUTBOUND_REQUESTS_PER_SEC", 10)
	v.SetDefault("POLL_INTERVAL_SECONDS", 0)
	v.SetDefault("KEEP_STALE_ON_ERROR", false)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_SHEET_DB", 0)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATABASE_NAME", "taskmaster")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("OTEL_SAMPLING_RATIO", 1.0)
	v.SetDefault("OTEL_SERVICE_NAME", "taskmaster")
}

// Load reads configuration from config.yaml (current or ./config directory)
// and the environment into a Config.
func Load(v *viper.Viper) (Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	// Automatically use environment variables where available.
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadConfig() {
	cfg, err := Load(viper.GetViper())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
