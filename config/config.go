package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	JWT         JWTConfig         `yaml:"jwt"`
	Location    LocationConfig    `yaml:"location"`
	Redis       RedisConfig       `yaml:"redis"`
	CORS        CORSConfig        `yaml:"cors"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
}

type ServerConfig struct {
	Port         string        `yaml:"port"`
	Env          string        `yaml:"env"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	RequestLog   bool          `yaml:"request_log"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver"` // mysql | postgres | sqlite
	DSN             string        `yaml:"dsn"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnectAttempts int           `yaml:"connect_attempts"` // 0 = retry forever
	RetryDelay      time.Duration `yaml:"retry_delay"`
}

type JWTConfig struct {
	AccessSecret string        `yaml:"access_secret"`
	AccessExpiry time.Duration `yaml:"access_expiry"`
	Issuer       string        `yaml:"issuer"`
}

type LocationConfig struct {
	StaleAfterMinutes   float64 `yaml:"stale_after_minutes"`
	DefaultRadiusMeters float64 `yaml:"default_radius_meters"`
	MaxRadiusMeters     float64 `yaml:"max_radius_meters"`
	MapFuzzMeters       float64 `yaml:"map_fuzz_meters"` // 0 = exact helper positions on the live map
	SOSRadiusMeters     float64 `yaml:"sos_radius_meters"`
}

type RedisConfig struct {
	URL      string `yaml:"url"` // empty disables cross-instance fan-out
	Password string `yaml:"password"`
	Channel  string `yaml:"channel"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

type MaintenanceConfig struct {
	CleanupInterval time.Duration `yaml:"cleanup_interval"` // 0 disables the background sweep in serve
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			Env:          "development",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          "mysql",
			DSN:             "lifeline:lifeline@tcp(localhost:3306)/lifeline?charset=utf8mb4&parseTime=True&loc=UTC",
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
			ConnectAttempts: 0,
			RetryDelay:      5 * time.Second,
		},
		JWT: JWTConfig{
			AccessSecret: "change-me-in-production",
			AccessExpiry: 24 * time.Hour,
			Issuer:       "lifeline",
		},
		Location: LocationConfig{
			StaleAfterMinutes:   5,
			DefaultRadiusMeters: 5000,
			MaxRadiusMeters:     100000,
			MapFuzzMeters:       0,
			SOSRadiusMeters:     10000,
		},
		Redis: RedisConfig{
			Channel: "lifeline:locations",
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
		},
		RateLimit: RateLimitConfig{
			Requests: 120,
			Window:   time.Minute,
		},
		Maintenance: MaintenanceConfig{
			CleanupInterval: time.Hour,
		},
	}
}

// Load builds the configuration: defaults, then .env, then the YAML file
// named by LIFELINE_CONFIG (if any), then individual environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env: %v", err)
	}
	cfg := Default()
	if path := os.Getenv("LIFELINE_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays keys present in the YAML file onto cfg.
func (cfg *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

func (cfg *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setString("PORT", &cfg.Server.Port)
	setString("APP_ENV", &cfg.Server.Env)
	setString("DB_DRIVER", &cfg.Database.Driver)
	setString("DB_DSN", &cfg.Database.DSN)
	setString("JWT_SECRET", &cfg.JWT.AccessSecret)
	setString("REDIS_URL", &cfg.Redis.URL)
	setString("REDIS_PASSWORD", &cfg.Redis.Password)
	setString("REDIS_CHANNEL", &cfg.Redis.Channel)

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORS.AllowOrigins = origins
	}
	if v := os.Getenv("REQUEST_LOG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("REQUEST_LOG: %w", err)
		}
		cfg.Server.RequestLog = b
	}
	if v := os.Getenv("DB_RETRY_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("DB_RETRY_DELAY: %w", err)
		}
		cfg.Database.RetryDelay = d
	}
	if v := os.Getenv("CLEANUP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CLEANUP_INTERVAL: %w", err)
		}
		cfg.Maintenance.CleanupInterval = d
	}
	if v := os.Getenv("LOCATION_STALE_MINUTES"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("LOCATION_STALE_MINUTES: %w", err)
		}
		cfg.Location.StaleAfterMinutes = f
	}
	return nil
}
