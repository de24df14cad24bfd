package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"backend-antrian-klinik/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppHost string
	AppPort string

	DBDriver   string // mysql | sqlite
	DBDSN      string
	SQLitePath string

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	Timezone  string

	SwapTTL            time.Duration
	SwapMaxOutgoing    int
	CancelAllowServing bool
	SweepInterval      time.Duration
	JoinMaxRetries     int

	MetricsUser string
	MetricsPass string
	LogLevel    string
}

// LoadEnv baca .env kalau ada, kalau tidak pakai env system
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logger.Logger.Info(".env tidak ditemukan, pakai env system")
	}
}

func defaults(v *viper.Viper) {
	v.SetDefault("APP_HOST", "")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("SQLITE_PATH", "antrian.db")
	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("APP_TIMEZONE", "Asia/Jakarta")
	v.SetDefault("SWAP_TTL", "2m")
	v.SetDefault("SWAP_MAX_OUTGOING", 1)
	v.SetDefault("CANCEL_ALLOW_SERVING", false)
	v.SetDefault("SWEEP_INTERVAL", "30s")
	v.SetDefault("JOIN_MAX_RETRIES", 3)
	v.SetDefault("METRICS_USER", "")
	v.SetDefault("METRICS_PASS", "")
	v.SetDefault("LOG_LEVEL", "info")
}

// Load baca .env (opsional) dan env system ke Config
func Load() (Config, error) {
	LoadEnv()
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	defaults(v)
	v.AutomaticEnv()
	return v
}

// FromViper bangun Config dari viper yang sudah terisi, sekalian validasi
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		AppHost:            v.GetString("APP_HOST"),
		AppPort:            v.GetString("APP_PORT"),
		DBDriver:           strings.ToLower(v.GetString("DB_DRIVER")),
		DBDSN:              v.GetString("DB_DSN"),
		SQLitePath:         v.GetString("SQLITE_PATH"),
		RedisEnabled:       v.GetBool("REDIS_ENABLED"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisDB:            v.GetInt("REDIS_DB"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		Timezone:           v.GetString("APP_TIMEZONE"),
		SwapTTL:            v.GetDuration("SWAP_TTL"),
		SwapMaxOutgoing:    v.GetInt("SWAP_MAX_OUTGOING"),
		CancelAllowServing: v.GetBool("CANCEL_ALLOW_SERVING"),
		SweepInterval:      v.GetDuration("SWEEP_INTERVAL"),
		JoinMaxRetries:     v.GetInt("JOIN_MAX_RETRIES"),
		MetricsUser:        v.GetString("METRICS_USER"),
		MetricsPass:        v.GetString("METRICS_PASS"),
		LogLevel:           v.GetString("LOG_LEVEL"),
	}

	switch cfg.DBDriver {
	case "mysql":
		if cfg.DBDSN == "" {
			return Config{}, fmt.Errorf("DB_DSN wajib diisi untuk DB_DRIVER=mysql")
		}
	case "sqlite":
	default:
		return Config{}, fmt.Errorf("DB_DRIVER tidak dikenal: %q", cfg.DBDriver)
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET wajib diisi")
	}
	if cfg.SwapTTL <= 0 {
		return Config{}, fmt.Errorf("SWAP_TTL harus positif")
	}
	if cfg.SweepInterval <= 0 {
		return Config{}, fmt.Errorf("SWEEP_INTERVAL harus positif")
	}
	if _, err := cfg.Location(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Location zona waktu untuk menentukan "hari ini"
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("APP_TIMEZONE tidak valid %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c Config) Addr() string {
	return c.AppHost + ":" + c.AppPort
}
