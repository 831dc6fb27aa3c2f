package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL string

	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	EmployeeAccessSecret  []byte
	EmployeeRefreshSecret []byte
	EmployeeAccessTTL     time.Duration
	EmployeeRefreshTTL    time.Duration

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string
}

func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env not loaded: %v", err)
	}

	cfg := Config{
		ServiceName: EnvDefault("SERVICE_NAME", "authd"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		AccessSecret:  []byte(os.Getenv("JWT_ACCESS_SECRET")),
		RefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),
		AccessTTL:     EnvDurationDefault("ACCESS_EXPIRES", 15*time.Minute),
		RefreshTTL:    EnvDurationDefault("REFRESH_EXPIRES", 30*24*time.Hour),

		EmployeeAccessSecret:  []byte(os.Getenv("EMP_JWT_ACCESS_SECRET")),
		EmployeeRefreshSecret: []byte(os.Getenv("EMP_JWT_REFRESH_SECRET")),
		EmployeeAccessTTL:     EnvDurationDefault("EMP_ACCESS_EXPIRES", 15*time.Minute),
		EmployeeRefreshTTL:    EnvDurationDefault("EMP_REFRESH_EXPIRES", 30*24*time.Hour),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "clients"),
	}

	// Employee keys fall back to the user keys when not configured separately.
	if len(cfg.EmployeeAccessSecret) == 0 {
		cfg.EmployeeAccessSecret = cfg.AccessSecret
	}
	if len(cfg.EmployeeRefreshSecret) == 0 {
		cfg.EmployeeRefreshSecret = cfg.RefreshSecret
	}

	return cfg
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// EnvDurationDefault parses time.ParseDuration syntax plus a "d" (days)
// suffix, so REFRESH_EXPIRES=30d works the way operators expect.
func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := ParseDuration(v)
	if err != nil {
		log.Printf("notice: invalid duration %s=%q, using default %s", key, v, def)
		return def
	}
	return d
}

func ParseDuration(v string) (time.Duration, error) {
	if strings.HasSuffix(v, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(v, "d"))
		if err != nil {
			return 0, err
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(v)
}
