package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMySQL  = "mysql"
	StorageMemory = "memory"
)

type DatabaseEnv struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type Env struct {
	AppAddr string
	GinMode string

	Storage  string
	Database DatabaseEnv

	JWTSecret string
	TokenTTL  time.Duration

	// AdminUsername and AdminPassword seed the first admin account when both are set.
	AdminUsername string
	AdminPassword string

	CORSOrigins      []string
	PublicRatePerMin int
	PublicRateBurst  int
	AMQPURL          string
	EventsQueue      string
	LogLevel         string
	LogFormat        string
}

// LoadEnv reads .env (when present) and then the process environment.
func LoadEnv() Env {
	_ = godotenv.Load()

	return Env{
		AppAddr: getenv("APP_ADDR", ":8080"),
		GinMode: strings.TrimSpace(os.Getenv("GIN_MODE")),

		Storage: strings.ToLower(getenv("STORAGE", StorageMySQL)),
		Database: DatabaseEnv{
			Host:     getenv("DB_HOST", "127.0.0.1"),
			Port:     getenv("DB_PORT", "3306"),
			User:     getenv("DB_USER", "root"),
			Password: os.Getenv("DB_PASS"),
			Name:     getenv("DB_NAME", "travel_agency"),
		},

		JWTSecret: getenv("JWT_SECRET", "change-me-in-production"),
		TokenTTL:  parseDur(getenv("TOKEN_TTL", "24h"), 24*time.Hour),

		AdminUsername: strings.TrimSpace(os.Getenv("ADMIN_USERNAME")),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		CORSOrigins:      splitList(getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		PublicRatePerMin: atoi(getenv("PUBLIC_RATE_PER_MIN", "30"), 30),
		PublicRateBurst:  atoi(getenv("PUBLIC_RATE_BURST", "5"), 5),
		AMQPURL:          strings.TrimSpace(os.Getenv("AMQP_URL")),
		EventsQueue:      getenv("EVENTS_QUEUE", "booking.events"),
		LogLevel:         getenv("LOG_LEVEL", "info"),
		LogFormat:        getenv("LOG_FORMAT", "text"),
	}
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func atoi(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func parseDur(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
