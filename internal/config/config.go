package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devSessionSecret = "dev-only-session-secret"

type Config struct {
	Env   string
	Port  int
	DBURL string
	// postgres | memory
	Store      string
	DBMaxConns int

	SessionSecret string
	SessionTTL    time.Duration
	SessionCookie string
	BcryptCost    int

	DemoEmail     string
	DemoPassword  string
	DemoFirstName string
	DemoLastName  string

	DefaultProfilePhoto string
	UserCacheTTL        time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AuthRateLimit  int
	AuthRateWindow time.Duration
	// proxies whose X-Forwarded-For is believed; empty means the socket address is the client
	TrustedProxies []string

	OTELEndpoint      string
	OTELSamplePercent int
}

// Load reads .env (when present) and the process environment.
func Load() Config {
	// a missing .env is normal outside local dev
	_ = godotenv.Load()

	return Config{
		Env:        getEnv("APP_ENV", "dev"),
		Port:       getEnvInt("PORT", 8080),
		DBURL:      buildDBURL(),
		Store:      getEnv("STORE", "postgres"),
		DBMaxConns: getEnvInt("DB_MAX_CONNS", 5),

		SessionSecret: getEnv("SESSION_SECRET", devSessionSecret),
		SessionTTL:    getEnvDuration("SESSION_TTL", 24*time.Hour),
		SessionCookie: getEnv("SESSION_COOKIE", "session"),
		BcryptCost:    getEnvInt("BCRYPT_COST", 10),

		DemoEmail:     getEnv("DEMO_EMAIL", "user@example.com"),
		DemoPassword:  getEnv("DEMO_PASSWORD", "password123"),
		DemoFirstName: getEnv("DEMO_FIRST_NAME", "Ivan"),
		DemoLastName:  getEnv("DEMO_LAST_NAME", "Ivanov"),

		DefaultProfilePhoto: getEnv("PROFILE_PHOTO_DEFAULT", "/static/images/profile_photo.jpg"),
		UserCacheTTL:        getEnvDuration("USER_CACHE_TTL", 30*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AuthRateLimit:  getEnvInt("AUTH_RATE_LIMIT", 10),
		AuthRateWindow: getEnvDuration("AUTH_RATE_WINDOW", time.Minute),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),

		OTELEndpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELSamplePercent: getEnvInt("OTEL_SAMPLE_PERCENT", 100),
	}
}

func (c Config) IsProd() bool {
	return c.Env == "prod"
}

func (c Config) Validate() error {
	var errs []error

	if c.Store != "postgres" && c.Store != "memory" {
		errs = append(errs, errors.New("STORE must be postgres or memory"))
	}

	if c.IsProd() && (c.SessionSecret == "" || c.SessionSecret == devSessionSecret) {
		errs = append(errs, errors.New("SESSION_SECRET must be set in prod"))
	}

	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET must not be empty"))
	}

	if c.AuthRateLimit <= 0 || c.AuthRateWindow <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT and AUTH_RATE_WINDOW must be positive"))
	}

	return errors.Join(errs...)
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "accounthub")
	pass := getEnv("DB_PASSWORD", "accounthub")
	name := getEnv("DB_NAME", "accounthub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid int env, using default", "key", key, "value", v)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)

		if err != nil {
			slog.Warn("invalid duration env, using default", "key", key, "value", v)
			return fallback
		}

		return d
	}
	return fallback
}

func getEnvList(key string) []string {
	var out []string

	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
