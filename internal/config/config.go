package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/vbonduro/drinkbudget/internal/domain"
)

const (
	BackendLocal  = "local"
	BackendRemote = "remote"

	LocalStoreFile  = "file"
	LocalStoreRedis = "redis"
)

type Config struct {
	ListenAddr string
	LogLevel   string
	LogFormat  string
	LogFile    string

	Backend    string
	LocalStore string
	DataDir    string
	BudgetKey  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DBPath        string
	BudgetSlug    string
	RequireAuth   bool
	AllowedEmails []string
	Currency      domain.Currency

	AuthSecret   string
	LoginLinkURL string
	LoginTTL     time.Duration
	SessionTTL   time.Duration
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present; real environment
// variables take precedence over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		LogFile:       getEnv("LOG_FILE", ""),
		Backend:       strings.ToLower(getEnv("BACKEND", BackendLocal)),
		LocalStore:    strings.ToLower(getEnv("LOCAL_STORE", LocalStoreFile)),
		DataDir:       getEnv("DATA_DIR", "/data/drinkbudget"),
		BudgetKey:     getEnv("BUDGET_KEY", "presupuesto-bebidas"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		DBPath:        getEnv("DB_PATH", "/data/drinkbudget.db"),
		BudgetSlug:    getEnv("BUDGET_SLUG", "default"),
		RequireAuth:   getEnvBool("REQUIRE_AUTH", false),
		AllowedEmails: splitList(getEnv("ALLOWED_EMAILS", "")),
		Currency:      domain.Currency(strings.ToUpper(getEnv("CURRENCY", string(domain.CurrencyLocal)))),
		AuthSecret:    getEnv("AUTH_SECRET", ""),
		LoginLinkURL:  getEnv("LOGIN_LINK_URL", "http://localhost:8080/auth/verify"),
		LoginTTL:      getEnvDuration("LOGIN_TTL", 15*time.Minute),
		SessionTTL:    getEnvDuration("SESSION_TTL", 7*24*time.Hour),
	}
}

// AuthEnabled reports whether the remote backend needs a signed-in identity.
func (c *Config) AuthEnabled() bool {
	return c.RequireAuth || len(c.AllowedEmails) > 0
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.ListenAddr == "" {
		errs = append(errs, "LISTEN_ADDR is required")
	}
	if !c.Currency.IsValid() {
		errs = append(errs, fmt.Sprintf("CURRENCY must be %s or %s", domain.CurrencyLocal, domain.CurrencyForeign))
	}

	switch c.Backend {
	case BackendLocal:
		switch c.LocalStore {
		case LocalStoreFile:
			if c.DataDir == "" {
				errs = append(errs, "DATA_DIR is required for the file store")
			}
		case LocalStoreRedis:
			if c.RedisAddr == "" {
				errs = append(errs, "REDIS_ADDR is required for the redis store")
			}
		default:
			errs = append(errs, fmt.Sprintf("LOCAL_STORE must be %s or %s", LocalStoreFile, LocalStoreRedis))
		}
		if c.BudgetKey == "" {
			errs = append(errs, "BUDGET_KEY is required for the local backend")
		}
	case BackendRemote:
		if c.DBPath == "" {
			errs = append(errs, "DB_PATH is required for the remote backend")
		}
		if c.BudgetSlug == "" {
			errs = append(errs, "BUDGET_SLUG is required for the remote backend")
		}
		if c.AuthEnabled() {
			if len(c.AuthSecret) < 16 {
				errs = append(errs, "AUTH_SECRET must be at least 16 characters when authentication is enabled")
			}
			if c.LoginLinkURL == "" {
				errs = append(errs, "LOGIN_LINK_URL is required when authentication is enabled")
			}
		}
	default:
		errs = append(errs, fmt.Sprintf("BACKEND must be %s or %s", BackendLocal, BackendRemote))
	}

	if c.LoginTTL <= 0 {
		errs = append(errs, "LOGIN_TTL must be positive")
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, "SESSION_TTL must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

// The typed getters fall back to defaultVal when the value does not parse.
func getEnvInt(key string, defaultVal int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return n
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if b, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return b
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return d
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
