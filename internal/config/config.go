// Package config loads server settings from the environment.
//
// A .env file in the working directory is read first when present; variables
// already set in the process environment win over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendSupabase = "supabase"
	BackendSQLite   = "sqlite"
)

type Config struct {
	Port         int
	StoreBackend string

	SupabaseURL  string
	SupabaseKey  string
	StoreTimeout time.Duration

	DBPath      string
	FrontendDir string

	LogLevel  string
	LogFormat string

	// KeepaliveInterval runs the background prober when > 0.
	KeepaliveInterval time.Duration
	// JWTSecret turns on identity verification when non-empty.
	JWTSecret string
}

// Load reads .env (if any) and then the environment.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit env file path. A missing file is not an
// error; a malformed one is.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	storeTimeout, err := getDuration("STORE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	keepalive, err := getDuration("KEEPALIVE_INTERVAL", 0)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:              port,
		StoreBackend:      strings.ToLower(getEnv("STORE_BACKEND", BackendSupabase)),
		SupabaseURL:       getEnv("SUPABASE_URL", ""),
		SupabaseKey:       getEnv("SUPABASE_KEY", ""),
		StoreTimeout:      storeTimeout,
		DBPath:            getEnv("DB_PATH", "data/castiq.db"),
		FrontendDir:       getEnv("FRONTEND_DIR", "web/frontend"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
		KeepaliveInterval: keepalive,
		JWTSecret:         getEnv("JWT_SECRET", ""),
	}, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var problems []string

	switch c.StoreBackend {
	case BackendSupabase:
		if c.SupabaseURL == "" {
			problems = append(problems, "SUPABASE_URL is required")
		}
		if c.SupabaseKey == "" {
			problems = append(problems, "SUPABASE_KEY is required")
		}
	case BackendSQLite:
		if c.DBPath == "" {
			problems = append(problems, "DB_PATH is required")
		}
	default:
		problems = append(problems, fmt.Sprintf("STORE_BACKEND must be %q or %q, got %q", BackendSupabase, BackendSQLite, c.StoreBackend))
	}

	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT out of range: %d", c.Port))
	}
	if c.KeepaliveInterval < 0 {
		problems = append(problems, "KEEPALIVE_INTERVAL must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return n, nil
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return d, nil
}
