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

// DefaultDSN is the store location used when DB_DSN is not set.
const DefaultDSN = "tasks.db"

var supportedDrivers = map[string]bool{
	"sqlite3":  true,
	"sqlite":   true,
	"postgres": true,
}

type Config struct {
	ServerPort      int
	DBDriver        string
	DBDSN           string
	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment. Each given env file (".env"
// when none is given) is loaded first if it exists; variables already set in
// the environment take precedence over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	cfg := &Config{
		ServerPort:      getEnvInt("SERVER_PORT", 8000),
		DBDriver:        getEnvString("DB_DRIVER", "sqlite3"),
		DBDSN:           getEnvString("DB_DSN", DefaultDSN),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Address returns the listen address in :port form.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

func getEnvString(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// malformed values are kept as a sentinel so validate can reject them
func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return -1
	}
	return parsed
}

func (c *Config) validate() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid SERVER_PORT: must be between 1 and 65535")
	}
	c.DBDriver = strings.ToLower(c.DBDriver)
	if !supportedDrivers[c.DBDriver] {
		return fmt.Errorf("invalid DB_DRIVER %q: must be sqlite3, sqlite or postgres", c.DBDriver)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid SHUTDOWN_TIMEOUT: must be a positive duration")
	}
	return nil
}
