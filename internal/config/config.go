// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the server's runtime settings.
type Config struct {
	// HTTP server
	Port string

	// Database
	DBPath string

	// Session token encryption secret
	SessionSecret string

	// Presentation assets
	TemplateDir string
	StaticDir   string

	// Cookies marked Secure (set behind TLS)
	SecureCookie bool

	// Logging
	LogLevel string

	// Optional account seeded at startup
	AdminUser     string
	AdminPassword string
}

// Load reads the configuration from environment variables, applying
// defaults for anything unset.
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		DBPath:        getEnv("DB_PATH", "finance.db"),
		SessionSecret: getEnv("SESSION_SECRET", "financeflow-dev-secret"),
		TemplateDir:   getEnv("TEMPLATE_DIR", "web/templates"),
		StaticDir:     getEnv("STATIC_DIR", "web/static"),
		SecureCookie:  getEnvBool("SECURE_COOKIE", false),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		AdminUser:     getEnv("ADMIN_USER", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}
}

// Validate returns an error describing every invalid setting.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SessionSecret == "" {
		problems = append(problems, "session secret cannot be empty")
	}
	if c.DBPath == "" {
		problems = append(problems, "database path cannot be empty")
	}
	if c.AdminUser != "" && c.AdminPassword == "" {
		problems = append(problems, "ADMIN_USER is set but ADMIN_PASSWORD is empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
