// Package config provides application configuration management with support
// for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Server   ServerConfig
	Registry RegistryConfig
	Search   SearchConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// Production reports whether error messages should be scrubbed.
func (a AppConfig) Production() bool {
	return a.Environment == "production"
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // HTTP bind port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	TrustProxy   bool          // honor X-Forwarded-For / X-Real-IP (default: false)
	SearchRPM    int           // per-client searches per minute (default: 60)
}

// RegistryConfig holds library registry configuration.
type RegistryConfig struct {
	Path  string // directory of per-system YAML documents
	Watch bool   // hot-reload on file changes (default: true)
}

// SearchConfig holds federated search tuning.
type SearchConfig struct {
	GlobalTimeout         time.Duration // whole fan-out deadline (default: 30s)
	PerSystemTimeout      time.Duration // per-system deadline (default: 15s)
	MaxConcurrency        int           // total in-flight outbound requests (default: 20)
	MaxPerHostConcurrency int           // in-flight requests per system (default: 2)
	MaxRetries            int           // retries after the initial attempt (default: 2)
	RetryBaseDelay        time.Duration // backoff base (default: 500ms)
	CacheEnabled          bool          // per-ISBN result cache (default: true)
	CacheSize             int           // max cached results (default: 500)
	CacheTTL              time.Duration // result freshness window (default: 5m)
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	registryPath := flag.String("registry-path", "", "Directory of library system YAML documents")
	registryWatch := flag.String("registry-watch", "", "Hot-reload registry on file changes (default: true)")

	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	trustProxy := flag.String("trust-proxy", "", "Honor X-Forwarded-For / X-Real-IP (default: false)")
	searchRPM := flag.String("search-rpm", "", "Per-client searches per minute (default: 60)")

	globalTimeout := flag.String("global-timeout", "", "Whole fan-out deadline (default: 30s)")
	perSystemTimeout := flag.String("per-system-timeout", "", "Per-system deadline (default: 15s)")
	maxConcurrency := flag.String("max-concurrency", "", "Total in-flight outbound requests (default: 20)")
	maxPerHost := flag.String("max-per-host", "", "In-flight requests per system (default: 2)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:       getConfigValue(*serverPort, "PORT", "8080"),
			TrustProxy: getBoolConfigValue(*trustProxy, "TRUST_PROXY", false),
			SearchRPM:  getIntConfigValue(*searchRPM, "SEARCH_RPM", 60),
		},
		Registry: RegistryConfig{
			Path:  getConfigValue(*registryPath, "LIBRARY_REGISTRY_PATH", "configs/libraries"),
			Watch: getBoolConfigValue(*registryWatch, "LIBRARY_REGISTRY_WATCH", true),
		},
		Search: SearchConfig{
			MaxConcurrency:        getIntConfigValue(*maxConcurrency, "SEARCH_MAX_CONCURRENCY", 20),
			MaxPerHostConcurrency: getIntConfigValue(*maxPerHost, "SEARCH_MAX_PER_HOST", 2),
			MaxRetries:            getIntConfigValue("", "SEARCH_MAX_RETRIES", 2),
			CacheEnabled:          getBoolConfigValue("", "SEARCH_CACHE_ENABLED", true),
			CacheSize:             getIntConfigValue("", "SEARCH_CACHE_SIZE", 500),
		},
	}

	durations := []struct {
		dst    *time.Duration
		flagV  string
		envKey string
		def    string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.Search.GlobalTimeout, *globalTimeout, "SEARCH_GLOBAL_TIMEOUT", "30s"},
		{&cfg.Search.PerSystemTimeout, *perSystemTimeout, "SEARCH_PER_SYSTEM_TIMEOUT", "15s"},
		{&cfg.Search.RetryBaseDelay, "", "SEARCH_RETRY_BASE_DELAY", "500ms"},
		{&cfg.Search.CacheTTL, "", "SEARCH_CACHE_TTL", "5m"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagV, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Registry.Path == "" {
		return errors.New("library registry path cannot be empty")
	}
	if c.Search.MaxConcurrency < 1 {
		return errors.New("search max concurrency must be at least 1")
	}
	if c.Search.MaxPerHostConcurrency < 1 {
		return errors.New("search per-host concurrency must be at least 1")
	}
	if c.Search.PerSystemTimeout > c.Search.GlobalTimeout {
		return errors.New("per-system timeout cannot exceed the global timeout")
	}
	if c.Server.SearchRPM < 1 {
		return errors.New("search rpm must be at least 1")
	}

	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		// Env vars take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
