// Package config provides configuration management for the call router
// application. It handles loading configuration from environment variables
// with sensible defaults and validates the configuration to ensure the
// application starts safely.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//
// Database Configuration:
//   - DATABASE_URL: PostgreSQL connection string (optional; the in-memory
//     policy store is used when unset)
//
// Switch Control Channel:
//   - SWITCH_ESL_HOST: Event socket host of the media switch (default: localhost)
//   - SWITCH_ESL_PORT: Event socket port (default: 8021)
//   - SWITCH_ESL_PASSWORD: Event socket password (default: ClueCon)
//   - SWITCH_COMMAND_TIMEOUT: Timeout for a single switch command (default: 10s)
//   - SWITCH_STATUS_SCHEDULE: Cron schedule for switch status polling (default: every minute)
//
// Deployment:
//   - SWITCH_CONFIG_PATH: Root directory of the switch configuration tree (default: /etc/freeswitch)
//   - BACKUP_PATH: Root directory for configuration backups (default: ./backups)
//   - DEPLOY_TIMEOUT: Overall timeout for a tenant deployment (default: 60s)
//
// Redis Configuration (distributed deploy locks):
//   - REDIS_ADDRESS: Redis server address (default: localhost:6379)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//   - DEPLOY_LOCK_TTL: TTL for a tenant deploy lock (default: 90s)
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for the call router application.
// All string fields correspond to environment variables that can be set to
// override the default values.
//
// The configuration is loaded using the Load() function and should be
// validated using the Validate() method before use.
type Config struct {
	// Application settings
	Port     string // Server port number
	LogLevel string // Logging level (debug, info, warn, error)

	// Database configuration
	DatabaseURL string // PostgreSQL connection string; empty selects the memory store

	// Switch control channel configuration
	SwitchESLHost        string // Event socket host
	SwitchESLPort        string // Event socket port
	SwitchESLPassword    string // Event socket password
	SwitchCommandTimeout string // Per-command timeout (e.g. "10s")
	SwitchStatusSchedule string // Cron schedule for status polling

	// Deployment configuration
	SwitchConfigPath string // Root of the switch configuration tree
	BackupPath       string // Root directory for configuration backups
	DeployTimeout    string // Overall deployment timeout (e.g. "60s")

	// Redis configuration for distributed deploy locks
	RedisAddress  string // Redis server address (host:port)
	RedisPassword string // Redis authentication password
	RedisDB       string // Redis database number (0-15)
	RedisPoolSize string // Redis connection pool size
	DeployLockTTL string // TTL for a tenant deploy lock (e.g. "90s")
}

// Load creates a new Config instance with values loaded from environment variables.
// If an environment variable is not set, the corresponding default value is used.
//
// This function does not validate the configuration - call Validate() on the
// returned Config to ensure all required values are properly set and valid.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		// Switch control channel
		SwitchESLHost:        getEnv("SWITCH_ESL_HOST", "localhost"),
		SwitchESLPort:        getEnv("SWITCH_ESL_PORT", "8021"),
		SwitchESLPassword:    getEnv("SWITCH_ESL_PASSWORD", "ClueCon"),
		SwitchCommandTimeout: getEnv("SWITCH_COMMAND_TIMEOUT", "10s"),
		SwitchStatusSchedule: getEnv("SWITCH_STATUS_SCHEDULE", "@every 1m"),

		// Deployment
		SwitchConfigPath: getEnv("SWITCH_CONFIG_PATH", "/etc/freeswitch"),
		BackupPath:       getEnv("BACKUP_PATH", "./backups"),
		DeployTimeout:    getEnv("DEPLOY_TIMEOUT", "60s"),

		// Redis configuration
		RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),
		RedisPoolSize: getEnv("REDIS_POOL_SIZE", "10"),
		DeployLockTTL: getEnv("DEPLOY_LOCK_TTL", "90s"),
	}
}

// getEnv retrieves an environment variable value or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// CommandTimeout returns the parsed per-command switch timeout.
// Validate() guarantees the value parses.
func (c *Config) CommandTimeout() time.Duration {
	d, _ := time.ParseDuration(c.SwitchCommandTimeout)
	return d
}

// DeployTimeoutDuration returns the parsed overall deployment timeout.
func (c *Config) DeployTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.DeployTimeout)
	return d
}

// LockTTL returns the parsed tenant deploy lock TTL.
func (c *Config) LockTTL() time.Duration {
	d, _ := time.ParseDuration(c.DeployLockTTL)
	return d
}

// Validate performs comprehensive validation on the configuration to ensure
// all required fields are present and all values are valid.
//
// This method checks:
//   - Field format validation (ports, durations)
//   - Switch control-channel settings
//   - Redis settings used by the distributed deploy locks
//
// The application should call this method after loading configuration and
// before starting to ensure safe operation.
func (c *Config) Validate() error {
	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	// Validate switch control-channel settings
	if c.SwitchESLHost == "" {
		return fmt.Errorf("SWITCH_ESL_HOST must not be empty")
	}
	if port, err := strconv.Atoi(c.SwitchESLPort); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("SWITCH_ESL_PORT must be a valid port number")
	}
	if d, err := time.ParseDuration(c.SwitchCommandTimeout); err != nil || d <= 0 {
		return fmt.Errorf("SWITCH_COMMAND_TIMEOUT must be a positive duration (e.g., '10s')")
	}

	// Validate deployment settings
	if c.SwitchConfigPath == "" {
		return fmt.Errorf("SWITCH_CONFIG_PATH must not be empty")
	}
	if c.BackupPath == "" {
		return fmt.Errorf("BACKUP_PATH must not be empty")
	}
	if d, err := time.ParseDuration(c.DeployTimeout); err != nil || d <= 0 {
		return fmt.Errorf("DEPLOY_TIMEOUT must be a positive duration (e.g., '60s')")
	}

	// Validate Redis config if provided
	if c.RedisAddress != "" {
		if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if poolSize, err := strconv.Atoi(c.RedisPoolSize); err != nil || poolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
		}
	}
	if d, err := time.ParseDuration(c.DeployLockTTL); err != nil || d <= 0 {
		return fmt.Errorf("DEPLOY_LOCK_TTL must be a positive duration (e.g., '90s')")
	}

	return nil
}
