// Package config provides centralized default values for cartwatch
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Database Configuration
	DBDriver                 string
	DBPath                   string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int

	// Tracking Configuration
	RecoveryTokenTTL time.Duration

	// Reminder Pipeline
	ReminderDelay    time.Duration
	ReminderInterval time.Duration
	DiscountCode     string
	StorefrontURL    string

	// Media Configuration
	MediaPath    string
	MediaBaseURL string

	// SSE Configuration
	MaxSSEConnections           int
	SSEHeartbeatIntervalSeconds int

	// Auth Configuration
	JWTSecret         string
	SysOpPasswordHash string
	SysOpTokenTTL     time.Duration
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Database Configuration
	DBDriver = getEnvString("DB_DRIVER", "sqlite3")
	DBPath = getEnvString("DB_PATH", "cartwatch.db")
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)

	// Tracking Configuration
	RecoveryTokenTTL = time.Duration(getEnvInt("RECOVERY_TOKEN_TTL_DAYS", 30)) * 24 * time.Hour

	// Reminder Pipeline
	ReminderDelay = getEnvDuration("REMINDER_DELAY", 4*time.Hour)
	ReminderInterval = getEnvDuration("REMINDER_INTERVAL", 15*time.Minute)
	DiscountCode = getEnvString("RECOVERY_DISCOUNT_CODE", "COMEBACK10")
	StorefrontURL = getEnvString("STOREFRONT_URL", "http://localhost:3000")

	// Media Configuration
	MediaPath = getEnvString("MEDIA_PATH", "./media")
	MediaBaseURL = getEnvString("MEDIA_BASE_URL", "")

	// SSE Configuration
	MaxSSEConnections = getEnvInt("MAX_SSE_CONNECTIONS", 1000)
	SSEHeartbeatIntervalSeconds = getEnvInt("SSE_HEARTBEAT_INTERVAL_SECONDS", 30)

	// Auth Configuration
	JWTSecret = getEnvString("JWT_SECRET", "")
	SysOpPasswordHash = getEnvString("SYSOP_PASSWORD_HASH", "")
	SysOpTokenTTL = getEnvDuration("SYSOP_TOKEN_TTL", 12*time.Hour)
}
