package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	TelegramToken string
	// APIURL is the base URL of the marketplace REST API, e.g. http://localhost:8080/api
	APIURL string
	// ImageBaseURL is the base URL relative image paths are resolved against
	ImageBaseURL string
	// DBPath is the sqlite file holding the local session (token, user, cached balance)
	DBPath      string
	HTTPTimeout time.Duration
}

// NewConfig creates a new configuration from environment variables
func NewConfig() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found, using default values")
	}

	return &Config{
		TelegramToken: getEnv("TELEGRAM_BOT_TOKEN", "YOUR_TELEGRAM_BOT_TOKEN"),
		APIURL:        getEnv("API_URL", "http://localhost:8080/api"),
		ImageBaseURL:  getEnv("IMAGE_BASE_URL", "http://localhost:8080"),
		DBPath:        getEnv("DB_PATH", "./annonces_session.db"),
		HTTPTimeout:   time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return n
}
