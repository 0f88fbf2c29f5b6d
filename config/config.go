package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var loadOnce sync.Once

// Config func to get env value
func Config(key string) string {
	loadOnce.Do(func() {
		if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
			log.Printf("error loading .env file: %v", err)
		}
	})
	return os.Getenv(key)
}

// Default returns the env value or fallback when it is unset.
func Default(key string, fallback string) string {
	if value := Config(key); value != "" {
		return value
	}
	return fallback
}

func Int(key string, fallback int) int {
	value := Config(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, value, fallback)
		return fallback
	}
	return n
}

func Float(key string, fallback float64) float64 {
	value := Config(key)
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using %v", key, value, fallback)
		return fallback
	}
	return f
}

// Duration accepts Go duration strings ("250ms") or a bare number of milliseconds.
func Duration(key string, fallback time.Duration) time.Duration {
	value := Config(key)
	if value == "" {
		return fallback
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("invalid %s=%q, using %s", key, value, fallback)
		return fallback
	}
	return d
}

func Bool(key string, fallback bool) bool {
	switch strings.ToLower(Config(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}
