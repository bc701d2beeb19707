package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
)

type Config struct {
	ServerPort   string
	AutoNotify   bool
	LogLevel     string
	KafkaBrokers []string
	KafkaTopic   string
	SeedCSV      string
}

// LoadConfig reads .env (when present) and then the environment.
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	autoNotify, err := strconv.ParseBool(getEnv("AUTO_NOTIFY", "true"))
	if err != nil {
		return nil, fmt.Errorf("AUTO_NOTIFY must be a boolean: %w", err)
	}

	cfg := &Config{
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		AutoNotify:   autoNotify,
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		KafkaBrokers: parseKafkaBrokers(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "inventory-alerts"),
		SeedCSV:      getEnv("SEED_CSV", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return fmt.Errorf("SERVER_PORT must be a number: %q", c.ServerPort)
	}
	if _, ok := parseLevel(c.LogLevel); !ok {
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, off: %q", c.LogLevel)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return fmt.Errorf("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// KafkaEnabled reports whether expiry alerts should also go to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Level maps LogLevel to the logger's level, defaulting to INFO.
func (c *Config) Level() log.Lvl {
	lvl, ok := parseLevel(c.LogLevel)
	if !ok {
		return log.INFO
	}
	return lvl
}

// NewLogger builds the JSON logger shared by the server and the usecases.
func (c *Config) NewLogger(prefix string) *log.Logger {
	logger := log.New(prefix)
	logger.SetLevel(c.Level())
	return logger
}

func parseLevel(s string) (log.Lvl, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DEBUG, true
	case "info", "":
		return log.INFO, true
	case "warn", "warning":
		return log.WARN, true
	case "error":
		return log.ERROR, true
	case "off":
		return log.OFF, true
	}
	return 0, false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseKafkaBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
