package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// AMQP (optional; empty URL disables event publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Parse service
	ParserURL     string
	ParserTimeout time.Duration

	// State manager
	RecentLimit int

	// Budget worker
	BudgetSweepInterval time.Duration
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/dompet.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "dompet"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "transaction_events"),

		ParserURL:     getEnv("PARSER_URL", ""),
		ParserTimeout: getEnvDuration("PARSER_TIMEOUT", 10*time.Second),

		RecentLimit: getEnvInt("RECENT_LIMIT", 20),

		BudgetSweepInterval: getEnvDuration("BUDGET_SWEEP_INTERVAL", 5*time.Minute),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ParserURL != "" {
		if parsedURL, err := url.Parse(c.ParserURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid parser URL '%s': %v", c.ParserURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errs = append(errs, fmt.Sprintf("invalid parser URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
	}

	if c.ParserTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid parser timeout %v: must be at least 1 second", c.ParserTimeout))
	} else if c.ParserTimeout > time.Minute {
		errs = append(errs, fmt.Sprintf("invalid parser timeout %v: must be at most 1 minute", c.ParserTimeout))
	}

	if c.RecentLimit < 1 {
		errs = append(errs, fmt.Sprintf("invalid recent limit %d: must be at least 1", c.RecentLimit))
	} else if c.RecentLimit > 500 {
		errs = append(errs, fmt.Sprintf("invalid recent limit %d: must be at most 500", c.RecentLimit))
	}

	if c.BudgetSweepInterval < time.Second {
		errs = append(errs, fmt.Sprintf("invalid budget sweep interval %v: must be at least 1 second", c.BudgetSweepInterval))
	} else if c.BudgetSweepInterval > 24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid budget sweep interval %v: must be at most 24 hours", c.BudgetSweepInterval))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
