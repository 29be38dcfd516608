package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"renewals/internal/core"
	"renewals/internal/sheets"
	"renewals/internal/storage"
)

const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	// HTTP Server
	Port string

	// Storage
	DataBackend  string
	SQLiteDBPath string
	RecordsKey   string
	BillsKey     string

	// Reporting
	Timezone          string
	BillMonthlyTarget string

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleAPIKey             string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Worker, periodic push disabled when zero
	SyncInterval time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8081"),
		DataBackend:  getEnv("DATA_BACKEND", BackendSQLite),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/renewals.db"),
		RecordsKey:   getEnv("RECORDS_KEY", storage.RecordsKey),
		BillsKey:     getEnv("BILLS_KEY", storage.BillsKey),

		Timezone:          getEnv("TIMEZONE", "Asia/Kuala_Lumpur"),
		BillMonthlyTarget: getEnv("BILL_MONTHLY_TARGET", "10000.00"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "renewals"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sheets_sync"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", sheets.DefaultSheetName),
		GoogleAPIKey:             getEnv("GOOGLE_API_KEY", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		SyncInterval: getEnvDuration("SYNC_INTERVAL", 0),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{BackendMemory, BackendSQLite}
	if !oneOf(c.DataBackend, validBackends) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}
	if c.DataBackend == BackendSQLite && strings.TrimSpace(c.SQLiteDBPath) == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}
	if strings.TrimSpace(c.RecordsKey) == "" || strings.TrimSpace(c.BillsKey) == "" {
		errors = append(errors, "storage keys cannot be empty")
	} else if c.RecordsKey == c.BillsKey {
		errors = append(errors, fmt.Sprintf("records and bills keys must differ, both are '%s'", c.RecordsKey))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}
	if _, err := core.ParseMoney(c.BillMonthlyTarget); err != nil {
		errors = append(errors, fmt.Sprintf("invalid bill monthly target '%s': %v", c.BillMonthlyTarget, err))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" {
		if _, err := sheets.ExtractSpreadsheetID(c.GoogleSpreadsheetID); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Google spreadsheet '%s': expected an id or a sheet URL", c.GoogleSpreadsheetID))
		}
	}
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if c.SyncInterval < 0 {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must not be negative", c.SyncInterval))
	} else if c.SyncInterval > 0 && c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	validFormats := []string{"text", "json", "pretty"}
	if !oneOf(c.LogFormat, validFormats) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validFormats))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Location is the configured reporting timezone, UTC when invalid.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MonthlyTarget is the parsed bill revenue goal, zero when invalid.
func (c *Config) MonthlyTarget() core.Money {
	m, err := core.ParseMoney(c.BillMonthlyTarget)
	if err != nil {
		return core.Money{}
	}
	return m
}

// SheetsEnabled reports whether a default spreadsheet is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// AMQPEnabled reports whether sync requests go through the broker.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

func oneOf(v string, options []string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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
