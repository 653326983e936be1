package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Ledger backends
const (
	LedgerBackendSheets = "sheets"
	LedgerBackendMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	NodeEnv   string
	Port      string
	PortalURL string
	JWTSecret string
	Logging   LoggingConfig
	Auth      AuthConfig
	Sheets    SheetsConfig
	SportsInc SportsIncConfig
	HubSpot   HubSpotConfig
	Email     EmailConfig
	Backlog   BacklogConfig
	Redis     RedisConfig
	Database  DatabaseConfig
}

// LoggingConfig controls logrus output
type LoggingConfig struct {
	Level  string
	Format string // text, json
}

// AuthConfig holds the operator login used to mint API tokens
type AuthConfig struct {
	OperatorUser         string
	OperatorPasswordHash string // bcrypt
	TokenTTL             time.Duration
}

// SheetsConfig holds the spreadsheet ledger configuration
type SheetsConfig struct {
	Backend             string
	SpreadsheetID       string
	LedgerSheet         string
	BacklogSheet        string
	ServiceAccountEmail string
	PrivateKey          string
	CredentialsFile     string
}

// SportsIncConfig holds the vendor API configuration
type SportsIncConfig struct {
	BaseURL         string
	APIKey          string
	RateLimitPerMin int
}

// HubSpotConfig holds CRM configuration
type HubSpotConfig struct {
	BaseURL     string
	AccessToken string
	POProperty  string
}

// EmailConfig holds SMTP and recipient configuration
type EmailConfig struct {
	Host           string
	Port           string
	User           string
	AppPassword    string
	FromName       string
	To             []string
	RecipientsFile string
}

// BacklogConfig holds backlog checker scheduling
type BacklogConfig struct {
	Enabled    bool
	CheckTime  string // HH:MM
	Timezone   string
	CheckDelay time.Duration
}

// RedisConfig holds the optional Redis connection used for locks and dedup markers
type RedisConfig struct {
	Address         string
	Password        string
	DB              int
	CompletionDedup bool
	CompletionTTL   time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled      bool
	Embedded     bool // start a private Postgres under DataPath instead of dialing Host
	EmbeddedPort int
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	DataPath     string
	MaxOpenConns int
	Debug        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		NodeEnv:   getEnv("NODE_ENV", "development"),
		Port:      getEnv("PORT", "3001"),
		PortalURL: os.Getenv("PORTAL_URL"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Auth: AuthConfig{
			OperatorUser:         getEnv("OPERATOR_USER", "operator"),
			OperatorPasswordHash: os.Getenv("OPERATOR_PASSWORD_HASH"),
			TokenTTL:             getDuration("TOKEN_TTL", 12*time.Hour),
		},
		Sheets: SheetsConfig{
			Backend:             getEnv("LEDGER_BACKEND", LedgerBackendSheets),
			SpreadsheetID:       os.Getenv("GOOGLE_SHEETS_ID"),
			LedgerSheet:         getEnv("LEDGER_SHEET_NAME", "Invoice Data"),
			BacklogSheet:        getEnv("BACKLOG_SHEET_NAME", "Backlog"),
			ServiceAccountEmail: os.Getenv("GOOGLE_SERVICE_ACCOUNT_EMAIL"),
			PrivateKey:          os.Getenv("GOOGLE_PRIVATE_KEY"),
			CredentialsFile:     os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		},
		SportsInc: SportsIncConfig{
			BaseURL:         getEnv("SPORTSINC_API_URL", "https://api.sportsinc.com"),
			APIKey:          os.Getenv("SPORTSINC_API_KEY"),
			RateLimitPerMin: getInt("SPORTSINC_RATE_LIMIT_PER_MIN", 0),
		},
		HubSpot: HubSpotConfig{
			BaseURL:     getEnv("HUBSPOT_API_URL", "https://api.hubapi.com"),
			AccessToken: os.Getenv("HUBSPOT_ACCESS_TOKEN"),
			POProperty:  getEnv("HUBSPOT_PO_PROPERTY", "sales_order_"),
		},
		Email: EmailConfig{
			Host:           getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:           getEnv("SMTP_PORT", "587"),
			User:           os.Getenv("EMAIL_USER"),
			AppPassword:    os.Getenv("EMAIL_APP_PASSWORD"),
			FromName:       getEnv("EMAIL_FROM_NAME", "Sports Plus Inspection"),
			To:             splitList(os.Getenv("EMAIL_TO")),
			RecipientsFile: os.Getenv("RECIPIENTS_FILE"),
		},
		Backlog: BacklogConfig{
			Enabled:    getBool("BACKLOG_ENABLED", true),
			CheckTime:  getEnv("BACKLOG_CHECK_TIME", "09:00"),
			Timezone:   getEnv("BACKLOG_TIMEZONE", "Local"),
			CheckDelay: getDuration("BACKLOG_CHECK_DELAY", time.Second),
		},
		Redis: RedisConfig{
			Address:         os.Getenv("REDIS_ADDRESS"),
			Password:        os.Getenv("REDIS_PASSWORD"),
			DB:              getInt("REDIS_DB", 0),
			CompletionDedup: getBool("COMPLETION_DEDUP", false),
			CompletionTTL:   getDuration("COMPLETION_DEDUP_TTL", 30*24*time.Hour),
		},
		Database: DatabaseConfig{
			Enabled:      getBool("DB_ENABLED", true),
			Embedded:     getBool("DB_EMBEDDED", os.Getenv("PG_HOST") == ""),
			EmbeddedPort: getInt("PG_EMBEDDED_PORT", 5433),
			Host:         getEnv("PG_HOST", "localhost"),
			Port:         getEnv("PG_PORT", "5432"),
			Username:     getEnv("PG_USERNAME", "postgres"),
			Password:     os.Getenv("PG_PASSWORD"),
			Database:     getEnv("PG_DATABASE", "receiving"),
			DataPath:     getEnv("PG_DATA_PATH", "./db_data"),
			MaxOpenConns: getInt("PG_MAX_OPEN_CONNS", 5),
			Debug:        getBool("DB_DEBUG", false),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Sheets.Backend {
	case LedgerBackendSheets:
		if c.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("GOOGLE_SHEETS_ID is required when LEDGER_BACKEND=%s", LedgerBackendSheets)
		}
	case LedgerBackendMemory:
	default:
		return fmt.Errorf("unknown LEDGER_BACKEND %q", c.Sheets.Backend)
	}
	if _, _, err := ParseClock(c.Backlog.CheckTime); err != nil {
		return fmt.Errorf("invalid BACKLOG_CHECK_TIME: %w", err)
	}
	if _, err := time.LoadLocation(c.Backlog.Timezone); err != nil {
		return fmt.Errorf("invalid BACKLOG_TIMEZONE: %w", err)
	}
	return nil
}

// Location returns the backlog scheduler timezone
func (b BacklogConfig) Location() *time.Location {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ParseClock parses an HH:MM time of day
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
