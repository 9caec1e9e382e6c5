package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string `validate:"oneof=development staging production test"`

	// Storage
	Store    StoreConfig
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Disclosure feed & selection
	DART      DARTConfig
	Selection SelectionConfig

	// Narrative generation
	LLM LLMConfig

	// Delivery
	Slack SlackConfig

	// Related news
	NewsEnabled bool

	// Scheduler
	Schedule string

	// Logging
	LogLevel  string
	LogFormat string

	DryRun bool
}

// StoreConfig selects the ledger backend
type StoreConfig struct {
	Driver string `validate:"oneof=badger postgres"`
	Path   string // badger 디렉터리
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DARTConfig holds DART (전자공시) feed configuration
type DARTConfig struct {
	RSSURL         string `validate:"required,url"`
	APIKey         string
	BaseURL        string   `validate:"required,url"`
	CompanyMapPath string   `validate:"required"`
	TargetMarkets  []string `validate:"min=1,dive,required"`
	Timezone       string   `validate:"required"`
}

// SelectionConfig holds the daily pick thresholds
type SelectionConfig struct {
	TopNMax            int     `validate:"min=1,max=2"`
	SecondPickMinScore float64 `validate:"gte=0,lte=100"`
	SecondPickMinGap   float64 `validate:"gte=0,lte=100"`
	TuningPath         string  // 선택: YAML 가중치 파일
}

// LLMConfig holds language model configuration
type LLMConfig struct {
	Provider        string `validate:"oneof=openai anthropic"`
	OpenAIAPIKey    string
	OpenAIModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	Timeout         time.Duration
}

// SlackConfig holds Slack webhook configuration
type SlackConfig struct {
	WebhookURL   string
	Channel      string
	NotifyOnSkip bool
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("DIGEST_STORE", "badger")),
			Path:   getEnv("DART_DB_PATH", filepath.Join("data", "dart_digest")),
		},

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		DART: DARTConfig{
			RSSURL:         getEnv("DART_RSS_URL", "https://dart.fss.or.kr/api/todayRSS.xml"),
			APIKey:         getEnv("DART_API_KEY", ""),
			BaseURL:        getEnv("DART_BASE_URL", "https://opendart.fss.or.kr"),
			CompanyMapPath: getEnv("DART_COMPANY_MAP_PATH", filepath.Join("data", "companies.csv")),
			TargetMarkets:  getEnvAsList("DART_TARGET_MARKETS", "KOSPI,KOSDAQ"),
			Timezone:       getEnv("DART_TIMEZONE", "Asia/Seoul"),
		},

		Selection: SelectionConfig{
			TopNMax:            clampInt(getEnvAsInt("DART_TOP_N_MAX", 2), 1, 2),
			SecondPickMinScore: getEnvAsFloat("DART_SECOND_PICK_MIN_SCORE", 78.0),
			SecondPickMinGap:   getEnvAsFloat("DART_SECOND_PICK_MIN_GAP", 6.0),
			TuningPath:         getEnv("DART_TUNING_PATH", ""),
		},

		LLM: LLMConfig{
			Provider:        strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
			OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4.1-mini"),
			AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
			AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-5"),
			Timeout:         getEnvAsDuration("LLM_TIMEOUT", "40s"),
		},

		Slack: SlackConfig{
			WebhookURL:   getEnv("SLACK_WEBHOOK_URL", ""),
			Channel:      getEnv("SLACK_CHANNEL", ""),
			NotifyOnSkip: getEnvAsBool("DART_NOTIFY_ON_SKIP", true),
		},

		NewsEnabled: getEnvAsBool("NEWS_ENABLED", true),

		// 평일 18:10 (KST 기준은 DART_TIMEZONE 으로 해석)
		Schedule: getEnv("DIGEST_SCHEDULE", "0 10 18 * * 1-5"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		DryRun: getEnvAsBool("DRY_RUN", false),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadFile loads path into the environment first, then calls Load
// 이미 설정된 환경변수는 덮어쓰지 않음
func LoadFile(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	return Load()
}

// Location returns the configured report timezone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DART.Timezone)
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// HasLLM reports whether the selected provider has an API key
func (c *Config) HasLLM() bool {
	switch c.LLM.Provider {
	case "anthropic":
		return c.LLM.AnthropicAPIKey != ""
	default:
		return c.LLM.OpenAIAPIKey != ""
	}
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	// Database URL is required only for the postgres ledger
	if c.Store.Driver == "postgres" && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when DIGEST_STORE=postgres")
	}

	if _, err := time.LoadLocation(c.DART.Timezone); err != nil {
		return fmt.Errorf("DART_TIMEZONE is invalid: %w", err)
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{".env"}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(valueStr), 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBool accepts 1/true/yes/y/on (case-insensitive) as true
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	switch strings.ToLower(strings.TrimSpace(valueStr)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, upper-cases and dedups it
func getEnvAsList(key string, defaultValue string) []string {
	if items := splitList(getEnv(key, defaultValue)); len(items) > 0 {
		return items
	}
	return splitList(defaultValue)
}

func splitList(raw string) []string {
	seen := make(map[string]bool)
	items := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		item := strings.ToUpper(strings.TrimSpace(part))
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		items = append(items, item)
	}
	return items
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
