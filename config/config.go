package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Retry     RetryConfig
	GenAI     GenAIConfig
	Storage   StorageConfig
	Intake    IntakeConfig
}

type AppConfig struct {
	Port                 string
	Env                  string
	LogLevel             string
	SlowRequestThreshold time.Duration
	CORSAllowedOrigins   []string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type SessionConfig struct {
	Secret string
	Expiry time.Duration
}

// RateLimitConfig selects the limiter backend. "memory" keeps counters inside
// the process, "redis" shares them between replicas.
type RateLimitConfig struct {
	Backend        string
	SaveLimit      int
	SaveWindow     time.Duration
	RecoveryLimit  int
	RecoveryWindow time.Duration
}

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

type GenAIConfig struct {
	APIKey     string
	Model      string
	PromptFile string
}

type StorageConfig struct {
	Bucket    string
	Region    string
	PublicURL string
}

type IntakeConfig struct {
	SecurityQuestions []string
}

const (
	EnvProduction = "production"

	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, EnvProduction)
}

func LoadConfig() (*Config, error) {
	return LoadConfigFile(".env")
}

// LoadConfigFile reads the given env file (if present) and the process
// environment. A missing file is not an error.
func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, err
		}
	}

	config := &Config{
		App: AppConfig{
			Port:                 v.GetString("APP_PORT"),
			Env:                  v.GetString("APP_ENV"),
			LogLevel:             v.GetString("LOG_LEVEL"),
			SlowRequestThreshold: v.GetDuration("SLOW_REQUEST_THRESHOLD"),
			CORSAllowedOrigins:   splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Session: SessionConfig{
			Secret: v.GetString("SESSION_SECRET"),
			Expiry: v.GetDuration("SESSION_EXPIRY"),
		},
		RateLimit: RateLimitConfig{
			Backend:        strings.ToLower(v.GetString("RATE_LIMIT_BACKEND")),
			SaveLimit:      v.GetInt("RATE_LIMIT_SAVE_LIMIT"),
			SaveWindow:     v.GetDuration("RATE_LIMIT_SAVE_WINDOW"),
			RecoveryLimit:  v.GetInt("RATE_LIMIT_RECOVERY_LIMIT"),
			RecoveryWindow: v.GetDuration("RATE_LIMIT_RECOVERY_WINDOW"),
		},
		Retry: RetryConfig{
			MaxAttempts: v.GetInt("RETRY_MAX_ATTEMPTS"),
			BaseDelay:   v.GetDuration("RETRY_BASE_DELAY"),
			Multiplier:  v.GetFloat64("RETRY_MULTIPLIER"),
			MaxDelay:    v.GetDuration("RETRY_MAX_DELAY"),
		},
		GenAI: GenAIConfig{
			APIKey:     v.GetString("GENAI_API_KEY"),
			Model:      v.GetString("GENAI_MODEL"),
			PromptFile: v.GetString("GENAI_PROMPT_FILE"),
		},
		Storage: StorageConfig{
			Bucket:    v.GetString("STORAGE_BUCKET"),
			Region:    v.GetString("STORAGE_REGION"),
			PublicURL: v.GetString("STORAGE_PUBLIC_URL"),
		},
		Intake: IntakeConfig{
			SecurityQuestions: splitList(v.GetString("SECURITY_QUESTIONS")),
		},
	}

	if config.App.LogLevel == "" {
		config.App.LogLevel = "info"
		if config.IsProduction() {
			config.App.LogLevel = "warn"
		}
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SLOW_REQUEST_THRESHOLD", 5*time.Second)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")

	v.SetDefault("SESSION_EXPIRY", 2*time.Hour)

	v.SetDefault("RATE_LIMIT_BACKEND", RateLimitBackendMemory)
	v.SetDefault("RATE_LIMIT_SAVE_LIMIT", 5)
	v.SetDefault("RATE_LIMIT_SAVE_WINDOW", 5*time.Minute)
	v.SetDefault("RATE_LIMIT_RECOVERY_LIMIT", 3)
	v.SetDefault("RATE_LIMIT_RECOVERY_WINDOW", 5*time.Minute)

	v.SetDefault("RETRY_MAX_ATTEMPTS", 3)
	v.SetDefault("RETRY_BASE_DELAY", time.Second)
	v.SetDefault("RETRY_MULTIPLIER", 2.0)
	v.SetDefault("RETRY_MAX_DELAY", 10*time.Second)

	v.SetDefault("GENAI_MODEL", "gemini-2.0-flash")

	v.SetDefault("STORAGE_BUCKET", "test-kit-results")
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
