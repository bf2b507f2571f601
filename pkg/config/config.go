package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	SupplyCache  SupplyCacheConfig
	Revision     RevisionConfig
	QuestionBank QuestionBankConfig
	Generator    GeneratorConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SupplyCacheConfig governs caching of generated practice questions in Redis.
type SupplyCacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// RevisionConfig tunes revision list allocation.
type RevisionConfig struct {
	RedItems      int
	AmberItems    int
	SupplyTimeout time.Duration
	DefaultTitle  string
}

// QuestionBankConfig points at an optional directory of YAML question banks.
type QuestionBankConfig struct {
	Dir string
}

// GeneratorConfig configures the OpenAI-compatible practice question generator.
type GeneratorConfig struct {
	Enabled bool
	APIKey  string
	BaseURL string
	Model   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.SupplyCache = SupplyCacheConfig{
		Enabled: v.GetBool("ENABLE_SUPPLY_CACHE"),
		TTL:     parseDuration(v.GetString("SUPPLY_CACHE_TTL"), 24*time.Hour),
	}

	cfg.Revision = RevisionConfig{
		RedItems:      clampItems(v.GetInt("REVISION_RED_ITEMS")),
		AmberItems:    clampItems(v.GetInt("REVISION_AMBER_ITEMS")),
		SupplyTimeout: parseDuration(v.GetString("REVISION_SUPPLY_TIMEOUT"), 20*time.Second),
		DefaultTitle:  v.GetString("REVISION_DEFAULT_TITLE"),
	}

	cfg.QuestionBank = QuestionBankConfig{
		Dir: v.GetString("QUESTION_BANK_DIR"),
	}

	cfg.Generator = GeneratorConfig{
		Enabled: v.GetBool("ENABLE_QUESTION_GENERATOR"),
		APIKey:  v.GetString("OPENAI_API_KEY"),
		BaseURL: v.GetString("OPENAI_BASE_URL"),
		Model:   v.GetString("OPENAI_MODEL"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "revision_engine")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_SUPPLY_CACHE", false)
	v.SetDefault("SUPPLY_CACHE_TTL", "24h")

	v.SetDefault("REVISION_RED_ITEMS", 3)
	v.SetDefault("REVISION_AMBER_ITEMS", 2)
	v.SetDefault("REVISION_SUPPLY_TIMEOUT", "20s")
	v.SetDefault("REVISION_DEFAULT_TITLE", "Revision list")

	v.SetDefault("QUESTION_BANK_DIR", "")

	v.SetDefault("ENABLE_QUESTION_GENERATOR", false)
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_BASE_URL", "")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
}

// clampItems keeps per-topic allocation counts within 1..3.
func clampItems(n int) int {
	if n < 1 {
		return 1
	}
	if n > 3 {
		return 3
	}
	return n
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
