package config

import (
	"errors"
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

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Engine   EngineConfig
	Cache    CacheConfig
	Exports  ExportsConfig
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
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// EngineConfig tunes the scheduling search and proposal lifecycle.
type EngineConfig struct {
	ProposalTTL      time.Duration
	IterationBudget  int
	TimeBudget       time.Duration
	DefaultSeed      int64
	MaxBlockHours    int
	InitialTemp      float64
	CoolingRate      float64
	WeightPreference float64
	WeightGap        float64
	WeightBalance    float64
	WeightContinuity float64
}

// CacheConfig governs effective-schedule caching.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// ExportsConfig configures timetable export rendering.
type ExportsConfig struct {
	WorkerConcurrency int
	WorkerRetries     int
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

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
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Engine = EngineConfig{
		ProposalTTL:      parseDuration(v.GetString("ENGINE_PROPOSAL_TTL"), 30*time.Minute),
		IterationBudget:  v.GetInt("ENGINE_ITERATION_BUDGET"),
		TimeBudget:       parseDuration(v.GetString("ENGINE_TIME_BUDGET"), 20*time.Second),
		DefaultSeed:      v.GetInt64("ENGINE_DEFAULT_SEED"),
		MaxBlockHours:    v.GetInt("ENGINE_MAX_BLOCK_HOURS"),
		InitialTemp:      v.GetFloat64("ENGINE_INITIAL_TEMPERATURE"),
		CoolingRate:      v.GetFloat64("ENGINE_COOLING_RATE"),
		WeightPreference: v.GetFloat64("ENGINE_WEIGHT_PREFERENCE"),
		WeightGap:        v.GetFloat64("ENGINE_WEIGHT_GAP"),
		WeightBalance:    v.GetFloat64("ENGINE_WEIGHT_BALANCE"),
		WeightContinuity: v.GetFloat64("ENGINE_WEIGHT_CONTINUITY"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_SCHEDULE_CACHE"),
		TTL:     parseDuration(v.GetString("SCHEDULE_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Exports = ExportsConfig{
		WorkerConcurrency: v.GetInt("EXPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("EXPORTS_WORKER_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "campus_scheduler")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENGINE_PROPOSAL_TTL", "30m")
	v.SetDefault("ENGINE_ITERATION_BUDGET", 20000)
	v.SetDefault("ENGINE_TIME_BUDGET", "20s")
	v.SetDefault("ENGINE_DEFAULT_SEED", 1)
	v.SetDefault("ENGINE_MAX_BLOCK_HOURS", 3)
	v.SetDefault("ENGINE_INITIAL_TEMPERATURE", 12.0)
	v.SetDefault("ENGINE_COOLING_RATE", 0.997)
	v.SetDefault("ENGINE_WEIGHT_PREFERENCE", 4.0)
	v.SetDefault("ENGINE_WEIGHT_GAP", 2.0)
	v.SetDefault("ENGINE_WEIGHT_BALANCE", 1.0)
	v.SetDefault("ENGINE_WEIGHT_CONTINUITY", 2.0)

	v.SetDefault("ENABLE_SCHEDULE_CACHE", false)
	v.SetDefault("SCHEDULE_CACHE_TTL", "5m")

	v.SetDefault("EXPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("EXPORTS_WORKER_RETRIES", 3)
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
