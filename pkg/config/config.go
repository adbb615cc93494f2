package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

type Config struct {
	Env         string
	Port        int
	APIPrefix   string
	ProjectName string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Session   SessionConfig
	CORS      CORSConfig
	Log       LogConfig
	RateLimit RateLimitConfig
	Diagnosis DiagnosisConfig
	Sentry    SentryConfig
	Seed      SeedConfig
}

type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	DB       int
	UseSSL   bool
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

// SessionConfig controls the refresh token cookie.
type SessionConfig struct {
	CookieSecure   bool
	CookieSameSite string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RateLimitConfig toggles the Redis-backed request ceilings. Forwarding headers
// are honoured only when the peer is one of TrustedProxies; by default none is.
type RateLimitConfig struct {
	Enabled        bool
	TrustedProxies []string
}

// DiagnosisConfig governs caching of diagnosis lookups.
type DiagnosisConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

type SentryConfig struct {
	DSN string
}

// SeedConfig holds the bootstrap principals created by cmd/seed.
type SeedConfig struct {
	AdminName      string
	AdminEmail     string
	AdminPassword  string
	DoctorName     string
	DoctorEmail    string
	DoctorPassword string
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

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.ProjectName = v.GetString("PROJECT_NAME")

	cfg.Database = DatabaseConfig{
		Driver:       v.GetString("DB_DRIVER"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Username: v.GetString("REDIS_USERNAME"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		UseSSL:   v.GetBool("REDIS_USE_SSL"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_ACCESS_EXPIRATION"), 15*time.Minute),
		RefreshExpiration: parseDuration(v.GetString("JWT_REFRESH_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.Session = SessionConfig{
		CookieSecure:   v.GetBool("SESSION_COOKIE_SECURE"),
		CookieSameSite: strings.ToLower(v.GetString("SESSION_COOKIE_SAMESITE")),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.RateLimit = RateLimitConfig{
		Enabled:        v.GetBool("RATE_LIMIT_ENABLED"),
		TrustedProxies: splitAndTrim(v.GetString("TRUSTED_PROXIES")),
	}

	cfg.Diagnosis = DiagnosisConfig{
		CacheEnabled: v.GetBool("DIAGNOSIS_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("DIAGNOSIS_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Sentry = SentryConfig{DSN: v.GetString("SENTRY_DSN")}

	cfg.Seed = SeedConfig{
		AdminName:      v.GetString("ADMIN_NAME"),
		AdminEmail:     v.GetString("ADMIN_EMAIL"),
		AdminPassword:  v.GetString("ADMIN_PASSWORD"),
		DoctorName:     v.GetString("DOCTOR_NAME"),
		DoctorEmail:    v.GetString("DOCTOR_EMAIL"),
		DoctorPassword: v.GetString("DOCTOR_PASSWORD"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Session.CookieSameSite {
	case "lax", "strict", "none":
	default:
		return fmt.Errorf("SESSION_COOKIE_SAMESITE must be one of lax, strict, none: got %q", c.Session.CookieSameSite)
	}
	switch c.Database.Driver {
	case "postgres", "pgx":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or pgx: got %q", c.Database.Driver)
	}
	if c.Env == EnvProduction && (c.JWT.Secret == "" || c.JWT.Secret == devSecret) {
		return errors.New("JWT_SECRET must be set in production")
	}
	return nil
}

const devSecret = "dev_secret"

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("PROJECT_NAME", "ClinicCare Mini EMR")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "mini_emr")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_USERNAME", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_USE_SSL", false)

	v.SetDefault("JWT_SECRET", devSecret)
	v.SetDefault("JWT_ACCESS_EXPIRATION", "15m")
	v.SetDefault("JWT_REFRESH_EXPIRATION", "168h")
	v.SetDefault("SESSION_COOKIE_SECURE", true)
	v.SetDefault("SESSION_COOKIE_SAMESITE", "lax")

	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("DIAGNOSIS_CACHE_ENABLED", true)
	v.SetDefault("DIAGNOSIS_CACHE_TTL", "10m")
	v.SetDefault("SENTRY_DSN", "")

	v.SetDefault("ADMIN_NAME", "Admin User")
	v.SetDefault("ADMIN_EMAIL", "admin@example.com")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("DOCTOR_NAME", "Doctor User")
	v.SetDefault("DOCTOR_EMAIL", "doctor@example.com")
	v.SetDefault("DOCTOR_PASSWORD", "")
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
		trimmed := strings.TrimRight(strings.TrimSpace(part), "/")
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
