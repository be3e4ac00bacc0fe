package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is built once at process start and handed to constructors.
// Nothing below the cmd/ packages reads the environment directly.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Encryption EncryptionConfig
	RateLimit  RateLimitConfig
	CORS       CORSConfig
	App        AppConfig
	Mail       MailConfig
	Storage    StorageConfig
	Policy     PolicyConfig
	Leave      LeaveConfig
	Attendance AttendanceConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

type JWTConfig struct {
	Secret           string
	ExpiryHours      int
	ResetExpiryHours int
}

type EncryptionConfig struct {
	Key string
}

type RateLimitConfig struct {
	Requests      int
	WindowSeconds int
}

type CORSConfig struct {
	AllowedOrigins []string
}

// AppConfig holds values used to build links embedded in outbound mail.
type AppConfig struct {
	BaseURL string
}

type MailConfig struct {
	Driver   string // smtp, log
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Async    bool
}

type StorageConfig struct {
	Driver          string // s3, gcs
	Bucket          string
	Region          string
	Endpoint        string
	PublicBaseURL   string
	AccessKeyID     string
	SecretAccessKey string
	CredentialsFile string
	MaxFiles        int
	MaxFileBytes    int64
}

// Card numbering strategies.
const (
	CardNumberingReadModifyWrite = "read_modify_write"
	CardNumberingAtomic          = "atomic"
	CardNumberingRedis           = "redis"
)

// PolicyConfig carries the behaviors that are deliberately left configurable.
type PolicyConfig struct {
	CascadeProjectDelete bool
	CardNumbering        string
}

type LeaveConfig struct {
	AutoApproveMaxDays int
	AutoApproveCapDays int
}

type AttendanceConfig struct {
	AbsentSweepCron string
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func (j *JWTConfig) Expiry() time.Duration {
	return time.Duration(j.ExpiryHours) * time.Hour
}

func (j *JWTConfig) ResetExpiry() time.Duration {
	return time.Duration(j.ResetExpiryHours) * time.Hour
}

func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s *ServerConfig) IsDevelopment() bool {
	return s.Env == "development"
}

// Validate rejects combinations that would only fail later at request time.
func (c *Config) Validate() error {
	switch c.Policy.CardNumbering {
	case CardNumberingReadModifyWrite, CardNumberingAtomic, CardNumberingRedis:
	default:
		return fmt.Errorf("unknown card numbering policy %q", c.Policy.CardNumbering)
	}
	switch c.Mail.Driver {
	case "smtp", "log":
	default:
		return fmt.Errorf("unknown mail driver %q", c.Mail.Driver)
	}
	switch c.Storage.Driver {
	case "s3", "gcs":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.MaxFiles <= 0 || c.Storage.MaxFileBytes <= 0 {
		return fmt.Errorf("attachment limits must be positive")
	}
	if c.Leave.AutoApproveMaxDays < 0 || c.Leave.AutoApproveCapDays < 0 {
		return fmt.Errorf("leave thresholds must not be negative")
	}
	return nil
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "flowcore")
	v.SetDefault("DATABASE_PASSWORD", "flowcore_secret")
	v.SetDefault("DATABASE_NAME", "flowcore")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("JWT_SECRET", "change-me-in-production")
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("JWT_RESET_EXPIRY_HOURS", 24)
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("APP_BASE_URL", "http://localhost:3000")
	v.SetDefault("MAIL_DRIVER", "log")
	v.SetDefault("MAIL_PORT", 587)
	v.SetDefault("MAIL_FROM", "no-reply@flowcore.local")
	v.SetDefault("MAIL_ASYNC", true)
	v.SetDefault("STORAGE_DRIVER", "s3")
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("ATTACHMENT_MAX_FILES", 10)
	v.SetDefault("ATTACHMENT_MAX_BYTES", 5*1024*1024)
	v.SetDefault("POLICY_CASCADE_PROJECT_DELETE", false)
	v.SetDefault("POLICY_CARD_NUMBERING", CardNumberingReadModifyWrite)
	v.SetDefault("LEAVE_AUTO_APPROVE_MAX_DAYS", 2)
	v.SetDefault("LEAVE_AUTO_APPROVE_CAP_DAYS", 20)
	v.SetDefault("ATTENDANCE_ABSENT_SWEEP_CRON", "55 23 * * *")

	// Load from .env file if present
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
			Env:  v.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DATABASE_HOST"),
			Port:     v.GetInt("DATABASE_PORT"),
			User:     v.GetString("DATABASE_USER"),
			Password: v.GetString("DATABASE_PASSWORD"),
			Name:     v.GetString("DATABASE_NAME"),
			SSLMode:  v.GetString("DATABASE_SSLMODE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		JWT: JWTConfig{
			Secret:           v.GetString("JWT_SECRET"),
			ExpiryHours:      v.GetInt("JWT_EXPIRY_HOURS"),
			ResetExpiryHours: v.GetInt("JWT_RESET_EXPIRY_HOURS"),
		},
		Encryption: EncryptionConfig{
			Key: v.GetString("ENCRYPTION_KEY"),
		},
		RateLimit: RateLimitConfig{
			Requests:      v.GetInt("RATE_LIMIT_REQUESTS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		App: AppConfig{
			BaseURL: strings.TrimRight(v.GetString("APP_BASE_URL"), "/"),
		},
		Mail: MailConfig{
			Driver:   v.GetString("MAIL_DRIVER"),
			Host:     v.GetString("MAIL_HOST"),
			Port:     v.GetInt("MAIL_PORT"),
			Username: v.GetString("MAIL_USERNAME"),
			Password: v.GetString("MAIL_PASSWORD"),
			From:     v.GetString("MAIL_FROM"),
			Async:    v.GetBool("MAIL_ASYNC"),
		},
		Storage: StorageConfig{
			Driver:          v.GetString("STORAGE_DRIVER"),
			Bucket:          v.GetString("STORAGE_BUCKET"),
			Region:          v.GetString("STORAGE_REGION"),
			Endpoint:        v.GetString("STORAGE_ENDPOINT"),
			PublicBaseURL:   strings.TrimRight(v.GetString("STORAGE_PUBLIC_BASE_URL"), "/"),
			AccessKeyID:     v.GetString("STORAGE_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("STORAGE_SECRET_ACCESS_KEY"),
			CredentialsFile: v.GetString("STORAGE_CREDENTIALS_FILE"),
			MaxFiles:        v.GetInt("ATTACHMENT_MAX_FILES"),
			MaxFileBytes:    v.GetInt64("ATTACHMENT_MAX_BYTES"),
		},
		Policy: PolicyConfig{
			CascadeProjectDelete: v.GetBool("POLICY_CASCADE_PROJECT_DELETE"),
			CardNumbering:        v.GetString("POLICY_CARD_NUMBERING"),
		},
		Leave: LeaveConfig{
			AutoApproveMaxDays: v.GetInt("LEAVE_AUTO_APPROVE_MAX_DAYS"),
			AutoApproveCapDays: v.GetInt("LEAVE_AUTO_APPROVE_CAP_DAYS"),
		},
		Attendance: AttendanceConfig{
			AbsentSweepCron: v.GetString("ATTENDANCE_ABSENT_SWEEP_CRON"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
