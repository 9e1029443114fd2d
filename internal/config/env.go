// Package config reads hopon settings from HOPON_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SourceEnv selects where the two tables come from.
type SourceEnv struct {
	// Driver is fs, s3, memory, sqlite or postgres.
	Driver           string `envconfig:"SOURCE_DRIVER" default:"fs"`
	ProjectsKey      string `envconfig:"PROJECTS_KEY" default:"projects.csv"`
	OrganizationsKey string `envconfig:"ORGANIZATIONS_KEY" default:"orgs.csv"`
	Delimiter        string `envconfig:"DELIMITER" default:"|"`
	FSRoot           string `envconfig:"FS_ROOT" default:"./data"`
	Watch            bool   `envconfig:"WATCH" default:"true"`
	CountriesFile    string `envconfig:"COUNTRIES_FILE"`
	// KeepAllCountries disables country translation and keeps raw codes.
	KeepAllCountries bool `envconfig:"KEEP_ALL_COUNTRIES" default:"false"`
}

// S3Env configures the s3 driver.
type S3Env struct {
	Bucket          string `envconfig:"S3_BUCKET"`
	Prefix          string `envconfig:"S3_PREFIX"`
	Region          string `envconfig:"S3_REGION" default:"eu-west-1"`
	Endpoint        string `envconfig:"S3_ENDPOINT"`
	AccessKeyID     string `envconfig:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	SessionToken    string `envconfig:"S3_SESSION_TOKEN"`
	PathStyle       bool   `envconfig:"S3_PATH_STYLE" default:"false"`
}

// SQLEnv configures the sqlite and postgres drivers. For SQL drivers the
// keys name tables.
type SQLEnv struct {
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"./data/hopon.db"`
	PostgresDSN string `envconfig:"POSTGRES_DSN"`
}

// ServerEnv configures the HTTP server and session handling.
type ServerEnv struct {
	HTTPAddr    string        `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel    string        `envconfig:"LOG_LEVEL" default:"info"`
	SessionTTL  time.Duration `envconfig:"SESSION_TTL" default:"30m"`
	MaxSessions int           `envconfig:"MAX_SESSIONS" default:"1024"`
	CacheSize   int           `envconfig:"CACHE_SIZE" default:"8"`
	MaxExports  int           `envconfig:"MAX_EXPORTS" default:"256"`
}

// Env is the complete configuration.
type Env struct {
	SourceEnv
	S3Env
	SQLEnv
	ServerEnv
}

const namespace = "HOPON"

// ReadEnv reads the environment without validating it, so callers can
// apply overrides such as command-line flags first.
func ReadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

// LoadEnv reads and validates the environment.
func LoadEnv() (*Env, error) {
	env, err := ReadEnv()
	if err != nil {
		return nil, err
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return env, nil
}

// Validate checks driver specific requirements.
func (e *Env) Validate() error {
	switch e.Driver {
	case "fs", "memory", "sqlite":
	case "s3":
		if e.Bucket == "" {
			return fmt.Errorf("HOPON_S3_BUCKET is required for the s3 driver")
		}
	case "postgres":
		if e.PostgresDSN == "" {
			return fmt.Errorf("HOPON_POSTGRES_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown HOPON_SOURCE_DRIVER %q", e.Driver)
	}
	if len([]rune(e.Delimiter)) != 1 {
		return fmt.Errorf("HOPON_DELIMITER must be a single character, got %q", e.Delimiter)
	}
	return nil
}

// DelimiterRune returns the configured cell delimiter.
func (e *SourceEnv) DelimiterRune() rune { return []rune(e.Delimiter)[0] }

// ZapLevel parses LogLevel, defaulting to info.
func (e *ServerEnv) ZapLevel() zapcore.Level {
	level, err := zapcore.ParseLevel(e.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// NewLogger builds the process logger: production settings with console
// encoding and ISO8601 timestamps.
func NewLogger(level zapcore.Level) (*zap.Logger, error) {
	prodConfig := zap.NewProductionConfig()
	prodConfig.Encoding = "console"
	prodConfig.Level = zap.NewAtomicLevelAt(level)
	prodConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	prodConfig.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	logger, err := prodConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
