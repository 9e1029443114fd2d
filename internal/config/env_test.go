package config

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func TestLoadEnvDefaults(t *testing.T) {
	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if env.Driver != "fs" || env.ProjectsKey != "projects.csv" || env.OrganizationsKey != "orgs.csv" {
		t.Fatalf("unexpected source defaults %+v", env.SourceEnv)
	}
	if env.SessionTTL != 30*time.Minute || env.HTTPAddr != ":8080" || env.DelimiterRune() != '|' {
		t.Fatalf("unexpected server defaults %+v", env.ServerEnv)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HOPON_SOURCE_DRIVER", "s3")
	t.Setenv("HOPON_S3_BUCKET", "exports")
	t.Setenv("HOPON_S3_PATH_STYLE", "true")
	t.Setenv("HOPON_SESSION_TTL", "5m")
	t.Setenv("HOPON_LOG_LEVEL", "debug")
	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if env.Bucket != "exports" || !env.PathStyle || env.SessionTTL != 5*time.Minute {
		t.Fatalf("overrides not applied %+v", env)
	}
	if env.ZapLevel() != zapcore.DebugLevel {
		t.Fatalf("unexpected level %v", env.ZapLevel())
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		env  Env
		want string
	}{
		{"s3 without bucket", Env{SourceEnv: SourceEnv{Driver: "s3", Delimiter: "|"}}, "HOPON_S3_BUCKET"},
		{"postgres without dsn", Env{SourceEnv: SourceEnv{Driver: "postgres", Delimiter: "|"}}, "HOPON_POSTGRES_DSN"},
		{"unknown driver", Env{SourceEnv: SourceEnv{Driver: "ftp", Delimiter: "|"}}, "unknown"},
		{"long delimiter", Env{SourceEnv: SourceEnv{Driver: "fs", Delimiter: "||"}}, "single character"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.env.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}

func TestZapLevelFallsBackToInfo(t *testing.T) {
	if (&ServerEnv{LogLevel: "chatty"}).ZapLevel() != zapcore.InfoLevel {
		t.Fatalf("invalid level must fall back to info")
	}
	logger, err := NewLogger(zapcore.WarnLevel)
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info must be disabled at warn level")
	}
}
