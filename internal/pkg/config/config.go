package config

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	GraphQL  GraphQLConfig  `koanf:"graphql"`
	ReadOnly ReadOnlyConfig `koanf:"read_only"`
	Debug    DebugConfig    `koanf:"debug"`
	Auth     AuthConfig     `koanf:"auth"`
	Storage  StorageConfig  `koanf:"storage"`
	Redis    RedisConfig    `koanf:"redis"`
	Tracing  TracingConfig  `koanf:"tracing"`
}

type ServerConfig struct {
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

type GraphQLConfig struct {
	// Path is the single endpoint on which app tokens are honoured.
	Path string `koanf:"path"`
}

type ReadOnlyConfig struct {
	Enabled bool `koanf:"enabled"`
	// RootEmail identifies the account allowed to run any mutation in read-only mode.
	RootEmail string `koanf:"root_email"`
}

type DebugConfig struct {
	Enabled bool `koanf:"enabled"` // mounts the GraphQL playground
}

type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // sqlite, memory
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// RedisConfig enables the app lookup cache when Addr is set.
type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	TTL      time.Duration `koanf:"ttl"`
}

type TracingConfig struct {
	Exporter string   `koanf:"exporter"` // stdout, none
	Exclude  []string `koanf:"exclude"`  // "Type.field" entries never traced
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// legacyEnv maps the unprefixed variable names older deployments set.
var legacyEnv = map[string]string{
	"GRAPHQL_ENDPOINT_PATH": "graphql.path",
	"ROOT_EMAIL":            "read_only.root_email",
	"READ_ONLY_MODE":        "read_only.enabled",
	"ENABLE_DEBUG_TOOLBAR":  "debug.enabled",
}

// Load reads config.yaml from the working directory, if present.
func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

// LoadFile reads the YAML file at path (a missing file is not an error) and
// applies SHOPGATE_ environment overrides on top.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return legacyEnv[s]
	}), nil); err != nil {
		return nil, err
	}

	// Load environment variables (can override file config)
	if err := k.Load(env.Provider("SHOPGATE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "SHOPGATE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	defaults := map[string]any{
		"server.port":         8000,
		"server.timeout":      "30s",
		"graphql.path":        "/graphql/",
		"auth.token_ttl":      "5m",
		"storage.type":        "sqlite",
		"storage.sqlite.path": "./data/shopgate.db",
		"redis.ttl":           "1m",
		"tracing.exporter":    "none",
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	cfg.Auth.JWTSecret = substituteEnvVars(cfg.Auth.JWTSecret)
	cfg.Redis.Password = substituteEnvVars(cfg.Redis.Password)
	cfg.ReadOnly.RootEmail = substituteEnvVars(cfg.ReadOnly.RootEmail)

	return &cfg, nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
