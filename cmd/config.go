package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/samkraft/samkraft-api/internal/applications"
	"github.com/samkraft/samkraft-api/internal/filtering"
	"github.com/samkraft/samkraft-api/internal/secrets"
)

const (
	envPrefix = "SAMKRAFT"

	backendPostgREST = "postgrest"
	backendMemory    = "memory"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Backend      BackendConfig      `mapstructure:"backend"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Matching     MatchingConfig     `mapstructure:"matching"`
	Applications ApplicationsConfig `mapstructure:"applications"`
	Turnstile    TurnstileConfig    `mapstructure:"turnstile"`
	Database     DatabaseConfig     `mapstructure:"database"`
}

type ServerConfig struct {
	Address        string        `mapstructure:"address"`
	AllowedOrigins []string      `mapstructure:"allowed-origins"`
	RequestTimeout time.Duration `mapstructure:"request-timeout"`
}

type BackendConfig struct {
	// Kind is postgrest or memory.
	Kind           string        `mapstructure:"kind"`
	URL            string        `mapstructure:"url"`
	ServiceKey     string        `mapstructure:"service-key"`
	ServiceKeyFile string        `mapstructure:"service-key-file"`
	Timeout        time.Duration `mapstructure:"timeout"`
	PageSize       int           `mapstructure:"page-size"`
}

type AuthConfig struct {
	JWTSecret     string `mapstructure:"jwt-secret"`
	JWTSecretFile string `mapstructure:"jwt-secret-file"`
}

type MatchingConfig struct {
	ExcludeFull bool   `mapstructure:"exclude-full"`
	SkillMode   string `mapstructure:"skill-mode"`
}

type ApplicationsConfig struct {
	DuplicatePolicy string `mapstructure:"duplicate-policy"`
}

type TurnstileConfig struct {
	SecretKey     string        `mapstructure:"secret-key"`
	SecretKeyFile string        `mapstructure:"secret-key-file"`
	Endpoint      string        `mapstructure:"endpoint"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConns        int32         `mapstructure:"max-conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn-max-lifetime"`
}

// envBindings maps config keys to the environment variables used by deployments.
var envBindings = map[string]string{
	"backend.url":               "SUPABASE_URL",
	"backend.service-key-file":  "SUPABASE_SERVICE_KEY_FILE",
	"auth.jwt-secret-file":      "SUPABASE_JWT_SECRET_FILE",
	"turnstile.secret-key-file": "TURNSTILE_SECRET_KEY_FILE",
	"database.url":              "DATABASE_URL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.allowed-origins", []string{"*"})
	v.SetDefault("server.request-timeout", 30*time.Second)

	v.SetDefault("backend.kind", backendPostgREST)
	v.SetDefault("backend.url", "")
	v.SetDefault("backend.service-key", "")
	v.SetDefault("backend.service-key-file", "")
	v.SetDefault("backend.timeout", 10*time.Second)
	v.SetDefault("backend.page-size", 100)

	v.SetDefault("auth.jwt-secret", "")
	v.SetDefault("auth.jwt-secret-file", "")

	v.SetDefault("matching.exclude-full", false)
	v.SetDefault("matching.skill-mode", string(filtering.SkillModeStrict))

	v.SetDefault("applications.duplicate-policy", string(applications.AllowDuplicates))

	v.SetDefault("turnstile.secret-key", "")
	v.SetDefault("turnstile.secret-key-file", "")
	v.SetDefault("turnstile.endpoint", "")
	v.SetDefault("turnstile.timeout", 10*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max-conns", 10)
	v.SetDefault("database.conn-max-lifetime", time.Hour)
}

var envKeyReplacer = strings.NewReplacer("-", "_", ".", "_")

func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	// SAMKRAFT_* keeps precedence over the deployment variables.
	for key, env := range envBindings {
		prefixed := envPrefix + "_" + strings.ToUpper(envKeyReplacer.Replace(key))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return fmt.Errorf("binding %s environment variable: %w", env, err)
		}
	}
	return nil
}

func loadConfig(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	switch c.Backend.Kind {
	case backendPostgREST, backendMemory:
	default:
		return fmt.Errorf("unknown backend kind %q", c.Backend.Kind)
	}
	if _, err := filtering.ParseSkillMode(c.Matching.SkillMode); err != nil {
		return fmt.Errorf("matching.skill-mode: %w", err)
	}
	if _, err := applications.ParseDuplicatePolicy(c.Applications.DuplicatePolicy); err != nil {
		return fmt.Errorf("applications.duplicate-policy: %w", err)
	}
	return nil
}

func (c *Config) serviceKey() (string, error) {
	return secrets.Load(secrets.Source{
		Name:  "backend service key",
		Value: c.Backend.ServiceKey,
		File:  c.Backend.ServiceKeyFile,
		Hint:  "set SUPABASE_SERVICE_KEY_FILE or backend.service-key-file",
	})
}

func (c *Config) jwtSecret() (string, error) {
	return secrets.LoadOptional(secrets.Source{
		Name:  "jwt secret",
		Value: c.Auth.JWTSecret,
		File:  c.Auth.JWTSecretFile,
	})
}

func (c *Config) turnstileSecret() (string, error) {
	return secrets.LoadOptional(secrets.Source{
		Name:  "turnstile secret key",
		Value: c.Turnstile.SecretKey,
		File:  c.Turnstile.SecretKeyFile,
	})
}
