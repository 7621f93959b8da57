// Package config loads the runtime configuration from defaults, an optional
// config file, a .env file and MYWEIGHT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment variable, e.g. MYWEIGHT_PROVIDER_ACCESS_TOKEN.
const EnvPrefix = "MYWEIGHT"

// DotEnvFile is read from the working directory when present.
const DotEnvFile = ".env"

// Transports accepted by server.transport.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
	TransportHTTP  = "http"
)

const redacted = "********"

// Config is the complete runtime configuration.
type Config struct {
	Provider ProviderConfig `mapstructure:"provider" yaml:"provider"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Auth     AuthConfig     `mapstructure:"auth" yaml:"auth"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// ProviderConfig holds the Health Planet endpoint and credentials.
type ProviderConfig struct {
	BaseURL      string        `mapstructure:"base_url" yaml:"base_url"`
	AccessToken  string        `mapstructure:"access_token" yaml:"access_token"`
	RefreshToken string        `mapstructure:"refresh_token" yaml:"refresh_token"`
	ClientID     string        `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string        `mapstructure:"client_secret" yaml:"client_secret"`
	RedirectURL  string        `mapstructure:"redirect_url" yaml:"redirect_url"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ServerConfig selects the MCP transport and its listener.
type ServerConfig struct {
	Transport   string   `mapstructure:"transport" yaml:"transport"`
	Addr        string   `mapstructure:"addr" yaml:"addr"`
	BaseURL     string   `mapstructure:"base_url" yaml:"base_url"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// AuthConfig selects the bearer verifiers guarding the HTTP transports.
// Leaving everything empty disables inbound authentication.
type AuthConfig struct {
	OIDCIssuer   string   `mapstructure:"oidc_issuer" yaml:"oidc_issuer"`
	OIDCAudience string   `mapstructure:"oidc_audience" yaml:"oidc_audience"`
	JWTSecret    string   `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer    string   `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	APIKeyHashes []string `mapstructure:"api_key_hashes" yaml:"api_key_hashes"`
}

// LogConfig sets the zap level and encoder.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

var defaults = map[string]any{
	"provider.base_url":      "https://www.healthplanet.jp",
	"provider.access_token":  "",
	"provider.refresh_token": "",
	"provider.client_id":     "",
	"provider.client_secret": "",
	"provider.redirect_url":  "https://www.healthplanet.jp/success.html",
	"provider.timeout":       30 * time.Second,
	"server.transport":       TransportStdio,
	"server.addr":            ":8080",
	"server.base_url":        "http://localhost:8080",
	"server.cors_origins":    []string{"*"},
	"auth.oidc_issuer":       "",
	"auth.oidc_audience":     "",
	"auth.jwt_secret":        "",
	"auth.jwt_issuer":        "",
	"auth.api_key_hashes":    []string{},
	"log.level":              "info",
	"log.format":             "json",
}

// Load builds the configuration. path names an optional config file;
// flags maps config keys to command-line flags that override everything
// else when set.
func Load(path string, flags map[string]*pflag.Flag) (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", DotEnvFile, err)
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, f := range flags {
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", f.Name, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOrigins)
	cfg.Auth.APIKeyHashes = splitList(cfg.Auth.APIKeyHashes)
	return &cfg, nil
}

// splitList trims entries and drops empty ones, so "a, b" from the
// environment and [] from a file both come out clean.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// HasProviderCredential reports whether a static token or a refreshable
// grant is configured.
func (c *Config) HasProviderCredential() bool {
	p := c.Provider
	return p.AccessToken != "" || (p.RefreshToken != "" && p.ClientID != "" && p.ClientSecret != "")
}

// AuthEnabled reports whether any inbound verifier is configured.
func (c *Config) AuthEnabled() bool {
	a := c.Auth
	return a.OIDCIssuer != "" || a.JWTSecret != "" || len(a.APIKeyHashes) > 0
}

// Validate checks the configuration needed to fetch and serve.
func (c *Config) Validate() error {
	var errs []error
	switch c.Server.Transport {
	case TransportStdio, TransportSSE, TransportHTTP:
	default:
		errs = append(errs, fmt.Errorf("server.transport: unknown transport %q (want stdio, sse or http)", c.Server.Transport))
	}
	if !c.HasProviderCredential() {
		errs = append(errs, errors.New("provider: set provider.access_token, or provider.refresh_token with client_id and client_secret"))
	}
	if c.Provider.BaseURL == "" {
		errs = append(errs, errors.New("provider.base_url: must not be empty"))
	}
	if c.Provider.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("provider.timeout: must be positive, got %s", c.Provider.Timeout))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q (want json or console)", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return redacted
	}
	c.Provider.AccessToken = mask(c.Provider.AccessToken)
	c.Provider.RefreshToken = mask(c.Provider.RefreshToken)
	c.Provider.ClientSecret = mask(c.Provider.ClientSecret)
	c.Auth.JWTSecret = mask(c.Auth.JWTSecret)
	hashes := make([]string, len(c.Auth.APIKeyHashes))
	for i := range hashes {
		hashes[i] = redacted
	}
	c.Auth.APIKeyHashes = hashes
	return c
}
