package config

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultServerAddr        = "localhost:8000"
	defaultActivationTimeout = 90 * time.Second
	defaultTokenTTL          = time.Hour
	defaultLoginRateLimit    = 5
	defaultLoginRateWindow   = time.Minute
)

type Config struct {
	ServerAddr        string
	DatabaseDSN       string
	SigningSecret     string
	SigningKey        []byte
	AllowedOrigins    []string
	AgentURL          string
	RedisAddr         string
	ActivationTimeout time.Duration
	TokenTTL          time.Duration
	LoginRateLimit    int
	LoginRateWindow   time.Duration
}

// Flags holds the command line values handed to NewConfig. Zero values
// mean the flag was not set and the config file or default applies.
type Flags struct {
	ConfigFile        string
	ServerAddr        string
	DatabaseDSN       string
	SigningSecret     string
	AllowedOrigins    []string
	AgentURL          string
	RedisAddr         string
	ActivationTimeout time.Duration
	TokenTTL          time.Duration
	LoginRateLimit    int
	LoginRateWindow   time.Duration
}

// fileConfig is the YAML schema of the optional config file. Durations
// are plain seconds so the file needs no custom parsing.
type fileConfig struct {
	ServerAddr               string   `yaml:"server_addr"`
	DatabaseDSN              string   `yaml:"database_dsn"`
	SigningSecret            string   `yaml:"signing_secret"`
	AllowedOrigins           []string `yaml:"allowed_origins"`
	AgentURL                 string   `yaml:"agent_url"`
	RedisAddr                string   `yaml:"redis_addr"`
	ActivationTimeoutSeconds int      `yaml:"activation_timeout_seconds"`
	TokenTTLSeconds          int      `yaml:"token_ttl_seconds"`
	LoginRateLimit           int      `yaml:"login_rate_limit"`
	LoginRateWindowSeconds   int      `yaml:"login_rate_window_seconds"`
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(base64Secret)
}

func loadFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &fc, nil
}

// NewConfig merges flag values over the optional config file, applies
// defaults and validates. Flags win over the file, the file wins over
// defaults.
func NewConfig(f Flags) (*Config, error) {
	cfg := &Config{}

	if f.ConfigFile != "" {
		fc, err := loadFile(f.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg.ServerAddr = fc.ServerAddr
		cfg.DatabaseDSN = fc.DatabaseDSN
		cfg.SigningSecret = fc.SigningSecret
		cfg.AllowedOrigins = fc.AllowedOrigins
		cfg.AgentURL = fc.AgentURL
		cfg.RedisAddr = fc.RedisAddr
		cfg.ActivationTimeout = time.Duration(fc.ActivationTimeoutSeconds) * time.Second
		cfg.TokenTTL = time.Duration(fc.TokenTTLSeconds) * time.Second
		cfg.LoginRateLimit = fc.LoginRateLimit
		cfg.LoginRateWindow = time.Duration(fc.LoginRateWindowSeconds) * time.Second
	}

	if f.ServerAddr != "" {
		cfg.ServerAddr = f.ServerAddr
	}
	if f.DatabaseDSN != "" {
		cfg.DatabaseDSN = f.DatabaseDSN
	}
	if f.SigningSecret != "" {
		cfg.SigningSecret = f.SigningSecret
	}
	if len(f.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = f.AllowedOrigins
	}
	if f.AgentURL != "" {
		cfg.AgentURL = f.AgentURL
	}
	if f.RedisAddr != "" {
		cfg.RedisAddr = f.RedisAddr
	}
	if f.ActivationTimeout > 0 {
		cfg.ActivationTimeout = f.ActivationTimeout
	}
	if f.TokenTTL > 0 {
		cfg.TokenTTL = f.TokenTTL
	}
	if f.LoginRateLimit > 0 {
		cfg.LoginRateLimit = f.LoginRateLimit
	}
	if f.LoginRateWindow > 0 {
		cfg.LoginRateWindow = f.LoginRateWindow
	}

	if cfg.ServerAddr == "" {
		cfg.ServerAddr = defaultServerAddr
	}
	if cfg.ActivationTimeout <= 0 {
		cfg.ActivationTimeout = defaultActivationTimeout
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.LoginRateLimit <= 0 {
		cfg.LoginRateLimit = defaultLoginRateLimit
	}
	if cfg.LoginRateWindow <= 0 {
		cfg.LoginRateWindow = defaultLoginRateWindow
	}

	if cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}
	if cfg.SigningSecret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}

	// Decode the base64 encoded signing secret
	signingKey, err := decodeSigningSecret(cfg.SigningSecret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}
	cfg.SigningKey = signingKey

	if cfg.AgentURL == "" {
		return nil, fmt.Errorf("agent URL cannot be empty")
	}
	u, err := url.Parse(cfg.AgentURL)
	if err != nil {
		return nil, fmt.Errorf("parse agent URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("agent URL scheme must be ws or wss, got %q", u.Scheme)
	}

	return cfg, nil
}
