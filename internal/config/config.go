package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Auth types.
const (
	AuthAPIKey = "apiKey"
	AuthHMAC   = "hmac"
)

// Account types.
const (
	AccountSES       = "ses"
	AccountZeptomail = "zeptomail"
	AccountSMTP      = "smtp"
	AccountGmail     = "gmail"
)

// Default auth header names per auth type.
const (
	DefaultAPIKeyHeader    = "x-mailer-api-key"
	DefaultSignatureHeader = "x-mailer-signature"
)

// DefaultMaxBodySize is the request body limit when none is configured.
const DefaultMaxBodySize = 1 << 20 // 1MiB

// Config holds all configuration for the gateway, loaded once at
// startup and immutable thereafter.
type Config struct {
	Server            ServerConfig            `mapstructure:"server"`
	Log               LogConfig               `mapstructure:"log"`
	Auth              AuthConfig              `mapstructure:"auth"`
	Accounts          map[string]Account      `mapstructure:"accounts"`
	Defaults          DefaultsConfig          `mapstructure:"defaults"`
	RateLimit         RateLimitConfig         `mapstructure:"rateLimit"`
	IPAllowlist       IPAllowlistConfig       `mapstructure:"ipAllowlist"`
	RequestValidation RequestValidationConfig `mapstructure:"requestValidation"`
	Templates         TemplatesConfig         `mapstructure:"templates"`
	MJML              MJMLConfig              `mapstructure:"mjml"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AuthConfig is a tagged variant: "apiKey" (Header + Value) or "hmac"
// (Header + Secret + Tolerance).
type AuthConfig struct {
	Type      string        `mapstructure:"type"`
	Header    string        `mapstructure:"header"`
	Value     string        `mapstructure:"value"`
	Secret    string        `mapstructure:"secret"`
	Tolerance time.Duration `mapstructure:"tolerance"`
}

// HeaderName returns the configured auth header, or the default for
// the auth type.
func (a AuthConfig) HeaderName() string {
	if a.Header != "" {
		return a.Header
	}
	if a.Type == AuthHMAC {
		return DefaultSignatureHeader
	}
	return DefaultAPIKeyHeader
}

// Account is a tagged provider variant. Type selects which credential
// fields apply; default send fields (From) are shared by all types.
type Account struct {
	Type string `mapstructure:"type"`
	From string `mapstructure:"from"`

	// ses
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"accessKeyId"`
	SecretAccessKey string `mapstructure:"secretAccessKey"`

	// zeptomail
	APIKey        string `mapstructure:"apiKey"`
	BounceAddress string `mapstructure:"bounceAddress"`

	// smtp
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	// gmail
	CredentialsJSON string `mapstructure:"credentialsJson"`
	ClientID        string `mapstructure:"clientId"`
	ClientSecret    string `mapstructure:"clientSecret"`
	RefreshToken    string `mapstructure:"refreshToken"`
	SenderName      string `mapstructure:"senderName"`
}

// Validate checks that the credentials required by the account's type
// are present.
func (a Account) Validate() error {
	switch a.Type {
	case AccountSES:
		if a.Region == "" {
			return fmt.Errorf("ses account is missing required field: region")
		}
		if a.AccessKeyID == "" {
			return fmt.Errorf("ses account is missing required field: accessKeyId")
		}
		if a.SecretAccessKey == "" {
			return fmt.Errorf("ses account is missing required field: secretAccessKey")
		}
	case AccountZeptomail:
		if strings.TrimSpace(a.APIKey) == "" {
			return fmt.Errorf("zeptomail account is missing required field: apiKey")
		}
	case AccountSMTP:
		if a.Host == "" {
			return fmt.Errorf("smtp account is missing required field: host")
		}
		if a.Port == 0 {
			return fmt.Errorf("smtp account is missing required field: port")
		}
	case AccountGmail:
		if a.CredentialsJSON == "" && a.RefreshToken == "" {
			return fmt.Errorf("gmail account needs credentialsJson or clientId/clientSecret/refreshToken")
		}
		if a.From == "" {
			return fmt.Errorf("gmail account is missing required field: from")
		}
	case "":
		return fmt.Errorf("account is missing required field: type")
	default:
		return fmt.Errorf("unknown account type: %q", a.Type)
	}
	return nil
}

// DefaultsConfig holds fallback account and renderer ids
type DefaultsConfig struct {
	Account  string `mapstructure:"account"`
	Renderer string `mapstructure:"renderer"`
}

// RateLimitConfig holds the optional per-IP sliding window limits.
// Either window (or both) may be left unset.
type RateLimitConfig struct {
	Enabled            bool `mapstructure:"enabled"`
	WindowMinutes      int  `mapstructure:"windowMinutes"`
	MaxRequests        int  `mapstructure:"maxRequests"`
	WindowHours        int  `mapstructure:"windowHours"`
	MaxRequestsPerHour int  `mapstructure:"maxRequestsPerHour"`
}

// IPAllowlistConfig holds the optional allow-list of IPs/CIDR blocks
type IPAllowlistConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	AllowedIPs []string `mapstructure:"allowedIps"`
}

// RequestValidationConfig holds body validation policy
type RequestValidationConfig struct {
	MaxBodySize int64 `mapstructure:"maxBodySize"`
}

// BodyLimit returns the effective maximum body size.
func (c RequestValidationConfig) BodyLimit() int64 {
	if c.MaxBodySize > 0 {
		return c.MaxBodySize
	}
	return DefaultMaxBodySize
}

// TemplatesConfig points at the template directory
type TemplatesConfig struct {
	Dir string `mapstructure:"dir"`
}

// MJMLConfig holds the MJML render API endpoint and credentials, used
// by the mjml renderer.
type MJMLConfig struct {
	Endpoint      string `mapstructure:"endpoint"`
	ApplicationID string `mapstructure:"applicationId"`
	SecretKey     string `mapstructure:"secretKey"`
}

// Load reads configuration from the YAML file at path, substituting
// ${VAR} / ${VAR:-default} placeholders before parsing, then applies
// MAILER_-prefixed environment overrides.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded, err := ExpandEnv(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config file: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadConfig(bytes.NewReader(expanded)); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	v.SetEnvPrefix("MAILER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Auth.Type {
	case AuthAPIKey:
		if c.Auth.Value == "" {
			return fmt.Errorf("auth.value is required for apiKey auth")
		}
	case AuthHMAC:
		if c.Auth.Secret == "" {
			return fmt.Errorf("auth.secret is required for hmac auth")
		}
	case "":
		return fmt.Errorf("config is missing required field: auth.type")
	default:
		return fmt.Errorf(`auth.type must be "apiKey" or "hmac", got: %q`, c.Auth.Type)
	}

	if len(c.Accounts) == 0 {
		return fmt.Errorf("config must have at least one account in accounts")
	}
	for id, account := range c.Accounts {
		if err := account.Validate(); err != nil {
			return fmt.Errorf("account %q: %w", id, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("auth.tolerance", "5m")

	v.SetDefault("rateLimit.enabled", false)
	v.SetDefault("ipAllowlist.enabled", false)
	v.SetDefault("requestValidation.maxBodySize", DefaultMaxBodySize)

	v.SetDefault("templates.dir", "/templates")

	v.SetDefault("mjml.endpoint", "https://api.mjml.io/v1/render")
}
