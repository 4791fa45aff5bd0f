package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AuthConfig selects an optional bearer-token validator for the tool-call
// endpoints. An empty Provider disables authentication.
type AuthConfig struct {
	Provider string `yaml:"provider"` // "static" or "jwt"
	Token    string `yaml:"token"`    // static: expected bearer token
	Secret   string `yaml:"secret"`   // jwt: HS256 shared secret
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
}

// RateLimitBucketConfig shapes a token bucket; zero values disable it.
type RateLimitBucketConfig struct {
	RequestsPerMinute int `yaml:"requestsPerMinute"`
	BurstSize         int `yaml:"burstSize"`
}

type RateLimitConfig struct {
	Tools RateLimitBucketConfig `yaml:"tools"`
}

type Config struct {
	Port      int    `yaml:"port"`
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`
	Env       string `yaml:"env"`

	// Scan execution surface.
	MaxFileSize    int64  `yaml:"maxFileSize"`
	TempDir        string `yaml:"tempDir"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	ScannerPath    string `yaml:"scannerPath"`

	// Remote job queue client.
	QueueEnabled        bool   `yaml:"queueEnabled"`
	QueueURL            string `yaml:"queueUrl"`
	QueueTimeoutSeconds int    `yaml:"queueTimeoutSeconds"`
	QueueToken          string `yaml:"queueToken"`

	// Optional infrastructure; empty RedisAddr disables rate limiting.
	RedisAddr     string          `yaml:"redisAddr"`
	RedisPassword string          `yaml:"redisPassword"`
	RateLimit     RateLimitConfig `yaml:"rateLimit"`

	Auth AuthConfig `yaml:"auth"`

	TracingEnabled bool    `yaml:"tracingEnabled"`
	OTLPEndpoint   string  `yaml:"otlpEndpoint"`
	OTLPInsecure   bool    `yaml:"otlpInsecure"`
	SampleRatio    float64 `yaml:"sampleRatio"`
}

// LoadConfig reads an optional YAML file, applies SCANQ_* environment
// overrides, and backfills the documented defaults. An empty path means
// env-and-defaults only.
func LoadConfig(filePath string) (*Config, error) {
	var c Config
	c.QueueEnabled = true

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("SCANQ_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("SCANQ_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("SCANQ_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("SCANQ_ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("SCANQ_MAX_FILE_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.MaxFileSize = n
		}
	}
	if v := os.Getenv("SCANQ_TEMP_DIR"); v != "" {
		c.TempDir = v
	}
	if v := os.Getenv("SCANQ_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("SCANQ_SCANNER_PATH"); v != "" {
		c.ScannerPath = v
	}
	if v := os.Getenv("SCANQ_QUEUE_ENABLED"); v != "" {
		c.QueueEnabled = parseBool(v)
	}
	if v := os.Getenv("SCANQ_QUEUE_URL"); v != "" {
		c.QueueURL = v
	}
	if v := os.Getenv("SCANQ_QUEUE_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.QueueTimeoutSeconds = n
		}
	}
	if v := os.Getenv("SCANQ_QUEUE_TOKEN"); v != "" {
		c.QueueToken = v
	}
	if v := os.Getenv("SCANQ_REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("SCANQ_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("SCANQ_AUTH_PROVIDER"); v != "" {
		c.Auth.Provider = v
	}
	if v := os.Getenv("SCANQ_AUTH_TOKEN"); v != "" {
		c.Auth.Token = v
	}
	if v := os.Getenv("SCANQ_AUTH_SECRET"); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv("SCANQ_TRACING_ENABLED"); v != "" {
		c.TracingEnabled = parseBool(v)
	}
	if v := os.Getenv("SCANQ_OTLP_ENDPOINT"); v != "" {
		c.OTLPEndpoint = v
	}

	if c.Port == 0 {
		c.Port = 8080
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100_000_000
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 1800
	}
	if c.ScannerPath == "" {
		c.ScannerPath = "interproscan.sh"
	}
	if c.QueueURL == "" {
		c.QueueURL = "http://localhost:8000"
	}
	if c.QueueTimeoutSeconds <= 0 {
		c.QueueTimeoutSeconds = 30
	}

	return &c, nil
}

func (c *Config) Validate() error {
	var errs []string

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, "port must be between 0 and 65535")
	}
	if c.MaxFileSize <= 0 {
		errs = append(errs, "maxFileSize must be positive")
	}
	if c.TimeoutSeconds <= 0 {
		errs = append(errs, "timeoutSeconds must be positive")
	}
	if strings.TrimSpace(c.ScannerPath) == "" {
		errs = append(errs, "scannerPath is required")
	}
	if c.QueueEnabled {
		u, err := url.Parse(c.QueueURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, "queueUrl must be a valid http(s) URL")
		}
	}
	switch c.Auth.Provider {
	case "", "static", "jwt":
	default:
		errs = append(errs, fmt.Sprintf("unknown auth provider: %s", c.Auth.Provider))
	}
	if c.Auth.Provider == "static" && strings.TrimSpace(c.Auth.Token) == "" {
		errs = append(errs, "auth.token is required for the static provider")
	}
	if c.Auth.Provider == "jwt" && strings.TrimSpace(c.Auth.Secret) == "" {
		errs = append(errs, "auth.secret is required for the jwt provider")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func parseBool(v string) bool {
	v = strings.TrimSpace(strings.ToLower(v))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
