package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.MaxFileSize != 100_000_000 {
		t.Errorf("MaxFileSize = %d, want 100000000", cfg.MaxFileSize)
	}
	if cfg.TimeoutSeconds != 1800 {
		t.Errorf("TimeoutSeconds = %d, want 1800", cfg.TimeoutSeconds)
	}
	if cfg.ScannerPath != "interproscan.sh" {
		t.Errorf("ScannerPath = %q", cfg.ScannerPath)
	}
	if !cfg.QueueEnabled {
		t.Error("QueueEnabled should default to true")
	}
	if cfg.QueueURL != "http://localhost:8000" {
		t.Errorf("QueueURL = %q", cfg.QueueURL)
	}
	if cfg.QueueTimeoutSeconds != 30 {
		t.Errorf("QueueTimeoutSeconds = %d, want 30", cfg.QueueTimeoutSeconds)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
		t.Errorf("log defaults = %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SCANQ_PORT", "9090")
	t.Setenv("SCANQ_MAX_FILE_SIZE", "1234")
	t.Setenv("SCANQ_TIMEOUT", "60")
	t.Setenv("SCANQ_SCANNER_PATH", "/opt/interproscan/interproscan.sh")
	t.Setenv("SCANQ_QUEUE_ENABLED", "false")
	t.Setenv("SCANQ_QUEUE_URL", "http://queue.internal:8000")
	t.Setenv("SCANQ_AUTH_PROVIDER", "static")
	t.Setenv("SCANQ_AUTH_TOKEN", "sekrit")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.MaxFileSize != 1234 {
		t.Errorf("MaxFileSize = %d, want 1234", cfg.MaxFileSize)
	}
	if cfg.TimeoutSeconds != 60 {
		t.Errorf("TimeoutSeconds = %d, want 60", cfg.TimeoutSeconds)
	}
	if cfg.ScannerPath != "/opt/interproscan/interproscan.sh" {
		t.Errorf("ScannerPath = %q", cfg.ScannerPath)
	}
	if cfg.QueueEnabled {
		t.Error("QueueEnabled should be false")
	}
	if cfg.QueueURL != "http://queue.internal:8000" {
		t.Errorf("QueueURL = %q", cfg.QueueURL)
	}
	if cfg.Auth.Provider != "static" || cfg.Auth.Token != "sekrit" {
		t.Errorf("Auth = %+v", cfg.Auth)
	}
}

func TestLoadConfigYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
port: 7000
logLevel: debug
maxFileSize: 5000
scannerPath: /usr/local/bin/interproscan.sh
queueUrl: http://q:8000
rateLimit:
  tools:
    requestsPerMinute: 30
    burstSize: 10
auth:
  provider: jwt
  secret: topsecret
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != 7000 || cfg.LogLevel != "debug" || cfg.MaxFileSize != 5000 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.RateLimit.Tools.RequestsPerMinute != 30 || cfg.RateLimit.Tools.BurstSize != 10 {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.Auth.Provider != "jwt" || cfg.Auth.Secret != "topsecret" {
		t.Errorf("Auth = %+v", cfg.Auth)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, _ := LoadConfig("")
		return cfg
	}

	cfg := base()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate, got %v", err)
	}

	cfg = base()
	cfg.Port = 99999
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "port") {
		t.Errorf("want port error, got %v", err)
	}

	cfg = base()
	cfg.QueueURL = "not a url"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "queueUrl") {
		t.Errorf("want queueUrl error, got %v", err)
	}

	// Disabled queue skips URL validation.
	cfg = base()
	cfg.QueueEnabled = false
	cfg.QueueURL = "not a url"
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled queue should not validate URL: %v", err)
	}

	cfg = base()
	cfg.Auth.Provider = "static"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "auth.token") {
		t.Errorf("want auth.token error, got %v", err)
	}

	cfg = base()
	cfg.Auth.Provider = "jwt"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "auth.secret") {
		t.Errorf("want auth.secret error, got %v", err)
	}

	cfg = base()
	cfg.Auth.Provider = "oauth2"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "unknown auth provider") {
		t.Errorf("want provider error, got %v", err)
	}
}
