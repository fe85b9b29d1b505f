// Package config handles loading and validation of service configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	"sellercloud-proxy/internal/sellercloud"
	"sellercloud-proxy/internal/transport"
)

const (
	defaultPort            = "8080"
	defaultSecretName      = "sellercloud-credentials"
	defaultUpstreamTimeout = 30 * time.Second
	defaultRateLimit       = 600
)

// Config holds all service configuration.
// Environment determines whether credentials load from env vars (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string
	SecretName string

	// HTTP surface
	AllowedOrigins     []string
	RateLimitPerMinute int // 0 disables rate limiting

	// Upstream transport
	UpstreamTimeout time.Duration
	TLSFingerprint  transport.Fingerprint

	// Sellercloud account (loaded from secrets in production)
	Sellercloud SellercloudConfig
}

// SellercloudConfig contains the upstream endpoints and service-account credentials.
// In production, this is loaded from Secret Manager as JSON.
// In development, loaded from individual env vars or CONFIG_FILE.
type SellercloudConfig struct {
	APIURL   string `json:"api_url,omitempty"`
	SOAPURL  string `json:"soap_url,omitempty"`
	Username string `json:"username"`
	Password string `json:"password"`
	ClientID string `json:"client_id,omitempty"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	// If CONFIG_FILE is set, load everything from the JSON file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:           envOrDefault("PORT", defaultPort),
		Environment:    envOrDefault("ENVIRONMENT", "development"),
		LogLevel:       envOrDefault("LOG_LEVEL", "info"),
		GCPProject:     os.Getenv("GCP_PROJECT"),
		SecretName:     envOrDefault("SECRET_NAME", defaultSecretName),
		AllowedOrigins: splitList(envOrDefault("ALLOWED_ORIGINS", "*")),
	}

	var err error
	if cfg.UpstreamTimeout, err = parseDuration("UPSTREAM_TIMEOUT", os.Getenv("UPSTREAM_TIMEOUT"), defaultUpstreamTimeout); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = parseInt("RATE_LIMIT_PER_MINUTE", os.Getenv("RATE_LIMIT_PER_MINUTE"), defaultRateLimit); err != nil {
		return nil, err
	}
	if cfg.TLSFingerprint, err = transport.ParseFingerprint(os.Getenv("TLS_FINGERPRINT")); err != nil {
		return nil, err
	}

	// Load credentials based on environment
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading sellercloud config: %w", err)
	}

	// Endpoint overrides apply in every environment.
	if v := os.Getenv("SC_API_URL"); v != "" {
		cfg.Sellercloud.APIURL = v
	}
	if v := os.Getenv("SC_SOAP_URL"); v != "" {
		cfg.Sellercloud.SOAPURL = v
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Use a struct that matches the JSON structure
	var fileConfig struct {
		Port               string            `json:"port"`
		Environment        string            `json:"environment"`
		LogLevel           string            `json:"log_level"`
		AllowedOrigins     []string          `json:"allowed_origins"`
		RateLimitPerMinute *int              `json:"rate_limit_per_minute"`
		UpstreamTimeout    string            `json:"upstream_timeout"`
		TLSFingerprint     string            `json:"tls_fingerprint"`
		Sellercloud        SellercloudConfig `json:"sellercloud"`
	}

	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:               withDefault(fileConfig.Port, defaultPort),
		Environment:        withDefault(fileConfig.Environment, "development"),
		LogLevel:           withDefault(fileConfig.LogLevel, "info"),
		AllowedOrigins:     fileConfig.AllowedOrigins,
		RateLimitPerMinute: defaultRateLimit,
		Sellercloud:        fileConfig.Sellercloud,
	}
	if fileConfig.RateLimitPerMinute != nil {
		cfg.RateLimitPerMinute = *fileConfig.RateLimitPerMinute
	}
	if cfg.UpstreamTimeout, err = parseDuration("upstream_timeout", fileConfig.UpstreamTimeout, defaultUpstreamTimeout); err != nil {
		return nil, err
	}
	if cfg.TLSFingerprint, err = transport.ParseFingerprint(fileConfig.TLSFingerprint); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromSecretManager fetches the Sellercloud account from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{secret_name}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.SecretName)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Sellercloud); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}

	return nil
}

// loadFromEnv reads the Sellercloud account from individual environment variables.
// Used in development mode for local testing.
func (c *Config) loadFromEnv() {
	c.Sellercloud = SellercloudConfig{
		Username: os.Getenv("SC_USERNAME"),
		Password: os.Getenv("SC_PASSWORD"),
		ClientID: os.Getenv("SC_CLIENT_ID"),
	}
}

func (c *Config) applyDefaults() {
	c.Sellercloud.APIURL = withDefault(c.Sellercloud.APIURL, sellercloud.DefaultAPIURL)
	c.Sellercloud.SOAPURL = withDefault(c.Sellercloud.SOAPURL, sellercloud.DefaultSOAPURL)
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.Sellercloud.Username == "" {
		return fmt.Errorf("sellercloud username is required")
	}
	if c.Sellercloud.Password == "" {
		return fmt.Errorf("sellercloud password is required")
	}
	if err := validateURL("api_url", c.Sellercloud.APIURL); err != nil {
		return err
	}
	if err := validateURL("soap_url", c.Sellercloud.SOAPURL); err != nil {
		return err
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive")
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	return nil
}

// validateURL requires an absolute http(s) URL.
func validateURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s: %q is not an absolute http(s) URL", name, raw)
	}
	return nil
}

func parseDuration(name, raw string, defaultVal time.Duration) (time.Duration, error) {
	if raw == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return d, nil
}

func parseInt(name, raw string, defaultVal int) (int, error) {
	if raw == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return n, nil
}

// splitList parses a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
