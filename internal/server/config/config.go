// Package config handles configuration for the admin panel server: defaults,
// an optional .env file, the process environment, an optional JSON file and
// command-line flags, applied in that order, followed by validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/clientadmin/internal/common"
)

// Storage backends accepted by StorageBackend.
const (
	BackendS3       = "s3"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds runtime settings for the admin panel.
//
// Fields:
//   - EndpointAddrHTTP: bind address of the web UI.
//   - StorageBackend / DatabaseDSN: where the user table document lives.
//   - S3Region / S3Bucket / S3Key: location of the document. Bucket and key
//     are also used as the address inside the SQL and memory backends.
//   - S3AccessKeyID / S3SecretAccessKey / S3BaseEndpoint: S3 credentials and
//     an optional S3-compatible endpoint (MinIO).
//   - AppPassword: the shared secret of the password gate.
//   - TelegramBotToken / TelegramChatID / TelegramBaseURL: notification target.
//   - SessionSecret: HMAC key for session cookies; random per process if empty.
//   - RequestTimeout / RetryAttempts / RetryBackoff: blob I/O budget.
type Config struct {
	EndpointAddrHTTP  string
	StorageBackend    string
	DatabaseDSN       string
	S3Region          string
	S3Bucket          string
	S3Key             string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BaseEndpoint    string
	AppPassword       string
	TelegramBotToken  string
	TelegramChatID    string
	TelegramBaseURL   string
	SessionSecret     string
	RequestTimeout    time.Duration
	RetryAttempts     int
	RetryBackoff      time.Duration
}

// LoadDefaults populates the optional settings. Secrets and the document
// location have no defaults and must be supplied.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.StorageBackend = BackendS3
	c.TelegramBaseURL = "https://api.telegram.org"
	c.RequestTimeout = 10 * time.Second
	c.RetryAttempts = 2
	c.RetryBackoff = time.Second
}

// LoadConfig builds a Config from defaults, .env in the working directory,
// the environment, the JSON file named by -c/-config and the flags in args
// (usually os.Args[1:]). Any problem is reported as common.ErrConfig.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	lookup, err := envLookup(".env")
	if err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing required setting in one error.
func (c *Config) Validate() error {
	var missing []string
	require := func(value, name string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	require(c.S3Bucket, "BUCKET")
	require(c.S3Key, "KEY")
	require(c.AppPassword, "APP_PASSWORD")
	require(c.TelegramBotToken, "TELEGRAM_BOT_TOKEN")
	require(c.TelegramChatID, "TELEGRAM_CHAT_ID")

	switch c.StorageBackend {
	case BackendS3:
		require(c.S3Region, "REGION")
		require(c.S3AccessKeyID, "AWS_ACCESS_KEY_ID")
		require(c.S3SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	case BackendSQLite, BackendPostgres:
		require(c.DatabaseDSN, "DATABASE_DSN")
	case BackendMemory:
	default:
		return fmt.Errorf("%w: unknown storage backend %q", common.ErrConfig, c.StorageBackend)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required settings: %s", common.ErrConfig, strings.Join(missing, ", "))
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request timeout must be positive", common.ErrConfig)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("%w: retry attempts must be at least 1", common.ErrConfig)
	}
	return nil
}
