package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/clientadmin/internal/common"
	"github.com/dmitrijs2005/clientadmin/internal/flagx"
	"github.com/dmitrijs2005/clientadmin/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file. Duration
// fields accept "1s" style strings or integer nanoseconds. Zero values leave
// the corresponding setting untouched.
type JsonConfig struct {
	EndpointAddrHTTP  string         `json:"endpoint_addr_http"`
	StorageBackend    string         `json:"storage_backend"`
	DatabaseDSN       string         `json:"database_dsn"`
	S3Region          string         `json:"s3_region"`
	S3Bucket          string         `json:"s3_bucket"`
	S3Key             string         `json:"s3_key"`
	S3AccessKeyID     string         `json:"s3_access_key_id"`
	S3SecretAccessKey string         `json:"s3_secret_access_key"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint"`
	AppPassword       string         `json:"app_password"`
	TelegramBotToken  string         `json:"telegram_bot_token"`
	TelegramChatID    string         `json:"telegram_chat_id"`
	TelegramBaseURL   string         `json:"telegram_base_url"`
	SessionSecret     string         `json:"session_secret"`
	RequestTimeout    timex.Duration `json:"request_timeout"`
	RetryAttempts     int            `json:"retry_attempts"`
	RetryBackoff      timex.Duration `json:"retry_backoff"`
}

// parseJSON loads the file named by -c/-config in args, if any, and overlays
// its non-zero values onto config.
func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigFilePath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfig, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("%w: %s: %v", common.ErrConfig, path, err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Key, c.S3Key)
	setString(&config.S3AccessKeyID, c.S3AccessKeyID)
	setString(&config.S3SecretAccessKey, c.S3SecretAccessKey)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.AppPassword, c.AppPassword)
	setString(&config.TelegramBotToken, c.TelegramBotToken)
	setString(&config.TelegramChatID, c.TelegramChatID)
	setString(&config.TelegramBaseURL, c.TelegramBaseURL)
	setString(&config.SessionSecret, c.SessionSecret)

	if c.RequestTimeout.Duration != 0 {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if c.RetryBackoff.Duration != 0 {
		config.RetryBackoff = c.RetryBackoff.Duration
	}
	if c.RetryAttempts != 0 {
		config.RetryAttempts = c.RetryAttempts
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
