package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/clientadmin/internal/common"
	"github.com/joho/godotenv"
)

type lookupFunc func(key string) (string, bool)

// envLookup resolves a variable from the process environment first and from
// the dotenv file second. A missing dotenv file is not an error.
func envLookup(dotenvPath string) (lookupFunc, error) {
	fileVars, err := godotenv.Read(dotenvPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: read %s: %v", common.ErrConfig, dotenvPath, err)
		}
		fileVars = map[string]string{}
	}

	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}, nil
}

// parseEnv overlays environment variables onto config. Empty values are
// ignored.
func parseEnv(config *Config, lookup lookupFunc) error {
	strs := map[string]*string{
		"HTTP_ADDR":             &config.EndpointAddrHTTP,
		"STORAGE_BACKEND":       &config.StorageBackend,
		"DATABASE_DSN":          &config.DatabaseDSN,
		"REGION":                &config.S3Region,
		"BUCKET":                &config.S3Bucket,
		"KEY":                   &config.S3Key,
		"AWS_ACCESS_KEY_ID":     &config.S3AccessKeyID,
		"AWS_SECRET_ACCESS_KEY": &config.S3SecretAccessKey,
		"S3_BASE_ENDPOINT":      &config.S3BaseEndpoint,
		"APP_PASSWORD":          &config.AppPassword,
		"TELEGRAM_BOT_TOKEN":    &config.TelegramBotToken,
		"TELEGRAM_CHAT_ID":      &config.TelegramChatID,
		"TELEGRAM_BASE_URL":     &config.TelegramBaseURL,
		"SESSION_SECRET":        &config.SessionSecret,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"REQUEST_TIMEOUT": &config.RequestTimeout,
		"RETRY_BACKOFF":   &config.RetryBackoff,
	}
	for name, dst := range durations {
		v, ok := lookup(name)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", common.ErrConfig, name, err)
		}
		*dst = d
	}

	if v, ok := lookup("RETRY_ATTEMPTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: RETRY_ATTEMPTS: %v", common.ErrConfig, err)
		}
		config.RetryAttempts = n
	}

	return nil
}
