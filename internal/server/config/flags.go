package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/clientadmin/internal/common"
	"github.com/dmitrijs2005/clientadmin/internal/flagx"
)

// parseFlags overlays command-line flags onto config.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-s string   storage backend: s3, sqlite, postgres, memory
//	-d string   database DSN for the SQL backends
//	-g string   S3 region
//	-b string   S3 bucket
//	-k string   S3 object key of the user table
//	-u string   S3 access key id
//	-p string   S3 secret access key
//	-e string   S3 base endpoint (e.g. "http://127.0.0.1:9000/")
//	-w string   app password
//	-t string   Telegram bot token
//	-i string   Telegram chat id
//
// Unknown arguments (including -c/-config) are filtered out first so that
// other flag sets can share os.Args.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-s", "-d", "-g", "-b", "-k", "-u", "-p", "-e", "-w", "-t", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run the web UI")
	fs.StringVar(&config.StorageBackend, "s", config.StorageBackend, "storage backend")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Key, "k", config.S3Key, "S3 object key")
	fs.StringVar(&config.S3AccessKeyID, "u", config.S3AccessKeyID, "S3 access key id")
	fs.StringVar(&config.S3SecretAccessKey, "p", config.S3SecretAccessKey, "S3 secret access key")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.AppPassword, "w", config.AppPassword, "app password")
	fs.StringVar(&config.TelegramBotToken, "t", config.TelegramBotToken, "Telegram bot token")
	fs.StringVar(&config.TelegramChatID, "i", config.TelegramChatID, "Telegram chat id")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfig, err)
	}
	return nil
}
