// Package server wires the admin panel together: it picks the blob backend,
// builds the record service, notifier and session gate, and runs the web
// server until a shutdown signal arrives.
package server

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/clientadmin/internal/logging"
	"github.com/dmitrijs2005/clientadmin/internal/server/blobstore"
	"github.com/dmitrijs2005/clientadmin/internal/server/config"
	"github.com/dmitrijs2005/clientadmin/internal/server/notify"
	"github.com/dmitrijs2005/clientadmin/internal/server/records"
	"github.com/dmitrijs2005/clientadmin/internal/server/session"
	"github.com/dmitrijs2005/clientadmin/internal/server/web"
)

type App struct {
	config *config.Config
	logger logging.Logger
	store  blobstore.Store
	web    *web.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	store, err := openStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	doc := blobstore.NewDocument(store, c.S3Bucket, c.S3Key, blobstore.DocumentOptions{
		Timeout:  c.RequestTimeout,
		Attempts: c.RetryAttempts,
		Backoff:  c.RetryBackoff,
	}, logger)

	notifier := notify.NewTelegramNotifier(notify.TelegramOptions{
		Token:   c.TelegramBotToken,
		ChatID:  c.TelegramChatID,
		BaseURL: c.TelegramBaseURL,
		Timeout: c.RequestTimeout,
	}, logger)

	secret := []byte(c.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("session secret: %w", err)
		}
		logger.Warn(ctx, "SESSION_SECRET not set, sessions will not survive a restart")
	}

	rs := records.NewService(doc, notifier, logger)
	ws := web.NewServer(web.Options{Address: c.EndpointAddrHTTP}, rs,
		session.NewGate(c.AppPassword), session.NewCodec(secret), logger)

	return &App{config: c, logger: logger, store: store, web: ws}, nil
}

func openStore(ctx context.Context, c *config.Config) (blobstore.Store, error) {
	switch c.StorageBackend {
	case config.BackendS3:
		return blobstore.NewS3Store(ctx, blobstore.S3Options{
			Region:          c.S3Region,
			AccessKeyID:     c.S3AccessKeyID,
			SecretAccessKey: c.S3SecretAccessKey,
			BaseEndpoint:    c.S3BaseEndpoint,
		})
	case config.BackendSQLite:
		return blobstore.OpenSQLStore(ctx, blobstore.SQLite, c.DatabaseDSN)
	case config.BackendPostgres:
		return blobstore.OpenSQLStore(ctx, blobstore.Postgres, c.DatabaseDSN)
	case config.BackendMemory:
		return blobstore.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startWebServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.web.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives or the web server
// fails, then releases the storage backend.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "backend", app.config.StorageBackend)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startWebServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if closer, ok := app.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			app.logger.Error(ctx, "storage close", "error", err)
		}
	}

	app.logger.Info(ctx, "App stopped")
}
