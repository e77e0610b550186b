package blobstore

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/clientadmin/internal/common"
	"github.com/dmitrijs2005/clientadmin/internal/logging"
	"github.com/sethvargo/go-retry"
)

// DocumentOptions bounds the I/O of a Document. Zero values take defaults:
// 10s per attempt, 2 attempts, 1s fixed backoff.
type DocumentOptions struct {
	Timeout  time.Duration
	Attempts int
	Backoff  time.Duration
}

// Document is a Store bound to one bucket/key, the single JSON document the
// admin panel edits. Each attempt gets its own timeout; transient failures
// are retried, not-found and version conflicts are not.
type Document struct {
	store  Store
	bucket string
	key    string
	opts   DocumentOptions
	logger logging.Logger
}

func NewDocument(store Store, bucket, key string, opts DocumentOptions, logger logging.Logger) *Document {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Attempts < 1 {
		opts.Attempts = 2
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}

	return &Document{
		store:  store,
		bucket: bucket,
		key:    key,
		opts:   opts,
		logger: logger.With("module", "blobstore", "bucket", bucket, "key", key),
	}
}

// Location returns "bucket/key".
func (d *Document) Location() string {
	return d.bucket + "/" + d.key
}

func (d *Document) Get(ctx context.Context) (*Object, error) {
	var obj *Object
	err := d.do(ctx, "get", func(ctx context.Context) error {
		var err error
		obj, err = d.store.Get(ctx, d.bucket, d.key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// Put writes body. A conditional put that is retried after an ambiguous
// failure may have landed on the first attempt; if the retry then conflicts
// and the stored body is the one just written, the write counts as done.
func (d *Document) Put(ctx context.Context, body []byte, ifMatch string) (string, error) {
	var revision string
	ambiguous := false

	err := d.do(ctx, "put", func(ctx context.Context) error {
		var err error
		revision, err = d.store.Put(ctx, d.bucket, d.key, body, ifMatch)

		if ambiguous && ifMatch != "" && errors.Is(err, common.ErrVersionConflict) {
			if rev, ok := d.landed(ctx, body); ok {
				revision = rev
				return nil
			}
		}
		if err != nil && !isFinal(err) {
			ambiguous = true
		}
		return err
	})
	if err != nil {
		return "", err
	}
	return revision, nil
}

// landed reports whether the stored document holds exactly body.
func (d *Document) landed(ctx context.Context, body []byte) (string, bool) {
	obj, err := d.store.Get(ctx, d.bucket, d.key)
	if err != nil || !bytes.Equal(obj.Body, body) {
		return "", false
	}

	d.logger.Info(ctx, "earlier put attempt had landed", "revision", obj.Revision)
	return obj.Revision, true
}

func isFinal(err error) bool {
	return errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrVersionConflict)
}

func (d *Document) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(uint64(d.opts.Attempts-1), retry.NewConstant(d.opts.Backoff))

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++

		attemptCtx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()

		err := fn(attemptCtx)
		if err == nil {
			return nil
		}
		if isFinal(err) {
			return err
		}

		d.logger.Warn(ctx, "blob operation failed", "op", op, "attempt", attempt, "error", err)
		return retry.RetryableError(err)
	})
}
