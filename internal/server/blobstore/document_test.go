package blobstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/clientadmin/internal/common"
	"github.com/dmitrijs2005/clientadmin/internal/logging"
	"github.com/stretchr/testify/require"
)

// flakyStore fails the first `failures` calls with err, then delegates.
type flakyStore struct {
	Store
	failures int
	err      error
	calls    int
	block    bool
}

func (f *flakyStore) Get(ctx context.Context, bucket, key string) (*Object, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.calls <= f.failures {
		return nil, f.err
	}
	return f.Store.Get(ctx, bucket, key)
}

func (f *flakyStore) Put(ctx context.Context, bucket, key string, body []byte, ifMatch string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", f.err
	}
	return f.Store.Put(ctx, bucket, key, body, ifMatch)
}

func fastOpts() DocumentOptions {
	return DocumentOptions{Timeout: 200 * time.Millisecond, Attempts: 2, Backoff: time.Millisecond}
}

func TestDocument_RetriesTransientFailure(t *testing.T) {
	mem := NewMemoryStore()
	_, err := mem.Put(context.Background(), "clients", "users.json", []byte("[]"), "")
	require.NoError(t, err)

	flaky := &flakyStore{Store: mem, failures: 1, err: errors.New("503 slow down")}
	doc := NewDocument(flaky, "clients", "users.json", fastOpts(), logging.Discard())

	obj, err := doc.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "[]", string(obj.Body))
	require.Equal(t, 2, flaky.calls)
}

func TestDocument_GivesUpAfterAttempts(t *testing.T) {
	flaky := &flakyStore{Store: NewMemoryStore(), failures: 10, err: errors.New("boom")}
	doc := NewDocument(flaky, "clients", "users.json", fastOpts(), logging.Discard())

	_, err := doc.Put(context.Background(), []byte("[]"), "")
	require.EqualError(t, err, "boom")
	require.Equal(t, 2, flaky.calls)
}

func TestDocument_DoesNotRetryNotFoundOrConflict(t *testing.T) {
	for _, sentinel := range []error{common.ErrNotFound, common.ErrVersionConflict} {
		flaky := &flakyStore{Store: NewMemoryStore(), failures: 10, err: sentinel}
		doc := NewDocument(flaky, "clients", "users.json", fastOpts(), logging.Discard())

		_, err := doc.Get(context.Background())
		require.ErrorIs(t, err, sentinel)
		require.Equal(t, 1, flaky.calls)
	}
}

func TestDocument_AttemptTimeout(t *testing.T) {
	flaky := &flakyStore{Store: NewMemoryStore(), block: true}
	opts := DocumentOptions{Timeout: 20 * time.Millisecond, Attempts: 2, Backoff: time.Millisecond}
	doc := NewDocument(flaky, "clients", "users.json", opts, logging.Discard())

	start := time.Now()
	_, err := doc.Get(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 2, flaky.calls)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestDocument_Defaults(t *testing.T) {
	doc := NewDocument(NewMemoryStore(), "b", "k", DocumentOptions{}, logging.Discard())
	require.Equal(t, 10*time.Second, doc.opts.Timeout)
	require.Equal(t, 2, doc.opts.Attempts)
	require.Equal(t, time.Second, doc.opts.Backoff)
	require.Equal(t, "b/k", doc.Location())
}

// lostReplyStore applies the first Put but reports a transport error for it.
type lostReplyStore struct {
	Store
	lost int
	puts int
}

func (s *lostReplyStore) Put(ctx context.Context, bucket, key string, body []byte, ifMatch string) (string, error) {
	s.puts++
	rev, err := s.Store.Put(ctx, bucket, key, body, ifMatch)
	if err == nil && s.lost > 0 {
		s.lost--
		return "", errors.New("connection reset")
	}
	return rev, err
}

func TestDocument_ConditionalPutLandedBeforeRetry(t *testing.T) {
	mem := NewMemoryStore()
	rev, err := mem.Put(context.Background(), "b", "k", []byte("[1]"), "")
	require.NoError(t, err)

	store := &lostReplyStore{Store: mem, lost: 1}
	doc := NewDocument(store, "b", "k", fastOpts(), logging.Discard())

	next, err := doc.Put(context.Background(), []byte("[1,2]"), rev)
	require.NoError(t, err)
	require.Equal(t, 2, store.puts)

	obj, err := mem.Get(context.Background(), "b", "k")
	require.NoError(t, err)
	require.Equal(t, "[1,2]", string(obj.Body))
	require.Equal(t, obj.Revision, next)
}

func TestDocument_ConditionalPutRealConflictAfterRetry(t *testing.T) {
	mem := NewMemoryStore()
	rev, err := mem.Put(context.Background(), "b", "k", []byte("[1]"), "")
	require.NoError(t, err)

	flaky := &flakyStore{Store: mem, failures: 1, err: errors.New("connection reset")}
	doc := NewDocument(flaky, "b", "k", fastOpts(), logging.Discard())

	_, err = mem.Put(context.Background(), "b", "k", []byte("[9]"), "")
	require.NoError(t, err)

	_, err = doc.Put(context.Background(), []byte("[1,2]"), rev)
	require.ErrorIs(t, err, common.ErrVersionConflict)
}

func TestDocument_FirstAttemptConflictIsNotChecked(t *testing.T) {
	mem := NewMemoryStore()
	_, err := mem.Put(context.Background(), "b", "k", []byte("[1]"), "")
	require.NoError(t, err)

	doc := NewDocument(mem, "b", "k", fastOpts(), logging.Discard())

	_, err = doc.Put(context.Background(), []byte("[1]"), "stale")
	require.ErrorIs(t, err, common.ErrVersionConflict)
}
