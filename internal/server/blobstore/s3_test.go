package blobstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dmitrijs2005/clientadmin/internal/common"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves a single bucket/key with path-style addressing.
type fakeS3 struct {
	mu          sync.Mutex
	body        []byte
	etag        string
	lastIfMatch string
	lastCT      string
	puts        int
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path != "/clients/users.json" {
		writeS3Error(w, http.StatusNotFound, "NoSuchKey")
		return
	}

	switch r.Method {
	case http.MethodGet:
		if f.body == nil {
			writeS3Error(w, http.StatusNotFound, "NoSuchKey")
			return
		}
		w.Header().Set("ETag", f.etag)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(f.body)
	case http.MethodPut:
		f.lastIfMatch = r.Header.Get("If-Match")
		f.lastCT = r.Header.Get("Content-Type")
		if f.lastIfMatch != "" && f.lastIfMatch != f.etag {
			writeS3Error(w, http.StatusPreconditionFailed, "PreconditionFailed")
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.puts++
		f.body = body
		f.etag = `"etag-` + string(rune('0'+f.puts)) + `"`
		w.Header().Set("ETag", f.etag)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeS3Error(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>`+code+`</Code><Message>fake</Message><RequestId>1</RequestId></Error>`)
}

func newFakeS3Store(t *testing.T) (*S3Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{}
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)

	s, err := NewS3Store(context.Background(), S3Options{
		Region:          "us-east-1",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		BaseEndpoint:    ts.URL,
	})
	require.NoError(t, err)
	return s, fake
}

func TestS3Store_GetMissing(t *testing.T) {
	s, _ := newFakeS3Store(t)

	_, err := s.Get(context.Background(), "clients", "users.json")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestS3Store_PutThenGet(t *testing.T) {
	s, fake := newFakeS3Store(t)
	ctx := context.Background()

	etag, err := s.Put(ctx, "clients", "users.json", []byte(`[{"client_id":"A1"}]`), "")
	require.NoError(t, err)
	require.Equal(t, `"etag-1"`, etag)
	require.Equal(t, "application/json", fake.lastCT)
	require.Empty(t, fake.lastIfMatch)

	obj, err := s.Get(ctx, "clients", "users.json")
	require.NoError(t, err)
	require.Equal(t, `[{"client_id":"A1"}]`, string(obj.Body))
	require.Equal(t, `"etag-1"`, obj.Revision)
}

func TestS3Store_ConditionalPut(t *testing.T) {
	s, fake := newFakeS3Store(t)
	ctx := context.Background()

	etag, err := s.Put(ctx, "clients", "users.json", []byte(`[]`), "")
	require.NoError(t, err)

	_, err = s.Put(ctx, "clients", "users.json", []byte(`[1]`), etag)
	require.NoError(t, err)
	require.Equal(t, etag, fake.lastIfMatch)

	_, err = s.Put(ctx, "clients", "users.json", []byte(`[2]`), etag)
	require.ErrorIs(t, err, common.ErrVersionConflict)
	require.Equal(t, `[1]`, string(fake.body))
}
