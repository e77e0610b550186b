package blobstore

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/clientadmin/internal/common"
	"github.com/stretchr/testify/require"
)

// runStoreContract checks the behavior every backend must share.
func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing object", func(t *testing.T) {
		_, err := s.Get(ctx, "clients", "absent.json")
		require.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("put then get", func(t *testing.T) {
		rev1, err := s.Put(ctx, "clients", "users.json", []byte(`[]`), "")
		require.NoError(t, err)
		require.NotEmpty(t, rev1)

		obj, err := s.Get(ctx, "clients", "users.json")
		require.NoError(t, err)
		require.Equal(t, `[]`, string(obj.Body))
		require.Equal(t, rev1, obj.Revision)

		rev2, err := s.Put(ctx, "clients", "users.json", []byte(`[{"client_id":"A1"}]`), "")
		require.NoError(t, err)
		require.NotEqual(t, rev1, rev2)
	})

	t.Run("conditional put", func(t *testing.T) {
		rev, err := s.Put(ctx, "clients", "cond.json", []byte(`[]`), "")
		require.NoError(t, err)

		next, err := s.Put(ctx, "clients", "cond.json", []byte(`[1]`), rev)
		require.NoError(t, err)

		_, err = s.Put(ctx, "clients", "cond.json", []byte(`[2]`), rev)
		require.ErrorIs(t, err, common.ErrVersionConflict)

		obj, err := s.Get(ctx, "clients", "cond.json")
		require.NoError(t, err)
		require.Equal(t, `[1]`, string(obj.Body))
		require.Equal(t, next, obj.Revision)
	})

	t.Run("keys are independent", func(t *testing.T) {
		_, err := s.Put(ctx, "other", "users.json", []byte(`"x"`), "")
		require.NoError(t, err)

		obj, err := s.Get(ctx, "clients", "users.json")
		require.NoError(t, err)
		require.NotEqual(t, `"x"`, string(obj.Body))
	})
}
