package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veesix-networks/osvolt/pkg/opdb"
)

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "state", "opdb.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(ctx, opdb.NamespaceAttachments, "of:1/2", []byte(`{"a":1}`)))
	require.NoError(t, s.Put(ctx, opdb.NamespaceAttachments, "of:1/1", []byte(`{"a":0}`)))
	require.NoError(t, s.Put(ctx, opdb.NamespaceAttachments, "of:1/2", []byte(`{"a":2}`)))

	v, err := s.Get(ctx, opdb.NamespaceAttachments, "of:1/2")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(v))

	n, err := s.Count(ctx, opdb.NamespaceAttachments)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var keys []string
	require.NoError(t, s.Load(ctx, opdb.NamespaceAttachments, func(key string, value []byte) error {
		keys = append(keys, key)
		return nil
	}))
	assert.Equal(t, []string{"of:1/1", "of:1/2"}, keys)

	require.NoError(t, s.Delete(ctx, opdb.NamespaceAttachments, "of:1/2"))
	_, err = s.Get(ctx, opdb.NamespaceAttachments, "of:1/2")
	assert.ErrorIs(t, err, opdb.ErrNotFound)

	require.NoError(t, s.Clear(ctx, opdb.NamespaceAttachments))
	n, err = s.Count(ctx, opdb.NamespaceAttachments)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(ctx, opdb.NamespaceAttachments, "k", []byte("a")))
	require.NoError(t, s.Put(ctx, opdb.NamespaceSubscriberVlans, "k", []byte("b")))
	require.NoError(t, s.Clear(ctx, opdb.NamespaceAttachments))

	v, err := s.Get(ctx, opdb.NamespaceSubscriberVlans, "k")
	require.NoError(t, err)
	assert.Equal(t, "b", string(v))
}
