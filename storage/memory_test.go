package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPutIsCreateIfAbsent(t *testing.T) {
	m := NewMemory("bucket")

	err := m.Put(context.Background(), "key", bytes.NewReader([]byte("one")), 3, "text/plain")
	require.NoError(t, err)

	err = m.Put(context.Background(), "key", bytes.NewReader([]byte("two")), 3, "text/plain")
	assert.ErrorIs(t, err, ErrObjectExists)

	// The first write wins
	body, err := m.Get(context.Background(), "key")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)
}

func TestMemoryGetMissing(t *testing.T) {
	m := NewMemory("bucket")

	_, err := m.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrObjectMissing)
}

func TestMemoryDelete(t *testing.T) {
	m := NewMemory("bucket")

	require.NoError(t, m.Put(context.Background(), "key", strings.NewReader("data"), 4, ""))
	require.NoError(t, m.Delete(context.Background(), "key"))

	_, err := m.Get(context.Background(), "key")
	assert.ErrorIs(t, err, ErrObjectMissing)

	// Deleting an absent key is a no-op, matching S3's DeleteObject
	assert.NoError(t, m.Delete(context.Background(), "key"))
}

func TestMemorySignedURLDiffersFromCanonical(t *testing.T) {
	m := NewMemory("bucket")

	require.NoError(t, m.Put(context.Background(), "folder/key", strings.NewReader("data"), 4, ""))

	signed, err := m.SignedURL(context.Background(), "folder/key", time.Hour)
	require.NoError(t, err)

	canonical := m.URL("folder/key")
	assert.NotEqual(t, canonical, signed)
	assert.True(t, strings.HasPrefix(signed, canonical))
}
