package evidence

import (
	"bytes"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestLibrary(t *testing.T, seed int64) *Library {
	t.Helper()
	l, err := OpenWithSaltSource(t.TempDir(), rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestStoreAndRead(t *testing.T) {
	l := openTestLibrary(t, 1)
	key, path, err := l.Store("https://alexa.amazon.com/api/bootstrap", []byte(`{"ok":true}`))
	require.NoError(t, err)
	require.NotEmpty(t, key)
	require.Equal(t, filepath.Join(l.dir, key), path)

	data, err := l.Read(key)
	require.NoError(t, err)
	require.Equal(t, []byte(`{"ok":true}`), data)

	id, found, err := l.Identifier(key)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "https://alexa.amazon.com/api/bootstrap", id)
}

func TestStoreSameIdentifierDistinctKeys(t *testing.T) {
	l := openTestLibrary(t, 2)
	key1, _, err := l.Store("same-url", []byte("a"))
	require.NoError(t, err)
	key2, _, err := l.Store("same-url", []byte("b"))
	require.NoError(t, err)
	require.NotEqual(t, key1, key2, "each store call mixes fresh salt, so keys must not collide")
}

func TestDeterministicUnderFixedSeed(t *testing.T) {
	l1, err := OpenWithSaltSource(t.TempDir(), rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	defer l1.Close()
	l2, err := OpenWithSaltSource(t.TempDir(), rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	defer l2.Close()

	key1, _, err := l1.Store("x", []byte("payload"))
	require.NoError(t, err)
	key2, _, err := l2.Store("x", []byte("payload"))
	require.NoError(t, err)
	require.Equal(t, key1, key2, "same seed and identical call sequence must be reproducible")
}

func TestIdentifierUnknownKey(t *testing.T) {
	l := openTestLibrary(t, 3)
	_, found, err := l.Identifier("0000000000000000000000000000000000000000")
	require.NoError(t, err)
	require.False(t, found)
}

func TestPathIsDeterministicFromKey(t *testing.T) {
	l := openTestLibrary(t, 4)
	key, path, err := l.Store("id", []byte("content"))
	require.NoError(t, err)
	require.Equal(t, path, l.Path(key))
	require.True(t, bytes.Equal(must(l.Read(key)), []byte("content")))
}

func must(b []byte, err error) []byte {
	if err != nil {
		panic(err)
	}
	return b
}
