package clientharvest

import (
	"database/sql"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/gravwell/cift/internal/evidence"
	"github.com/gravwell/cift/internal/store"
)

func newTestHarvester(t *testing.T) *Harvester {
	t.Helper()
	lib, err := evidence.Open(filepath.Join(t.TempDir(), "evidence"))
	require.NoError(t, err)
	t.Cleanup(func() { lib.Close() })
	st, err := store.Open(filepath.Join(t.TempDir(), "out.db"), store.ProductAlexa)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st, lib, "UTC", store.CompanionAppAndroid)
}

func writeFile(t *testing.T, root, rel string, data []byte) string {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, data, 0o644))
	return abs
}

func TestWalkParsesDataStoreDB(t *testing.T) {
	root := t.TempDir()
	dbPath := writeFile(t, root, "databases/DataStore.db", nil)
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE DataItem (key TEXT, value TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO DataItem (key, value) VALUES (?, ?)`,
		"ToDoCollection.TASK", `{"values":[{"itemId":"t1","createdDateTime":1000,"lastUpdatedDateTime":2000,"lastLocalUpdatedDateTime":3000}]}`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	h := newTestHarvester(t)
	require.NoError(t, h.Walk(root))

	var count int
	require.NoError(t, h.store.Raw().QueryRow(`SELECT COUNT(*) FROM TIMELINE`).Scan(&count))
	require.Equal(t, 3, count)

	require.NoError(t, h.store.Raw().QueryRow(
		`SELECT COUNT(*) FROM ACQUIRED_FILE WHERE operation = (SELECT id FROM OPERATION WHERE type = 'COMPANION_APP_ANDROID')`,
	).Scan(&count))
	require.Equal(t, 1, count)
}

func TestWalkRegistersVoiceData(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "files/audio_cache/1234.1", []byte{0xFF, 0xF3, 0x00, 0x00, 0x01, 0x02, 0x03})

	h := newTestHarvester(t)
	require.NoError(t, h.Walk(root))

	var count int
	require.NoError(t, h.store.Raw().QueryRow(`SELECT COUNT(*) FROM ACQUIRED_FILE WHERE desc LIKE 'Voice Data:%'`).Scan(&count))
	require.Equal(t, 1, count)
}

func TestWalkSkipsUnrecognizedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "some/random/file.txt", []byte("hello"))

	h := newTestHarvester(t)
	require.NoError(t, h.Walk(root))

	var count int
	require.NoError(t, h.store.Raw().QueryRow(`SELECT COUNT(*) FROM ACQUIRED_FILE`).Scan(&count))
	require.Equal(t, 0, count)
}

// buildSimpleCacheV1 constructs a minimal V1 simple-cache entry file: a
// 20-byte header (the type-1 24-byte header minus its unused padding word),
// the cache key, then the opaque response stream.
func buildSimpleCacheV1(key string, stream []byte) []byte {
	hdr := make([]byte, 24)
	copy(hdr[0:8], []byte{0xFC, 0xFB, 0x6D, 0x1B, 0xA7, 0x72, 0x5C, 0x30})
	binary.LittleEndian.PutUint32(hdr[8:12], 1) // version
	binary.LittleEndian.PutUint32(hdr[12:16], uint32(len(key)))
	buf := append([]byte{}, hdr[:20]...)
	buf = append(buf, []byte(key)...)
	buf = append(buf, stream...)
	return buf
}

func TestWalkRecoversCachedAPIResponseFromSimpleCache(t *testing.T) {
	root := t.TempDir()
	payload := []byte(`{"authentication":{"customerEmail":"a@example.com","customerName":"A User","authenticated":true}}`)
	buf := buildSimpleCacheV1("https://alexa.amazon.com/api/bootstrap", payload)
	writeFile(t, root, "app_webview/cache/entry_0", buf)

	h := newTestHarvester(t)
	require.NoError(t, h.Walk(root))

	var count int
	require.NoError(t, h.store.Raw().QueryRow(`SELECT COUNT(*) FROM ACCOUNT`).Scan(&count))
	require.Equal(t, 1, count)
}
