// Package evidence is the content-addressed blob store every harvested
// artifact (a fetched cloud API response, a copied companion-device file,
// a downloaded voice recording) lands in before the normalized store ever
// sees it (spec §4.7, §5: "content-addressed under SHA-1 of (url + random
// salt)").
//
// Blob bytes are written to disk with the teacher's dchest/safefile
// atomic-rename idiom (ingesters/utils/state.go) at <dir>/<content key>,
// and a go.etcd.io/bbolt index maps each content key to the identifier
// (URL or source path) the blob was stored for.
package evidence

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dchest/safefile"
	"go.etcd.io/bbolt"
)

var indexBucket = []byte("evidence")

// Library is one run's evidence directory plus its bbolt key index.
type Library struct {
	dir     string
	db      *bbolt.DB
	rng     io.Reader
	perm    os.FileMode
}

// SaltSource supplies the random salt mixed into every content key.
// Production use is crypto/rand; test mode (spec §9: "deterministic under a
// fixed seed") supplies a seeded math/rand.Rand instead via OpenWithSaltSource.
type SaltSource = io.Reader

// Open creates dir if absent and opens (or creates) its index.db.
func Open(dir string) (*Library, error) {
	return OpenWithSaltSource(dir, rand.Reader)
}

// OpenWithSaltSource is Open with an explicit salt source, for
// deterministic test-mode runs.
func OpenWithSaltSource(dir string, salt SaltSource) (*Library, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("evidence: mkdir %s: %w", dir, err)
	}
	db, err := bbolt.Open(filepath.Join(dir, "index.db"), 0o640, nil)
	if err != nil {
		return nil, fmt.Errorf("evidence: open index: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(indexBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("evidence: init index: %w", err)
	}
	return &Library{dir: dir, db: db, rng: salt, perm: 0o640}, nil
}

func (l *Library) Close() error { return l.db.Close() }

// contentKey is SHA-1 of (identifier + random salt), per spec §5.
func (l *Library) contentKey(identifier string) (string, error) {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(l.rng, salt); err != nil {
		return "", fmt.Errorf("evidence: read salt: %w", err)
	}
	h := sha1.New()
	h.Write([]byte(identifier))
	h.Write(salt)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Store writes data under a freshly derived content key and records
// key -> identifier in the index. It returns the key and the blob's path so
// the caller can thread them through a corresponding AcquiredFile row.
func (l *Library) Store(identifier string, data []byte) (key string, path string, err error) {
	key, err = l.contentKey(identifier)
	if err != nil {
		return "", "", err
	}
	path = filepath.Join(l.dir, key)

	fout, err := safefile.Create(path, l.perm)
	if err != nil {
		return "", "", fmt.Errorf("evidence: create %s: %w", path, err)
	}
	name := fout.Name()
	if _, err = fout.Write(data); err != nil {
		fout.File.Close()
		os.Remove(name)
		return "", "", fmt.Errorf("evidence: write %s: %w", path, err)
	}
	if err = fout.Commit(); err != nil {
		fout.File.Close()
		os.Remove(name)
		return "", "", fmt.Errorf("evidence: commit %s: %w", path, err)
	}

	if err = l.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(indexBucket).Put([]byte(key), []byte(identifier))
	}); err != nil {
		return "", "", fmt.Errorf("evidence: index %s: %w", key, err)
	}
	return key, path, nil
}

// Path returns the on-disk path a previously stored key resolves to,
// without touching bbolt (the path convention is deterministic).
func (l *Library) Path(key string) string {
	return filepath.Join(l.dir, key)
}

// Identifier looks up the original source identifier a key was stored
// under, or ("", false) if the key is unknown.
func (l *Library) Identifier(key string) (string, bool, error) {
	var id string
	var found bool
	err := l.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(indexBucket).Get([]byte(key))
		if v != nil {
			id = string(v)
			found = true
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("evidence: lookup %s: %w", key, err)
	}
	return id, found, nil
}

// Read reads back the bytes stored under key.
func (l *Library) Read(key string) ([]byte, error) {
	data, err := os.ReadFile(l.Path(key))
	if err != nil {
		return nil, fmt.Errorf("evidence: read %s: %w", key, err)
	}
	return data, nil
}
