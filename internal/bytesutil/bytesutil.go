// Package bytesutil provides the little-endian readers, digest helpers, and
// time conversions shared by every binary decoder in this module (the
// Chromium cache decoders, the binarycookie decoder, and the client-file
// parsers). The field-decode idiom mirrors the teacher's
// ingest/entry/entry.go, which reads/writes its on-disk structures directly
// off byte slices rather than through reflection-based (de)serialization.
package bytesutil

import (
	"bytes"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"io"

	"github.com/klauspost/compress/gzip"
)

var ErrShortBuffer = errors.New("buffer too short for requested field")

// Reader wraps a little-endian byte slice with a cursor, the same way the
// cache/cookie formats are laid out on disk: a flat run of fixed-width
// fields followed by variable-length trailers.
type Reader struct {
	buf []byte
	off int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

func (r *Reader) Remaining() int { return len(r.buf) - r.off }
func (r *Reader) Offset() int    { return r.off }

func (r *Reader) Seek(off int) error {
	if off < 0 || off > len(r.buf) {
		return ErrShortBuffer
	}
	r.off = off
	return nil
}

func (r *Reader) Skip(n int) error {
	return r.Seek(r.off + n)
}

func (r *Reader) need(n int) error {
	if r.off+n > len(r.buf) || n < 0 {
		return ErrShortBuffer
	}
	return nil
}

func (r *Reader) U8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

func (r *Reader) U16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v, nil
}

func (r *Reader) U32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *Reader) U64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v, nil
}

// Bytes returns the next n bytes without copying; callers must not retain
// the slice past the lifetime of the underlying buffer if it is mutated.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	v := r.buf[r.off : r.off+n]
	r.off += n
	return v, nil
}

// NulTerminated truncates b at its first NUL byte (b is returned whole if
// it has none),
// mirroring the inline-key truncation rule used by the main-cache decoder
// (spec §4.1) and the binarycookie string reader (spec §4.3).
func NulTerminated(b []byte) []byte {
	if idx := bytes.IndexByte(b, 0); idx >= 0 {
		return b[:idx]
	}
	return b
}

// CStringAt reads a NUL-terminated ASCII string starting at off within buf,
// used by the binarycookie decoder where string offsets are relative
// pointers into the cookie record rather than a length-prefixed field.
func CStringAt(buf []byte, off int) (string, error) {
	if off < 0 || off > len(buf) {
		return "", ErrShortBuffer
	}
	end := bytes.IndexByte(buf[off:], 0)
	if end < 0 {
		return "", errors.New("unterminated string")
	}
	return string(buf[off : off+end]), nil
}

// SHA1Sum returns the lowercase hex-free raw SHA-1 digest of data; the
// normalized store's referential-integrity property (spec §8) requires this
// to match exactly what was written to the evidence library.
func SHA1Sum(data []byte) [sha1.Size]byte {
	return sha1.Sum(data)
}

func SHA256Sum(data []byte) [sha256.Size]byte {
	return sha256.Sum256(data)
}

// Inflate decompresses a GZIP-framed stream, used for main-cache response
// bodies that Chromium stored with content-encoding gzip.
func Inflate(r io.Reader) ([]byte, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	return io.ReadAll(gz)
}
