// Package simplecache decodes a Chromium "simple" disk cache entry file
// (spec §3.3, §4.2) — the per-URL cache files Chromium writes when it is not
// using the legacy block-file format handled by internal/blockcache.
//
// Layout, grounded on
// original_source/pycift/utility/chromium_simple_cache.py:
//
//	header (24 bytes, packed; V1 and type-2 entries use only the first 20):
//	  magic    8 bytes  "305C72A71B6DFBFC" as raw hex digits, not ASCII text
//	  version  4 bytes LE
//	  keysize  4 bytes LE
//	  keyhash  4 bytes LE
//	  padding  4 bytes LE (0x00000000 for the "type 2" header shape only)
//
// The version/padding combination selects one of five on-disk variants: V1
// (version==1), V2_T1/V2_T2 (2<=version<=4, disambiguated by padding being
// nonzero/zero), V5_T1/V5_T2 (version>=5, same disambiguation). The inline
// key starts at offset 24 for type 1 and at offset 20 for V1 and type 2. A
// V1 entry's single stream is the rest of the file; V2 and V5 entries end
// their streams with an EOS (End Of Stream) trailer carrying a CRC32 and,
// for V5, the stream size and optionally a 32-byte SHA-256 of the key.
package simplecache

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Version identifies which simple-cache on-disk shape an entry uses.
type Version int

const (
	VersionUnknown Version = iota
	V1
	V2T1
	V2T2
	V5T1
	V5T2
)

func (v Version) String() string {
	switch v {
	case V1:
		return "v1"
	case V2T1:
		return "v2-type1"
	case V2T2:
		return "v2-type2"
	case V5T1:
		return "v5-type1"
	case V5T2:
		return "v5-type2"
	default:
		return "unknown"
	}
}

var (
	ErrTooSmall        = errors.New("simplecache: file too small to hold a header")
	ErrBadMagic        = errors.New("simplecache: bad entry signature")
	ErrUnknownVersion  = errors.New("simplecache: unrecognized version/padding combination")
	ErrTruncatedStream = errors.New("simplecache: truncated stream/EOS region")
)

const (
	headerSize   = 24 // magic(8) + version(4) + keysize(4) + keyhash(4) + padding(4) -- see note below
	eosV2Size    = 16 // magic(8) + flags(4) + crc32(4)
	eosV5Size    = 20 // magic(8) + flags(4) + crc32(4) + streamsize(4)
	eosSHA256Len = 32

	eosFlagCRC32  = 0x00000001
	eosFlagSHA256 = 0x00000002
)

// headerMagic and eosMagic are each an 8-byte little-endian signature; the
// original_source constant names spell them out as 16 hex digits
// ("305C72A71B6DFBFC", "D8410D97456FFAF4" — see
// original_source/pycift/utility/chromium_simple_cache.py), which this
// package stores pre-decoded to the raw bytes actually found on disk. This
// also matches the signature internal/clientcatalog's isSimpleCacheEntry
// checks directly against a file's leading bytes.
var (
	headerMagic = []byte{0xFC, 0xFB, 0x6D, 0x1B, 0xA7, 0x72, 0x5C, 0x30}
	eosMagic    = []byte{0xD8, 0x41, 0x0D, 0x97, 0x45, 0x6F, 0xFA, 0xF4}
)

// The on-disk header struct has five fields at 4-byte packing: 8 + 4 + 4 + 4
// + 4 = 24 bytes. Classification always reads all 24 bytes to inspect the
// padding word, but the key's actual start offset depends on the variant:
// type 1 (padding non-zero) treats the full 24-byte struct as the header, so
// the key begins at offset 24; type 2 (padding zero) treats only the first
// 20 bytes as header and the key begins at offset 20.
const rawHeaderSize = 24 // magic(8) + version(4) + keysize(4) + keyhash(4) + padding(4)

// Entry is one decoded simple-cache file (spec §3.3).
type Entry struct {
	Version   Version
	Key       string
	Streams   [][]byte
	CRC32     []uint32
	KeySHA256 []byte // 32 bytes, or nil if absent
}

// Decode parses a full simple-cache entry file buffer.
func Decode(data []byte) (Entry, error) {
	if len(data) < rawHeaderSize*2 {
		return Entry{}, ErrTooSmall
	}
	if !bytes.Equal(data[0:8], headerMagic) {
		return Entry{}, ErrBadMagic
	}
	version := binary.LittleEndian.Uint32(data[8:12])
	keysize := binary.LittleEndian.Uint32(data[12:16])
	padding := binary.LittleEndian.Uint32(data[20:24])

	ver, err := classifyVersion(version, padding)
	if err != nil {
		return Entry{}, err
	}

	var offset int
	if ver == V2T1 || ver == V5T1 {
		offset = rawHeaderSize
	} else {
		offset = rawHeaderSize - 4
	}

	if offset+int(keysize) > len(data) {
		return Entry{}, ErrTruncatedStream
	}
	key := string(data[offset : offset+int(keysize)])
	offset += int(keysize)

	e := Entry{Version: ver, Key: key}

	switch {
	case ver == V1:
		e.Streams = append(e.Streams, data[offset:])
	case ver == V2T1 || ver == V2T2:
		if err := decodeV2Tail(&e, data, offset); err != nil {
			return Entry{}, err
		}
	case ver == V5T1 || ver == V5T2:
		if err := decodeV5Tail(&e, data, offset, ver == V5T2); err != nil {
			return Entry{}, err
		}
	}
	return e, nil
}

func classifyVersion(version, padding uint32) (Version, error) {
	switch {
	case version == 1:
		return V1, nil
	case version >= 2 && version <= 4 && padding != 0:
		return V2T1, nil
	case version >= 2 && version <= 4 && padding == 0:
		return V2T2, nil
	case version >= 5 && padding != 0:
		return V5T1, nil
	case version >= 5 && padding == 0:
		return V5T2, nil
	default:
		return VersionUnknown, fmt.Errorf("%w: version=%d padding=%d", ErrUnknownVersion, version, padding)
	}
}

// decodeV2Tail reads the single data stream for the V2 family: everything
// between the key and an optional trailing EOS record.
func decodeV2Tail(e *Entry, data []byte, offsetAfterKey int) error {
	fileSize := len(data)
	if fileSize < eosV2Size {
		return ErrTruncatedStream
	}
	eosOff := fileSize - eosV2Size
	if eosOff < offsetAfterKey || !bytes.Equal(data[eosOff:eosOff+8], eosMagic) {
		// No valid EOS trailer: the whole remainder is the stream, and no
		// CRC32 is available (mirrors the original's "invalid EOS" branch).
		e.CRC32 = append(e.CRC32, 0)
		e.Streams = append(e.Streams, data[offsetAfterKey:])
		return nil
	}
	crc := binary.LittleEndian.Uint32(data[eosOff+12 : eosOff+16])
	e.CRC32 = append(e.CRC32, crc)
	e.Streams = append(e.Streams, data[offsetAfterKey:eosOff])
	return nil
}

// decodeV5Tail reads stream 0 then stream 1 walking backward from the end of
// the file, each preceded by its own EOS record. type2 EOS records carry an
// extra 4-byte field (hence the +4 to eosV5Size for that variant).
func decodeV5Tail(e *Entry, data []byte, offsetAfterKey int, isType2 bool) error {
	sizeOfEOS := eosV5Size
	if isType2 {
		sizeOfEOS += 4
	}
	fileSize := len(data)

	if fileSize < sizeOfEOS {
		return ErrTruncatedStream
	}
	offset := fileSize - sizeOfEOS
	if !bytes.Equal(data[offset:offset+8], eosMagic) {
		e.CRC32 = append(e.CRC32, 0)
		e.Streams = append(e.Streams, data[offsetAfterKey:])
		return nil
	}

	flags := binary.LittleEndian.Uint32(data[offset+8 : offset+12])
	crc0 := binary.LittleEndian.Uint32(data[offset+12 : offset+16])
	streamSize0 := binary.LittleEndian.Uint32(data[offset+16 : offset+20])

	if flags&eosFlagSHA256 == eosFlagSHA256 {
		offset -= eosSHA256Len
		if offset < 0 {
			return ErrTruncatedStream
		}
		e.KeySHA256 = append([]byte(nil), data[offset:offset+eosSHA256Len]...)
	}

	e.CRC32 = append(e.CRC32, crc0)
	offset -= int(streamSize0)
	if offset < 0 || offset+int(streamSize0) > len(data) {
		return ErrTruncatedStream
	}
	e.Streams = append(e.Streams, data[offset:offset+int(streamSize0)])

	// Stream 1: one more EOS record immediately before stream 0's region.
	offset -= sizeOfEOS
	if offset < 0 {
		// No second stream present; stream 0 alone is a valid entry.
		return nil
	}
	if !bytes.Equal(data[offset:offset+8], eosMagic) {
		return nil
	}
	crc1 := binary.LittleEndian.Uint32(data[offset+12 : offset+16])
	streamSize1 := binary.LittleEndian.Uint32(data[offset+16 : offset+20])
	offset -= int(streamSize1)
	if offset < 0 || offset+int(streamSize1) > len(data) {
		return ErrTruncatedStream
	}
	e.CRC32 = append(e.CRC32, crc1)
	e.Streams = append(e.Streams, data[offset:offset+int(streamSize1)])
	return nil
}
