// Package blockcache decodes a Chromium legacy "main" (a.k.a. block-file)
// disk cache: an "index" file plus a handful of "data_N" files, addressed
// through packed 32-bit cache addresses (spec §3.2, §4.1).
//
// Grounded on original_source/pycift/utility/chromium_main_cache.py, itself
// derived from plaso's chrome_cache parser.
//
// A cache address is a tagged union packed into a uint32:
//
//	bit 31      initialized flag
//	bits 30-28  file_type (0=separate external file, 1..4=block-sized data file)
//	bits 25-24  contiguous_blocks - 1 (block-type addresses only)
//	bits 23-16  file_id (block-type addresses only; selects data_N)
//	bits 15-0   block_number (block-type addresses only)
//
// A separate-file address instead packs a 28-bit file_id directly
// (address & 0x0FFFFFFF) naming an external "f_XXXXXX" file; this module
// does not decode those bodies since nothing in the cache entry chain
// dereferences them (spec leaves external stream bodies out of scope).
//
// The index file's header is 256 bytes (48 bytes of named fields followed by
// 208 bytes of padding), followed by a further 112-byte gap before the index
// table begins — both skips are required, independently, per the original's
// process: parse the 256-byte header struct, THEN seek 112 more bytes.
//
// Each data_N file has an 80-byte header, and every cache entry occupies a
// fixed 96-byte prelude (hash/addresses/counts/sizes/flags) followed by an
// inline key region of (block_size - 96) bytes.
package blockcache

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gravwell/cift/internal/bytesutil"
)

const (
	indexSignature     = 0xC103CAC3
	dataFileSignature  = 0xC104CAC3
	indexHeaderSize    = 256 // 48 named bytes + 208 bytes padding
	indexPostHeaderGap = 112
	dataFileHeaderSize = 80
	entryPreludeSize   = 96
)

var (
	ErrBadIndexSignature  = errors.New("blockcache: bad index file signature")
	ErrBadDataSignature   = errors.New("blockcache: bad data file signature")
	ErrUnsupportedVersion = errors.New("blockcache: unsupported format version")
	ErrTruncated          = errors.New("blockcache: truncated buffer")
	ErrMissingDataFile    = errors.New("blockcache: referenced data file not present")
	ErrCycleDetected      = errors.New("blockcache: cycle detected while following entry chain")
)

// File-type tags carried in bits 30-28 of a cache address.
const (
	fileTypeSeparate    = 0
	fileTypeRankings    = 1
	fileTypeBlock256    = 2
	fileTypeBlock1024   = 3
	fileTypeBlock4096   = 4
)

var blockFileTypeSizes = [5]int{0, 36, 256, 1024, 4096}

// Address is a decoded Chromium cache address (spec §3.2, §4.1).
type Address struct {
	Value       uint32
	Initialized bool
	Filename    string // "" for a zero/invalid address
	BlockNumber int
	BlockOffset int
	BlockSize   int
}

// DecodeAddress interprets a packed 32-bit cache address.
func DecodeAddress(value uint32) Address {
	a := Address{
		Value:       value,
		Initialized: value&0x80000000 != 0,
	}
	if value == 0 {
		return a
	}

	fileType := int((value & 0x70000000) >> 28)
	switch fileType {
	case fileTypeSeparate:
		fileID := value & 0x0FFFFFFF
		a.Filename = fmt.Sprintf("f_%06x", fileID)
	case fileTypeRankings, fileTypeBlock256, fileTypeBlock1024, fileTypeBlock4096:
		fileID := (value & 0x00FF0000) >> 16
		a.Filename = fmt.Sprintf("data_%d", fileID)
		blockSize := blockFileTypeSizes[fileType]
		a.BlockNumber = int(value & 0x0000FFFF)
		a.BlockOffset = 0x2000 + a.BlockNumber*blockSize
		contiguous := int((value&0x03000000)>>24) + 1
		a.BlockSize = contiguous * blockSize
	}
	return a
}

// Valid reports whether the address names a file: a data_N block file or,
// for a separate-file address, an f_XXXXXX file. Separate-file addresses
// carry no block number, offset or size (see the package doc).
func (a Address) Valid() bool { return a.Filename != "" }

// IndexHeader is the "index" file's fixed header (spec §4.1).
type IndexHeader struct {
	MajorVersion, MinorVersion uint16
	NumberOfEntries            uint32
	StoredDataSize             uint32
	LastCreatedFileNumber      uint32
	TableSize                  uint32
	CreationTime               uint64
}

// ParseIndex decodes the full "index" file: its header, then the address
// table that follows the header plus the extra 112-byte gap.
func ParseIndex(buf []byte) (IndexHeader, []Address, error) {
	hdr, err := parseIndexHeader(buf)
	if err != nil {
		return IndexHeader{}, nil, err
	}
	tableStart := indexHeaderSize + indexPostHeaderGap
	if tableStart > len(buf) {
		return IndexHeader{}, nil, ErrTruncated
	}
	table := parseIndexTable(buf[tableStart:])
	return hdr, table, nil
}

func parseIndexHeader(buf []byte) (IndexHeader, error) {
	if len(buf) < indexHeaderSize {
		return IndexHeader{}, ErrTruncated
	}
	r := bytesutil.NewReader(buf)
	sig, err := r.U32()
	if err != nil {
		return IndexHeader{}, err
	}
	if sig != indexSignature {
		return IndexHeader{}, ErrBadIndexSignature
	}
	minor, err := r.U16()
	if err != nil {
		return IndexHeader{}, err
	}
	major, err := r.U16()
	if err != nil {
		return IndexHeader{}, err
	}
	if !(major == 2 && (minor == 0 || minor == 1)) {
		return IndexHeader{}, fmt.Errorf("%w: %d.%d", ErrUnsupportedVersion, major, minor)
	}
	numEntries, err := r.U32()
	if err != nil {
		return IndexHeader{}, err
	}
	storedSize, err := r.U32()
	if err != nil {
		return IndexHeader{}, err
	}
	lastFile, err := r.U32()
	if err != nil {
		return IndexHeader{}, err
	}
	if err := r.Skip(8); err != nil { // unknown1, unknown2
		return IndexHeader{}, err
	}
	tableSize, err := r.U32()
	if err != nil {
		return IndexHeader{}, err
	}
	if err := r.Skip(8); err != nil { // unknown3, unknown4
		return IndexHeader{}, err
	}
	creation, err := r.U64()
	if err != nil {
		return IndexHeader{}, err
	}

	return IndexHeader{
		MajorVersion:          major,
		MinorVersion:          minor,
		NumberOfEntries:       numEntries,
		StoredDataSize:        storedSize,
		LastCreatedFileNumber: lastFile,
		TableSize:             tableSize,
		CreationTime:          creation,
	}, nil
}

func parseIndexTable(buf []byte) []Address {
	var table []Address
	for off := 0; off+4 <= len(buf); off += 4 {
		v := binary.LittleEndian.Uint32(buf[off:])
		if v == 0 {
			continue
		}
		addr := DecodeAddress(v)
		if addr.Valid() {
			table = append(table, addr)
		}
	}
	return table
}

// DataFileHeader is a data_N file's fixed 80-byte header.
type DataFileHeader struct {
	MajorVersion, MinorVersion uint16
	FileNumber, NextFileNumber uint16
	BlockSize                  uint32
	NumberOfEntries            uint32
	MaximumNumberOfEntries     uint32
}

func ParseDataFileHeader(buf []byte) (DataFileHeader, error) {
	if len(buf) < dataFileHeaderSize {
		return DataFileHeader{}, ErrTruncated
	}
	r := bytesutil.NewReader(buf)
	sig, err := r.U32()
	if err != nil {
		return DataFileHeader{}, err
	}
	if sig != dataFileSignature {
		return DataFileHeader{}, ErrBadDataSignature
	}
	minor, err := r.U16()
	if err != nil {
		return DataFileHeader{}, err
	}
	major, err := r.U16()
	if err != nil {
		return DataFileHeader{}, err
	}
	if !(major == 2 && (minor == 0 || minor == 1)) {
		return DataFileHeader{}, fmt.Errorf("%w: %d.%d", ErrUnsupportedVersion, major, minor)
	}
	fileNumber, err := r.U16()
	if err != nil {
		return DataFileHeader{}, err
	}
	nextFileNumber, err := r.U16()
	if err != nil {
		return DataFileHeader{}, err
	}
	blockSize, err := r.U32()
	if err != nil {
		return DataFileHeader{}, err
	}
	numEntries, err := r.U32()
	if err != nil {
		return DataFileHeader{}, err
	}
	maxEntries, err := r.U32()
	if err != nil {
		return DataFileHeader{}, err
	}
	// empty[4] + hints[4] + updating + user[5] = 14 more u32 fields, unused.
	if err := r.Skip(14 * 4); err != nil {
		return DataFileHeader{}, err
	}

	return DataFileHeader{
		MajorVersion:           major,
		MinorVersion:           minor,
		FileNumber:             fileNumber,
		NextFileNumber:         nextFileNumber,
		BlockSize:              blockSize,
		NumberOfEntries:        numEntries,
		MaximumNumberOfEntries: maxEntries,
	}, nil
}

// Entry is one decoded cache entry (spec §3.2).
type Entry struct {
	Hash                uint32
	NextAddress         Address
	RankingsNodeAddress Address
	ReuseCount          uint32
	RefetchCount        uint32
	State               uint32
	CreationTime        uint64
	KeySize             uint32
	LongKeyAddress      Address
	DataStreamSizes     [4]uint32
	DataStreamAddresses [4]Address
	Flags               uint32
	SelfHash            uint32
	Key                 string
}

// Files maps a data_N (or "index") basename to its full file content, the
// unit of input this package's multi-file chain traversal operates over.
type Files map[string][]byte

// ReadEntry decodes the cache entry addressed by addr out of files. When the
// entry's key overruns the inline key region, it is followed out to
// long_key_address (spec §3.2, §9: "MUST handle both" inline and
// long-key-address storage).
func ReadEntry(files Files, addr Address) (Entry, error) {
	data, ok := files[addr.Filename]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrMissingDataFile, addr.Filename)
	}
	if addr.BlockOffset+entryPreludeSize > len(data) {
		return Entry{}, ErrTruncated
	}
	r := bytesutil.NewReader(data[addr.BlockOffset:])

	hash, err := r.U32()
	if err != nil {
		return Entry{}, err
	}
	nextRaw, err := r.U32()
	if err != nil {
		return Entry{}, err
	}
	rankingsRaw, err := r.U32()
	if err != nil {
		return Entry{}, err
	}
	reuseCount, err := r.U32()
	if err != nil {
		return Entry{}, err
	}
	refetchCount, err := r.U32()
	if err != nil {
		return Entry{}, err
	}
	state, err := r.U32()
	if err != nil {
		return Entry{}, err
	}
	creationTime, err := r.U64()
	if err != nil {
		return Entry{}, err
	}
	keySize, err := r.U32()
	if err != nil {
		return Entry{}, err
	}
	longKeyRaw, err := r.U32()
	if err != nil {
		return Entry{}, err
	}

	var streamSizes [4]uint32
	for i := range streamSizes {
		v, err := r.U32()
		if err != nil {
			return Entry{}, err
		}
		streamSizes[i] = v
	}
	var streamAddrs [4]Address
	for i := range streamAddrs {
		v, err := r.U32()
		if err != nil {
			return Entry{}, err
		}
		if v != 0 {
			streamAddrs[i] = DecodeAddress(v)
		}
	}

	flags, err := r.U32()
	if err != nil {
		return Entry{}, err
	}
	if err := r.Skip(16); err != nil { // reserved padding
		return Entry{}, err
	}
	selfHash, err := r.U32()
	if err != nil {
		return Entry{}, err
	}

	inlineLen := addr.BlockSize - entryPreludeSize
	if inlineLen < 0 {
		inlineLen = 0
	}
	inline, err := r.Bytes(inlineLen)
	if err != nil {
		return Entry{}, err
	}

	longKeyAddr := DecodeAddress(longKeyRaw)
	key, err := resolveKey(files, inline, int(keySize), longKeyAddr)
	if err != nil {
		return Entry{}, fmt.Errorf("key: %w", err)
	}

	return Entry{
		Hash:                hash,
		NextAddress:         DecodeAddress(nextRaw),
		RankingsNodeAddress: DecodeAddress(rankingsRaw),
		ReuseCount:          reuseCount,
		RefetchCount:        refetchCount,
		State:               state,
		CreationTime:        creationTime,
		KeySize:             keySize,
		LongKeyAddress:      longKeyAddr,
		DataStreamSizes:     streamSizes,
		DataStreamAddresses: streamAddrs,
		Flags:               flags,
		SelfHash:            selfHash,
		Key:                 key,
	}, nil
}

// resolveKey returns the entry key, preferring the inline region's
// NUL-terminated key unless that key is shorter than keySize and a
// long_key_address is present, in which case the key is read from there
// instead.
func resolveKey(files Files, inline []byte, keySize int, longKey Address) (string, error) {
	inlineKey := bytesutil.NulTerminated(inline)
	if len(inlineKey) >= keySize || !longKey.Valid() {
		return string(inlineKey), nil
	}
	data, ok := files[longKey.Filename]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingDataFile, longKey.Filename)
	}
	if longKey.BlockOffset+keySize > len(data) {
		return "", ErrTruncated
	}
	raw := data[longKey.BlockOffset : longKey.BlockOffset+keySize]
	return string(bytesutil.NulTerminated(raw)), nil
}

// ResolveChain follows an index entry's next_address chain to completion,
// guarding against cycles with a visited-address set (spec §9: a corrupt or
// adversarial cache must not hang the acquisition pipeline).
func ResolveChain(files Files, start Address) ([]Entry, error) {
	var entries []Entry
	visited := make(map[uint32]bool)

	addr := start
	for addr.Value != 0 {
		if visited[addr.Value] {
			return entries, ErrCycleDetected
		}
		visited[addr.Value] = true

		if !addr.Valid() {
			break
		}
		entry, err := ReadEntry(files, addr)
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
		addr = entry.NextAddress
	}
	return entries, nil
}
