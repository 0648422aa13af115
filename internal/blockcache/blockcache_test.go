package blockcache

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeAddressSeparate(t *testing.T) {
	// initialized(1) | file_type=0 (separate) | file_id=0x2A
	addr := DecodeAddress(0x8000002A)
	require.True(t, addr.Initialized)
	require.Equal(t, "f_00002a", addr.Filename)
	require.True(t, addr.Valid())
}

func TestDecodeAddressBlock256(t *testing.T) {
	// initialized | file_type=2 (256-byte blocks) | contiguous=1 (0 extra) |
	// file_id=1 | block_number=3
	var v uint32 = 0x80000000
	v |= 2 << 28        // file_type
	v |= 0 << 24        // contiguous_blocks - 1
	v |= 1 << 16        // file_id
	v |= 3              // block_number
	addr := DecodeAddress(v)

	require.Equal(t, "data_1", addr.Filename)
	require.Equal(t, 3, addr.BlockNumber)
	require.Equal(t, 0x2000+3*256, addr.BlockOffset)
	require.Equal(t, 256, addr.BlockSize)
}

func TestDecodeAddressZero(t *testing.T) {
	addr := DecodeAddress(0)
	require.False(t, addr.Initialized)
	require.False(t, addr.Valid())
}

func buildIndexHeader(numEntries uint32) []byte {
	buf := make([]byte, indexHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:], indexSignature)
	binary.LittleEndian.PutUint16(buf[4:], 0) // minor
	binary.LittleEndian.PutUint16(buf[6:], 2) // major
	binary.LittleEndian.PutUint32(buf[8:], numEntries)
	return buf
}

func TestParseIndex(t *testing.T) {
	hdr := buildIndexHeader(1)
	gap := make([]byte, indexPostHeaderGap)

	var addrValue uint32 = 0x80000000
	addrValue |= 2 << 28
	addrValue |= 1 << 16
	addrValue |= 5

	table := make([]byte, 8)
	binary.LittleEndian.PutUint32(table[0:], addrValue)
	// second slot is zero and must be skipped

	buf := append(append(hdr, gap...), table...)

	parsedHdr, entries, err := ParseIndex(buf)
	require.NoError(t, err)
	require.Equal(t, uint16(2), parsedHdr.MajorVersion)
	require.Equal(t, uint16(0), parsedHdr.MinorVersion)
	require.Len(t, entries, 1)
	require.Equal(t, "data_1", entries[0].Filename)
}

func TestParseIndexBadSignature(t *testing.T) {
	buf := make([]byte, indexHeaderSize+indexPostHeaderGap)
	_, _, err := ParseIndex(buf)
	require.ErrorIs(t, err, ErrBadIndexSignature)
}

func buildDataFileHeader(blockSize uint32) []byte {
	buf := make([]byte, dataFileHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:], dataFileSignature)
	binary.LittleEndian.PutUint16(buf[4:], 0) // minor
	binary.LittleEndian.PutUint16(buf[6:], 2) // major
	binary.LittleEndian.PutUint16(buf[8:], 1) // file_number
	binary.LittleEndian.PutUint16(buf[10:], 0)
	binary.LittleEndian.PutUint32(buf[12:], blockSize)
	binary.LittleEndian.PutUint32(buf[16:], 1) // number_of_entries
	return buf
}

// buildEntryAt writes a 96-byte prelude plus inline key bytes at offset
// within data, sized to fit a single 256-byte block.
func buildEntryAt(data []byte, offset int, keySize uint32, longKeyAddr uint32, key string, next uint32) {
	binary.LittleEndian.PutUint32(data[offset+0:], 0)        // hash
	binary.LittleEndian.PutUint32(data[offset+4:], next)      // next_address
	binary.LittleEndian.PutUint32(data[offset+8:], 0)         // rankings_node_address
	binary.LittleEndian.PutUint32(data[offset+12:], 0)        // reuse_count
	binary.LittleEndian.PutUint32(data[offset+16:], 0)        // refetch_count
	binary.LittleEndian.PutUint32(data[offset+20:], 0)        // state
	binary.LittleEndian.PutUint64(data[offset+24:], 0)        // creation_time
	binary.LittleEndian.PutUint32(data[offset+32:], keySize)  // key_size
	binary.LittleEndian.PutUint32(data[offset+36:], longKeyAddr)
	// data_stream_sizes[4] at 40..56, data_stream_addresses[4] at 56..72, all zero
	binary.LittleEndian.PutUint32(data[offset+72:], 0) // flags
	// 16 bytes padding at 76..92
	binary.LittleEndian.PutUint32(data[offset+92:], 0) // self_hash
	copy(data[offset+96:], key)
}

func TestReadEntryInlineKey(t *testing.T) {
	blockOffset := 0x2000
	data := make([]byte, blockOffset+256)
	copy(data, buildDataFileHeader(256))
	buildEntryAt(data, blockOffset, 3, 0, "abc\x00", 0)

	files := Files{"data_1": data}
	addr := Address{Filename: "data_1", BlockOffset: blockOffset, BlockSize: 256}

	entry, err := ReadEntry(files, addr)
	require.NoError(t, err)
	require.Equal(t, "abc", entry.Key)
	require.Equal(t, uint32(3), entry.KeySize)
}

func TestReadEntryLongKey(t *testing.T) {
	mainOffset := 0x2000
	longOffset := 0x2000 + 256 // second block in the same file, for simplicity

	data := make([]byte, longOffset+256)
	copy(data, buildDataFileHeader(256))

	longKey := "this-key-is-considered-too-long-for-inline-storage"
	// Long-key address: file_type=2 (256), file_id=1, block_number=1
	var longAddr uint32 = 0x80000000
	longAddr |= 2 << 28
	longAddr |= 1 << 16
	longAddr |= 1
	copy(data[longOffset:], longKey)

	buildEntryAt(data, mainOffset, uint32(len(longKey)), longAddr, "", 0)

	files := Files{"data_1": data}
	addr := Address{Filename: "data_1", BlockOffset: mainOffset, BlockSize: 256}

	entry, err := ReadEntry(files, addr)
	require.NoError(t, err)
	require.Equal(t, longKey, entry.Key)
}

func TestResolveChainDetectsCycle(t *testing.T) {
	blockOffset := 0x2000
	data := make([]byte, blockOffset+256)
	copy(data, buildDataFileHeader(256))

	var selfAddr uint32 = 0x80000000
	selfAddr |= 2 << 28
	selfAddr |= 1 << 16
	selfAddr |= 0

	buildEntryAt(data, blockOffset, 1, 0, "x\x00", selfAddr)

	files := Files{"data_1": data}
	start := Address{Value: selfAddr, Filename: "data_1", BlockOffset: blockOffset, BlockSize: 256}

	_, err := ResolveChain(files, start)
	require.ErrorIs(t, err, ErrCycleDetected)
}

func TestResolveChainMissingDataFile(t *testing.T) {
	addr := Address{Value: 0x80020000, Filename: "data_9", BlockOffset: 0x2000, BlockSize: 256}
	_, err := ResolveChain(Files{}, addr)
	require.ErrorIs(t, err, ErrMissingDataFile)
}
