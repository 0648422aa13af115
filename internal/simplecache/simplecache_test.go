package simplecache

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func putHeader(version, keysize, keyhash, padding uint32) []byte {
	buf := make([]byte, rawHeaderSize)
	copy(buf[0:8], headerMagic)
	binary.LittleEndian.PutUint32(buf[8:12], version)
	binary.LittleEndian.PutUint32(buf[12:16], keysize)
	binary.LittleEndian.PutUint32(buf[16:20], keyhash)
	binary.LittleEndian.PutUint32(buf[20:24], padding)
	return buf
}

// buildV1 places the key immediately after a 20-byte header region, the
// same shape Decode uses for type-2 entries (the key overlaps what
// classifyVersion reads as the padding word, which V1 ignores).
func buildV1(key string, stream []byte) []byte {
	hdr := putHeader(1, uint32(len(key)), 0, 0)
	buf := append([]byte{}, hdr[:20]...)
	buf = append(buf, []byte(key)...)
	buf = append(buf, stream...)
	return buf
}

func buildV2(key string, stream []byte, padding uint32, crc uint32) []byte {
	// Type 1 (padding non-zero) uses the full 24-byte header; type 2
	// (padding zero) uses only the first 20 bytes.
	isType1 := padding != 0
	hdr := putHeader(2, uint32(len(key)), 0, padding)
	var buf []byte
	if isType1 {
		buf = append([]byte{}, hdr...)
	} else {
		buf = append([]byte{}, hdr[:20]...)
	}
	buf = append(buf, []byte(key)...)
	buf = append(buf, stream...)

	eos := make([]byte, eosV2Size)
	copy(eos[0:8], eosMagic)
	binary.LittleEndian.PutUint32(eos[8:12], eosFlagCRC32)
	binary.LittleEndian.PutUint32(eos[12:16], crc)
	buf = append(buf, eos...)
	return buf
}

func TestDecodeV1(t *testing.T) {
	stream := []byte("hello world")
	buf := buildV1("http://example.com/", stream)

	e, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, V1, e.Version)
	require.Equal(t, "http://example.com/", e.Key)
	require.Len(t, e.Streams, 1)
	require.Equal(t, stream, e.Streams[0])
}

func TestDecodeV2Type1(t *testing.T) {
	stream := []byte("body-bytes")
	buf := buildV2("http://a.example/", stream, 1, 0xDEADBEEF)

	e, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, V2T1, e.Version)
	require.Equal(t, "http://a.example/", e.Key)
	require.Len(t, e.Streams, 1)
	require.Equal(t, stream, e.Streams[0])
	require.Equal(t, []uint32{0xDEADBEEF}, e.CRC32)
}

func TestDecodeV2Type2(t *testing.T) {
	stream := []byte("another body")
	buf := buildV2("http://b.example/", stream, 0, 0xCAFEF00D)

	e, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, V2T2, e.Version)
	require.Equal(t, "http://b.example/", e.Key)
	require.Equal(t, stream, e.Streams[0])
	require.Equal(t, []uint32{0xCAFEF00D}, e.CRC32)
}

func TestDecodeBadMagic(t *testing.T) {
	buf := make([]byte, rawHeaderSize*2)
	copy(buf, "NOTMAGIC")
	_, err := Decode(buf)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestDecodeTooSmall(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrTooSmall)
}

func buildV5(key string, stream0 []byte, padding uint32, crc0 uint32, keySHA256 []byte) []byte {
	isType1 := padding != 0
	isType2 := !isType1
	hdr := putHeader(5, uint32(len(key)), 0, padding)
	var buf []byte
	if isType1 {
		buf = append([]byte{}, hdr...)
	} else {
		buf = append([]byte{}, hdr[:20]...)
	}
	buf = append(buf, []byte(key)...)
	buf = append(buf, stream0...)

	if keySHA256 != nil {
		buf = append(buf, keySHA256...)
	}

	flags := uint32(eosFlagCRC32)
	if keySHA256 != nil {
		flags |= eosFlagSHA256
	}
	eosSize := eosV5Size
	if isType2 {
		eosSize += 4
	}
	eos := make([]byte, eosSize)
	copy(eos[0:8], eosMagic)
	binary.LittleEndian.PutUint32(eos[8:12], flags)
	binary.LittleEndian.PutUint32(eos[12:16], crc0)
	binary.LittleEndian.PutUint32(eos[16:20], uint32(len(stream0)))
	buf = append(buf, eos...)
	return buf
}

func TestDecodeV5Type1SingleStream(t *testing.T) {
	stream0 := []byte("stream zero contents")
	buf := buildV5("http://c.example/", stream0, 1, 0x11223344, nil)

	e, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, V5T1, e.Version)
	require.Equal(t, "http://c.example/", e.Key)
	require.Len(t, e.Streams, 1)
	require.Equal(t, stream0, e.Streams[0])
	require.Equal(t, []uint32{0x11223344}, e.CRC32)
	require.Nil(t, e.KeySHA256)
}

func TestDecodeV5Type2WithKeySHA256(t *testing.T) {
	// A type-2 key starts at offset 20, so its first four bytes are the
	// padding word classifyVersion reads; they must be zero.
	stream0 := []byte("type2 stream")
	sha := make([]byte, 32)
	for i := range sha {
		sha[i] = byte(i)
	}
	buf := buildV5("\x00\x00\x00\x00http://d.example/", stream0, 0, 0x55667788, sha)

	e, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, V5T2, e.Version)
	require.Equal(t, stream0, e.Streams[0])
	require.Equal(t, sha, e.KeySHA256)
}

func TestVersionString(t *testing.T) {
	require.Equal(t, "v1", V1.String())
	require.Equal(t, "v2-type1", V2T1.String())
	require.Equal(t, "v5-type2", V5T2.String())
	require.Equal(t, "unknown", VersionUnknown.String())
}
