package binarycookie

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildCookie encodes a single cookie record the way Safari/WKWebView does:
// size, two unknown fields interleaved with flags, four string offsets
// (relative to the record start, per the decoder's -4 seek convention),
// an 8-byte terminator, then expiry/creation as little-endian doubles,
// followed by the four NUL-terminated strings in url/name/path/value order.
func buildCookie(flags uint32, domain, name, path, value string) []byte {
	const headerLen = 56 // size..creation, all fixed-width fields
	urlOff := headerLen
	nameOff := urlOff + len(domain) + 1
	pathOff := nameOff + len(name) + 1
	valueOff := pathOff + len(path) + 1
	total := valueOff + len(value) + 1

	buf := make([]byte, total)
	binary.LittleEndian.PutUint32(buf[0:], uint32(total))
	binary.LittleEndian.PutUint32(buf[4:], 0) // unknown
	binary.LittleEndian.PutUint32(buf[8:], flags)
	binary.LittleEndian.PutUint32(buf[12:], 0) // unknown
	binary.LittleEndian.PutUint32(buf[16:], uint32(urlOff))
	binary.LittleEndian.PutUint32(buf[20:], uint32(nameOff))
	binary.LittleEndian.PutUint32(buf[24:], uint32(pathOff))
	binary.LittleEndian.PutUint32(buf[28:], uint32(valueOff))
	// buf[32:40] terminator, left zero
	binary.LittleEndian.PutUint64(buf[40:], math.Float64bits(0))
	binary.LittleEndian.PutUint64(buf[48:], math.Float64bits(0))

	copy(buf[urlOff:], domain)
	copy(buf[nameOff:], name)
	copy(buf[pathOff:], path)
	copy(buf[valueOff:], value)
	return buf
}

func buildPage(cookies ...[]byte) []byte {
	offsets := make([]int, len(cookies))
	cursor := 8 + 4*len(cookies) + 4
	for i, c := range cookies {
		offsets[i] = cursor
		cursor += len(c)
	}
	page := make([]byte, cursor)
	binary.LittleEndian.PutUint32(page[0:], 0x00000100)
	binary.LittleEndian.PutUint32(page[4:], uint32(len(cookies)))
	for i, off := range offsets {
		binary.LittleEndian.PutUint32(page[8+4*i:], uint32(off))
	}
	// trailing 4-byte zero footer already covered by offsets[0] placement
	for i, c := range cookies {
		copy(page[offsets[i]:], c)
	}
	return page
}

func buildJar(pages ...[]byte) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, signature[:]...)
	countBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(countBuf, uint32(len(pages)))
	buf = append(buf, countBuf...)
	for _, p := range pages {
		szBuf := make([]byte, 4)
		binary.BigEndian.PutUint32(szBuf, uint32(len(p)))
		buf = append(buf, szBuf...)
	}
	for _, p := range pages {
		buf = append(buf, p...)
	}
	return buf
}

func TestDecodeTwoCookiesOnePage(t *testing.T) {
	amazon := buildCookie(1, ".amazon.com", "sess", "/", "abc")
	google := buildCookie(0, ".google.com", "SID", "/", "xyz")
	page := buildPage(amazon, google)
	jar := buildJar(page)

	pages, err := Decode(jar)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.Len(t, pages[0].Cookies, 2)

	first := pages[0].Cookies[0]
	require.Equal(t, ".amazon.com", first.Domain)
	require.Equal(t, "sess", first.Name)
	require.Equal(t, "abc", first.Value)
	require.Equal(t, FlagsSecure, first.Flags)

	second := pages[0].Cookies[1]
	require.Equal(t, ".google.com", second.Domain)
	require.Equal(t, "SID", second.Name)
	require.Equal(t, "xyz", second.Value)
	require.Equal(t, FlagsNone, second.Flags)

	domain, serialized := pages[0].Serialize()
	require.Equal(t, ".google.com", domain) // last cookie's domain wins, matches original
	require.Equal(t, "\"sess\": \"abc\",\n\"SID\": \"xyz\"", serialized)
}

func TestDecodeBadMagic(t *testing.T) {
	_, err := Decode([]byte("nope"))
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestDecodeTruncated(t *testing.T) {
	jar := buildJar(buildPage(buildCookie(0, "d", "n", "/", "v")))
	_, err := Decode(jar[:len(jar)-5])
	require.ErrorIs(t, err, ErrTruncatedPage)
}

func TestFlagsString(t *testing.T) {
	require.Equal(t, "", FlagsNone.String())
	require.Equal(t, "Secure", FlagsSecure.String())
	require.Equal(t, "HttpOnly", FlagsHTTPOnly.String())
	require.Equal(t, "Secure | HttpOnly", FlagsSecureHTTPOnly.String())
}
