// Package binarycookie decodes iOS "Cookies.binarycookies" jars (spec §3.4,
// §4.3), the paged cookie store written by WKWebView/NSHTTPCookieStorage.
//
// Layout, grounded on original_source/pycift/utility/binary_cookie.py:
//
//	"cook"                              4 bytes, magic
//	page count                          4 bytes, big-endian
//	page count * (page size)            4 bytes each, big-endian
//	page count * (page bytes)           variable, one page per size above
//
// Each page is itself:
//
//	page header                         4 bytes, always 0x00000100
//	cookie count                        4 bytes, little-endian
//	cookie count * (cookie offset)      4 bytes each, little-endian, relative to page start
//	page trailer                        4 bytes, always zero
//
// Each cookie record (addressed by a page-relative offset):
//
//	cookie size                         4 bytes LE
//	unknown                             4 bytes
//	flags                               4 bytes LE (0=none,1=Secure,4=HttpOnly,5=Secure|HttpOnly)
//	unknown                             4 bytes
//	url/name/path/value offsets         4 bytes LE each, relative to the cookie record start
//	terminator                          8 bytes
//	expiry (Mac-epoch seconds, double)  8 bytes LE
//	creation (Mac-epoch seconds, double) 8 bytes LE
//	NUL-terminated strings at the four offsets above, counted from the
//	record start (the size field included)
package binarycookie

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gravwell/cift/internal/bytesutil"
)

var (
	ErrBadMagic        = errors.New("binarycookie: bad file signature")
	ErrTruncatedPage   = errors.New("binarycookie: truncated page")
	ErrTruncatedCookie = errors.New("binarycookie: truncated cookie record")
)

var signature = [4]byte{'c', 'o', 'o', 'k'}

type Flags int

const (
	FlagsNone Flags = iota
	FlagsSecure
	FlagsHTTPOnly
	FlagsSecureHTTPOnly
	FlagsUnknown
)

func (f Flags) String() string {
	switch f {
	case FlagsNone:
		return ""
	case FlagsSecure:
		return "Secure"
	case FlagsHTTPOnly:
		return "HttpOnly"
	case FlagsSecureHTTPOnly:
		return "Secure | HttpOnly"
	default:
		return "Unknown"
	}
}

func flagsFromRaw(v uint32) Flags {
	switch v {
	case 0:
		return FlagsNone
	case 1:
		return FlagsSecure
	case 4:
		return FlagsHTTPOnly
	case 5:
		return FlagsSecureHTTPOnly
	default:
		return FlagsUnknown
	}
}

// Cookie is a single decoded cookie entry (spec §3.4).
type Cookie struct {
	Domain     string
	Name       string
	Path       string
	Value      string
	Flags      Flags
	CreatedUTC time.Time
	ExpiryUTC  time.Time
}

// Page groups the cookies that shared a page in the source file; decode
// order within and across pages is preserved (spec §4.3: "Emit ... per
// page" in source order).
type Page struct {
	Cookies []Cookie
}

// Decode parses a full Cookies.binarycookies buffer into its pages.
func Decode(buf []byte) ([]Page, error) {
	if len(buf) < 8 || [4]byte(buf[:4]) != signature {
		return nil, ErrBadMagic
	}
	off := 4
	pageCount := int(binary.BigEndian.Uint32(buf[off:]))
	off += 4

	pageSizes := make([]int, pageCount)
	for i := 0; i < pageCount; i++ {
		if off+4 > len(buf) {
			return nil, ErrTruncatedPage
		}
		pageSizes[i] = int(binary.BigEndian.Uint32(buf[off:]))
		off += 4
	}

	pages := make([]Page, 0, pageCount)
	for _, sz := range pageSizes {
		if off+sz > len(buf) {
			return nil, ErrTruncatedPage
		}
		page, err := decodePage(buf[off : off+sz])
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
		off += sz
	}
	return pages, nil
}

func decodePage(page []byte) (Page, error) {
	if len(page) < 12 {
		return Page{}, ErrTruncatedPage
	}
	// 4-byte page header (always 0x00000100), then cookie count.
	cookieCount := int(binary.LittleEndian.Uint32(page[4:]))
	offsets := make([]int, cookieCount)
	cursor := 8
	for i := 0; i < cookieCount; i++ {
		if cursor+4 > len(page) {
			return Page{}, ErrTruncatedPage
		}
		offsets[i] = int(binary.LittleEndian.Uint32(page[cursor:]))
		cursor += 4
	}
	// 4-byte page trailer, always zero; no further fields follow it.

	out := Page{Cookies: make([]Cookie, 0, cookieCount)}
	for _, recOff := range offsets {
		c, err := decodeCookie(page, recOff)
		if err != nil {
			return Page{}, fmt.Errorf("cookie at page offset %d: %w", recOff, err)
		}
		out.Cookies = append(out.Cookies, c)
	}
	return out, nil
}

func decodeCookie(page []byte, recOff int) (Cookie, error) {
	if recOff < 0 || recOff+56 > len(page) {
		return Cookie{}, ErrTruncatedCookie
	}
	r := bytesutil.NewReader(page[recOff:])

	size, err := r.U32()
	if err != nil {
		return Cookie{}, err
	}
	if recOff+int(size) > len(page) {
		return Cookie{}, ErrTruncatedCookie
	}
	record := page[recOff : recOff+int(size)]
	r = bytesutil.NewReader(record)

	if _, err := r.U32(); err != nil { // size (re-read, already consumed above via record slice)
		return Cookie{}, err
	}
	if _, err := r.U32(); err != nil { // unknown
		return Cookie{}, err
	}
	rawFlags, err := r.U32()
	if err != nil {
		return Cookie{}, err
	}
	if _, err := r.U32(); err != nil { // unknown
		return Cookie{}, err
	}
	urlOff, err := r.U32()
	if err != nil {
		return Cookie{}, err
	}
	nameOff, err := r.U32()
	if err != nil {
		return Cookie{}, err
	}
	pathOff, err := r.U32()
	if err != nil {
		return Cookie{}, err
	}
	valueOff, err := r.U32()
	if err != nil {
		return Cookie{}, err
	}
	if err := r.Skip(8); err != nil { // terminator
		return Cookie{}, err
	}
	expiryRaw, err := r.U64()
	if err != nil {
		return Cookie{}, err
	}
	createRaw, err := r.U64()
	if err != nil {
		return Cookie{}, err
	}

	// url/name/path/value offsets are counted from the start of the cookie
	// record's variable-field region (stream position 4 bytes before the
	// point where the size field was already consumed); in terms of the
	// full record slice (which still includes the leading 4-byte size
	// field) that lands at exactly the raw offset value itself.
	domain, err := bytesutil.CStringAt(record, int(urlOff))
	if err != nil {
		return Cookie{}, fmt.Errorf("domain: %w", err)
	}
	name, err := bytesutil.CStringAt(record, int(nameOff))
	if err != nil {
		return Cookie{}, fmt.Errorf("name: %w", err)
	}
	path, err := bytesutil.CStringAt(record, int(pathOff))
	if err != nil {
		return Cookie{}, fmt.Errorf("path: %w", err)
	}
	value, err := bytesutil.CStringAt(record, int(valueOff))
	if err != nil {
		return Cookie{}, fmt.Errorf("value: %w", err)
	}

	return Cookie{
		Domain:     domain,
		Name:       name,
		Path:       path,
		Value:      value,
		Flags:      flagsFromRaw(rawFlags),
		CreatedUTC: bytesutil.FromMacEpochSeconds(math.Float64frombits(createRaw)),
		ExpiryUTC:  bytesutil.FromMacEpochSeconds(math.Float64frombits(expiryRaw)),
	}, nil
}

// Serialize renders a page's cookies the way spec §4.3 describes for the
// evidence/report layer: "domain, serialized name:value list joined by
// ',\n'" per page.
func (p Page) Serialize() (domain string, serialized string) {
	lines := make([]string, 0, len(p.Cookies))
	for _, c := range p.Cookies {
		domain = c.Domain
		lines = append(lines, fmt.Sprintf("%q: %q", c.Name, c.Value))
	}
	serialized = joinLines(lines)
	return
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += ",\n"
		}
		out += l
	}
	return out
}
