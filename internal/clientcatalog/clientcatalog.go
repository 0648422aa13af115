// Package clientcatalog is the on-disk artifact recognizer for a
// companion-device root directory (spec §6.4): it classifies a path
// relative to that root into one of the known Android/iOS artifact kinds
// and, where the magic bytes matter, verifies the file actually carries the
// expected signature before a client-file parser is allowed to touch it.
//
// Path matching is grounded on the teacher's filter-glob idiom in
// filters.go (a FilterManager keyed by gobwas/glob patterns); magic
// sniffing is grounded on utils/extract.go's use of h2non/filetype.
package clientcatalog

import (
	"bytes"
	"fmt"
	"os"

	"github.com/gobwas/glob"
	ft "github.com/h2non/filetype"
)

// Kind identifies a recognized companion-app artifact.
type Kind int

const (
	UnknownKind Kind = iota
	AndroidDataStoreDB
	AndroidMapDataStorageDB
	AndroidMapDataStorageV2DB
	AndroidWebviewCookies
	AndroidWebviewSimpleCache
	AndroidWebviewMainCache
	AndroidSoundCache
	AndroidAudioCache
	AndroidEventsFile
	IOSLocalData
	IOSComms
	IOSBinaryCookies
	IOSVoiceRecording
)

func (k Kind) String() string {
	switch k {
	case AndroidDataStoreDB:
		return "android-datastore-db"
	case AndroidMapDataStorageDB:
		return "android-map-data-storage-db"
	case AndroidMapDataStorageV2DB:
		return "android-map-data-storage-v2-db"
	case AndroidWebviewCookies:
		return "android-webview-cookies"
	case AndroidWebviewSimpleCache:
		return "android-webview-simple-cache"
	case AndroidWebviewMainCache:
		return "android-webview-main-cache"
	case AndroidSoundCache:
		return "android-sound-cache"
	case AndroidAudioCache:
		return "android-audio-cache"
	case AndroidEventsFile:
		return "android-events-file"
	case IOSLocalData:
		return "ios-local-data"
	case IOSComms:
		return "ios-comms"
	case IOSBinaryCookies:
		return "ios-binary-cookies"
	case IOSVoiceRecording:
		return "ios-voice-recording"
	default:
		return "unknown"
	}
}

// entry pairs a glob pattern (relative to the companion-device root) with
// the Kind it identifies and, optionally, a magic check to run over the
// file's leading bytes before trusting the path match.
type entry struct {
	kind    Kind
	pattern glob.Glob
	raw     string
	magic   func([]byte) bool
}

func isSQLite(b []byte) bool { return bytes.HasPrefix(b, []byte("SQLite format 3\x00")) }

func isBinaryCookies(b []byte) bool { return bytes.HasPrefix(b, []byte("cook")) }

func isChromiumMainCache(b []byte) bool {
	// index file signature, little-endian 0xC103CAC3.
	return len(b) >= 4 && b[0] == 0xC3 && b[1] == 0xCA && b[2] == 0x03 && b[3] == 0xC1
}

func isSimpleCacheEntry(b []byte) bool {
	return len(b) >= 8 && bytes.Equal(b[:8], []byte{0xFC, 0xFB, 0x6D, 0x1B, 0xA7, 0x72, 0x5C, 0x30})
}

func isMP3(b []byte) bool {
	return len(b) >= 2 && b[0] == 0xFF && (b[1]&0xF0) == 0xF0
}

func isMP4(b []byte) bool {
	return len(b) >= 8 && bytes.Equal(b[4:8], []byte("ftyp"))
}

func isWAV(b []byte) bool { return ft.IsType(b, "wav") }

func isAudio(b []byte) bool { return isMP3(b) || isMP4(b) || isWAV(b) }

// Catalog is the compiled set of recognized path patterns.
type Catalog struct {
	entries []entry
}

func mustGlob(pattern string) glob.Glob {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		panic(fmt.Sprintf("clientcatalog: bad pattern %q: %v", pattern, err))
	}
	return g
}

// New compiles the fixed §6.4 path table.
func New() *Catalog {
	specs := []struct {
		kind  Kind
		glob  string
		magic func([]byte) bool
	}{
		{AndroidDataStoreDB, "databases/DataStore.db", isSQLite},
		{AndroidMapDataStorageDB, "databases/map_data_storage.db", isSQLite},
		{AndroidMapDataStorageV2DB, "databases/map_data_storage_v2.db", isSQLite},
		{AndroidWebviewCookies, "app_webview/Cookies", isSQLite},
		{AndroidWebviewSimpleCache, "app_webview/cache/**", isSimpleCacheEntry},
		{AndroidWebviewSimpleCache, "cache/org.chromium.android_webview/**", isSimpleCacheEntry},
		{AndroidWebviewMainCache, "app_webview/Application Cache/Cache/**", isChromiumMainCache},
		{AndroidSoundCache, "cache/sound", isWAV},
		{AndroidAudioCache, "files/audio_cache/*.1", isAudio},
		{AndroidEventsFile, "app_*/events/eventsFile", nil},
		{IOSLocalData, "Documents/LocalData.sqlite", isSQLite},
		{IOSComms, "Documents/AlexaMobileiOSComms.sqlite", isSQLite},
		{IOSBinaryCookies, "Library/Cookies/Cookies.binarycookies", isBinaryCookies},
		{IOSVoiceRecording, "Documents/Record-*", isAudio},
		{IOSVoiceRecording, "Documents/Download_*", isAudio},
	}
	c := &Catalog{}
	for _, s := range specs {
		c.entries = append(c.entries, entry{kind: s.kind, pattern: mustGlob(s.glob), raw: s.glob, magic: s.magic})
	}
	return c
}

// Classify reports the Kind of relPath (slash-separated, relative to the
// companion-device root) by pattern, without touching the filesystem.
func (c *Catalog) Classify(relPath string) Kind {
	for _, e := range c.entries {
		if e.pattern.Match(relPath) {
			return e.kind
		}
	}
	return UnknownKind
}

const sniffLen = 64

// Verify confirms that absPath's leading bytes match the magic expected for
// relPath's classified Kind. A Kind with no registered magic check (e.g.
// the NDJSON events file) always verifies. Returns UnknownKind's
// zero-value false if relPath doesn't match any pattern at all.
func (c *Catalog) Verify(relPath, absPath string) (Kind, bool, error) {
	for _, e := range c.entries {
		if !e.pattern.Match(relPath) {
			continue
		}
		if e.magic == nil {
			return e.kind, true, nil
		}
		f, err := os.Open(absPath)
		if err != nil {
			return e.kind, false, fmt.Errorf("clientcatalog: open %s: %w", absPath, err)
		}
		defer f.Close()
		buf := make([]byte, sniffLen)
		n, err := f.Read(buf)
		if err != nil && n == 0 {
			return e.kind, false, fmt.Errorf("clientcatalog: read %s: %w", absPath, err)
		}
		return e.kind, e.magic(buf[:n]), nil
	}
	return UnknownKind, false, nil
}
