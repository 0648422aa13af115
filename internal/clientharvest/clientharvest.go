// Package clientharvest is C12: the one-shot walk over a companion-device
// root directory that discovers every artifact internal/clientcatalog
// recognizes and hands it to internal/clientparse (or, for cached cloud
// responses recovered from a webview cache, straight into
// internal/apiparse).
//
// The walk shape is grounded on the teacher's filewatch.WatchManager.Add
// recursive-subdirectory idiom (filewatch/filewatch.go), adapted from a
// live fsnotify tail into a single filepath.WalkDir pass: this harvester
// runs once over an already-acquired companion-app directory tree, it does
// not watch for further changes.
package clientharvest

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gravwell/cift/internal/apiparse"
	"github.com/gravwell/cift/internal/blockcache"
	"github.com/gravwell/cift/internal/catalog"
	"github.com/gravwell/cift/internal/clientcatalog"
	"github.com/gravwell/cift/internal/clientparse"
	"github.com/gravwell/cift/internal/evidence"
	"github.com/gravwell/cift/internal/simplecache"
	"github.com/gravwell/cift/internal/store"
)

// Harvester walks one companion-device root directory.
type Harvester struct {
	store     *store.Store
	evidence  *evidence.Library
	catalog   *clientcatalog.Catalog
	timezone  string
	operation store.OperationType
	logf      func(format string, args ...interface{})

	// mainCacheDirs buckets every file classified AndroidWebviewMainCache
	// by its containing directory, since that cache's index+data_N files
	// must be decoded together (spec §4.2's main-cache chain traversal),
	// unlike every other recognized artifact which is one file = one unit.
	mainCacheDirs map[string]map[string]string
}

// New builds a Harvester for one companion-app platform. operation should
// be store.CompanionAppAndroid or store.CompanionAppIOS.
func New(st *store.Store, lib *evidence.Library, timezone string, operation store.OperationType) *Harvester {
	return &Harvester{
		store:         st,
		evidence:      lib,
		catalog:       clientcatalog.New(),
		timezone:      timezone,
		operation:     operation,
		logf:          func(string, ...interface{}) {},
		mainCacheDirs: make(map[string]map[string]string),
	}
}

// SetLogger installs a progress-log sink (wired by the orchestrator, C13).
func (h *Harvester) SetLogger(f func(format string, args ...interface{})) {
	if f != nil {
		h.logf = f
	}
}

// Walk classifies and parses every recognized artifact under root. A
// malformed or unreadable individual file is logged and skipped; it never
// aborts the walk (spec §9 guarantee, mirrored from the main-cache decoder's
// own "no single malformed entry aborts the whole walk").
func (h *Harvester) Walk(root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			h.logf("WARN  walk %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			h.logf("WARN  relativize %s: %v", path, err)
			return nil
		}
		rel = filepath.ToSlash(rel)
		h.handleFile(rel, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("clientharvest: walk %s: %w", root, err)
	}
	return h.flushMainCaches()
}

func (h *Harvester) handleFile(rel, abs string) {
	kind := h.catalog.Classify(rel)
	if kind == clientcatalog.UnknownKind {
		return
	}

	// Main-cache members are collected and decoded together once the walk
	// completes; per-file magic verification doesn't apply uniformly
	// across its index/data_N/f_* members.
	if kind == clientcatalog.AndroidWebviewMainCache {
		dir := filepath.Dir(rel)
		if h.mainCacheDirs[dir] == nil {
			h.mainCacheDirs[dir] = make(map[string]string)
		}
		h.mainCacheDirs[dir][filepath.Base(rel)] = abs
		return
	}

	verifiedKind, ok, err := h.catalog.Verify(rel, abs)
	if err != nil {
		h.logf("WARN  verify %s: %v", rel, err)
		return
	}
	if !ok {
		h.logf("WARN  HeaderInvalid %s (expected %s)", rel, kind)
		return
	}

	raw, err := os.ReadFile(abs)
	if err != nil {
		h.logf("WARN  read %s: %v", rel, err)
		return
	}

	switch verifiedKind {
	case clientcatalog.AndroidSoundCache, clientcatalog.AndroidAudioCache, clientcatalog.IOSVoiceRecording:
		h.registerVoiceData(rel, raw)
	case clientcatalog.AndroidWebviewSimpleCache:
		h.handleSimpleCacheEntry(rel, raw)
	default:
		h.registerAndParse(verifiedKind, rel, abs, raw)
	}
}

func (h *Harvester) registerAndParse(kind clientcatalog.Kind, rel, abs string, raw []byte) {
	fileID, err := h.register(rel, fmt.Sprintf("companion-app %s", kind), raw)
	if err != nil {
		h.logf("ERROR  register %s: %v", rel, err)
		return
	}
	ctx := &apiparse.Context{Store: h.store, FileID: fileID, Timezone: h.timezone}
	if err := clientparse.Dispatch(kind, ctx, abs, raw); err != nil {
		h.logf("ERROR  parse %s (%s): %v", rel, kind, err)
		return
	}
	h.logf("INFO  parsed %s (%s)", rel, kind)
}

func (h *Harvester) registerVoiceData(rel string, raw []byte) {
	if _, err := h.register(rel, "Voice Data: "+rel, raw); err != nil {
		h.logf("ERROR  register voice data %s: %v", rel, err)
		return
	}
	h.logf("INFO  registered voice data %s", rel)
}

// handleSimpleCacheEntry decodes one simple-cache file and, if its key is a
// recognized cloud-API URL, feeds the response body to C9 as if it had been
// fetched live: stream 1 when the entry has two streams (stream 0 is then
// the HTTP response headers), otherwise its only stream, stream 0.
func (h *Harvester) handleSimpleCacheEntry(rel string, raw []byte) {
	fileID, err := h.register(rel, "webview simple-cache entry", raw)
	if err != nil {
		h.logf("ERROR  register %s: %v", rel, err)
		return
	}
	entry, err := simplecache.Decode(raw)
	if err != nil {
		h.logf("WARN  decode simple-cache %s: %v", rel, err)
		return
	}
	h.dispatchCachedResponse(rel, fileID, entry.Key, entry.Streams)
}

func (h *Harvester) dispatchCachedResponse(rel string, fileID int64, key string, streams [][]byte) {
	code := catalog.Match(key)
	if code == catalog.UNKNOWN || !apiparse.Registered(code) {
		return
	}
	body := streams[0]
	if len(streams) > 1 {
		body = streams[1]
	}
	if len(body) == 0 {
		return
	}
	ctx := &apiparse.Context{Store: h.store, FileID: fileID, Timezone: h.timezone}
	if err := apiparse.Dispatch(code, ctx, body); err != nil {
		h.logf("WARN  parse cached response %s (%s): %v", rel, code, err)
		return
	}
	h.logf("INFO  recovered cached %s response from %s", code, rel)
}

// flushMainCaches decodes every main-cache directory discovered during the
// walk (spec §3.2, §4.1: index header + address table, then per-bucket
// chain traversal).
func (h *Harvester) flushMainCaches() error {
	for dir, members := range h.mainCacheDirs {
		if err := h.decodeMainCacheDir(dir, members); err != nil {
			h.logf("WARN  decode main-cache %s: %v", dir, err)
		}
	}
	return nil
}

// HarvestMainCacheDir decodes a standalone Chromium main-disk-cache
// directory acquired directly (spec §6.1's `chromium_main-disk-cache` input
// path), rather than one discovered while walking a companion-app tree.
func (h *Harvester) HarvestMainCacheDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("clientharvest: read %s: %w", dir, err)
	}
	members := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		members[e.Name()] = filepath.Join(dir, e.Name())
	}
	return h.decodeMainCacheDir(dir, members)
}

func (h *Harvester) decodeMainCacheDir(dir string, members map[string]string) error {
	indexPath, ok := members["index"]
	if !ok {
		return fmt.Errorf("clientharvest: %s has no index file", dir)
	}
	indexRaw, err := os.ReadFile(indexPath)
	if err != nil {
		return err
	}
	_, addrs, err := blockcache.ParseIndex(indexRaw)
	if err != nil {
		return err
	}

	files := make(blockcache.Files, len(members))
	for name, abs := range members {
		if name == "index" {
			continue
		}
		raw, err := os.ReadFile(abs)
		if err != nil {
			h.logf("WARN  read %s: %v", abs, err)
			continue
		}
		files[name] = raw
	}

	indexFileID, err := h.register(filepath.Join(dir, "index"), "webview main-cache index", indexRaw)
	if err != nil {
		return err
	}

	for _, addr := range addrs {
		if !addr.Valid() {
			continue
		}
		entries, err := blockcache.ResolveChain(files, addr)
		if err != nil {
			h.logf("WARN  main-cache chain %s: %v", addr.Filename, err)
			continue
		}
		for _, e := range entries {
			h.dispatchMainCacheEntry(dir, indexFileID, files, e)
		}
	}
	return nil
}

func (h *Harvester) dispatchMainCacheEntry(dir string, fileID int64, files blockcache.Files, e blockcache.Entry) {
	code := catalog.Match(e.Key)
	if code == catalog.UNKNOWN || !apiparse.Registered(code) {
		return
	}
	if e.DataStreamSizes[1] == 0 || !e.DataStreamAddresses[1].Valid() {
		return
	}
	body := readStream(files, e.DataStreamAddresses[1], e.DataStreamSizes[1])
	if len(body) == 0 {
		return
	}
	ctx := &apiparse.Context{Store: h.store, FileID: fileID, Timezone: h.timezone}
	if err := apiparse.Dispatch(code, ctx, body); err != nil {
		h.logf("WARN  parse cached response %s (%s): %v", dir, code, err)
		return
	}
	h.logf("INFO  recovered cached %s response from %s", code, dir)
}

// readStream slices a data stream out of its resolved cache address. A
// block-file address (BlockSize > 0) is read from the fixed block region;
// a separate-file address (file_type 0) is unresolved by design
// (internal/blockcache package doc) so the referenced file's own bytes,
// truncated to size, are used instead.
func readStream(files blockcache.Files, addr blockcache.Address, size uint32) []byte {
	data, ok := files[addr.Filename]
	if !ok {
		return nil
	}
	if addr.BlockSize > 0 {
		end := addr.BlockOffset + int(size)
		if addr.BlockOffset < 0 || end > len(data) {
			return nil
		}
		return data[addr.BlockOffset:end]
	}
	if int(size) > len(data) {
		return data
	}
	return data[:size]
}

func (h *Harvester) register(srcPath, desc string, body []byte) (int64, error) {
	_, path, err := h.evidence.Store(srcPath, body)
	if err != nil {
		return 0, fmt.Errorf("clientharvest: archive %s: %w", srcPath, err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	return h.store.InsertAcquiredFile(store.AcquiredFile{
		Operation:         h.operation,
		SrcPath:           srcPath,
		Desc:              desc,
		SavedPath:         path,
		SHA1:              sha1Hex(body),
		SavedTimestamp:    now,
		ModifiedTimestamp: now,
		Timezone:          h.timezone,
	})
}

func sha1Hex(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}
