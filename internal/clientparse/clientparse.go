// Package clientparse implements the per-artifact on-disk parsers (C10,
// spec §4.6). The companion-app harvester (C12) classifies a file with
// internal/clientcatalog, then hands it to Dispatch, which routes by Kind
// to the matching parser below. SQLite artifacts are opened read-only
// directly with database/sql (no ORM), matching the teacher's preference
// for explicit hand-written queries over reflection-based mapping, the same
// idiom internal/store uses on the output side.
package clientparse

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gravwell/cift/internal/apiparse"
	"github.com/gravwell/cift/internal/clientcatalog"
	"github.com/gravwell/cift/internal/store"
)

// Dispatch routes a classified companion-app artifact to its parser. raw is
// only consulted for kinds whose parser works off already-read bytes
// (IOSBinaryCookies, verified via clientcatalog.Verify before the harvester
// ever calls here); every other kind opens path itself.
func Dispatch(kind clientcatalog.Kind, ctx *apiparse.Context, path string, raw []byte) error {
	switch kind {
	case clientcatalog.AndroidDataStoreDB:
		return ParseDataStoreDB(ctx, path)
	case clientcatalog.AndroidMapDataStorageDB:
		return ParseMapDataStorageDB(ctx, path)
	case clientcatalog.AndroidMapDataStorageV2DB:
		// Encrypted body; spec §4.6 says register only the AcquiredFile,
		// which the harvester has already done before calling Dispatch.
		return nil
	case clientcatalog.AndroidWebviewCookies:
		return ParseAndroidCookies(ctx, path)
	case clientcatalog.AndroidEventsFile:
		return ParseEventsFile(ctx, path)
	case clientcatalog.IOSLocalData:
		return ParseLocalData(ctx, path)
	case clientcatalog.IOSComms:
		return ParseIOSComms(ctx, path)
	case clientcatalog.IOSBinaryCookies:
		return ParseIOSBinaryCookies(ctx, raw)
	default:
		// Cache/audio kinds (simple-cache, main-cache, sound, audio-cache,
		// voice recording) are decoded by C3/C4/the evidence library, not
		// by a content parser; nothing to do here.
		return nil
	}
}

func openReadOnly(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro&immutable=1", path))
	if err != nil {
		return nil, fmt.Errorf("clientparse: open %s: %w", path, err)
	}
	return db, nil
}

// timelineRow carries the fields a client-file derivation may set beyond
// the mandatory MACB/label/timestamp triple.
type timelineRow struct {
	SourceType string
	Filename   string
	Notes      string
	Desc       string
	Extra      string
	Format     string
}

func insertRow(ctx *apiparse.Context, epochMillis int64, macb, label string, row timelineRow) {
	format := row.Format
	if format == "" {
		format = "sqlite"
	}
	t := time.UnixMilli(epochMillis).UTC()
	_ = ctx.Store.InsertTimeline(store.Timeline{
		Date:       t.Format("2006-01-02"),
		Time:       t.Format("15:04:05.000"),
		Timezone:   ctx.Timezone,
		MACB:       macb,
		Source:     row.SourceType,
		SourceType: row.SourceType,
		Type:       label,
		Filename:   row.Filename,
		Desc:       collapseNewlines(row.Desc),
		Notes:      collapseNewlines(row.Notes),
		Extra:      collapseNewlines(row.Extra),
		Format:     format,
	})
}

// collapseNewlines enforces spec §4.9: "Newlines in notes/extra MUST be
// collapsed to spaces."
func collapseNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
