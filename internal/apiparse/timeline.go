package apiparse

import (
	"fmt"
	"time"

	"github.com/gravwell/cift/internal/store"
)

// insertTimeline writes one Timeline row for a millisecond-epoch timestamp.
// filename carries whatever natural identifier the source record has (an
// appliance id, an item id, a conversation id) since the normalized store
// has no foreign key for non-AcquiredFile provenance. A failed insert is a
// DbError (spec §7.5): it is returned rather than swallowed, so the
// containing Parse call aborts and the harvester logs it.
func insertTimeline(ctx *Context, epochMillis int64, macb, label, sourceType, filename string) error {
	t := time.UnixMilli(epochMillis).UTC()
	if err := ctx.Store.InsertTimeline(store.Timeline{
		Date:       t.Format("2006-01-02"),
		Time:       t.Format("15:04:05.000"),
		Timezone:   ctx.Timezone,
		MACB:       macb,
		Source:     sourceType,
		SourceType: sourceType,
		Type:       label,
		Filename:   filename,
		Format:     "json",
	}); err != nil {
		return fmt.Errorf("apiparse: insert timeline: %w", err)
	}
	return nil
}

// insertTimelineWithExtra is insertTimeline plus an "extra" field, used by
// endpoints whose rows carry a voice-recording URL fragment (spec §4.7:
// Cards) or other auxiliary text.
func insertTimelineWithExtra(ctx *Context, epochMillis int64, macb, label, sourceType, filename, extra string) error {
	t := time.UnixMilli(epochMillis).UTC()
	if err := ctx.Store.InsertTimeline(store.Timeline{
		Date:       t.Format("2006-01-02"),
		Time:       t.Format("15:04:05.000"),
		Timezone:   ctx.Timezone,
		MACB:       macb,
		Source:     sourceType,
		SourceType: sourceType,
		Type:       label,
		Filename:   filename,
		Format:     "json",
		Extra:      extra,
	}); err != nil {
		return fmt.Errorf("apiparse: insert timeline: %w", err)
	}
	return nil
}

// insertTimelineWithHost is insertTimeline plus an explicit host field
// (spec §4.5: MEDIA_HISTORY's host = the device serial from the request URL).
func insertTimelineWithHost(ctx *Context, epochMillis int64, macb, label, sourceType, filename, host string) error {
	t := time.UnixMilli(epochMillis).UTC()
	if err := ctx.Store.InsertTimeline(store.Timeline{
		Date:       t.Format("2006-01-02"),
		Time:       t.Format("15:04:05.000"),
		Timezone:   ctx.Timezone,
		MACB:       macb,
		Source:     sourceType,
		SourceType: sourceType,
		Type:       label,
		Host:       host,
		Filename:   filename,
		Format:     "json",
	}); err != nil {
		return fmt.Errorf("apiparse: insert timeline: %w", err)
	}
	return nil
}

// msTimestampsToRows turns up to three candidate epoch-millisecond
// timestamps (created, last-updated, last-local-updated) into 1..3
// timeline rows via the MACB normalizer (spec §4.5: "three candidate
// timestamps ... yield 1..3 rows per item").
func msTimestampsToRows(ctx *Context, created, lastUpdated, lastLocalUpdated int64, sourceType, filename string) error {
	for _, row := range store.ComputeMACB(created, lastUpdated, lastLocalUpdated) {
		if err := insertTimeline(ctx, row.Timestamp, row.MACB, row.TypeLabel, sourceType, filename); err != nil {
			return err
		}
	}
	return nil
}
