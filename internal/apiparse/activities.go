package apiparse

import (
	"fmt"

	"github.com/gravwell/cift/internal/catalog"
)

func init() {
	register(catalog.Activities, activitiesParser{})
	register(catalog.ActivityDialogItem, activityDialogItemParser{})
}

// activitiesParser emits one row per activity and queues its id for the
// derived ACTIVITY_DIALOG_ITEM fetch (spec §4.5, §4.7).
type activitiesParser struct{}

func (activitiesParser) Parse(ctx *Context, payload []byte) error {
	if !validJSON(payload) {
		return fmt.Errorf("%w: activities", ErrBadPayload)
	}
	return eachArrayElement(payload, []string{"activities"}, func(a []byte) error {
		ts := getInt(a, "creationTimestamp")
		id := getStr(a, "id")
		if id != "" {
			ctx.Hints.ActivityIDs = append(ctx.Hints.ActivityIDs, id)
		}
		if ts == 0 {
			return nil
		}
		if ctx.Hints.OldestActivityTimestamp == nil || ts < *ctx.Hints.OldestActivityTimestamp {
			oldest := ts
			ctx.Hints.OldestActivityTimestamp = &oldest
		}
		return insertTimeline(ctx, ts, "...B", "Created", "activity", id)
	})
}

// activityDialogItemParser handles the derived endpoint: only
// ASR/TTS-typed dialog items produce rows (spec §4.5: "rows only for
// itemType in {ASR, TTS}").
type activityDialogItemParser struct{}

func (activityDialogItemParser) Parse(ctx *Context, payload []byte) error {
	if !validJSON(payload) {
		return fmt.Errorf("%w: activity_dialog_item", ErrBadPayload)
	}
	return eachArrayElement(payload, nil, func(item []byte) error {
		itemType := getStr(item, "itemType")
		if itemType != "ASR" && itemType != "TTS" {
			return nil
		}
		ts := getInt(item, "timestamp")
		if ts == 0 {
			return nil
		}
		return insertTimeline(ctx, ts, "...B", "Created", "activity_dialog_item:"+itemType, getStr(item, "id"))
	})
}
