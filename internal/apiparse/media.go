package apiparse

import (
	"fmt"

	"github.com/gravwell/cift/internal/catalog"
)

func init() {
	register(catalog.MediaHistory, mediaHistoryParser{})
}

// mediaHistoryParser handles MEDIA_HISTORY: rows from both "media" and
// "sessions" sub-arrays, with host set to the device serial extracted from
// the request URL (spec §4.5). The harvester supplies that serial via
// ctx.DeviceSerial since it lives in the URL query, not the response body.
type mediaHistoryParser struct{}

func (mediaHistoryParser) Parse(ctx *Context, payload []byte) error {
	if !validJSON(payload) {
		return fmt.Errorf("%w: media_history", ErrBadPayload)
	}
	for _, key := range []string{"media", "sessions"} {
		err := eachArrayElement(payload, []string{key}, func(m []byte) error {
			ts := getInt(m, "creationTimestamp")
			if ts == 0 {
				return nil
			}
			return insertTimelineWithHost(ctx, ts, "...B", "Created", "media_history:"+key, getStr(m, "id"), ctx.DeviceSerial)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
