package apiparse

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	jp "github.com/gravwell/jsonparser"

	"github.com/gravwell/cift/internal/catalog"
	"github.com/gravwell/cift/internal/store"
)

func init() {
	register(catalog.GoogleActivities, googleActivitiesParser{})
}

// jspbSecurityPrefix is Google's anti-JSON-hijacking response prefix,
// stripped before the payload is parsed as an array (spec §4.5: "must first
// strip the security prefix )]}' (exactly 4 bytes; the payload proper
// begins at offset 6 to skip the prefix plus one leading newline+comma)").
const jspbSecurityPrefix = ")]}'"

// googleActivitiesParser handles GOOGLE_ACTIVITIES, a JSPB-framed feed
// whose outer value is a 2-element array [activities, next_cursor]. Each
// activity is a mixed array with 10 fields (short form, ACTIVATED-only) or
// 20-26 fields (full form) read by fixed index (spec §4.5).
type googleActivitiesParser struct{}

func (googleActivitiesParser) Parse(ctx *Context, payload []byte) error {
	body := stripJSPBPrefix(payload)
	if !validJSON(body) {
		return fmt.Errorf("%w: google_activities", ErrBadPayload)
	}

	var activities [][]byte
	eachArrayElement(body, []string{"[0]"}, func(a []byte) error {
		activities = append(activities, append([]byte{}, a...))
		return nil
	})
	for _, a := range activities {
		if err := parseGoogleActivity(ctx, a); err != nil {
			return err
		}
	}

	if cursor, err := jp.GetString(body, "[1]"); err == nil && cursor != "" {
		ctx.Hints.NextCursor = cursor
	}
	return nil
}

func stripJSPBPrefix(payload []byte) []byte {
	if bytes.HasPrefix(payload, []byte(jspbSecurityPrefix)) && len(payload) > 6 {
		return payload[6:]
	}
	return payload
}

// jspbIndex extracts the slot at position idx from a top-level JSPB array
// record, returning nil if idx is out of range or absent.
func jspbIndex(record []byte, idx int) []byte {
	v, _, _, err := jp.Get(record, "["+strconv.Itoa(idx)+"]")
	if err != nil {
		return nil
	}
	return v
}

func parseGoogleActivity(ctx *Context, record []byte) error {
	msText := jspbIndex(record, 4)
	if msText == nil {
		return nil
	}
	ms, err := strconv.ParseInt(string(bytes.Trim(msText, `"`)), 10, 64)
	if err != nil || ms == 0 {
		return nil
	}

	short := ""
	notes := ""
	if jspbIndex(record, 10) == nil {
		// Short form (at most 10 fields): an activation with no transcript.
		notes = "ACTIVATED"
	} else if field9 := jspbIndex(record, 9); field9 != nil {
		if v, err := jp.GetString(field9, "[0]"); err == nil && v != "" {
			short = v
		}
	}

	desc := ""
	if field13 := jspbIndex(record, 13); field13 != nil {
		if v, ok := firstNonEmptyNested(field13, "[0]", "[0]"); ok {
			desc = v
		} else if v, ok := firstNonEmptyNested(field13, "[1]", "[0]"); ok {
			desc = v
		}
	}

	extra := ""
	if field24 := jspbIndex(record, 24); field24 != nil {
		if v, err := jp.GetString(field24, "[0]"); err == nil && v != "" {
			extra = catalog.VoiceURLPrefixGoogle + v
		}
	}

	t := time.UnixMilli(ms).UTC()
	if err := ctx.Store.InsertTimeline(store.Timeline{
		Date:       t.Format("2006-01-02"),
		Time:       t.Format("15:04:05.000"),
		Timezone:   ctx.Timezone,
		MACB:       "...B",
		Source:     "google_activity",
		SourceType: "google_activity",
		Type:       "Created",
		Short:      short,
		Desc:       store.Default(desc),
		Notes:      notes,
		Filename:   "",
		Format:     "jspb",
		Extra:      extra,
	}); err != nil {
		return fmt.Errorf("apiparse: insert google_activity timeline: %w", err)
	}
	return nil
}

func firstNonEmptyNested(data []byte, keys ...string) (string, bool) {
	v, err := jp.GetString(data, keys...)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}
