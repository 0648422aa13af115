package apiparse

import (
	"fmt"

	"github.com/gravwell/cift/internal/catalog"
)

func init() {
	register(catalog.Cards, cardsParser{})
}

// cardsParser emits one timeline row per card ("...B") and records the
// next page cursor in ctx.Hints.NextQueryTime for the harvester's
// CARDS pagination loop (spec §4.5, §4.7: "terminate on -1").
type cardsParser struct{}

func (cardsParser) Parse(ctx *Context, payload []byte) error {
	if !validJSON(payload) {
		return fmt.Errorf("%w: cards", ErrBadPayload)
	}
	err := eachArrayElement(payload, []string{"cards"}, func(c []byte) error {
		ts := getInt(c, "creationTimestamp")
		if ts == 0 {
			return nil
		}
		extra := ""
		if voiceID := getStr(c, "utteranceId"); voiceID != "" {
			extra = fmt.Sprintf("%s%s\"", catalog.VoiceURLPrefixAlexa, voiceID)
		}
		return insertTimelineWithExtra(ctx, ts, "...B", "Created", "card", getStr(c, "cardId"), extra)
	})
	if err != nil {
		return err
	}

	next := getInt(payload, "nextQueryTime")
	ctx.Hints.NextQueryTime = &next
	return nil
}
