package apiparse

import (
	"fmt"

	"github.com/gravwell/cift/internal/catalog"
)

func init() {
	register(catalog.CommsConversation, commsConversationParser{})
	register(catalog.CommsConversationMessages, commsConversationMessagesParser{})
}

// commsConversationParser handles the conversation list endpoint: one
// "M..." row per conversation, and queues each conversation id for the
// derived messages fetch (spec §4.5, §4.7).
type commsConversationParser struct{}

func (commsConversationParser) Parse(ctx *Context, payload []byte) error {
	if !validJSON(payload) {
		return fmt.Errorf("%w: comms_conversation", ErrBadPayload)
	}
	return eachArrayElement(payload, []string{"conversations"}, func(c []byte) error {
		id := getStr(c, "conversationId")
		if id != "" {
			ctx.Hints.ConversationIDs = append(ctx.Hints.ConversationIDs, id)
		}
		ts := getInt(c, "lastUpdatedTimestamp")
		if ts == 0 {
			return nil
		}
		return insertTimeline(ctx, ts, "M...", "Last Updated", "comms_conversation", id)
	})
}

// commsConversationMessagesParser handles the derived messages endpoint:
// one "...B" row per message; audio messages additionally carry a voice
// URL in extra (spec §4.5).
type commsConversationMessagesParser struct{}

func (commsConversationMessagesParser) Parse(ctx *Context, payload []byte) error {
	if !validJSON(payload) {
		return fmt.Errorf("%w: comms_conversation_messages", ErrBadPayload)
	}
	return eachArrayElement(payload, []string{"messages"}, func(m []byte) error {
		ts := getInt(m, "time")
		if ts == 0 {
			return nil
		}
		extra := ""
		if getStr(m, "messageType") == "AUDIO" {
			if url := getStr(m, "audioUrl"); url != "" {
				extra = fmt.Sprintf("Voice message: %q", url)
			}
		}
		return insertTimelineWithExtra(ctx, ts, "...B", "Created", "comms_message", getStr(m, "id"), extra)
	})
}
