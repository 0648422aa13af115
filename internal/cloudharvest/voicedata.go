package cloudharvest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gravwell/cift/internal/catalog"
)

var filenameSanitizer = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

const maxTranscriptLen = 63

// sanitizeTranscript produces a filesystem-safe fragment from a transcript,
// truncated to maxTranscriptLen with a trailing ellipsis (spec §4.7.3:
// "sanitized, max 63 chars, appended ellipsis").
func sanitizeTranscript(s string) string {
	s = strings.TrimSpace(filenameSanitizer.ReplaceAllString(s, "_"))
	if len(s) > maxTranscriptLen {
		return s[:maxTranscriptLen] + "..."
	}
	return s
}

func voiceDataName(isoTimestamp, transcript string) string {
	if transcript == "" || transcript == "-" {
		return isoTimestamp
	}
	return isoTimestamp + "_" + sanitizeTranscript(transcript)
}

// HarvestAlexaVoiceData downloads every voice recording referenced from a
// CARDS timeline row and registers it as a Voice Data AcquiredFile
// (spec §4.7.3).
func (h *Harvester) HarvestAlexaVoiceData() error {
	rows, err := h.store.TimelineRowsWithExtraPrefix(catalog.VoiceURLPrefixAlexa)
	if err != nil {
		return fmt.Errorf("cloudharvest: list alexa voice cards: %w", err)
	}
	for _, row := range rows {
		voiceID := strings.TrimSuffix(strings.TrimPrefix(row.Extra, catalog.VoiceURLPrefixAlexa), `"`)
		if voiceID == "" {
			continue
		}
		url := "https://alexa.amazon.com/api/utterance/audio/data?id=" + voiceID
		h.downloadVoiceData(url, row.Date+"T"+row.Time, row.Desc)
	}
	return nil
}

// HarvestGoogleVoiceData is the Google Assistant analog (spec §4.8): the
// voice id's leading digits (all but its last three characters) encode the
// event's unix-ms timestamp.
func (h *Harvester) HarvestGoogleVoiceData() error {
	rows, err := h.store.TimelineRowsWithExtraPrefix(catalog.VoiceURLPrefixGoogle)
	if err != nil {
		return fmt.Errorf("cloudharvest: list google voice activities: %w", err)
	}
	for _, row := range rows {
		voiceID := strings.TrimPrefix(row.Extra, catalog.VoiceURLPrefixGoogle)
		if len(voiceID) <= 3 {
			continue
		}
		ts := decodeGoogleVoiceTimestamp(voiceID, row.Date+"T"+row.Time)
		h.downloadVoiceData(catalog.VoiceURLPrefixGoogle+voiceID, ts, row.Desc)
	}
	return nil
}

// decodeGoogleVoiceTimestamp recovers the embedded unix-ms timestamp from a
// Google voice id, falling back to fallbackISO if the leading digits don't
// parse as an integer.
func decodeGoogleVoiceTimestamp(voiceID, fallbackISO string) string {
	if len(voiceID) <= 3 {
		return fallbackISO
	}
	ms, err := strconv.ParseInt(voiceID[:len(voiceID)-3], 10, 64)
	if err != nil {
		return fallbackISO
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

func (h *Harvester) downloadVoiceData(url, isoTimestamp, transcript string) {
	body, err := h.fetchRaw(url)
	if err != nil {
		h.logf("ERROR  download voice data %s: %v", url, err)
		return
	}
	name := voiceDataName(isoTimestamp, transcript)
	if _, err := h.register(url, "Voice Data: "+name, body); err != nil {
		h.logf("ERROR  register voice data %s: %v", url, err)
		return
	}
	h.logf("INFO  downloaded voice data %s -> %s", url, name)
}
