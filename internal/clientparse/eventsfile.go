package clientparse

import (
	"bufio"
	"fmt"
	"os"

	gojson "github.com/goccy/go-json"

	"github.com/gravwell/cift/internal/apiparse"
)

type eventsFileLine struct {
	Timestamp int64 `json:"timestamp"`
}

// ParseEventsFile handles Android app_*/events/eventsFile (spec §4.6):
// newline-delimited JSON, one "...B" row per line keyed on "timestamp" (ms).
// A line that doesn't parse or carries no timestamp is skipped, not fatal,
// matching the continue-on-error policy spec §7 applies to parser input.
func ParseEventsFile(ctx *apiparse.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("clientparse: open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		var entry eventsFileLine
		if err := gojson.Unmarshal(sc.Bytes(), &entry); err != nil || entry.Timestamp == 0 {
			continue
		}
		insertRow(ctx, entry.Timestamp, "...B", "Created", timelineRow{
			SourceType: "events_file",
			Filename:   fmt.Sprintf("line:%d", line),
			Format:     "ndjson",
		})
	}
	return sc.Err()
}
