package bytesutil

import (
	"fmt"
	"time"
)

// MacEpochOffset is the number of seconds between the Unix epoch and the
// Mac/Cocoa epoch (2001-01-01T00:00:00Z), used to convert binarycookie
// timestamps (spec §3.4, §4.3).
const MacEpochOffset int64 = 978307200

// FromMacEpochSeconds converts a Mac-epoch floating point second count (as
// stored in a binarycookie entry) into a UTC time.Time.
func FromMacEpochSeconds(sec float64) time.Time {
	return time.Unix(int64(sec)+MacEpochOffset, 0).UTC()
}

// FromUnixMillis converts an epoch millisecond count, the timestamp unit
// used throughout the Alexa/Google JSON payloads and the Android
// eventsFile/map_data_storage rows (spec §4.6).
func FromUnixMillis(ms int64) time.Time {
	return time.Unix(ms/1000, (ms%1000)*int64(time.Millisecond)).UTC()
}

// LocalParts splits a time.Time into the normalized-store's local calendar
// date, local time-of-day, and a "UTC±HH:MM" offset suffix (spec §3.5, §9:
// "the local offset is captured once per row, not globally"). The local
// zone is the system's, captured at the moment the row is produced.
func LocalParts(t time.Time) (date, clock, tz string) {
	lt := t.Local()
	date = lt.Format("2006-01-02")
	clock = lt.Format("15:04:05")
	_, offsetSec := lt.Zone()
	sign := "+"
	if offsetSec < 0 {
		sign = "-"
		offsetSec = -offsetSec
	}
	h := offsetSec / 3600
	m := (offsetSec % 3600) / 60
	tz = fmt.Sprintf("UTC%s%02d:%02d", sign, h, m)
	return
}
