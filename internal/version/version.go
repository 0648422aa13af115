// Package version carries the tool's own build identity, printed once into
// the progress log header (internal/progresslog) and by cmd/cift's -v
// flag.
package version

import (
	"fmt"
	"io"
	"time"
)

const (
	MajorVersion int = 1
	MinorVersion int = 0
	PointVersion int = 0
)

var BuildDate = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

// String renders "major.minor.point".
func String() string {
	return fmt.Sprintf("%d.%d.%d", MajorVersion, MinorVersion, PointVersion)
}

// Print writes a short version/build-date block to wtr.
func Print(wtr io.Writer) {
	fmt.Fprintf(wtr, "Version:\t%s\n", String())
	fmt.Fprintf(wtr, "BuildDate:\t%s\n", BuildDate.Format(`2006-01-02 15:04:05`))
}
