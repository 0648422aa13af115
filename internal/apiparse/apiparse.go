// Package apiparse is C9: one transformer per Alexa/Google cloud-API
// endpoint (spec §4.5), each turning a raw JSON (or JSPB) response body
// into normalized-store rows.
//
// The dispatch shape is grounded on the teacher's ingest/processors
// package: a Parser interface with one concrete implementation per
// catalog.Code, collected into an exhaustive registry built at init() and
// checked for completeness by a test that walks every non-derived
// catalog.Code (mirrors ingest/processors/processors.go's CheckProcessor
// exhaustive switch). Field extraction from loosely-typed API JSON uses
// github.com/gravwell/jsonparser, the same library the teacher's Shodan
// ingester uses for ad-hoc field access without a full struct decode.
package apiparse

import (
	"errors"
	"fmt"

	"github.com/gravwell/cift/internal/catalog"
	"github.com/gravwell/cift/internal/store"
)

var (
	ErrNoParser   = errors.New("apiparse: no parser registered for code")
	ErrBadPayload = errors.New("apiparse: malformed response payload")
)

// Context carries everything a Parser needs beyond the raw payload: the
// store to write rows into, the AcquiredFile id every row it writes must
// reference, the record's timezone, and a place to deposit pagination/
// sub-fetch hints the cloud harvester (C11) needs to continue the crawl.
type Context struct {
	Store    *store.Store
	FileID   int64
	Timezone string

	// DeviceSerial is the device_serial_number the harvester extracted
	// from the request URL's query string; only MEDIA_HISTORY uses it
	// (spec §4.5: "host = deviceSerialNumber extracted from the URL query").
	DeviceSerial string

	// Hints accumulates endpoint-specific continuation data a parser
	// discovers while transforming its response (activity ids to re-fetch
	// as ACTIVITY_DIALOG_ITEM, a commsId to thread into subsequent comms
	// calls, device serials to drive MEDIA_HISTORY, etc).
	Hints Hints
}

// Hints is deliberately a flat bag of slices rather than one struct per
// endpoint: only the harvester (C11) interprets it, and which fields are
// populated depends entirely on which Parser ran.
type Hints struct {
	ActivityIDs      []string
	NamedListItemIDs []string
	CommsIDs         []string
	ConversationIDs  []string
	NextQueryTime    *int64
	NextCursor       string

	// OldestActivityTimestamp is the minimum creationTimestamp seen in an
	// ACTIVITIES page, letting the harvester continue paging by startDate
	// once every activity on the current page has had its dialog items
	// fetched (spec §4.7: "continue paging activities by startDate").
	OldestActivityTimestamp *int64
}

// Parser transforms one endpoint's raw response body into normalized-store
// rows, writing them directly via ctx.Store using ctx.FileID as the source.
type Parser interface {
	Parse(ctx *Context, payload []byte) error
}

// registry is the exhaustive code->Parser table, built at init() and
// checked for completeness in apiparse_test.go.
var registry = map[catalog.Code]Parser{}

func register(code catalog.Code, p Parser) {
	registry[code] = p
}

// Dispatch looks up and runs the parser registered for code.
func Dispatch(code catalog.Code, ctx *Context, payload []byte) error {
	p, ok := registry[code]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoParser, code)
	}
	return p.Parse(ctx, payload)
}

// Registered reports whether code has a parser, for the completeness test.
func Registered(code catalog.Code) bool {
	_, ok := registry[code]
	return ok
}
