package cloudharvest

import (
	"strings"

	"github.com/gravwell/cift/internal/catalog"
)

// HarvestGoogle runs the single-endpoint Google Assistant crawl (spec
// §4.8): fetch once with no cursor, then keep paging the JSPB-framed
// activities feed while the prior page's next_cursor was non-empty.
func (h *Harvester) HarvestGoogle() {
	e := entryFor(catalog.GoogleActivities)
	cursor := ""
	first := true
	for {
		var u string
		if first {
			u = strings.Replace(e.URLPrimary, "?ct={}", "", 1)
			first = false
		} else {
			u = withParam(e.URLPrimary, cursor)
		}
		ctx, err := h.fetchAndParse(e.Code, u, nil)
		if err != nil || ctx == nil {
			return
		}
		if ctx.Hints.NextCursor == "" {
			return
		}
		cursor = ctx.Hints.NextCursor
	}
}
