package store

// MACBRow is one normalized timeline row derived from a single artifact's
// birth/modified/changed timestamps (spec §4.9).
type MACBRow struct {
	MACB      string
	TypeLabel string
	Timestamp int64
}

// ComputeMACB turns a file or record's birth/modified/changed timestamps
// into zero, one, two, or three timeline rows, per spec §4.9's literal
// branch table. A timestamp of zero counts as absent. The three blocks
// (birth, modified, changed) are evaluated independently and each may
// contribute at most one row; coincidences between timestamps collapse
// letters onto a shared row rather than duplicating it.
//
// Verified against spec §8 scenario 2 (b=1000, m=2000, c=3000): three rows,
// "...B"@1000 "Created", "M..."@2000 "Last Updated", "..C."@3000 "Last Local Updated".
func ComputeMACB(birth, modified, changed int64) []MACBRow {
	var rows []MACBRow

	if birth != 0 {
		switch {
		case birth == modified && modified == changed:
			rows = append(rows, MACBRow{"M.CB", "Last Updated | Last Local Updated | Created", birth})
		case birth == modified && changed != birth:
			rows = append(rows, MACBRow{"M..B", "Last Updated | Created", birth})
		case birth != modified && birth == changed:
			rows = append(rows, MACBRow{"..CB", "Last Local Updated | Created", birth})
		default:
			rows = append(rows, MACBRow{"...B", "Created", birth})
		}
	}

	if modified != 0 && modified != birth {
		if modified == changed {
			rows = append(rows, MACBRow{"M.C.", "Last Updated | Last Local Updated", modified})
		} else {
			rows = append(rows, MACBRow{"M...", "Last Updated", modified})
		}
	}

	if changed != 0 && changed != birth && changed != modified {
		rows = append(rows, MACBRow{"..C.", "Last Local Updated", changed})
	}

	return rows
}
