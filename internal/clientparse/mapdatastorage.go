package clientparse

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gravwell/cift/internal/apiparse"
)

// mapDataStorageTables are the four tables map_data_storage.db always
// carries (spec §4.6). No column list for this artifact survives in the
// retrieval pack (it is an on-device cache DB, not one of the documented
// peewee models), so each table is walked generically: every row yields
// one "M..." timeline row keyed on whichever column ends in "_timestamp",
// with every other column folded into extra as "key=value" pairs and any
// boolean-looking deleted/dirty columns folded into notes.
var mapDataStorageTables = []string{"accounts", "device_data", "tokens", "userdata"}

// ParseMapDataStorageDB handles Android databases/map_data_storage.db.
func ParseMapDataStorageDB(ctx *apiparse.Context, path string) error {
	db, err := openReadOnly(path)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, table := range mapDataStorageTables {
		rows, err := db.Query(fmt.Sprintf("SELECT * FROM %s", table))
		if err != nil {
			// Not every artifact necessarily has all four tables
			// populated across app versions; skip rather than abort.
			continue
		}
		if err := walkMapDataStorageTable(ctx, rows, table); err != nil {
			rows.Close()
			return err
		}
		rows.Close()
	}
	return nil
}

func walkMapDataStorageTable(ctx *apiparse.Context, rows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(...interface{}) error
	Err() error
}, table string) error {
	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("clientparse: columns %s: %w", table, err)
	}

	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("clientparse: scan %s: %w", table, err)
		}

		row := map[string]interface{}{}
		for i, c := range cols {
			row[c] = vals[i]
		}

		ts, idCol := findTimestampColumn(row)
		if ts == 0 {
			continue
		}
		insertRow(ctx, ts, "M...", "Last Updated", timelineRow{
			SourceType: "map_data_storage:" + table,
			Filename:   stringifyCell(row[idCol]),
			Notes:      flagNotes(row),
			Extra:      keyValueExtra(row),
		})
	}
	return rows.Err()
}

func findTimestampColumn(row map[string]interface{}) (int64, string) {
	cols := sortedKeys(row)
	for _, c := range cols {
		if strings.HasSuffix(strings.ToLower(c), "_timestamp") {
			if ts := cellToInt64(row[c]); ts != 0 {
				return ts, firstIDColumn(row, cols)
			}
		}
	}
	return 0, ""
}

func firstIDColumn(row map[string]interface{}, cols []string) string {
	for _, c := range cols {
		lc := strings.ToLower(c)
		if lc == "id" || strings.HasSuffix(lc, "_id") {
			return c
		}
	}
	return cols[0]
}

func flagNotes(row map[string]interface{}) string {
	var flags []string
	for _, name := range []string{"deleted", "dirty"} {
		for k, v := range row {
			if strings.ToLower(k) == name && cellTruthy(v) {
				flags = append(flags, strings.ToUpper(name))
			}
		}
	}
	sort.Strings(flags)
	return strings.Join(flags, "|")
}

func keyValueExtra(row map[string]interface{}) string {
	cols := sortedKeys(row)
	var pairs []string
	for _, c := range cols {
		lc := strings.ToLower(c)
		if strings.HasSuffix(lc, "_timestamp") || lc == "deleted" || lc == "dirty" {
			continue
		}
		pairs = append(pairs, fmt.Sprintf("%s=%s", c, stringifyCell(row[c])))
	}
	return strings.Join(pairs, "; ")
}

func sortedKeys(row map[string]interface{}) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cellToInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case []byte:
		n, _ := strconv.ParseInt(string(t), 10, 64)
		return n
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	default:
		return 0
	}
}

func cellTruthy(v interface{}) bool {
	switch t := v.(type) {
	case int64:
		return t != 0
	case bool:
		return t
	case []byte:
		s := strings.ToLower(string(t))
		return s == "1" || s == "true"
	case string:
		s := strings.ToLower(t)
		return s == "1" || s == "true"
	default:
		return false
	}
}

func stringifyCell(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
