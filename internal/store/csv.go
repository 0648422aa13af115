package store

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// exportTables lists every table this product carries, in the fixed order
// spec §6.3 enumerates (Operation/AcquiredFile/Credential first, then the
// product-specific entities, Timeline last).
func (s *Store) exportTables() []string {
	tables := []string{"OPERATION", "ACQUIRED_FILE", "CREDENTIAL"}
	if s.product == ProductAlexa {
		tables = append(tables,
			"ACCOUNT", "CONTACT", "SETTING_WIFI", "SETTING_MISC",
			"ALEXA_DEVICE", "COMPATIBLE_DEVICE", "SKILL",
		)
	}
	tables = append(tables, "TIMELINE")
	return tables
}

// ExportCSV writes one "<product>_<TABLE>.csv" file per non-empty table
// into dir, per spec §6.3, and returns the paths written. Encoding/csv is
// a format concern (RFC 4180 quoting), not an ecosystem-library concern
// (see DESIGN.md); the teacher's own reporting paths use the stdlib
// encoding/csv package the same way.
func (s *Store) ExportCSV(dir string) ([]string, error) {
	var written []string
	for _, table := range s.exportTables() {
		path, wrote, err := s.exportTable(dir, table)
		if err != nil {
			return written, err
		}
		if wrote {
			written = append(written, path)
		}
	}
	return written, nil
}

func (s *Store) exportTable(dir, table string) (string, bool, error) {
	rows, err := s.db.Query(fmt.Sprintf(`SELECT * FROM %s`, table))
	if err != nil {
		return "", false, fmt.Errorf("store: query %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", false, err
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", s.product, table))
	f, err := os.Create(path)
	if err != nil {
		return "", false, fmt.Errorf("store: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(cols); err != nil {
		return "", false, err
	}

	count := 0
	values := make([]any, len(cols))
	scanDest := make([]any, len(cols))
	for i := range values {
		scanDest[i] = &values[i]
	}
	record := make([]string, len(cols))

	for rows.Next() {
		if err := rows.Scan(scanDest...); err != nil {
			return "", false, err
		}
		for i, v := range values {
			record[i] = formatCSVValue(v)
		}
		if err := w.Write(record); err != nil {
			return "", false, err
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return "", false, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", false, err
	}
	if count == 0 {
		f.Close()
		os.Remove(path)
		return "", false, nil
	}
	return path, true, nil
}

func formatCSVValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case int64:
		return fmt.Sprintf("%d", val)
	case float64:
		return fmt.Sprintf("%v", val)
	case sql.NullInt64:
		if !val.Valid {
			return ""
		}
		return fmt.Sprintf("%d", val.Int64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
