// Package store is the normalized relational output store (C8, spec §3.5,
// §6.3): one SQLite database per product (Amazon Alexa or Google
// Assistant), holding an Operation reference table, the chain-of-custody
// AcquiredFile table, and the product's entity + Timeline tables, plus a
// CSV exporter.
//
// Table and field names are grounded verbatim on
// original_source/pycift/report/db_models_amazon_alexa.py and
// db_models_google_assistant.py (the peewee ORM models this pipeline's
// predecessor used); this package talks to modernc.org/sqlite (a pure-Go,
// cgo-free driver already a dependency elsewhere in the retrieval pack, see
// DESIGN.md) through database/sql directly rather than through an ORM,
// matching the teacher's preference for explicit, hand-written field
// (de)serialization over reflection-based mapping.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Product selects which product's entity tables a Store manages (spec §6.3:
// "Product prefix is cift_amazon_alexa or cift_google_assistant").
type Product string

const (
	ProductAlexa  Product = "cift_amazon_alexa"
	ProductGoogle Product = "cift_google_assistant"
)

// OperationType enumerates the acquisition operation an AcquiredFile came
// from (spec §3.5).
type OperationType string

const (
	Hardware               OperationType = "HARDWARE"
	HardwareFiles          OperationType = "HARDWARE_FILES"
	HardwareRAM            OperationType = "HARDWARE_RAM"
	Cloud                  OperationType = "CLOUD"
	Companion              OperationType = "COMPANION"
	CompanionAppAndroid    OperationType = "COMPANION_APP_ANDROID"
	CompanionAppIOS        OperationType = "COMPANION_APP_IOS"
	CompanionBrowserChrome OperationType = "COMPANION_BROWSER_CHROME"
	CompanionRAM           OperationType = "COMPANION_RAM"
)

var allOperationTypes = []OperationType{
	Hardware, HardwareFiles, HardwareRAM, Cloud, Companion,
	CompanionAppAndroid, CompanionAppIOS, CompanionBrowserChrome, CompanionRAM,
}

// Store is a single product's normalized output database.
type Store struct {
	db           *sql.DB
	product      Product
	operationIDs map[OperationType]int64
}

// Open creates (if absent) and opens the SQLite database at path, creates
// every table this product needs, and seeds the Operation reference rows.
func Open(path string, product Product) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	s := &Store{db: db, product: product, operationIDs: make(map[OperationType]int64)}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.seedOperations(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Raw exposes the underlying *sql.DB for callers (and tests) that need a
// query shape this package doesn't provide a typed method for.
func (s *Store) Raw() *sql.DB { return s.db }

func (s *Store) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS OPERATION (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ACQUIRED_FILE (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			operation INTEGER NOT NULL REFERENCES OPERATION(id),
			src_path TEXT NOT NULL,
			desc TEXT NOT NULL,
			saved_path TEXT NOT NULL,
			sha1 TEXT NOT NULL,
			saved_timestamp TEXT NOT NULL,
			modified_timestamp TEXT NOT NULL,
			timezone TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS CREDENTIAL (
			type TEXT NOT NULL,
			domain TEXT NOT NULL,
			value TEXT NOT NULL,
			source INTEGER NOT NULL REFERENCES ACQUIRED_FILE(id)
		)`,
		`CREATE TABLE IF NOT EXISTS TIMELINE (
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			timezone TEXT NOT NULL,
			MACB TEXT NOT NULL,
			source TEXT NOT NULL,
			sourcetype TEXT NOT NULL,
			type TEXT NOT NULL,
			user TEXT NOT NULL DEFAULT '-',
			host TEXT NOT NULL DEFAULT '-',
			short TEXT NOT NULL DEFAULT '-',
			desc TEXT NOT NULL DEFAULT '-',
			version INTEGER NOT NULL DEFAULT 2,
			filename TEXT NOT NULL,
			inode INTEGER,
			notes TEXT NOT NULL DEFAULT '-',
			format TEXT NOT NULL,
			extra TEXT NOT NULL DEFAULT '-'
		)`,
	}
	if s.product == ProductAlexa {
		stmts = append(stmts, alexaOnlyTables...)
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("store: create table: %w", err)
		}
	}
	return nil
}

var alexaOnlyTables = []string{
	`CREATE TABLE IF NOT EXISTS ACCOUNT (
		customer_email TEXT,
		customer_name TEXT NOT NULL,
		phone_number TEXT,
		customer_id TEXT,
		comms_id TEXT,
		authenticated TEXT,
		source INTEGER NOT NULL REFERENCES ACQUIRED_FILE(id)
	)`,
	`CREATE TABLE IF NOT EXISTS CONTACT (
		first_name TEXT,
		last_name TEXT,
		number TEXT,
		email TEXT,
		is_home_group TEXT NOT NULL,
		contact_id TEXT NOT NULL,
		comms_id TEXT NOT NULL,
		source INTEGER NOT NULL REFERENCES ACQUIRED_FILE(id)
	)`,
	`CREATE TABLE IF NOT EXISTS SETTING_WIFI (
		ssid TEXT NOT NULL,
		security_method TEXT NOT NULL,
		pre_shared_key TEXT NOT NULL,
		source INTEGER NOT NULL REFERENCES ACQUIRED_FILE(id)
	)`,
	`CREATE TABLE IF NOT EXISTS SETTING_MISC (
		name TEXT NOT NULL,
		value TEXT NOT NULL,
		device_serial_number TEXT,
		source INTEGER NOT NULL REFERENCES ACQUIRED_FILE(id)
	)`,
	`CREATE TABLE IF NOT EXISTS ALEXA_DEVICE (
		device_account_name TEXT,
		device_family TEXT,
		device_account_id TEXT NOT NULL,
		customer_id TEXT,
		device_serial_number TEXT NOT NULL,
		device_type TEXT NOT NULL,
		sw_version TEXT,
		mac_address TEXT,
		address TEXT,
		postal_code INTEGER,
		locale TEXT,
		search_customer_id TEXT,
		timezone TEXT,
		region TEXT,
		source INTEGER NOT NULL REFERENCES ACQUIRED_FILE(id)
	)`,
	`CREATE TABLE IF NOT EXISTS COMPATIBLE_DEVICE (
		name TEXT NOT NULL,
		manufacture TEXT NOT NULL,
		model TEXT,
		created TEXT NOT NULL,
		name_modified TEXT NOT NULL,
		desc TEXT,
		type TEXT,
		reachable TEXT,
		firmware_version TEXT,
		appliance_id TEXT NOT NULL,
		alexa_device_serial_number TEXT NOT NULL,
		alexa_device_type TEXT NOT NULL,
		source INTEGER NOT NULL REFERENCES ACQUIRED_FILE(id)
	)`,
	`CREATE TABLE IF NOT EXISTS SKILL (
		title TEXT NOT NULL,
		developer_name TEXT,
		account_linked TEXT NOT NULL,
		release_date TEXT NOT NULL,
		short TEXT NOT NULL,
		desc TEXT NOT NULL,
		vendor_id TEXT NOT NULL,
		skill_id TEXT NOT NULL,
		source INTEGER NOT NULL REFERENCES ACQUIRED_FILE(id)
	)`,
}

func (s *Store) seedOperations() error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM OPERATION`).Scan(&count); err != nil {
		return fmt.Errorf("store: seed operations: %w", err)
	}
	if count == 0 {
		for _, op := range allOperationTypes {
			res, err := s.db.Exec(`INSERT INTO OPERATION (type) VALUES (?)`, string(op))
			if err != nil {
				return fmt.Errorf("store: seed operation %s: %w", op, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			s.operationIDs[op] = id
		}
		return nil
	}
	rows, err := s.db.Query(`SELECT id, type FROM OPERATION`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var typ string
		if err := rows.Scan(&id, &typ); err != nil {
			return err
		}
		s.operationIDs[OperationType(typ)] = id
	}
	return rows.Err()
}

// Default returns "-" for an empty text field and s otherwise (spec §3.5: "Text fields
// default to the literal \"-\" when the source is empty/missing").
func Default(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
