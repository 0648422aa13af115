package store

import (
	"database/sql"
	"fmt"
)

const alexaDeviceColumns = `device_account_name, device_family, device_account_id, customer_id,
		device_serial_number, device_type, sw_version, mac_address, address, postal_code, locale,
		search_customer_id, timezone, region, source`

func scanAlexaDevice(rows *sql.Rows) (AlexaDevice, error) {
	var d AlexaDevice
	err := rows.Scan(&d.DeviceAccountName, &d.DeviceFamily, &d.DeviceAccountID, &d.CustomerID,
		&d.DeviceSerialNumber, &d.DeviceType, &d.SWVersion, &d.MACAddress, &d.Address, &d.PostalCode,
		&d.Locale, &d.SearchCustomerID, &d.Timezone, &d.Region, &d.Source)
	return d, err
}

// ListAlexaDevices returns every ALEXA_DEVICE row written so far, in
// insertion order. The cloud harvester (C11) uses this to drive
// MEDIA_HISTORY's per-(serial, type) fetch loop once the DEVICES endpoint
// has populated the table (spec §4.7).
func (s *Store) ListAlexaDevices() ([]AlexaDevice, error) {
	if s.product != ProductAlexa {
		return nil, fmt.Errorf("store: ListAlexaDevices is Alexa-only")
	}
	rows, err := s.db.Query(`SELECT ` + alexaDeviceColumns + ` FROM ALEXA_DEVICE`)
	if err != nil {
		return nil, fmt.Errorf("store: query alexa_device: %w", err)
	}
	defer rows.Close()

	var out []AlexaDevice
	for rows.Next() {
		d, err := scanAlexaDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan alexa_device: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// TimelineRowsWithExtraPrefix returns every TIMELINE row whose extra field
// begins with prefix. The cloud harvester (C11) uses this to find the
// voice-recording download links a CARDS/GOOGLE_ACTIVITIES pass left behind
// (spec §4.7.3, §4.8).
func (s *Store) TimelineRowsWithExtraPrefix(prefix string) ([]Timeline, error) {
	rows, err := s.db.Query(
		`SELECT date, time, timezone, MACB, source, sourcetype, type, user, host, short, desc,
			version, filename, inode, notes, format, extra FROM TIMELINE WHERE extra LIKE ?`,
		prefix+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("store: query timeline extra prefix: %w", err)
	}
	defer rows.Close()

	var out []Timeline
	for rows.Next() {
		var t Timeline
		if err := rows.Scan(&t.Date, &t.Time, &t.Timezone, &t.MACB, &t.Source, &t.SourceType, &t.Type,
			&t.User, &t.Host, &t.Short, &t.Desc, &t.Version, &t.Filename, &t.Inode, &t.Notes, &t.Format, &t.Extra); err != nil {
			return nil, fmt.Errorf("store: scan timeline: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DevicesByAccount groups ALEXA_DEVICE rows by their customer_id, grounded
// on the original report's household/device linkage pass. ACCOUNT rows are
// not read: a customer_id with no ACCOUNT row still gets its group.
func (s *Store) DevicesByAccount() (map[string][]AlexaDevice, error) {
	if s.product != ProductAlexa {
		return nil, fmt.Errorf("store: DevicesByAccount is Alexa-only")
	}
	rows, err := s.db.Query(`SELECT ` + alexaDeviceColumns + ` FROM ALEXA_DEVICE`)
	if err != nil {
		return nil, fmt.Errorf("store: query alexa_device: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]AlexaDevice)
	for rows.Next() {
		d, err := scanAlexaDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan alexa_device: %w", err)
		}
		out[d.CustomerID] = append(out[d.CustomerID], d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
