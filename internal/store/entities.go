package store

import "fmt"

// AcquiredFile records chain-of-custody for every artifact this pipeline
// reads, independent of product (spec §3.5).
type AcquiredFile struct {
	Operation         OperationType
	SrcPath           string
	Desc              string
	SavedPath         string
	SHA1              string
	SavedTimestamp    string
	ModifiedTimestamp string
	Timezone          string
}

// InsertAcquiredFile records a new acquired file and returns its row id,
// which downstream entity inserts reference as their source.
func (s *Store) InsertAcquiredFile(f AcquiredFile) (int64, error) {
	opID, ok := s.operationIDs[f.Operation]
	if !ok {
		return 0, fmt.Errorf("store: unknown operation type %q", f.Operation)
	}
	res, err := s.db.Exec(
		`INSERT INTO ACQUIRED_FILE (operation, src_path, desc, saved_path, sha1, saved_timestamp, modified_timestamp, timezone)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		opID, f.SrcPath, Default(f.Desc), f.SavedPath, f.SHA1, f.SavedTimestamp, f.ModifiedTimestamp, f.Timezone,
	)
	if err != nil {
		return 0, fmt.Errorf("store: insert acquired file: %w", err)
	}
	return res.LastInsertId()
}

// Credential is shared between both products (spec §3.5).
type Credential struct {
	Type   string
	Domain string
	Value  string
	Source int64
}

func (s *Store) InsertCredential(c Credential) error {
	_, err := s.db.Exec(
		`INSERT INTO CREDENTIAL (type, domain, value, source) VALUES (?, ?, ?, ?)`,
		c.Type, c.Domain, c.Value, c.Source,
	)
	if err != nil {
		return fmt.Errorf("store: insert credential: %w", err)
	}
	return nil
}

// Account is Alexa-only (db_models_amazon_alexa.py: Account).
type Account struct {
	CustomerEmail string
	CustomerName  string
	PhoneNumber   string
	CustomerID    string
	CommsID       string
	Authenticated string
	Source        int64
}

func (s *Store) InsertAccount(a Account) error {
	_, err := s.db.Exec(
		`INSERT INTO ACCOUNT (customer_email, customer_name, phone_number, customer_id, comms_id, authenticated, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.CustomerEmail, a.CustomerName, a.PhoneNumber, a.CustomerID, a.CommsID, a.Authenticated, a.Source,
	)
	if err != nil {
		return fmt.Errorf("store: insert account: %w", err)
	}
	return nil
}

// Contact is Alexa-only (db_models_amazon_alexa.py: Contact).
type Contact struct {
	FirstName   string
	LastName    string
	Number      string
	Email       string
	IsHomeGroup string
	ContactID   string
	CommsID     string
	Source      int64
}

func (s *Store) InsertContact(c Contact) error {
	_, err := s.db.Exec(
		`INSERT INTO CONTACT (first_name, last_name, number, email, is_home_group, contact_id, comms_id, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.FirstName, c.LastName, c.Number, c.Email, c.IsHomeGroup, c.ContactID, c.CommsID, c.Source,
	)
	if err != nil {
		return fmt.Errorf("store: insert contact: %w", err)
	}
	return nil
}

// SettingWifi is Alexa-only (db_models_amazon_alexa.py: SettingWifi).
type SettingWifi struct {
	SSID           string
	SecurityMethod string
	PreSharedKey   string
	Source         int64
}

func (s *Store) InsertSettingWifi(w SettingWifi) error {
	_, err := s.db.Exec(
		`INSERT INTO SETTING_WIFI (ssid, security_method, pre_shared_key, source) VALUES (?, ?, ?, ?)`,
		w.SSID, w.SecurityMethod, w.PreSharedKey, w.Source,
	)
	if err != nil {
		return fmt.Errorf("store: insert setting_wifi: %w", err)
	}
	return nil
}

// SettingMisc is Alexa-only (db_models_amazon_alexa.py: SettingMisc), a
// catch-all name/value pair for settings with no dedicated table.
type SettingMisc struct {
	Name               string
	Value              string
	DeviceSerialNumber string
	Source             int64
}

func (s *Store) InsertSettingMisc(m SettingMisc) error {
	_, err := s.db.Exec(
		`INSERT INTO SETTING_MISC (name, value, device_serial_number, source) VALUES (?, ?, ?, ?)`,
		m.Name, m.Value, m.DeviceSerialNumber, m.Source,
	)
	if err != nil {
		return fmt.Errorf("store: insert setting_misc: %w", err)
	}
	return nil
}

// AlexaDevice is Alexa-only (db_models_amazon_alexa.py: AlexaDevice).
type AlexaDevice struct {
	DeviceAccountName  string
	DeviceFamily       string
	DeviceAccountID    string
	CustomerID         string
	DeviceSerialNumber string
	DeviceType         string
	SWVersion          string
	MACAddress         string
	Address            string
	PostalCode         string
	Locale             string
	SearchCustomerID   string
	Timezone           string
	Region             string
	Source             int64
}

func (s *Store) InsertAlexaDevice(d AlexaDevice) error {
	_, err := s.db.Exec(
		`INSERT INTO ALEXA_DEVICE (device_account_name, device_family, device_account_id, customer_id,
			device_serial_number, device_type, sw_version, mac_address, address, postal_code, locale,
			search_customer_id, timezone, region, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.DeviceAccountName, d.DeviceFamily, d.DeviceAccountID, d.CustomerID, d.DeviceSerialNumber,
		d.DeviceType, d.SWVersion, d.MACAddress, d.Address, d.PostalCode, d.Locale,
		d.SearchCustomerID, d.Timezone, d.Region, d.Source,
	)
	if err != nil {
		return fmt.Errorf("store: insert alexa_device: %w", err)
	}
	return nil
}

// CompatibleDevice is Alexa-only (db_models_amazon_alexa.py: CompatibleDevice),
// a smart-home device paired to an Alexa account.
type CompatibleDevice struct {
	Name                    string
	Manufacture             string
	Model                   string
	Created                 string
	NameModified            string
	Desc                    string
	Type                    string
	Reachable               string
	FirmwareVersion         string
	ApplianceID             string
	AlexaDeviceSerialNumber string
	AlexaDeviceType         string
	Source                  int64
}

func (s *Store) InsertCompatibleDevice(d CompatibleDevice) error {
	_, err := s.db.Exec(
		`INSERT INTO COMPATIBLE_DEVICE (name, manufacture, model, created, name_modified, desc, type,
			reachable, firmware_version, appliance_id, alexa_device_serial_number, alexa_device_type, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Name, d.Manufacture, d.Model, d.Created, d.NameModified, d.Desc, d.Type,
		d.Reachable, d.FirmwareVersion, d.ApplianceID, d.AlexaDeviceSerialNumber, d.AlexaDeviceType, d.Source,
	)
	if err != nil {
		return fmt.Errorf("store: insert compatible_device: %w", err)
	}
	return nil
}

// Skill is Alexa-only (db_models_amazon_alexa.py: Skill).
type Skill struct {
	Title          string
	DeveloperName  string
	AccountLinked  string
	ReleaseDate    string
	Short          string
	Desc           string
	VendorID       string
	SkillID        string
	Source         int64
}

func (s *Store) InsertSkill(sk Skill) error {
	_, err := s.db.Exec(
		`INSERT INTO SKILL (title, developer_name, account_linked, release_date, short, desc, vendor_id, skill_id, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sk.Title, sk.DeveloperName, sk.AccountLinked, sk.ReleaseDate, sk.Short, sk.Desc, sk.VendorID, sk.SkillID, sk.Source,
	)
	if err != nil {
		return fmt.Errorf("store: insert skill: %w", err)
	}
	return nil
}

// Timeline is a single super-timeline row, shared between both products
// (spec §3.5, §4.9). Text fields default to "-" per db_models_*.py.
type Timeline struct {
	Date       string
	Time       string
	Timezone   string
	MACB       string
	Source     string
	SourceType string
	Type       string
	User       string
	Host       string
	Short      string
	Desc       string
	Version    int
	Filename   string
	Inode      *int64
	Notes      string
	Format     string
	Extra      string
}

func (s *Store) InsertTimeline(t Timeline) error {
	if t.Version == 0 {
		t.Version = 2
	}
	_, err := s.db.Exec(
		`INSERT INTO TIMELINE (date, time, timezone, MACB, source, sourcetype, type, user, host, short,
			desc, version, filename, inode, notes, format, extra)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Date, t.Time, t.Timezone, t.MACB, t.Source, t.SourceType, t.Type,
		Default(t.User), Default(t.Host), Default(t.Short), Default(t.Desc),
		t.Version, t.Filename, t.Inode, Default(t.Notes), t.Format, Default(t.Extra),
	)
	if err != nil {
		return fmt.Errorf("store: insert timeline: %w", err)
	}
	return nil
}
