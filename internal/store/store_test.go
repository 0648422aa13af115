package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, product Product) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, product)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenSeedsOperations(t *testing.T) {
	s := openTestStore(t, ProductAlexa)
	require.Len(t, s.operationIDs, len(allOperationTypes))
	for _, op := range allOperationTypes {
		_, ok := s.operationIDs[op]
		require.True(t, ok, "missing operation id for %s", op)
	}
}

func TestGoogleStoreHasNoAlexaTables(t *testing.T) {
	s := openTestStore(t, ProductGoogle)
	_, err := s.db.Exec(`INSERT INTO ACCOUNT (customer_name, source) VALUES ('x', 1)`)
	require.Error(t, err)
}

func TestInsertAcquiredFileAndCredential(t *testing.T) {
	s := openTestStore(t, ProductAlexa)

	id, err := s.InsertAcquiredFile(AcquiredFile{
		Operation:         Cloud,
		SrcPath:           "https://alexa.amazon.com/api/bootstrap",
		SavedPath:         "/out/bootstrap.json",
		SHA1:              "deadbeef",
		SavedTimestamp:    "2026-07-30T00:00:00Z",
		ModifiedTimestamp: "2026-07-29T00:00:00Z",
		Timezone:          "UTC",
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	err = s.InsertCredential(Credential{Type: "session-cookie", Domain: ".amazon.com", Value: "abc123", Source: id})
	require.NoError(t, err)

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM CREDENTIAL`).Scan(&count))
	require.Equal(t, 1, count)
}

func TestInsertAcquiredFileUnknownOperation(t *testing.T) {
	s := openTestStore(t, ProductAlexa)
	_, err := s.InsertAcquiredFile(AcquiredFile{Operation: OperationType("BOGUS")})
	require.Error(t, err)
}

func TestInsertAlexaEntities(t *testing.T) {
	s := openTestStore(t, ProductAlexa)
	fileID, err := s.InsertAcquiredFile(AcquiredFile{Operation: Companion, SrcPath: "p", SavedPath: "p", SHA1: "x", Timezone: "UTC"})
	require.NoError(t, err)

	require.NoError(t, s.InsertAccount(Account{CustomerName: "Jane Doe", Source: fileID}))
	require.NoError(t, s.InsertContact(Contact{FirstName: "John", IsHomeGroup: "false", ContactID: "c1", CommsID: "comms1", Source: fileID}))
	require.NoError(t, s.InsertSettingWifi(SettingWifi{SSID: "home-wifi", SecurityMethod: "WPA2", PreSharedKey: "secret", Source: fileID}))
	require.NoError(t, s.InsertSettingMisc(SettingMisc{Name: "timezone", Value: "UTC", Source: fileID}))
	require.NoError(t, s.InsertAlexaDevice(AlexaDevice{DeviceAccountID: "acct1", DeviceSerialNumber: "G1A2B3", DeviceType: "ECHO", Source: fileID}))
	require.NoError(t, s.InsertCompatibleDevice(CompatibleDevice{Name: "Lamp", Manufacture: "Acme", Created: "2025-01-01", NameModified: "2025-01-02", ApplianceID: "a1", AlexaDeviceSerialNumber: "G1A2B3", AlexaDeviceType: "ECHO", Source: fileID}))
	require.NoError(t, s.InsertSkill(Skill{Title: "Weather", AccountLinked: "false", ReleaseDate: "2024-01-01", Short: "short", Desc: "desc", VendorID: "v1", SkillID: "s1", Source: fileID}))
}

func TestInsertTimelineDefaults(t *testing.T) {
	s := openTestStore(t, ProductGoogle)
	err := s.InsertTimeline(Timeline{
		Date: "2026-07-30", Time: "00:00:00", Timezone: "UTC", MACB: "...B",
		Source: "1", SourceType: "acquired_file", Type: "Created", Filename: "bootstrap.json", Format: "json",
	})
	require.NoError(t, err)

	var version int
	var user string
	require.NoError(t, s.db.QueryRow(`SELECT version, user FROM TIMELINE`).Scan(&version, &user))
	require.Equal(t, 2, version)
	require.Equal(t, "-", user)
}

func TestComputeMACBScenario2(t *testing.T) {
	rows := ComputeMACB(1000, 2000, 3000)
	require.Equal(t, []MACBRow{
		{MACB: "...B", TypeLabel: "Created", Timestamp: 1000},
		{MACB: "M...", TypeLabel: "Last Updated", Timestamp: 2000},
		{MACB: "..C.", TypeLabel: "Last Local Updated", Timestamp: 3000},
	}, rows)
}

func TestComputeMACBAllAbsent(t *testing.T) {
	require.Empty(t, ComputeMACB(0, 0, 0))
}

func TestComputeMACBAllCoincide(t *testing.T) {
	rows := ComputeMACB(500, 500, 500)
	require.Equal(t, []MACBRow{
		{MACB: "M.CB", TypeLabel: "Last Updated | Last Local Updated | Created", Timestamp: 500},
	}, rows)
}

func TestComputeMACBBirthEqualsModifiedOnly(t *testing.T) {
	rows := ComputeMACB(1000, 1000, 0)
	require.Equal(t, []MACBRow{
		{MACB: "M..B", TypeLabel: "Last Updated | Created", Timestamp: 1000},
	}, rows)
}

func TestComputeMACBBirthEqualsChangedOnly(t *testing.T) {
	rows := ComputeMACB(1000, 2000, 1000)
	require.Equal(t, []MACBRow{
		{MACB: "..CB", TypeLabel: "Last Local Updated | Created", Timestamp: 1000},
		{MACB: "M...", TypeLabel: "Last Updated", Timestamp: 2000},
	}, rows)
}

func TestComputeMACBModifiedEqualsChangedNoBirth(t *testing.T) {
	rows := ComputeMACB(0, 2000, 2000)
	require.Equal(t, []MACBRow{
		{MACB: "M.C.", TypeLabel: "Last Updated | Last Local Updated", Timestamp: 2000},
	}, rows)
}

func TestComputeMACBModifiedOnly(t *testing.T) {
	rows := ComputeMACB(0, 2000, 0)
	require.Equal(t, []MACBRow{{MACB: "M...", TypeLabel: "Last Updated", Timestamp: 2000}}, rows)
}

func TestDevicesByAccount(t *testing.T) {
	s := openTestStore(t, ProductAlexa)
	fileID, err := s.InsertAcquiredFile(AcquiredFile{Operation: Cloud, SrcPath: "p", SavedPath: "p", SHA1: "x", Timezone: "UTC"})
	require.NoError(t, err)
	require.NoError(t, s.InsertAlexaDevice(AlexaDevice{CustomerID: "cust1", DeviceSerialNumber: "G1", DeviceType: "ECHO", DeviceAccountID: "a1", Source: fileID}))
	require.NoError(t, s.InsertAlexaDevice(AlexaDevice{CustomerID: "cust1", DeviceSerialNumber: "G2", DeviceType: "ECHO_DOT", DeviceAccountID: "a2", Source: fileID}))

	byAccount, err := s.DevicesByAccount()
	require.NoError(t, err)
	require.Len(t, byAccount["cust1"], 2)
}

func TestDevicesByAccountGoogleRejected(t *testing.T) {
	s := openTestStore(t, ProductGoogle)
	_, err := s.DevicesByAccount()
	require.Error(t, err)
}

func TestExportCSV(t *testing.T) {
	s := openTestStore(t, ProductGoogle)
	fileID, err := s.InsertAcquiredFile(AcquiredFile{Operation: Cloud, SrcPath: "p", SavedPath: "p", SHA1: "x", Timezone: "UTC"})
	require.NoError(t, err)
	require.NoError(t, s.InsertCredential(Credential{Type: "t", Domain: "d", Value: "v", Source: fileID}))

	dir := t.TempDir()
	written, err := s.ExportCSV(dir)
	require.NoError(t, err)
	require.NotEmpty(t, written)

	foundOperation, foundCredential := false, false
	for _, p := range written {
		base := filepath.Base(p)
		if base == "cift_google_assistant_OPERATION.csv" {
			foundOperation = true
		}
		if base == "cift_google_assistant_CREDENTIAL.csv" {
			foundCredential = true
			data, err := os.ReadFile(p)
			require.NoError(t, err)
			require.Contains(t, string(data), "domain")
			require.Contains(t, string(data), "d")
		}
	}
	require.True(t, foundOperation)
	require.True(t, foundCredential)

	// Tables never populated (e.g. TIMELINE) should not produce a file.
	for _, p := range written {
		require.NotContains(t, filepath.Base(p), "_TIMELINE.csv")
	}
}
