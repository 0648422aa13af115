package runconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleDoc = `{
	"cift_amazon_alexa": {
		"enabled": true,
		"cloud": {
			"credential_cookie": [
				{"name": "at-main", "value": "a"},
				{"name": "sess-at-main", "value": "b"},
				{"name": "ubid-main", "value": "c"},
				{"name": "session-id", "value": "d"}
			]
		},
		"client": {
			"android_app": ["/mnt/android1"],
			"chromium_main-disk-cache": ["/mnt/chrome_cache"]
		}
	}
}`

func TestParseValidDocument(t *testing.T) {
	cfg, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)
	require.NotNil(t, cfg.Alexa)
	require.Nil(t, cfg.Google)
	require.True(t, cfg.Alexa.Enabled)
	require.Equal(t, []string{"/mnt/android1"}, cfg.Alexa.Client.AndroidApp)
	require.Equal(t, []string{"/mnt/chrome_cache"}, cfg.Alexa.Client.ChromiumMainDiskCache)

	atMain, sessAtMain, ubidMain, sessionID, xMain := cfg.Alexa.Cloud.AlexaCookies()
	require.Equal(t, "a", atMain)
	require.Equal(t, "b", sessAtMain)
	require.Equal(t, "c", ubidMain)
	require.Equal(t, "d", sessionID)
	require.Equal(t, "", xMain)
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	_, err := Parse([]byte(`{not json`))
	require.ErrorIs(t, err, ErrConfigInvalid)
}

func TestParseRejectsNeitherProductPresent(t *testing.T) {
	_, err := Parse([]byte(`{}`))
	require.ErrorIs(t, err, ErrConfigInvalid)
}

func TestLoadReadsFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, cfg.Alexa.Enabled)
}

func TestLoadMissingFileIsConfigInvalid(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, ErrConfigInvalid)
}

func TestGoogleCookies(t *testing.T) {
	c := &CloudConfig{CredentialCookie: []Cookie{
		{Name: "SID", Value: "s"},
		{Name: "SSID", Value: "ss"},
		{Name: "HSID", Value: "h"},
	}}
	sid, ssid, hsid := c.GoogleCookies()
	require.Equal(t, "s", sid)
	require.Equal(t, "ss", ssid)
	require.Equal(t, "h", hsid)
}

func TestNilCloudConfigCookiesAreEmpty(t *testing.T) {
	var c *CloudConfig
	atMain, sessAtMain, ubidMain, sessionID, xMain := c.AlexaCookies()
	require.Empty(t, atMain)
	require.Empty(t, sessAtMain)
	require.Empty(t, ubidMain)
	require.Empty(t, sessionID)
	require.Empty(t, xMain)
	require.False(t, c.WantsSkills())
}

func TestWantsSkillsReflectsXMainCookiePresence(t *testing.T) {
	without := &CloudConfig{CredentialCookie: []Cookie{{Name: "at-main", Value: "a"}}}
	require.False(t, without.WantsSkills())

	with := &CloudConfig{CredentialCookie: []Cookie{
		{Name: "at-main", Value: "a"},
		{Name: "x-main", Value: "x"},
	}}
	require.True(t, with.WantsSkills())
}
