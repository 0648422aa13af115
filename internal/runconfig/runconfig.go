// Package runconfig decodes and validates the external input document (spec
// §6.1, §6.2). The document itself is produced by an out-of-scope
// collaborator; this package owns only the Go types it unmarshals into and
// the validation the orchestrator (C13) runs before dispatching any
// harvester.
//
// JSON decoding uses github.com/goccy/go-json, the teacher's own drop-in
// encoding/json replacement (internal/clientparse already uses it for the
// same reason: a JSON-typed document, not the teacher's usual gcfg/INI
// config shape).
package runconfig

import (
	"errors"
	"fmt"
	"os"

	gojson "github.com/goccy/go-json"
)

// IDPW is a username/password credential pair (spec §6.1
// `credential_idpw?: [{id,pw}...]`).
type IDPW struct {
	ID string `json:"id"`
	PW string `json:"pw"`
}

// Cookie is one named session cookie (spec §6.1 `credential_cookie?:
// [{...}...]`); Name/Value cover every product's required set (§6.2) plus
// any extras a caller includes, which are simply ignored.
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CloudConfig is one product's `cloud` block.
type CloudConfig struct {
	CredentialIDPW   []IDPW   `json:"credential_idpw,omitempty"`
	CredentialCookie []Cookie `json:"credential_cookie,omitempty"`
}

// ClientConfig is one product's `client` block: companion-app and
// standalone Chromium cache acquisition paths.
type ClientConfig struct {
	AndroidApp            []string `json:"android_app,omitempty"`
	IOSApp                []string `json:"ios_app,omitempty"`
	ChromiumMainDiskCache []string `json:"chromium_main-disk-cache,omitempty"`
}

// ProductConfig is one top-level `cift_amazon_alexa`/`cift_google_assistant`
// block (spec §6.1).
type ProductConfig struct {
	Enabled bool          `json:"enabled"`
	Cloud   *CloudConfig  `json:"cloud,omitempty"`
	Client  *ClientConfig `json:"client,omitempty"`
}

// Config is the full input document.
type Config struct {
	Alexa  *ProductConfig `json:"cift_amazon_alexa,omitempty"`
	Google *ProductConfig `json:"cift_google_assistant,omitempty"`
}

var (
	// ErrConfigInvalid is spec §7's ConfigInvalid taxonomy entry: the input
	// file is unparseable or missing both product keys, and aborts the run.
	ErrConfigInvalid = errors.New("runconfig: input document is invalid")
)

// Load reads and parses the input document at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrConfigInvalid, path, err)
	}
	return Parse(data)
}

// Parse decodes the input document from raw bytes and checks spec §6.1's
// "if neither top-level key is present the run is a no-op" rule — modeled
// here as a hard config error, since an orchestrator invoked with nothing to
// do has nothing useful to report either way.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := gojson.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	if cfg.Alexa == nil && cfg.Google == nil {
		return nil, fmt.Errorf("%w: neither cift_amazon_alexa nor cift_google_assistant present", ErrConfigInvalid)
	}
	return &cfg, nil
}

// cookieMap indexes a product's credential_cookie list by name, last value
// wins on a duplicate name.
func cookieMap(cookies []Cookie) map[string]string {
	m := make(map[string]string, len(cookies))
	for _, c := range cookies {
		m[c.Name] = c.Value
	}
	return m
}

// AlexaCookies extracts the §6.2 required-cookie-set fields from a config's
// cloud block, in the shape internal/cloudharvest.AlexaCredentials expects.
// Unset cookies are returned as empty strings; Validate (cloudharvest) is
// where absence actually becomes CredentialInvalid.
func (c *CloudConfig) AlexaCookies() (atMain, sessAtMain, ubidMain, sessionID, xMain string) {
	if c == nil {
		return
	}
	m := cookieMap(c.CredentialCookie)
	return m["at-main"], m["sess-at-main"], m["ubid-main"], m["session-id"], m["x-main"]
}

// GoogleCookies is AlexaCookies' Google Assistant counterpart.
func (c *CloudConfig) GoogleCookies() (sid, ssid, hsid string) {
	if c == nil {
		return
	}
	m := cookieMap(c.CredentialCookie)
	return m["SID"], m["SSID"], m["HSID"]
}

// WantsSkills reports whether the SKILLS catalog endpoint should be
// crawled. x-main is the cookie SKILLS needs beyond Alexa's baseline
// required set (spec §6.2), so its presence in the input document is what
// opts a run into that endpoint — a run with no x-main simply never asks
// for it.
func (c *CloudConfig) WantsSkills() bool {
	if c == nil {
		return false
	}
	return cookieMap(c.CredentialCookie)["x-main"] != ""
}
