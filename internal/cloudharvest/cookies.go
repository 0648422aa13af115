package cloudharvest

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"golang.org/x/net/publicsuffix"
)

// AlexaCredentials is the required cloud cookie set for Alexa (spec §6.2).
type AlexaCredentials struct {
	AtMain     string
	SessAtMain string
	UbidMain   string
	SessionID  string
	// XMain is additionally required only for the SKILLS endpoint.
	XMain string
}

// GoogleCredentials is the required cloud cookie set for Google Assistant
// (spec §6.2).
type GoogleCredentials struct {
	SID  string
	SSID string
	HSID string
}

var (
	ErrMissingAlexaCookie  = errors.New("cloudharvest: missing required Alexa cookie")
	ErrMissingGoogleCookie = errors.New("cloudharvest: missing required Google cookie")
)

// Validate checks the always-required cookie set; wantSkills additionally
// requires x-main (spec §6.2: "x-main additionally required for the skills
// endpoint").
func (c AlexaCredentials) Validate(wantSkills bool) error {
	for name, v := range map[string]string{
		"at-main": c.AtMain, "sess-at-main": c.SessAtMain,
		"ubid-main": c.UbidMain, "session-id": c.SessionID,
	} {
		if v == "" {
			return fmt.Errorf("%w: %s", ErrMissingAlexaCookie, name)
		}
	}
	if wantSkills && c.XMain == "" {
		return fmt.Errorf("%w: x-main", ErrMissingAlexaCookie)
	}
	return nil
}

func (c GoogleCredentials) Validate() error {
	for name, v := range map[string]string{"SID": c.SID, "SSID": c.SSID, "HSID": c.HSID} {
		if v == "" {
			return fmt.Errorf("%w: %s", ErrMissingGoogleCookie, name)
		}
	}
	return nil
}

func newJar() (*cookiejar.Jar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

// newAlexaClient builds an http.Client whose cookiejar is pre-seeded with
// the Alexa session cookies, scoped to .amazon.com so every host alternate
// the catalog probes (alexa.amazon.com, pitangui.amazon.com,
// alexa-comms-mobile-service.amazon.com) receives them.
func newAlexaClient(creds AlexaCredentials) (*http.Client, error) {
	jar, err := newJar()
	if err != nil {
		return nil, fmt.Errorf("cloudharvest: build cookiejar: %w", err)
	}
	u, _ := url.Parse("https://amazon.com")
	var cookies []*http.Cookie
	add := func(name, value string) {
		if value == "" {
			return
		}
		cookies = append(cookies, &http.Cookie{Name: name, Value: value, Domain: ".amazon.com", Path: "/"})
	}
	add("at-main", creds.AtMain)
	add("sess-at-main", creds.SessAtMain)
	add("ubid-main", creds.UbidMain)
	add("session-id", creds.SessionID)
	add("x-main", creds.XMain)
	jar.SetCookies(u, cookies)
	return newHTTPClient(jar), nil
}

// newGoogleClient is newAlexaClient's Google Assistant counterpart.
func newGoogleClient(creds GoogleCredentials) (*http.Client, error) {
	jar, err := newJar()
	if err != nil {
		return nil, fmt.Errorf("cloudharvest: build cookiejar: %w", err)
	}
	u, _ := url.Parse("https://google.com")
	var cookies []*http.Cookie
	add := func(name, value string) {
		if value == "" {
			return
		}
		cookies = append(cookies, &http.Cookie{Name: name, Value: value, Domain: ".google.com", Path: "/"})
	}
	add("SID", creds.SID)
	add("SSID", creds.SSID)
	add("HSID", creds.HSID)
	jar.SetCookies(u, cookies)
	return newHTTPClient(jar), nil
}
