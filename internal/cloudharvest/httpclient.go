// Package cloudharvest is C11: the Alexa (spec §4.7) and Google Assistant
// (spec §4.8) cloud API crawlers. A Harvester owns one cookie-authenticated
// http.Client, the evidence library every fetched response lands in, and
// the normalized store every parsed response writes into via C9
// (internal/apiparse).
//
// The HTTP client is grounded on the teacher's client/client.go: a
// cookiejar built with golang.org/x/net/publicsuffix so cookies scoped to
// ".amazon.com"/".google.com" are sent to every subdomain host the catalog
// touches, plus a fixed request Timeout rather than per-call deadlines.
// Unlike the teacher's long-lived CLI session (a 24h timeout), spec §5
// mandates a hard 5s fetch-layer watchdog for this one-shot tool, so the
// timeout constant differs from the teacher's value even though the
// client-construction shape is unchanged.
package cloudharvest

import (
	"fmt"
	"net/http"
	"time"
)

const (
	fetchTimeout = 5 * time.Second
	userAgent    = "Mozilla/5.0 (cift forensic acquisition client)"
	maxRedirects = 10
)

func newHTTPClient(jar http.CookieJar) *http.Client {
	return &http.Client{
		Timeout:       fetchTimeout,
		Jar:           jar,
		CheckRedirect: redirectPolicy,
	}
}

func redirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("cloudharvest: stopped after %d redirects", len(via))
	}
	return nil
}
