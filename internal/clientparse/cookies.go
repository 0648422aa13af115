package clientparse

import (
	"fmt"
	"strings"

	"github.com/gravwell/cift/internal/apiparse"
	"github.com/gravwell/cift/internal/binarycookie"
	"github.com/gravwell/cift/internal/store"
)

// ParseAndroidCookies handles Android app_webview/Cookies (spec §4.6): the
// Chromium cookie-jar schema, filtered to Amazon-domain rows and recorded
// as Credential rows (type "Android Cookie").
func ParseAndroidCookies(ctx *apiparse.Context, path string) error {
	db, err := openReadOnly(path)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT host_key, name, value FROM cookies WHERE host_key LIKE '.amazon.%'`)
	if err != nil {
		return fmt.Errorf("clientparse: query android cookies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var host, name, value string
		if err := rows.Scan(&host, &name, &value); err != nil {
			return fmt.Errorf("clientparse: scan android cookie: %w", err)
		}
		if err := ctx.Store.InsertCredential(store.Credential{
			Type:   "Android Cookie",
			Domain: host,
			Value:  fmt.Sprintf("%s=%s", name, value),
			Source: ctx.FileID,
		}); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ParseIOSBinaryCookies handles iOS Library/Cookies/Cookies.binarycookies
// via the C2 decoder: one Credential row per Amazon-domain entry (spec
// §4.6).
func ParseIOSBinaryCookies(ctx *apiparse.Context, raw []byte) error {
	pages, err := binarycookie.Decode(raw)
	if err != nil {
		return fmt.Errorf("clientparse: decode binarycookies: %w", err)
	}
	for _, page := range pages {
		for _, c := range page.Cookies {
			if !strings.Contains(c.Domain, "amazon.") {
				continue
			}
			if err := ctx.Store.InsertCredential(store.Credential{
				Type:   "iOS Cookie",
				Domain: c.Domain,
				Value:  fmt.Sprintf("%s=%s", c.Name, c.Value),
				Source: ctx.FileID,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}
