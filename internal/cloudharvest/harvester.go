package cloudharvest

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gravwell/cift/internal/apiparse"
	"github.com/gravwell/cift/internal/catalog"
	"github.com/gravwell/cift/internal/evidence"
	"github.com/gravwell/cift/internal/store"
)

// Harvester drives one product's cloud crawl: it owns the authenticated
// HTTP client, the evidence library responses are archived into, and the
// normalized store C9's parsers write into.
type Harvester struct {
	client   *http.Client
	evidence *evidence.Library
	store    *store.Store
	timezone string
	logf     func(format string, args ...interface{})

	// commsID is the first commsId COMMS_ACCOUNTS returned, threaded into
	// the COMMS_CONVERSATION fetch (spec §4.7.2).
	commsID string
}

// NewAlexaHarvester validates creds and builds a Harvester ready to crawl
// the Alexa catalog. wantSkills should be true when the input config
// enables the SKILLS endpoint, since that endpoint alone additionally
// requires x-main.
func NewAlexaHarvester(creds AlexaCredentials, wantSkills bool, lib *evidence.Library, st *store.Store, timezone string) (*Harvester, error) {
	if err := creds.Validate(wantSkills); err != nil {
		return nil, err
	}
	client, err := newAlexaClient(creds)
	if err != nil {
		return nil, err
	}
	return newHarvester(client, lib, st, timezone), nil
}

// NewGoogleHarvester is NewAlexaHarvester's Google Assistant counterpart.
func NewGoogleHarvester(creds GoogleCredentials, lib *evidence.Library, st *store.Store, timezone string) (*Harvester, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	client, err := newGoogleClient(creds)
	if err != nil {
		return nil, err
	}
	return newHarvester(client, lib, st, timezone), nil
}

func newHarvester(client *http.Client, lib *evidence.Library, st *store.Store, timezone string) *Harvester {
	return &Harvester{
		client:   client,
		evidence: lib,
		store:    st,
		timezone: timezone,
		logf:     func(string, ...interface{}) {},
	}
}

// SetLogger installs a progress-log sink (wired by the orchestrator, C13);
// absent a logger, log lines are discarded and every step still runs.
func (h *Harvester) SetLogger(f func(format string, args ...interface{})) {
	if f != nil {
		h.logf = f
	}
}

// fetchRaw issues a GET and returns the raw response body, with no evidence
// archival or AcquiredFile bookkeeping (callers register those themselves,
// since voice-data downloads want a different Desc/naming than API
// responses do).
func (h *Harvester) fetchRaw(url string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("cloudharvest: build request %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloudharvest: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cloudharvest: read body %s: %w", url, err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("cloudharvest: %s: status %d", url, resp.StatusCode)
	}
	return body, nil
}

// register archives body in the evidence library and records an
// AcquiredFile row pointing at it.
func (h *Harvester) register(srcPath, desc string, body []byte) (int64, error) {
	_, path, err := h.evidence.Store(srcPath, body)
	if err != nil {
		return 0, fmt.Errorf("cloudharvest: archive %s: %w", srcPath, err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	fileID, err := h.store.InsertAcquiredFile(store.AcquiredFile{
		Operation:         store.Cloud,
		SrcPath:           srcPath,
		Desc:              desc,
		SavedPath:         path,
		SHA1:              sha1Hex(body),
		SavedTimestamp:    now,
		ModifiedTimestamp: now,
		Timezone:          h.timezone,
	})
	if err != nil {
		return 0, fmt.Errorf("cloudharvest: record acquired file %s: %w", srcPath, err)
	}
	return fileID, nil
}

// fetch is fetchRaw plus register with the standard "cloud API response"
// description, used by every endpoint fetch that feeds C9.
func (h *Harvester) fetch(url string) (int64, []byte, error) {
	body, err := h.fetchRaw(url)
	if err != nil {
		return 0, nil, err
	}
	fileID, err := h.register(url, "cloud API response", body)
	if err != nil {
		return 0, nil, err
	}
	return fileID, body, nil
}

// fetchAndParse is the primary-endpoint step of spec §4.7.1: fetch, store
// evidence, feed the response to C9. A parser error never aborts the
// crawl (spec §7: per-input errors are logged and the outer loop
// continues); a fetch/transport error is returned so the caller can decide
// whether to keep paging.
func (h *Harvester) fetchAndParse(code catalog.Code, url string, extra func(ctx *apiparse.Context)) (*apiparse.Context, error) {
	fileID, body, err := h.fetch(url)
	if err != nil {
		h.logf("ERROR  fetch %s (%s): %v", code, url, err)
		return nil, err
	}
	ctx := &apiparse.Context{Store: h.store, FileID: fileID, Timezone: h.timezone}
	if extra != nil {
		extra(ctx)
	}
	if err := apiparse.Dispatch(code, ctx, body); err != nil {
		h.logf("ERROR  parse %s (%s): %v", code, url, err)
		return ctx, nil
	}
	h.logf("INFO  fetched and parsed %s (%s)", code, url)
	return ctx, nil
}

func sha1Hex(data []byte) string {
	h := sha1.Sum(data)
	return hex.EncodeToString(h[:])
}
