// Package orchestrator wires the input document (internal/runconfig) to the
// cloud and client harvesters and drives one run end to end: open the
// progress log, open each enabled product's normalized store, dispatch its
// cloud/client sources, export CSV, and copy the progress log into the
// result directory last (spec §9's "Global progress log" teardown note).
package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/gravwell/cift/internal/cloudharvest"
	"github.com/gravwell/cift/internal/clientharvest"
	"github.com/gravwell/cift/internal/evidence"
	"github.com/gravwell/cift/internal/progresslog"
	"github.com/gravwell/cift/internal/runconfig"
	"github.com/gravwell/cift/internal/store"
)

// Options controls one run.
type Options struct {
	// ResultDir is where every product's .db file, its exported CSVs, the
	// evidence library, and finally the progress log are written.
	ResultDir string
	// Timezone is the local-offset suffix (e.g. "UTC", "-07:00") stamped on
	// every Timeline/AcquiredFile row this run produces.
	Timezone string
}

// Result reports what a run produced.
type Result struct {
	RunID     uuid.UUID
	ResultDir string
}

// Run executes one full acquisition pass against cfg. A per-product or
// per-source failure is logged and does not abort the other products/sources
// (spec §7: only ConfigInvalid is fatal, and cfg is already past that check
// by the time it reaches Run).
func Run(cfg *runconfig.Config, opts Options) (*Result, error) {
	if opts.Timezone == "" {
		opts.Timezone = "UTC"
	}
	if opts.ResultDir == "" {
		return nil, fmt.Errorf("orchestrator: ResultDir is required")
	}
	if err := os.MkdirAll(opts.ResultDir, 0755); err != nil {
		return nil, fmt.Errorf("orchestrator: create result dir %s: %w", opts.ResultDir, err)
	}

	runID := uuid.New()

	workDir, err := os.MkdirTemp("", "cift-run-")
	if err != nil {
		return nil, fmt.Errorf("orchestrator: create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	pl, err := progresslog.Open(filepath.Join(workDir, "last_progress_log.txt"), runID, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: open progress log: %w", err)
	}
	defer pl.Close()

	lib, err := evidence.Open(filepath.Join(opts.ResultDir, "evidence"))
	if err != nil {
		pl.Errorf("orchestrator", "open evidence library: %v", err)
		pl.CopyTo(opts.ResultDir)
		return nil, fmt.Errorf("orchestrator: open evidence library: %w", err)
	}
	defer lib.Close()

	if cfg.Alexa != nil && cfg.Alexa.Enabled {
		if err := runProduct(pl, lib, store.ProductAlexa, cfg.Alexa, opts.ResultDir, opts.Timezone); err != nil {
			pl.Errorf("orchestrator", "cift_amazon_alexa: %v", err)
		}
	}
	if cfg.Google != nil && cfg.Google.Enabled {
		if err := runProduct(pl, lib, store.ProductGoogle, cfg.Google, opts.ResultDir, opts.Timezone); err != nil {
			pl.Errorf("orchestrator", "cift_google_assistant: %v", err)
		}
	}

	pl.Infof("orchestrator", "run complete")
	if err := pl.CopyTo(opts.ResultDir); err != nil {
		return nil, fmt.Errorf("orchestrator: copy progress log: %w", err)
	}

	return &Result{RunID: runID, ResultDir: opts.ResultDir}, nil
}

func runProduct(pl *progresslog.Logger, lib *evidence.Library, product store.Product, pc *runconfig.ProductConfig, resultDir, timezone string) error {
	dbPath := filepath.Join(resultDir, string(product)+".db")
	st, err := store.Open(dbPath, product)
	if err != nil {
		return fmt.Errorf("open store %s: %w", dbPath, err)
	}
	defer st.Close()

	if pc.Cloud != nil {
		harvestCloud(pl, lib, st, product, pc.Cloud, timezone)
	}
	if pc.Client != nil {
		harvestClient(pl, lib, st, product, pc.Client, timezone)
	}

	if _, err := st.ExportCSV(resultDir); err != nil {
		pl.Errorf(string(product), "export csv: %v", err)
	}
	return nil
}

func harvestCloud(pl *progresslog.Logger, lib *evidence.Library, st *store.Store, product store.Product, cc *runconfig.CloudConfig, timezone string) {
	const component = "cloudharvest"
	switch product {
	case store.ProductAlexa:
		atMain, sessAtMain, ubidMain, sessionID, xMain := cc.AlexaCookies()
		creds := cloudharvest.AlexaCredentials{
			AtMain: atMain, SessAtMain: sessAtMain, UbidMain: ubidMain,
			SessionID: sessionID, XMain: xMain,
		}
		h, err := cloudharvest.NewAlexaHarvester(creds, cc.WantsSkills(), lib, st, timezone)
		if err != nil {
			pl.Errorf(component, "alexa credentials invalid: %v", err)
			return
		}
		h.SetLogger(pl.Component(component))
		h.HarvestAlexa(cc.WantsSkills())
		if err := h.HarvestAlexaVoiceData(); err != nil {
			pl.Errorf(component, "alexa voice data: %v", err)
		}
	case store.ProductGoogle:
		sid, ssid, hsid := cc.GoogleCookies()
		creds := cloudharvest.GoogleCredentials{SID: sid, SSID: ssid, HSID: hsid}
		h, err := cloudharvest.NewGoogleHarvester(creds, lib, st, timezone)
		if err != nil {
			pl.Errorf(component, "google credentials invalid: %v", err)
			return
		}
		h.SetLogger(pl.Component(component))
		h.HarvestGoogle()
		if err := h.HarvestGoogleVoiceData(); err != nil {
			pl.Errorf(component, "google voice data: %v", err)
		}
	}
}

func harvestClient(pl *progresslog.Logger, lib *evidence.Library, st *store.Store, product store.Product, cc *runconfig.ClientConfig, timezone string) {
	const component = "clientharvest"
	walk := func(root string, op store.OperationType) {
		h := clientharvest.New(st, lib, timezone, op)
		h.SetLogger(pl.Component(component))
		if err := h.Walk(root); err != nil {
			pl.Errorf(component, "walk %s: %v", root, err)
		}
	}
	for _, root := range cc.AndroidApp {
		walk(root, store.CompanionAppAndroid)
	}
	for _, root := range cc.IOSApp {
		walk(root, store.CompanionAppIOS)
	}
	for _, dir := range cc.ChromiumMainDiskCache {
		h := clientharvest.New(st, lib, timezone, store.CompanionBrowserChrome)
		h.SetLogger(pl.Component(component))
		if err := h.HarvestMainCacheDir(dir); err != nil {
			pl.Errorf(component, "main-cache %s: %v", dir, err)
		}
	}
}
