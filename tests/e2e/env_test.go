// Package e2e drives the live OrangeHRM demo through Playwright. The tests
// run only with HRSUITE_E2E=1 and never in -short mode.
package e2e

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/hrsuite/pkg/browser"
	"github.com/entrhq/hrsuite/pkg/config"
	"github.com/entrhq/hrsuite/pkg/logging"
	"github.com/entrhq/hrsuite/pkg/probe"
	"github.com/entrhq/hrsuite/pkg/session"
	"github.com/entrhq/hrsuite/pkg/store"
)

// Env is the shared environment: one browser and one session manager for
// the whole package, so the admin logs in once per run.
type Env struct {
	Config   *config.Config
	Driver   *browser.Driver
	Sessions *session.Manager
	Login    session.LoginFunc
	Probe    *probe.Probe
	Admin    session.Identity
}

var (
	envMu     sync.Mutex
	sharedEnv *Env
)

func TestMain(m *testing.M) {
	code := m.Run()

	envMu.Lock()
	if sharedEnv != nil {
		_ = sharedEnv.Driver.Shutdown()
	}
	envMu.Unlock()

	os.Exit(code)
}

func repoRoot() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		panic("failed to resolve repository root")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
}

// SetupEnv returns the shared environment, skipping the test when e2e runs
// are disabled or Playwright is unavailable.
func SetupEnv(t *testing.T) *Env {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	if os.Getenv("HRSUITE_E2E") != "1" {
		t.Skip("set HRSUITE_E2E=1 to run browser tests")
	}

	envMu.Lock()
	defer envMu.Unlock()
	if sharedEnv != nil {
		return sharedEnv
	}

	cfg, err := config.Load(os.Getenv("HRSUITE_CONFIG"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if !filepath.IsAbs(cfg.Fixtures.Credentials) {
		cfg.Fixtures.Credentials = filepath.Join(repoRoot(), cfg.Fixtures.Credentials)
	}
	creds, err := config.LoadCredentials(cfg.Fixtures.Credentials)
	if err != nil {
		t.Fatalf("failed to load credentials: %v", err)
	}

	log, _ := logging.NewLogger("e2e")

	driver := browser.NewDriver(browser.OptionsFromConfig(cfg), log.With("browser"))
	if err := driver.Start(); err != nil {
		t.Skip("Playwright not available:", err)
	}

	login, err := browser.FormLogin(driver, browser.LoginOptions{
		Path:       cfg.Login.Path,
		SuccessURL: cfg.Login.SuccessURL,
	})
	if err != nil {
		_ = driver.Shutdown()
		t.Fatalf("failed to build login: %v", err)
	}

	p, err := probe.New(cfg.BaseURL, cfg.Session.ProbePath, probe.WithTimeout(cfg.Session.ProbeTimeout))
	if err != nil {
		_ = driver.Shutdown()
		t.Fatalf("failed to build probe: %v", err)
	}

	mgrOpts := []session.Option{session.WithLogger(log.With("session"))}
	if cfg.Session.ShareAcrossRuns {
		dir := cfg.Session.CacheDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(repoRoot(), dir)
		}
		fs, err := store.NewFileStore(dir)
		if err != nil {
			_ = driver.Shutdown()
			t.Fatalf("failed to open session cache: %v", err)
		}
		mgrOpts = append(mgrOpts, session.WithStore(fs))
	}

	sharedEnv = &Env{
		Config:   cfg,
		Driver:   driver,
		Sessions: session.NewManager(mgrOpts...),
		Login:    login,
		Probe:    p,
		Admin:    creds.OrangeHRM.Identity(),
	}
	return sharedEnv
}

// LoginAsAdmin acquires the admin session and returns a page in a context
// restored from it.
func (env *Env) LoginAsAdmin(t *testing.T) (playwright.Page, *session.Handle) {
	t.Helper()

	h, err := env.Sessions.Acquire(context.Background(), env.Admin, env.Login, env.Probe.Validate)
	if err != nil {
		t.Fatalf("failed to acquire admin session: %v", err)
	}
	return env.NewPage(t, &h.State), h
}

// NewPage opens a page in a fresh context, closed when the test ends.
func (env *Env) NewPage(t *testing.T, state *session.StorageState) playwright.Page {
	t.Helper()

	bctx, err := env.Driver.NewContext(state)
	if err != nil {
		t.Fatalf("could not create browser context: %v", err)
	}
	t.Cleanup(func() { _ = env.Driver.CloseContext(bctx) })

	page, err := bctx.NewPage()
	if err != nil {
		t.Fatalf("could not create page: %v", err)
	}
	return page
}
