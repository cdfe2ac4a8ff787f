package browser

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/hrsuite/pkg/logging"
	"github.com/entrhq/hrsuite/pkg/session"
)

// ErrNotStarted is returned when a context is requested before Start.
var ErrNotStarted = errors.New("browser driver not started")

// Driver owns the Playwright instance and a single Chromium browser. Every
// login and every test gets its own isolated context from it.
type Driver struct {
	mu       sync.Mutex
	opts     Options
	pw       *playwright.Playwright
	browser  playwright.Browser
	contexts map[playwright.BrowserContext]struct{}
	started  bool
	log      *logging.Logger
}

// NewDriver creates a driver. Nothing is launched until Start.
func NewDriver(opts Options, log *logging.Logger) *Driver {
	if log == nil {
		log = logging.NewNopLogger("browser")
	}
	return &Driver{
		opts:     opts.withDefaults(),
		contexts: make(map[playwright.BrowserContext]struct{}),
		log:      log,
	}
}

// Options returns the effective options.
func (d *Driver) Options() Options {
	return d.opts
}

// Start installs Playwright when configured, runs the driver and launches
// Chromium. Calling Start on a started driver is a no-op.
func (d *Driver) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return nil
	}

	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if d.opts.Install {
		d.log.Infof("Installing Playwright driver and Chromium")
		if err := playwright.Install(runOpts); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(d.opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	d.pw = pw
	d.browser = browser
	d.started = true
	d.log.Infof("Chromium launched (headless=%v)", d.opts.Headless)
	return nil
}

// NewContext opens an isolated browser context with the configured viewport,
// base URL and timeouts. A non-nil state is restored into the context.
func (d *Driver) NewContext(state *session.StorageState) (playwright.BrowserContext, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return nil, ErrNotStarted
	}

	ctxOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  d.opts.Viewport.Width,
			Height: d.opts.Viewport.Height,
		},
	}
	if d.opts.BaseURL != "" {
		ctxOpts.BaseURL = playwright.String(d.opts.BaseURL)
	}
	if state != nil {
		ctxOpts.StorageState = toPlaywrightState(*state, d.opts.BaseURL)
	}

	bctx, err := d.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}
	bctx.SetDefaultTimeout(ms(d.opts.CommandTimeout))
	bctx.SetDefaultNavigationTimeout(ms(d.opts.PageLoadTimeout))

	d.contexts[bctx] = struct{}{}
	return bctx, nil
}

// CloseContext closes a context opened by NewContext.
func (d *Driver) CloseContext(bctx playwright.BrowserContext) error {
	d.mu.Lock()
	delete(d.contexts, bctx)
	d.mu.Unlock()

	if err := bctx.Close(); err != nil {
		return fmt.Errorf("failed to close context: %w", err)
	}
	return nil
}

// CaptureState snapshots the cookies and local storage of a context.
func CaptureState(bctx playwright.BrowserContext) (session.StorageState, error) {
	st, err := bctx.StorageState()
	if err != nil {
		return session.StorageState{}, fmt.Errorf("failed to capture storage state: %w", err)
	}
	return fromPlaywrightState(st), nil
}

// Shutdown closes every open context, the browser and Playwright.
func (d *Driver) Shutdown() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return nil
	}

	var errs []error
	for bctx := range d.contexts {
		if err := bctx.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(d.contexts, bctx)
	}
	if err := d.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
	}
	if err := d.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
	}

	d.started = false
	d.browser = nil
	d.pw = nil
	return errors.Join(errs...)
}
