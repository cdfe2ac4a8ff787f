package browser

import (
	"time"

	"github.com/entrhq/hrsuite/pkg/config"
)

// Options configures a Driver.
type Options struct {
	// BaseURL is applied to every context so page objects can use paths
	BaseURL string

	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Install downloads the driver and Chromium before the first launch
	Install bool

	// Viewport sets the size of every new context
	Viewport Viewport

	// CommandTimeout bounds actions such as fill, click and waits
	CommandTimeout time.Duration

	// PageLoadTimeout bounds navigations
	PageLoadTimeout time.Duration
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// Default values used when Options leaves a field unset.
const (
	DefaultViewportWidth   = 1366
	DefaultViewportHeight  = 800
	DefaultCommandTimeout  = 6 * time.Second
	DefaultPageLoadTimeout = 30 * time.Second
)

// OptionsFromConfig derives driver options from the suite configuration,
// picking the CI or local timeout profile.
func OptionsFromConfig(cfg *config.Config) Options {
	t := cfg.Effective()
	return Options{
		BaseURL:  cfg.BaseURL,
		Headless: cfg.Browser.Headless,
		Install:  cfg.Browser.Install,
		Viewport: Viewport{
			Width:  cfg.Viewport.Width,
			Height: cfg.Viewport.Height,
		},
		CommandTimeout:  t.Command,
		PageLoadTimeout: t.PageLoad,
	}
}

func (o Options) withDefaults() Options {
	if o.Viewport.Width <= 0 || o.Viewport.Height <= 0 {
		o.Viewport = Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}
	if o.CommandTimeout <= 0 {
		o.CommandTimeout = DefaultCommandTimeout
	}
	if o.PageLoadTimeout <= 0 {
		o.PageLoadTimeout = DefaultPageLoadTimeout
	}
	return o
}

// ms converts a duration into the float milliseconds Playwright expects.
func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
