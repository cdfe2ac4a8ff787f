package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/entrhq/hrsuite/pkg/browser"
	"github.com/entrhq/hrsuite/pkg/config"
	"github.com/entrhq/hrsuite/pkg/logging"
	"github.com/entrhq/hrsuite/pkg/probe"
	"github.com/entrhq/hrsuite/pkg/session"
	"github.com/entrhq/hrsuite/pkg/store"
)

// loginFactory builds the login procedure and returns a func releasing its
// resources.
type loginFactory func(a *app) (session.LoginFunc, func() error, error)

type app struct {
	cfg      *config.Config
	store    *store.FileStore
	log      *logging.Logger
	out      io.Writer
	newLogin loginFactory
}

// run loads configuration and dispatches the command.
func run(ctx context.Context, opts *Options, out io.Writer) error {
	if opts.Command == "version" {
		fmt.Fprintf(out, "hrsuite v%s\n", version)
		return nil
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if cfg.Logging.Dir != "" {
		if err := os.Setenv(logging.EnvLogDir, cfg.Logging.Dir); err != nil {
			return fmt.Errorf("failed to set log directory: %w", err)
		}
	}

	// on error the logger has already fallen back to stderr and said so
	log, _ := logging.NewLogger("hrsuite")
	defer log.Close()

	a, err := newApp(cfg, log, out)
	if err != nil {
		return err
	}
	return a.dispatch(ctx, opts)
}

func newApp(cfg *config.Config, log *logging.Logger, out io.Writer) (*app, error) {
	fs, err := store.NewFileStore(cfg.Session.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open session cache: %w", err)
	}
	return &app{
		cfg:      cfg,
		store:    fs,
		log:      log,
		out:      out,
		newLogin: browserLogin,
	}, nil
}

func (a *app) dispatch(ctx context.Context, opts *Options) error {
	switch opts.Command {
	case "list":
		return a.list(ctx)
	case "login":
		return a.login(ctx, opts.User, opts.Force)
	case "invalidate":
		return a.invalidate(opts.User)
	case "clear":
		return a.clear()
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, opts.Command)
	}
}

func (a *app) manager() *session.Manager {
	return session.NewManager(
		session.WithStore(a.store),
		session.WithLogger(a.log.With("session")),
	)
}

func (a *app) identity(user string) (session.Identity, error) {
	creds, err := config.LoadCredentials(a.cfg.Fixtures.Credentials)
	if err != nil {
		return session.Identity{}, err
	}
	acct, err := creds.Account(user)
	if err != nil {
		return session.Identity{}, err
	}
	return acct.Identity(), nil
}

func (a *app) list(ctx context.Context) error {
	recs, err := a.store.Load(ctx)
	var corrupt *session.CacheCorruptionError
	if errors.As(err, &corrupt) {
		fmt.Fprintln(a.out, warnStyle.Render(fmt.Sprintf("ignoring %d unreadable cache file(s): %v", len(corrupt.Files), corrupt.Files)))
	} else if err != nil {
		return fmt.Errorf("failed to read session cache: %w", err)
	}

	fmt.Fprint(a.out, renderRecords(a.store.Dir(), recs))
	return nil
}

func (a *app) login(ctx context.Context, user string, force bool) error {
	id, err := a.identity(user)
	if err != nil {
		return err
	}

	p, err := probe.New(a.cfg.BaseURL, a.cfg.Session.ProbePath, probe.WithTimeout(a.cfg.Session.ProbeTimeout))
	if err != nil {
		return err
	}

	// building the procedure is cheap; the browser starts only if it runs
	loginFn, release, err := a.newLogin(a)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := release(); rerr != nil {
			a.log.Warnf("Releasing browser: %v", rerr)
		}
	}()

	mgr := a.manager()
	if force {
		mgr.Invalidate(id)
	}

	h, err := mgr.Acquire(ctx, id, loginFn, p.Validate)
	if err != nil {
		return err
	}

	verb := "logged in"
	if h.Reused {
		verb = "reused cached session"
	}
	fmt.Fprintf(a.out, "%s %s for %s (%d cookies)\n", okStyle.Render("✓"), verb, h.Identity, len(h.State.Cookies))
	return nil
}

func (a *app) invalidate(user string) error {
	id, err := a.identity(user)
	if err != nil {
		return err
	}

	mgr := a.manager()
	if _, ok := mgr.Lookup(id); !ok {
		fmt.Fprintf(a.out, "no cached session for %s\n", id)
		return nil
	}
	mgr.Invalidate(id)
	fmt.Fprintf(a.out, "%s invalidated session for %s\n", okStyle.Render("✓"), id)
	return nil
}

func (a *app) clear() error {
	mgr := a.manager()
	n := len(mgr.Records())
	mgr.Clear()
	fmt.Fprintf(a.out, "%s cleared %d cached session(s) from %s\n", okStyle.Render("✓"), n, a.store.Dir())
	return nil
}

// browserLogin returns the form login procedure. Chromium starts on the
// first login, so a reused session never launches it.
func browserLogin(a *app) (session.LoginFunc, func() error, error) {
	d := browser.NewDriver(browser.OptionsFromConfig(a.cfg), a.log.With("browser"))

	loginFn, err := browser.FormLogin(d, browser.LoginOptions{
		Path:       a.cfg.Login.Path,
		SuccessURL: a.cfg.Login.SuccessURL,
	})
	if err != nil {
		return nil, nil, err
	}
	return startOnFirstLogin(d.Start, loginFn), d.Shutdown, nil
}

// startOnFirstLogin runs start before each login. start must be a no-op
// once it has succeeded.
func startOnFirstLogin(start func() error, login session.LoginFunc) session.LoginFunc {
	return func(ctx context.Context, id session.Identity) (session.StorageState, error) {
		if err := start(); err != nil {
			return session.StorageState{}, err
		}
		return login(ctx, id)
	}
}
